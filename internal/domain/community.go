package domain

// CommunityReport summarises both analyses computed over one snapshot.
type CommunityReport struct {
	Communities int
	MostActive  []User
}
