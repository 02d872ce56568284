package domain

import "time"

// Identity is the unique key of a user inside the social graph. It is derived
// from the user's email and username and never changes once created.
type Identity string

// NewIdentity builds the identity for the given email and username pair.
func NewIdentity(email, username string) Identity {
	return Identity(email + username)
}

func (id Identity) String() string {
	return string(id)
}

// User is a member of the social network.
type User struct {
	Identity     Identity
	Name         string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Friendship is an undirected edge between two users.
type Friendship struct {
	A Identity
	B Identity
}
