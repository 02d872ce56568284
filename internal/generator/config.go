package generator

// Config drives the synthetic social network generator.
type Config struct {
	NumUsers int
	// Communities is the number of groups users are spread across. Friendships
	// are drawn inside a group except for bridges.
	Communities int
	// AvgFriends is the mean number of in-group friendships started per user.
	AvgFriends float64
	// BridgeChance is the probability that a user also befriends someone in
	// another group.
	BridgeChance float64
	Seed         int64
}

// DefaultConfig returns baseline settings for local experiments.
func DefaultConfig() Config {
	return Config{
		NumUsers:     1000,
		Communities:  20,
		AvgFriends:   2.5,
		BridgeChance: 0.02,
		Seed:         42,
	}
}
