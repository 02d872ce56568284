package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/vanshika/socialnet/internal/dataset"
	"github.com/vanshika/socialnet/internal/service"
)

// Generator produces synthetic social networks whose users pass service
// validation.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	defaults := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = defaults.NumUsers
	}
	if cfg.Communities <= 0 {
		cfg.Communities = defaults.Communities
	}
	if cfg.Communities > cfg.NumUsers {
		cfg.Communities = cfg.NumUsers
	}
	if cfg.AvgFriends < 0 {
		cfg.AvgFriends = defaults.AvgFriends
	}
	if cfg.BridgeChance < 0 {
		cfg.BridgeChance = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
	}
}

// Config returns the effective configuration after defaults were applied.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate synthesises users and friendships. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (dataset.Dataset, error) {
	users := make([]service.UserInput, g.cfg.NumUsers)
	for i := range users {
		if err := ctx.Err(); err != nil {
			return dataset.Dataset{}, err
		}
		users[i] = g.randomUser(i)
	}

	// User i belongs to group i % Communities.
	groups := make([][]int, g.cfg.Communities)
	for i := range users {
		groups[i%g.cfg.Communities] = append(groups[i%g.cfg.Communities], i)
	}

	seen := make(map[[2]int]struct{})
	var friendships []service.FriendshipInput
	link := func(a, b int) {
		if a == b {
			return
		}
		pair := [2]int{min(a, b), max(a, b)}
		if _, ok := seen[pair]; ok {
			return
		}
		seen[pair] = struct{}{}
		friendships = append(friendships, service.FriendshipInput{A: users[a].Key(), B: users[b].Key()})
	}

	for i := range users {
		if err := ctx.Err(); err != nil {
			return dataset.Dataset{}, err
		}
		group := groups[i%g.cfg.Communities]
		if len(group) > 1 {
			for n := g.friendCount(); n > 0; n-- {
				link(i, group[g.rand.Intn(len(group))])
			}
		}
		if g.cfg.Communities > 1 && g.rand.Float64() < g.cfg.BridgeChance {
			link(i, g.rand.Intn(len(users)))
		}
	}

	return dataset.Dataset{Users: users, Friendships: friendships}, nil
}

// friendCount draws a count with mean AvgFriends: the integer part plus one
// more with probability equal to the fraction.
func (g *Generator) friendCount() int {
	whole := int(g.cfg.AvgFriends)
	if g.rand.Float64() < g.cfg.AvgFriends-float64(whole) {
		whole++
	}
	return whole
}

func (g *Generator) randomUser(idx int) service.UserInput {
	first := g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))]
	last := g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))]
	handle := fmt.Sprintf("%s.%s%d", strings.ToLower(first), strings.ToLower(last), idx+1)
	domain := g.nameFragments.domains[g.rand.Intn(len(g.nameFragments.domains))]

	return service.UserInput{
		Name:     first + " " + last,
		Username: handle,
		Email:    handle + "@" + domain,
		Password: g.randomPassword(),
	}
}

const passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func (g *Generator) randomPassword() string {
	buf := make([]byte, 12)
	for i := range buf {
		buf[i] = passwordAlphabet[g.rand.Intn(len(passwordAlphabet))]
	}
	return string(buf)
}

type nameFragments struct {
	first   []string
	last    []string
	domains []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:   []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:    []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		domains: []string{"example.com", "mail.com", "friends.net", "social.io", "campus.org"},
	}
}
