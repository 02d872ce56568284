package community

import (
	"fmt"

	"github.com/vanshika/socialnet/internal/domain"
)

// Graph is the read-only view of the social graph consumed by the Analyzer.
// Implementations must stay stable for the duration of one analysis call.
type Graph interface {
	// Identities returns every user identity in a deterministic order.
	Identities() []domain.Identity
	// FriendsOf returns the friend identities of id, or false when id has no
	// friendship entry.
	FriendsOf(id domain.Identity) ([]domain.Identity, bool)
	// User returns the record stored for id.
	User(id domain.Identity) (domain.User, bool)
}

// Snapshot is an immutable, point-in-time copy of the graph.
type Snapshot struct {
	order   []domain.Identity
	users   map[domain.Identity]domain.User
	friends map[domain.Identity][]domain.Identity
}

var _ Graph = (*Snapshot)(nil)

func (s *Snapshot) Identities() []domain.Identity {
	return append([]domain.Identity(nil), s.order...)
}

// FriendsOf returns a copy of the friend list of id.
func (s *Snapshot) FriendsOf(id domain.Identity) ([]domain.Identity, bool) {
	friends, ok := s.friends[id]
	if !ok {
		return nil, false
	}
	return append([]domain.Identity(nil), friends...), true
}

func (s *Snapshot) User(id domain.Identity) (domain.User, bool) {
	u, ok := s.users[id]
	return u, ok
}

// Len reports the number of users held by the snapshot.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// Users maps identities back to user records, preserving order.
func Users(g Graph, ids []domain.Identity) ([]domain.User, error) {
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		u, ok := g.User(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrLookupFailure, id)
		}
		out = append(out, u)
	}
	return out, nil
}

// Builder assembles a Snapshot from a store's own representation.
// Users keep the order in which they were added; so do each user's friends.
type Builder struct {
	snap  *Snapshot
	edges map[domain.Identity]map[domain.Identity]struct{}
}

// NewBuilder returns an empty Builder with capacity for n users.
func NewBuilder(n int) *Builder {
	return &Builder{
		snap: &Snapshot{
			order:   make([]domain.Identity, 0, n),
			users:   make(map[domain.Identity]domain.User, n),
			friends: make(map[domain.Identity][]domain.Identity),
		},
		edges: make(map[domain.Identity]map[domain.Identity]struct{}),
	}
}

// AddUser registers a user. Adding the same identity twice keeps the first
// position and replaces the record.
func (b *Builder) AddUser(u domain.User) *Builder {
	if _, ok := b.snap.users[u.Identity]; !ok {
		b.snap.order = append(b.snap.order, u.Identity)
	}
	b.snap.users[u.Identity] = u
	return b
}

// AddFriend records "to" in the friend set of "from". The edge is directed;
// stores are expected to add both directions. Self-loops and duplicates are
// ignored.
func (b *Builder) AddFriend(from, to domain.Identity) *Builder {
	if from == to {
		return b
	}
	set, ok := b.edges[from]
	if !ok {
		set = make(map[domain.Identity]struct{})
		b.edges[from] = set
	}
	if _, dup := set[to]; dup {
		return b
	}
	set[to] = struct{}{}
	b.snap.friends[from] = append(b.snap.friends[from], to)
	return b
}

// AddFriendship records both directions of an undirected edge.
func (b *Builder) AddFriendship(a, c domain.Identity) *Builder {
	return b.AddFriend(a, c).AddFriend(c, a)
}

// Build returns the assembled snapshot. The builder must not be reused.
func (b *Builder) Build() *Snapshot {
	snap := b.snap
	b.snap = nil
	b.edges = nil
	return snap
}
