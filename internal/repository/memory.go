package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/vanshika/socialnet/internal/community"
	"github.com/vanshika/socialnet/internal/domain"
)

type friendSet = orderedmap.OrderedMap[domain.Identity, struct{}]

// MemoryRepository keeps the social graph in process memory. Users and each
// user's friends are iterated in insertion order, which makes analyses over
// its snapshots deterministic.
type MemoryRepository struct {
	mu      sync.RWMutex
	users   *orderedmap.OrderedMap[domain.Identity, domain.User]
	friends map[domain.Identity]*friendSet
	nowFn   func() time.Time
}

// NewMemoryRepository returns an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:   orderedmap.New[domain.Identity, domain.User](),
		friends: make(map[domain.Identity]*friendSet),
		nowFn:   time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (m *MemoryRepository) WithClock(nowFn func() time.Time) *MemoryRepository {
	if nowFn != nil {
		m.nowFn = nowFn
	}
	return m
}

// AddUser stores a new user together with an empty friend set.
func (m *MemoryRepository) AddUser(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users.Get(user.Identity); ok {
		return fmt.Errorf("add user %s: %w", user.Identity, ErrUserExists)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = m.nowFn().UTC()
	}
	m.users.Set(user.Identity, user)
	m.friends[user.Identity] = orderedmap.New[domain.Identity, struct{}]()
	return nil
}

// RemoveUser deletes a user and every friendship that references it.
func (m *MemoryRepository) RemoveUser(_ context.Context, id domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users.Delete(id); !ok {
		return fmt.Errorf("remove user %s: %w", id, ErrUserNotFound)
	}
	delete(m.friends, id)
	for _, set := range m.friends {
		set.Delete(id)
	}
	return nil
}

// AddFriendship links two existing users in both directions.
func (m *MemoryRepository) AddFriendship(_ context.Context, a, b domain.Identity) error {
	if a == b {
		return fmt.Errorf("add friendship %s: %w", a, ErrSelfFriendship)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUsers(a, b); err != nil {
		return fmt.Errorf("add friendship: %w", err)
	}
	if _, ok := m.friends[a].Get(b); ok {
		return fmt.Errorf("add friendship %s-%s: %w", a, b, ErrFriendshipExists)
	}
	m.friends[a].Set(b, struct{}{})
	m.friends[b].Set(a, struct{}{})
	return nil
}

// RemoveFriendship unlinks two users in both directions.
func (m *MemoryRepository) RemoveFriendship(_ context.Context, a, b domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUsers(a, b); err != nil {
		return fmt.Errorf("remove friendship: %w", err)
	}
	if _, ok := m.friends[a].Delete(b); !ok {
		return fmt.Errorf("remove friendship %s-%s: %w", a, b, ErrFriendshipNotFound)
	}
	m.friends[b].Delete(a)
	return nil
}

// GetUser returns the user stored under id.
func (m *MemoryRepository) GetUser(_ context.Context, id domain.Identity) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users.Get(id)
	if !ok {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, ErrUserNotFound)
	}
	return user, nil
}

// ListUsers returns every user in insertion order.
func (m *MemoryRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]domain.User, 0, m.users.Len())
	for pair := m.users.Oldest(); pair != nil; pair = pair.Next() {
		users = append(users, pair.Value)
	}
	return users, nil
}

// FriendsOf returns the friends of id in the order the friendships were made.
func (m *MemoryRepository) FriendsOf(_ context.Context, id domain.Identity) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.friends[id]
	if !ok {
		return nil, fmt.Errorf("friends of %s: %w", id, ErrUserNotFound)
	}
	friends := make([]domain.User, 0, set.Len())
	for pair := set.Oldest(); pair != nil; pair = pair.Next() {
		user, ok := m.users.Get(pair.Key)
		if !ok {
			return nil, fmt.Errorf("friends of %s: %s: %w", id, pair.Key, ErrUserNotFound)
		}
		friends = append(friends, user)
	}
	return friends, nil
}

// Snapshot copies the current graph into an immutable analysis view.
func (m *MemoryRepository) Snapshot(_ context.Context) (*community.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b := community.NewBuilder(m.users.Len())
	for pair := m.users.Oldest(); pair != nil; pair = pair.Next() {
		b.AddUser(pair.Value)
	}
	for pair := m.users.Oldest(); pair != nil; pair = pair.Next() {
		set := m.friends[pair.Key]
		if set == nil {
			continue
		}
		for f := set.Oldest(); f != nil; f = f.Next() {
			b.AddFriend(pair.Key, f.Key)
		}
	}
	return b.Build(), nil
}

func (m *MemoryRepository) requireUsers(ids ...domain.Identity) error {
	for _, id := range ids {
		if _, ok := m.users.Get(id); !ok {
			return fmt.Errorf("%s: %w", id, ErrUserNotFound)
		}
	}
	return nil
}
