package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vanshika/socialnet/internal/community"
	"github.com/vanshika/socialnet/internal/domain"
	"github.com/vanshika/socialnet/internal/graph"
)

// Repository persists the social graph in a Cypher-speaking graph database.
// Friendships are stored as a single FRIENDS_WITH relationship and read in
// both directions.
type Repository struct {
	client graph.Client
	nowFn  func() time.Time

	clockMu   sync.Mutex
	lastSince int64
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client, nowFn: time.Now}
}

// WithClock overrides the time provider (used primarily in tests).
func (r *Repository) WithClock(nowFn func() time.Time) *Repository {
	if nowFn != nil {
		r.nowFn = nowFn
	}
	return r
}

// EnsureSchema creates the identity uniqueness constraint. It is idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.client.ExecuteWrite(ctx, ensureSchemaCypher, nil); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// AddUser creates a user node unless one already exists for the identity.
func (r *Repository) AddUser(ctx context.Context, user domain.User) error {
	if user.Identity == "" {
		return errors.New("user identity is required")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.nowFn().UTC()
	}

	res, err := r.client.ExecuteWrite(ctx, addUserCypher, map[string]any{
		"identity": user.Identity.String(),
		"props":    userProperties(user),
	})
	if err != nil {
		return fmt.Errorf("add user %s: %w", user.Identity, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("add user %s: %w", user.Identity, ErrUserExists)
	}
	return nil
}

// RemoveUser deletes a user node together with all of its friendships.
func (r *Repository) RemoveUser(ctx context.Context, id domain.Identity) error {
	res, err := r.client.ExecuteWrite(ctx, removeUserCypher, map[string]any{"identity": id.String()})
	if err != nil {
		return fmt.Errorf("remove user %s: %w", id, err)
	}
	if countOf(res, "removed") == 0 {
		return fmt.Errorf("remove user %s: %w", id, ErrUserNotFound)
	}
	return nil
}

// AddFriendship links two existing users.
func (r *Repository) AddFriendship(ctx context.Context, a, b domain.Identity) error {
	if a == b {
		return fmt.Errorf("add friendship %s: %w", a, ErrSelfFriendship)
	}

	res, err := r.client.ExecuteWrite(ctx, addFriendshipCypher, map[string]any{
		"a":       a.String(),
		"b":       b.String(),
		"sinceNs": r.nextSince(),
	})
	if err != nil {
		return fmt.Errorf("add friendship %s-%s: %w", a, b, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("add friendship %s-%s: %w", a, b, ErrUserNotFound)
	}
	if already, _ := res.Records[0]["already"].(bool); already {
		return fmt.Errorf("add friendship %s-%s: %w", a, b, ErrFriendshipExists)
	}
	return nil
}

// nextSince returns a strictly increasing friendship timestamp, so friend
// lists read back in the order friendships were added.
func (r *Repository) nextSince() int64 {
	r.clockMu.Lock()
	defer r.clockMu.Unlock()

	now := r.nowFn().UTC().UnixNano()
	if now <= r.lastSince {
		now = r.lastSince + 1
	}
	r.lastSince = now
	return now
}

// RemoveFriendship deletes the relationship between two users.
func (r *Repository) RemoveFriendship(ctx context.Context, a, b domain.Identity) error {
	res, err := r.client.ExecuteWrite(ctx, removeFriendshipCypher, map[string]any{
		"a": a.String(),
		"b": b.String(),
	})
	if err != nil {
		return fmt.Errorf("remove friendship %s-%s: %w", a, b, err)
	}
	if countOf(res, "removed") == 0 {
		return fmt.Errorf("remove friendship %s-%s: %w", a, b, ErrFriendshipNotFound)
	}
	return nil
}

// GetUser loads a single user by identity.
func (r *Repository) GetUser(ctx context.Context, id domain.Identity) (domain.User, error) {
	res, err := r.client.ExecuteRead(ctx, getUserCypher, map[string]any{"identity": id.String()})
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, ErrUserNotFound)
	}
	return recordToUser(res.Records[0]), nil
}

// ListUsers returns every user ordered by creation.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	res, err := r.client.ExecuteRead(ctx, listUsersCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("list users query: %w", err)
	}
	users := make([]domain.User, 0, len(res.Records))
	for _, record := range res.Records {
		users = append(users, recordToUser(record))
	}
	return users, nil
}

// FriendsOf returns the friends of id ordered by when the friendship was made.
func (r *Repository) FriendsOf(ctx context.Context, id domain.Identity) ([]domain.User, error) {
	res, err := r.client.ExecuteRead(ctx, friendsOfCypher, map[string]any{"identity": id.String()})
	if err != nil {
		return nil, fmt.Errorf("friends of %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("friends of %s: %w", id, ErrUserNotFound)
	}

	// A user without friends yields a single row of nulls. Friendships
	// written twice before the endpoint lock existed are reported once.
	friends := make([]domain.User, 0, len(res.Records))
	seen := make(map[domain.Identity]struct{}, len(res.Records))
	for _, record := range res.Records {
		friend := recordToUser(record)
		if friend.Identity == "" {
			continue
		}
		if _, dup := seen[friend.Identity]; dup {
			continue
		}
		seen[friend.Identity] = struct{}{}
		friends = append(friends, friend)
	}
	return friends, nil
}

// Snapshot reads every user and friend list in a single query and converts
// them into an analysis view.
func (r *Repository) Snapshot(ctx context.Context) (*community.Snapshot, error) {
	res, err := r.client.ExecuteRead(ctx, snapshotCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot query: %w", err)
	}

	b := community.NewBuilder(len(res.Records))
	for _, record := range res.Records {
		b.AddUser(recordToUser(record))
	}
	for _, record := range res.Records {
		from := domain.Identity(toString(record["identity"]))
		for _, friend := range toStringSlice(record["friends"]) {
			b.AddFriend(from, domain.Identity(friend))
		}
	}
	return b.Build(), nil
}

func userProperties(u domain.User) map[string]any {
	return map[string]any{
		"name":          u.Name,
		"username":      u.Username,
		"email":         u.Email,
		"passwordHash":  u.PasswordHash,
		"createdAt":     formatTime(u.CreatedAt),
		"createdAtUnix": u.CreatedAt.UnixNano(),
	}
}

func recordToUser(record graph.Record) domain.User {
	user := domain.User{
		Identity:     domain.Identity(toString(record["identity"])),
		Name:         toString(record["name"]),
		Username:     toString(record["username"]),
		Email:        toString(record["email"]),
		PasswordHash: toString(record["passwordHash"]),
	}
	if created := toTimePtr(record["createdAt"]); created != nil {
		user.CreatedAt = *created
	}
	return user
}

func countOf(res graph.Result, key string) int64 {
	if len(res.Records) == 0 {
		return 0
	}
	switch v := res.Records[0][key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toStringSlice(val any) []string {
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
	}
	return nil
}

const ensureSchemaCypher = `
CREATE CONSTRAINT user_identity_unique IF NOT EXISTS
FOR (u:User) REQUIRE u.identity IS UNIQUE
`

const addUserCypher = `
OPTIONAL MATCH (existing:User {identity: $identity})
WITH existing
WHERE existing IS NULL
CREATE (u:User {identity: $identity})
SET u += $props
RETURN u.identity AS identity
`

const removeUserCypher = `
OPTIONAL MATCH (u:User {identity: $identity})
WITH u, CASE WHEN u IS NULL THEN 0 ELSE 1 END AS removed
DETACH DELETE u
RETURN removed
`

// addFriendshipCypher write-locks both endpoints in identity order before the
// existence check, so concurrent A-B and B-A calls serialise instead of both
// creating a relationship.
const addFriendshipCypher = `
MATCH (x:User {identity: $a})
MATCH (y:User {identity: $b})
WITH CASE WHEN x.identity < y.identity THEN [x, y] ELSE [y, x] END AS pair
WITH pair[0] AS lo, pair[1] AS hi
SET lo._lock = true
WITH lo, hi
SET hi._lock = true
WITH lo, hi, EXISTS { (lo)-[:FRIENDS_WITH]-(hi) } AS already
FOREACH (_ IN CASE WHEN already THEN [] ELSE [1] END |
	CREATE (lo)-[:FRIENDS_WITH {sinceNs: $sinceNs}]->(hi)
)
REMOVE lo._lock, hi._lock
RETURN already
`

const removeFriendshipCypher = `
OPTIONAL MATCH (:User {identity: $a})-[r:FRIENDS_WITH]-(:User {identity: $b})
WITH collect(r) AS rels
FOREACH (rel IN rels | DELETE rel)
RETURN size(rels) AS removed
`

const userColumns = `
       u.identity AS identity,
       u.name AS name,
       u.username AS username,
       u.email AS email,
       u.passwordHash AS passwordHash,
       u.createdAt AS createdAt`

const getUserCypher = `
MATCH (u:User {identity: $identity})
RETURN` + userColumns + `
`

const listUsersCypher = `
MATCH (u:User)
RETURN` + userColumns + `
ORDER BY u.createdAtUnix ASC, u.identity ASC
`

const friendsOfCypher = `
MATCH (me:User {identity: $identity})
OPTIONAL MATCH (me)-[r:FRIENDS_WITH]-(u:User)
WITH u, min(r.sinceNs) AS since
ORDER BY since ASC, u.identity ASC
RETURN` + userColumns + `
`

const snapshotCypher = `
MATCH (u:User)
OPTIONAL MATCH (u)-[r:FRIENDS_WITH]-(f:User)
WITH u, f, r
ORDER BY r.sinceNs ASC, f.identity ASC
WITH u, collect(f.identity) AS friends
RETURN` + userColumns + `,
       friends
ORDER BY u.createdAtUnix ASC, u.identity ASC
`
