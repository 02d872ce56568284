package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vanshika/socialnet/internal/community"
	"github.com/vanshika/socialnet/internal/domain"
	"github.com/vanshika/socialnet/internal/graph"
)

var fixedNow = time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)

func newTestRepo(mem *graph.MemoryClient) *Repository {
	return New(mem).WithClock(func() time.Time { return fixedNow })
}

func TestRepository_AddUser(t *testing.T) {
	mem := graph.NewMemoryClient().On(addUserCypher, graph.Result{Records: []graph.Record{{"identity": "jane@example.comjane"}}})
	repo := newTestRepo(mem)

	user := domain.User{
		Identity:     domain.NewIdentity("jane@example.com", "jane"),
		Name:         "Jane Doe",
		Username:     "jane",
		Email:        "jane@example.com",
		PasswordHash: "$argon2id$...",
	}
	if err := repo.AddUser(context.Background(), user); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	calls := mem.WriteCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 write query, got %d", len(calls))
	}
	call := calls[0]
	if call.Query != addUserCypher {
		t.Fatalf("unexpected query\nexpected:\n%s\ngot:\n%s", addUserCypher, call.Query)
	}
	if call.Params["identity"] != "jane@example.comjane" {
		t.Errorf("expected identity param, got %v", call.Params["identity"])
	}

	props, ok := call.Params["props"].(map[string]any)
	if !ok {
		t.Fatalf("expected props map, got %T", call.Params["props"])
	}
	if props["name"] != user.Name {
		t.Errorf("name mismatch: want %s got %v", user.Name, props["name"])
	}
	if props["createdAt"] != fixedNow.Format(time.RFC3339Nano) {
		t.Errorf("expected createdAt from clock, got %v", props["createdAt"])
	}
	if props["createdAtUnix"] != fixedNow.UnixNano() {
		t.Errorf("expected createdAtUnix from clock, got %v", props["createdAtUnix"])
	}
}

func TestRepository_AddUserDuplicate(t *testing.T) {
	repo := newTestRepo(graph.NewMemoryClient())

	err := repo.AddUser(context.Background(), domain.User{Identity: "a"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	if err := repo.AddUser(context.Background(), domain.User{}); err == nil {
		t.Fatal("expected error for empty identity")
	}
}

func TestRepository_RemoveUser(t *testing.T) {
	mem := graph.NewMemoryClient().
		On(removeUserCypher,
			graph.Result{Records: []graph.Record{{"removed": int64(1)}}},
			graph.Result{Records: []graph.Record{{"removed": int64(0)}}},
		)
	repo := newTestRepo(mem)

	if err := repo.RemoveUser(context.Background(), "a"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := repo.RemoveUser(context.Background(), "a"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRepository_AddFriendship(t *testing.T) {
	mem := graph.NewMemoryClient().
		On(addFriendshipCypher,
			graph.Result{Records: []graph.Record{{"already": false}}},
			graph.Result{Records: []graph.Record{{"already": true}}},
			graph.Result{},
		)
	repo := newTestRepo(mem)
	ctx := context.Background()

	if err := repo.AddFriendship(ctx, "a", "b"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := repo.AddFriendship(ctx, "a", "b"); !errors.Is(err, ErrFriendshipExists) {
		t.Fatalf("expected ErrFriendshipExists, got %v", err)
	}
	if err := repo.AddFriendship(ctx, "a", "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := repo.AddFriendship(ctx, "a", "a"); !errors.Is(err, ErrSelfFriendship) {
		t.Fatalf("expected ErrSelfFriendship, got %v", err)
	}

	calls := mem.WriteCalls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 write queries (self-friendship never reaches the graph), got %d", len(calls))
	}
	if calls[0].Params["sinceNs"] != fixedNow.UnixNano() {
		t.Errorf("expected sinceNs from clock, got %v", calls[0].Params["sinceNs"])
	}
	for i := 1; i < len(calls); i++ {
		prev, _ := calls[i-1].Params["sinceNs"].(int64)
		cur, _ := calls[i].Params["sinceNs"].(int64)
		if cur <= prev {
			t.Errorf("expected strictly increasing sinceNs with a frozen clock, got %d after %d", cur, prev)
		}
	}
}

func TestAddFriendshipCypherLocksEndpointsInOrder(t *testing.T) {
	lockLo := strings.Index(addFriendshipCypher, "SET lo._lock")
	lockHi := strings.Index(addFriendshipCypher, "SET hi._lock")
	check := strings.Index(addFriendshipCypher, "EXISTS {")
	create := strings.Index(addFriendshipCypher, "CREATE (lo)-[:FRIENDS_WITH")
	release := strings.Index(addFriendshipCypher, "REMOVE lo._lock, hi._lock")

	if !strings.Contains(addFriendshipCypher, "CASE WHEN x.identity < y.identity THEN [x, y] ELSE [y, x] END") {
		t.Fatalf("endpoints must be ordered by identity before locking")
	}
	if lockLo < 0 || lockHi < lockLo || check < lockHi || create < check || release < create {
		t.Fatalf("expected lock lo, lock hi, existence check, create, release in that order:\n%s", addFriendshipCypher)
	}
}

func TestRepository_FriendsOfCollapsesDuplicateRelationships(t *testing.T) {
	mem := graph.NewMemoryClient().On(friendsOfCypher, graph.Result{Records: []graph.Record{
		{"identity": "b", "name": "Bob"},
		{"identity": "b", "name": "Bob"},
		{"identity": "c", "name": "Carol"},
	}})
	repo := newTestRepo(mem)

	friends, err := repo.FriendsOf(context.Background(), "a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(friends) != 2 || friends[0].Name != "Bob" || friends[1].Name != "Carol" {
		t.Fatalf("expected Bob then Carol once each, got %+v", friends)
	}
	if !strings.Contains(friendsOfCypher, "min(r.sinceNs)") {
		t.Fatalf("friends query must aggregate parallel relationships")
	}
}

func TestRepository_RemoveFriendship(t *testing.T) {
	mem := graph.NewMemoryClient().
		On(removeFriendshipCypher,
			graph.Result{Records: []graph.Record{{"removed": int64(1)}}},
			graph.Result{Records: []graph.Record{{"removed": int64(0)}}},
		)
	repo := newTestRepo(mem)

	if err := repo.RemoveFriendship(context.Background(), "a", "b"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := repo.RemoveFriendship(context.Background(), "a", "b"); !errors.Is(err, ErrFriendshipNotFound) {
		t.Fatalf("expected ErrFriendshipNotFound, got %v", err)
	}
}

func TestRepository_GetUserAndFriends(t *testing.T) {
	created := fixedNow.Format(time.RFC3339Nano)
	mem := graph.NewMemoryClient().
		On(getUserCypher, graph.Result{Records: []graph.Record{{
			"identity": "a", "name": "Alice", "username": "alice", "email": "alice@example.com", "createdAt": created,
		}}}).
		On(friendsOfCypher,
			graph.Result{Records: []graph.Record{
				{"identity": "b", "name": "Bob"},
				{"identity": "c", "name": "Carol"},
			}},
			graph.Result{Records: []graph.Record{{"identity": nil}}},
		)
	repo := newTestRepo(mem)
	ctx := context.Background()

	user, err := repo.GetUser(ctx, "a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Name != "Alice" || !user.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := repo.GetUser(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	friends, err := repo.FriendsOf(ctx, "a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(friends) != 2 || friends[0].Name != "Bob" || friends[1].Name != "Carol" {
		t.Fatalf("unexpected friends %+v", friends)
	}

	lonely, err := repo.FriendsOf(ctx, "d")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(lonely) != 0 {
		t.Fatalf("expected no friends, got %+v", lonely)
	}

	if _, err := repo.FriendsOf(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRepository_Snapshot(t *testing.T) {
	mem := graph.NewMemoryClient().On(snapshotCypher, graph.Result{Records: []graph.Record{
		{"identity": "a", "name": "A", "friends": []any{"b"}},
		{"identity": "b", "name": "B", "friends": []any{"a", "c"}},
		{"identity": "c", "name": "C", "friends": []any{"b"}},
		{"identity": "d", "name": "D", "friends": []any{}},
	}})
	repo := newTestRepo(mem)

	snap, err := repo.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if snap.Len() != 4 {
		t.Fatalf("expected 4 users, got %d", snap.Len())
	}

	analyzer := community.NewAnalyzer(community.PathModeShared)
	count, err := analyzer.CountCommunities(snap)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 communities, got %d", count)
	}

	users, err := analyzer.MostActiveCommunity(snap)
	if err != nil {
		t.Fatalf("most active failed: %v", err)
	}
	var got []string
	for _, u := range users {
		got = append(got, u.Name)
	}
	if len(got) != 3 || got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Fatalf("unexpected most active community %v", got)
	}
}

func TestRepository_SnapshotDanglingFriend(t *testing.T) {
	mem := graph.NewMemoryClient().On(snapshotCypher, graph.Result{Records: []graph.Record{
		{"identity": "a", "friends": []any{"ghost"}},
	}})
	repo := newTestRepo(mem)

	snap, err := repo.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := community.NewAnalyzer(community.PathModeShared).CountCommunities(snap); !errors.Is(err, community.ErrLookupFailure) {
		t.Fatalf("expected ErrLookupFailure, got %v", err)
	}
}

func TestRepository_PropagatesClientErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := newTestRepo(graph.NewMemoryClient().WithError(boom))
	ctx := context.Background()

	if _, err := repo.Snapshot(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
	if _, err := repo.ListUsers(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
	if err := repo.EnsureSchema(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}
