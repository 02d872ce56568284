package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/socialnet/internal/community"
	"github.com/vanshika/socialnet/internal/domain"
	"github.com/vanshika/socialnet/internal/repository"
	"github.com/vanshika/socialnet/internal/security"
)

type observation struct {
	operation string
	users     int
	err       error
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (r *recordingObserver) ObserveAnalysis(operation string, users int, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, observation{operation: operation, users: users, err: err})
}

// brokenStore returns a snapshot whose adjacency references a missing user,
// which a correct store never produces.
type brokenStore struct {
	*repository.MemoryRepository
	snapshotErr error
}

func (b *brokenStore) Snapshot(ctx context.Context) (*community.Snapshot, error) {
	if b.snapshotErr != nil {
		return nil, b.snapshotErr
	}
	return community.NewBuilder(1).
		AddUser(domain.User{Identity: "a"}).
		AddFriendship("a", "ghost").
		Build(), nil
}

func input(name string) UserInput {
	return UserInput{
		Name:     strings.ToUpper(name[:1]) + name[1:],
		Username: name,
		Email:    name + "@example.com",
		Password: "password-" + name,
	}
}

func key(name string) UserKey {
	return input(name).Key()
}

func newService(t *testing.T, names ...string) *SocialService {
	t.Helper()
	svc := NewSocialService(repository.NewMemoryRepository(), nil)
	for _, n := range names {
		_, err := svc.AddUser(context.Background(), input(n))
		require.NoError(t, err)
	}
	return svc
}

func befriend(t *testing.T, svc *SocialService, a, b string) {
	t.Helper()
	require.NoError(t, svc.AddFriendship(context.Background(), FriendshipInput{A: key(a), B: key(b)}))
}

func usernames(users []domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}

func TestSocialService_AddUser(t *testing.T) {
	svc := NewSocialService(repository.NewMemoryRepository(),
		security.NewArgon2Hasher(&security.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}))
	now := time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	user, err := svc.AddUser(context.Background(), UserInput{
		Name:     "  Jane   Doe ",
		Username: " jane ",
		Email:    "Jane.Doe@Example.com ",
		Password: "s3cret-passw0rd",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Identity("jane.doe@example.comjane"), user.Identity)
	assert.Equal(t, "Jane Doe", user.Name)
	assert.Equal(t, "jane", user.Username)
	assert.Equal(t, "jane.doe@example.com", user.Email)
	assert.Equal(t, now, user.CreatedAt)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"), user.PasswordHash)

	stored, err := svc.GetUser(context.Background(), UserKey{Email: "JANE.DOE@example.com", Username: "jane"})
	require.NoError(t, err)
	assert.Equal(t, user, stored)

	_, err = svc.AddUser(context.Background(), UserInput{Name: "Other", Username: "jane", Email: "jane.doe@example.com", Password: "another-password"})
	assert.ErrorIs(t, err, repository.ErrUserExists)
}

func TestSocialService_AddUserValidation(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name  string
		input UserInput
		msg   string
	}{
		{name: "missing name", input: UserInput{Username: "jane", Email: "jane@example.com", Password: "password1"}, msg: "name is required"},
		{name: "bad email", input: UserInput{Name: "Jane", Username: "jane", Email: "not-an-email", Password: "password1"}, msg: "email must be a valid email address"},
		{name: "short username", input: UserInput{Name: "Jane", Username: "ja", Email: "jane@example.com", Password: "password1"}, msg: "username must be at least 3 characters"},
		{name: "username with at", input: UserInput{Name: "Jane", Username: "ja@ne", Email: "jane@example.com", Password: "password1"}, msg: "username must not contain"},
		{name: "short password", input: UserInput{Name: "Jane", Username: "jane", Email: "jane@example.com", Password: "short"}, msg: "password must be at least 8 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddUser(context.Background(), tt.input)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSocialService_FriendshipValidation(t *testing.T) {
	svc := newService(t, "alice")

	err := svc.AddFriendship(context.Background(), FriendshipInput{A: key("alice"), B: UserKey{Email: "bob@example.com"}})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "b.username is required")

	err = svc.AddFriendship(context.Background(), FriendshipInput{A: key("alice"), B: key("alice")})
	assert.ErrorIs(t, err, repository.ErrSelfFriendship)

	err = svc.AddFriendship(context.Background(), FriendshipInput{A: key("alice"), B: key("nobody")})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestSocialService_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("two pairs", func(t *testing.T) {
		svc := newService(t, "anna", "bert", "cara", "dave")
		befriend(t, svc, "anna", "bert")
		befriend(t, svc, "cara", "dave")

		count, err := svc.CountCommunities(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("chain", func(t *testing.T) {
		svc := newService(t, "anna", "bert", "cara")
		befriend(t, svc, "anna", "bert")
		befriend(t, svc, "bert", "cara")

		count, err := svc.CountCommunities(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		users, err := svc.MostActiveCommunity(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"anna", "bert", "cara"}, usernames(users))
	})

	t.Run("no friendships", func(t *testing.T) {
		svc := newService(t, "anna", "bert", "cara")

		report, err := svc.Report(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Communities)
		assert.Equal(t, []string{"anna"}, usernames(report.MostActive))
	})

	t.Run("empty network", func(t *testing.T) {
		svc := newService(t)

		report, err := svc.Report(ctx)
		require.NoError(t, err)
		assert.Zero(t, report.Communities)
		assert.Empty(t, report.MostActive)
	})
}

func TestSocialService_RemoveUserSplitsCommunity(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "anna", "bert", "cara")
	befriend(t, svc, "anna", "bert")
	befriend(t, svc, "bert", "cara")

	require.NoError(t, svc.RemoveUser(ctx, key("bert")))
	assert.ErrorIs(t, svc.RemoveUser(ctx, key("bert")), repository.ErrUserNotFound)

	count, err := svc.CountCommunities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	friends, err := svc.Friends(ctx, key("anna"))
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestSocialService_DeleteAccountChecksPassword(t *testing.T) {
	ctx := context.Background()
	svc := NewSocialService(repository.NewMemoryRepository(),
		security.NewArgon2Hasher(&security.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}))
	_, err := svc.AddUser(ctx, input("anna"))
	require.NoError(t, err)

	creds := Credentials{Email: " ANNA@example.com", Username: "anna", Password: "wrong-password"}
	assert.ErrorIs(t, svc.DeleteAccount(ctx, creds), ErrInvalidCredentials)
	_, err = svc.GetUser(ctx, key("anna"))
	require.NoError(t, err, "a rejected delete must keep the user")

	err = svc.DeleteAccount(ctx, Credentials{Email: "anna@example.com", Username: "anna"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	creds.Password = input("anna").Password
	require.NoError(t, svc.DeleteAccount(ctx, creds))
	_, err = svc.GetUser(ctx, key("anna"))
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	assert.ErrorIs(t, svc.DeleteAccount(ctx, creds), ErrInvalidCredentials)
}

func TestSocialService_RemoveFriendship(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "anna", "bert")
	befriend(t, svc, "anna", "bert")

	require.NoError(t, svc.RemoveFriendship(ctx, FriendshipInput{A: key("bert"), B: key("anna")}))
	assert.ErrorIs(t, svc.RemoveFriendship(ctx, FriendshipInput{A: key("anna"), B: key("bert")}), repository.ErrFriendshipNotFound)

	count, err := svc.CountCommunities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSocialService_IsolatedAnalyzer(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "hub", "xena", "yuri", "zack")
	befriend(t, svc, "hub", "xena")
	befriend(t, svc, "hub", "yuri")
	befriend(t, svc, "hub", "zack")

	shared, err := svc.MostActiveCommunity(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hub", "xena", "yuri", "zack"}, usernames(shared))

	svc.WithAnalyzer(community.NewAnalyzer(community.PathModeIsolated))
	isolated, err := svc.MostActiveCommunity(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"xena", "hub", "yuri"}, usernames(isolated))
}

func TestSocialService_ObservesAnalyses(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}

	svc := newService(t, "anna", "bert")
	svc.WithObserver(obs)
	_, err := svc.CountCommunities(ctx)
	require.NoError(t, err)

	broken := NewSocialService(&brokenStore{MemoryRepository: repository.NewMemoryRepository()}, nil)
	broken.WithObserver(obs)
	_, err = broken.MostActiveCommunity(ctx)
	require.ErrorIs(t, err, community.ErrLookupFailure)

	unavailable := NewSocialService(&brokenStore{snapshotErr: errors.New("graph down")}, nil)
	unavailable.WithObserver(obs)
	_, err = unavailable.Report(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load snapshot")

	require.Len(t, obs.seen, 3)
	assert.Equal(t, observation{operation: OperationCount, users: 2}, obs.seen[0])
	assert.Equal(t, OperationMostActive, obs.seen[1].operation)
	assert.Equal(t, 1, obs.seen[1].users)
	assert.ErrorIs(t, obs.seen[1].err, community.ErrLookupFailure)
	assert.Equal(t, OperationReport, obs.seen[2].operation)
	assert.Error(t, obs.seen[2].err)
}
