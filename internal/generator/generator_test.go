package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/socialnet/internal/repository"
	"github.com/vanshika/socialnet/internal/service"
)

func TestGenerate_Deterministic(t *testing.T) {
	cfg := Config{NumUsers: 50, Communities: 5, AvgFriends: 2, BridgeChance: 0.1, Seed: 7}

	first, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)
	second, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Users, 50)
}

func TestGenerate_UniqueUsersAndPairs(t *testing.T) {
	ds, err := New(Config{NumUsers: 200, Communities: 4, AvgFriends: 3, BridgeChance: 0.5, Seed: 11}).Generate(context.Background())
	require.NoError(t, err)

	identities := map[string]bool{}
	for _, u := range ds.Users {
		id := u.Key().Identity().String()
		require.False(t, identities[id], "duplicate identity %s", id)
		identities[id] = true
	}

	pairs := map[[2]string]bool{}
	for _, f := range ds.Friendships {
		a, b := f.A.Identity().String(), f.B.Identity().String()
		require.NotEqual(t, a, b)
		if a > b {
			a, b = b, a
		}
		require.False(t, pairs[[2]string{a, b}], "duplicate friendship %s-%s", a, b)
		pairs[[2]string{a, b}] = true
	}
}

func TestGenerate_IngestsCleanly(t *testing.T) {
	ctx := context.Background()
	ds, err := New(Config{NumUsers: 60, Communities: 6, AvgFriends: 2, Seed: 3}).Generate(ctx)
	require.NoError(t, err)

	svc := service.NewSocialService(repository.NewMemoryRepository(), nil)
	ingestor := service.NewBulkIngestor(svc, 4)
	require.NoError(t, ingestor.IngestUsers(ctx, ds.Users))
	require.NoError(t, ingestor.IngestFriendships(ctx, ds.Friendships))

	count, err := svc.CountCommunities(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 6, "no bridges, so groups never merge")
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{NumUsers: 10}).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_AppliesDefaults(t *testing.T) {
	cfg := New(Config{NumUsers: 3, Communities: 10, Seed: 1}).Config()
	assert.Equal(t, 3, cfg.Communities)

	cfg = New(Config{}).Config()
	assert.Equal(t, DefaultConfig().NumUsers, cfg.NumUsers)
	assert.NotZero(t, cfg.Seed)
}
