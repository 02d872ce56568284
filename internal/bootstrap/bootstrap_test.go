package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/socialnet/internal/community"
	"github.com/vanshika/socialnet/internal/config"
	"github.com/vanshika/socialnet/internal/logging"
	"github.com/vanshika/socialnet/internal/repository"
	"github.com/vanshika/socialnet/internal/security"
	"github.com/vanshika/socialnet/internal/service"
)

func TestNewStore_Memory(t *testing.T) {
	store, err := NewStore(context.Background(), logging.Discard(), config.Config{Store: config.StoreConfig{Backend: config.BackendMemory}})
	require.NoError(t, err)
	assert.Nil(t, store.Client)
	assert.IsType(t, &repository.MemoryRepository{}, store.GraphStore)
	assert.NoError(t, store.Close(context.Background()))
}

func TestNewStore_Unknown(t *testing.T) {
	_, err := NewStore(context.Background(), logging.Discard(), config.Config{Store: config.StoreConfig{Backend: "redis"}})
	assert.Error(t, err)
}

func TestNewHasher(t *testing.T) {
	assert.IsType(t, security.PlainHasher{}, NewHasher(config.SecurityConfig{PasswordHashing: config.HashingNone}))
	assert.IsType(t, &security.Argon2Hasher{}, NewHasher(config.SecurityConfig{PasswordHashing: config.HashingArgon2}))
}

func TestNewAnalyzer(t *testing.T) {
	a, err := NewAnalyzer(config.AnalysisConfig{PathMode: "isolated", MaxExpansions: 42})
	require.NoError(t, err)
	assert.Equal(t, community.PathModeIsolated, a.Mode)
	assert.Equal(t, 42, a.MaxExpansions)

	_, err = NewAnalyzer(config.AnalysisConfig{PathMode: "longest"})
	assert.ErrorIs(t, err, community.ErrUnknownPathMode)
}

func TestNewService(t *testing.T) {
	cfg := config.Config{
		Analysis: config.AnalysisConfig{PathMode: "shared"},
		Security: config.SecurityConfig{PasswordHashing: config.HashingNone},
	}
	svc, err := NewService(logging.Discard(), cfg, repository.NewMemoryRepository(), nil)
	require.NoError(t, err)

	user, err := svc.AddUser(context.Background(), service.UserInput{
		Name: "Anna", Username: "anna", Email: "anna@example.com", Password: "password-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "password-1", user.PasswordHash)
}
