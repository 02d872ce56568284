// Package bootstrap assembles the store, hasher and service from configuration
// for the command line entry points.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vanshika/socialnet/internal/community"
	"github.com/vanshika/socialnet/internal/config"
	"github.com/vanshika/socialnet/internal/graph"
	"github.com/vanshika/socialnet/internal/repository"
	"github.com/vanshika/socialnet/internal/security"
	"github.com/vanshika/socialnet/internal/service"
)

// Store is a GraphStore together with the graph client backing it. Client is
// nil for the in-memory backend.
type Store struct {
	service.GraphStore
	Client graph.Client
}

// Close releases the graph client, if any.
func (s Store) Close(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Close(ctx)
}

// NewStore builds the backend selected by cfg.Store.Backend. The Neo4j
// backend connects and ensures the schema before returning.
func NewStore(ctx context.Context, logger *slog.Logger, cfg config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory, "":
		logger.Info("using in-memory store")
		return Store{GraphStore: repository.NewMemoryRepository()}, nil
	case config.BackendNeo4j:
		client, err := graph.NewNeo4jClient(ctx, graph.Options{
			URI:            cfg.Graph.URI,
			Database:       cfg.Graph.Database,
			Username:       cfg.Graph.Username,
			Password:       cfg.Graph.Password,
			MaxConnections: cfg.Graph.MaxConnections,
			MaxRetryTime:   cfg.Graph.MaxRetryTime,
		})
		if err != nil {
			return Store{}, err
		}
		repo := repository.New(client)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return Store{}, err
		}
		logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
		return Store{GraphStore: repo, Client: client}, nil
	default:
		return Store{}, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// NewHasher returns the password hasher selected by cfg.Security.
func NewHasher(cfg config.SecurityConfig) service.PasswordHasher {
	if cfg.PasswordHashing == config.HashingNone {
		return security.PlainHasher{}
	}
	return security.NewArgon2Hasher(nil)
}

// NewAnalyzer returns the analyzer selected by cfg.Analysis.
func NewAnalyzer(cfg config.AnalysisConfig) (*community.Analyzer, error) {
	mode, err := community.ParsePathMode(cfg.PathMode)
	if err != nil {
		return nil, err
	}
	a := community.NewAnalyzer(mode)
	a.MaxExpansions = cfg.MaxExpansions
	return a, nil
}

// NewService wires a SocialService over store using cfg.
func NewService(logger *slog.Logger, cfg config.Config, store service.GraphStore, observer service.AnalysisObserver) (*service.SocialService, error) {
	analyzer, err := NewAnalyzer(cfg.Analysis)
	if err != nil {
		return nil, err
	}
	svc := service.NewSocialService(store, NewHasher(cfg.Security))
	svc.WithAnalyzer(analyzer)
	svc.WithLogger(logger.With("component", "social"))
	if observer != nil {
		svc.WithObserver(observer)
	}
	return svc, nil
}
