package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vanshika/socialnet/internal/community"
	"github.com/vanshika/socialnet/internal/domain"
	"github.com/vanshika/socialnet/internal/repository"
	"github.com/vanshika/socialnet/internal/security"
)

// GraphStore is the storage contract required by the social service.
// Implementations serialise their own mutations and must hand out snapshots
// that stay consistent while an analysis runs.
type GraphStore interface {
	AddUser(ctx context.Context, user domain.User) error
	RemoveUser(ctx context.Context, id domain.Identity) error
	AddFriendship(ctx context.Context, a, b domain.Identity) error
	RemoveFriendship(ctx context.Context, a, b domain.Identity) error
	GetUser(ctx context.Context, id domain.Identity) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	FriendsOf(ctx context.Context, id domain.Identity) ([]domain.User, error)
	Snapshot(ctx context.Context) (*community.Snapshot, error)
}

// PasswordHasher turns a raw password into the value stored on the user and
// checks a password against a stored value.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored, password string) error
}

// ErrInvalidCredentials is returned when a password does not match the user.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AnalysisObserver receives the outcome of every community analysis.
type AnalysisObserver interface {
	ObserveAnalysis(operation string, users int, duration time.Duration, err error)
}

// Analysis operation names reported to the AnalysisObserver.
const (
	OperationCount      = "count_communities"
	OperationMostActive = "most_active_community"
	OperationReport     = "community_report"
)

type noopObserver struct{}

func (noopObserver) ObserveAnalysis(string, int, time.Duration, error) {}

// SocialService validates user and friendship mutations before handing them
// to the store, and runs community analyses over store snapshots.
type SocialService struct {
	store    GraphStore
	hasher   PasswordHasher
	analyzer *community.Analyzer
	observer AnalysisObserver
	logger   *slog.Logger
	nowFn    func() time.Time

	clockMu   sync.Mutex
	lastStamp time.Time
}

// NewSocialService constructs a SocialService. A nil hasher stores passwords
// unchanged.
func NewSocialService(store GraphStore, hasher PasswordHasher) *SocialService {
	if hasher == nil {
		hasher = security.PlainHasher{}
	}
	return &SocialService{
		store:    store,
		hasher:   hasher,
		analyzer: community.NewAnalyzer(community.PathModeShared),
		observer: noopObserver{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		nowFn:    time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *SocialService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// WithAnalyzer replaces the default shared-path analyzer.
func (s *SocialService) WithAnalyzer(a *community.Analyzer) {
	if a != nil {
		s.analyzer = a
	}
}

// WithObserver registers a sink for analysis outcomes.
func (s *SocialService) WithObserver(o AnalysisObserver) {
	if o != nil {
		s.observer = o
	}
}

// WithLogger sets the logger used for analysis diagnostics.
func (s *SocialService) WithLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// AddUser validates the input, hashes the password and stores the user.
func (s *SocialService) AddUser(ctx context.Context, input UserInput) (domain.User, error) {
	user, err := s.prepareUser(input)
	if err != nil {
		return domain.User{}, err
	}
	return s.commitUser(ctx, user)
}

// prepareUser validates and hashes without touching the store, so callers may
// run it concurrently.
func (s *SocialService) prepareUser(input UserInput) (domain.User, error) {
	input = input.normalized()
	if err := validateStruct(input); err != nil {
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	return domain.User{
		Identity:     input.Key().Identity(),
		Name:         input.Name,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	}, nil
}

// commitUser stamps the creation time and stores the user. Stamps strictly
// increase, so stores ordering users by creation keep commit order.
func (s *SocialService) commitUser(ctx context.Context, user domain.User) (domain.User, error) {
	user.CreatedAt = s.stamp()
	if err := s.store.AddUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *SocialService) stamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	now := s.nowFn().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Nanosecond)
	}
	s.lastStamp = now
	return now
}

// RemoveUser deletes a user and every friendship it takes part in.
func (s *SocialService) RemoveUser(ctx context.Context, key UserKey) error {
	if err := validateStruct(key.normalized()); err != nil {
		return err
	}
	return s.store.RemoveUser(ctx, key.Identity())
}

// DeleteAccount removes the user named by creds after checking its password.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *SocialService) DeleteAccount(ctx context.Context, creds Credentials) error {
	creds = creds.normalized()
	if err := validateStruct(creds); err != nil {
		return err
	}

	user, err := s.store.GetUser(ctx, creds.Key().Identity())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, creds.Password); err != nil {
		if errors.Is(err, security.ErrMismatchedPassword) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("verify password: %w", err)
	}
	return s.store.RemoveUser(ctx, user.Identity)
}

// AddFriendship links two registered users.
func (s *SocialService) AddFriendship(ctx context.Context, input FriendshipInput) error {
	if err := validateStruct(input.normalized()); err != nil {
		return err
	}
	return s.store.AddFriendship(ctx, input.A.Identity(), input.B.Identity())
}

// RemoveFriendship unlinks two users.
func (s *SocialService) RemoveFriendship(ctx context.Context, input FriendshipInput) error {
	if err := validateStruct(input.normalized()); err != nil {
		return err
	}
	return s.store.RemoveFriendship(ctx, input.A.Identity(), input.B.Identity())
}

// GetUser looks a user up by email and username.
func (s *SocialService) GetUser(ctx context.Context, key UserKey) (domain.User, error) {
	if err := validateStruct(key.normalized()); err != nil {
		return domain.User{}, err
	}
	return s.store.GetUser(ctx, key.Identity())
}

// ListUsers returns every registered user.
func (s *SocialService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.ListUsers(ctx)
}

// Friends returns the friends of the given user.
func (s *SocialService) Friends(ctx context.Context, key UserKey) ([]domain.User, error) {
	if err := validateStruct(key.normalized()); err != nil {
		return nil, err
	}
	return s.store.FriendsOf(ctx, key.Identity())
}

// CountCommunities returns the number of connected components in the network.
func (s *SocialService) CountCommunities(ctx context.Context) (int, error) {
	var count int
	err := s.analyze(ctx, OperationCount, func(snap *community.Snapshot) error {
		var err error
		count, err = s.analyzer.CountCommunities(snap)
		return err
	})
	return count, err
}

// MostActiveCommunity returns the users of the most active community in
// discovery order.
func (s *SocialService) MostActiveCommunity(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.analyze(ctx, OperationMostActive, func(snap *community.Snapshot) error {
		var err error
		users, err = s.analyzer.MostActiveCommunity(snap)
		return err
	})
	return users, err
}

// Report runs both analyses against one snapshot.
func (s *SocialService) Report(ctx context.Context) (domain.CommunityReport, error) {
	var report domain.CommunityReport
	err := s.analyze(ctx, OperationReport, func(snap *community.Snapshot) error {
		var err error
		report, err = s.analyzer.Analyze(snap)
		return err
	})
	return report, err
}

func (s *SocialService) analyze(ctx context.Context, operation string, run func(*community.Snapshot) error) error {
	start := s.nowFn()
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		err = fmt.Errorf("%s: load snapshot: %w", operation, err)
		s.observer.ObserveAnalysis(operation, 0, s.nowFn().Sub(start), err)
		return err
	}

	if err := run(snap); err != nil {
		err = fmt.Errorf("%s: %w", operation, err)
		s.logger.ErrorContext(ctx, "community analysis failed",
			"operation", operation,
			"users", snap.Len(),
			"mode", s.analyzer.Mode.String(),
			"error", err,
		)
		s.observer.ObserveAnalysis(operation, snap.Len(), s.nowFn().Sub(start), err)
		return err
	}

	elapsed := s.nowFn().Sub(start)
	s.logger.DebugContext(ctx, "community analysis completed",
		"operation", operation,
		"users", snap.Len(),
		"mode", s.analyzer.Mode.String(),
		"duration_ms", elapsed.Milliseconds(),
	)
	s.observer.ObserveAnalysis(operation, snap.Len(), elapsed, nil)
	return nil
}
