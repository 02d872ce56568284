package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanshika/socialnet/internal/domain"
)

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

// BulkIngestor loads datasets into the social service. Validation and
// password hashing run on a bounded pool of workers; store writes happen one
// at a time in input order, so stores that iterate in insertion or creation
// order see the dataset order. Individual failures are collected rather than
// stopping the run; cancellation stops it.
type BulkIngestor struct {
	service *SocialService
	workers int
}

// NewBulkIngestor creates a new BulkIngestor instance with the provided concurrency.
func NewBulkIngestor(service *SocialService, workers int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &BulkIngestor{
		service: service,
		workers: workers,
	}
}

// IngestUsers registers the provided users in input order.
func (bi *BulkIngestor) IngestUsers(ctx context.Context, users []UserInput) error {
	prepared := make([]domain.User, len(users))
	failed := make([]error, len(users))

	err := bi.run(ctx, len(users), func(_ context.Context, idx int) {
		user, err := bi.service.prepareUser(users[idx])
		if err != nil {
			failed[idx] = fmt.Errorf("user %d (%s): %w", idx, users[idx].Username, err)
			return
		}
		prepared[idx] = user
	})
	if err != nil {
		return err
	}

	for idx := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if failed[idx] != nil {
			continue
		}
		if _, err := bi.service.commitUser(ctx, prepared[idx]); err != nil {
			if isCancellation(err) {
				return err
			}
			failed[idx] = fmt.Errorf("user %d (%s): %w", idx, users[idx].Username, err)
		}
	}
	return collect(failed)
}

// IngestFriendships creates the provided friendships in input order. Users
// must already be registered.
func (bi *BulkIngestor) IngestFriendships(ctx context.Context, friendships []FriendshipInput) error {
	failed := make([]error, len(friendships))
	for idx, f := range friendships {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := bi.service.AddFriendship(ctx, f); err != nil {
			if isCancellation(err) {
				return err
			}
			failed[idx] = fmt.Errorf("friendship %d (%s-%s): %w", idx, f.A.Username, f.B.Username, err)
		}
	}
	return collect(failed)
}

// run calls workerFn for every index on the worker pool.
func (bi *BulkIngestor) run(ctx context.Context, total int, workerFn func(ctx context.Context, idx int)) error {
	if total == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bi.workers)
	for i := 0; i < total; i++ {
		if gctx.Err() != nil {
			break
		}
		idx := i
		g.Go(func() error {
			workerFn(gctx, idx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// collect keeps the non-nil errors in input order.
func collect(failed []error) error {
	var taskErr TaskError
	for _, err := range failed {
		if err != nil {
			taskErr.Errors = append(taskErr.Errors, err)
		}
	}
	if len(taskErr.Errors) == 0 {
		return nil
	}
	return &taskErr
}
