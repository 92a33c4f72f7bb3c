package services

import (
	"context"
	"errors"
	"time"

	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/store"
)

// conflictBackoff is the retry schedule for optimistic-concurrency conflicts.
// The final element is the wait before the last attempt.
var conflictBackoff = []time.Duration{10 * time.Millisecond, 25 * time.Millisecond, 50 * time.Millisecond}

// withUser runs fn against a freshly loaded user aggregate and retries when
// the underlying store reports a version conflict. fn must route every
// mutation through the version it reads off the passed user, so a concurrent
// writer fails the whole attempt instead of clobbering it.
func withUser(ctx context.Context, users store.Users, userID string, fn func(u *model.User) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		var u *model.User
		u, err = users.Get(ctx, userID)
		if err != nil {
			return err
		}
		err = fn(u)
		if err == nil || !errors.Is(err, model.ErrConflict) {
			return err
		}
		if attempt >= len(conflictBackoff) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(conflictBackoff[attempt]):
		}
	}
}
