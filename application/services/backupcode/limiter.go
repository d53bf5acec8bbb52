package backupcode

import (
	"context"
	"time"
)

const (
	DefaultLimit  = 3
	DefaultWindow = time.Hour
)

// CountLimiter derives the rolling window from stored rows, so a code only
// uses capacity once it has actually been inserted.
type CountLimiter struct {
	Store  Store
	Limit  int
	Window time.Duration
}

func NewCountLimiter(store Store) *CountLimiter {
	return &CountLimiter{Store: store, Limit: DefaultLimit, Window: DefaultWindow}
}

func (l *CountLimiter) Allow(ctx context.Context, accountID string, now time.Time) (bool, time.Duration, error) {
	count, err := l.Store.CountSince(ctx, accountID, now.Add(-l.Window))
	if err != nil {
		return false, 0, err
	}
	if count >= l.Limit {
		return false, l.Window, nil
	}
	return true, 0, nil
}
