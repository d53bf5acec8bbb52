package cache

import (
	"context"
	"fmt"
	"time"
)

// BackupCodeLimiter caps how many backup codes one account may generate in
// a rolling window, shared across every API instance.
type BackupCodeLimiter struct {
	repo   *RedisRepository
	limit  int
	window time.Duration
}

func NewBackupCodeLimiter(repo *RedisRepository, limit int, window time.Duration) *BackupCodeLimiter {
	return &BackupCodeLimiter{repo: repo, limit: limit, window: window}
}

func (l *BackupCodeLimiter) Allow(ctx context.Context, accountID string, now time.Time) (bool, time.Duration, error) {
	return l.repo.HitSlidingWindow(ctx, fmt.Sprintf("%s-backup-code-generations", accountID), now, l.window, l.limit)
}
