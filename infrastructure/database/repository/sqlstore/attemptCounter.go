package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"facegate.io/entities"
)

type AttemptCounterStore struct {
	db *DB
}

func NewAttemptCounterStore(db *DB) *AttemptCounterStore {
	return &AttemptCounterStore{db: db}
}

const counterColumns = `id, account_id, channel, failed_count, locked_until, version, updated_at`

func scanCounter(row interface{ Scan(...any) error }) (*entities.AttemptCounter, error) {
	var (
		counter     entities.AttemptCounter
		channel     string
		lockedUntil sql.NullInt64
		updatedAt   int64
	)
	if err := row.Scan(&counter.ID, &counter.AccountID, &channel, &counter.FailedCount, &lockedUntil, &counter.Version, &updatedAt); err != nil {
		return nil, err
	}
	counter.Channel = entities.Channel(channel)
	counter.LockedUntil = timePointer(lockedUntil)
	counter.UpdatedAt = fromMicros(updatedAt)
	return &counter, nil
}

func (s *AttemptCounterStore) Get(ctx context.Context, accountID string, channel entities.Channel) (*entities.AttemptCounter, error) {
	id := entities.AttemptCounterID(accountID, channel)
	counter, err := scanCounter(s.db.queryRow(ctx, `SELECT `+counterColumns+` FROM attempt_counters WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return &entities.AttemptCounter{ID: id, AccountID: accountID, Channel: channel}, nil
	}
	return counter, err
}

// CompareAndSwap inserts when expected is 0 and otherwise updates only the row
// still carrying the expected version.
func (s *AttemptCounterStore) CompareAndSwap(ctx context.Context, expected int64, next *entities.AttemptCounter) (bool, error) {
	if next.ID == "" {
		next.ID = entities.AttemptCounterID(next.AccountID, next.Channel)
	}
	var (
		result sql.Result
		err    error
	)
	if expected == 0 {
		result, err = s.db.exec(ctx, `INSERT INTO attempt_counters (`+counterColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			next.ID, next.AccountID, string(next.Channel), next.FailedCount, nullMicros(next.LockedUntil), next.Version, micros(next.UpdatedAt))
	} else {
		result, err = s.db.exec(ctx, `UPDATE attempt_counters SET failed_count = ?, locked_until = ?, version = ?, updated_at = ?
			WHERE id = ? AND version = ?`,
			next.FailedCount, nullMicros(next.LockedUntil), next.Version, micros(next.UpdatedAt), next.ID, expected)
	}
	if err != nil {
		return false, err
	}
	return affected(result)
}

func (s *AttemptCounterStore) ListLocked(ctx context.Context, now time.Time) ([]entities.AttemptCounter, error) {
	rows, err := s.db.query(ctx, `SELECT `+counterColumns+` FROM attempt_counters WHERE locked_until > ? ORDER BY locked_until`, micros(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []entities.AttemptCounter{}
	for rows.Next() {
		counter, err := scanCounter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *counter)
	}
	return out, rows.Err()
}
