// Package memory holds process local stores. They back the "memory" store
// driver for local runs and the unit tests of the services.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"facegate.io/entities"
)

type AttemptCounterStore struct {
	mu       sync.Mutex
	counters map[string]entities.AttemptCounter
}

func NewAttemptCounterStore() *AttemptCounterStore {
	return &AttemptCounterStore{counters: map[string]entities.AttemptCounter{}}
}

func (s *AttemptCounterStore) Get(ctx context.Context, accountID string, channel entities.Channel) (*entities.AttemptCounter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := entities.AttemptCounterID(accountID, channel)
	counter, ok := s.counters[id]
	if !ok {
		return &entities.AttemptCounter{ID: id, AccountID: accountID, Channel: channel}, nil
	}
	return cloneCounter(counter), nil
}

func (s *AttemptCounterStore) CompareAndSwap(ctx context.Context, expected int64, next *entities.AttemptCounter) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := entities.AttemptCounterID(next.AccountID, next.Channel)
	current, ok := s.counters[id]
	var version int64
	if ok {
		version = current.Version
	}
	if version != expected {
		return false, nil
	}
	stored := *cloneCounter(*next)
	stored.ID = id
	s.counters[id] = stored
	return true, nil
}

func (s *AttemptCounterStore) ListLocked(ctx context.Context, now time.Time) ([]entities.AttemptCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []entities.AttemptCounter{}
	for _, counter := range s.counters {
		if counter.IsLocked(now) {
			out = append(out, *cloneCounter(counter))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneCounter(counter entities.AttemptCounter) *entities.AttemptCounter {
	if counter.LockedUntil != nil {
		until := *counter.LockedUntil
		counter.LockedUntil = &until
	}
	return &counter
}
