package memory

import (
	"context"
	"sync"

	"facegate.io/entities"
	"facegate.io/infrastructure/database/repository"
)

type AuditEventStore struct {
	mu     sync.RWMutex
	events []entities.AuditEvent
}

func NewAuditEventStore() *AuditEventStore {
	return &AuditEventStore{}
}

func (s *AuditEventStore) Append(ctx context.Context, event *entities.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if event.ID != "" && s.events[i].ID == event.ID {
			return nil
		}
	}
	s.events = append(s.events, *event)
	return nil
}

// List returns matching events newest first.
func (s *AuditEventStore) List(ctx context.Context, filter repository.AuditFilter) ([]entities.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit := filter.PageSize()
	out := []entities.AuditEvent{}
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if filter.Matches(&s.events[i]) {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}
