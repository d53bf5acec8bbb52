package memory

import (
	"context"
	"sync"
	"time"

	"facegate.io/entities"
)

type BackupCodeStore struct {
	mu    sync.Mutex
	codes []entities.BackupCode
}

func NewBackupCodeStore() *BackupCodeStore {
	return &BackupCodeStore{}
}

func (s *BackupCodeStore) Insert(ctx context.Context, code *entities.BackupCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.codes {
		if s.codes[i].AccountID == code.AccountID {
			s.codes[i].Superseded = true
		}
	}
	s.codes = append(s.codes, *code)
	return nil
}

func (s *BackupCodeStore) Latest(ctx context.Context, accountID string) (*entities.BackupCode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.codes) - 1; i >= 0; i-- {
		if s.codes[i].AccountID == accountID && !s.codes[i].Superseded {
			code := s.codes[i]
			return &code, nil
		}
	}
	return nil, nil
}

func (s *BackupCodeStore) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.codes {
		if s.codes[i].ID == id {
			if s.codes[i].Used {
				return false, nil
			}
			s.codes[i].Used = true
			s.codes[i].UsedAt = &usedAt
			return true, nil
		}
	}
	return false, nil
}

func (s *BackupCodeStore) MarkRevealed(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.codes {
		if s.codes[i].ID == id {
			if s.codes[i].Revealed {
				return false, nil
			}
			s.codes[i].Revealed = true
			return true, nil
		}
	}
	return false, nil
}

func (s *BackupCodeStore) SupersedeAll(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.codes {
		if s.codes[i].AccountID == accountID {
			s.codes[i].Superseded = true
		}
	}
	return nil
}

func (s *BackupCodeStore) CountSince(ctx context.Context, accountID string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, code := range s.codes {
		if code.AccountID == accountID && !code.GeneratedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// All returns every stored row of the account, oldest first.
func (s *BackupCodeStore) All(accountID string) []entities.BackupCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []entities.BackupCode{}
	for _, code := range s.codes {
		if code.AccountID == accountID {
			out = append(out, code)
		}
	}
	return out
}
