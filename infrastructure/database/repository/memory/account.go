package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"facegate.io/entities"
	"facegate.io/infrastructure/database"
)

type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]entities.Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: map[string]entities.Account{}}
}

func (s *AccountStore) Create(ctx context.Context, account *entities.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Username, account.Username) {
			return database.ErrDuplicate
		}
		if account.Email != nil && existing.Email != nil && strings.EqualFold(*existing.Email, *account.Email) {
			return database.ErrDuplicate
		}
	}
	s.accounts[account.ID] = *account
	return nil
}

func (s *AccountStore) FindByID(ctx context.Context, id string) (*entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (s *AccountStore) FindByUsername(ctx context.Context, username string) (*entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if strings.EqualFold(account.Username, username) {
			found := account
			return &found, nil
		}
	}
	return nil, nil
}

func (s *AccountStore) SetDisabled(ctx context.Context, id string, disabled bool, reason *string, operatorID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	account.Disabled = disabled
	account.DisabledReason = reason
	account.DisabledBy = operatorID
	if !disabled {
		account.DisabledReason = nil
		account.DisabledBy = nil
	}
	account.UpdatedAt = time.Now()
	s.accounts[id] = account
	return nil
}

func (s *AccountStore) IsDisabled(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	return ok && account.Disabled, nil
}

func (s *AccountStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	account.LastLogin = &at
	s.accounts[id] = account
	return nil
}
