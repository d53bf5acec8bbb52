package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"facegate.io/entities"
	"facegate.io/infrastructure/database"
)

type AccountStore struct {
	db *DB
}

func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `id, username, email, password, role, disabled, disabled_reason, disabled_by, last_login, created_at, updated_at`

func (s *AccountStore) Create(ctx context.Context, account *entities.Account) error {
	result, err := s.db.exec(ctx, `INSERT INTO accounts (`+accountColumns+`, username_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		account.ID, account.Username, nullString(account.Email), account.Password, string(account.Role),
		account.Disabled, nullString(account.DisabledReason), nullString(account.DisabledBy),
		nullMicros(account.LastLogin), micros(account.CreatedAt), micros(account.UpdatedAt),
		strings.ToLower(account.Username))
	if err != nil {
		return err
	}
	inserted, err := affected(result)
	if err != nil {
		return err
	}
	if !inserted {
		return database.ErrDuplicate
	}
	return nil
}

func scanAccount(row interface{ Scan(...any) error }) (*entities.Account, error) {
	var (
		account                   entities.Account
		role                      string
		email, reason, disabledBy sql.NullString
		lastLogin                 sql.NullInt64
		createdAt, updatedAt      int64
	)
	err := row.Scan(&account.ID, &account.Username, &email, &account.Password, &role, &account.Disabled,
		&reason, &disabledBy, &lastLogin, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	account.Role = entities.Role(role)
	account.Email = stringPointer(email)
	account.DisabledReason = stringPointer(reason)
	account.DisabledBy = stringPointer(disabledBy)
	account.LastLogin = timePointer(lastLogin)
	account.CreatedAt = fromMicros(createdAt)
	account.UpdatedAt = fromMicros(updatedAt)
	return &account, nil
}

func (s *AccountStore) FindByID(ctx context.Context, id string) (*entities.Account, error) {
	return scanAccount(s.db.queryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
}

func (s *AccountStore) FindByUsername(ctx context.Context, username string) (*entities.Account, error) {
	return scanAccount(s.db.queryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username_key = ?`, strings.ToLower(username)))
}

func (s *AccountStore) SetDisabled(ctx context.Context, id string, disabled bool, reason *string, operatorID *string) error {
	if !disabled {
		reason = nil
		operatorID = nil
	}
	result, err := s.db.exec(ctx, `UPDATE accounts SET disabled = ?, disabled_reason = ?, disabled_by = ?, updated_at = ? WHERE id = ?`,
		disabled, nullString(reason), nullString(operatorID), micros(time.Now()), id)
	if err != nil {
		return err
	}
	updated, err := affected(result)
	if err != nil {
		return err
	}
	if !updated {
		return database.ErrNotFound
	}
	return nil
}

func (s *AccountStore) IsDisabled(ctx context.Context, id string) (bool, error) {
	var disabled bool
	err := s.db.queryRow(ctx, `SELECT disabled FROM accounts WHERE id = ?`, id).Scan(&disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return disabled, err
}

func (s *AccountStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.exec(ctx, `UPDATE accounts SET last_login = ? WHERE id = ?`, micros(at), id)
	if err != nil {
		return err
	}
	updated, err := affected(result)
	if err != nil {
		return err
	}
	if !updated {
		return database.ErrNotFound
	}
	return nil
}
