package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"facegate.io/entities"
)

type BackupCodeStore struct {
	db *DB
}

func NewBackupCodeStore(db *DB) *BackupCodeStore {
	return &BackupCodeStore{db: db}
}

const codeColumns = `id, account_id, code_hash, code_cipher, used, used_at, revealed, superseded, generated_at`

// Insert supersedes older codes and stores the new one in a single transaction.
func (s *BackupCodeStore) Insert(ctx context.Context, code *entities.BackupCode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.db.rebind(`UPDATE backup_codes SET superseded = ? WHERE account_id = ?`), true, code.AccountID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.db.rebind(`INSERT INTO backup_codes (`+codeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		code.ID, code.AccountID, code.CodeHash, code.CodeCipher, code.Used, nullMicros(code.UsedAt),
		code.Revealed, code.Superseded, micros(code.GeneratedAt)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *BackupCodeStore) Latest(ctx context.Context, accountID string) (*entities.BackupCode, error) {
	var (
		code        entities.BackupCode
		usedAt      sql.NullInt64
		generatedAt int64
	)
	err := s.db.queryRow(ctx, `SELECT `+codeColumns+` FROM backup_codes
		WHERE account_id = ? AND superseded = ? ORDER BY generated_at DESC, id DESC LIMIT 1`, accountID, false).
		Scan(&code.ID, &code.AccountID, &code.CodeHash, &code.CodeCipher, &code.Used, &usedAt,
			&code.Revealed, &code.Superseded, &generatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	code.UsedAt = timePointer(usedAt)
	code.GeneratedAt = fromMicros(generatedAt)
	return &code, nil
}

func (s *BackupCodeStore) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	result, err := s.db.exec(ctx, `UPDATE backup_codes SET used = ?, used_at = ? WHERE id = ? AND used = ?`, true, micros(usedAt), id, false)
	if err != nil {
		return false, err
	}
	return affected(result)
}

func (s *BackupCodeStore) MarkRevealed(ctx context.Context, id string) (bool, error) {
	result, err := s.db.exec(ctx, `UPDATE backup_codes SET revealed = ? WHERE id = ? AND revealed = ?`, true, id, false)
	if err != nil {
		return false, err
	}
	return affected(result)
}

func (s *BackupCodeStore) SupersedeAll(ctx context.Context, accountID string) error {
	_, err := s.db.exec(ctx, `UPDATE backup_codes SET superseded = ? WHERE account_id = ?`, true, accountID)
	return err
}

func (s *BackupCodeStore) CountSince(ctx context.Context, accountID string, since time.Time) (int, error) {
	var count int
	err := s.db.queryRow(ctx, `SELECT COUNT(*) FROM backup_codes WHERE account_id = ? AND generated_at >= ?`, accountID, micros(since)).Scan(&count)
	return count, err
}
