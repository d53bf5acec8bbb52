// Package backupcode manages single use fallback codes for accounts that
// cannot complete face verification.
package backupcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"facegate.io/application/services/audit"
	"facegate.io/application/services/lockout"
	"facegate.io/entities"
	"facegate.io/infrastructure/logger"
)

// no 0/O or 1/I so codes survive being read aloud
const (
	alphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength = 8
)

type Manager struct {
	store     Store
	limiter   RateLimiter
	hasher    Hasher
	cipher    Cipher
	gate      Gate
	emitter   audit.Emitter
	now       func() time.Time
	dummyHash string
}

type Option func(*Manager)

func WithRateLimiter(limiter RateLimiter) Option {
	return func(m *Manager) {
		m.limiter = limiter
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(store Store, hasher Hasher, cipher Cipher, gate Gate, emitter audit.Emitter, opts ...Option) (*Manager, error) {
	if emitter == nil {
		emitter = audit.Discard{}
	}
	m := &Manager{
		store:   store,
		hasher:  hasher,
		cipher:  cipher,
		gate:    gate,
		emitter: emitter,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.limiter == nil {
		m.limiter = NewCountLimiter(store)
	}
	// compared against when an account has no code so both paths cost the same
	dummy, err := randomCode()
	if err != nil {
		return nil, err
	}
	hash, err := hasher.HashString(dummy)
	if err != nil {
		return nil, err
	}
	m.dummyHash = string(hash)
	return m, nil
}

func randomCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf), nil
}

// Normalise upper-cases a user supplied code and drops separators.
func Normalise(candidate string) string {
	candidate = strings.ToUpper(strings.TrimSpace(candidate))
	return strings.NewReplacer("-", "", " ", "").Replace(candidate)
}

// Generate issues a new code for the account and supersedes all older ones.
// The plaintext is returned once; only a hash and a ciphertext are stored.
func (m *Manager) Generate(ctx context.Context, accountID string) (string, error) {
	now := m.now()
	allowed, retryAfter, err := m.limiter.Allow(ctx, accountID, now)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", &RateLimitError{RetryAfter: retryAfter}
	}

	code, err := randomCode()
	if err != nil {
		return "", err
	}
	hash, err := m.hasher.HashString(code)
	if err != nil {
		return "", fmt.Errorf("hashing backup code: %w", err)
	}
	cipherText, err := m.cipher.Encrypt([]byte(code))
	if err != nil {
		return "", fmt.Errorf("encrypting backup code: %w", err)
	}
	record := entities.BackupCode{
		AccountID:   accountID,
		CodeHash:    string(hash),
		CodeCipher:  cipherText,
		GeneratedAt: now,
	}
	record = *record.ParseModel().(*entities.BackupCode)
	if err := m.store.Insert(ctx, &record); err != nil {
		return "", err
	}

	m.emitter.Emit(ctx, entities.AuditEvent{
		Type:      entities.BackupCodeGenerated,
		AccountID: accountID,
		Details:   map[string]any{"codeID": record.ID},
	})
	return code, nil
}

// Verify checks candidate against the account's latest code. Mismatches and
// attempts without any code count as face channel failures.
func (m *Manager) Verify(ctx context.Context, accountID string, candidate string) (VerifyResult, error) {
	decision, err := m.gate.CheckGate(ctx, accountID, entities.FaceChannel)
	if err != nil {
		return VerifyResult{}, err
	}
	if !decision.Allowed() {
		return VerifyResult{}, &LockedError{Decision: decision}
	}

	latest, err := m.store.Latest(ctx, accountID)
	if err != nil {
		return VerifyResult{}, err
	}
	hash := m.dummyHash
	if latest != nil {
		hash = latest.CodeHash
	}
	matched := m.hasher.VerifyHashData(hash, Normalise(candidate)) && latest != nil

	if err := ctx.Err(); err != nil {
		return VerifyResult{}, err
	}

	if !matched {
		status, err := m.gate.RecordFailure(ctx, accountID, entities.FaceChannel)
		if err != nil {
			return VerifyResult{}, err
		}
		channel := entities.FaceChannel
		m.emitter.Emit(ctx, entities.AuditEvent{
			Type:      entities.BackupCodeRejected,
			AccountID: accountID,
			Channel:   &channel,
			Outcome:   string(Rejected),
			Details:   map[string]any{"remaining": status.Remaining},
		})
		return VerifyResult{
			Outcome:   Rejected,
			Remaining: status.Remaining,
			Locked:    status.State == lockout.Locked,
		}, nil
	}

	if latest.Used {
		return VerifyResult{Outcome: AlreadyUsed}, nil
	}
	swapped, err := m.store.MarkUsed(ctx, latest.ID, m.now())
	if err != nil {
		return VerifyResult{}, err
	}
	if !swapped {
		logger.Info("backup code consumed by a concurrent request", logger.LoggerOptions{
			Key:  "accountID",
			Data: accountID,
		})
		return VerifyResult{Outcome: AlreadyUsed}, nil
	}
	if err := m.gate.RecordSuccess(ctx, accountID, entities.FaceChannel); err != nil {
		logger.Error("could not reset face attempts after backup code use", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "accountID",
			Data: accountID,
		})
	}
	m.emitter.Emit(ctx, entities.AuditEvent{
		Type:      entities.BackupCodeUsed,
		AccountID: accountID,
		Outcome:   string(Accepted),
		Details:   map[string]any{"codeID": latest.ID},
	})
	return VerifyResult{Outcome: Accepted}, nil
}

// Reveal returns the active code one more time. It works once per code.
func (m *Manager) Reveal(ctx context.Context, accountID string) (string, error) {
	latest, err := m.store.Latest(ctx, accountID)
	if err != nil {
		return "", err
	}
	if latest == nil || latest.Used {
		return "", ErrNoActiveCode
	}
	if latest.Revealed {
		return "", ErrAlreadyRevealed
	}
	swapped, err := m.store.MarkRevealed(ctx, latest.ID)
	if err != nil {
		return "", err
	}
	if !swapped {
		return "", ErrAlreadyRevealed
	}
	plain, err := m.cipher.Decrypt(latest.CodeCipher)
	if err != nil {
		return "", fmt.Errorf("decrypting backup code: %w", err)
	}
	return string(plain), nil
}

// Invalidate supersedes every code of the account without issuing a new one.
func (m *Manager) Invalidate(ctx context.Context, accountID string) error {
	return m.store.SupersedeAll(ctx, accountID)
}

// HasActiveCode reports whether the account holds an unused, current code.
func (m *Manager) HasActiveCode(ctx context.Context, accountID string) (bool, error) {
	latest, err := m.store.Latest(ctx, accountID)
	if err != nil {
		return false, err
	}
	return latest != nil && !latest.Used, nil
}
