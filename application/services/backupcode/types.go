package backupcode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facegate.io/application/services/lockout"
	"facegate.io/entities"
)

var (
	ErrRateLimited     = errors.New("too many backup codes generated, try again later")
	ErrLocked          = errors.New("account is locked")
	ErrNoActiveCode    = errors.New("no active backup code")
	ErrAlreadyRevealed = errors.New("backup code has already been revealed")
)

type Outcome string

const (
	Accepted    Outcome = "accepted"
	Rejected    Outcome = "rejected"
	AlreadyUsed Outcome = "already_used"
)

type VerifyResult struct {
	Outcome Outcome `json:"outcome"`
	// attempts left on the face channel after a rejection
	Remaining int  `json:"remaining"`
	Locked    bool `json:"locked"`
}

// LockedError is returned when the face channel gate denies the attempt.
type LockedError struct {
	Decision lockout.LockDecision
}

func (e *LockedError) Error() string {
	if e.Decision.Reason == lockout.ReasonDisabled {
		return "account is disabled"
	}
	return fmt.Sprintf("account is locked, retry in %s", e.Decision.RetryAfter.Round(time.Second))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// RateLimitError carries how long the caller has to wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (retry in %s)", ErrRateLimited.Error(), e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Store persists backup codes.
type Store interface {
	// Insert stores code and marks every earlier code of the account superseded.
	Insert(ctx context.Context, code *entities.BackupCode) error
	// Latest returns the newest non superseded code, or nil when there is none.
	Latest(ctx context.Context, accountID string) (*entities.BackupCode, error)
	// MarkUsed flips used from false to true and reports whether this call did it.
	MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error)
	// MarkRevealed flips revealed from false to true and reports whether this call did it.
	MarkRevealed(ctx context.Context, id string) (bool, error)
	SupersedeAll(ctx context.Context, accountID string) error
	CountSince(ctx context.Context, accountID string, since time.Time) (int, error)
}

// RateLimiter admits a generation request and records it when admitted.
// A rejected request must not use up capacity.
type RateLimiter interface {
	Allow(ctx context.Context, accountID string, now time.Time) (bool, time.Duration, error)
}

type Hasher interface {
	HashString(data string) ([]byte, error)
	VerifyHashData(hash string, data string) bool
}

type Cipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

// Gate is the slice of the lockout machine the manager needs. Backup code
// failures count against the face channel.
type Gate interface {
	CheckGate(ctx context.Context, accountID string, channel entities.Channel) (lockout.LockDecision, error)
	RecordFailure(ctx context.Context, accountID string, channel entities.Channel) (lockout.Status, error)
	RecordSuccess(ctx context.Context, accountID string, channel entities.Channel) error
}
