package lockout

import (
	"context"
	"errors"
	"time"

	"facegate.io/entities"
)

var (
	ErrContention     = errors.New("attempt counter kept changing underneath us, retry later")
	ErrUnknownChannel = errors.New("no lockout policy for channel")
)

type State string

const (
	Active State = "active"
	Warned State = "warned"
	Locked State = "locked"
)

type Policy struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

func DefaultFacePolicy() Policy {
	return Policy{MaxAttempts: 3, LockoutDuration: 15 * time.Minute}
}

func DefaultPasswordPolicy() Policy {
	return Policy{MaxAttempts: 3, LockoutDuration: 15 * time.Minute}
}

type Status struct {
	State       State      `json:"state"`
	FailedCount int        `json:"failedCount"`
	Remaining   int        `json:"remaining"`
	LockedUntil *time.Time `json:"lockedUntil,omitempty"`
}

type DecisionKind string

const (
	Allow DecisionKind = "allow"
	Warn  DecisionKind = "warn"
	Deny  DecisionKind = "deny"
)

type DenyReason string

const (
	ReasonLocked   DenyReason = "locked"
	ReasonDisabled DenyReason = "disabled"
)

// LockDecision is computed per call and never stored.
type LockDecision struct {
	Kind        DecisionKind  `json:"kind"`
	Remaining   int           `json:"remaining"`
	Reason      DenyReason    `json:"reason,omitempty"`
	RetryAfter  time.Duration `json:"retryAfter,omitempty"`
	LockedUntil *time.Time    `json:"lockedUntil,omitempty"`
}

func (d LockDecision) Allowed() bool {
	return d.Kind != Deny
}

// Store persists attempt counters. Get returns a zero counter with Version 0
// when nothing is stored yet. CompareAndSwap writes next only if the stored
// version still equals expected (0 meaning "not stored yet") and reports
// whether it did.
type Store interface {
	Get(ctx context.Context, accountID string, channel entities.Channel) (*entities.AttemptCounter, error)
	CompareAndSwap(ctx context.Context, expected int64, next *entities.AttemptCounter) (bool, error)
	ListLocked(ctx context.Context, now time.Time) ([]entities.AttemptCounter, error)
}

type AccountStatusReader interface {
	IsDisabled(ctx context.Context, accountID string) (bool, error)
}
