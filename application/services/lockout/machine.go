// Package lockout implements the per account, per channel attempt counter:
// Active -> Warned -> Locked, with lazy expiry of the lock window and an
// operator unlock. All writes go through a versioned compare-and-swap so
// concurrent requests for one account serialise in storage.
package lockout

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"facegate.io/application/services/audit"
	"facegate.io/entities"
	"facegate.io/infrastructure/logger"
)

const (
	defaultMaxRetries = 32
	maxBackoff        = 5 * time.Millisecond
)

type Machine struct {
	store      Store
	emitter    audit.Emitter
	accounts   AccountStatusReader
	policies   map[entities.Channel]Policy
	now        func() time.Time
	maxRetries int
}

type Option func(*Machine)

func WithPolicy(channel entities.Channel, policy Policy) Option {
	return func(m *Machine) {
		m.policies[channel] = policy
	}
}

func WithAccountStatus(reader AccountStatusReader) Option {
	return func(m *Machine) {
		m.accounts = reader
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

func WithMaxRetries(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxRetries = n
		}
	}
}

func New(store Store, emitter audit.Emitter, opts ...Option) *Machine {
	if emitter == nil {
		emitter = audit.Discard{}
	}
	m := &Machine{
		store:   store,
		emitter: emitter,
		policies: map[entities.Channel]Policy{
			entities.FaceChannel:     DefaultFacePolicy(),
			entities.PasswordChannel: DefaultPasswordPolicy(),
		},
		now:        time.Now,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Policy(channel entities.Channel) (Policy, error) {
	policy, ok := m.policies[channel]
	if !ok || policy.MaxAttempts <= 0 {
		return Policy{}, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	return policy, nil
}

type transition struct {
	autoUnlocked bool
	warned       bool
	locked       bool
	adminCleared bool
	alreadyClear bool
}

// apply mutates counter in place and reports whether anything changed.
type apply func(counter *entities.AttemptCounter, now time.Time, policy Policy) (bool, transition)

func (m *Machine) mutate(ctx context.Context, accountID string, channel entities.Channel, fn apply) (*entities.AttemptCounter, transition, error) {
	policy, err := m.Policy(channel)
	if err != nil {
		return nil, transition{}, err
	}
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, transition{}, err
		}
		current, err := m.store.Get(ctx, accountID, channel)
		if err != nil {
			return nil, transition{}, err
		}
		next := *current
		next.AccountID = accountID
		next.Channel = channel
		changed, t := fn(&next, m.now(), policy)
		if !changed {
			current.AccountID = accountID
			current.Channel = channel
			return current, t, nil
		}
		next.Version = current.Version + 1
		next = *next.ParseModel().(*entities.AttemptCounter)
		swapped, err := m.store.CompareAndSwap(ctx, current.Version, &next)
		if err != nil {
			return nil, transition{}, err
		}
		if swapped {
			return &next, t, nil
		}
		select {
		case <-ctx.Done():
			return nil, transition{}, ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
	logger.Warning("lockout counter contention exhausted retries", logger.LoggerOptions{
		Key:  "accountID",
		Data: accountID,
	}, logger.LoggerOptions{
		Key:  "channel",
		Data: channel,
	})
	return nil, transition{}, ErrContention
}

// backoff spreads writers that lost a swap so they do not collide again.
func backoff(attempt int) time.Duration {
	ceiling := time.Duration(attempt+1) * 500 * time.Microsecond
	if ceiling > maxBackoff {
		ceiling = maxBackoff
	}
	return rand.N(ceiling) + 1
}

func clearExpired(counter *entities.AttemptCounter, now time.Time) bool {
	if counter.LockedUntil != nil && !counter.IsLocked(now) {
		counter.LockedUntil = nil
		counter.FailedCount = 0
		return true
	}
	return false
}

// RecordFailure counts a failed attempt. Failures while the lock window is
// open are not counted.
func (m *Machine) RecordFailure(ctx context.Context, accountID string, channel entities.Channel) (Status, error) {
	counter, t, err := m.mutate(ctx, accountID, channel, func(c *entities.AttemptCounter, now time.Time, p Policy) (bool, transition) {
		if c.IsLocked(now) {
			return false, transition{}
		}
		t := transition{autoUnlocked: clearExpired(c, now)}
		if c.FailedCount < p.MaxAttempts {
			c.FailedCount++
		}
		if c.FailedCount >= p.MaxAttempts {
			until := now.Add(p.LockoutDuration)
			c.LockedUntil = &until
			t.locked = true
		} else if c.FailedCount == p.MaxAttempts-1 {
			t.warned = true
		}
		return true, t
	})
	if err != nil {
		return Status{}, err
	}
	m.emitTransition(ctx, counter, t, nil)
	return m.status(counter, channel), nil
}

// RecordSuccess clears the counter. Callers check the gate before letting an
// attempt through, so a success never lifts an open lock by itself.
func (m *Machine) RecordSuccess(ctx context.Context, accountID string, channel entities.Channel) error {
	_, _, err := m.mutate(ctx, accountID, channel, func(c *entities.AttemptCounter, now time.Time, p Policy) (bool, transition) {
		if c.FailedCount == 0 && c.LockedUntil == nil {
			return false, transition{}
		}
		c.FailedCount = 0
		c.LockedUntil = nil
		return true, transition{}
	})
	return err
}

// CheckGate decides whether an attempt may proceed. An expired lock is
// cleared here, which is the only way a lock ends without an operator.
func (m *Machine) CheckGate(ctx context.Context, accountID string, channel entities.Channel) (LockDecision, error) {
	if m.accounts != nil {
		disabled, err := m.accounts.IsDisabled(ctx, accountID)
		if err != nil {
			return LockDecision{}, err
		}
		if disabled {
			return LockDecision{Kind: Deny, Reason: ReasonDisabled}, nil
		}
	}
	counter, t, err := m.mutate(ctx, accountID, channel, func(c *entities.AttemptCounter, now time.Time, p Policy) (bool, transition) {
		if c.IsLocked(now) {
			return false, transition{}
		}
		if clearExpired(c, now) {
			return true, transition{autoUnlocked: true}
		}
		return false, transition{}
	})
	if err != nil {
		return LockDecision{}, err
	}
	m.emitTransition(ctx, counter, t, nil)

	policy, _ := m.Policy(channel)
	now := m.now()
	if counter.IsLocked(now) {
		return LockDecision{
			Kind:        Deny,
			Reason:      ReasonLocked,
			RetryAfter:  counter.LockedUntil.Sub(now),
			LockedUntil: counter.LockedUntil,
		}, nil
	}
	remaining := policy.MaxAttempts - counter.FailedCount
	if remaining == 1 && policy.MaxAttempts > 1 {
		return LockDecision{Kind: Warn, Remaining: remaining}, nil
	}
	return LockDecision{Kind: Allow, Remaining: remaining}, nil
}

// AdminUnlock clears the given channels (both when none are named) on behalf
// of an operator. Every call is audited, including one that finds nothing to clear.
func (m *Machine) AdminUnlock(ctx context.Context, accountID string, operatorID string, channels ...entities.Channel) error {
	if len(channels) == 0 {
		channels = []entities.Channel{entities.PasswordChannel, entities.FaceChannel}
	}
	for _, channel := range channels {
		counter, t, err := m.mutate(ctx, accountID, channel, func(c *entities.AttemptCounter, now time.Time, p Policy) (bool, transition) {
			if c.FailedCount == 0 && c.LockedUntil == nil {
				return false, transition{adminCleared: true, alreadyClear: true}
			}
			c.FailedCount = 0
			c.LockedUntil = nil
			return true, transition{adminCleared: true}
		})
		if err != nil {
			return err
		}
		m.emitTransition(ctx, counter, t, &operatorID)
	}
	return nil
}

// Status reports the current state without writing anything.
func (m *Machine) Status(ctx context.Context, accountID string, channel entities.Channel) (Status, error) {
	if _, err := m.Policy(channel); err != nil {
		return Status{}, err
	}
	counter, err := m.store.Get(ctx, accountID, channel)
	if err != nil {
		return Status{}, err
	}
	view := *counter
	clearExpired(&view, m.now())
	return m.status(&view, channel), nil
}

// ListLocked returns counters whose lock window is open right now.
func (m *Machine) ListLocked(ctx context.Context) ([]entities.AttemptCounter, error) {
	return m.store.ListLocked(ctx, m.now())
}

func (m *Machine) status(counter *entities.AttemptCounter, channel entities.Channel) Status {
	policy, _ := m.Policy(channel)
	status := Status{
		State:       Active,
		FailedCount: counter.FailedCount,
		Remaining:   policy.MaxAttempts - counter.FailedCount,
	}
	if status.Remaining < 0 {
		status.Remaining = 0
	}
	switch {
	case counter.IsLocked(m.now()):
		status.State = Locked
		status.LockedUntil = counter.LockedUntil
		status.Remaining = 0
	case policy.MaxAttempts > 1 && counter.FailedCount == policy.MaxAttempts-1:
		status.State = Warned
	}
	return status
}

func (m *Machine) emitTransition(ctx context.Context, counter *entities.AttemptCounter, t transition, operatorID *string) {
	if counter == nil {
		return
	}
	channel := counter.Channel
	base := entities.AuditEvent{
		AccountID: counter.AccountID,
		Channel:   &channel,
	}
	if t.autoUnlocked {
		event := base
		event.Type = entities.AccountAutoUnlocked
		m.emitter.Emit(ctx, event)
	}
	if t.warned {
		event := base
		event.Type = entities.AccountWarned
		event.Details = map[string]any{"failedCount": counter.FailedCount}
		m.emitter.Emit(ctx, event)
	}
	if t.locked {
		event := base
		event.Type = entities.AccountLocked
		event.Details = map[string]any{
			"failedCount": counter.FailedCount,
			"lockedUntil": counter.LockedUntil,
		}
		m.emitter.Emit(ctx, event)
	}
	if t.adminCleared {
		event := base
		event.Type = entities.AccountAdminUnlocked
		event.OperatorID = operatorID
		if t.alreadyClear {
			event.Details = map[string]any{"alreadyClear": true}
		}
		m.emitter.Emit(ctx, event)
	}
}
