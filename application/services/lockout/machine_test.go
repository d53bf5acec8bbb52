package lockout

import (
	"context"
	"sync"
	"testing"
	"time"

	"facegate.io/application/services/audit"
	"facegate.io/entities"
	"facegate.io/infrastructure/database/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type disabledSet map[string]bool

func (d disabledSet) IsDisabled(_ context.Context, accountID string) (bool, error) {
	return d[accountID], nil
}

// conflictingStore reports a lost race on every write
type conflictingStore struct {
	*memory.AttemptCounterStore
}

func (conflictingStore) CompareAndSwap(context.Context, int64, *entities.AttemptCounter) (bool, error) {
	return false, nil
}

func newMachine(t *testing.T, opts ...Option) (*Machine, *memory.AttemptCounterStore, *audit.Recorder, *clock) {
	t.Helper()
	store := memory.NewAttemptCounterStore()
	rec := &audit.Recorder{}
	clk := newClock()
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	return New(store, rec, opts...), store, rec, clk
}

func TestRecordFailureProgression(t *testing.T) {
	m, _, rec, clk := newMachine(t)
	ctx := context.Background()

	steps := []struct {
		state     State
		failed    int
		remaining int
	}{
		{state: Active, failed: 1, remaining: 2},
		{state: Warned, failed: 2, remaining: 1},
		{state: Locked, failed: 3, remaining: 0},
	}
	for i, step := range steps {
		status, err := m.RecordFailure(ctx, "acc", entities.FaceChannel)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.state, status.State, "step %d", i)
		assert.Equal(t, step.failed, status.FailedCount, "step %d", i)
		assert.Equal(t, step.remaining, status.Remaining, "step %d", i)
	}

	status, err := m.Status(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	require.NotNil(t, status.LockedUntil)
	assert.Equal(t, clk.Now().Add(15*time.Minute), *status.LockedUntil)
	assert.Equal(t, []entities.AuditEventType{entities.AccountWarned, entities.AccountLocked}, rec.Types())
}

func TestFailuresWhileLockedAreNotCounted(t *testing.T) {
	m, store, rec, _ := newMachine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := m.RecordFailure(ctx, "acc", entities.FaceChannel)
		require.NoError(t, err)
	}
	before, err := store.Get(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		status, err := m.RecordFailure(ctx, "acc", entities.FaceChannel)
		require.NoError(t, err)
		assert.Equal(t, Locked, status.State)
	}

	after, err := store.Get(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, 3, after.FailedCount)
	assert.Equal(t, 1, rec.Count(entities.AccountLocked))
}

func TestCheckGate(t *testing.T) {
	m, _, rec, clk := newMachine(t)
	ctx := context.Background()

	decision, err := m.CheckGate(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision.Kind)
	assert.Equal(t, 3, decision.Remaining)

	_, _ = m.RecordFailure(ctx, "acc", entities.FaceChannel)
	_, _ = m.RecordFailure(ctx, "acc", entities.FaceChannel)
	decision, err = m.CheckGate(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, Warn, decision.Kind)
	assert.Equal(t, 1, decision.Remaining)
	assert.True(t, decision.Allowed())

	_, _ = m.RecordFailure(ctx, "acc", entities.FaceChannel)
	clk.Advance(5 * time.Minute)
	decision, err = m.CheckGate(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision.Kind)
	assert.Equal(t, ReasonLocked, decision.Reason)
	assert.Equal(t, 10*time.Minute, decision.RetryAfter)
	assert.False(t, decision.Allowed())

	// lazy expiry
	clk.Advance(10*time.Minute + time.Second)
	decision, err = m.CheckGate(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision.Kind)
	assert.Equal(t, 3, decision.Remaining)
	assert.Equal(t, 1, rec.Count(entities.AccountAutoUnlocked))

	status, err := m.Status(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, Active, status.State)
	assert.Zero(t, status.FailedCount)
}

func TestFailureAfterExpiryStartsFresh(t *testing.T) {
	m, _, rec, clk := newMachine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = m.RecordFailure(ctx, "acc", entities.FaceChannel)
	}
	clk.Advance(16 * time.Minute)

	status, err := m.RecordFailure(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, Active, status.State)
	assert.Equal(t, 1, status.FailedCount)
	assert.Equal(t, 1, rec.Count(entities.AccountAutoUnlocked))
}

func TestRecordSuccessResets(t *testing.T) {
	m, store, _, _ := newMachine(t)
	ctx := context.Background()

	_, _ = m.RecordFailure(ctx, "acc", entities.FaceChannel)
	_, _ = m.RecordFailure(ctx, "acc", entities.FaceChannel)
	require.NoError(t, m.RecordSuccess(ctx, "acc", entities.FaceChannel))

	counter, err := store.Get(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Zero(t, counter.FailedCount)
	assert.Nil(t, counter.LockedUntil)

	// nothing to reset means nothing written
	version := counter.Version
	require.NoError(t, m.RecordSuccess(ctx, "acc", entities.FaceChannel))
	counter, _ = store.Get(ctx, "acc", entities.FaceChannel)
	assert.Equal(t, version, counter.Version)
}

func TestAdminUnlock(t *testing.T) {
	m, _, rec, _ := newMachine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = m.RecordFailure(ctx, "acc", entities.FaceChannel)
		_, _ = m.RecordFailure(ctx, "acc", entities.PasswordChannel)
	}
	locked, err := m.ListLocked(ctx)
	require.NoError(t, err)
	assert.Len(t, locked, 2)

	require.NoError(t, m.AdminUnlock(ctx, "acc", "op-1", entities.FaceChannel))
	decision, err := m.CheckGate(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision.Kind)
	decision, err = m.CheckGate(ctx, "acc", entities.PasswordChannel)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision.Kind)

	require.NoError(t, m.AdminUnlock(ctx, "acc", "op-1"))
	locked, err = m.ListLocked(ctx)
	require.NoError(t, err)
	assert.Empty(t, locked)

	unlocks := 0
	for _, e := range rec.Events() {
		if e.Type == entities.AccountAdminUnlocked {
			unlocks++
			require.NotNil(t, e.OperatorID)
			assert.Equal(t, "op-1", *e.OperatorID)
		}
	}
	// the second call also audits the face channel it found already clear
	assert.Equal(t, 3, unlocks)
}

func TestAdminUnlockOfClearAccountIsAudited(t *testing.T) {
	m, store, rec, _ := newMachine(t)
	ctx := context.Background()

	require.NoError(t, m.AdminUnlock(ctx, "acc", "op-2"))

	events := rec.Events()
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, entities.AccountAdminUnlocked, e.Type)
		assert.Equal(t, "acc", e.AccountID)
		require.NotNil(t, e.OperatorID)
		assert.Equal(t, "op-2", *e.OperatorID)
		assert.Equal(t, true, e.Details["alreadyClear"])
	}
	counter, err := store.Get(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Zero(t, counter.Version, "nothing is written")
}

func TestDisabledAccountIsDenied(t *testing.T) {
	m, _, _, _ := newMachine(t, WithAccountStatus(disabledSet{"acc": true}))

	decision, err := m.CheckGate(context.Background(), "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision.Kind)
	assert.Equal(t, ReasonDisabled, decision.Reason)

	decision, err = m.CheckGate(context.Background(), "other", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision.Kind)
}

func TestChannelsAreIndependent(t *testing.T) {
	m, _, _, _ := newMachine(t, WithPolicy(entities.PasswordChannel, Policy{MaxAttempts: 5, LockoutDuration: time.Minute}))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = m.RecordFailure(ctx, "acc", entities.FaceChannel)
	}
	status, err := m.Status(ctx, "acc", entities.PasswordChannel)
	require.NoError(t, err)
	assert.Equal(t, Active, status.State)
	assert.Equal(t, 5, status.Remaining)

	for i := 0; i < 4; i++ {
		status, err = m.RecordFailure(ctx, "acc", entities.PasswordChannel)
		require.NoError(t, err)
	}
	assert.Equal(t, Warned, status.State)
}

func TestConcurrentFailuresAreLinearizable(t *testing.T) {
	m, store, rec, _ := newMachine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.RecordFailure(ctx, "acc", entities.FaceChannel)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	counter, err := store.Get(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, 3, counter.FailedCount)
	assert.EqualValues(t, 3, counter.Version)
	assert.Equal(t, 1, rec.Count(entities.AccountWarned))
	assert.Equal(t, 1, rec.Count(entities.AccountLocked))
}

func TestConcurrentFailuresWithDefaultRetries(t *testing.T) {
	m, store, rec, _ := newMachine(t, WithPolicy(entities.FaceChannel, Policy{MaxAttempts: 10, LockoutDuration: time.Minute}))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.RecordFailure(ctx, "acc", entities.FaceChannel)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	counter, err := store.Get(ctx, "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Equal(t, 10, counter.FailedCount)
	assert.NotNil(t, counter.LockedUntil)
	assert.Equal(t, 1, rec.Count(entities.AccountLocked))
}

func TestBackoffStaysBounded(t *testing.T) {
	for attempt := 0; attempt < 100; attempt++ {
		d := backoff(attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, maxBackoff)
	}
}

func TestExhaustedRetriesReportContention(t *testing.T) {
	store := conflictingStore{memory.NewAttemptCounterStore()}
	m := New(store, nil, WithMaxRetries(3))

	_, err := m.RecordFailure(context.Background(), "acc", entities.FaceChannel)
	assert.ErrorIs(t, err, ErrContention)
}

func TestCancelledContextRecordsNothing(t *testing.T) {
	m, store, _, _ := newMachine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.RecordFailure(ctx, "acc", entities.FaceChannel)
	assert.ErrorIs(t, err, context.Canceled)

	counter, err := store.Get(context.Background(), "acc", entities.FaceChannel)
	require.NoError(t, err)
	assert.Zero(t, counter.FailedCount)
}

func TestUnknownChannel(t *testing.T) {
	m, _, _, _ := newMachine(t)
	_, err := m.RecordFailure(context.Background(), "acc", entities.Channel("sms"))
	assert.ErrorIs(t, err, ErrUnknownChannel)
}
