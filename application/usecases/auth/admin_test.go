package auth_usecases

import (
	"context"
	"testing"

	"facegate.io/application/services/lockout"
	"facegate.io/application/utils"
	"facegate.io/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockFace(t *testing.T, h *harness, username string) {
	t.Helper()
	principal := h.pending(t, username)
	h.backend.show(otherFace)
	for i := 0; i < 3; i++ {
		_, err := h.service.VerifyFace(context.Background(), principal, liveFrame(t))
		require.NoError(t, err)
	}
	h.backend.show(aliceFace)
}

func TestAdminUnlock(t *testing.T) {
	h := newHarness(t)
	account, _ := h.enrolled(t, "alice")
	admin := h.adminPrincipal(t)
	ctx := context.Background()
	lockFace(t, h, "alice")

	locked, err := h.service.ListLockedAccounts(ctx, admin)
	require.NoError(t, err)
	require.Len(t, locked, 1)
	assert.Equal(t, account.ID, locked[0].AccountID)

	user := &Principal{AccountID: account.ID, Role: entities.UserRole}
	assert.ErrorIs(t, h.service.AdminUnlock(ctx, user, account.ID), ErrForbidden)
	auditor := &Principal{AccountID: "auditor", Role: entities.AuditorRole}
	assert.ErrorIs(t, h.service.AdminUnlock(ctx, auditor, account.ID), ErrForbidden)
	assert.ErrorIs(t, h.service.AdminUnlock(ctx, admin, "missing"), ErrAccountNotFound)

	require.NoError(t, h.service.AdminUnlock(ctx, admin, account.ID))

	result, err := h.service.VerifyFace(ctx, h.pending(t, "alice"), liveFrame(t))
	require.NoError(t, err)
	assert.True(t, result.Verified)

	events := h.recorder.Events()
	var unlocked *entities.AuditEvent
	for i := range events {
		if events[i].Type == entities.AccountAdminUnlocked {
			unlocked = &events[i]
		}
	}
	require.NotNil(t, unlocked)
	require.NotNil(t, unlocked.OperatorID)
	assert.Equal(t, admin.AccountID, *unlocked.OperatorID)
}

func TestDisableAndEnable(t *testing.T) {
	h := newHarness(t)
	account, session := h.enrolled(t, "alice")
	admin := h.adminPrincipal(t)
	ctx := context.Background()

	require.NoError(t, h.service.DisableAccount(ctx, admin, account.ID, utils.GetStringPointer("fraud review")))

	_, err := h.service.Login(ctx, "alice", testPassword)
	assert.ErrorIs(t, err, ErrAccountDisabled)
	_, err = h.service.Authenticate(ctx, session.Token, "session")
	assert.ErrorIs(t, err, ErrAccountDisabled)

	status, err := h.service.AccountStatus(ctx, admin, account.ID)
	require.NoError(t, err)
	assert.True(t, status.Disabled)
	assert.Equal(t, "fraud review", *status.DisabledReason)

	assert.ErrorIs(t, h.service.DisableAccount(ctx, admin, admin.AccountID, nil), ErrCannotModifyAdmin)

	require.NoError(t, h.service.EnableAccount(ctx, admin, account.ID))
	_, err = h.service.Login(ctx, "alice", testPassword)
	assert.NoError(t, err)

	assert.Equal(t, 1, h.recorder.Count(entities.AccountDisabled))
	assert.Equal(t, 1, h.recorder.Count(entities.AccountEnabled))
}

func TestEnableClearsLocks(t *testing.T) {
	h := newHarness(t)
	account, _ := h.enrolled(t, "alice")
	admin := h.adminPrincipal(t)
	ctx := context.Background()
	lockFace(t, h, "alice")

	require.NoError(t, h.service.DisableAccount(ctx, admin, account.ID, nil))
	require.NoError(t, h.service.EnableAccount(ctx, admin, account.ID))

	status, err := h.service.AccountStatus(ctx, admin, account.ID)
	require.NoError(t, err)
	assert.Equal(t, lockout.Active, status.Face.State)
	assert.False(t, status.Disabled)
}

func TestResetFace(t *testing.T) {
	h := newHarness(t)
	account, _ := h.enrolled(t, "alice")
	admin := h.adminPrincipal(t)
	ctx := context.Background()

	require.NoError(t, h.service.ResetFace(ctx, admin, account.ID))

	login, err := h.service.Login(ctx, "alice", testPassword)
	require.NoError(t, err)
	assert.Equal(t, NextStepEnrollFace, login.NextStep)
	assert.False(t, login.HasBackupCode)
	assert.Equal(t, 1, h.recorder.Count(entities.FaceProfileReset))
}

func TestAuditorCanReadStatus(t *testing.T) {
	h := newHarness(t)
	account, _ := h.enrolled(t, "alice")
	ctx := context.Background()
	auditor := &Principal{AccountID: "auditor", Role: entities.AuditorRole}

	status, err := h.service.AccountStatus(ctx, auditor, account.ID)
	require.NoError(t, err)
	assert.True(t, status.FaceEnrolled)
	assert.True(t, status.HasBackupCode)
	assert.Equal(t, lockout.Active, status.Password.State)

	assert.ErrorIs(t, h.service.DisableAccount(ctx, auditor, account.ID, nil), ErrForbidden)
}
