package auth_usecases

import (
	"context"
	"testing"

	"facegate.io/application/services/facematch"
	"facegate.io/entities"
	"facegate.io/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstEnrollmentOpensSessionAndIssuesBackupCode(t *testing.T) {
	h := newHarness(t)
	account, session := h.enrolled(t, "alice")

	require.NotNil(t, session.BackupCode)
	assert.Len(t, *session.BackupCode, 8)
	claims, err := h.tokens.DecodeAuthToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.IntentSession, claims.Intent)

	assert.Equal(t, 1, h.recorder.Count(entities.FaceEnrolled))
	assert.Equal(t, 1, h.recorder.Count(entities.LoginSucceeded))
	assert.Equal(t, 1, h.recorder.Count(entities.BackupCodeGenerated))

	stored, err := h.accounts.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestPendingTokenCannotReplaceProfile(t *testing.T) {
	h := newHarness(t)
	h.enrolled(t, "alice")

	_, err := h.service.EnrollFace(context.Background(), h.pending(t, "alice"), liveFrame(t))
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestSessionCanReEnroll(t *testing.T) {
	h := newHarness(t)
	_, session := h.enrolled(t, "alice")
	ctx := context.Background()

	h.backend.show(otherFace)
	result, err := h.service.EnrollFace(ctx, h.principal(t, session.Token, auth.IntentSession), liveFrame(t))
	require.NoError(t, err)
	assert.Nil(t, result)

	verification, err := h.service.VerifyFace(ctx, h.pending(t, "alice"), liveFrame(t))
	require.NoError(t, err)
	assert.True(t, verification.Verified)
}

func TestVerifyFace(t *testing.T) {
	h := newHarness(t)
	account, _ := h.enrolled(t, "alice")
	ctx := context.Background()

	t.Run("same face signs in", func(t *testing.T) {
		h.backend.show(aliceFace)
		result, err := h.service.VerifyFace(ctx, h.pending(t, "alice"), liveFrame(t))
		require.NoError(t, err)
		assert.True(t, result.Verified)
		require.NotNil(t, result.Session)
		assert.Nil(t, result.Session.BackupCode)
	})

	t.Run("input errors are not charged", func(t *testing.T) {
		_, err := h.service.VerifyFace(ctx, h.pending(t, "alice"), []byte("not an image"))
		assert.ErrorIs(t, err, facematch.ErrInvalidFrame)

		status, err := h.service.lockout.Status(ctx, account.ID, entities.FaceChannel)
		require.NoError(t, err)
		assert.Zero(t, status.FailedCount)
	})

	t.Run("cancelled request is not charged", func(t *testing.T) {
		principal := h.pending(t, "alice")
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		h.backend.show(otherFace)
		_, err := h.service.VerifyFace(cancelled, principal, liveFrame(t))
		assert.ErrorIs(t, err, context.Canceled)

		status, err := h.service.lockout.Status(ctx, account.ID, entities.FaceChannel)
		require.NoError(t, err)
		assert.Zero(t, status.FailedCount)
	})
}

func TestFaceRejectionsWarnThenLock(t *testing.T) {
	h := newHarness(t)
	h.enrolled(t, "alice")
	ctx := context.Background()
	principal := h.pending(t, "alice")
	h.backend.show(otherFace)

	first, err := h.service.VerifyFace(ctx, principal, liveFrame(t))
	require.NoError(t, err)
	assert.False(t, first.Verified)
	assert.Equal(t, string(facematch.NoMatch), first.Reason)
	assert.Equal(t, 2, first.Remaining)
	assert.False(t, first.Warned)

	second, err := h.service.VerifyFace(ctx, principal, liveFrame(t))
	require.NoError(t, err)
	assert.True(t, second.Warned)
	assert.Equal(t, 1, second.Remaining)

	third, err := h.service.VerifyFace(ctx, principal, liveFrame(t))
	require.NoError(t, err)
	assert.True(t, third.Locked)
	assert.Equal(t, 0, third.Remaining)
	assert.Equal(t, 1, h.notes.count())

	// locked: even the right face is turned away without being charged
	h.backend.show(aliceFace)
	_, err = h.service.VerifyFace(ctx, principal, liveFrame(t))
	var lockedErr *LockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.Equal(t, entities.FaceChannel, lockedErr.Channel)

	// and so is the next login
	_, err = h.service.Login(ctx, "alice", testPassword)
	assert.ErrorIs(t, err, ErrAccountLocked)

	assert.Equal(t, 3, h.recorder.Count(entities.FaceRejected))
	assert.Equal(t, 1, h.recorder.Count(entities.AccountWarned))
	assert.Equal(t, 1, h.recorder.Count(entities.AccountLocked))
}

func TestVerifyFaceWithoutProfile(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice")

	_, err := h.service.VerifyFace(context.Background(), h.pending(t, "alice"), liveFrame(t))
	assert.ErrorIs(t, err, facematch.ErrNotEnrolled)
}
