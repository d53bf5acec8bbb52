package auth_usecases

import (
	"context"
	"testing"

	"facegate.io/application/utils"
	"facegate.io/entities"
	"facegate.io/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"ada_lovelace", true},
		{"abc", true},
		{"ab", false},
		{"this_username_is_far_too_long_to_be_accepted_by_us_ok", false},
		{"bad name", false},
		{"semi;colon", false},
		{"DROP", false},
		{"admin", false},
		{"administrator", true},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"strong", "Sup3r$ecret", true},
		{"too short", "S3$cret", false},
		{"no upper", "sup3r$ecret", false},
		{"no lower", "SUP3R$ECRET", false},
		{"no digit", "Super$ecret", false},
		{"no special", "Sup3rSecret", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	account, err := h.service.Register(ctx, "alice", utils.GetStringPointer("Alice@Example.com"), testPassword)
	require.NoError(t, err)
	assert.Equal(t, entities.UserRole, account.Role)
	assert.Equal(t, "alice@example.com", *account.Email)
	assert.NotEqual(t, testPassword, account.Password)

	_, err = h.service.Register(ctx, "ALICE", nil, testPassword)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = h.service.Register(ctx, "bob", utils.GetStringPointer("alice@example.com"), testPassword)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = h.service.Register(ctx, "root", nil, testPassword)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestBootstrapAdminIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.service.BootstrapAdmin(ctx, "", ""))
	require.NoError(t, h.service.BootstrapAdmin(ctx, "root", "0perator!Pass"))
	require.NoError(t, h.service.BootstrapAdmin(ctx, "root", "0perator!Pass"))

	admin, err := h.accounts.FindByUsername(ctx, "root")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, entities.AdminRole, admin.Role)

	assert.Error(t, h.service.BootstrapAdmin(ctx, "operator", "weak"))
}

func TestProfile(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice")

	profile, err := h.service.Profile(context.Background(), h.pending(t, "alice"))
	require.NoError(t, err)
	assert.False(t, profile.FaceEnrolled)
	assert.False(t, profile.HasBackupCode)
	assert.Nil(t, profile.LastLogin)

	h2 := newHarness(t)
	_, session := h2.enrolled(t, "bob")
	profile, err = h2.service.Profile(context.Background(), h2.principal(t, session.Token, auth.IntentSession))
	require.NoError(t, err)
	assert.True(t, profile.FaceEnrolled)
	assert.True(t, profile.HasBackupCode)
	assert.NotNil(t, profile.LastLogin)
}
