package auth_usecases

import (
	"context"
	"errors"

	"facegate.io/application/services/lockout"
	"facegate.io/entities"
	"facegate.io/infrastructure/auth"
	"facegate.io/infrastructure/logger"
)

const (
	NextStepEnrollFace = "enroll_face"
	NextStepVerifyFace = "verify_face"
)

type LoginResult struct {
	Token         string `json:"token"`
	ExpiresAt     int64  `json:"expiresAt"`
	NextStep      string `json:"nextStep"`
	HasBackupCode bool   `json:"hasBackupCode"`
	// face attempts left before the account locks, set when only one is left
	FaceAttemptsLeft *int `json:"faceAttemptsLeft,omitempty"`
}

// Login checks the password and hands out a short lived token that can only
// be used for the face step or a backup code.
func (s *Service) Login(ctx context.Context, username string, password string) (*LoginResult, error) {
	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if account == nil {
		s.passwords.VerifyHashData(s.dummyHash, password)
		return nil, &CredentialsError{}
	}

	if _, err := s.gate(ctx, account.ID, entities.PasswordChannel); err != nil {
		return nil, err
	}

	matched := s.passwords.VerifyHashData(account.Password, password)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !matched {
		status, err := s.lockout.RecordFailure(ctx, account.ID, entities.PasswordChannel)
		if err != nil {
			return nil, err
		}
		channel := entities.PasswordChannel
		s.emitter.Emit(ctx, entities.AuditEvent{
			Type:      entities.LoginFailed,
			AccountID: account.ID,
			Channel:   &channel,
			Outcome:   "failure",
			Details:   map[string]any{"remaining": status.Remaining},
		})
		s.notifyLocked(ctx, account, entities.PasswordChannel, status)
		return nil, &CredentialsError{Locked: status.State == lockout.Locked}
	}
	if err := s.lockout.RecordSuccess(ctx, account.ID, entities.PasswordChannel); err != nil {
		return nil, err
	}

	decision, err := s.gate(ctx, account.ID, entities.FaceChannel)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.faces.IsEnrolled(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	hasCode, err := s.backupCodes.HasActiveCode(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.issue(account, auth.IntentFacePending)
	if err != nil {
		logger.Error("could not issue face pending token", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, err
	}
	result := &LoginResult{
		Token:         *token,
		ExpiresAt:     expiresAt.Unix(),
		NextStep:      NextStepVerifyFace,
		HasBackupCode: hasCode,
	}
	if !enrolled {
		result.NextStep = NextStepEnrollFace
	}
	if decision.Kind == lockout.Warn {
		remaining := decision.Remaining
		result.FaceAttemptsLeft = &remaining
	}
	return result, nil
}

// Authenticate resolves a bearer token into a principal. The token intent
// must be one of intents. Role and disabled state are read from the store
// so operator changes apply to tokens already issued.
func (s *Service) Authenticate(ctx context.Context, token string, intents ...string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthorised
	}
	claims, err := s.tokens.DecodeAuthToken(token)
	if err != nil {
		return nil, ErrUnauthorised
	}
	allowed := false
	for _, intent := range intents {
		if claims.Intent == intent {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrUnauthorised
	}
	account, err := s.account(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrUnauthorised
		}
		return nil, err
	}
	if account.Disabled {
		return nil, ErrAccountDisabled
	}
	return &Principal{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		Intent:    claims.Intent,
	}, nil
}
