// Package auth_usecases ties the password step, the face step and the backup
// code channel into one login flow, and carries the operator actions.
package auth_usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facegate.io/application/services/audit"
	"facegate.io/application/services/backupcode"
	"facegate.io/application/services/facematch"
	"facegate.io/application/services/lockout"
	"facegate.io/entities"
	"facegate.io/infrastructure/auth"
	"facegate.io/infrastructure/cryptography"
	"facegate.io/infrastructure/database/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrAccountDisabled    = errors.New("account has been disabled, contact support")
	ErrUnauthorised       = errors.New("unauthorised access")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrUsernameTaken      = errors.New("username or email is already in use")
	ErrAccountNotFound    = errors.New("account not found")
	ErrCannotModifyAdmin  = errors.New("admin accounts cannot be disabled")
	ErrAlreadyEnrolled    = errors.New("face is already enrolled, complete sign in to enroll again")
)

// CredentialsError is a failed password check. Locked is set when this
// failure closed the password channel.
type CredentialsError struct {
	Locked bool
}

func (e *CredentialsError) Error() string {
	return ErrInvalidCredentials.Error()
}

func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

type LockedError struct {
	Channel     entities.Channel
	RetryAfter  time.Duration
	LockedUntil *time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s, retry in %s", ErrAccountLocked.Error(), e.RetryAfter.Round(time.Second))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type AccountStore interface {
	Create(ctx context.Context, account *entities.Account) error
	FindByID(ctx context.Context, id string) (*entities.Account, error)
	FindByUsername(ctx context.Context, username string) (*entities.Account, error)
	SetDisabled(ctx context.Context, id string, disabled bool, reason *string, operatorID *string) error
	IsDisabled(ctx context.Context, id string) (bool, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type FaceProfileRemover interface {
	Delete(ctx context.Context, accountID string) error
}

type AuditLog interface {
	List(ctx context.Context, filter repository.AuditFilter) ([]entities.AuditEvent, error)
}

type TokenIssuer interface {
	GenerateAuthToken(claimsData auth.ClaimsData) (*string, *time.Time, error)
	DecodeAuthToken(tokenString string) (*auth.ClaimsData, error)
}

// LockNotifier tells the account owner that a channel was locked.
type LockNotifier interface {
	AccountLocked(ctx context.Context, account *entities.Account, channel entities.Channel, lockedUntil *time.Time)
}

type Dependencies struct {
	Accounts     AccountStore
	FaceProfiles FaceProfileRemover
	AuditLog     AuditLog
	Passwords    cryptography.Hasher
	Lockout      *lockout.Machine
	Faces        *facematch.Engine
	BackupCodes  *backupcode.Manager
	Tokens       TokenIssuer
	Emitter      audit.Emitter
	Notifier     LockNotifier
	Clock        func() time.Time
}

type Service struct {
	accounts     AccountStore
	faceProfiles FaceProfileRemover
	auditLog     AuditLog
	passwords    cryptography.Hasher
	lockout      *lockout.Machine
	faces        *facematch.Engine
	backupCodes  *backupcode.Manager
	tokens       TokenIssuer
	emitter      audit.Emitter
	notifier     LockNotifier
	now          func() time.Time
	dummyHash    string
}

func New(deps Dependencies) (*Service, error) {
	s := &Service{
		accounts:     deps.Accounts,
		faceProfiles: deps.FaceProfiles,
		auditLog:     deps.AuditLog,
		passwords:    deps.Passwords,
		lockout:      deps.Lockout,
		faces:        deps.Faces,
		backupCodes:  deps.BackupCodes,
		tokens:       deps.Tokens,
		emitter:      deps.Emitter,
		notifier:     deps.Notifier,
		now:          deps.Clock,
	}
	if s.emitter == nil {
		s.emitter = audit.Discard{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	// unknown usernames are checked against this so the response time matches
	hash, err := s.passwords.HashString("facegate-unknown-account")
	if err != nil {
		return nil, err
	}
	s.dummyHash = string(hash)
	return s, nil
}

// Principal is the caller behind a token.
type Principal struct {
	AccountID string
	Username  string
	Role      entities.Role
	Intent    string
}

func (p *Principal) HasRole(roles ...entities.Role) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// SessionResult is handed out once both factors passed.
type SessionResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	// plaintext of the first backup code, only set right after first enrollment
	BackupCode *string `json:"backupCode,omitempty"`
}

func (s *Service) issue(account *entities.Account, intent string) (*string, *time.Time, error) {
	return s.tokens.GenerateAuthToken(auth.ClaimsData{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      string(account.Role),
		Intent:    intent,
	})
}

// openSession issues the final token and records the completed sign in.
func (s *Service) openSession(ctx context.Context, account *entities.Account, factor string) (*SessionResult, error) {
	token, expiresAt, err := s.issue(account, auth.IntentSession)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.accounts.TouchLastLogin(ctx, account.ID, now); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, entities.AuditEvent{
		Type:      entities.LoginSucceeded,
		AccountID: account.ID,
		Outcome:   "success",
		Details:   map[string]any{"factor": factor},
	})
	return &SessionResult{Token: *token, ExpiresAt: *expiresAt}, nil
}

func (s *Service) account(ctx context.Context, id string) (*entities.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// gate turns a denied lockout decision into the matching error.
func (s *Service) gate(ctx context.Context, accountID string, channel entities.Channel) (lockout.LockDecision, error) {
	decision, err := s.lockout.CheckGate(ctx, accountID, channel)
	if err != nil {
		return decision, err
	}
	if decision.Allowed() {
		return decision, nil
	}
	return decision, denied(channel, decision)
}

func denied(channel entities.Channel, decision lockout.LockDecision) error {
	if decision.Reason == lockout.ReasonDisabled {
		return ErrAccountDisabled
	}
	return &LockedError{Channel: channel, RetryAfter: decision.RetryAfter, LockedUntil: decision.LockedUntil}
}

func (s *Service) notifyLocked(ctx context.Context, account *entities.Account, channel entities.Channel, status lockout.Status) {
	if s.notifier == nil || status.State != lockout.Locked {
		return
	}
	s.notifier.AccountLocked(ctx, account, channel, status.LockedUntil)
}
