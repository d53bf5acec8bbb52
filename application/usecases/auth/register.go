package auth_usecases

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"facegate.io/entities"
	"facegate.io/infrastructure/database"
	"facegate.io/infrastructure/logger"
)

var (
	usernamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	reservedUsername = []string{"select", "insert", "update", "delete", "drop", "union", "exec", "execute", "script", "admin", "root"}
)

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

func ValidateUsername(username string) error {
	if len(username) < 3 || len(username) > 50 {
		return &ValidationError{Field: "username", Message: "username must be between 3 and 50 characters"}
	}
	if !usernamePattern.MatchString(username) {
		return &ValidationError{Field: "username", Message: "username can only contain letters, numbers and underscores"}
	}
	lowered := strings.ToLower(username)
	for _, word := range reservedUsername {
		if lowered == word {
			return &ValidationError{Field: "username", Message: "username is not allowed"}
		}
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 128 {
		return &ValidationError{Field: "password", Message: "password must be between 8 and 128 characters"}
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	switch {
	case !upper:
		return &ValidationError{Field: "password", Message: "password must contain an uppercase letter"}
	case !lower:
		return &ValidationError{Field: "password", Message: "password must contain a lowercase letter"}
	case !digit:
		return &ValidationError{Field: "password", Message: "password must contain a number"}
	case !special:
		return &ValidationError{Field: "password", Message: "password must contain a special character"}
	}
	return nil
}

// Register creates a user account. The face is enrolled on first sign in.
func (s *Service) Register(ctx context.Context, username string, email *string, password string) (*entities.Account, error) {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*email))
		email = &lowered
	}
	return s.createAccount(ctx, username, email, password, entities.UserRole)
}

func (s *Service) createAccount(ctx context.Context, username string, email *string, password string, role entities.Role) (*entities.Account, error) {
	hashedPassword, err := s.passwords.HashString(password)
	if err != nil {
		logger.Error("an error occured while hashing account password", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, err
	}
	account := entities.Account{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
	}
	account = *account.ParseModel().(*entities.Account)
	if err := s.accounts.Create(ctx, &account); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return &account, nil
}

// BootstrapAdmin creates the first operator account when it does not exist yet.
// Reserved usernames are allowed here since only configuration reaches it.
func (s *Service) BootstrapAdmin(ctx context.Context, username string, password string) error {
	if username == "" || password == "" {
		return nil
	}
	existing, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Role != entities.AdminRole {
			logger.Warning("bootstrap admin username belongs to a non admin account", logger.LoggerOptions{
				Key:  "username",
				Data: username,
			})
		}
		return nil
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	account, err := s.createAccount(ctx, username, nil, password, entities.AdminRole)
	if err != nil {
		return err
	}
	logger.Info("bootstrap admin account created", logger.LoggerOptions{
		Key:  "accountID",
		Data: account.ID,
	})
	return nil
}

type Profile struct {
	ID            string        `json:"id"`
	Username      string        `json:"username"`
	Email         *string       `json:"email,omitempty"`
	Role          entities.Role `json:"role"`
	FaceEnrolled  bool          `json:"faceEnrolled"`
	HasBackupCode bool          `json:"hasBackupCode"`
	LastLogin     *time.Time    `json:"lastLogin,omitempty"`
}

func (s *Service) Profile(ctx context.Context, principal *Principal) (*Profile, error) {
	account, err := s.account(ctx, principal.AccountID)
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
	profile := &Profile{
		ID:            account.ID,
		Username:      account.Username,
		Email:         account.Email,
		Role:          account.Role,
		FaceEnrolled:  enrolled,
		HasBackupCode: hasCode,
		LastLogin:     account.LastLogin,
	}
	return profile, nil
}
