package auth_usecases

import (
	"context"

	"facegate.io/application/services/lockout"
	"facegate.io/entities"
	"facegate.io/infrastructure/database/repository"
)

func requireRole(principal *Principal, roles ...entities.Role) error {
	if principal == nil || !principal.HasRole(roles...) {
		return ErrForbidden
	}
	return nil
}

// AdminUnlock clears the lock on the given channels, or on both when none
// are named.
func (s *Service) AdminUnlock(ctx context.Context, operator *Principal, accountID string, channels ...entities.Channel) error {
	if err := requireRole(operator, entities.AdminRole); err != nil {
		return err
	}
	if _, err := s.account(ctx, accountID); err != nil {
		return err
	}
	return s.lockout.AdminUnlock(ctx, accountID, operator.AccountID, channels...)
}

// DisableAccount locks the account until an operator enables it again.
func (s *Service) DisableAccount(ctx context.Context, operator *Principal, accountID string, reason *string) error {
	if err := requireRole(operator, entities.AdminRole); err != nil {
		return err
	}
	account, err := s.account(ctx, accountID)
	if err != nil {
		return err
	}
	if account.IsAdmin() {
		return ErrCannotModifyAdmin
	}
	if err := s.accounts.SetDisabled(ctx, accountID, true, reason, &operator.AccountID); err != nil {
		return err
	}
	details := map[string]any{}
	if reason != nil {
		details["reason"] = *reason
	}
	s.emitter.Emit(ctx, entities.AuditEvent{
		Type:       entities.AccountDisabled,
		AccountID:  accountID,
		OperatorID: &operator.AccountID,
		Outcome:    "disabled",
		Details:    details,
	})
	return nil
}

// EnableAccount lifts a disable and clears any attempt counters with it.
func (s *Service) EnableAccount(ctx context.Context, operator *Principal, accountID string) error {
	if err := requireRole(operator, entities.AdminRole); err != nil {
		return err
	}
	if _, err := s.account(ctx, accountID); err != nil {
		return err
	}
	if err := s.accounts.SetDisabled(ctx, accountID, false, nil, &operator.AccountID); err != nil {
		return err
	}
	if err := s.lockout.AdminUnlock(ctx, accountID, operator.AccountID); err != nil {
		return err
	}
	s.emitter.Emit(ctx, entities.AuditEvent{
		Type:       entities.AccountEnabled,
		AccountID:  accountID,
		OperatorID: &operator.AccountID,
		Outcome:    "enabled",
	})
	return nil
}

// ResetFace drops the face profile and every backup code, so the owner
// enrolls again on the next sign in.
func (s *Service) ResetFace(ctx context.Context, operator *Principal, accountID string) error {
	if err := requireRole(operator, entities.AdminRole); err != nil {
		return err
	}
	if _, err := s.account(ctx, accountID); err != nil {
		return err
	}
	if err := s.faceProfiles.Delete(ctx, accountID); err != nil {
		return err
	}
	if err := s.backupCodes.Invalidate(ctx, accountID); err != nil {
		return err
	}
	if err := s.lockout.AdminUnlock(ctx, accountID, operator.AccountID, entities.FaceChannel); err != nil {
		return err
	}
	s.emitter.Emit(ctx, entities.AuditEvent{
		Type:       entities.FaceProfileReset,
		AccountID:  accountID,
		OperatorID: &operator.AccountID,
		Outcome:    "reset",
	})
	return nil
}

type AccountStatus struct {
	AccountID      string         `json:"accountID"`
	Username       string         `json:"username"`
	Role           entities.Role  `json:"role"`
	Disabled       bool           `json:"disabled"`
	DisabledReason *string        `json:"disabledReason,omitempty"`
	FaceEnrolled   bool           `json:"faceEnrolled"`
	HasBackupCode  bool           `json:"hasBackupCode"`
	Password       lockout.Status `json:"password"`
	Face           lockout.Status `json:"face"`
}

func (s *Service) AccountStatus(ctx context.Context, operator *Principal, accountID string) (*AccountStatus, error) {
	if err := requireRole(operator, entities.AdminRole, entities.AuditorRole); err != nil {
		return nil, err
	}
	account, err := s.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	passwordStatus, err := s.lockout.Status(ctx, accountID, entities.PasswordChannel)
	if err != nil {
		return nil, err
	}
	faceStatus, err := s.lockout.Status(ctx, accountID, entities.FaceChannel)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.faces.IsEnrolled(ctx, accountID)
	if err != nil {
		return nil, err
	}
	hasCode, err := s.backupCodes.HasActiveCode(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &AccountStatus{
		AccountID:      account.ID,
		Username:       account.Username,
		Role:           account.Role,
		Disabled:       account.Disabled,
		DisabledReason: account.DisabledReason,
		FaceEnrolled:   enrolled,
		HasBackupCode:  hasCode,
		Password:       passwordStatus,
		Face:           faceStatus,
	}, nil
}

func (s *Service) ListLockedAccounts(ctx context.Context, operator *Principal) ([]entities.AttemptCounter, error) {
	if err := requireRole(operator, entities.AdminRole, entities.AuditorRole); err != nil {
		return nil, err
	}
	return s.lockout.ListLocked(ctx)
}

func (s *Service) ListAuditEvents(ctx context.Context, operator *Principal, filter repository.AuditFilter) ([]entities.AuditEvent, error) {
	if err := requireRole(operator, entities.AdminRole, entities.AuditorRole); err != nil {
		return nil, err
	}
	return s.auditLog.List(ctx, filter)
}
