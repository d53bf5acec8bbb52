package auth_usecases

import (
	"context"
	"errors"

	"facegate.io/application/services/backupcode"
	"facegate.io/entities"
)

func (s *Service) GenerateBackupCode(ctx context.Context, principal *Principal) (string, error) {
	if _, err := s.account(ctx, principal.AccountID); err != nil {
		return "", err
	}
	return s.backupCodes.Generate(ctx, principal.AccountID)
}

func (s *Service) RevealBackupCode(ctx context.Context, principal *Principal) (string, error) {
	if _, err := s.account(ctx, principal.AccountID); err != nil {
		return "", err
	}
	return s.backupCodes.Reveal(ctx, principal.AccountID)
}

type BackupCodeVerification struct {
	Outcome   backupcode.Outcome `json:"outcome"`
	Remaining int                `json:"remaining"`
	Locked    bool               `json:"locked"`
	Session   *SessionResult     `json:"session,omitempty"`
}

// VerifyBackupCode completes sign in with a backup code instead of the face.
// Wrong codes are charged to the face channel.
func (s *Service) VerifyBackupCode(ctx context.Context, principal *Principal, code string) (*BackupCodeVerification, error) {
	account, err := s.account(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}
	result, err := s.backupCodes.Verify(ctx, account.ID, code)
	if err != nil {
		var locked *backupcode.LockedError
		if errors.As(err, &locked) {
			return nil, denied(entities.FaceChannel, locked.Decision)
		}
		return nil, err
	}
	verification := &BackupCodeVerification{
		Outcome:   result.Outcome,
		Remaining: result.Remaining,
		Locked:    result.Locked,
	}
	switch result.Outcome {
	case backupcode.Accepted:
		session, err := s.openSession(ctx, account, "backup_code")
		if err != nil {
			return nil, err
		}
		verification.Session = session
	case backupcode.Rejected:
		if result.Locked {
			status, err := s.lockout.Status(ctx, account.ID, entities.FaceChannel)
			if err != nil {
				return nil, err
			}
			s.notifyLocked(ctx, account, entities.FaceChannel, status)
		}
	}
	return verification, nil
}
