package auth_usecases

import (
	"context"

	"facegate.io/application/services/facematch"
	"facegate.io/application/services/lockout"
	"facegate.io/entities"
	"facegate.io/infrastructure/auth"
	"facegate.io/infrastructure/logger"
)

// EnrollFace stores the caller's face profile. A face pending token may only
// enroll an account that has no profile yet, and completes the sign in.
// Replacing an existing profile needs a full session and returns no new one.
func (s *Service) EnrollFace(ctx context.Context, principal *Principal, image []byte) (*SessionResult, error) {
	account, err := s.account(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate(ctx, account.ID, entities.FaceChannel); err != nil {
		return nil, err
	}
	enrolled, err := s.faces.IsEnrolled(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if enrolled && principal.Intent != auth.IntentSession {
		return nil, ErrAlreadyEnrolled
	}

	profile, err := s.faces.Enroll(ctx, account.ID, image)
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, entities.AuditEvent{
		Type:      entities.FaceEnrolled,
		AccountID: account.ID,
		Outcome:   "success",
		Details:   map[string]any{"backend": profile.Backend, "reenrollment": enrolled},
	})

	if principal.Intent == auth.IntentSession {
		return nil, nil
	}
	session, err := s.openSession(ctx, account, "enrollment")
	if err != nil {
		return nil, err
	}
	code, err := s.backupCodes.Generate(ctx, account.ID)
	if err != nil {
		logger.Warning("could not issue first backup code", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "accountID",
			Data: account.ID,
		})
	} else {
		session.BackupCode = &code
	}
	return session, nil
}

type FaceVerification struct {
	Verified  bool           `json:"verified"`
	Reason    string         `json:"reason,omitempty"`
	Remaining int            `json:"remaining"`
	Warned    bool           `json:"warned"`
	Locked    bool           `json:"locked"`
	Session   *SessionResult `json:"session,omitempty"`
}

// VerifyFace runs the face step. Only a rejection is charged to the face
// channel; input errors, backend outages and cancellation are not.
func (s *Service) VerifyFace(ctx context.Context, principal *Principal, image []byte) (*FaceVerification, error) {
	account, err := s.account(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate(ctx, account.ID, entities.FaceChannel); err != nil {
		return nil, err
	}

	result, err := s.faces.Verify(ctx, account.ID, image)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	channel := entities.FaceChannel
	if result.Accepted {
		if err := s.lockout.RecordSuccess(ctx, account.ID, entities.FaceChannel); err != nil {
			return nil, err
		}
		s.emitter.Emit(ctx, entities.AuditEvent{
			Type:      entities.FaceVerified,
			AccountID: account.ID,
			Channel:   &channel,
			Outcome:   "accepted",
			Details:   matchDetails(result),
		})
		session, err := s.openSession(ctx, account, "face")
		if err != nil {
			return nil, err
		}
		return &FaceVerification{Verified: true, Session: session}, nil
	}

	status, err := s.lockout.RecordFailure(ctx, account.ID, entities.FaceChannel)
	if err != nil {
		return nil, err
	}
	details := matchDetails(result)
	details["reason"] = string(result.Reason)
	details["remaining"] = status.Remaining
	s.emitter.Emit(ctx, entities.AuditEvent{
		Type:      entities.FaceRejected,
		AccountID: account.ID,
		Channel:   &channel,
		Outcome:   "rejected",
		Details:   details,
	})
	s.notifyLocked(ctx, account, entities.FaceChannel, status)
	return &FaceVerification{
		Verified:  false,
		Reason:    string(result.Reason),
		Remaining: status.Remaining,
		Warned:    status.State == lockout.Warned,
		Locked:    status.State == lockout.Locked,
	}, nil
}

func matchDetails(result facematch.MatchResult) map[string]any {
	return map[string]any{
		"backend":    result.Backend,
		"fallback":   result.Fallback,
		"similarity": result.Similarity,
		"distance":   result.Distance,
		"score":      result.Score,
		"liveness":   result.Liveness.Value,
	}
}
