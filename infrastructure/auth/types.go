package auth

import "errors"

const (
	// password checked, face (or backup code) still outstanding
	IntentFacePending = "face_pending"
	// both factors passed
	IntentSession = "session"
)

var (
	ErrInvalidToken   = errors.New("invalid token used")
	ErrInvalidSigning = errors.New("invalid token signature used")
)

type ClaimsData struct {
	Issuer    string
	AccountID string
	Username  string
	Role      string
	Intent    string
	ExpiresAt int64
	IssuedAt  int64
	UserAgent string
	DeviceID  string
}
