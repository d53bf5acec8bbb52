package auth

import (
	"errors"
	"fmt"
	"time"

	"facegate.io/infrastructure/logger"
	"github.com/golang-jwt/jwt/v4"
)

type TokenService struct {
	signingKey []byte
	issuer     string
	pendingTTL time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

func NewTokenService(signingKey string, issuer string, pendingTTL time.Duration, sessionTTL time.Duration) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		pendingTTL: pendingTTL,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (ts *TokenService) ttl(intent string) time.Duration {
	if intent == IntentSession {
		return ts.sessionTTL
	}
	return ts.pendingTTL
}

// GenerateAuthToken signs claimsData. IssuedAt and ExpiresAt are filled from
// the intent when left empty.
func (ts *TokenService) GenerateAuthToken(claimsData ClaimsData) (*string, *time.Time, error) {
	now := ts.now()
	if claimsData.IssuedAt == 0 {
		claimsData.IssuedAt = now.Unix()
	}
	if claimsData.ExpiresAt == 0 {
		claimsData.ExpiresAt = now.Add(ts.ttl(claimsData.Intent)).Unix()
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":       ts.issuer,
		"sub":       claimsData.AccountID,
		"username":  claimsData.Username,
		"role":      claimsData.Role,
		"intent":    claimsData.Intent,
		"exp":       claimsData.ExpiresAt,
		"iat":       claimsData.IssuedAt,
		"deviceID":  claimsData.DeviceID,
		"userAgent": claimsData.UserAgent,
	}).SignedString(ts.signingKey)
	if err != nil {
		return nil, nil, err
	}
	expiresAt := time.Unix(claimsData.ExpiresAt, 0)
	return &tokenString, &expiresAt, nil
}

func (ts *TokenService) DecodeAuthToken(tokenString string) (*ClaimsData, error) {
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return ts.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, ErrInvalidSigning
		}
		logger.Info("error decoding jwt", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if iss, _ := claims["iss"].(string); iss != ts.issuer {
		return nil, ErrInvalidToken
	}
	data := &ClaimsData{
		Issuer:    ts.issuer,
		AccountID: stringClaim(claims, "sub"),
		Username:  stringClaim(claims, "username"),
		Role:      stringClaim(claims, "role"),
		Intent:    stringClaim(claims, "intent"),
		DeviceID:  stringClaim(claims, "deviceID"),
		UserAgent: stringClaim(claims, "userAgent"),
	}
	if exp, ok := claims["exp"].(float64); ok {
		data.ExpiresAt = int64(exp)
	}
	if iat, ok := claims["iat"].(float64); ok {
		data.IssuedAt = int64(iat)
	}
	if data.AccountID == "" {
		return nil, ErrInvalidToken
	}
	return data, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	value, _ := claims[key].(string)
	return value
}
