// Package token issues and validates the two JWT flavors the API uses:
// session tokens signed with the server secret, and short-lived
// password-bound tokens for verification and password-reset links. A
// password-bound token is signed with the secret concatenated with the
// user's current password hash, so changing the password invalidates every
// outstanding link.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"zilean/internal/models"
)

// Purposes for password-bound tokens.
const (
	PurposeVerify = "verify"
	PurposeReset  = "reset"
)

// SessionTTL is the lifetime of a login session token.
const SessionTTL = 7 * 24 * time.Hour

// passwordBoundTTL is the lifetime of verification and reset links.
const passwordBoundTTL = time.Hour

var ErrInvalid = errors.New("invalid or expired token")

// Session describes a parsed session token.
type Session struct {
	UserID uint
	JTI    string
}

// NewJTI creates a unique token ID used for revocation tracking.
func NewJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

// IssueSession signs a session token for the given user.
func IssueSession(secret string, userID uint, username string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      "zilean-api",
		"aud":      "zilean-client",
		"exp":      now.Add(SessionTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      NewJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSession validates a session token and returns its claims. Every
// failure mode collapses to ErrInvalid.
func ParseSession(secret, tokenString string) (*Session, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalid
	}

	subStr, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalid
	}
	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return nil, ErrInvalid
	}

	jti, _ := claims["jti"].(string)
	return &Session{UserID: uint(userID), JTI: jti}, nil
}

func passwordBoundKey(secret string, user *models.User) []byte {
	return []byte(secret + user.Password)
}

// IssuePasswordBound signs a one-hour token tied to the user's current
// password hash for the given purpose.
func IssuePasswordBound(secret string, user *models.User, purpose string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     strconv.FormatUint(uint64(user.ID), 10),
		"purpose": purpose,
		"iss":     "zilean-api",
		"exp":     now.Add(passwordBoundTTL).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(passwordBoundKey(secret, user))
}

// ValidatePasswordBound checks a password-bound token against the user's
// current password hash and the expected purpose. It fails closed: any parse,
// signature, expiry or claim problem yields ErrInvalid.
func ValidatePasswordBound(secret string, user *models.User, purpose, tokenString string) error {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return passwordBoundKey(secret, user), nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalid
	}
	if p, _ := claims["purpose"].(string); p != purpose {
		return ErrInvalid
	}
	subStr, _ := claims["sub"].(string)
	if subStr != strconv.FormatUint(uint64(user.ID), 10) {
		return ErrInvalid
	}
	return nil
}
