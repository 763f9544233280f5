// Package signing mints and verifies HMAC session tokens of the form
// <user_id>.<expires_unix>.<hex signature>.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken is returned for malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrExpired is returned for correctly signed tokens past their expiry.
	ErrExpired = errors.New("session token expired")
)

// Signer generates and validates HMAC based session tokens.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the hex signature for a user id and expiry.
func (s *Signer) Sign(userID, expiresUnix int64) string {
	mac := hmac.New(sha256.New, s.secret)
	payload := fmt.Sprintf("%d:%d", userID, expiresUnix)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Token mints a token for userID valid for ttl from now.
func (s *Signer) Token(userID int64, ttl time.Duration, now time.Time) string {
	exp := now.Add(ttl).Unix()
	return fmt.Sprintf("%d.%d.%s", userID, exp, s.Sign(userID, exp))
}

// Verify checks the token and returns the user id it carries.
func (s *Signer) Verify(token string, now time.Time) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	expected := s.Sign(userID, exp)
	// constant time
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return 0, ErrInvalidToken
	}
	if !now.Before(time.Unix(exp, 0)) {
		return 0, ErrExpired
	}
	return userID, nil
}
