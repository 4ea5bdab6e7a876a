// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidSession  = errors.New("invalid or expired session")
)

// DefaultSessionTTL is used when IssueSession is called with ttl <= 0.
const DefaultSessionTTL = 24 * time.Hour

// SessionClaims is the payload of a logged-in session token.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}

// VoterIdentity is the ledger key for an anonymous voter. An empty ip
// still yields a stable identity so that such requests collapse together.
func VoterIdentity(ip, salt string) string {
	return "ip:" + HashIP(ip, salt)
}

// ValidateAdminKey compares in constant time. An empty expected key
// disables admin access entirely.
func ValidateAdminKey(given, expected string) error {
	if expected == "" || given == "" {
		return ErrInvalidAdminKey
	}
	if !hmac.Equal([]byte(given), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// IssueSession signs an HS256 session token for subject.
func IssueSession(subject, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("session secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// ParseSession verifies a token issued by IssueSession.
func ParseSession(tokenString, secret string) (*SessionClaims, error) {
	if tokenString == "" || secret == "" {
		return nil, ErrInvalidSession
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(tokenString, &SessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
