// Package token issues and verifies the signed, time-boxed tokens that
// drive account actions (confirmation, password reset, email change)
// and API access. Tokens are never persisted; verification is a pure
// function of the token string and the process-wide secret.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind names the account action a token authorizes.
type Kind string

const (
	KindConfirm     Kind = "confirm"
	KindReset       Kind = "reset"
	KindChangeEmail Kind = "change-email"
	KindAPI         Kind = "api"
)

// ErrInvalid is the single externally visible verification failure.
// Tampered signatures, malformed payloads, expired tokens, wrong kinds,
// and account mismatches all collapse into it.
var ErrInvalid = errors.New("invalid or expired token")

// Payload is the decoded content of a verified token.
type Payload struct {
	Kind   Kind
	UserID int
	// Extra carries the optional action parameter, e.g. the new email
	// address of a change-email token.
	Extra string
}

type claims struct {
	Kind   Kind   `json:"kind"`
	UserID int    `json:"uid"`
	Extra  string `json:"extra,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a process-wide secret.
type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue encodes {kind, userID, extra} into a signed compact token valid
// for ttl from now.
func (i *Issuer) Issue(userID int, kind Kind, extra string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Kind:   kind,
		UserID: userID,
		Extra:  extra,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString(i.secret)
}

// Verify decodes the token and checks signature, expiration, and kind.
// When expectedUserID is non-zero the payload must name that account.
// Every failure is reported as ErrInvalid, with the underlying cause
// wrapped for internal inspection.
func (i *Issuer) Verify(tokenString string, kind Kind, expectedUserID int) (Payload, error) {
	var c claims
	t, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !t.Valid {
		return Payload{}, ErrInvalid
	}
	if c.Kind != kind {
		return Payload{}, fmt.Errorf("%w: kind mismatch", ErrInvalid)
	}
	if c.UserID < 1 {
		return Payload{}, fmt.Errorf("%w: missing subject", ErrInvalid)
	}
	if expectedUserID != 0 && c.UserID != expectedUserID {
		return Payload{}, fmt.Errorf("%w: account mismatch", ErrInvalid)
	}
	return Payload{Kind: c.Kind, UserID: c.UserID, Extra: c.Extra}, nil
}
