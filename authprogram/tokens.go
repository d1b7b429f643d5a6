package authprogram

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/andrebq/taskbox/internal/apierr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type (
	Reason string

	// VerifyError tells why a token was rejected. It unwraps to an
	// apierr.AuthenticationError so every reason ends up as the same 401.
	VerifyError struct {
		Reason Reason
		cause  error
	}

	Claims struct {
		UserID    int64  `json:"id"`
		CSRFToken string `json:"csrfToken"`
		jwt.RegisteredClaims
	}

	// Session is what a client receives after register or logon.
	Session struct {
		Token     string
		CSRFToken string
		ID        string
		ExpiresAt time.Time
	}

	Tokens struct {
		secret  Secret
		ttl     time.Duration
		revoked TokenStore
		now     func() time.Time
	}
)

const (
	NoToken          = Reason("no token")
	SignatureInvalid = Reason("signature invalid")
	Expired          = Reason("expired")
	Revoked          = Reason("revoked")
	CSRFMismatch     = Reason("csrf mismatch")

	csrfTokenLen = 32
)

func (v VerifyError) Error() string {
	if v.cause != nil {
		return fmt.Sprintf("session token rejected: %v, cause %v", v.Reason, v.cause)
	}
	return fmt.Sprintf("session token rejected: %v", v.Reason)
}

func (v VerifyError) Unwrap() error {
	return apierr.AuthenticationError{Reason: string(v.Reason)}
}

// NewTokens returns an issuer/verifier pair bound to secret. revoked may
// be nil, in which case logoff only relies on cookie expiry.
func NewTokens(secret Secret, ttl time.Duration, revoked TokenStore) (*Tokens, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("authprogram: secret must have at least %v bytes", MinSecretLen)
	}
	return &Tokens{
		secret:  secret,
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}, nil
}

// Issue mints a session for userID with a fresh anti-forgery value.
func (t *Tokens) Issue(userID int64) (*Session, error) {
	return t.issue(userID, t.ttl)
}

// Expired mints a token that every verifier rejects as expired, used to
// overwrite the cookie on logoff.
func (t *Tokens) Expired() (*Session, error) {
	return t.issue(0, -time.Hour)
}

func (t *Tokens) issue(userID int64, ttl time.Duration) (*Session, error) {
	csrf, err := newCSRFToken()
	if err != nil {
		return nil, err
	}
	now := t.now()
	s := &Session{
		CSRFToken: csrf,
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(ttl),
	}
	claims := Claims{
		UserID:    userID,
		CSRFToken: csrf,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	s.Token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.secret))
	if err != nil {
		return nil, fmt.Errorf("authprogram: unable to sign token, cause %w", err)
	}
	return s, nil
}

// Parse checks signature, expiry and revocation of token.
func (t *Tokens) Parse(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, VerifyError{Reason: NoToken}
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(t.secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now))
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, VerifyError{Reason: Expired, cause: err}
	default:
		return nil, VerifyError{Reason: SignatureInvalid, cause: err}
	}
	if t.revoked != nil && claims.ID != "" {
		revoked, err := t.revoked.Revoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("authprogram: unable to check revocation list, cause %w", err)
		} else if revoked {
			return nil, VerifyError{Reason: Revoked}
		}
	}
	return claims, nil
}

// Verify runs Parse and, when checkCSRF is set, compares csrfHeader with the
// value embedded in the token.
func (t *Tokens) Verify(ctx context.Context, token, csrfHeader string, checkCSRF bool) (Identity, error) {
	claims, err := t.Parse(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	if checkCSRF {
		if csrfHeader == "" || subtle.ConstantTimeCompare([]byte(csrfHeader), []byte(claims.CSRFToken)) != 1 {
			return Identity{}, VerifyError{Reason: CSRFMismatch}
		}
	}
	return Identity{ID: claims.UserID}, nil
}

// Revoke adds the token id from claims to the revocation list.
func (t *Tokens) Revoke(ctx context.Context, claims *Claims) error {
	if t.revoked == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return t.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func newCSRFToken() (string, error) {
	var buf [csrfTokenLen]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("authprogram: unable to generate csrf token, cause %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}
