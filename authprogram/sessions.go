package authprogram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andrebq/taskbox/internal/apierr"
	"github.com/andrebq/taskbox/internal/logutil"
	"github.com/andrebq/taskbox/internal/metrics"
	"github.com/andrebq/taskbox/internal/validation"
	"github.com/andrebq/taskbox/store"
)

type (
	// Users is the part of the store the session flow needs.
	Users interface {
		CreateUser(ctx context.Context, u *store.User) error
		UserByEmail(ctx context.Context, email string) (*store.User, error)
	}

	RegisterInput struct {
		Name     string `json:"name" validate:"required,min=3,max=30"`
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,password"`
	}

	LogonInput struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	// Profile is the sanitized view of a user returned after register or
	// logon. It never carries the password or its hash.
	Profile struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		CSRFToken string `json:"csrfToken"`
	}

	Sessions struct {
		users  Users
		hasher *Hasher
		tokens *Tokens
	}
)

func NewSessions(users Users, hasher *Hasher, tokens *Tokens) *Sessions {
	return &Sessions{users: users, hasher: hasher, tokens: tokens}
}

func (s *Sessions) Tokens() *Tokens {
	return s.tokens
}

// Register creates the account and opens a session for it. Uniqueness of
// the email is decided by the store.
func (s *Sessions) Register(ctx context.Context, in RegisterInput) (*Profile, *Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = store.NormalizeEmail(in.Email)
	if err := validation.Struct(&in); err != nil {
		metrics.SessionOperations.WithLabelValues("register", "rejected").Inc()
		return nil, nil, err
	}
	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		metrics.SessionOperations.WithLabelValues("register", "error").Inc()
		return nil, nil, err
	}
	user := &store.User{Name: in.Name, Email: in.Email, PasswordHash: hash}
	err = s.users.CreateUser(ctx, user)
	var dup store.DuplicateEmail
	if errors.As(err, &dup) {
		metrics.SessionOperations.WithLabelValues("register", "rejected").Inc()
		return nil, nil, apierr.ConflictError{Message: "That email is already registered"}
	} else if err != nil {
		metrics.SessionOperations.WithLabelValues("register", "error").Inc()
		return nil, nil, err
	}
	return s.open(ctx, "register", user)
}

// Logon authenticates the user. An unknown email and a wrong password
// produce the same error, and both spend one key derivation.
func (s *Sessions) Logon(ctx context.Context, in LogonInput) (*Profile, *Session, error) {
	if err := validation.Struct(&in); err != nil {
		metrics.SessionOperations.WithLabelValues("logon", "rejected").Inc()
		return nil, nil, err
	}
	user, err := s.users.UserByEmail(ctx, in.Email)
	var notFound store.UserNotFound
	if errors.As(err, &notFound) {
		if err := s.hasher.Burn(ctx, in.Password); err != nil {
			return nil, nil, err
		}
		metrics.SessionOperations.WithLabelValues("logon", "rejected").Inc()
		return nil, nil, apierr.AuthenticationError{Reason: "unknown email"}
	} else if err != nil {
		metrics.SessionOperations.WithLabelValues("logon", "error").Inc()
		return nil, nil, err
	}
	ok, err := s.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		metrics.SessionOperations.WithLabelValues("logon", "error").Inc()
		return nil, nil, err
	} else if !ok {
		metrics.SessionOperations.WithLabelValues("logon", "rejected").Inc()
		return nil, nil, apierr.AuthenticationError{Reason: "password mismatch"}
	}
	return s.open(ctx, "logon", user)
}

// Logoff never fails because of the presented token: a missing or invalid
// token still gets the expired replacement. A token that is still valid
// is revoked until its own expiry.
func (s *Sessions) Logoff(ctx context.Context, presented string) (*Session, error) {
	if presented != "" {
		claims, err := s.tokens.Parse(ctx, presented)
		if err == nil {
			if err := s.tokens.Revoke(ctx, claims); err != nil {
				log := logutil.GetOrDefault(ctx)
				log.Warn().Err(err).Msg("Unable to revoke session token")
			}
		}
	}
	expired, err := s.tokens.Expired()
	if err != nil {
		metrics.SessionOperations.WithLabelValues("logoff", "error").Inc()
		return nil, err
	}
	metrics.SessionOperations.WithLabelValues("logoff", "success").Inc()
	return expired, nil
}

func (s *Sessions) open(ctx context.Context, op string, user *store.User) (*Profile, *Session, error) {
	session, err := s.tokens.Issue(user.ID)
	if err != nil {
		metrics.SessionOperations.WithLabelValues(op, "error").Inc()
		return nil, nil, fmt.Errorf("unable to open session for user %v, cause %w", user.ID, err)
	}
	metrics.SessionOperations.WithLabelValues(op, "success").Inc()
	return &Profile{Name: user.Name, Email: user.Email, CSRFToken: session.CSRFToken}, session, nil
}
