// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Metrics receives operation counts from the Service. Implementations
// must be safe for concurrent use.
type Metrics interface {
	UserRegistered()
	LoginChecked(valid bool)
	SessionCreated()
	SessionDestroyed()
	ResetRequested()
	PasswordReset()
}

// Service provides the authentication operations: registration, login
// validation, session lifecycle, and password reset. It holds no
// cross-call state and may be shared between goroutines.
type Service struct {
	users   UserRepository
	hasher  PasswordHasher
	logger  *slog.Logger
	metrics Metrics
}

// NewService creates a Service with the default logger.
func NewService(users UserRepository, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(users, hasher, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(users UserRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("logger is required")
	}
	return &Service{users: users, hasher: hasher, logger: logger}, nil
}

// Instrument attaches operation counters. A nil value disables
// instrumentation.
func (s *Service) Instrument(m Metrics) { s.metrics = m }

// dummyDigest is verified against when a user doesn't exist, so a login
// for an unknown email takes as long as one for a wrong password.
// This is NOT a real credential - it's a fake digest that will never match any password.
//
//nolint:gosec // G101: intentionally fake digest for timing equalization, not a credential.
const dummyDigest = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates a new account for the email. The pre-check lookup is
// a fast path; the repository's uniqueness guard is authoritative, and
// its conflict also surfaces as ErrEmailTaken.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = CanonicalEmail(email)

	_, err := s.users.FindOneBy(ctx, ByEmail(email))
	switch {
	case err == nil:
		return nil, oops.Code("AUTH_ALREADY_EXISTS").
			With("email", email).
			Wrap(ErrEmailTaken)
	case !errors.Is(err, ErrNotFound):
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := s.users.Insert(ctx, email, digest)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			// Lost the race between the pre-check and the insert.
			return nil, oops.Code("AUTH_ALREADY_EXISTS").
				With("email", email).
				Wrap(ErrEmailTaken)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}

	if s.metrics != nil {
		s.metrics.UserRegistered()
	}
	s.logger.Info("user registered", "user_id", user.ID.String())
	return user, nil
}

// ValidateLogin reports whether the credentials identify an account.
// An unknown email and a wrong password are indistinguishable to the
// caller: both return (false, nil). A dummy digest is still verified for
// unknown emails so response time does not leak account existence.
func (s *Service) ValidateLogin(ctx context.Context, email, password string) (bool, error) {
	user, err := s.users.FindOneBy(ctx, ByEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.hasher.Verify(password, dummyDigest)
			s.recordLogin(false)
			return false, nil
		}
		return false, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	valid := s.hasher.Verify(password, user.HashedPassword)
	s.recordLogin(valid)
	return valid, nil
}

func (s *Service) recordLogin(valid bool) {
	if s.metrics != nil {
		s.metrics.LoginChecked(valid)
	}
}

// CreateSession issues a fresh session token for the account and
// returns it. Any prior session is silently invalidated: one active
// session per user. An unknown email yields an empty token and no
// error.
func (s *Service) CreateSession(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindOneBy(ctx, ByEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	token, err := GenerateToken()
	if err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	user.SessionID = &token
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Account vanished between lookup and update.
			return "", nil
		}
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	if s.metrics != nil {
		s.metrics.SessionCreated()
	}
	s.logger.Debug("session created", "user_id", user.ID.String())
	return token, nil
}

// UserBySession returns the user holding the session token, or nil if
// the token is empty or matches no account. Absence is a normal result,
// not an error; callers use it to distinguish authenticated from not.
func (s *Service) UserBySession(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	user, err := s.users.FindOneBy(ctx, BySessionID(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("SESSION_LOOKUP_FAILED").
			With("operation", "find user by session").
			Wrap(err)
	}
	return user, nil
}

// DestroySession clears the user's active session. Destroying an
// absent session, or the session of an unknown user, is a no-op.
func (s *Service) DestroySession(ctx context.Context, id ulid.ULID) error {
	user, err := s.users.FindOneBy(ctx, ByID(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("SESSION_DESTROY_FAILED").
			With("operation", "find user by id").
			Wrap(err)
	}

	user.SessionID = nil
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("SESSION_DESTROY_FAILED").
			With("operation", "persist session removal").
			Wrap(err)
	}

	if s.metrics != nil {
		s.metrics.SessionDestroyed()
	}
	s.logger.Debug("session destroyed", "user_id", id.String())
	return nil
}

// RequestPasswordReset issues a reset token for the account and returns
// it. Delivery (e.g. email) is the caller's job. Only the most recent
// token is valid: a re-request overwrites any outstanding one. Unlike
// the session operations, an unknown email here is a caller-visible
// failure.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindOneBy(ctx, ByEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("RESET_UNKNOWN_EMAIL").
				With("email", CanonicalEmail(email)).
				Wrap(ErrNotFound)
		}
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	token, err := GenerateToken()
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	user.ResetToken = &token
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("RESET_UNKNOWN_EMAIL").
				With("email", user.Email).
				Wrap(ErrNotFound)
		}
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "persist reset token").
			Wrap(err)
	}

	if s.metrics != nil {
		s.metrics.ResetRequested()
	}
	s.logger.Info("password reset requested", "user_id", user.ID.String())
	return token, nil
}

// ResetPassword consumes a reset token and replaces the account's
// password digest. The token is single-use: it is cleared on success,
// and presenting it again fails with ErrInvalidToken. The active
// session, if any, is also cleared, so a reset logs out whoever holds
// the old session token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return oops.Code("RESET_TOKEN_INVALID").Wrap(ErrInvalidToken)
	}

	user, err := s.users.FindOneBy(ctx, ByResetToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("RESET_TOKEN_INVALID").Wrap(ErrInvalidToken)
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "find user by reset token").
			Wrap(err)
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	user.HashedPassword = digest
	user.ResetToken = nil
	user.SessionID = nil
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("RESET_TOKEN_INVALID").Wrap(ErrInvalidToken)
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "persist new password").
			Wrap(err)
	}

	if s.metrics != nil {
		s.metrics.PasswordReset()
	}
	s.logger.Info("password reset", "user_id", user.ID.String())
	return nil
}
