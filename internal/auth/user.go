// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxEmailLength caps stored email addresses.
const MaxEmailLength = 254

// User represents a user account. SessionID and ResetToken are nil when
// no session is active and no reset is pending.
type User struct {
	ID             ulid.ULID
	Email          string
	HashedPassword string
	SessionID      *string
	ResetToken     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUser creates a validated User with a fresh ULID and no active
// session or pending reset. The email is canonicalized before storage.
func NewUser(email, hashedPassword string) (*User, error) {
	email = CanonicalEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if hashedPassword == "" {
		return nil, oops.Code("USER_EMPTY_DIGEST").Errorf("password digest cannot be empty")
	}

	now := time.Now().UTC()
	return &User{
		ID:             ulid.Make(),
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanonicalEmail normalizes an email address for storage and lookups.
// Uniqueness is enforced on the canonical form.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the basic shape of an email address. Userward is
// not a mail validator; this only rejects values that cannot possibly
// deliver.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("USER_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return oops.Code("USER_INVALID_EMAIL").Errorf("email must have a local part and a domain")
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return oops.Code("USER_INVALID_EMAIL").Errorf("email cannot contain whitespace")
	}
	return nil
}

// Lookup field names. These are the only fields a user can be looked up
// by; the closed set keeps the store contract type-safe.
const (
	FieldID         = "id"
	FieldEmail      = "email"
	FieldSessionID  = "session_id"
	FieldResetToken = "reset_token"
)

// Lookup selects a single user by exact match on one indexable field.
// Construct it with ByID, ByEmail, BySessionID, or ByResetToken.
type Lookup struct {
	field string
	value string
}

// ByID matches on the user id.
func ByID(id ulid.ULID) Lookup {
	return Lookup{field: FieldID, value: id.String()}
}

// ByEmail matches on the canonical email.
func ByEmail(email string) Lookup {
	return Lookup{field: FieldEmail, value: CanonicalEmail(email)}
}

// BySessionID matches on the active session token.
func BySessionID(token string) Lookup {
	return Lookup{field: FieldSessionID, value: token}
}

// ByResetToken matches on the pending reset token.
func ByResetToken(token string) Lookup {
	return Lookup{field: FieldResetToken, value: token}
}

// Field returns the matched field name, one of the Field* constants.
func (l Lookup) Field() string { return l.field }

// Value returns the value to match.
func (l Lookup) Value() string { return l.value }

// UserRepository is the persistence contract the authentication core
// requires. Implementations must provide per-record atomicity for
// read-then-write sequences and enforce email uniqueness as the
// authoritative guard against registration races.
type UserRepository interface {
	// Insert stores a new user with the given canonical email and
	// password digest and returns the created record. Returns
	// ErrEmailTaken if the email is already on file.
	Insert(ctx context.Context, email, hashedPassword string) (*User, error)

	// FindOneBy retrieves the single user matching the lookup. Returns
	// ErrNotFound on zero matches and ErrAmbiguousLookup if more than
	// one record matches; it never silently returns the first.
	FindOneBy(ctx context.Context, lookup Lookup) (*User, error)

	// Update persists the mutable fields of an already-retrieved user.
	// Returns ErrNotFound if the record no longer exists.
	Update(ctx context.Context, user *User) error
}
