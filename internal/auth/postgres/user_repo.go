// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

// Package postgres implements the auth repository contract over
// PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/userward/userward/internal/auth"
)

// DB is the subset of pgxpool.Pool the repository uses. pgxmock
// satisfies it in unit tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements auth.UserRepository using PostgreSQL. The
// users table carries a unique constraint on email; that constraint,
// not the service's pre-check, is the authoritative guard against
// concurrent registration.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, hashed_password, session_id, reset_token, created_at, updated_at`

// Insert stores a new user with the given email and password digest.
func (r *UserRepository) Insert(ctx context.Context, email, hashedPassword string) (*auth.User, error) {
	user, err := auth.NewUser(email, hashedPassword)
	if err != nil {
		return nil, err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO users (id, email, hashed_password, session_id, reset_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID.String(),
		user.Email,
		user.HashedPassword,
		user.SessionID,
		user.ResetToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("USER_EMAIL_TAKEN").
				With("email", user.Email).
				Wrap(auth.ErrEmailTaken)
		}
		return nil, oops.Code("USER_INSERT_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return user, nil
}

// FindOneBy retrieves the single user matching the lookup. A query that
// matches more than one row reports ErrAmbiguousLookup rather than
// silently returning the first.
func (r *UserRepository) FindOneBy(ctx context.Context, lookup auth.Lookup) (*auth.User, error) {
	column, err := lookupColumn(lookup)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE `+column+` = $1
		LIMIT 2
	`, lookup.Value())
	if err != nil {
		return nil, oops.Code("USER_LOOKUP_FAILED").
			With("operation", "query users").
			With("field", lookup.Field()).
			Wrap(err)
	}
	defer rows.Close()

	var user *auth.User
	for rows.Next() {
		if user != nil {
			return nil, oops.Code("USER_LOOKUP_AMBIGUOUS").
				With("field", lookup.Field()).
				Wrap(auth.ErrAmbiguousLookup)
		}
		user, err = scanUser(rows)
		if err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LOOKUP_FAILED").
			With("operation", "iterate users").
			With("field", lookup.Field()).
			Wrap(err)
	}
	if user == nil {
		return nil, oops.Code("USER_NOT_FOUND").
			With("field", lookup.Field()).
			Wrap(auth.ErrNotFound)
	}
	return user, nil
}

// Update persists the mutable fields of an already-retrieved user.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users SET
			email = $2,
			hashed_password = $3,
			session_id = $4,
			reset_token = $5,
			updated_at = $6
		WHERE id = $1
	`,
		user.ID.String(),
		user.Email,
		user.HashedPassword,
		user.SessionID,
		user.ResetToken,
		user.UpdatedAt,
	)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", user.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// lookupColumn maps a lookup field to its column. The set is closed; an
// unknown field means a Lookup was built outside its constructors.
func lookupColumn(lookup auth.Lookup) (string, error) {
	switch lookup.Field() {
	case auth.FieldID, auth.FieldEmail, auth.FieldSessionID, auth.FieldResetToken:
		return lookup.Field(), nil
	default:
		return "", oops.Code("USER_LOOKUP_INVALID").
			With("field", lookup.Field()).
			Errorf("unsupported lookup field")
	}
}

// scanUser scans the current row into a User.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr          string
		email          string
		hashedPassword string
		sessionID      *string
		resetToken     *string
		createdAt      time.Time
		updatedAt      time.Time
	)

	if err := row.Scan(&idStr, &email, &hashedPassword, &sessionID, &resetToken, &createdAt, &updatedAt); err != nil {
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.User{
		ID:             id,
		Email:          email,
		HashedPassword: hashedPassword,
		SessionID:      sessionID,
		ResetToken:     resetToken,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
