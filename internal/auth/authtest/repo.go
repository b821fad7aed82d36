// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

// Package authtest provides test doubles for the authentication core.
package authtest

import (
	"context"
	"sync"

	"github.com/userward/userward/internal/auth"
)

// Repo is an in-memory auth.UserRepository. It enforces the same
// contract as the PostgreSQL implementation: email uniqueness on
// insert, ErrNotFound on zero matches, ErrAmbiguousLookup when a lookup
// matches more than one record. Safe for concurrent use.
type Repo struct {
	mu    sync.Mutex
	users map[string]*auth.User // keyed by user id

	// Err, when set, is returned by every operation. Lets tests
	// exercise infrastructure failure paths.
	Err error
}

// NewRepo creates an empty in-memory repository.
func NewRepo() *Repo {
	return &Repo{users: make(map[string]*auth.User)}
}

// Insert stores a new user, rejecting duplicate emails.
func (r *Repo) Insert(_ context.Context, email, hashedPassword string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	for _, u := range r.users {
		if u.Email == auth.CanonicalEmail(email) {
			return nil, auth.ErrEmailTaken
		}
	}

	user, err := auth.NewUser(email, hashedPassword)
	if err != nil {
		return nil, err
	}
	r.users[user.ID.String()] = copyUser(user)
	return user, nil
}

// FindOneBy retrieves the single user matching the lookup.
func (r *Repo) FindOneBy(_ context.Context, lookup auth.Lookup) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	var found *auth.User
	for _, u := range r.users {
		if !matches(u, lookup) {
			continue
		}
		if found != nil {
			return nil, auth.ErrAmbiguousLookup
		}
		found = u
	}
	if found == nil {
		return nil, auth.ErrNotFound
	}
	return copyUser(found), nil
}

// Update persists the mutable fields of an already-retrieved user.
func (r *Repo) Update(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	if _, ok := r.users[user.ID.String()]; !ok {
		return auth.ErrNotFound
	}
	r.users[user.ID.String()] = copyUser(user)
	return nil
}

// Delete removes a user. Not part of the auth.UserRepository contract;
// tests use it to simulate records vanishing between a lookup and an
// update.
func (r *Repo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// Len returns the number of stored users.
func (r *Repo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func matches(u *auth.User, lookup auth.Lookup) bool {
	switch lookup.Field() {
	case auth.FieldID:
		return u.ID.String() == lookup.Value()
	case auth.FieldEmail:
		return u.Email == lookup.Value()
	case auth.FieldSessionID:
		return u.SessionID != nil && *u.SessionID == lookup.Value()
	case auth.FieldResetToken:
		return u.ResetToken != nil && *u.ResetToken == lookup.Value()
	default:
		return false
	}
}

// copyUser returns a deep copy so callers cannot mutate stored state.
func copyUser(u *auth.User) *auth.User {
	c := *u
	if u.SessionID != nil {
		s := *u.SessionID
		c.SessionID = &s
	}
	if u.ResetToken != nil {
		s := *u.ResetToken
		c.ResetToken = &s
	}
	return &c
}

// Compile-time interface check.
var _ auth.UserRepository = (*Repo)(nil)
