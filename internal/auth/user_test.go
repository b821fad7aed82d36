// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userward/userward/internal/auth"
	"github.com/userward/userward/pkg/errutil"
)

func TestNewUser(t *testing.T) {
	t.Run("creates user with fresh id and no session or reset", func(t *testing.T) {
		user, err := auth.NewUser("a@x.com", "digest")
		require.NoError(t, err)
		assert.NotEqual(t, ulid.ULID{}, user.ID)
		assert.Equal(t, "a@x.com", user.Email)
		assert.Equal(t, "digest", user.HashedPassword)
		assert.Nil(t, user.SessionID)
		assert.Nil(t, user.ResetToken)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("canonicalizes email", func(t *testing.T) {
		user, err := auth.NewUser("  Alice@Example.COM ", "digest")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
	})

	t.Run("rejects empty digest", func(t *testing.T) {
		_, err := auth.NewUser("a@x.com", "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "USER_EMPTY_DIGEST")
	})

	t.Run("assigns distinct ids", func(t *testing.T) {
		u1, err := auth.NewUser("a@x.com", "digest")
		require.NoError(t, err)
		u2, err := auth.NewUser("b@x.com", "digest")
		require.NoError(t, err)
		assert.NotEqual(t, u1.ID, u2.ID)
	})
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "plain address", email: "a@x.com", wantErr: false},
		{name: "subdomain", email: "user@mail.example.org", wantErr: false},
		{name: "empty", email: "", wantErr: true},
		{name: "no at sign", email: "ax.com", wantErr: true},
		{name: "missing local part", email: "@x.com", wantErr: true},
		{name: "missing domain", email: "a@", wantErr: true},
		{name: "two at signs", email: "a@b@x.com", wantErr: true},
		{name: "interior whitespace", email: "a b@x.com", wantErr: true},
		{name: "too long", email: strings.Repeat("a", 250) + "@x.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "USER_INVALID_EMAIL")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	t.Run("ByID", func(t *testing.T) {
		id := ulid.Make()
		l := auth.ByID(id)
		assert.Equal(t, auth.FieldID, l.Field())
		assert.Equal(t, id.String(), l.Value())
	})

	t.Run("ByEmail canonicalizes", func(t *testing.T) {
		l := auth.ByEmail(" A@X.Com ")
		assert.Equal(t, auth.FieldEmail, l.Field())
		assert.Equal(t, "a@x.com", l.Value())
	})

	t.Run("BySessionID keeps token verbatim", func(t *testing.T) {
		l := auth.BySessionID("Tok123")
		assert.Equal(t, auth.FieldSessionID, l.Field())
		assert.Equal(t, "Tok123", l.Value())
	})

	t.Run("ByResetToken keeps token verbatim", func(t *testing.T) {
		l := auth.ByResetToken("Tok456")
		assert.Equal(t, auth.FieldResetToken, l.Field())
		assert.Equal(t, "Tok456", l.Value())
	})
}
