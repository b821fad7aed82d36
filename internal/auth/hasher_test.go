// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userward/userward/internal/auth"
)

// fastParams keeps argon2id cheap in tests.
var fastParams = auth.HashParams{Time: 1, Memory: 1024, Threads: 1}

func TestHashPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasherWithParams(fastParams)

	t.Run("produces PHC-encoded digest", func(t *testing.T) {
		digest, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(digest, "$argon2id$"))
	})

	t.Run("different passwords produce different digests", func(t *testing.T) {
		d1, err := hasher.Hash("password1")
		require.NoError(t, err)
		d2, err := hasher.Hash("password2")
		require.NoError(t, err)
		assert.NotEqual(t, d1, d2)
	})

	t.Run("same password produces different digests (salt freshness)", func(t *testing.T) {
		d1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		d2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, d1, d2)

		// Both still verify.
		assert.True(t, hasher.Verify("samepassword", d1))
		assert.True(t, hasher.Verify("samepassword", d2))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.Error(t, err)
	})

	t.Run("zero params fall back to defaults", func(t *testing.T) {
		defaulted := auth.NewArgon2idHasherWithParams(auth.HashParams{})
		digest, err := defaulted.Hash("password")
		require.NoError(t, err)
		assert.Contains(t, digest, "m=65536,t=1,p=4")
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasherWithParams(fastParams)

	t.Run("correct password verifies", func(t *testing.T) {
		digest, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("correctpassword", digest))
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		digest, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		assert.False(t, hasher.Verify("wrongpassword", digest))
	})

	t.Run("digest from other cost params still verifies", func(t *testing.T) {
		other := auth.NewArgon2idHasherWithParams(auth.HashParams{Time: 2, Memory: 2048, Threads: 2})
		digest, err := other.Hash("portable")
		require.NoError(t, err)
		// The embedded params drive recomputation, not the hasher's own.
		assert.True(t, hasher.Verify("portable", digest))
	})

	// Malformed digests are a mismatch, never a panic or an error.
	t.Run("malformed digests fail closed", func(t *testing.T) {
		malformed := []string{
			"",
			"not-a-valid-digest",
			"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",      // wrong algorithm
			"$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA",      // bad version
			"$argon2id$v=19$invalid$c2FsdA$aGFzaA",             // bad params
			"$argon2id$v=19$m=65536,t=1,p=4$!!!bad!!!$aGFzaA",  // bad salt base64
			"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!bad!!!",  // bad hash base64
			"$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA",   // threads overflow
			"$argon2id$v=19$m=65536,t=1,p=0$c2FsdA$aGFzaA",     // zero threads
			"$argon2id$v=19$m=1024,t=0,p=1$c2FsdA$aGFzaA",      // zero rounds
			"$argon2id$v=19$m=2097152,t=1,p=1$c2FsdA$aGFzaA",   // absurd memory cost
			"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$",           // empty hash
			"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA$x$y", // too many parts
		}
		for _, digest := range malformed {
			assert.False(t, hasher.Verify("password", digest), "digest %q should not verify", digest)
		}
	})
}
