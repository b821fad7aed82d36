// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

package auth

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/samber/oops"
)

// TokenBytes is the entropy of a session or reset token. 32 bytes of
// randomness hex-encode to 64 characters, well above the 128-bit
// collision floor the service requires.
const TokenBytes = 32

// GenerateToken returns a freshly generated opaque token. The output is
// hex-encoded and therefore URL-safe. It fails only if the entropy
// source fails, which callers should treat as unrecoverable.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}
