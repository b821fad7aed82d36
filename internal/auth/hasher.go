// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	defaultArgon2Time    = 1         // iterations
	defaultArgon2Memory  = 64 * 1024 // 64 MB
	defaultArgon2Threads = 4         // parallelism
	argon2SaltLen        = 16        // salt length in bytes
	argon2KeyLen         = 32        // output length in bytes

	// maxVerifyMemory caps the memory cost accepted from a stored
	// digest during verification (1 GiB in KiB units).
	maxVerifyMemory = 1 << 20
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// HashParams tunes the argon2id cost. The zero value of any field falls
// back to the default.
type HashParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

func (p HashParams) withDefaults() HashParams {
	if p.Time == 0 {
		p.Time = defaultArgon2Time
	}
	if p.Memory == 0 {
		p.Memory = defaultArgon2Memory
	}
	if p.Threads == 0 {
		p.Threads = defaultArgon2Threads
	}
	return p
}

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way digest of the password. Each call
	// uses a fresh random salt, so two digests of the same password
	// differ. Fails only on empty input or entropy-source failure.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the digest. A
	// malformed digest is an ordinary mismatch, never an error.
	Verify(password, digest string) bool
}

// Argon2idHasher implements PasswordHasher using argon2id with
// PHC-encoded digests.
type Argon2idHasher struct {
	params HashParams
}

// NewArgon2idHasher creates an Argon2idHasher with default parameters.
func NewArgon2idHasher() *Argon2idHasher {
	return NewArgon2idHasherWithParams(HashParams{})
}

// NewArgon2idHasherWithParams creates an Argon2idHasher with the given
// cost parameters, applying defaults for zero fields.
func NewArgon2idHasherWithParams(params HashParams) *Argon2idHasher {
	return &Argon2idHasher{params: params.withDefaults()}
}

// Hash produces an argon2id digest of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, argon2KeyLen)

	// PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify reports whether the password matches the PHC-encoded digest.
// The salt and cost parameters embedded in the digest are used for
// recomputation; comparison is constant time.
func (h *Argon2idHasher) Verify(password, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}
	// argon2.IDKey panics on zero rounds, and an attacker-supplied
	// memory cost would be allocated before hashing. Treat digests with
	// costs outside sane bounds as malformed.
	if time == 0 || threads == 0 || threads > 255 {
		return false
	}
	if memory > maxVerifyMemory {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	keyLen := len(expected)
	if keyLen == 0 || keyLen > 1<<10 {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// Compile-time interface check.
var _ PasswordHasher = (*Argon2idHasher)(nil)
