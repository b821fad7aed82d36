// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

// Package auth implements the Userward authentication core.
//
// # Domain Types
//
// User is the sole entity. Create it with NewUser, which validates the
// email and password digest and assigns a ULID. Direct struct
// initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated values from the
// constructor.
//
// # Services
//
// Service orchestrates registration, login validation, session
// issuance/destruction, and the password reset flow over a
// UserRepository. It holds no state beyond its collaborators and is safe
// for concurrent use; record-level consistency is the repository's
// responsibility.
//
// # Collaborators
//
// UserRepository is the persistence contract (insert, lookup by a closed
// set of fields, update). PasswordHasher owns digest creation and
// constant-time verification. GenerateToken produces the opaque session
// and reset tokens.
package auth
