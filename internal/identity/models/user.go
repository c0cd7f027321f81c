package models

import (
	"strings"
	"time"

	dErrors "authgate/pkg/domain-errors"
)

// User is the persisted identity record.
//
// Invariants:
//   - Email and Name are unique across all records; the store's unique
//     constraints are the authoritative enforcement, the registrar's
//     pre-checks only give friendlier errors
//   - ID is assigned once at creation and never mutated or reused
//   - CredentialHash is written once at registration and only ever read for
//     verification; it never appears in a response payload
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	CredentialHash string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUser constructs a User and validates its invariants.
func NewUser(id, name, email, credentialHash string, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user id is required")
	}
	if name == "" || len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "display name must be 1-128 characters")
	}
	if email == "" || len(email) > 255 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email must be 1-255 characters")
	}
	if credentialHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "credential hash is required")
	}

	return &User{
		ID:             id,
		Name:           name,
		Email:          email,
		CredentialHash: credentialHash,
		CreatedAt:      now,
	}, nil
}
