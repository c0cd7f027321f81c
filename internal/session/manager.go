// Package session issues and validates the client-held session capsule: a
// signed token binding one identity id plus an issuance timestamp. The server
// keeps no per-session record; only revoked capsule ids are stored.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"authgate/internal/session/revocation"
	dErrors "authgate/pkg/domain-errors"
)

// Claims is the capsule payload. Subject carries the identity id; ID (JTI) is
// fresh per issuance so a pre-authentication token can never be reused.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager establishes, reads, and revokes session capsules.
type Manager struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	revoked    revocation.List
	now        func() time.Time
}

// NewManager constructs a Manager. ttl bounds both the capsule's exp claim and
// the retention of revocation entries.
func NewManager(signingKey string, ttl time.Duration, revoked revocation.List) *Manager {
	return &Manager{
		signingKey: []byte(signingKey),
		issuer:     "authgate",
		ttl:        ttl,
		revoked:    revoked,
		now:        time.Now,
	}
}

// Establish issues a fresh capsule bound to identityID. Each call mints a new
// JTI, so logging in always replaces any token the client held before.
func (m *Manager) Establish(_ context.Context, identityID string) (string, error) {
	if identityID == "" {
		return "", dErrors.New(dErrors.CodeInternal, "cannot establish session without identity")
	}

	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session capsule")
	}
	return signed, nil
}

// Read verifies the capsule and returns the bound identity id. Invalid,
// expired, and revoked capsules all surface as CodeUnauthorized.
func (m *Manager) Read(ctx context.Context, token string) (string, error) {
	claims, err := m.parse(token)
	if err != nil {
		return "", err
	}

	revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check session revocation")
	}
	if revoked {
		return "", dErrors.New(dErrors.CodeUnauthorized, "session revoked")
	}
	return claims.Subject, nil
}

// Revoke invalidates the capsule so a later Read fails. Unreadable capsules
// are a no-op: logout is idempotent and never errors on garbage input.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return nil
	}

	ttl := m.ttl
	if claims.ExpiresAt != nil {
		// Keep the entry only as long as the capsule could still be replayed.
		ttl = claims.ExpiresAt.Sub(m.now())
	}
	if ttl <= 0 {
		return nil
	}
	if err := m.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	return nil
}

func (m *Manager) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return m.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" || claims.ID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session claims")
	}
	return claims, nil
}
