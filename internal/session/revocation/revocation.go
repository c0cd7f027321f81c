// Package revocation tracks session capsules invalidated before their natural
// expiry. The capsule itself stays client-held; only revoked ids are stored.
package revocation

import (
	"context"
	"time"
)

// List records revoked capsule ids (JTIs) until their capsule would have
// expired anyway, at which point the entry may be dropped.
type List interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
