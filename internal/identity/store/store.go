package store

import (
	"context"

	"authgate/internal/identity/models"
)

// UserStore is the credential store contract. Lookups report absence with
// sentinel.ErrNotFound; Create reports a uniqueness violation with
// sentinel.ErrConflict. The store's own constraints are the authoritative
// uniqueness enforcement (registration pre-checks can race).
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByName(ctx context.Context, name string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}
