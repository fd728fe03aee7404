package repository

import (
	"context"

	"github.com/FlyinPancake/nag/internal/domain"
)

type UserRepository interface {
	// FindOrCreateByOIDC looks up a user by (issuer, subject), creating one
	// on first login. Profile fields are refreshed from the latest claims.
	FindOrCreateByOIDC(ctx context.Context, issuer, subject string, email, name, picture *string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
