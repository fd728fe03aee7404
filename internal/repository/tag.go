package repository

import (
	"context"

	"github.com/FlyinPancake/nag/internal/domain"
)

type TagRepository interface {
	Create(ctx context.Context, t *domain.Tag) (*domain.Tag, error)
	GetByID(ctx context.Context, id string) (*domain.Tag, error)
	Update(ctx context.Context, t *domain.Tag) (*domain.Tag, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.Tag, error)
}
