package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindOrCreateByOIDC(ctx context.Context, issuer, subject string, email, name, picture *string) (*domain.User, error) {
	query := `
		INSERT INTO users (oidc_issuer, oidc_subject, email, name, picture)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (oidc_issuer, oidc_subject) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name, picture = EXCLUDED.picture, updated_at = NOW()
		RETURNING id, oidc_issuer, oidc_subject, email, name, picture, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query, issuer, subject, email, name, picture)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, oidc_issuer, oidc_subject, email, name, picture, created_at, updated_at FROM users WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanUser(row)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.OIDCIssuer, &u.OIDCSubject, &u.Email, &u.Name, &u.Picture, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
