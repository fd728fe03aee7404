package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TagRepository struct {
	pool *pgxpool.Pool
}

func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{pool: pool}
}

func (r *TagRepository) Create(ctx context.Context, t *domain.Tag) (*domain.Tag, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO tags (name, color) VALUES ($1, $2) RETURNING id, name, color`,
		t.Name, t.Color,
	)
	created, err := scanTag(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrTagNameConflict
		}
		return nil, err
	}
	return created, nil
}

func (r *TagRepository) GetByID(ctx context.Context, id string) (*domain.Tag, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, color FROM tags WHERE id = $1`, id)
	return scanTag(row)
}

func (r *TagRepository) Update(ctx context.Context, t *domain.Tag) (*domain.Tag, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tags SET name = $2, color = $3 WHERE id = $1 RETURNING id, name, color`,
		t.ID, t.Name, t.Color,
	)
	updated, err := scanTag(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrTagNameConflict
		}
		return nil, err
	}
	return updated, nil
}

func (r *TagRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTagNotFound
	}
	return nil
}

func (r *TagRepository) List(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func scanTag(row rowScanner) (*domain.Tag, error) {
	var t domain.Tag
	err := row.Scan(&t.ID, &t.Name, &t.Color)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTagNotFound
		}
		return nil, fmt.Errorf("scan tag: %w", err)
	}
	return &t, nil
}
