package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CompletionRepository struct {
	pool *pgxpool.Pool
}

func NewCompletionRepository(pool *pgxpool.Pool) *CompletionRepository {
	return &CompletionRepository{pool: pool}
}

func (r *CompletionRepository) Create(ctx context.Context, c *domain.Completion) (*domain.Completion, error) {
	query := `
		INSERT INTO completions (chore_id, completed_at, notes)
		VALUES ($1, $2, $3)
		RETURNING id, chore_id, completed_at, notes, created_at`

	row := r.pool.QueryRow(ctx, query, c.ChoreID, c.CompletedAt, c.Notes)
	return scanCompletion(row)
}

func (r *CompletionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM completions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCompletionNotFound
	}
	return nil
}

func (r *CompletionRepository) List(ctx context.Context, input repository.ListCompletionsInput) ([]*domain.Completion, error) {
	args := []any{input.ChoreID}
	where := "chore_id = $1"

	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where += fmt.Sprintf(" AND (completed_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT id, chore_id, completed_at, notes, created_at
		FROM completions
		WHERE %s
		ORDER BY completed_at DESC, id DESC
		LIMIT $%d`, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []*domain.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, nil
}

func (r *CompletionRepository) LastForChore(ctx context.Context, choreID string) (*domain.Completion, error) {
	query := `
		SELECT id, chore_id, completed_at, notes, created_at
		FROM completions
		WHERE chore_id = $1
		ORDER BY completed_at DESC
		LIMIT 1`

	row := r.pool.QueryRow(ctx, query, choreID)
	c, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, domain.ErrCompletionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *CompletionRepository) LastForChores(ctx context.Context, choreIDs []string) (map[string]*domain.Completion, error) {
	if len(choreIDs) == 0 {
		return map[string]*domain.Completion{}, nil
	}

	query := `
		SELECT DISTINCT ON (chore_id) id, chore_id, completed_at, notes, created_at
		FROM completions
		WHERE chore_id = ANY($1)
		ORDER BY chore_id, completed_at DESC`

	rows, err := r.pool.Query(ctx, query, choreIDs)
	if err != nil {
		return nil, fmt.Errorf("batch last completions: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*domain.Completion, len(choreIDs))
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		result[c.ChoreID] = c
	}
	return result, nil
}

func scanCompletion(row rowScanner) (*domain.Completion, error) {
	var c domain.Completion
	var completedAt, createdAt time.Time
	err := row.Scan(&c.ID, &c.ChoreID, &completedAt, &c.Notes, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompletionNotFound
		}
		return nil, fmt.Errorf("scan completion: %w", err)
	}
	c.CompletedAt = completedAt
	c.CreatedAt = createdAt
	return &c, nil
}
