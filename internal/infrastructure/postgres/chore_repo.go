package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChoreRepository struct {
	pool *pgxpool.Pool
}

func NewChoreRepository(pool *pgxpool.Pool) *ChoreRepository {
	return &ChoreRepository{pool: pool}
}

func (r *ChoreRepository) Create(ctx context.Context, c *domain.Chore) (*domain.Chore, error) {
	query := `
		INSERT INTO chores (
			name, description, schedule_kind, cron_expr,
			interval_days, interval_hour, interval_minute
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, description, schedule_kind, cron_expr,
		          interval_days, interval_hour, interval_minute, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query,
		c.Name, c.Description, c.Schedule.Kind, c.Schedule.CronExpr,
		c.Schedule.IntervalDays, c.Schedule.IntervalHour, c.Schedule.IntervalMinute,
	)

	created, err := scanChore(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrNameConflict
		}
		return nil, err
	}
	return created, nil
}

func (r *ChoreRepository) GetByID(ctx context.Context, id string) (*domain.Chore, error) {
	query := `
		SELECT id, name, description, schedule_kind, cron_expr,
		       interval_days, interval_hour, interval_minute, created_at, updated_at
		FROM chores
		WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	return scanChore(row)
}

func (r *ChoreRepository) Update(ctx context.Context, c *domain.Chore) (*domain.Chore, error) {
	query := `
		UPDATE chores
		SET    name            = $2,
		       description     = $3,
		       schedule_kind   = $4,
		       cron_expr       = $5,
		       interval_days   = $6,
		       interval_hour   = $7,
		       interval_minute = $8,
		       updated_at      = NOW()
		WHERE id = $1
		RETURNING id, name, description, schedule_kind, cron_expr,
		          interval_days, interval_hour, interval_minute, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query,
		c.ID, c.Name, c.Description, c.Schedule.Kind, c.Schedule.CronExpr,
		c.Schedule.IntervalDays, c.Schedule.IntervalHour, c.Schedule.IntervalMinute,
	)

	updated, err := scanChore(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrNameConflict
		}
		return nil, err
	}
	return updated, nil
}

func (r *ChoreRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChoreNotFound
	}
	return nil
}

func (r *ChoreRepository) List(ctx context.Context, input repository.ListChoresInput) ([]*domain.Chore, error) {
	args := []any{}
	where := []string{"1=1"}
	joinTags := ""

	if input.TagName != "" {
		joinTags = `
			JOIN chore_tags ct ON ct.chore_id = chores.id
			JOIN tags t ON t.id = ct.tag_id`
		args = append(args, input.TagName)
		where = append(where, fmt.Sprintf("t.name = $%d", len(args)))
	}
	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(chores.created_at, chores.id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT chores.id, chores.name, chores.description, chores.schedule_kind, chores.cron_expr,
		       chores.interval_days, chores.interval_hour, chores.interval_minute,
		       chores.created_at, chores.updated_at
		FROM chores %s
		WHERE %s
		ORDER BY chores.created_at DESC, chores.id DESC
		LIMIT $%d`,
		joinTags, strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []*domain.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, err
		}
		chores = append(chores, c)
	}
	return chores, nil
}

// ListAllScheduled returns every chore whose schedule is not
// OnceInAWhile — the materializer's (C4) input set.
func (r *ChoreRepository) ListAllScheduled(ctx context.Context) ([]*domain.Chore, error) {
	query := `
		SELECT id, name, description, schedule_kind, cron_expr,
		       interval_days, interval_hour, interval_minute, created_at, updated_at
		FROM chores
		WHERE schedule_kind != $1`

	rows, err := r.pool.Query(ctx, query, domain.ScheduleOnceInAWhile)
	if err != nil {
		return nil, fmt.Errorf("list scheduled chores: %w", err)
	}
	defer rows.Close()

	var chores []*domain.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, err
		}
		chores = append(chores, c)
	}
	return chores, nil
}

func (r *ChoreRepository) SetTags(ctx context.Context, choreID string, tagIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM chore_tags WHERE chore_id = $1`, choreID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chore_tags (chore_id, tag_id) VALUES ($1, $2)`,
			choreID, tagID,
		); err != nil {
			return fmt.Errorf("insert chore_tag: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *ChoreRepository) TagsForChore(ctx context.Context, choreID string) ([]*domain.Tag, error) {
	query := `
		SELECT t.id, t.name, t.color
		FROM tags t
		JOIN chore_tags ct ON ct.tag_id = t.id
		WHERE ct.chore_id = $1
		ORDER BY t.name`

	rows, err := r.pool.Query(ctx, query, choreID)
	if err != nil {
		return nil, fmt.Errorf("list chore tags: %w", err)
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, &t)
	}
	return tags, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanChore(row rowScanner) (*domain.Chore, error) {
	var c domain.Chore
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Schedule.Kind, &c.Schedule.CronExpr,
		&c.Schedule.IntervalDays, &c.Schedule.IntervalHour, &c.Schedule.IntervalMinute,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChoreNotFound
		}
		return nil, fmt.Errorf("scan chore: %w", err)
	}
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt
	return &c, nil
}
