// Package repositories provides Postgres data access for the activity engine.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natty6418/task-flow-sub000/pkg/apperrors"
	"github.com/natty6418/task-flow-sub000/pkg/models"
)

// ActivityRepository is the append-only store for activity log entries.
// Entries are immutable: there is no update and no direct delete; rows
// disappear only through foreign-key cascades owned by the record store.
// All list operations return entries newest first.
type ActivityRepository interface {
	// Create inserts a new entry. It fails if the actor foreign key does
	// not exist; it never rejects for business reasons.
	Create(ctx context.Context, entry *models.ActivityLogEntry) error

	// GetByID returns one entry, or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.ActivityLogEntry, error)

	// ListByProject returns a page of a project's history.
	ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error)

	// ListByTask returns a task's full history (bounded per task).
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.ActivityLogEntry, error)

	// ListByBoard returns a board's full history.
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*models.ActivityLogEntry, error)

	// ListByUser returns a page of the entries a user performed.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error)

	// ListRecentForUser returns the newest entries for a user's dashboard.
	ListRecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLogEntry, error)

	// CountByAction aggregates a project's entries since a time, grouped
	// by action tag.
	CountByAction(ctx context.Context, projectID uuid.UUID, since time.Time) ([]models.ActionCount, error)

	// CountDaily aggregates a project's entries since a time, grouped by
	// UTC calendar day.
	CountDaily(ctx context.Context, projectID uuid.UUID, since time.Time) ([]models.DailyCount, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates an ActivityRepository backed by Postgres.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

var _ ActivityRepository = (*activityRepository)(nil)

const activityColumns = `id, user_id, action, message, project_id, board_id, task_id, diff_data, created_at`

func (r *activityRepository) Create(ctx context.Context, entry *models.ActivityLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var diffJSON []byte
	if entry.DiffData != nil {
		var err error
		diffJSON, err = json.Marshal(entry.DiffData)
		if err != nil {
			return fmt.Errorf("failed to marshal diff data: %w", err)
		}
	}

	query := `
		INSERT INTO activity_log (
			id, user_id, action, message, project_id, board_id, task_id, diff_data, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.Message,
		entry.ProjectID,
		entry.BoardID,
		entry.TaskID,
		diffJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ActivityLogEntry, error) {
	query := `SELECT ` + activityColumns + ` FROM activity_log WHERE id = $1`
	entry, err := scanActivityEntry(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *activityRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_log
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, projectID, limit, offset)
}

func (r *activityRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.ActivityLogEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_log
		WHERE task_id = $1
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, taskID)
}

func (r *activityRepository) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*models.ActivityLogEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_log
		WHERE board_id = $1
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, boardID)
}

func (r *activityRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_log
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *activityRepository) ListRecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLogEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_log
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	return r.list(ctx, query, userID, limit)
}

func (r *activityRepository) list(ctx context.Context, query string, args ...any) ([]*models.ActivityLogEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var entries []*models.ActivityLogEntry
	for rows.Next() {
		entry, err := scanActivityEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity entries: %w", err)
	}
	return entries, nil
}

func (r *activityRepository) CountByAction(ctx context.Context, projectID uuid.UUID, since time.Time) ([]models.ActionCount, error) {
	query := `
		SELECT action, COUNT(*)
		FROM activity_log
		WHERE project_id = $1 AND created_at >= $2
		GROUP BY action
		ORDER BY COUNT(*) DESC, action`

	rows, err := r.pool.Query(ctx, query, projectID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by action: %w", err)
	}
	defer rows.Close()

	var counts []models.ActionCount
	for rows.Next() {
		var c models.ActionCount
		if err := rows.Scan(&c.Action, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan action count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action counts: %w", err)
	}
	return counts, nil
}

func (r *activityRepository) CountDaily(ctx context.Context, projectID uuid.UUID, since time.Time) ([]models.DailyCount, error) {
	query := `
		SELECT to_char((created_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD'), COUNT(*)
		FROM activity_log
		WHERE project_id = $1 AND created_at >= $2
		GROUP BY (created_at AT TIME ZONE 'UTC')::date
		ORDER BY (created_at AT TIME ZONE 'UTC')::date`

	rows, err := r.pool.Query(ctx, query, projectID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily: %w", err)
	}
	defer rows.Close()

	var counts []models.DailyCount
	for rows.Next() {
		var c models.DailyCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily counts: %w", err)
	}
	return counts, nil
}

func scanActivityEntry(row pgx.Row) (*models.ActivityLogEntry, error) {
	var entry models.ActivityLogEntry
	var diffJSON []byte

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Action,
		&entry.Message,
		&entry.ProjectID,
		&entry.BoardID,
		&entry.TaskID,
		&diffJSON,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan activity entry: %w", err)
	}

	// A blob that no longer decodes (e.g. written by a future schema
	// version) must not make the entry unlistable; the entry keeps its
	// message and simply carries no structured detail.
	if len(diffJSON) > 0 && string(diffJSON) != "null" {
		var dd models.DiffData
		if err := json.Unmarshal(diffJSON, &dd); err == nil {
			entry.DiffData = &dd
		}
	}

	return &entry, nil
}
