package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natty6418/task-flow-sub000/pkg/apperrors"
)

// LookupRepository resolves foreign-key ids to display names for diff
// building. Reads go against the record store's tables; this engine
// never writes them.
type LookupRepository interface {
	// UserName returns a user's display name, or apperrors.ErrNotFound.
	UserName(ctx context.Context, id uuid.UUID) (string, error)

	// BoardName returns a board's name, or apperrors.ErrNotFound.
	BoardName(ctx context.Context, id uuid.UUID) (string, error)
}

type lookupRepository struct {
	pool *pgxpool.Pool
}

// NewLookupRepository creates a LookupRepository backed by Postgres.
func NewLookupRepository(pool *pgxpool.Pool) LookupRepository {
	return &lookupRepository{pool: pool}
}

var _ LookupRepository = (*lookupRepository)(nil)

func (r *lookupRepository) UserName(ctx context.Context, id uuid.UUID) (string, error) {
	return r.name(ctx, `SELECT name FROM users WHERE id = $1`, id)
}

func (r *lookupRepository) BoardName(ctx context.Context, id uuid.UUID) (string, error) {
	return r.name(ctx, `SELECT name FROM boards WHERE id = $1`, id)
}

func (r *lookupRepository) name(ctx context.Context, query string, id uuid.UUID) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, query, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to look up display name: %w", err)
	}
	return name, nil
}
