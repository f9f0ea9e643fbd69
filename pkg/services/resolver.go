// Package services wires the diff engine to its collaborators: the
// record store, the activity log store, and the resolver cache.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/natty6418/task-flow-sub000/pkg/diff"
	"github.com/natty6418/task-flow-sub000/pkg/repositories"
)

// storeResolver resolves foreign-key ids against the record store.
type storeResolver struct {
	lookups repositories.LookupRepository
}

// NewStoreResolver creates a diff.Resolver backed by the record store.
func NewStoreResolver(lookups repositories.LookupRepository) diff.Resolver {
	return &storeResolver{lookups: lookups}
}

var _ diff.Resolver = (*storeResolver)(nil)

func (r *storeResolver) Resolve(ctx context.Context, kind diff.ReferenceKind, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("invalid %s id %q: %w", kind, id, err)
	}
	switch kind {
	case diff.RefUser:
		return r.lookups.UserName(ctx, parsed)
	case diff.RefBoard:
		return r.lookups.BoardName(ctx, parsed)
	default:
		return "", fmt.Errorf("unknown reference kind %q", kind)
	}
}
