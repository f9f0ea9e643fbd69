package diff

import (
	"context"
	"sync"

	"github.com/natty6418/task-flow-sub000/pkg/models"
)

// ReferenceKind identifies the store a foreign-key field points into.
type ReferenceKind string

const (
	RefUser  ReferenceKind = "user"
	RefBoard ReferenceKind = "board"
)

// Sentinel display names substituted when a foreign key no longer
// resolves (the referenced record was deleted after the change).
const (
	UnknownUserName  = "Unknown User"
	UnknownBoardName = "Unknown Board"
)

// Resolver maps a foreign-key id to a display name. Implementations
// return apperrors.ErrNotFound for stale references; any error is
// replaced with a sentinel name and never aborts a diff build.
type Resolver interface {
	Resolve(ctx context.Context, kind ReferenceKind, id string) (string, error)
}

// referenceFields maps diffable foreign-key fields to their reference kind.
var referenceFields = map[string]ReferenceKind{
	models.FieldAssignedTo: RefUser,
	models.FieldBoard:      RefBoard,
}

// ResolveReferences fills dd.Processed with display names for the
// foreign-key fields present in the diff. Raw diffs store ids; narration
// needs names. Resolving once at build time and storing both avoids
// re-querying at read time while preserving the id trail.
//
// An absent id resolves to a nil name. A failed lookup resolves to the
// kind's sentinel name. The independent lookups run concurrently; callers
// bound them with the context.
func ResolveReferences(ctx context.Context, dd *models.DiffData, resolver Resolver) {
	if dd == nil || resolver == nil {
		return
	}

	pending := make(map[string]*models.NameChange)
	var wg sync.WaitGroup
	for field, kind := range referenceFields {
		fc, ok := dd.Changes[field]
		if !ok {
			continue
		}
		nc := &models.NameChange{}
		pending[field] = nc

		if id, ok := fc.Old.(string); ok && id != "" {
			wg.Add(1)
			go func(kind ReferenceKind, id string, dst **string) {
				defer wg.Done()
				name := lookupName(ctx, resolver, kind, id)
				*dst = &name
			}(kind, id, &nc.Old)
		}
		if id, ok := fc.New.(string); ok && id != "" {
			wg.Add(1)
			go func(kind ReferenceKind, id string, dst **string) {
				defer wg.Done()
				name := lookupName(ctx, resolver, kind, id)
				*dst = &name
			}(kind, id, &nc.New)
		}
	}
	wg.Wait()

	if len(pending) == 0 {
		return
	}
	dd.Processed = make(map[string]models.NameChange, len(pending))
	for field, nc := range pending {
		dd.Processed[field] = *nc
	}
}

func lookupName(ctx context.Context, resolver Resolver, kind ReferenceKind, id string) string {
	name, err := resolver.Resolve(ctx, kind, id)
	if err != nil || name == "" {
		return sentinelName(kind)
	}
	return name
}

func sentinelName(kind ReferenceKind) string {
	if kind == RefBoard {
		return UnknownBoardName
	}
	return UnknownUserName
}
