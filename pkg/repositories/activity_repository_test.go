//go:build integration

package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natty6418/task-flow-sub000/pkg/apperrors"
	"github.com/natty6418/task-flow-sub000/pkg/models"
	"github.com/natty6418/task-flow-sub000/pkg/testhelpers"
)

// activityTestContext holds test dependencies for activity repository tests.
type activityTestContext struct {
	t         *testing.T
	db        *testhelpers.TestDB
	repo      ActivityRepository
	lookups   LookupRepository
	userID    uuid.UUID
	projectID uuid.UUID
	boardID   uuid.UUID
	taskID    uuid.UUID
}

// setupActivityTest seeds one user, project, board, and task against the
// shared testcontainer.
func setupActivityTest(t *testing.T) *activityTestContext {
	db := testhelpers.GetTestDB(t)
	tc := &activityTestContext{
		t:         t,
		db:        db,
		repo:      NewActivityRepository(db.Pool),
		lookups:   NewLookupRepository(db.Pool),
		userID:    uuid.New(),
		projectID: uuid.New(),
		boardID:   uuid.New(),
		taskID:    uuid.New(),
	}

	ctx := context.Background()
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`,
		tc.userID, "Asha", fmt.Sprintf("%s@example.com", tc.userID))
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO projects (id, name, owner_id) VALUES ($1, $2, $3)`,
		tc.projectID, "Launch", tc.userID)
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO boards (id, project_id, name) VALUES ($1, $2, $3)`,
		tc.boardID, tc.projectID, "Backlog")
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO tasks (id, project_id, board_id, title) VALUES ($1, $2, $3, $4)`,
		tc.taskID, tc.projectID, tc.boardID, "Fix login bug")
	require.NoError(t, err)

	return tc
}

func (tc *activityTestContext) newEntry(createdAt time.Time) *models.ActivityLogEntry {
	return &models.ActivityLogEntry{
		UserID:    tc.userID,
		Action:    models.ActionTaskUpdated,
		Message:   `Changed status of task "Fix login bug": changed status from To Do to Done`,
		ProjectID: &tc.projectID,
		BoardID:   &tc.boardID,
		TaskID:    &tc.taskID,
		CreatedAt: createdAt,
	}
}

func (tc *activityTestContext) mustCreate(entry *models.ActivityLogEntry) *models.ActivityLogEntry {
	tc.t.Helper()
	require.NoError(tc.t, tc.repo.Create(context.Background(), entry))
	return entry
}

func TestActivityRepository_CreateAndGet(t *testing.T) {
	tc := setupActivityTest(t)
	ctx := context.Background()

	entry := tc.newEntry(time.Time{})
	entry.DiffData = &models.DiffData{
		Changes: map[string]models.FieldChange{
			models.FieldStatus: {Old: "TODO", New: "DONE", Type: models.ChangeModified},
		},
		Summary: models.DiffSummary{FieldsChanged: []string{models.FieldStatus}, ChangeCount: 1},
	}
	tc.mustCreate(entry)

	assert.NotEqual(t, uuid.Nil, entry.ID, "Create assigns an id")
	assert.False(t, entry.CreatedAt.IsZero(), "Create assigns a timestamp")

	got, err := tc.repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Message, got.Message)
	assert.Equal(t, models.ActionTaskUpdated, got.Action)
	require.NotNil(t, got.DiffData)
	assert.True(t, got.DiffData.Valid())
	assert.Equal(t, "DONE", got.DiffData.Changes[models.FieldStatus].New)
}

func TestActivityRepository_GetByID_NotFound(t *testing.T) {
	tc := setupActivityTest(t)

	_, err := tc.repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestActivityRepository_Create_UnknownActorFails(t *testing.T) {
	tc := setupActivityTest(t)

	entry := tc.newEntry(time.Time{})
	entry.UserID = uuid.New() // not in users

	err := tc.repo.Create(context.Background(), entry)
	assert.Error(t, err)
}

func TestActivityRepository_ListOrderingAndPagination(t *testing.T) {
	tc := setupActivityTest(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		e := tc.mustCreate(tc.newEntry(base.Add(time.Duration(i) * time.Minute)))
		ids = append(ids, e.ID)
	}

	all, err := tc.repo.ListByProject(ctx, tc.projectID, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 0; i < len(all)-1; i++ {
		assert.False(t, all[i].CreatedAt.Before(all[i+1].CreatedAt), "newest first")
	}
	assert.Equal(t, ids[4], all[0].ID)

	// Two consecutive pages are disjoint and their union is the full list.
	page1, err := tc.repo.ListByProject(ctx, tc.projectID, 3, 0)
	require.NoError(t, err)
	page2, err := tc.repo.ListByProject(ctx, tc.projectID, 3, 3)
	require.NoError(t, err)
	require.Len(t, page1, 3)
	require.Len(t, page2, 2)

	seen := make(map[uuid.UUID]bool)
	for _, e := range append(page1, page2...) {
		assert.False(t, seen[e.ID], "pages must not overlap")
		seen[e.ID] = true
	}
	assert.Len(t, seen, 5)
}

func TestActivityRepository_ScopedLists(t *testing.T) {
	tc := setupActivityTest(t)
	ctx := context.Background()

	tc.mustCreate(tc.newEntry(time.Time{}))

	// A project-scoped entry with no task or board.
	projectOnly := tc.newEntry(time.Time{})
	projectOnly.Action = models.ActionProjectUpdated
	projectOnly.BoardID = nil
	projectOnly.TaskID = nil
	tc.mustCreate(projectOnly)

	byTask, err := tc.repo.ListByTask(ctx, tc.taskID)
	require.NoError(t, err)
	assert.Len(t, byTask, 1)

	byBoard, err := tc.repo.ListByBoard(ctx, tc.boardID)
	require.NoError(t, err)
	assert.Len(t, byBoard, 1)

	byProject, err := tc.repo.ListByProject(ctx, tc.projectID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byProject, 2)

	byUser, err := tc.repo.ListByUser(ctx, tc.userID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	recent, err := tc.repo.ListRecentForUser(ctx, tc.userID, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestActivityRepository_MalformedDiffBlobDegrades(t *testing.T) {
	tc := setupActivityTest(t)
	ctx := context.Background()

	entry := tc.mustCreate(tc.newEntry(time.Time{}))

	// Overwrite the blob with JSON that does not decode into DiffData.
	_, err := tc.db.Pool.Exec(ctx,
		`UPDATE activity_log SET diff_data = '{"changes": "not-an-object"}'::jsonb WHERE id = $1`,
		entry.ID)
	require.NoError(t, err)

	got, err := tc.repo.GetByID(ctx, entry.ID)
	require.NoError(t, err, "a malformed blob must not make the entry unreadable")
	assert.Equal(t, entry.Message, got.Message)
	assert.Nil(t, got.DiffData)
}

func TestActivityRepository_Aggregations(t *testing.T) {
	tc := setupActivityTest(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		tc.mustCreate(tc.newEntry(base.Add(time.Duration(i) * time.Hour)))
	}
	created := tc.newEntry(base.AddDate(0, 0, 1))
	created.Action = models.ActionTaskCreated
	tc.mustCreate(created)

	since := base.Add(-time.Hour)

	byAction, err := tc.repo.CountByAction(ctx, tc.projectID, since)
	require.NoError(t, err)
	require.Len(t, byAction, 2)
	assert.Equal(t, models.ActionTaskUpdated, byAction[0].Action, "ordered by count descending")
	assert.Equal(t, 3, byAction[0].Count)
	assert.Equal(t, 1, byAction[1].Count)

	daily, err := tc.repo.CountDaily(ctx, tc.projectID, since)
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, "2026-08-28", daily[0].Day)
	assert.Equal(t, 3, daily[0].Count)
	assert.Equal(t, "2026-08-29", daily[1].Day)
	assert.Equal(t, 1, daily[1].Count)

	// The since cutoff excludes older entries.
	byAction, err = tc.repo.CountByAction(ctx, tc.projectID, base.AddDate(0, 0, 1).Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Equal(t, models.ActionTaskCreated, byAction[0].Action)
}

func TestLookupRepository(t *testing.T) {
	tc := setupActivityTest(t)
	ctx := context.Background()

	name, err := tc.lookups.UserName(ctx, tc.userID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", name)

	name, err = tc.lookups.BoardName(ctx, tc.boardID)
	require.NoError(t, err)
	assert.Equal(t, "Backlog", name)

	_, err = tc.lookups.UserName(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = tc.lookups.BoardName(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
