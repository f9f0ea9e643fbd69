package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/natty6418/task-flow-sub000/pkg/apperrors"
	"github.com/natty6418/task-flow-sub000/pkg/diff"
	"github.com/natty6418/task-flow-sub000/pkg/models"
)

// mockActivityRepository is an in-memory ActivityRepository for testing.
type mockActivityRepository struct {
	entries    []*models.ActivityLogEntry
	createErrs []error // consumed one per Create call before succeeding
	createN    int
}

func (m *mockActivityRepository) Create(ctx context.Context, entry *models.ActivityLogEntry) error {
	m.createN++
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ActivityLogEntry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockActivityRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error) {
	var result []*models.ActivityLogEntry
	for _, e := range m.entries {
		if e.ProjectID != nil && *e.ProjectID == projectID {
			result = append(result, e)
		}
	}
	return page(result, limit, offset), nil
}

func (m *mockActivityRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.ActivityLogEntry, error) {
	var result []*models.ActivityLogEntry
	for _, e := range m.entries {
		if e.TaskID != nil && *e.TaskID == taskID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockActivityRepository) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*models.ActivityLogEntry, error) {
	var result []*models.ActivityLogEntry
	for _, e := range m.entries {
		if e.BoardID != nil && *e.BoardID == boardID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockActivityRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error) {
	var result []*models.ActivityLogEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	return page(result, limit, offset), nil
}

func (m *mockActivityRepository) ListRecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLogEntry, error) {
	return m.ListByUser(ctx, userID, limit, 0)
}

func (m *mockActivityRepository) CountByAction(ctx context.Context, projectID uuid.UUID, since time.Time) ([]models.ActionCount, error) {
	counts := make(map[models.ActivityAction]int)
	for _, e := range m.entries {
		if e.ProjectID != nil && *e.ProjectID == projectID && !e.CreatedAt.Before(since) {
			counts[e.Action]++
		}
	}
	var result []models.ActionCount
	for action, n := range counts {
		result = append(result, models.ActionCount{Action: action, Count: n})
	}
	return result, nil
}

func (m *mockActivityRepository) CountDaily(ctx context.Context, projectID uuid.UUID, since time.Time) ([]models.DailyCount, error) {
	counts := make(map[string]int)
	for _, e := range m.entries {
		if e.ProjectID != nil && *e.ProjectID == projectID && !e.CreatedAt.Before(since) {
			counts[e.CreatedAt.UTC().Format("2006-01-02")]++
		}
	}
	var result []models.DailyCount
	for day, n := range counts {
		result = append(result, models.DailyCount{Day: day, Count: n})
	}
	return result, nil
}

func page(entries []*models.ActivityLogEntry, limit, offset int) []*models.ActivityLogEntry {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// staticResolver resolves every id to a fixed name per kind.
type staticResolver struct {
	users  map[string]string
	boards map[string]string
}

func (r *staticResolver) Resolve(_ context.Context, kind diff.ReferenceKind, id string) (string, error) {
	table := r.users
	if kind == diff.RefBoard {
		table = r.boards
	}
	if name, ok := table[id]; ok {
		return name, nil
	}
	return "", apperrors.ErrNotFound
}

func newTestService(repo *mockActivityRepository, resolver diff.Resolver) ActivityService {
	if resolver == nil {
		resolver = &staticResolver{}
	}
	return NewActivityService(repo, resolver, diff.DefaultThresholds(), zap.NewNop())
}

func sampleTask() *models.Task {
	return &models.Task{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Title:     "Fix login bug",
		Status:    models.TaskStatusTodo,
		Priority:  models.TaskPriorityMedium,
	}
}

func TestRecordTaskUpdate_PersistsDiffAndMessage(t *testing.T) {
	repo := &mockActivityRepository{}
	svc := newTestService(repo, nil)

	before := sampleTask()
	after := *before
	after.Title = "Fix critical login bug"
	after.Status = models.TaskStatusInProgress

	entry, err := svc.RecordTaskUpdate(context.Background(), uuid.New(), before, &after)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, models.ActionTaskUpdated, entry.Action)
	assert.Equal(t,
		`Updated multiple fields of task "Fix critical login bug": `+
			`renamed from "Fix login bug" to "Fix critical login bug", `+
			`changed status from To Do to In Progress`,
		entry.Message)
	require.NotNil(t, entry.DiffData)
	assert.True(t, entry.DiffData.Valid())
	assert.Equal(t, &after.ProjectID, entry.ProjectID)
	assert.Equal(t, &after.ID, entry.TaskID)
	require.Len(t, repo.entries, 1)
}

func TestRecordTaskUpdate_NoChangesLeavesNoTrail(t *testing.T) {
	repo := &mockActivityRepository{}
	svc := newTestService(repo, nil)

	task := sampleTask()
	same := *task

	entry, err := svc.RecordTaskUpdate(context.Background(), uuid.New(), task, &same)
	assert.NoError(t, err)
	assert.Nil(t, entry)
	assert.Empty(t, repo.entries)
}

func TestRecordTaskUpdate_SoleStatusToDoneBecomesCompletion(t *testing.T) {
	repo := &mockActivityRepository{}
	svc := newTestService(repo, nil)

	before := sampleTask()
	before.Status = models.TaskStatusInProgress
	after := *before
	after.Status = models.TaskStatusDone

	entry, err := svc.RecordTaskUpdate(context.Background(), uuid.New(), before, &after)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.ActionTaskCompleted, entry.Action)

	// Status to DONE together with another change stays a plain update.
	after2 := after
	after2.Status = models.TaskStatusTodo
	after3 := after2
	after3.Status = models.TaskStatusDone
	after3.Title = "Also renamed"
	entry, err = svc.RecordTaskUpdate(context.Background(), uuid.New(), &after2, &after3)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.ActionTaskUpdated, entry.Action)
}

func TestRecordTaskUpdate_ResolvesAssignmentNames(t *testing.T) {
	repo := &mockActivityRepository{}
	userID := uuid.New()
	resolver := &staticResolver{users: map[string]string{userID.String(): "Asha"}}
	svc := newTestService(repo, resolver)

	before := sampleTask()
	after := *before
	after.AssignedToID = &userID

	entry, err := svc.RecordTaskUpdate(context.Background(), uuid.New(), before, &after)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Contains(t, entry.Message, "assigned to Asha")
	nc := entry.DiffData.Processed[models.FieldAssignedTo]
	require.NotNil(t, nc.New)
	assert.Equal(t, "Asha", *nc.New)
}

func TestRecordTaskUpdate_StaleAssigneeGetsSentinel(t *testing.T) {
	repo := &mockActivityRepository{}
	svc := newTestService(repo, &staticResolver{})

	userID := uuid.New()
	before := sampleTask()
	before.AssignedToID = &userID
	after := *before
	after.AssignedToID = nil

	entry, err := svc.RecordTaskUpdate(context.Background(), uuid.New(), before, &after)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Contains(t, entry.Message, "unassigned "+diff.UnknownUserName)
}

func TestRecordTaskUpdate_RetriesTransientFailure(t *testing.T) {
	repo := &mockActivityRepository{
		createErrs: []error{errors.New("connection refused"), nil},
	}
	svc := newTestService(repo, nil)

	before := sampleTask()
	after := *before
	after.Title = "Renamed"

	entry, err := svc.RecordTaskUpdate(context.Background(), uuid.New(), before, &after)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 2, repo.createN)
	require.Len(t, repo.entries, 1)
}

func TestRecordTaskUpdate_PermanentFailureIsNotRetried(t *testing.T) {
	repo := &mockActivityRepository{
		createErrs: []error{errors.New("violates foreign key constraint")},
	}
	svc := newTestService(repo, nil)

	before := sampleTask()
	after := *before
	after.Title = "Renamed"

	entry, err := svc.RecordTaskUpdate(context.Background(), uuid.New(), before, &after)
	require.Error(t, err)
	assert.NotNil(t, entry)
	assert.Equal(t, 1, repo.createN)
	assert.Empty(t, repo.entries)
}

func TestRecordBoardUpdate(t *testing.T) {
	repo := &mockActivityRepository{}
	svc := newTestService(repo, nil)

	before := &models.Board{ID: uuid.New(), ProjectID: uuid.New(), Name: "Backlog"}
	after := *before
	after.Name = "Icebox"

	entry, err := svc.RecordBoardUpdate(context.Background(), uuid.New(), before, &after)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.ActionBoardUpdated, entry.Action)
	assert.Equal(t, `Renamed board from "Backlog" to "Icebox"`, entry.Message)
	assert.Equal(t, &before.ProjectID, entry.ProjectID)
	assert.Equal(t, &before.ID, entry.BoardID)
}

func TestRecordProjectUpdate(t *testing.T) {
	repo := &mockActivityRepository{}
	svc := newTestService(repo, nil)

	desc := "for the Q2 launch"
	before := &models.Project{ID: uuid.New(), Name: "Launch"}
	after := *before
	after.Description = &desc

	entry, err := svc.RecordProjectUpdate(context.Background(), uuid.New(), before, &after)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.ActionProjectUpdated, entry.Action)
	assert.Equal(t, `Changed description of project "Launch": set description to "for the Q2 launch"`, entry.Message)
}

func TestRecordEvents(t *testing.T) {
	repo := &mockActivityRepository{}
	svc := newTestService(repo, nil)
	ctx := context.Background()
	actor := uuid.New()

	task := sampleTask()
	entry, err := svc.RecordTaskEvent(ctx, actor, models.ActionTaskCreated, task)
	require.NoError(t, err)
	assert.Equal(t, `Created task "Fix login bug"`, entry.Message)
	assert.Nil(t, entry.DiffData)

	entry, err = svc.RecordTaskEvent(ctx, actor, models.ActionTaskCompleted, task)
	require.NoError(t, err)
	assert.Equal(t, `Completed task "Fix login bug"`, entry.Message)

	board := &models.Board{ID: uuid.New(), ProjectID: task.ProjectID, Name: "Sprint 12"}
	entry, err = svc.RecordBoardEvent(ctx, actor, models.ActionBoardDeleted, board)
	require.NoError(t, err)
	assert.Equal(t, `Deleted board "Sprint 12"`, entry.Message)

	project := &models.Project{ID: uuid.New(), Name: "Launch"}
	entry, err = svc.RecordProjectEvent(ctx, actor, models.ActionProjectCreated, project)
	require.NoError(t, err)
	assert.Equal(t, `Created project "Launch"`, entry.Message)

	assert.Len(t, repo.entries, 4)
}

func TestEntryDiff(t *testing.T) {
	repo := &mockActivityRepository{}
	svc := newTestService(repo, nil)

	before := sampleTask()
	after := *before
	after.Title = "Renamed"
	entry, err := svc.RecordTaskUpdate(context.Background(), uuid.New(), before, &after)
	require.NoError(t, err)

	details, err := svc.EntryDiff(context.Background(), entry.ID)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, 1, details.ChangeCount)
	assert.Equal(t, []string{models.FieldTitle}, details.FieldsChanged)

	_, err = svc.EntryDiff(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEntryDiff_EntryWithoutDiff(t *testing.T) {
	repo := &mockActivityRepository{}
	svc := newTestService(repo, nil)

	entry, err := svc.RecordTaskEvent(context.Background(), uuid.New(), models.ActionTaskCreated, sampleTask())
	require.NoError(t, err)

	details, err := svc.EntryDiff(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Nil(t, details, "event entries have no diff to detail")
}

func TestEntryFieldDiff(t *testing.T) {
	repo := &mockActivityRepository{}
	svc := newTestService(repo, nil)

	desc := "the old description is fairly long"
	newDesc := "the new description is fairly long"
	before := sampleTask()
	before.Description = &desc
	after := *before
	after.Description = &newDesc

	entry, err := svc.RecordTaskUpdate(context.Background(), uuid.New(), before, &after)
	require.NoError(t, err)

	parts, err := svc.EntryFieldDiff(context.Background(), entry.ID, models.FieldDescription)
	require.NoError(t, err)
	assert.NotEmpty(t, parts)

	parts, err = svc.EntryFieldDiff(context.Background(), entry.ID, models.FieldTitle)
	require.NoError(t, err)
	assert.Nil(t, parts)
}

func TestProjectStats(t *testing.T) {
	repo := &mockActivityRepository{}
	svc := newTestService(repo, nil)
	ctx := context.Background()
	actor := uuid.New()

	task := sampleTask()
	_, err := svc.RecordTaskEvent(ctx, actor, models.ActionTaskCreated, task)
	require.NoError(t, err)
	_, err = svc.RecordTaskEvent(ctx, actor, models.ActionTaskCompleted, task)
	require.NoError(t, err)

	since := time.Now().Add(-time.Hour)
	stats, err := svc.ProjectStats(ctx, task.ProjectID, since)
	require.NoError(t, err)
	assert.Equal(t, since, stats.Since)
	assert.Len(t, stats.ByAction, 2)
	require.Len(t, stats.Daily, 1)
	assert.Equal(t, 2, stats.Daily[0].Count)
}

func TestListClamping(t *testing.T) {
	assert.Equal(t, DefaultListLimit, clampLimit(0))
	assert.Equal(t, DefaultListLimit, clampLimit(-5))
	assert.Equal(t, MaxListLimit, clampLimit(5000))
	assert.Equal(t, 25, clampLimit(25))
	assert.Equal(t, 0, clampOffset(-1))
	assert.Equal(t, 40, clampOffset(40))
}
