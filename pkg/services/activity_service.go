package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/natty6418/task-flow-sub000/pkg/apperrors"
	"github.com/natty6418/task-flow-sub000/pkg/diff"
	"github.com/natty6418/task-flow-sub000/pkg/models"
	"github.com/natty6418/task-flow-sub000/pkg/repositories"
	"github.com/natty6418/task-flow-sub000/pkg/retry"
)

const (
	// DefaultListLimit applies when a caller requests no page size.
	DefaultListLimit = 50
	// MaxListLimit caps a caller-requested page size.
	MaxListLimit = 100
)

// ActivityService is the entry point mutation handlers call to record
// audited changes, and readers call to fetch history, stats, and diff
// detail.
//
// The Record* methods return the persisted entry, or (nil, nil) when the
// update changed nothing: a no-op update leaves no audit trail. A
// persistence failure is logged and returned, but callers treat it as
// non-fatal: an activity entry must never block the business mutation.
type ActivityService interface {
	RecordTaskUpdate(ctx context.Context, actorID uuid.UUID, before, after *models.Task) (*models.ActivityLogEntry, error)
	RecordBoardUpdate(ctx context.Context, actorID uuid.UUID, before, after *models.Board) (*models.ActivityLogEntry, error)
	RecordProjectUpdate(ctx context.Context, actorID uuid.UUID, before, after *models.Project) (*models.ActivityLogEntry, error)

	// RecordTaskEvent persists a fixed templated message for non-diffed
	// task events (created, deleted, completed, assigned, unassigned).
	RecordTaskEvent(ctx context.Context, actorID uuid.UUID, action models.ActivityAction, task *models.Task) (*models.ActivityLogEntry, error)
	RecordBoardEvent(ctx context.Context, actorID uuid.UUID, action models.ActivityAction, board *models.Board) (*models.ActivityLogEntry, error)
	RecordProjectEvent(ctx context.Context, actorID uuid.UUID, action models.ActivityAction, project *models.Project) (*models.ActivityLogEntry, error)

	ProjectActivity(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error)
	TaskActivity(ctx context.Context, taskID uuid.UUID) ([]*models.ActivityLogEntry, error)
	BoardActivity(ctx context.Context, boardID uuid.UUID) ([]*models.ActivityLogEntry, error)
	UserActivity(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error)
	RecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLogEntry, error)
	ProjectStats(ctx context.Context, projectID uuid.UUID, since time.Time) (*models.ActivityStats, error)

	// EntryDiff returns the detail view for one entry's stored diff.
	// Entries without a usable diff return nil detail, not an error.
	EntryDiff(ctx context.Context, entryID uuid.UUID) (*diff.DiffDetails, error)
	// EntryFieldDiff returns the stored word-diff parts for one field.
	EntryFieldDiff(ctx context.Context, entryID uuid.UUID, field string) ([]models.TextDiffPart, error)
}

type activityService struct {
	repo     repositories.ActivityRepository
	resolver diff.Resolver
	narrator *diff.Narrator
	th       diff.Thresholds
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewActivityService creates an ActivityService.
func NewActivityService(repo repositories.ActivityRepository, resolver diff.Resolver, th diff.Thresholds, logger *zap.Logger) ActivityService {
	return &activityService{
		repo:     repo,
		resolver: resolver,
		narrator: diff.NewNarrator(th),
		th:       th,
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("activity-service"),
	}
}

var _ ActivityService = (*activityService)(nil)

func (s *activityService) RecordTaskUpdate(ctx context.Context, actorID uuid.UUID, before, after *models.Task) (*models.ActivityLogEntry, error) {
	dd, err := s.buildDiff(ctx, before.Snapshot(), after.Snapshot(), models.TaskFields)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoChanges) {
			return nil, nil
		}
		return nil, err
	}

	action := models.ActionTaskUpdated
	if soleStatusChangeTo(dd, models.TaskStatusDone) {
		action = models.ActionTaskCompleted
	}

	entry := &models.ActivityLogEntry{
		UserID:    actorID,
		Action:    action,
		Message:   s.narrator.Message("task", after.Title, dd),
		ProjectID: &after.ProjectID,
		BoardID:   after.BoardID,
		TaskID:    &after.ID,
		DiffData:  dd,
	}
	return entry, s.append(ctx, entry)
}

func (s *activityService) RecordBoardUpdate(ctx context.Context, actorID uuid.UUID, before, after *models.Board) (*models.ActivityLogEntry, error) {
	dd, err := s.buildDiff(ctx, before.Snapshot(), after.Snapshot(), models.BoardFields)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoChanges) {
			return nil, nil
		}
		return nil, err
	}

	entry := &models.ActivityLogEntry{
		UserID:    actorID,
		Action:    models.ActionBoardUpdated,
		Message:   s.narrator.Message("board", after.Name, dd),
		ProjectID: &after.ProjectID,
		BoardID:   &after.ID,
		DiffData:  dd,
	}
	return entry, s.append(ctx, entry)
}

func (s *activityService) RecordProjectUpdate(ctx context.Context, actorID uuid.UUID, before, after *models.Project) (*models.ActivityLogEntry, error) {
	dd, err := s.buildDiff(ctx, before.Snapshot(), after.Snapshot(), models.ProjectFields)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoChanges) {
			return nil, nil
		}
		return nil, err
	}

	entry := &models.ActivityLogEntry{
		UserID:    actorID,
		Action:    models.ActionProjectUpdated,
		Message:   s.narrator.Message("project", after.Name, dd),
		ProjectID: &after.ID,
		DiffData:  dd,
	}
	return entry, s.append(ctx, entry)
}

// buildDiff runs detection and building synchronously, then the
// foreign-key resolution pass. The diff is complete only after
// resolution finishes, so this must return before the entry is persisted.
func (s *activityService) buildDiff(ctx context.Context, before, after map[string]any, fields []string) (*models.DiffData, error) {
	changes := diff.DetectChanges(before, after, fields)
	dd, err := diff.BuildDiffDataWith(changes, s.th)
	if err != nil {
		return nil, err
	}
	diff.ResolveReferences(ctx, dd, s.resolver)
	return dd, nil
}

func (s *activityService) RecordTaskEvent(ctx context.Context, actorID uuid.UUID, action models.ActivityAction, task *models.Task) (*models.ActivityLogEntry, error) {
	entry := &models.ActivityLogEntry{
		UserID:    actorID,
		Action:    action,
		Message:   eventMessage(action, "task", task.Title),
		ProjectID: &task.ProjectID,
		BoardID:   task.BoardID,
		TaskID:    &task.ID,
	}
	return entry, s.append(ctx, entry)
}

func (s *activityService) RecordBoardEvent(ctx context.Context, actorID uuid.UUID, action models.ActivityAction, board *models.Board) (*models.ActivityLogEntry, error) {
	entry := &models.ActivityLogEntry{
		UserID:    actorID,
		Action:    action,
		Message:   eventMessage(action, "board", board.Name),
		ProjectID: &board.ProjectID,
		BoardID:   &board.ID,
	}
	return entry, s.append(ctx, entry)
}

func (s *activityService) RecordProjectEvent(ctx context.Context, actorID uuid.UUID, action models.ActivityAction, project *models.Project) (*models.ActivityLogEntry, error) {
	entry := &models.ActivityLogEntry{
		UserID:    actorID,
		Action:    action,
		Message:   eventMessage(action, "project", project.Name),
		ProjectID: &project.ID,
	}
	return entry, s.append(ctx, entry)
}

// append persists the entry, retrying transient store failures. The
// write is best-effort by contract: failures are logged and returned,
// and the calling mutation handler decides whether to retry later or
// proceed without an audit entry.
func (s *activityService) append(ctx context.Context, entry *models.ActivityLogEntry) error {
	err := retry.DoIfRetryable(ctx, s.retryCfg, func() error {
		return s.repo.Create(ctx, entry)
	})
	if err != nil {
		s.logger.Error("failed to persist activity entry",
			zap.String("action", string(entry.Action)),
			zap.String("user_id", entry.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("persist activity entry: %w", err)
	}
	return nil
}

func (s *activityService) ProjectActivity(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error) {
	return s.repo.ListByProject(ctx, projectID, clampLimit(limit), clampOffset(offset))
}

func (s *activityService) TaskActivity(ctx context.Context, taskID uuid.UUID) ([]*models.ActivityLogEntry, error) {
	return s.repo.ListByTask(ctx, taskID)
}

func (s *activityService) BoardActivity(ctx context.Context, boardID uuid.UUID) ([]*models.ActivityLogEntry, error) {
	return s.repo.ListByBoard(ctx, boardID)
}

func (s *activityService) UserActivity(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error) {
	return s.repo.ListByUser(ctx, userID, clampLimit(limit), clampOffset(offset))
}

func (s *activityService) RecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLogEntry, error) {
	return s.repo.ListRecentForUser(ctx, userID, clampLimit(limit))
}

func (s *activityService) ProjectStats(ctx context.Context, projectID uuid.UUID, since time.Time) (*models.ActivityStats, error) {
	byAction, err := s.repo.CountByAction(ctx, projectID, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate by action: %w", err)
	}
	daily, err := s.repo.CountDaily(ctx, projectID, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate daily: %w", err)
	}
	return &models.ActivityStats{Since: since, ByAction: byAction, Daily: daily}, nil
}

func (s *activityService) EntryDiff(ctx context.Context, entryID uuid.UUID) (*diff.DiffDetails, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return diff.Details(entry.DiffData), nil
}

func (s *activityService) EntryFieldDiff(ctx context.Context, entryID uuid.UUID, field string) ([]models.TextDiffPart, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return diff.TextDiffForField(entry.DiffData, field), nil
}

// soleStatusChangeTo reports whether the diff's only change moves status
// to the given value, which routes the entry onto the event-specific
// action (e.g. task completion) instead of a generic update.
func soleStatusChangeTo(dd *models.DiffData, status models.TaskStatus) bool {
	if dd.Summary.ChangeCount != 1 || dd.Summary.FieldsChanged[0] != models.FieldStatus {
		return false
	}
	newVal, _ := dd.Changes[models.FieldStatus].New.(string)
	return newVal == string(status)
}

// eventMessage renders the fixed template for non-diffed events.
func eventMessage(action models.ActivityAction, entityKind, entityName string) string {
	var verb string
	switch action {
	case models.ActionTaskCreated, models.ActionBoardCreated, models.ActionProjectCreated:
		verb = "Created"
	case models.ActionTaskDeleted, models.ActionBoardDeleted, models.ActionProjectDeleted:
		verb = "Deleted"
	case models.ActionTaskCompleted:
		verb = "Completed"
	case models.ActionTaskAssigned:
		verb = "Assigned"
	case models.ActionTaskUnassigned:
		verb = "Unassigned"
	default:
		verb = "Updated"
	}
	return fmt.Sprintf("%s %s %q", verb, entityKind, entityName)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
