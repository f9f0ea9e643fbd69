package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityAction tags the kind of mutation an activity log entry records.
type ActivityAction string

const (
	ActionTaskCreated    ActivityAction = "TASK_CREATED"
	ActionTaskUpdated    ActivityAction = "TASK_UPDATED"
	ActionTaskDeleted    ActivityAction = "TASK_DELETED"
	ActionTaskCompleted  ActivityAction = "TASK_COMPLETED"
	ActionTaskAssigned   ActivityAction = "TASK_ASSIGNED"
	ActionTaskUnassigned ActivityAction = "TASK_UNASSIGNED"

	ActionBoardCreated ActivityAction = "BOARD_CREATED"
	ActionBoardUpdated ActivityAction = "BOARD_UPDATED"
	ActionBoardDeleted ActivityAction = "BOARD_DELETED"

	ActionProjectCreated ActivityAction = "PROJECT_CREATED"
	ActionProjectUpdated ActivityAction = "PROJECT_UPDATED"
	ActionProjectDeleted ActivityAction = "PROJECT_DELETED"
)

// ActivityLogEntry is one immutable, timestamped, actor-attributed record
// of a mutation. Entries are created exactly once per mutation that
// produced an actual change, never updated, and deleted only as a cascade
// of deleting their owning project, task, or user.
//
// A task-scoped entry also carries the task's project and board ids so
// history can be queried at every level without a linking table.
type ActivityLogEntry struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Action    ActivityAction `json:"action"`
	Message   string         `json:"message"`
	ProjectID *uuid.UUID     `json:"project_id,omitempty"`
	BoardID   *uuid.UUID     `json:"board_id,omitempty"`
	TaskID    *uuid.UUID     `json:"task_id,omitempty"`
	DiffData  *DiffData      `json:"diff_data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ActionCount is one row of a per-action aggregation.
type ActionCount struct {
	Action ActivityAction `json:"action"`
	Count  int            `json:"count"`
}

// DailyCount is one row of a per-calendar-day aggregation. Day is the
// UTC date of created_at, formatted YYYY-MM-DD.
type DailyCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// ActivityStats bundles the aggregations backing activity-trend displays.
type ActivityStats struct {
	Since    time.Time     `json:"since"`
	ByAction []ActionCount `json:"by_action"`
	Daily    []DailyCount  `json:"daily"`
}
