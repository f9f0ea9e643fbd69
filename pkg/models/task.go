// Package models contains domain types for the task-flow activity engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
	TaskStatusBlocked    TaskStatus = "BLOCKED"
)

// TaskPriority is the urgency level of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// Task is the read model for a task. The activity engine never mutates
// tasks; it only reads before/after states to compute diffs.
type Task struct {
	ID           uuid.UUID    `json:"id"`
	ProjectID    uuid.UUID    `json:"project_id"`
	BoardID      *uuid.UUID   `json:"board_id,omitempty"`
	Title        string       `json:"title"`
	Description  *string      `json:"description,omitempty"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	DueDate      *time.Time   `json:"due_date,omitempty"`
	AssignedToID *uuid.UUID   `json:"assigned_to_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TaskFields is the ordered set of task fields the change detector
// inspects. The order determines fields_changed ordering in stored diffs.
var TaskFields = []string{
	FieldTitle,
	FieldDescription,
	FieldStatus,
	FieldPriority,
	FieldDueDate,
	FieldAssignedTo,
	FieldBoard,
}

// Snapshot returns the diffable view of the task, keyed by field name.
// Absent optional values are represented as untyped nil so the detector
// can classify additions and removals by presence alone.
func (t *Task) Snapshot() map[string]any {
	s := map[string]any{
		FieldTitle:    t.Title,
		FieldStatus:   string(t.Status),
		FieldPriority: string(t.Priority),
	}
	s[FieldDescription] = optString(t.Description)
	s[FieldDueDate] = optTime(t.DueDate)
	s[FieldAssignedTo] = optID(t.AssignedToID)
	s[FieldBoard] = optID(t.BoardID)
	return s
}

func optString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func optTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}

func optID(v *uuid.UUID) any {
	if v == nil {
		return nil
	}
	return v.String()
}
