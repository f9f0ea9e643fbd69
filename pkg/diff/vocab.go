package diff

import "github.com/natty6418/task-flow-sub000/pkg/models"

// Shared display vocabulary. Narration and summary regeneration both
// read these tables, so the two render paths cannot drift. Unknown tags
// pass through unchanged.

var statusLabels = map[string]string{
	string(models.TaskStatusTodo):       "To Do",
	string(models.TaskStatusInProgress): "In Progress",
	string(models.TaskStatusDone):       "Done",
	string(models.TaskStatusCancelled):  "Cancelled",
	string(models.TaskStatusBlocked):    "Blocked",
}

var priorityLabels = map[string]string{
	string(models.TaskPriorityLow):    "Low",
	string(models.TaskPriorityMedium): "Medium",
	string(models.TaskPriorityHigh):   "High",
	string(models.TaskPriorityUrgent): "Urgent",
}

// StatusLabel returns the display label for a status tag.
func StatusLabel(tag string) string {
	if label, ok := statusLabels[tag]; ok {
		return label
	}
	return tag
}

// PriorityLabel returns the display label for a priority tag.
func PriorityLabel(tag string) string {
	if label, ok := priorityLabels[tag]; ok {
		return label
	}
	return tag
}

// fieldLabels maps stored field names to the nouns narration uses.
var fieldLabels = map[string]string{
	models.FieldTitle:       "title",
	models.FieldName:        "name",
	models.FieldDescription: "description",
	models.FieldStatus:      "status",
	models.FieldPriority:    "priority",
	models.FieldDueDate:     "due date",
	models.FieldAssignedTo:  "assignee",
	models.FieldBoard:       "board",
}

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}
