package enums

import "fmt"

// TaskPriority orders tasks in worker queues.
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityNormal   TaskPriority = "normal"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityUrgent   TaskPriority = "urgent"
	TaskPriorityCritical TaskPriority = "critical"
)

var validTaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityNormal,
	TaskPriorityHigh,
	TaskPriorityUrgent,
	TaskPriorityCritical,
}

// String implements fmt.Stringer.
func (p TaskPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known TaskPriority.
func (p TaskPriority) IsValid() bool {
	for _, candidate := range validTaskPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseTaskPriority converts raw input into a TaskPriority.
func ParseTaskPriority(value string) (TaskPriority, error) {
	for _, candidate := range validTaskPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task priority %q", value)
}

// TaskNoteType classifies a note attached to a task.
type TaskNoteType string

const (
	TaskNoteTypeGeneral         TaskNoteType = "general"
	TaskNoteTypeIssue           TaskNoteType = "issue"
	TaskNoteTypePause           TaskNoteType = "pause"
	TaskNoteTypeMaterialRequest TaskNoteType = "material_request"
	TaskNoteTypeRejection       TaskNoteType = "rejection"
	TaskNoteTypeCompletion      TaskNoteType = "completion"
)

// String implements fmt.Stringer.
func (t TaskNoteType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaskNoteType.
func (t TaskNoteType) IsValid() bool {
	switch t {
	case TaskNoteTypeGeneral, TaskNoteTypeIssue, TaskNoteTypePause,
		TaskNoteTypeMaterialRequest, TaskNoteTypeRejection, TaskNoteTypeCompletion:
		return true
	default:
		return false
	}
}
