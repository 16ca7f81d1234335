package enums

import "fmt"

// TaskStatus tracks the lifecycle of a warehouse task.
type TaskStatus string

const (
	TaskStatusAssigned     TaskStatus = "assigned"
	TaskStatusStarted      TaskStatus = "started"
	TaskStatusPaused       TaskStatus = "paused"
	TaskStatusCompleted    TaskStatus = "completed"
	TaskStatusReviewNeeded TaskStatus = "review_needed"
	TaskStatusApproved     TaskStatus = "approved"
	TaskStatusRejected     TaskStatus = "rejected"
	TaskStatusCancelled    TaskStatus = "cancelled"
)

var validTaskStatuses = []TaskStatus{
	TaskStatusAssigned,
	TaskStatusStarted,
	TaskStatusPaused,
	TaskStatusCompleted,
	TaskStatusReviewNeeded,
	TaskStatusApproved,
	TaskStatusRejected,
	TaskStatusCancelled,
}

// String implements fmt.Stringer.
func (s TaskStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TaskStatus.
func (s TaskStatus) IsValid() bool {
	for _, candidate := range validTaskStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the task can no longer change state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusApproved || s == TaskStatusCancelled
}

// CountsAsDone reports whether the task no longer counts toward overdue checks.
func (s TaskStatus) CountsAsDone() bool {
	return s == TaskStatusCompleted || s == TaskStatusApproved || s == TaskStatusCancelled
}

// ParseTaskStatus converts raw input into a TaskStatus.
func ParseTaskStatus(value string) (TaskStatus, error) {
	for _, candidate := range validTaskStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task status %q", value)
}
