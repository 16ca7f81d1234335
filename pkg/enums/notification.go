package enums

import "fmt"

// NotificationKind classifies an in-app notification.
type NotificationKind string

const (
	NotificationKindInfo          NotificationKind = "info"
	NotificationKindSuccess       NotificationKind = "success"
	NotificationKindWarning       NotificationKind = "warning"
	NotificationKindError         NotificationKind = "error"
	NotificationKindTaskAssigned  NotificationKind = "task_assigned"
	NotificationKindTaskCompleted NotificationKind = "task_completed"
	NotificationKindTaskApproved  NotificationKind = "task_approved"
	NotificationKindTaskRejected  NotificationKind = "task_rejected"
	NotificationKindTaskOverdue   NotificationKind = "task_overdue"
	NotificationKindStockAlert    NotificationKind = "stock_alert"
	NotificationKindQueueUpdate   NotificationKind = "queue_update"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindInfo,
	NotificationKindSuccess,
	NotificationKindWarning,
	NotificationKindError,
	NotificationKindTaskAssigned,
	NotificationKindTaskCompleted,
	NotificationKindTaskApproved,
	NotificationKindTaskRejected,
	NotificationKindTaskOverdue,
	NotificationKindStockAlert,
	NotificationKindQueueUpdate,
}

// String implements fmt.Stringer.
func (k NotificationKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known NotificationKind.
func (k NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}

// NotificationPriority ranks delivery urgency.
type NotificationPriority string

const (
	NotificationPriorityLow      NotificationPriority = "low"
	NotificationPriorityNormal   NotificationPriority = "normal"
	NotificationPriorityHigh     NotificationPriority = "high"
	NotificationPriorityCritical NotificationPriority = "critical"
)

// String implements fmt.Stringer.
func (p NotificationPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known NotificationPriority.
func (p NotificationPriority) IsValid() bool {
	switch p {
	case NotificationPriorityLow, NotificationPriorityNormal,
		NotificationPriorityHigh, NotificationPriorityCritical:
		return true
	default:
		return false
	}
}
