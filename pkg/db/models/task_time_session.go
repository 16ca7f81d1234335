package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskTimeSession is one contiguous stretch of work on a task. A task has at
// most one open session (EndedAt null) at a time; the task service enforces
// this inside the start/pause/resume/complete transactions.
type TaskTimeSession struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TaskID          uuid.UUID  `gorm:"column:task_id;type:uuid;not null;index"`
	WorkerID        uuid.UUID  `gorm:"column:worker_id;type:uuid;not null;index"`
	StartedAt       time.Time  `gorm:"column:started_at;not null"`
	EndedAt         *time.Time `gorm:"column:ended_at"`
	DurationSeconds int64      `gorm:"column:duration_seconds;not null;default:0"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// IsOpen reports whether the session is still running.
func (s TaskTimeSession) IsOpen() bool {
	return s.EndedAt == nil
}
