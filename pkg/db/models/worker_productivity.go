package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorkerProductivity is a per-worker, per-day rollup computed by the cron
// worker from closed time sessions and task outcomes.
type WorkerProductivity struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WorkerID uuid.UUID `gorm:"column:worker_id;type:uuid;not null;uniqueIndex:idx_worker_productivity_day"`
	Day      time.Time `gorm:"column:day;type:date;not null;uniqueIndex:idx_worker_productivity_day"`

	TasksCompleted int   `gorm:"column:tasks_completed;not null;default:0"`
	TasksApproved  int   `gorm:"column:tasks_approved;not null;default:0"`
	TasksRejected  int   `gorm:"column:tasks_rejected;not null;default:0"`
	WorkedSeconds  int64 `gorm:"column:worked_seconds;not null;default:0"`

	EfficiencyRatio decimal.Decimal `gorm:"column:efficiency_ratio;type:numeric(8,4);not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
