package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakandloom/workshop-backend/pkg/enums"
)

// TaskType is a catalog of work kinds (cutting, sewing, assembly, ...), with
// a default duration used for estimates.
type TaskType struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description          *string   `gorm:"column:description;type:text"`
	DefaultDurationHours int       `gorm:"column:default_duration_hours;not null;default:4"`
	SequenceOrder        int       `gorm:"column:sequence_order;not null;default:0"`
	RequiresMaterials    bool      `gorm:"column:requires_materials;not null;default:false"`
	IsActive             bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Task is one unit of production work assigned to a worker. Status transitions
// go through the task service only; TotalWorkedSeconds is derived from closed
// time sessions.
type Task struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title  string    `gorm:"column:title;type:text;not null"`
	Detail *string   `gorm:"column:detail;type:text"`

	TypeID *uuid.UUID `gorm:"column:type_id;type:uuid"`
	Type   *TaskType  `gorm:"foreignKey:TypeID"`

	OrderID *uuid.UUID `gorm:"column:order_id;type:uuid;index"`
	Order   *Order     `gorm:"foreignKey:OrderID"`

	AssignedToID uuid.UUID `gorm:"column:assigned_to_id;type:uuid;not null;index"`
	AssignedTo   *User     `gorm:"foreignKey:AssignedToID"`
	AssignedByID *uuid.UUID `gorm:"column:assigned_by_id;type:uuid"`
	AssignedBy   *User      `gorm:"foreignKey:AssignedByID"`

	Status   enums.TaskStatus   `gorm:"column:status;type:text;not null;default:'assigned';index"`
	Priority enums.TaskPriority `gorm:"column:priority;type:text;not null;default:'normal'"`

	EstimatedHours     decimal.Decimal `gorm:"column:estimated_hours;type:numeric(8,2);not null;default:0"`
	TotalWorkedSeconds int64           `gorm:"column:total_worked_seconds;not null;default:0"`

	DueDate     *time.Time `gorm:"column:due_date;index"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	ApprovedAt  *time.Time `gorm:"column:approved_at"`

	RejectionReason *string `gorm:"column:rejection_reason;type:text"`
	RejectionCount  int     `gorm:"column:rejection_count;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsOverdue reports whether the task is past due and still open.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status.CountsAsDone() {
		return false
	}
	return now.After(*t.DueDate)
}
