package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaskMaterial records a material allocation made for a task. Allocated rows
// are backed by a matching "out" stock movement written in the same
// transaction; ShortfallQuantity is non-zero when stock could not cover the
// full requirement.
type TaskMaterial struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TaskID     uuid.UUID `gorm:"column:task_id;type:uuid;not null;index"`
	MaterialID uuid.UUID `gorm:"column:material_id;type:uuid;not null;index"`
	Material   *Material `gorm:"foreignKey:MaterialID"`

	RequiredQuantity  decimal.Decimal `gorm:"column:required_quantity;type:numeric(12,2);not null"`
	AllocatedQuantity decimal.Decimal `gorm:"column:allocated_quantity;type:numeric(12,2);not null;default:0"`
	ShortfallQuantity decimal.Decimal `gorm:"column:shortfall_quantity;type:numeric(12,2);not null;default:0"`

	MovementID *uuid.UUID `gorm:"column:movement_id;type:uuid"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// IsFullyAllocated reports whether the requirement was met from stock.
func (tm TaskMaterial) IsFullyAllocated() bool {
	return tm.ShortfallQuantity.IsZero()
}
