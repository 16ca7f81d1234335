package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakandloom/workshop-backend/pkg/enums"
)

// StockMovement is one immutable ledger entry against a material. Edits and
// deletes of an entry go through reversal in the stock service, never through
// a raw row update.
type StockMovement struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MaterialID    uuid.UUID          `gorm:"column:material_id;type:uuid;not null;index"`
	Material      *Material          `gorm:"foreignKey:MaterialID"`
	MovementType  enums.MovementType `gorm:"column:movement_type;type:text;not null"`
	Quantity      decimal.Decimal    `gorm:"column:quantity;type:numeric(12,2);not null"`
	UnitCost      *decimal.Decimal   `gorm:"column:unit_cost;type:numeric(12,2)"`
	StockBefore   decimal.Decimal    `gorm:"column:stock_before;type:numeric(12,2);not null"`
	StockAfter    decimal.Decimal    `gorm:"column:stock_after;type:numeric(12,2);not null"`
	Reference     *string            `gorm:"column:reference;type:text"`
	Notes         *string            `gorm:"column:notes;type:text"`
	OrderID       *uuid.UUID         `gorm:"column:order_id;type:uuid;index"`
	TaskID        *uuid.UUID         `gorm:"column:task_id;type:uuid;index"`
	CreatedByID   *uuid.UUID         `gorm:"column:created_by_id;type:uuid"`
	CreatedBy     *User              `gorm:"foreignKey:CreatedByID"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime;index"`
}

// TotalCost is the cost attributed to this movement, zero when no unit cost
// was recorded.
func (m StockMovement) TotalCost() decimal.Decimal {
	if m.UnitCost == nil {
		return decimal.Zero
	}
	return m.Quantity.Mul(*m.UnitCost)
}
