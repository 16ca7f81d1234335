package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OrderHistory is an append-only record of order transitions. One row per
// transition, written in the same transaction as the transition itself.
type OrderHistory struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	// Field names the axis that changed: status, production_status,
	// payment_status, queue_position.
	Field     string  `gorm:"column:field;type:text;not null"`
	FromValue *string `gorm:"column:from_value;type:text"`
	ToValue   string  `gorm:"column:to_value;type:text;not null"`

	ChangedByID *uuid.UUID      `gorm:"column:changed_by_id;type:uuid"`
	ChangedBy   *User           `gorm:"foreignKey:ChangedByID"`
	Reason      *string         `gorm:"column:reason;type:text"`
	Metadata    json.RawMessage `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime;index"`
}
