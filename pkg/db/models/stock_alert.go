package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakandloom/workshop-backend/pkg/enums"
)

// StockAlert is raised when a material crosses a stock threshold. At most one
// active alert exists per (material, type); re-crossing the threshold while an
// alert is active is a no-op.
type StockAlert struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MaterialID       uuid.UUID             `gorm:"column:material_id;type:uuid;not null;index:idx_stock_alerts_material_type"`
	Material         *Material             `gorm:"foreignKey:MaterialID"`
	AlertType        enums.StockAlertType  `gorm:"column:alert_type;type:text;not null;index:idx_stock_alerts_material_type"`
	Status           enums.StockAlertStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Message          string                `gorm:"column:message;type:text;not null"`
	StockAtAlert     decimal.Decimal       `gorm:"column:stock_at_alert;type:numeric(12,2);not null"`
	AcknowledgedByID *uuid.UUID            `gorm:"column:acknowledged_by_id;type:uuid"`
	AcknowledgedBy   *User                 `gorm:"foreignKey:AcknowledgedByID"`
	AcknowledgedAt   *time.Time            `gorm:"column:acknowledged_at"`
	ResolvedAt       *time.Time            `gorm:"column:resolved_at"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
}
