package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakandloom/workshop-backend/pkg/enums"
)

// MaterialCategory groups materials (foam, wood, fabric, ...).
type MaterialCategory struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description *string   `gorm:"column:description;type:text"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Material is a stocked raw material. CurrentStock is mutated exclusively by
// the stock ledger; every change is backed by a StockMovement row.
type Material struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string             `gorm:"column:name;type:text;not null;uniqueIndex"`
	CategoryID      *uuid.UUID         `gorm:"column:category_id;type:uuid"`
	Category        *MaterialCategory  `gorm:"foreignKey:CategoryID"`
	Description     *string            `gorm:"column:description;type:text"`
	Unit            enums.MaterialUnit `gorm:"column:unit;type:text;not null"`
	CurrentStock    decimal.Decimal    `gorm:"column:current_stock;type:numeric(12,2);not null;default:0"`
	MinimumStock    decimal.Decimal    `gorm:"column:minimum_stock;type:numeric(12,2);not null;default:0"`
	IdealStock      decimal.Decimal    `gorm:"column:ideal_stock;type:numeric(12,2);not null;default:0"`
	CostPerUnit     decimal.Decimal    `gorm:"column:cost_per_unit;type:numeric(12,2);not null;default:0"`
	IsCustomOrder   bool               `gorm:"column:is_custom_order;not null;default:false"`
	LeadTimeDays    int                `gorm:"column:lead_time_days;not null;default:7"`
	IsActive        bool               `gorm:"column:is_active;not null;default:true"`
	LastRestockDate *time.Time         `gorm:"column:last_restock_date"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// IsLowStock reports whether current stock is at or below the minimum.
func (m Material) IsLowStock() bool {
	return m.CurrentStock.LessThanOrEqual(m.MinimumStock)
}

// IsCriticalStock reports whether current stock is at or below half the minimum.
func (m Material) IsCriticalStock() bool {
	half := m.MinimumStock.Div(decimal.NewFromInt(2))
	return m.CurrentStock.LessThanOrEqual(half)
}

// StockStatus derives the supply tier from the stock thresholds.
func (m Material) StockStatus() enums.StockStatus {
	switch {
	case m.IsCriticalStock():
		return enums.StockStatusCritical
	case m.IsLowStock():
		return enums.StockStatusLow
	case m.CurrentStock.GreaterThanOrEqual(m.IdealStock):
		return enums.StockStatusOptimal
	default:
		return enums.StockStatusNormal
	}
}

// TotalValue is the cost of the stock currently on hand.
func (m Material) TotalValue() decimal.Decimal {
	return m.CurrentStock.Mul(m.CostPerUnit)
}
