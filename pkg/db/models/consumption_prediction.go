package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialConsumptionPrediction is a point-in-time shortage forecast for a
// material, derived from open orders. Exactly one row per material carries
// IsCurrent; recalculation flips the flag rather than deleting history.
type MaterialConsumptionPrediction struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MaterialID uuid.UUID `gorm:"column:material_id;type:uuid;not null;index"`
	Material   *Material `gorm:"foreignKey:MaterialID"`

	StockAtCalculation decimal.Decimal `gorm:"column:stock_at_calculation;type:numeric(12,2);not null"`
	TotalNeeded        decimal.Decimal `gorm:"column:total_needed;type:numeric(12,2);not null"`
	OrderCount         int             `gorm:"column:order_count;not null"`
	AvgPerOrder        decimal.Decimal `gorm:"column:avg_per_order;type:numeric(12,4);not null"`

	DaysUntilShortage     int        `gorm:"column:days_until_shortage;not null"`
	PredictedShortageDate *time.Time `gorm:"column:predicted_shortage_date"`
	SuggestedOrderQty     decimal.Decimal `gorm:"column:suggested_order_qty;type:numeric(12,2);not null"`

	IsCurrent    bool      `gorm:"column:is_current;not null;default:true;index"`
	CalculatedAt time.Time `gorm:"column:calculated_at;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
