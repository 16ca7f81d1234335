package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog item the workshop manufactures.
type Product struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string          `gorm:"column:name;type:text;not null"`
	SKU                string          `gorm:"column:sku;type:text;not null;uniqueIndex"`
	Description        *string         `gorm:"column:description;type:text"`
	BasePrice          decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null;default:0"`
	EstimatedBuildDays int             `gorm:"column:estimated_build_days;not null;default:5"`
	IsActive           bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	BillOfMaterials []ProductMaterial `gorm:"foreignKey:ProductID"`
}

// ProductMaterial is one bill-of-materials line: how much of a material one
// unit of the product consumes.
type ProductMaterial struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_material"`
	MaterialID      uuid.UUID       `gorm:"column:material_id;type:uuid;not null;uniqueIndex:idx_product_material"`
	Material        *Material       `gorm:"foreignKey:MaterialID"`
	QuantityPerUnit decimal.Decimal `gorm:"column:quantity_per_unit;type:numeric(12,2);not null"`
	IsOptional      bool            `gorm:"column:is_optional;not null;default:false"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
