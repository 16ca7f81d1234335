package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakandloom/workshop-backend/pkg/enums"
)

// Order tracks a customer order across two coupled state machines: the order
// lifecycle (Status) and the production pipeline (ProductionStatus). The
// service layer keeps the two axes in sync; rows are never moved across
// states with raw updates.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string    `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Customer    *Customer `gorm:"foreignKey:CustomerID"`

	Status           enums.OrderStatus      `gorm:"column:status;type:text;not null;default:'pending'"`
	ProductionStatus enums.ProductionStatus `gorm:"column:production_status;type:text;not null;default:'not_started'"`
	PaymentStatus    enums.PaymentStatus    `gorm:"column:payment_status;type:text;not null;default:'deposit_pending'"`

	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	DepositAmount  decimal.Decimal `gorm:"column:deposit_amount;type:numeric(12,2);not null;default:0"`
	AmountPaid     decimal.Decimal `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	BalanceDue     decimal.Decimal `gorm:"column:balance_due;type:numeric(12,2);not null;default:0"`

	// Queue placement. Nil position means the order has not been admitted.
	QueuePosition           *int       `gorm:"column:queue_position;index"`
	IsPriority              bool       `gorm:"column:is_priority;not null;default:false"`
	QueuedAt                *time.Time `gorm:"column:queued_at"`
	EstimatedCompletionDate *time.Time `gorm:"column:estimated_completion_date"`

	DeliveryAddress *string    `gorm:"column:delivery_address;type:text"`
	DeliveryNotes   *string    `gorm:"column:delivery_notes;type:text"`
	DeliveredAt     *time.Time `gorm:"column:delivered_at"`
	CancelledAt     *time.Time `gorm:"column:cancelled_at"`

	Notes       *string    `gorm:"column:notes;type:text"`
	CreatedByID *uuid.UUID `gorm:"column:created_by_id;type:uuid"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// IsQueued reports whether the order holds a production queue slot.
func (o Order) IsQueued() bool {
	return o.QueuePosition != nil
}

// OrderItem is one product line on an order, with the customer's fabric and
// color selections frozen at order time.
type OrderItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Product   *Product  `gorm:"foreignKey:ProductID"`

	Quantity  int             `gorm:"column:quantity;not null;default:1"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`

	FabricID *uuid.UUID       `gorm:"column:fabric_id;type:uuid"`
	Fabric   *FabricReference `gorm:"foreignKey:FabricID"`
	ColorID  *uuid.UUID       `gorm:"column:color_id;type:uuid"`
	Color    *ColorReference  `gorm:"foreignKey:ColorID"`

	CustomNotes *string   `gorm:"column:custom_notes;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
