package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakandloom/workshop-backend/pkg/enums"
)

// OrderCreatedEvent signals a new customer order with its line items.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	CustomerID  uuid.UUID       `json:"customerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
}

// OrderStatusChangedEvent is emitted on every order lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	FromStatus  enums.OrderStatus `json:"fromStatus"`
	ToStatus    enums.OrderStatus `json:"toStatus"`
	Reason      string            `json:"reason,omitempty"`
}

// OrderProductionAdvancedEvent reports a production pipeline step.
type OrderProductionAdvancedEvent struct {
	OrderID     uuid.UUID              `json:"orderId"`
	OrderNumber string                 `json:"orderNumber"`
	FromStage   enums.ProductionStatus `json:"fromStage"`
	ToStage     enums.ProductionStatus `json:"toStage"`
}

// OrderPaymentUpdatedEvent reports a payment recalculation.
type OrderPaymentUpdatedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	OrderNumber   string              `json:"orderNumber"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	AmountPaid    decimal.Decimal     `json:"amountPaid"`
	BalanceDue    decimal.Decimal     `json:"balanceDue"`
}

// OrderCancelledEvent is emitted when an order is cancelled.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	CancelledAt time.Time `json:"cancelledAt"`
	Reason      string    `json:"reason,omitempty"`
}

// OrderQueuedEvent reports production queue admission.
type OrderQueuedEvent struct {
	OrderID                 uuid.UUID `json:"orderId"`
	OrderNumber             string    `json:"orderNumber"`
	QueuePosition           int       `json:"queuePosition"`
	EstimatedCompletionDate time.Time `json:"estimatedCompletionDate"`
}

// OrderPriorityEscalatedEvent reports a priority flag change.
type OrderPriorityEscalatedEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Reason      string    `json:"reason,omitempty"`
}

// TaskLifecycleEvent covers every task state transition.
type TaskLifecycleEvent struct {
	TaskID     uuid.UUID        `json:"taskId"`
	OrderID    *uuid.UUID       `json:"orderId,omitempty"`
	WorkerID   uuid.UUID        `json:"workerId"`
	FromStatus enums.TaskStatus `json:"fromStatus"`
	ToStatus   enums.TaskStatus `json:"toStatus"`
	Reason     string           `json:"reason,omitempty"`
}

// StockMovementRecordedEvent is emitted for every ledger entry.
type StockMovementRecordedEvent struct {
	MovementID   uuid.UUID          `json:"movementId"`
	MaterialID   uuid.UUID          `json:"materialId"`
	MovementType enums.MovementType `json:"movementType"`
	Quantity     decimal.Decimal    `json:"quantity"`
	StockBefore  decimal.Decimal    `json:"stockBefore"`
	StockAfter   decimal.Decimal    `json:"stockAfter"`
}

// StockAlertRaisedEvent reports a newly raised threshold alert.
type StockAlertRaisedEvent struct {
	AlertID      uuid.UUID            `json:"alertId"`
	MaterialID   uuid.UUID            `json:"materialId"`
	AlertType    enums.StockAlertType `json:"alertType"`
	StockAtAlert decimal.Decimal      `json:"stockAtAlert"`
}

// PredictionCalculatedEvent reports a fresh consumption forecast snapshot.
type PredictionCalculatedEvent struct {
	PredictionID      uuid.UUID       `json:"predictionId"`
	MaterialID        uuid.UUID       `json:"materialId"`
	TotalNeeded       decimal.Decimal `json:"totalNeeded"`
	StockAtCalc       decimal.Decimal `json:"stockAtCalculation"`
	DaysUntilShortage int             `json:"daysUntilShortage"`
}

// MaterialAllocatedEvent reports an allocation round against a task.
type MaterialAllocatedEvent struct {
	TaskID            uuid.UUID       `json:"taskId"`
	MaterialID        uuid.UUID       `json:"materialId"`
	RequiredQuantity  decimal.Decimal `json:"requiredQuantity"`
	AllocatedQuantity decimal.Decimal `json:"allocatedQuantity"`
	ShortfallQuantity decimal.Decimal `json:"shortfallQuantity"`
}
