package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/internal/queue"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/outbox"
	"github.com/oakandloom/workshop-backend/pkg/outbox/payloads"
	"github.com/oakandloom/workshop-backend/pkg/pagination"
	"github.com/oakandloom/workshop-backend/pkg/roles"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type queueAdmitter interface {
	AdmitTx(ctx context.Context, tx *gorm.DB, order *models.Order, actorID uuid.UUID, actorRole enums.Role) (*queue.Admission, error)
}

// Service drives both order state machines. The commercial axis (Status) and
// the production axis (ProductionStatus) advance independently; syncAxes is
// the single place where one axis pushes the other. Every accepted transition
// appends an OrderHistory row and emits an outbox event in the same
// transaction.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, params ListParams) (*OrderList, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) error
	AdvanceProduction(ctx context.Context, input AdvanceProductionInput) error
	SetPayment(ctx context.Context, input SetPaymentInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) error
	Delete(ctx context.Context, input DeleteInput) error
	History(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	queue  queueAdmitter
}

// CreateOrderInput carries a new order with its line items.
type CreateOrderInput struct {
	CustomerID      uuid.UUID
	Items           []CreateOrderItemInput
	DepositAmount   decimal.Decimal
	DeliveryAddress *string
	DeliveryNotes   *string
	Notes           *string
	ActorID         uuid.UUID
	ActorRole       enums.Role
}

// CreateOrderItemInput is one product line. A zero UnitPrice takes the
// product's base price.
type CreateOrderItemInput struct {
	ProductID   uuid.UUID
	Quantity    int
	UnitPrice   decimal.Decimal
	FabricID    *uuid.UUID
	ColorID     *uuid.UUID
	CustomNotes *string
}

// UpdateStatusInput moves the commercial axis.
type UpdateStatusInput struct {
	OrderID   uuid.UUID
	Target    enums.OrderStatus
	Reason    string
	ActorID   uuid.UUID
	ActorRole enums.Role
}

// AdvanceProductionInput moves the production axis.
type AdvanceProductionInput struct {
	OrderID   uuid.UUID
	Target    enums.ProductionStatus
	Reason    string
	ActorID   uuid.UUID
	ActorRole enums.Role
}

// SetPaymentInput updates the financial triple. Nil fields keep their
// current values.
type SetPaymentInput struct {
	OrderID       uuid.UUID
	TotalAmount   *decimal.Decimal
	DepositAmount *decimal.Decimal
	AmountPaid    *decimal.Decimal
	PaymentStatus *enums.PaymentStatus
	ActorID       uuid.UUID
	ActorRole     enums.Role
}

// CancelInput cancels an order.
type CancelInput struct {
	OrderID   uuid.UUID
	Reason    string
	ActorID   uuid.UUID
	ActorRole enums.Role
}

// DeleteInput removes an order that never entered production.
type DeleteInput struct {
	OrderID   uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.Role
}

// ListParams configures order listing.
type ListParams struct {
	CustomerID       *uuid.UUID
	Status           *enums.OrderStatus
	ProductionStatus *enums.ProductionStatus
	QueuedOnly       bool
	Limit            int
	Cursor           string
}

// OrderList wraps a page of orders.
type OrderList struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}

// NewService wires the order state machine dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, queueSvc queueAdmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if queueSvc == nil {
		return nil, fmt.Errorf("queue admitter required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, queue: queueSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if !roles.Can(input.ActorRole, roles.CapManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot create orders")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	if input.DepositAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit must not be negative")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindCustomer(ctx, input.CustomerID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}

		items, total, err := s.buildItems(ctx, repo, input.Items)
		if err != nil {
			return err
		}
		if input.DepositAmount.GreaterThan(total) {
			return pkgerrors.New(pkgerrors.CodeValidation, "deposit exceeds order total")
		}

		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "next order number")
		}

		order = &models.Order{
			OrderNumber:      number,
			CustomerID:       input.CustomerID,
			Status:           enums.OrderStatusPending,
			ProductionStatus: enums.ProductionStatusNotStarted,
			PaymentStatus:    enums.PaymentStatusDepositPending,
			TotalAmount:      total,
			DepositAmount:    input.DepositAmount,
			BalanceDue:       total.Sub(input.DepositAmount),
			DeliveryAddress:  input.DeliveryAddress,
			DeliveryNotes:    input.DeliveryNotes,
			Notes:            input.Notes,
			Items:            items,
		}
		if input.ActorID != uuid.Nil {
			actorID := input.ActorID
			order.CreatedByID = &actorID
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := s.recordHistory(ctx, repo, order.ID, "status", nil, string(enums.OrderStatusPending), input.ActorID, ""); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(input.ActorID, input.ActorRole),
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				TotalAmount: order.TotalAmount,
				ItemCount:   len(order.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// buildItems resolves products and reference selections, freezing prices at
// order time.
func (s *service) buildItems(ctx context.Context, repo Repository, inputs []CreateOrderItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	total := decimal.Zero

	for i, line := range inputs {
		if line.Quantity <= 0 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		product, err := repo.FindProduct(ctx, line.ProductID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %d: product not found", i))
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: product %s is inactive", i, product.SKU))
		}

		unitPrice := line.UnitPrice
		if unitPrice.IsZero() {
			unitPrice = product.BasePrice
		}
		if unitPrice.IsNegative() {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: unit price must not be negative", i))
		}

		if line.FabricID != nil {
			fabric, err := repo.FindFabric(ctx, *line.FabricID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: unknown fabric", i))
				}
				return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fabric")
			}
			if !fabric.IsActive {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: fabric %s is discontinued", i, fabric.Name))
			}
		}
		if line.ColorID != nil {
			color, err := repo.FindColor(ctx, *line.ColorID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: unknown color", i))
				}
				return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load color")
			}
			if !color.IsActive {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: color %s is discontinued", i, color.Name))
			}
		}

		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
			FabricID:    line.FabricID,
			ColorID:     line.ColorID,
			CustomNotes: line.CustomNotes,
		})
		total = total.Add(lineTotal)
	}
	return items, total, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.loadOrder(ctx, s.repo, orderID)
}

func (s *service) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindOrderByNumber(ctx, number)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*OrderList, error) {
	query := listOrdersParams{
		CustomerID:       params.CustomerID,
		Status:           params.Status,
		ProductionStatus: params.ProductionStatus,
		QueuedOnly:       params.QueuedOnly,
		Limit:            params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListOrders(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &OrderList{Items: rows, Cursor: cursor}, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) error {
	if !input.Target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if input.Target == enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeValidation, "use cancel to cancel an order")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == input.Target {
			return nil
		}
		if order.Status.IsTerminal() {
			return statusRejected(string(order.Status), string(input.Target))
		}
		if !allowedStatusTransition(input.ActorRole, order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot perform this status transition")
		}

		updates := map[string]any{"status": input.Target}
		if input.Target == enums.OrderStatusDelivered {
			updates["delivered_at"] = time.Now().UTC()
		}
		affected, err := repo.UpdateOrderGuarded(ctx, order.ID, map[string]any{"status": order.Status}, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order transitioned concurrently")
		}

		from := string(order.Status)
		if err := s.recordHistory(ctx, repo, order.ID, "status", &from, string(input.Target), input.ActorID, input.Reason); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(input.ActorID, input.ActorRole),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				FromStatus:  order.Status,
				ToStatus:    input.Target,
				Reason:      input.Reason,
			},
		})
	})
}

func (s *service) AdvanceProduction(ctx context.Context, input AdvanceProductionInput) error {
	if !input.Target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid production status")
	}
	if !roles.Can(input.ActorRole, roles.CapAdvanceProduction) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot advance production")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
		}
		if order.ProductionStatus == input.Target {
			return nil
		}
		// The pipeline only moves forward; regressing needs the override
		// capability.
		if input.Target.Rank() < order.ProductionStatus.Rank() &&
			!roles.Can(input.ActorRole, roles.CapOverrideProduction) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "production stage cannot move backward")
		}

		affected, err := repo.UpdateOrderGuarded(ctx, order.ID,
			map[string]any{"production_status": order.ProductionStatus},
			map[string]any{"production_status": input.Target})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update production status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order transitioned concurrently")
		}

		from := string(order.ProductionStatus)
		if err := s.recordHistory(ctx, repo, order.ID, "production_status", &from, string(input.Target), input.ActorID, input.Reason); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderProductionAdvanced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(input.ActorID, input.ActorRole),
			Data: payloads.OrderProductionAdvancedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				FromStage:   order.ProductionStatus,
				ToStage:     input.Target,
			},
		}); err != nil {
			return err
		}

		return s.syncAxes(ctx, tx, repo, order, input.Target, input.ActorID, input.ActorRole)
	})
}

// syncAxes is the one coupling point between the production pipeline and the
// commercial lifecycle. Production leaving not_started pulls the order into
// in_production; production completing pulls it into ready_for_delivery.
func (s *service) syncAxes(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, stage enums.ProductionStatus, actorID uuid.UUID, actorRole enums.Role) error {
	var target enums.OrderStatus
	switch {
	case stage == enums.ProductionStatusCompleted &&
		order.Status.Rank() >= 0 && order.Status.Rank() < enums.OrderStatusReadyForDelivery.Rank():
		target = enums.OrderStatusReadyForDelivery
	case stage != enums.ProductionStatusNotStarted &&
		order.Status.Rank() >= 0 && order.Status.Rank() < enums.OrderStatusInProduction.Rank():
		target = enums.OrderStatusInProduction
	default:
		return nil
	}

	affected, err := repo.UpdateOrderGuarded(ctx, order.ID,
		map[string]any{"status": order.Status},
		map[string]any{"status": target})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync order status")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "order transitioned concurrently")
	}

	from := string(order.Status)
	if err := s.recordHistory(ctx, repo, order.ID, "status", &from, string(target), actorID, "production sync"); err != nil {
		return err
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         actorRef(actorID, actorRole),
		Data: payloads.OrderStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			FromStatus:  order.Status,
			ToStatus:    target,
			Reason:      "production sync",
		},
	})
}

func (s *service) SetPayment(ctx context.Context, input SetPaymentInput) (*models.Order, error) {
	if !roles.Can(input.ActorRole, roles.CapRecordPayments) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot record payments")
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
		}

		total := order.TotalAmount
		if input.TotalAmount != nil {
			total = *input.TotalAmount
		}
		deposit := order.DepositAmount
		if input.DepositAmount != nil {
			deposit = *input.DepositAmount
		}
		if total.IsNegative() || deposit.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
		}
		if deposit.GreaterThan(total) {
			return pkgerrors.New(pkgerrors.CodeValidation, "deposit exceeds order total")
		}

		amountPaid := order.AmountPaid
		if input.AmountPaid != nil {
			if input.AmountPaid.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "amount paid must not be negative")
			}
			amountPaid = *input.AmountPaid
		}

		paymentStatus := order.PaymentStatus
		if input.PaymentStatus != nil {
			paymentStatus = *input.PaymentStatus
		}

		// The balance is always total minus deposit, recomputed on every
		// financial mutation.
		balance := total.Sub(deposit)

		affected, err := repo.UpdateOrderGuarded(ctx, order.ID,
			map[string]any{"payment_status": order.PaymentStatus},
			map[string]any{
				"total_amount":   total,
				"deposit_amount": deposit,
				"amount_paid":    amountPaid,
				"balance_due":    balance,
				"payment_status": paymentStatus,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order transitioned concurrently")
		}

		if paymentStatus != order.PaymentStatus {
			from := string(order.PaymentStatus)
			if err := s.recordHistory(ctx, repo, order.ID, "payment_status", &from, string(paymentStatus), input.ActorID, ""); err != nil {
				return err
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentUpdated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(input.ActorID, input.ActorRole),
			Data: payloads.OrderPaymentUpdatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				PaymentStatus: paymentStatus,
				AmountPaid:    amountPaid,
				BalanceDue:    balance,
			},
		}); err != nil {
			return err
		}

		order.TotalAmount = total
		order.DepositAmount = deposit
		order.AmountPaid = amountPaid
		order.BalanceDue = balance

		// First deposit clearance admits the order to the production queue,
		// exactly once, inside this same transaction.
		if paymentStatus.DepositCleared() && !order.PaymentStatus.DepositCleared() {
			if _, err := s.queue.AdmitTx(ctx, tx, order, input.ActorID, input.ActorRole); err != nil {
				return err
			}
		}
		order.PaymentStatus = paymentStatus
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if !roles.Can(input.ActorRole, roles.CapCancelOrders) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot cancel orders")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return nil
		}
		if order.Status == enums.OrderStatusDelivered {
			return statusRejected(string(order.Status), string(enums.OrderStatusCancelled))
		}

		now := time.Now().UTC()
		affected, err := repo.UpdateOrderGuarded(ctx, order.ID,
			map[string]any{"status": order.Status},
			map[string]any{
				"status":       enums.OrderStatusCancelled,
				"cancelled_at": now,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order transitioned concurrently")
		}

		from := string(order.Status)
		if err := s.recordHistory(ctx, repo, order.ID, "status", &from, string(enums.OrderStatusCancelled), input.ActorID, input.Reason); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(input.ActorID, input.ActorRole),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CancelledAt: now,
				Reason:      input.Reason,
			},
		})
	})
}

func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	if !roles.Can(input.ActorRole, roles.CapManageOrders) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot delete orders")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.loadOrder(ctx, repo, input.OrderID); err != nil {
			return err
		}
		affected, err := repo.DeleteOrderGuarded(ctx, input.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already entered production; cancel it instead")
		}
		return nil
	})
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	entries, err := s.repo.ListHistory(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order history")
	}
	return entries, nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) recordHistory(ctx context.Context, repo Repository, orderID uuid.UUID, field string, from *string, to string, actorID uuid.UUID, reason string) error {
	entry := &models.OrderHistory{
		OrderID:   orderID,
		Field:     field,
		FromValue: from,
		ToValue:   to,
	}
	if actorID != uuid.Nil {
		id := actorID
		entry.ChangedByID = &id
	}
	if reason != "" {
		r := reason
		entry.Reason = &r
	}
	if err := repo.CreateHistory(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order history")
	}
	return nil
}

// allowedStatusTransition gates the commercial axis by capability. Managers
// move orders anywhere on the path; warehouse marks production output ready;
// delivery walks ready -> out -> delivered.
func allowedStatusTransition(role enums.Role, from, to enums.OrderStatus) bool {
	if roles.Can(role, roles.CapManageOrders) {
		return true
	}
	if roles.Can(role, roles.CapMarkOrderReady) && to == enums.OrderStatusReadyForDelivery {
		return true
	}
	if roles.Can(role, roles.CapUpdateDelivery) {
		switch {
		case from == enums.OrderStatusReadyForDelivery && to == enums.OrderStatusOutForDelivery:
			return true
		case from == enums.OrderStatusOutForDelivery && to == enums.OrderStatusDelivered:
			return true
		}
	}
	return false
}

func statusRejected(from, to string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order transition not allowed").
		WithDetails(map[string]string{
			"current_status":   from,
			"attempted_status": to,
		})
}

func actorRef(actorID uuid.UUID, role enums.Role) *outbox.ActorRef {
	if actorID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actorID, Role: string(role)}
}
