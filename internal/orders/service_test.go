package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/internal/queue"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/outbox"
	"github.com/oakandloom/workshop-backend/pkg/pagination"
)

type stubOrderRepo struct {
	orders    map[uuid.UUID]*models.Order
	customers map[uuid.UUID]*models.Customer
	products  map[uuid.UUID]*models.Product
	fabrics   map[uuid.UUID]*models.FabricReference
	colors    map[uuid.UUID]*models.ColorReference
	history   []*models.OrderHistory
	nextSeq   int64
	guardRace bool
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		orders:    map[uuid.UUID]*models.Order{},
		customers: map[uuid.UUID]*models.Customer{},
		products:  map[uuid.UUID]*models.Product{},
		fabrics:   map[uuid.UUID]*models.FabricReference{},
		colors:    map[uuid.UUID]*models.ColorReference{},
	}
}

func (r *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubOrderRepo) NextOrderNumber(ctx context.Context) (string, error) {
	r.nextSeq++
	return fmt.Sprintf("OOX%06d", r.nextSeq), nil
}

func (r *stubOrderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now().UTC()
	r.orders[order.ID] = order
	return nil
}

func (r *stubOrderRepo) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *stubOrderRepo) FindOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	for _, order := range r.orders {
		if order.OrderNumber == number {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrderRepo) ListOrders(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	out := []models.Order{}
	for _, order := range r.orders {
		if params.Status != nil && order.Status != *params.Status {
			continue
		}
		out = append(out, *order)
	}
	return out, nil, nil
}

func (r *stubOrderRepo) UpdateOrderGuarded(ctx context.Context, id uuid.UUID, where map[string]any, updates map[string]any) (int64, error) {
	if r.guardRace {
		return 0, nil
	}
	order, ok := r.orders[id]
	if !ok {
		return 0, nil
	}
	for column, value := range where {
		switch column {
		case "status":
			if order.Status != value.(enums.OrderStatus) {
				return 0, nil
			}
		case "production_status":
			if order.ProductionStatus != value.(enums.ProductionStatus) {
				return 0, nil
			}
		case "payment_status":
			if order.PaymentStatus != value.(enums.PaymentStatus) {
				return 0, nil
			}
		}
	}
	for column, value := range updates {
		switch column {
		case "status":
			order.Status = value.(enums.OrderStatus)
		case "production_status":
			order.ProductionStatus = value.(enums.ProductionStatus)
		case "payment_status":
			order.PaymentStatus = value.(enums.PaymentStatus)
		case "total_amount":
			order.TotalAmount = value.(decimal.Decimal)
		case "deposit_amount":
			order.DepositAmount = value.(decimal.Decimal)
		case "amount_paid":
			order.AmountPaid = value.(decimal.Decimal)
		case "balance_due":
			order.BalanceDue = value.(decimal.Decimal)
		case "delivered_at":
			at := value.(time.Time)
			order.DeliveredAt = &at
		case "cancelled_at":
			at := value.(time.Time)
			order.CancelledAt = &at
		}
	}
	return 1, nil
}

func (r *stubOrderRepo) DeleteOrderGuarded(ctx context.Context, id uuid.UUID) (int64, error) {
	order, ok := r.orders[id]
	if !ok || order.ProductionStatus != enums.ProductionStatusNotStarted {
		return 0, nil
	}
	delete(r.orders, id)
	return 1, nil
}

func (r *stubOrderRepo) CreateHistory(ctx context.Context, entry *models.OrderHistory) error {
	r.history = append(r.history, entry)
	return nil
}

func (r *stubOrderRepo) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error) {
	out := []models.OrderHistory{}
	for _, entry := range r.history {
		if entry.OrderID == orderID {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return customer, nil
}

func (r *stubOrderRepo) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (r *stubOrderRepo) FindFabric(ctx context.Context, id uuid.UUID) (*models.FabricReference, error) {
	fabric, ok := r.fabrics[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return fabric, nil
}

func (r *stubOrderRepo) FindColor(ctx context.Context, id uuid.UUID) (*models.ColorReference, error) {
	color, ok := r.colors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return color, nil
}

func (r *stubOrderRepo) historyFor(orderID uuid.UUID, field string) []*models.OrderHistory {
	out := []*models.OrderHistory{}
	for _, entry := range r.history {
		if entry.OrderID == orderID && entry.Field == field {
			out = append(out, entry)
		}
	}
	return out
}

type stubOrderTxRunner struct{}

func (stubOrderTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOrderOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOrderOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubAdmitter struct {
	admitted []uuid.UUID
}

func (s *stubAdmitter) AdmitTx(ctx context.Context, tx *gorm.DB, order *models.Order, actorID uuid.UUID, actorRole enums.Role) (*queue.Admission, error) {
	s.admitted = append(s.admitted, order.ID)
	position := len(s.admitted)
	now := time.Now().UTC()
	order.QueuePosition = &position
	order.QueuedAt = &now
	return &queue.Admission{Position: position, QueuedAt: now}, nil
}

type orderFixture struct {
	svc      Service
	repo     *stubOrderRepo
	outbox   *stubOrderOutbox
	admitter *stubAdmitter
	customer uuid.UUID
	product  uuid.UUID
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	repo := newStubOrderRepo()
	outboxStub := &stubOrderOutbox{}
	admitter := &stubAdmitter{}
	svc, err := NewService(repo, stubOrderTxRunner{}, outboxStub, admitter)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	customerID := uuid.New()
	repo.customers[customerID] = &models.Customer{ID: customerID, Name: "Mena Haddad"}

	productID := uuid.New()
	repo.products[productID] = &models.Product{
		ID:        productID,
		Name:      "Two-seat sofa",
		SKU:       "SOFA-2S",
		BasePrice: decimal.NewFromInt(500),
		IsActive:  true,
	}

	return &orderFixture{
		svc:      svc,
		repo:     repo,
		outbox:   outboxStub,
		admitter: admitter,
		customer: customerID,
		product:  productID,
	}
}

func (f *orderFixture) createOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), CreateOrderInput{
		CustomerID:    f.customer,
		DepositAmount: decimal.NewFromInt(300),
		Items: []CreateOrderItemInput{
			{ProductID: f.product, Quantity: 2},
		},
		ActorID:   uuid.New(),
		ActorRole: enums.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestCreateOrderComputesTotals(t *testing.T) {
	f := newOrderFixture(t)

	order := f.createOrder(t)
	if order.OrderNumber != "OOX000001" {
		t.Fatalf("order number = %s", order.OrderNumber)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("total = %s, want 1000", order.TotalAmount)
	}
	if !order.BalanceDue.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("balance = %s, want 700", order.BalanceDue)
	}
	if len(order.Items) != 1 || !order.Items[0].LineTotal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected items %+v", order.Items)
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected events %+v", f.outbox.events)
	}
	if entries := f.repo.historyFor(order.ID, "status"); len(entries) != 1 || entries[0].ToValue != "pending" {
		t.Fatalf("unexpected history %+v", entries)
	}
}

func TestCreateOrderRejectsDiscontinuedFabric(t *testing.T) {
	f := newOrderFixture(t)
	fabricID := uuid.New()
	f.repo.fabrics[fabricID] = &models.FabricReference{ID: fabricID, Name: "Herringbone", IsActive: false}

	_, err := f.svc.Create(context.Background(), CreateOrderInput{
		CustomerID: f.customer,
		Items: []CreateOrderItemInput{
			{ProductID: f.product, Quantity: 1, FabricID: &fabricID},
		},
		ActorRole: enums.RoleAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetPaymentKeepsBalanceInvariant(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)

	newTotal := decimal.NewFromInt(1200)
	newDeposit := decimal.NewFromInt(400)
	updated, err := f.svc.SetPayment(context.Background(), SetPaymentInput{
		OrderID:       order.ID,
		TotalAmount:   &newTotal,
		DepositAmount: &newDeposit,
		ActorID:       uuid.New(),
		ActorRole:     enums.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("set payment: %v", err)
	}
	if !updated.BalanceDue.Equal(newTotal.Sub(newDeposit)) {
		t.Fatalf("balance = %s, want %s", updated.BalanceDue, newTotal.Sub(newDeposit))
	}
	if len(f.admitter.admitted) != 0 {
		t.Fatal("queue admission without deposit clearance")
	}
}

func TestDepositClearanceAdmitsToQueueOnce(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)

	depositPaid := enums.PaymentStatusDepositPaid
	if _, err := f.svc.SetPayment(context.Background(), SetPaymentInput{
		OrderID:       order.ID,
		PaymentStatus: &depositPaid,
		ActorID:       uuid.New(),
		ActorRole:     enums.RoleAdmin,
	}); err != nil {
		t.Fatalf("deposit payment: %v", err)
	}
	if len(f.admitter.admitted) != 1 {
		t.Fatalf("admissions = %d, want 1", len(f.admitter.admitted))
	}

	fullyPaid := enums.PaymentStatusFullyPaid
	if _, err := f.svc.SetPayment(context.Background(), SetPaymentInput{
		OrderID:       order.ID,
		PaymentStatus: &fullyPaid,
		ActorID:       uuid.New(),
		ActorRole:     enums.RoleAdmin,
	}); err != nil {
		t.Fatalf("final payment: %v", err)
	}
	if len(f.admitter.admitted) != 1 {
		t.Fatalf("admissions after full payment = %d, want 1", len(f.admitter.admitted))
	}
	if entries := f.repo.historyFor(order.ID, "payment_status"); len(entries) != 2 {
		t.Fatalf("payment history entries = %d, want 2", len(entries))
	}
}

func TestProductionNeverRegressesWithoutOverride(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)
	ctx := context.Background()

	if err := f.svc.AdvanceProduction(ctx, AdvanceProductionInput{
		OrderID: order.ID, Target: enums.ProductionStatusSewing,
		ActorID: uuid.New(), ActorRole: enums.RoleWarehouse,
	}); err != nil {
		t.Fatalf("advance to sewing: %v", err)
	}

	err := f.svc.AdvanceProduction(ctx, AdvanceProductionInput{
		OrderID: order.ID, Target: enums.ProductionStatusCutting,
		ActorID: uuid.New(), ActorRole: enums.RoleWarehouse,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden on regress, got %v", err)
	}

	if err := f.svc.AdvanceProduction(ctx, AdvanceProductionInput{
		OrderID: order.ID, Target: enums.ProductionStatusCutting, Reason: "seam rework",
		ActorID: uuid.New(), ActorRole: enums.RoleOwner,
	}); err != nil {
		t.Fatalf("owner override: %v", err)
	}
	if got := f.repo.orders[order.ID].ProductionStatus; got != enums.ProductionStatusCutting {
		t.Fatalf("production status = %s, want cutting", got)
	}
}

func TestProductionSyncPullsOrderStatus(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)
	ctx := context.Background()

	if err := f.svc.AdvanceProduction(ctx, AdvanceProductionInput{
		OrderID: order.ID, Target: enums.ProductionStatusCutting,
		ActorID: uuid.New(), ActorRole: enums.RoleWarehouse,
	}); err != nil {
		t.Fatalf("advance to cutting: %v", err)
	}
	if got := f.repo.orders[order.ID].Status; got != enums.OrderStatusInProduction {
		t.Fatalf("order status = %s, want in_production", got)
	}

	if err := f.svc.AdvanceProduction(ctx, AdvanceProductionInput{
		OrderID: order.ID, Target: enums.ProductionStatusCompleted,
		ActorID: uuid.New(), ActorRole: enums.RoleWarehouse,
	}); err != nil {
		t.Fatalf("advance to completed: %v", err)
	}
	if got := f.repo.orders[order.ID].Status; got != enums.OrderStatusReadyForDelivery {
		t.Fatalf("order status = %s, want ready_for_delivery", got)
	}
	// Two production advances plus two synced status changes.
	if entries := f.repo.historyFor(order.ID, "production_status"); len(entries) != 2 {
		t.Fatalf("production history entries = %d, want 2", len(entries))
	}
	if entries := f.repo.historyFor(order.ID, "status"); len(entries) != 3 {
		t.Fatalf("status history entries = %d, want 3 (create plus two syncs)", len(entries))
	}
}

func TestDeleteBlockedOnceProductionStarted(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)
	ctx := context.Background()

	if err := f.svc.AdvanceProduction(ctx, AdvanceProductionInput{
		OrderID: order.ID, Target: enums.ProductionStatusCutting,
		ActorID: uuid.New(), ActorRole: enums.RoleAdmin,
	}); err != nil {
		t.Fatalf("advance: %v", err)
	}

	err := f.svc.Delete(ctx, DeleteInput{OrderID: order.ID, ActorID: uuid.New(), ActorRole: enums.RoleAdmin})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if err := f.svc.Cancel(ctx, CancelInput{OrderID: order.ID, Reason: "customer withdrew", ActorID: uuid.New(), ActorRole: enums.RoleAdmin}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	stored := f.repo.orders[order.ID]
	if stored.Status != enums.OrderStatusCancelled || stored.CancelledAt == nil {
		t.Fatalf("order not cancelled: %+v", stored)
	}
	entries := f.repo.historyFor(order.ID, "status")
	last := entries[len(entries)-1]
	if last.ToValue != "cancelled" || last.Reason == nil || *last.Reason != "customer withdrew" {
		t.Fatalf("unexpected cancel history %+v", last)
	}
}

func TestDeleteRemovesUntouchedOrder(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)

	if err := f.svc.Delete(context.Background(), DeleteInput{OrderID: order.ID, ActorID: uuid.New(), ActorRole: enums.RoleAdmin}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := f.repo.orders[order.ID]; ok {
		t.Fatal("order still present after delete")
	}
}

func TestStatusTransitionRoleGates(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)
	ctx := context.Background()

	// Warehouse may only mark orders ready for delivery.
	err := f.svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: order.ID, Target: enums.OrderStatusConfirmed,
		ActorID: uuid.New(), ActorRole: enums.RoleWarehouse,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for warehouse, got %v", err)
	}
	if err := f.svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: order.ID, Target: enums.OrderStatusReadyForDelivery,
		ActorID: uuid.New(), ActorRole: enums.RoleWarehouse,
	}); err != nil {
		t.Fatalf("warehouse mark ready: %v", err)
	}

	// Delivery walks ready -> out -> delivered and nothing else.
	if err := f.svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: order.ID, Target: enums.OrderStatusOutForDelivery,
		ActorID: uuid.New(), ActorRole: enums.RoleDelivery,
	}); err != nil {
		t.Fatalf("delivery out: %v", err)
	}
	if err := f.svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: order.ID, Target: enums.OrderStatusDelivered,
		ActorID: uuid.New(), ActorRole: enums.RoleDelivery,
	}); err != nil {
		t.Fatalf("delivery delivered: %v", err)
	}
	if f.repo.orders[order.ID].DeliveredAt == nil {
		t.Fatal("delivered_at not stamped")
	}

	err = f.svc.Cancel(ctx, CancelInput{OrderID: order.ID, ActorID: uuid.New(), ActorRole: enums.RoleAdmin})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict cancelling delivered order, got %v", err)
	}
}

func TestUpdateStatusIdempotentOnSameTarget(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)
	eventsBefore := len(f.outbox.events)

	if err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID, Target: enums.OrderStatusPending,
		ActorID: uuid.New(), ActorRole: enums.RoleAdmin,
	}); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}
	if len(f.outbox.events) != eventsBefore {
		t.Fatal("no-op transition emitted an event")
	}
}

func TestUpdateStatusConcurrentConflict(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)
	f.repo.guardRace = true

	err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID, Target: enums.OrderStatusConfirmed,
		ActorID: uuid.New(), ActorRole: enums.RoleAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
