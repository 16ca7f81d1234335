package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	"github.com/oakandloom/workshop-backend/pkg/pagination"
)

// Repository exposes persistence helpers for orders, items and history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	ListOrders(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error)
	UpdateOrderGuarded(ctx context.Context, id uuid.UUID, where map[string]any, updates map[string]any) (int64, error)
	DeleteOrderGuarded(ctx context.Context, id uuid.UUID) (int64, error)
	CreateHistory(ctx context.Context, entry *models.OrderHistory) error
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error)
	FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindFabric(ctx context.Context, id uuid.UUID) (*models.FabricReference, error)
	FindColor(ctx context.Context, id uuid.UUID) (*models.ColorReference, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listOrdersParams struct {
	CustomerID       *uuid.UUID
	Status           *enums.OrderStatus
	ProductionStatus *enums.ProductionStatus
	QueuedOnly       bool
	Limit            int
	Cursor           *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// NextOrderNumber draws from a database sequence so concurrent creations
// never collide.
func (r *repositoryImpl) NextOrderNumber(ctx context.Context) (string, error) {
	var next int64
	err := r.db.WithContext(ctx).Raw("SELECT nextval('order_number_seq')").Scan(&next).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("OOX%06d", next), nil
}

func (r *repositoryImpl) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repositoryImpl) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Fabric").
		Preload("Items.Color").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) FindOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		First(&order, "order_number = ?", number).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) ListOrders(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Customer")

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.ProductionStatus != nil {
		query = query.Where("production_status = ?", *params.ProductionStatus)
	}
	if params.QueuedOnly {
		query = query.Where("queue_position IS NOT NULL")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var orders []models.Order
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&orders).Error
	if err != nil {
		return nil, nil, err
	}

	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		return orders, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return orders, nil, nil
}

// UpdateOrderGuarded applies updates only while the where conditions still
// hold. Zero rows affected means a concurrent transition won.
func (r *repositoryImpl) UpdateOrderGuarded(ctx context.Context, id uuid.UUID, where map[string]any, updates map[string]any) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id)
	for column, value := range where {
		query = query.Where(fmt.Sprintf("%s = ?", column), value)
	}
	result := query.Updates(updates)
	return result.RowsAffected, result.Error
}

// DeleteOrderGuarded removes the order only while production has not started.
func (r *repositoryImpl) DeleteOrderGuarded(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND production_status = ?", id, enums.ProductionStatusNotStarted).
		Delete(&models.Order{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CreateHistory(ctx context.Context, entry *models.OrderHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error) {
	var entries []models.OrderHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repositoryImpl) FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repositoryImpl) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) FindFabric(ctx context.Context, id uuid.UUID) (*models.FabricReference, error) {
	var fabric models.FabricReference
	if err := r.db.WithContext(ctx).First(&fabric, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &fabric, nil
}

func (r *repositoryImpl) FindColor(ctx context.Context, id uuid.UUID) (*models.ColorReference, error) {
	var color models.ColorReference
	if err := r.db.WithContext(ctx).First(&color, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &color, nil
}
