package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
)

// Repository exposes the queue slice of the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MaxPosition(ctx context.Context) (int, error)
	AssignSlot(ctx context.Context, orderID uuid.UUID, position int, queuedAt time.Time, estimatedCompletion time.Time) (int64, error)
	MarkPriority(ctx context.Context, orderID uuid.UUID) (int64, error)
	ListQueued(ctx context.Context, limit int) ([]models.Order, error)
	CountQueued(ctx context.Context) (int64, error)
	CreateHistory(ctx context.Context, entry *models.OrderHistory) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a queue repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// MaxPosition scans every order ever queued, cancelled ones included, so
// positions are never reused after removal.
func (r *repositoryImpl) MaxPosition(ctx context.Context) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(MAX(queue_position), 0)").
		Scan(&max).Error
	return max, err
}

// AssignSlot claims the slot only while the order holds none. Zero rows
// affected means a concurrent admission won.
func (r *repositoryImpl) AssignSlot(ctx context.Context, orderID uuid.UUID, position int, queuedAt time.Time, estimatedCompletion time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND queue_position IS NULL", orderID).
		Updates(map[string]any{
			"queue_position":            position,
			"queued_at":                 queuedAt,
			"estimated_completion_date": estimatedCompletion,
		})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) MarkPriority(ctx context.Context, orderID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_priority = false", orderID).
		Update("is_priority", true)
	return result.RowsAffected, result.Error
}

// ListQueued returns orders still in the production pipeline, priority
// first, then admission order. Positions are never renumbered.
func (r *repositoryImpl) ListQueued(ctx context.Context, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Customer").
		Where("queue_position IS NOT NULL").
		Where("status NOT IN ?", []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled}).
		Order("is_priority DESC, queue_position ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, err
}

func (r *repositoryImpl) CreateHistory(ctx context.Context, entry *models.OrderHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) CountQueued(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("queue_position IS NOT NULL").
		Where("status NOT IN ?", []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled}).
		Count(&count).Error
	return count, err
}
