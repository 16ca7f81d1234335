package allocation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/pkg/db/models"
)

// Repository exposes persistence helpers for task material requirements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRequirement(ctx context.Context, requirement *models.TaskMaterial) error
	FindRequirement(ctx context.Context, id uuid.UUID) (*models.TaskMaterial, error)
	ListForTask(ctx context.Context, taskID uuid.UUID) ([]models.TaskMaterial, error)
	FindMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error)
	FindTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	MarkAllocated(ctx context.Context, id uuid.UUID, quantity decimal.Decimal, movementID uuid.UUID) (int64, error)
	RecordShortfall(ctx context.Context, id uuid.UUID, shortfall decimal.Decimal) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an allocation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateRequirement(ctx context.Context, requirement *models.TaskMaterial) error {
	return r.db.WithContext(ctx).Create(requirement).Error
}

func (r *repositoryImpl) FindRequirement(ctx context.Context, id uuid.UUID) (*models.TaskMaterial, error) {
	var requirement models.TaskMaterial
	if err := r.db.WithContext(ctx).First(&requirement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &requirement, nil
}

func (r *repositoryImpl) ListForTask(ctx context.Context, taskID uuid.UUID) ([]models.TaskMaterial, error) {
	var requirements []models.TaskMaterial
	err := r.db.WithContext(ctx).
		Preload("Material").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&requirements).Error
	if err != nil {
		return nil, err
	}
	return requirements, nil
}

func (r *repositoryImpl) FindMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *repositoryImpl) FindTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// MarkAllocated claims the requirement row. The guard on allocated_quantity
// and movement_id makes concurrent claims lose with zero rows affected.
func (r *repositoryImpl) MarkAllocated(ctx context.Context, id uuid.UUID, quantity decimal.Decimal, movementID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TaskMaterial{}).
		Where("id = ? AND allocated_quantity = 0 AND movement_id IS NULL", id).
		Updates(map[string]any{
			"allocated_quantity": quantity,
			"shortfall_quantity": decimal.Zero,
			"movement_id":        movementID,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) RecordShortfall(ctx context.Context, id uuid.UUID, shortfall decimal.Decimal) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TaskMaterial{}).
		Where("id = ? AND movement_id IS NULL", id).
		Update("shortfall_quantity", shortfall)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
