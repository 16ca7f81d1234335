package prediction

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
)

// Demand aggregates open-pipeline consumption for one material.
type Demand struct {
	TotalNeeded decimal.Decimal
	OrderCount  int
}

// Repository exposes persistence helpers for consumption forecasting.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error)
	ListActiveMaterials(ctx context.Context) ([]models.Material, error)
	DemandForMaterial(ctx context.Context, materialID uuid.UUID) (*Demand, error)
	RetireCurrent(ctx context.Context, materialID uuid.UUID) error
	CreatePrediction(ctx context.Context, prediction *models.MaterialConsumptionPrediction) error
	CurrentForMaterial(ctx context.Context, materialID uuid.UUID) (*models.MaterialConsumptionPrediction, error)
	ListCurrent(ctx context.Context) ([]models.MaterialConsumptionPrediction, error)
	ListForMaterial(ctx context.Context, materialID uuid.UUID, limit int) ([]models.MaterialConsumptionPrediction, error)
	FindActiveAlert(ctx context.Context, materialID uuid.UUID, alertType enums.StockAlertType) (*models.StockAlert, error)
	CreateAlert(ctx context.Context, alert *models.StockAlert) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a prediction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *repositoryImpl) ListActiveMaterials(ctx context.Context) ([]models.Material, error) {
	var materials []models.Material
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("name ASC").
		Find(&materials).Error
	if err != nil {
		return nil, err
	}
	return materials, nil
}

// DemandForMaterial sums bill-of-materials consumption across every order
// still in the active pipeline whose production has not completed.
func (r *repositoryImpl) DemandForMaterial(ctx context.Context, materialID uuid.UUID) (*Demand, error) {
	var row struct {
		TotalNeeded decimal.Decimal
		OrderCount  int
	}
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("COALESCE(SUM(order_items.quantity * product_materials.quantity_per_unit), 0) AS total_needed, COUNT(DISTINCT orders.id) AS order_count").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN product_materials ON product_materials.product_id = order_items.product_id").
		Where("product_materials.material_id = ?", materialID).
		Where("orders.status IN ?", enums.ActivePipelineStatuses()).
		Where("orders.production_status IN ?", enums.ActiveProductionStatuses()).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &Demand{TotalNeeded: row.TotalNeeded, OrderCount: row.OrderCount}, nil
}

func (r *repositoryImpl) RetireCurrent(ctx context.Context, materialID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.MaterialConsumptionPrediction{}).
		Where("material_id = ? AND is_current = true", materialID).
		Update("is_current", false).Error
}

func (r *repositoryImpl) CreatePrediction(ctx context.Context, prediction *models.MaterialConsumptionPrediction) error {
	return r.db.WithContext(ctx).Create(prediction).Error
}

func (r *repositoryImpl) CurrentForMaterial(ctx context.Context, materialID uuid.UUID) (*models.MaterialConsumptionPrediction, error) {
	var prediction models.MaterialConsumptionPrediction
	err := r.db.WithContext(ctx).
		Preload("Material").
		First(&prediction, "material_id = ? AND is_current = true", materialID).Error
	if err != nil {
		return nil, err
	}
	return &prediction, nil
}

func (r *repositoryImpl) ListCurrent(ctx context.Context) ([]models.MaterialConsumptionPrediction, error) {
	var predictions []models.MaterialConsumptionPrediction
	err := r.db.WithContext(ctx).
		Preload("Material").
		Where("is_current = true").
		Order("days_until_shortage ASC, calculated_at DESC").
		Find(&predictions).Error
	if err != nil {
		return nil, err
	}
	return predictions, nil
}

func (r *repositoryImpl) ListForMaterial(ctx context.Context, materialID uuid.UUID, limit int) ([]models.MaterialConsumptionPrediction, error) {
	query := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("calculated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var predictions []models.MaterialConsumptionPrediction
	if err := query.Find(&predictions).Error; err != nil {
		return nil, err
	}
	return predictions, nil
}

func (r *repositoryImpl) FindActiveAlert(ctx context.Context, materialID uuid.UUID, alertType enums.StockAlertType) (*models.StockAlert, error) {
	var alert models.StockAlert
	err := r.db.WithContext(ctx).
		First(&alert, "material_id = ? AND alert_type = ? AND status = ?",
			materialID, alertType, enums.StockAlertStatusActive).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repositoryImpl) CreateAlert(ctx context.Context, alert *models.StockAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}
