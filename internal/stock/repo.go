package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	"github.com/oakandloom/workshop-backend/pkg/pagination"
)

// Repository exposes persistence helpers for materials, the movement ledger
// and stock alerts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateMaterial(ctx context.Context, material *models.Material) error
	FindMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error)
	UpdateMaterial(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateMaterialStock(ctx context.Context, id uuid.UUID, expected decimal.Decimal, updates map[string]any) (int64, error)
	ListMaterials(ctx context.Context, params listMaterialsParams) ([]models.Material, *pagination.Cursor, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	FindMovement(ctx context.Context, id uuid.UUID) (*models.StockMovement, error)
	ListMovements(ctx context.Context, params listMovementsParams) ([]models.StockMovement, *pagination.Cursor, error)
	FindActiveAlert(ctx context.Context, materialID uuid.UUID, alertType enums.StockAlertType) (*models.StockAlert, error)
	CreateAlert(ctx context.Context, alert *models.StockAlert) error
	ListAlerts(ctx context.Context, params listAlertsParams) ([]models.StockAlert, *pagination.Cursor, error)
	AcknowledgeAlert(ctx context.Context, alertID, userID uuid.UUID, now time.Time) (int64, error)
	ResolveAlert(ctx context.Context, alertID uuid.UUID, now time.Time) (int64, error)
	CountActiveAlerts(ctx context.Context) (map[enums.StockAlertType]int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listMaterialsParams struct {
	CategoryID   *uuid.UUID
	ActiveOnly   bool
	LowStockOnly bool
	Limit        int
	Cursor       *pagination.Cursor
}

type listMovementsParams struct {
	MaterialID *uuid.UUID
	OrderID    *uuid.UUID
	TaskID     *uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

type listAlertsParams struct {
	MaterialID *uuid.UUID
	Status     *enums.StockAlertStatus
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateMaterial(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *repositoryImpl) FindMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).Preload("Category").First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *repositoryImpl) UpdateMaterial(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Material{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateMaterialStock applies a guarded stock write: the update lands only if
// current_stock still equals the value read at the start of the operation.
func (r *repositoryImpl) UpdateMaterialStock(ctx context.Context, id uuid.UUID, expected decimal.Decimal, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Material{}).
		Where("id = ? AND current_stock = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) ListMaterials(ctx context.Context, params listMaterialsParams) ([]models.Material, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Material{})
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if params.LowStockOnly {
		query = query.Where("current_stock <= minimum_stock")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var materials []models.Material
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&materials).Error; err != nil {
		return nil, nil, err
	}

	if len(materials) > normalized {
		next := materials[normalized]
		materials = materials[:normalized]
		return materials, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return materials, nil, nil
}

func (r *repositoryImpl) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repositoryImpl) FindMovement(ctx context.Context, id uuid.UUID) (*models.StockMovement, error) {
	var movement models.StockMovement
	if err := r.db.WithContext(ctx).First(&movement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repositoryImpl) ListMovements(ctx context.Context, params listMovementsParams) ([]models.StockMovement, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.StockMovement{})
	if params.MaterialID != nil {
		query = query.Where("material_id = ?", *params.MaterialID)
	}
	if params.OrderID != nil {
		query = query.Where("order_id = ?", *params.OrderID)
	}
	if params.TaskID != nil {
		query = query.Where("task_id = ?", *params.TaskID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var movements []models.StockMovement
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&movements).Error; err != nil {
		return nil, nil, err
	}

	if len(movements) > normalized {
		next := movements[normalized]
		movements = movements[:normalized]
		return movements, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return movements, nil, nil
}

func (r *repositoryImpl) FindActiveAlert(ctx context.Context, materialID uuid.UUID, alertType enums.StockAlertType) (*models.StockAlert, error) {
	var alert models.StockAlert
	err := r.db.WithContext(ctx).
		Where("material_id = ? AND alert_type = ? AND status = ?", materialID, alertType, enums.StockAlertStatusActive).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repositoryImpl) CreateAlert(ctx context.Context, alert *models.StockAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *repositoryImpl) ListAlerts(ctx context.Context, params listAlertsParams) ([]models.StockAlert, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.StockAlert{}).Preload("Material")
	if params.MaterialID != nil {
		query = query.Where("material_id = ?", *params.MaterialID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var alerts []models.StockAlert
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&alerts).Error; err != nil {
		return nil, nil, err
	}

	if len(alerts) > normalized {
		next := alerts[normalized]
		alerts = alerts[:normalized]
		return alerts, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return alerts, nil, nil
}

func (r *repositoryImpl) AcknowledgeAlert(ctx context.Context, alertID, userID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StockAlert{}).
		Where("id = ? AND status = ?", alertID, enums.StockAlertStatusActive).
		Updates(map[string]any{
			"status":             enums.StockAlertStatusAcknowledged,
			"acknowledged_by_id": userID,
			"acknowledged_at":    now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) ResolveAlert(ctx context.Context, alertID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StockAlert{}).
		Where("id = ? AND status IN ?", alertID, []enums.StockAlertStatus{enums.StockAlertStatusActive, enums.StockAlertStatusAcknowledged}).
		Updates(map[string]any{
			"status":      enums.StockAlertStatusResolved,
			"resolved_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) CountActiveAlerts(ctx context.Context) (map[enums.StockAlertType]int64, error) {
	type row struct {
		AlertType enums.StockAlertType
		Total     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.StockAlert{}).
		Select("alert_type, COUNT(*) AS total").
		Where("status = ?", enums.StockAlertStatusActive).
		Group("alert_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.StockAlertType]int64, len(rows))
	for _, entry := range rows {
		counts[entry.AlertType] = entry.Total
	}
	return counts, nil
}
