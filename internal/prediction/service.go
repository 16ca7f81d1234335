package prediction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/pkg/config"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/logger"
	"github.com/oakandloom/workshop-backend/pkg/outbox"
	"github.com/oakandloom/workshop-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service forecasts material depletion from open order demand. Each
// recalculation writes a fresh snapshot row and retires the prior current
// one; history is never overwritten.
type Service interface {
	CalculateForMaterial(ctx context.Context, materialID uuid.UUID) (*models.MaterialConsumptionPrediction, error)
	RecalculateAll(ctx context.Context) (int, error)
	Current(ctx context.Context, materialID uuid.UUID) (*models.MaterialConsumptionPrediction, error)
	ListCurrent(ctx context.Context) ([]models.MaterialConsumptionPrediction, error)
	HistoryForMaterial(ctx context.Context, materialID uuid.UUID, limit int) ([]models.MaterialConsumptionPrediction, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	cfg    config.PredictionConfig
	logg   *logger.Logger
}

// NewService wires the consumption predictor dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, cfg config.PredictionConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("prediction repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cfg.SafetyFactor <= 0 {
		return nil, fmt.Errorf("safety factor must be positive")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, cfg: cfg, logg: logg}, nil
}

func (s *service) CalculateForMaterial(ctx context.Context, materialID uuid.UUID) (*models.MaterialConsumptionPrediction, error) {
	if materialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}

	var prediction *models.MaterialConsumptionPrediction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		material, err := repo.FindMaterial(ctx, materialID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
		}

		demand, err := repo.DemandForMaterial(ctx, material.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan demand")
		}

		prediction = s.buildSnapshot(material, demand)
		if err := repo.RetireCurrent(ctx, material.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire current prediction")
		}
		if err := repo.CreatePrediction(ctx, prediction); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create prediction")
		}

		if prediction.TotalNeeded.GreaterThan(prediction.StockAtCalculation) {
			if err := s.raiseReorderAlert(ctx, repo, tx, material, prediction); err != nil {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPredictionCalculated,
			AggregateType: enums.AggregateMaterial,
			AggregateID:   material.ID,
			Version:       1,
			Data: payloads.PredictionCalculatedEvent{
				PredictionID:      prediction.ID,
				MaterialID:        material.ID,
				TotalNeeded:       prediction.TotalNeeded,
				StockAtCalc:       prediction.StockAtCalculation,
				DaysUntilShortage: prediction.DaysUntilShortage,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return prediction, nil
}

// buildSnapshot derives the forecast numbers. Depletion is estimated in
// calendar days; the production queue estimates in business days, which is
// intentional since consumption does not stop over weekends.
func (s *service) buildSnapshot(material *models.Material, demand *Demand) *models.MaterialConsumptionPrediction {
	now := time.Now().UTC()
	snapshot := &models.MaterialConsumptionPrediction{
		MaterialID:         material.ID,
		StockAtCalculation: material.CurrentStock,
		TotalNeeded:        demand.TotalNeeded,
		OrderCount:         demand.OrderCount,
		AvgPerOrder:        decimal.Zero,
		IsCurrent:          true,
		CalculatedAt:       now,
	}
	if demand.OrderCount > 0 {
		snapshot.AvgPerOrder = demand.TotalNeeded.
			Div(decimal.NewFromInt(int64(demand.OrderCount))).
			Round(4)
	}

	shortage := demand.TotalNeeded.Sub(material.CurrentStock)
	if shortage.IsPositive() && snapshot.AvgPerOrder.IsPositive() {
		days := material.CurrentStock.Div(snapshot.AvgPerOrder).Floor().IntPart()
		if days < 1 {
			days = 1
		}
		snapshot.DaysUntilShortage = int(days)
		depletion := now.AddDate(0, 0, int(days))
		snapshot.PredictedShortageDate = &depletion
		snapshot.SuggestedOrderQty = shortage.
			Mul(decimal.NewFromFloat(s.cfg.SafetyFactor)).
			Round(2)
	} else {
		snapshot.SuggestedOrderQty = decimal.Zero
	}
	return snapshot
}

// raiseReorderAlert flags a forecast shortage at most once per material while
// the previous alert is still active.
func (s *service) raiseReorderAlert(ctx context.Context, repo Repository, tx *gorm.DB, material *models.Material, prediction *models.MaterialConsumptionPrediction) error {
	_, err := repo.FindActiveAlert(ctx, material.ID, enums.StockAlertTypeReorderPoint)
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check reorder alert")
	}

	alert := &models.StockAlert{
		MaterialID:   material.ID,
		AlertType:    enums.StockAlertTypeReorderPoint,
		Status:       enums.StockAlertStatusActive,
		Message: fmt.Sprintf("%s forecast to run short: %s %s needed by %d open orders, %s on hand",
			material.Name, prediction.TotalNeeded.String(), material.Unit,
			prediction.OrderCount, prediction.StockAtCalculation.String()),
		StockAtAlert: material.CurrentStock,
	}
	if err := repo.CreateAlert(ctx, alert); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reorder alert")
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockAlertRaised,
		AggregateType: enums.AggregateMaterial,
		AggregateID:   material.ID,
		Version:       1,
		Data: payloads.StockAlertRaisedEvent{
			AlertID:      alert.ID,
			MaterialID:   material.ID,
			AlertType:    enums.StockAlertTypeReorderPoint,
			StockAtAlert: material.CurrentStock,
		},
	})
}

// RecalculateAll refreshes the forecast for every active material. A failing
// material is logged and skipped so one bad row cannot stall the sweep.
func (s *service) RecalculateAll(ctx context.Context) (int, error) {
	materials, err := s.repo.ListActiveMaterials(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list materials")
	}

	calculated := 0
	for _, material := range materials {
		if _, err := s.CalculateForMaterial(ctx, material.ID); err != nil {
			if s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("prediction failed for material %s: %v", material.ID, err))
			}
			continue
		}
		calculated++
	}
	return calculated, nil
}

func (s *service) Current(ctx context.Context, materialID uuid.UUID) (*models.MaterialConsumptionPrediction, error) {
	if materialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	prediction, err := s.repo.CurrentForMaterial(ctx, materialID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no current prediction for material")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load prediction")
	}
	return prediction, nil
}

func (s *service) ListCurrent(ctx context.Context) ([]models.MaterialConsumptionPrediction, error) {
	predictions, err := s.repo.ListCurrent(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list predictions")
	}
	return predictions, nil
}

func (s *service) HistoryForMaterial(ctx context.Context, materialID uuid.UUID, limit int) ([]models.MaterialConsumptionPrediction, error) {
	if materialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	predictions, err := s.repo.ListForMaterial(ctx, materialID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list prediction history")
	}
	return predictions, nil
}
