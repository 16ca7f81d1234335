package prediction

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/pkg/config"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/outbox"
)

type stubPredictionRepo struct {
	materials   map[uuid.UUID]*models.Material
	demand      map[uuid.UUID]*Demand
	demandErr   map[uuid.UUID]error
	predictions []*models.MaterialConsumptionPrediction
	alerts      []*models.StockAlert
}

func newStubPredictionRepo() *stubPredictionRepo {
	return &stubPredictionRepo{
		materials: map[uuid.UUID]*models.Material{},
		demand:    map[uuid.UUID]*Demand{},
		demandErr: map[uuid.UUID]error{},
	}
}

func (r *stubPredictionRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubPredictionRepo) FindMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	material, ok := r.materials[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return material, nil
}

func (r *stubPredictionRepo) ListActiveMaterials(ctx context.Context) ([]models.Material, error) {
	out := []models.Material{}
	for _, material := range r.materials {
		if material.IsActive {
			out = append(out, *material)
		}
	}
	return out, nil
}

func (r *stubPredictionRepo) DemandForMaterial(ctx context.Context, materialID uuid.UUID) (*Demand, error) {
	if err := r.demandErr[materialID]; err != nil {
		return nil, err
	}
	if demand, ok := r.demand[materialID]; ok {
		return demand, nil
	}
	return &Demand{TotalNeeded: decimal.Zero}, nil
}

func (r *stubPredictionRepo) RetireCurrent(ctx context.Context, materialID uuid.UUID) error {
	for _, prediction := range r.predictions {
		if prediction.MaterialID == materialID {
			prediction.IsCurrent = false
		}
	}
	return nil
}

func (r *stubPredictionRepo) CreatePrediction(ctx context.Context, prediction *models.MaterialConsumptionPrediction) error {
	if prediction.ID == uuid.Nil {
		prediction.ID = uuid.New()
	}
	r.predictions = append(r.predictions, prediction)
	return nil
}

func (r *stubPredictionRepo) CurrentForMaterial(ctx context.Context, materialID uuid.UUID) (*models.MaterialConsumptionPrediction, error) {
	for _, prediction := range r.predictions {
		if prediction.MaterialID == materialID && prediction.IsCurrent {
			return prediction, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPredictionRepo) ListCurrent(ctx context.Context) ([]models.MaterialConsumptionPrediction, error) {
	out := []models.MaterialConsumptionPrediction{}
	for _, prediction := range r.predictions {
		if prediction.IsCurrent {
			out = append(out, *prediction)
		}
	}
	return out, nil
}

func (r *stubPredictionRepo) ListForMaterial(ctx context.Context, materialID uuid.UUID, limit int) ([]models.MaterialConsumptionPrediction, error) {
	out := []models.MaterialConsumptionPrediction{}
	for _, prediction := range r.predictions {
		if prediction.MaterialID == materialID {
			out = append(out, *prediction)
		}
	}
	return out, nil
}

func (r *stubPredictionRepo) FindActiveAlert(ctx context.Context, materialID uuid.UUID, alertType enums.StockAlertType) (*models.StockAlert, error) {
	for _, alert := range r.alerts {
		if alert.MaterialID == materialID && alert.AlertType == alertType && alert.Status == enums.StockAlertStatusActive {
			return alert, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPredictionRepo) CreateAlert(ctx context.Context, alert *models.StockAlert) error {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	r.alerts = append(r.alerts, alert)
	return nil
}

type stubPredictionTxRunner struct{}

func (stubPredictionTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubPredictionOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubPredictionOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newPredictionService(t *testing.T, repo *stubPredictionRepo) (Service, *stubPredictionOutbox) {
	t.Helper()
	outboxStub := &stubPredictionOutbox{}
	svc, err := NewService(repo, stubPredictionTxRunner{}, outboxStub, config.PredictionConfig{SafetyFactor: 1.2}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, outboxStub
}

func seedMaterial(repo *stubPredictionRepo, stock int64) *models.Material {
	material := &models.Material{
		ID:           uuid.New(),
		Name:         "Oak veneer",
		Unit:         enums.MaterialUnitMeters,
		CurrentStock: decimal.NewFromInt(stock),
		MinimumStock: decimal.NewFromInt(5),
		IsActive:     true,
	}
	repo.materials[material.ID] = material
	return material
}

func TestCalculatePersistsShortageForecast(t *testing.T) {
	repo := newStubPredictionRepo()
	material := seedMaterial(repo, 10)
	repo.demand[material.ID] = &Demand{TotalNeeded: decimal.NewFromInt(25), OrderCount: 5}
	svc, outboxStub := newPredictionService(t, repo)

	prediction, err := svc.CalculateForMaterial(context.Background(), material.ID)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !prediction.TotalNeeded.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("total needed = %s", prediction.TotalNeeded)
	}
	if !prediction.AvgPerOrder.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("avg per order = %s", prediction.AvgPerOrder)
	}
	// 10 on hand, 5 consumed per order: two orders until dry.
	if prediction.DaysUntilShortage != 2 {
		t.Fatalf("days until shortage = %d, want 2", prediction.DaysUntilShortage)
	}
	if prediction.PredictedShortageDate == nil {
		t.Fatal("shortage date not set")
	}
	// Shortage of 15 with the 1.2 safety factor.
	if !prediction.SuggestedOrderQty.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("suggested qty = %s, want 18", prediction.SuggestedOrderQty)
	}
	if !prediction.IsCurrent {
		t.Fatal("snapshot not marked current")
	}

	if len(repo.alerts) != 1 || repo.alerts[0].AlertType != enums.StockAlertTypeReorderPoint {
		t.Fatalf("unexpected alerts %+v", repo.alerts)
	}
	if len(outboxStub.events) != 2 {
		t.Fatalf("events = %d, want alert plus prediction", len(outboxStub.events))
	}
	if outboxStub.events[0].EventType != enums.EventStockAlertRaised ||
		outboxStub.events[1].EventType != enums.EventPredictionCalculated {
		t.Fatalf("unexpected event order %+v", outboxStub.events)
	}
}

func TestRecalculationSupersedesPriorSnapshot(t *testing.T) {
	repo := newStubPredictionRepo()
	material := seedMaterial(repo, 10)
	repo.demand[material.ID] = &Demand{TotalNeeded: decimal.NewFromInt(25), OrderCount: 5}
	svc, _ := newPredictionService(t, repo)
	ctx := context.Background()

	first, err := svc.CalculateForMaterial(ctx, material.ID)
	if err != nil {
		t.Fatalf("first calculation: %v", err)
	}
	second, err := svc.CalculateForMaterial(ctx, material.ID)
	if err != nil {
		t.Fatalf("second calculation: %v", err)
	}

	if len(repo.predictions) != 2 {
		t.Fatalf("snapshot rows = %d, want 2", len(repo.predictions))
	}
	if first.IsCurrent {
		t.Fatal("first snapshot still current")
	}
	if !second.IsCurrent {
		t.Fatal("second snapshot not current")
	}
	if !first.TotalNeeded.Equal(second.TotalNeeded) ||
		first.DaysUntilShortage != second.DaysUntilShortage ||
		!first.SuggestedOrderQty.Equal(second.SuggestedOrderQty) {
		t.Fatalf("recalculation changed values: %+v vs %+v", first, second)
	}
	// The first run's alert is still active, so no duplicate.
	if len(repo.alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(repo.alerts))
	}

	current, err := svc.Current(ctx, material.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.ID != second.ID {
		t.Fatal("current does not point at the latest snapshot")
	}
}

func TestNoShortageMeansNoAlert(t *testing.T) {
	repo := newStubPredictionRepo()
	material := seedMaterial(repo, 100)
	repo.demand[material.ID] = &Demand{TotalNeeded: decimal.NewFromInt(25), OrderCount: 5}
	svc, outboxStub := newPredictionService(t, repo)

	prediction, err := svc.CalculateForMaterial(context.Background(), material.ID)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if prediction.DaysUntilShortage != 0 || prediction.PredictedShortageDate != nil {
		t.Fatalf("unexpected shortage fields %+v", prediction)
	}
	if !prediction.SuggestedOrderQty.IsZero() {
		t.Fatalf("suggested qty = %s, want 0", prediction.SuggestedOrderQty)
	}
	if len(repo.alerts) != 0 {
		t.Fatalf("alerts = %d, want 0", len(repo.alerts))
	}
	if len(outboxStub.events) != 1 || outboxStub.events[0].EventType != enums.EventPredictionCalculated {
		t.Fatalf("unexpected events %+v", outboxStub.events)
	}
}

func TestRecalculateAllSkipsFailingMaterials(t *testing.T) {
	repo := newStubPredictionRepo()
	healthy := seedMaterial(repo, 10)
	repo.demand[healthy.ID] = &Demand{TotalNeeded: decimal.NewFromInt(5), OrderCount: 1}
	broken := seedMaterial(repo, 10)
	repo.demandErr[broken.ID] = errors.New("join blew up")
	svc, _ := newPredictionService(t, repo)

	calculated, err := svc.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("recalculate all: %v", err)
	}
	if calculated != 1 {
		t.Fatalf("calculated = %d, want 1", calculated)
	}
}

func TestCalculateUnknownMaterial(t *testing.T) {
	repo := newStubPredictionRepo()
	svc, _ := newPredictionService(t, repo)

	_, err := svc.CalculateForMaterial(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
