package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/oakandloom/workshop-backend/pkg/db"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/metrics"
	"github.com/oakandloom/workshop-backend/pkg/outbox"
	"github.com/oakandloom/workshop-backend/pkg/outbox/payloads"
	"github.com/oakandloom/workshop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the stock ledger: all writes to a material's current stock flow
// through RecordMovement, which appends one immutable ledger entry per change.
type Service interface {
	CreateMaterial(ctx context.Context, input CreateMaterialInput) (*models.Material, error)
	UpdateMaterial(ctx context.Context, input UpdateMaterialInput) (*models.Material, error)
	DeactivateMaterial(ctx context.Context, materialID uuid.UUID) error
	GetMaterial(ctx context.Context, materialID uuid.UUID) (*models.Material, error)
	ListMaterials(ctx context.Context, params ListMaterialsParams) (*MaterialList, error)
	RecordMovement(ctx context.Context, input RecordMovementInput) (*models.StockMovement, error)
	RecordMovementTx(ctx context.Context, tx *gorm.DB, input RecordMovementInput) (*models.StockMovement, error)
	ReverseMovement(ctx context.Context, input ReverseMovementInput) (*models.StockMovement, error)
	AmendMovement(ctx context.Context, input AmendMovementInput) (*models.StockMovement, error)
	ListMovements(ctx context.Context, params ListMovementsParams) (*MovementList, error)
	ListAlerts(ctx context.Context, params ListAlertsParams) (*AlertList, error)
	AcknowledgeAlert(ctx context.Context, alertID, userID uuid.UUID) error
	ResolveAlert(ctx context.Context, alertID uuid.UUID) error
	CountActiveAlerts(ctx context.Context) (map[enums.StockAlertType]int64, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.WorkshopMetrics
}

// CreateMaterialInput carries the fields for inventory setup.
type CreateMaterialInput struct {
	Name          string
	CategoryID    *uuid.UUID
	Description   *string
	Unit          enums.MaterialUnit
	InitialStock  decimal.Decimal
	MinimumStock  decimal.Decimal
	IdealStock    decimal.Decimal
	CostPerUnit   decimal.Decimal
	IsCustomOrder bool
	LeadTimeDays  int
	ActorID       uuid.UUID
}

// UpdateMaterialInput mutates material metadata and thresholds. Current stock
// is not updatable here; it only moves through the ledger.
type UpdateMaterialInput struct {
	MaterialID   uuid.UUID
	Name         *string
	CategoryID   *uuid.UUID
	Description  *string
	MinimumStock *decimal.Decimal
	IdealStock   *decimal.Decimal
	CostPerUnit  *decimal.Decimal
	LeadTimeDays *int
}

// RecordMovementInput captures one ledger entry request.
type RecordMovementInput struct {
	MaterialID   uuid.UUID
	MovementType enums.MovementType
	Quantity     decimal.Decimal
	UnitCost     *decimal.Decimal
	Reference    *string
	Notes        *string
	OrderID      *uuid.UUID
	TaskID       *uuid.UUID
	ActorID      uuid.UUID
	ActorRole    string
}

// ReverseMovementInput requests a compensating adjustment for a prior entry.
type ReverseMovementInput struct {
	MovementID uuid.UUID
	Reason     string
	ActorID    uuid.UUID
	ActorRole  string
}

// AmendMovementInput replaces a prior entry's effect with corrected values.
type AmendMovementInput struct {
	MovementID   uuid.UUID
	MovementType enums.MovementType
	Quantity     decimal.Decimal
	UnitCost     *decimal.Decimal
	Notes        *string
	Reason       string
	ActorID      uuid.UUID
	ActorRole    string
}

// ListMaterialsParams configures material listing.
type ListMaterialsParams struct {
	CategoryID   *uuid.UUID
	ActiveOnly   bool
	LowStockOnly bool
	Limit        int
	Cursor       string
}

// ListMovementsParams configures ledger listing.
type ListMovementsParams struct {
	MaterialID *uuid.UUID
	OrderID    *uuid.UUID
	TaskID     *uuid.UUID
	Limit      int
	Cursor     string
}

// ListAlertsParams configures alert listing.
type ListAlertsParams struct {
	MaterialID *uuid.UUID
	Status     *enums.StockAlertStatus
	Limit      int
	Cursor     string
}

// MaterialList wraps a page of materials.
type MaterialList struct {
	Items  []models.Material `json:"items"`
	Cursor string            `json:"cursor"`
}

// MovementList wraps a page of ledger entries.
type MovementList struct {
	Items  []models.StockMovement `json:"items"`
	Cursor string                 `json:"cursor"`
}

// AlertList wraps a page of stock alerts.
type AlertList struct {
	Items  []models.StockAlert `json:"items"`
	Cursor string              `json:"cursor"`
}

// NewService wires the stock ledger dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, workshopMetrics *metrics.WorkshopMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outboxSvc,
		metrics: workshopMetrics,
	}, nil
}

func (s *service) CreateMaterial(ctx context.Context, input CreateMaterialInput) (*models.Material, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material name required")
	}
	if !input.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid material unit")
	}
	if input.InitialStock.IsNegative() || input.MinimumStock.IsNegative() || input.IdealStock.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock levels must not be negative")
	}

	leadTime := input.LeadTimeDays
	if leadTime <= 0 {
		leadTime = 7
	}
	material := &models.Material{
		Name:          input.Name,
		CategoryID:    input.CategoryID,
		Description:   input.Description,
		Unit:          input.Unit,
		MinimumStock:  input.MinimumStock,
		IdealStock:    input.IdealStock,
		CostPerUnit:   input.CostPerUnit,
		IsCustomOrder: input.IsCustomOrder,
		LeadTimeDays:  leadTime,
		IsActive:      true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateMaterial(ctx, material); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "material name already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create material")
		}
		if input.InitialStock.IsPositive() {
			unitCost := input.CostPerUnit
			reference := "initial stock"
			_, err := s.recordMovementTx(ctx, tx, RecordMovementInput{
				MaterialID:   material.ID,
				MovementType: enums.MovementTypeIn,
				Quantity:     input.InitialStock,
				UnitCost:     &unitCost,
				Reference:    &reference,
				ActorID:      input.ActorID,
			})
			if err != nil {
				return err
			}
			material.CurrentStock = input.InitialStock
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return material, nil
}

func (s *service) UpdateMaterial(ctx context.Context, input UpdateMaterialInput) (*models.Material, error) {
	if input.MaterialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.MinimumStock != nil {
		if input.MinimumStock.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum stock must not be negative")
		}
		updates["minimum_stock"] = *input.MinimumStock
	}
	if input.IdealStock != nil {
		if input.IdealStock.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "ideal stock must not be negative")
		}
		updates["ideal_stock"] = *input.IdealStock
	}
	if input.CostPerUnit != nil {
		updates["cost_per_unit"] = *input.CostPerUnit
	}
	if input.LeadTimeDays != nil {
		updates["lead_time_days"] = *input.LeadTimeDays
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no material fields to update")
	}

	if err := s.repo.UpdateMaterial(ctx, input.MaterialID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update material")
	}
	return s.GetMaterial(ctx, input.MaterialID)
}

func (s *service) DeactivateMaterial(ctx context.Context, materialID uuid.UUID) error {
	if materialID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	if err := s.repo.UpdateMaterial(ctx, materialID, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate material")
	}
	return nil
}

func (s *service) GetMaterial(ctx context.Context, materialID uuid.UUID) (*models.Material, error) {
	if materialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	material, err := s.repo.FindMaterial(ctx, materialID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
	}
	return material, nil
}

func (s *service) ListMaterials(ctx context.Context, params ListMaterialsParams) (*MaterialList, error) {
	query := listMaterialsParams{
		CategoryID:   params.CategoryID,
		ActiveOnly:   params.ActiveOnly,
		LowStockOnly: params.LowStockOnly,
		Limit:        params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListMaterials(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list materials")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &MaterialList{Items: rows, Cursor: cursor}, nil
}

func (s *service) RecordMovement(ctx context.Context, input RecordMovementInput) (*models.StockMovement, error) {
	var movement *models.StockMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.recordMovementTx(ctx, tx, input)
		if err != nil {
			return err
		}
		movement = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// RecordMovementTx appends a ledger entry inside a caller-owned transaction.
// Used by the allocation engine so the stock deduction commits or rolls back
// with the allocation itself.
func (s *service) RecordMovementTx(ctx context.Context, tx *gorm.DB, input RecordMovementInput) (*models.StockMovement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	return s.recordMovementTx(ctx, tx, input)
}

func (s *service) recordMovementTx(ctx context.Context, tx *gorm.DB, input RecordMovementInput) (*models.StockMovement, error) {
	if input.MaterialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	if !input.MovementType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type")
	}
	if input.MovementType == enums.MovementTypeAdjustment {
		if input.Quantity.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment quantity must not be zero")
		}
	} else if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement quantity must be positive")
	}

	repo := s.repo.WithTx(tx)
	material, err := repo.FindMaterial(ctx, input.MaterialID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
	}

	stockBefore := material.CurrentStock
	delta := input.Quantity
	if input.MovementType.Subtracts() {
		delta = delta.Neg()
	}
	stockAfter := stockBefore.Add(delta)
	if stockAfter.IsNegative() {
		// Outbound movements clamp to zero; the shortfall stays visible via
		// stock_before/stock_after on the ledger entry.
		stockAfter = decimal.Zero
	}

	now := time.Now().UTC()
	updates := map[string]any{"current_stock": stockAfter}
	if input.MovementType == enums.MovementTypeIn {
		updates["last_restock_date"] = now
		if input.UnitCost != nil && input.UnitCost.IsPositive() {
			updates["cost_per_unit"] = *input.UnitCost
		}
	}

	affected, err := repo.UpdateMaterialStock(ctx, material.ID, stockBefore, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply stock movement")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "material stock changed concurrently")
	}

	movement := &models.StockMovement{
		MaterialID:   material.ID,
		MovementType: input.MovementType,
		Quantity:     input.Quantity,
		UnitCost:     input.UnitCost,
		StockBefore:  stockBefore,
		StockAfter:   stockAfter,
		Reference:    input.Reference,
		Notes:        input.Notes,
		OrderID:      input.OrderID,
		TaskID:       input.TaskID,
	}
	if input.ActorID != uuid.Nil {
		actorID := input.ActorID
		movement.CreatedByID = &actorID
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventStockMovementRecorded,
		AggregateType: enums.AggregateMaterial,
		AggregateID:   material.ID,
		Version:       1,
		Actor:         buildActor(input.ActorID, input.ActorRole),
		Data: payloads.StockMovementRecordedEvent{
			MovementID:   movement.ID,
			MaterialID:   material.ID,
			MovementType: movement.MovementType,
			Quantity:     movement.Quantity,
			StockBefore:  stockBefore,
			StockAfter:   stockAfter,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, err
	}

	material.CurrentStock = stockAfter
	if err := s.raiseThresholdAlerts(ctx, tx, material, input); err != nil {
		return nil, err
	}

	s.metrics.IncStockMovement(string(input.MovementType))
	return movement, nil
}

// raiseThresholdAlerts raises at most one active alert per (material, type).
// A second threshold crossing while an alert is still active is a no-op.
func (s *service) raiseThresholdAlerts(ctx context.Context, tx *gorm.DB, material *models.Material, input RecordMovementInput) error {
	if !material.IsLowStock() {
		return nil
	}

	alertType := enums.StockAlertTypeLowStock
	if material.IsCriticalStock() {
		alertType = enums.StockAlertTypeCriticalStock
	}
	if err := s.raiseAlert(ctx, tx, material, alertType, input); err != nil {
		return err
	}
	if material.IsCustomOrder {
		return s.raiseAlert(ctx, tx, material, enums.StockAlertTypeCustomOrderNeeded, input)
	}
	return nil
}

func (s *service) raiseAlert(ctx context.Context, tx *gorm.DB, material *models.Material, alertType enums.StockAlertType, input RecordMovementInput) error {
	repo := s.repo.WithTx(tx)
	_, err := repo.FindActiveAlert(ctx, material.ID, alertType)
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active alert")
	}

	alert := &models.StockAlert{
		MaterialID:   material.ID,
		AlertType:    alertType,
		Status:       enums.StockAlertStatusActive,
		Message:      alertMessage(material, alertType),
		StockAtAlert: material.CurrentStock,
	}
	if err := repo.CreateAlert(ctx, alert); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_stock_alerts_active") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock alert")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventStockAlertRaised,
		AggregateType: enums.AggregateMaterial,
		AggregateID:   material.ID,
		Version:       1,
		Actor:         buildActor(input.ActorID, input.ActorRole),
		Data: payloads.StockAlertRaisedEvent{
			AlertID:      alert.ID,
			MaterialID:   material.ID,
			AlertType:    alertType,
			StockAtAlert: material.CurrentStock,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

func alertMessage(material *models.Material, alertType enums.StockAlertType) string {
	switch alertType {
	case enums.StockAlertTypeCriticalStock:
		return fmt.Sprintf("%s is critically low: %s %s on hand (minimum %s)",
			material.Name, material.CurrentStock.String(), material.Unit, material.MinimumStock.String())
	case enums.StockAlertTypeCustomOrderNeeded:
		return fmt.Sprintf("%s is a custom-order material and needs reordering (lead time %d days)",
			material.Name, material.LeadTimeDays)
	default:
		return fmt.Sprintf("%s is low: %s %s on hand (minimum %s)",
			material.Name, material.CurrentStock.String(), material.Unit, material.MinimumStock.String())
	}
}

func (s *service) ReverseMovement(ctx context.Context, input ReverseMovementInput) (*models.StockMovement, error) {
	if input.MovementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement id required")
	}

	var reversal *models.StockMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		original, err := s.findMovementTx(ctx, tx, input.MovementID)
		if err != nil {
			return err
		}
		created, err := s.reverseMovementTx(ctx, tx, original, input.Reason, input.ActorID, input.ActorRole)
		if err != nil {
			return err
		}
		if created == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "movement had no stock effect to reverse")
		}
		reversal = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

// AmendMovement corrects a prior ledger entry: the original effect is reversed
// and the corrected movement is applied, both inside one transaction. The
// ledger itself stays append-only.
func (s *service) AmendMovement(ctx context.Context, input AmendMovementInput) (*models.StockMovement, error) {
	if input.MovementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement id required")
	}

	var replacement *models.StockMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		original, err := s.findMovementTx(ctx, tx, input.MovementID)
		if err != nil {
			return err
		}
		if _, err := s.reverseMovementTx(ctx, tx, original, input.Reason, input.ActorID, input.ActorRole); err != nil {
			return err
		}

		reference := fmt.Sprintf("amends %s", original.ID)
		created, err := s.recordMovementTx(ctx, tx, RecordMovementInput{
			MaterialID:   original.MaterialID,
			MovementType: input.MovementType,
			Quantity:     input.Quantity,
			UnitCost:     input.UnitCost,
			Reference:    &reference,
			Notes:        input.Notes,
			OrderID:      original.OrderID,
			TaskID:       original.TaskID,
			ActorID:      input.ActorID,
			ActorRole:    input.ActorRole,
		})
		if err != nil {
			return err
		}
		replacement = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return replacement, nil
}

func (s *service) findMovementTx(ctx context.Context, tx *gorm.DB, movementID uuid.UUID) (*models.StockMovement, error) {
	movement, err := s.repo.WithTx(tx).FindMovement(ctx, movementID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "movement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movement")
	}
	return movement, nil
}

// reverseMovementTx appends a signed compensating adjustment instead of
// rewriting the original entry. The compensating quantity is the effect the
// row actually applied, so a clamped outbound movement gives back only what
// it removed.
func (s *service) reverseMovementTx(ctx context.Context, tx *gorm.DB, original *models.StockMovement, reason string, actorID uuid.UUID, actorRole string) (*models.StockMovement, error) {
	quantity := original.StockBefore.Sub(original.StockAfter)
	if quantity.IsZero() {
		// The movement changed nothing (fully clamped), so there is no
		// effect to compensate.
		return nil, nil
	}
	reference := fmt.Sprintf("reversal of %s", original.ID)
	notes := reason
	return s.recordMovementTx(ctx, tx, RecordMovementInput{
		MaterialID:   original.MaterialID,
		MovementType: enums.MovementTypeAdjustment,
		Quantity:     quantity,
		Reference:    &reference,
		Notes:        &notes,
		OrderID:      original.OrderID,
		TaskID:       original.TaskID,
		ActorID:      actorID,
		ActorRole:    actorRole,
	})
}

func (s *service) ListMovements(ctx context.Context, params ListMovementsParams) (*MovementList, error) {
	query := listMovementsParams{
		MaterialID: params.MaterialID,
		OrderID:    params.OrderID,
		TaskID:     params.TaskID,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListMovements(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &MovementList{Items: rows, Cursor: cursor}, nil
}

func (s *service) ListAlerts(ctx context.Context, params ListAlertsParams) (*AlertList, error) {
	query := listAlertsParams{
		MaterialID: params.MaterialID,
		Status:     params.Status,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListAlerts(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock alerts")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &AlertList{Items: rows, Cursor: cursor}, nil
}

func (s *service) AcknowledgeAlert(ctx context.Context, alertID, userID uuid.UUID) error {
	if alertID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "alert id required")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	affected, err := s.repo.AcknowledgeAlert(ctx, alertID, userID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acknowledge alert")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "alert is not active")
	}
	return nil
}

func (s *service) ResolveAlert(ctx context.Context, alertID uuid.UUID) error {
	if alertID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "alert id required")
	}

	affected, err := s.repo.ResolveAlert(ctx, alertID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve alert")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "alert is already resolved or missing")
	}
	return nil
}

func (s *service) CountActiveAlerts(ctx context.Context) (map[enums.StockAlertType]int64, error) {
	counts, err := s.repo.CountActiveAlerts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active alerts")
	}
	return counts, nil
}

func buildActor(userID uuid.UUID, role string) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role}
}
