package allocation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/internal/stock"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/outbox"
	"github.com/oakandloom/workshop-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Ledger is the slice of the stock service the allocation engine needs: the
// deduction is written through the ledger inside the allocation transaction.
type Ledger interface {
	RecordMovementTx(ctx context.Context, tx *gorm.DB, input stock.RecordMovementInput) (*models.StockMovement, error)
}

// Service binds material quantities to tasks, consuming them from stock.
type Service interface {
	AddRequirement(ctx context.Context, input AddRequirementInput) (*models.TaskMaterial, error)
	Allocate(ctx context.Context, input AllocateInput) (*Result, error)
	ListForTask(ctx context.Context, taskID uuid.UUID) ([]models.TaskMaterial, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger Ledger
	outbox outboxPublisher
}

// AddRequirementInput registers a material requirement against a task.
type AddRequirementInput struct {
	TaskID     uuid.UUID
	MaterialID uuid.UUID
	Quantity   decimal.Decimal
}

// AllocateInput requests a one-time allocation of a requirement.
type AllocateInput struct {
	TaskMaterialID uuid.UUID
	ActorID        uuid.UUID
	ActorRole      string
}

// Result reports the allocation outcome. Insufficient stock is a reported
// condition, not an error: Allocated is false and Shortfall carries the gap.
type Result struct {
	Allocated bool                  `json:"allocated"`
	Shortfall decimal.Decimal       `json:"shortfall"`
	Movement  *models.StockMovement `json:"movement,omitempty"`
}

// NewService wires the allocation engine dependencies.
func NewService(repo Repository, tx txRunner, ledger Ledger, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("allocation repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, ledger: ledger, outbox: outboxSvc}, nil
}

func (s *service) AddRequirement(ctx context.Context, input AddRequirementInput) (*models.TaskMaterial, error) {
	if input.TaskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}
	if input.MaterialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "required quantity must be positive")
	}

	if _, err := s.repo.FindTask(ctx, input.TaskID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
	}
	if _, err := s.repo.FindMaterial(ctx, input.MaterialID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
	}

	requirement := &models.TaskMaterial{
		TaskID:           input.TaskID,
		MaterialID:       input.MaterialID,
		RequiredQuantity: input.Quantity,
	}
	if err := s.repo.CreateRequirement(ctx, requirement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create task material")
	}
	return requirement, nil
}

func (s *service) Allocate(ctx context.Context, input AllocateInput) (*Result, error) {
	if input.TaskMaterialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task material id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		requirement, err := repo.FindRequirement(ctx, input.TaskMaterialID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "task material not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task material")
		}
		if requirement.MovementID != nil || requirement.AllocatedQuantity.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "task material already allocated")
		}

		material, err := repo.FindMaterial(ctx, requirement.MaterialID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
		}

		if material.CurrentStock.LessThan(requirement.RequiredQuantity) {
			shortfall := requirement.RequiredQuantity.Sub(material.CurrentStock)
			if _, err := repo.RecordShortfall(ctx, requirement.ID, shortfall); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record shortfall")
			}
			result = &Result{Allocated: false, Shortfall: shortfall}
			return nil
		}

		task, err := repo.FindTask(ctx, requirement.TaskID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
		}

		taskID := requirement.TaskID
		reference := fmt.Sprintf("allocation for task %s", taskID)
		movement, err := s.ledger.RecordMovementTx(ctx, tx, stock.RecordMovementInput{
			MaterialID:   requirement.MaterialID,
			MovementType: enums.MovementTypeOut,
			Quantity:     requirement.RequiredQuantity,
			Reference:    &reference,
			OrderID:      task.OrderID,
			TaskID:       &taskID,
			ActorID:      input.ActorID,
			ActorRole:    input.ActorRole,
		})
		if err != nil {
			return err
		}

		affected, err := repo.MarkAllocated(ctx, requirement.ID, requirement.RequiredQuantity, movement.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark allocated")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "task material allocated concurrently")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventMaterialAllocated,
			AggregateType: enums.AggregateMaterial,
			AggregateID:   requirement.MaterialID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole},
			Data: payloads.MaterialAllocatedEvent{
				TaskID:            requirement.TaskID,
				MaterialID:        requirement.MaterialID,
				RequiredQuantity:  requirement.RequiredQuantity,
				AllocatedQuantity: requirement.RequiredQuantity,
				ShortfallQuantity: decimal.Zero,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		result = &Result{Allocated: true, Shortfall: decimal.Zero, Movement: movement}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListForTask(ctx context.Context, taskID uuid.UUID) ([]models.TaskMaterial, error) {
	if taskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}
	requirements, err := s.repo.ListForTask(ctx, taskID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list task materials")
	}
	return requirements, nil
}
