package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/internal/notifications"
	"github.com/oakandloom/workshop-backend/pkg/config"
	"github.com/oakandloom/workshop-backend/pkg/db"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/logger"
	"github.com/oakandloom/workshop-backend/pkg/metrics"
	"github.com/oakandloom/workshop-backend/pkg/outbox"
	"github.com/oakandloom/workshop-backend/pkg/outbox/payloads"
	"github.com/oakandloom/workshop-backend/pkg/roles"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	NotifyTx(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) error
}

// Admission is the slot an order received on queue entry.
type Admission struct {
	Position            int
	QueuedAt            time.Time
	EstimatedCompletion time.Time
}

// Service manages production queue slots. Admission happens exactly once per
// order, inside the payment transaction that cleared the deposit.
type Service interface {
	AdmitTx(ctx context.Context, tx *gorm.DB, order *models.Order, actorID uuid.UUID, actorRole enums.Role) (*Admission, error)
	Escalate(ctx context.Context, input EscalateInput) error
	List(ctx context.Context, limit int) ([]models.Order, error)
	ListExpired(ctx context.Context) ([]models.Order, error)
	IsExpired(order *models.Order, now time.Time) bool
}

// EscalateInput flags an order as priority.
type EscalateInput struct {
	OrderID   uuid.UUID
	Reason    string
	ActorID   uuid.UUID
	ActorRole enums.Role
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier notifier
	cfg      config.QueueConfig
	metrics  *metrics.WorkshopMetrics
	logg     *logger.Logger
}

// NewService wires the queue scheduler dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, notifySvc notifier, cfg config.QueueConfig, workshopMetrics *metrics.WorkshopMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("queue repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cfg.EstimateBusinessDays <= 0 {
		return nil, fmt.Errorf("queue estimate days must be positive")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		notifier: notifySvc,
		cfg:      cfg,
		metrics:  workshopMetrics,
		logg:     logg,
	}, nil
}

// AdmitTx assigns the next queue position inside the caller's transaction.
// Positions are max+1 over every order ever admitted, so they only grow.
// Calling it for an already queued order is a no-op returning the held slot.
func (s *service) AdmitTx(ctx context.Context, tx *gorm.DB, order *models.Order, actorID uuid.UUID, actorRole enums.Role) (*Admission, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	repo := s.repo.WithTx(tx)

	if order.QueuePosition != nil {
		admission := &Admission{Position: *order.QueuePosition}
		if order.QueuedAt != nil {
			admission.QueuedAt = *order.QueuedAt
		}
		if order.EstimatedCompletionDate != nil {
			admission.EstimatedCompletion = *order.EstimatedCompletionDate
		}
		return admission, nil
	}

	max, err := repo.MaxPosition(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read queue positions")
	}

	now := time.Now().UTC()
	admission := &Admission{
		Position:            max + 1,
		QueuedAt:            now,
		EstimatedCompletion: AddBusinessDays(now, s.cfg.EstimateBusinessDays),
	}

	affected, err := repo.AssignSlot(ctx, order.ID, admission.Position, admission.QueuedAt, admission.EstimatedCompletion)
	if err != nil {
		// Two admissions racing for the same position lose on the partial
		// unique index, not on the guarded update.
		if db.IsUniqueViolation(err, "ux_orders_queue_position") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "queue position taken concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign queue slot")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order queued concurrently")
	}

	order.QueuePosition = &admission.Position
	order.QueuedAt = &admission.QueuedAt
	order.EstimatedCompletionDate = &admission.EstimatedCompletion

	entry := &models.OrderHistory{
		OrderID: order.ID,
		Field:   "queue_position",
		ToValue: strconv.Itoa(admission.Position),
	}
	if actorID != uuid.Nil {
		id := actorID
		entry.ChangedByID = &id
	}
	if err := repo.CreateHistory(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record queue admission")
	}

	if s.notifier != nil && order.CreatedByID != nil {
		s.notifyAdmission(ctx, tx, order, admission)
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderQueued,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         actorRef(actorID, actorRole),
		Data: payloads.OrderQueuedEvent{
			OrderID:                 order.ID,
			OrderNumber:             order.OrderNumber,
			QueuePosition:           admission.Position,
			EstimatedCompletionDate: admission.EstimatedCompletion,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, err
	}
	return admission, nil
}

func (s *service) Escalate(ctx context.Context, input EscalateInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !roles.Can(input.ActorRole, roles.CapEscalatePriority) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot escalate queue priority")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.IsQueued() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not in the production queue")
		}
		if order.IsPriority {
			return nil
		}

		affected, err := repo.MarkPriority(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark priority")
		}
		if affected == 0 {
			return nil
		}

		entry := &models.OrderHistory{
			OrderID: order.ID,
			Field:   "is_priority",
			ToValue: "true",
		}
		if input.ActorID != uuid.Nil {
			id := input.ActorID
			entry.ChangedByID = &id
		}
		if input.Reason != "" {
			reason := input.Reason
			entry.Reason = &reason
		}
		if err := repo.CreateHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record priority escalation")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPriorityEscalated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(input.ActorID, input.ActorRole),
			Data: payloads.OrderPriorityEscalatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Reason:      input.Reason,
			},
		})
	})
}

func (s *service) List(ctx context.Context, limit int) ([]models.Order, error) {
	orders, err := s.repo.ListQueued(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list queue")
	}
	if count, err := s.repo.CountQueued(ctx); err == nil {
		s.metrics.SetQueueDepth(float64(count))
	}
	return orders, nil
}

// ListExpired returns queued orders past their estimate plus the grace
// window. Expiry is a staleness flag, never an automatic cancellation.
func (s *service) ListExpired(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListQueued(ctx, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list queue")
	}

	now := time.Now().UTC()
	expired := []models.Order{}
	for _, order := range orders {
		if s.IsExpired(&order, now) {
			expired = append(expired, order)
		}
	}
	return expired, nil
}

func (s *service) IsExpired(order *models.Order, now time.Time) bool {
	if order == nil || !order.IsQueued() || order.EstimatedCompletionDate == nil {
		return false
	}
	deadline := AddBusinessDays(*order.EstimatedCompletionDate, s.cfg.ExpiryGraceDays)
	return now.After(deadline)
}

func (s *service) notifyAdmission(ctx context.Context, tx *gorm.DB, order *models.Order, admission *Admission) {
	input := notifications.NotifyInput{
		RecipientID: *order.CreatedByID,
		Kind:        enums.NotificationKindQueueUpdate,
		Title:       "Order entered production queue",
		Message: fmt.Sprintf("Order %s holds queue position %d, estimated completion %s",
			order.OrderNumber, admission.Position, admission.EstimatedCompletion.Format("2006-01-02")),
		OrderID: &order.ID,
	}
	if err := s.notifier.NotifyTx(ctx, tx, input); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("queue notification failed: %v", err))
	}
}

func actorRef(actorID uuid.UUID, role enums.Role) *outbox.ActorRef {
	if actorID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actorID, Role: string(role)}
}
