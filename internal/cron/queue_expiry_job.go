package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/oakandloom/workshop-backend/internal/notifications"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	"github.com/oakandloom/workshop-backend/pkg/logger"
)

const defaultQueueExpiryInterval = time.Hour

type expiredQueueSource interface {
	ListExpired(ctx context.Context) ([]models.Order, error)
}

// QueueExpiryJobParams configure the stale queue sweep.
type QueueExpiryJobParams struct {
	Logger   *logger.Logger
	Queue    expiredQueueSource
	Notifier jobNotifier
	Interval time.Duration
}

// NewQueueExpiryJob flags queued orders that blew past their completion
// estimate. Expiry is advisory: nothing is cancelled, the order's creator is
// told to chase it.
func NewQueueExpiryJob(params QueueExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Queue == nil {
		return nil, fmt.Errorf("queue source required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultQueueExpiryInterval
	}
	return &queueExpiryJob{
		logg:     params.Logger,
		queue:    params.Queue,
		notifier: params.Notifier,
		interval: interval,
	}, nil
}

type queueExpiryJob struct {
	logg     *logger.Logger
	queue    expiredQueueSource
	notifier jobNotifier
	interval time.Duration
}

func (j *queueExpiryJob) Name() string            { return "queue-expiry" }
func (j *queueExpiryJob) Interval() time.Duration { return j.interval }

func (j *queueExpiryJob) Run(ctx context.Context) error {
	expired, err := j.queue.ListExpired(ctx)
	if err != nil {
		return fmt.Errorf("list expired orders: %w", err)
	}

	notified := 0
	for i := range expired {
		order := &expired[i]
		if order.CreatedByID == nil {
			continue
		}
		sent, err := j.notifyCreator(ctx, order)
		if err != nil {
			j.logg.Error(ctx, fmt.Sprintf("expiry notification for order %s failed", order.OrderNumber), err)
			continue
		}
		if sent {
			notified++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired_orders": len(expired),
		"notified":       notified,
	})
	j.logg.Info(logCtx, "queue expiry sweep complete")
	return nil
}

func (j *queueExpiryJob) notifyCreator(ctx context.Context, order *models.Order) (bool, error) {
	orderID := order.ID
	pending, err := j.notifier.HasUnread(ctx, notifications.UnreadQuery{
		RecipientID: *order.CreatedByID,
		Kind:        enums.NotificationKindWarning,
		OrderID:     &orderID,
	})
	if err != nil {
		return false, err
	}
	if pending {
		return false, nil
	}

	message := fmt.Sprintf("Order %s is still queued past its estimated completion date", order.OrderNumber)
	if order.EstimatedCompletionDate != nil {
		message = fmt.Sprintf("Order %s was estimated to complete by %s and is still queued",
			order.OrderNumber, order.EstimatedCompletionDate.Format("Jan 2"))
	}
	err = j.notifier.Notify(ctx, notifications.NotifyInput{
		RecipientID: *order.CreatedByID,
		Kind:        enums.NotificationKindWarning,
		Priority:    enums.NotificationPriorityHigh,
		Title:       "Queued order overdue",
		Message:     message,
		OrderID:     &orderID,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
