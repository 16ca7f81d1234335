package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/oakandloom/workshop-backend/internal/notifications"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	"github.com/oakandloom/workshop-backend/pkg/logger"
	"github.com/oakandloom/workshop-backend/pkg/metrics"
)

const (
	defaultOverdueInterval = 30 * time.Minute
	overdueScanLimit       = 200
)

type overdueTaskSource interface {
	ListOverdue(ctx context.Context, limit int) ([]models.Task, error)
	CountOverdue(ctx context.Context) (int64, error)
}

type jobNotifier interface {
	Notify(ctx context.Context, input notifications.NotifyInput) error
	HasUnread(ctx context.Context, params notifications.UnreadQuery) (bool, error)
}

// TaskOverdueJobParams configure the overdue task sweep.
type TaskOverdueJobParams struct {
	Logger   *logger.Logger
	Tasks    overdueTaskSource
	Notifier jobNotifier
	Metrics  *metrics.WorkshopMetrics
	Interval time.Duration
}

// NewTaskOverdueJob notifies assignees about tasks past their due date. A
// worker is reminded again only after reading the previous reminder.
func NewTaskOverdueJob(params TaskOverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tasks == nil {
		return nil, fmt.Errorf("task source required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultOverdueInterval
	}
	return &taskOverdueJob{
		logg:     params.Logger,
		tasks:    params.Tasks,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

type taskOverdueJob struct {
	logg     *logger.Logger
	tasks    overdueTaskSource
	notifier jobNotifier
	metrics  *metrics.WorkshopMetrics
	interval time.Duration
}

func (j *taskOverdueJob) Name() string            { return "task-overdue" }
func (j *taskOverdueJob) Interval() time.Duration { return j.interval }

func (j *taskOverdueJob) Run(ctx context.Context) error {
	overdue, err := j.tasks.ListOverdue(ctx, overdueScanLimit)
	if err != nil {
		return fmt.Errorf("list overdue tasks: %w", err)
	}

	notified := 0
	for i := range overdue {
		task := &overdue[i]
		sent, err := j.notifyAssignee(ctx, task)
		if err != nil {
			j.logg.Error(ctx, fmt.Sprintf("overdue notification for task %s failed", task.ID), err)
			continue
		}
		if sent {
			notified++
		}
	}

	count, err := j.tasks.CountOverdue(ctx)
	if err != nil {
		return fmt.Errorf("count overdue tasks: %w", err)
	}
	j.metrics.SetOverdueTasks(float64(count))

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"overdue_total": count,
		"notified":      notified,
	})
	j.logg.Info(logCtx, "overdue task sweep complete")
	return nil
}

func (j *taskOverdueJob) notifyAssignee(ctx context.Context, task *models.Task) (bool, error) {
	taskID := task.ID
	pending, err := j.notifier.HasUnread(ctx, notifications.UnreadQuery{
		RecipientID: task.AssignedToID,
		Kind:        enums.NotificationKindTaskOverdue,
		TaskID:      &taskID,
	})
	if err != nil {
		return false, err
	}
	if pending {
		return false, nil
	}

	message := fmt.Sprintf("%q is past its due date", task.Title)
	if task.DueDate != nil {
		message = fmt.Sprintf("%q was due %s", task.Title, task.DueDate.Format("Jan 2"))
	}
	err = j.notifier.Notify(ctx, notifications.NotifyInput{
		RecipientID: task.AssignedToID,
		Kind:        enums.NotificationKindTaskOverdue,
		Priority:    enums.NotificationPriorityHigh,
		Title:       "Task overdue",
		Message:     message,
		TaskID:      &taskID,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
