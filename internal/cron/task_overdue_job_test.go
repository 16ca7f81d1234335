package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oakandloom/workshop-backend/internal/notifications"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
)

type sentNotification struct {
	input notifications.NotifyInput
	read  bool
}

type stubJobNotifier struct {
	sent      []*sentNotification
	notifyErr error
}

func (n *stubJobNotifier) Notify(ctx context.Context, input notifications.NotifyInput) error {
	if n.notifyErr != nil {
		return n.notifyErr
	}
	n.sent = append(n.sent, &sentNotification{input: input})
	return nil
}

func (n *stubJobNotifier) HasUnread(ctx context.Context, params notifications.UnreadQuery) (bool, error) {
	for _, note := range n.sent {
		if note.read {
			continue
		}
		if note.input.RecipientID != params.RecipientID || note.input.Kind != params.Kind {
			continue
		}
		if params.TaskID != nil && (note.input.TaskID == nil || *note.input.TaskID != *params.TaskID) {
			continue
		}
		if params.OrderID != nil && (note.input.OrderID == nil || *note.input.OrderID != *params.OrderID) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (n *stubJobNotifier) markAllRead() {
	for _, note := range n.sent {
		note.read = true
	}
}

type stubOverdueTaskSource struct {
	tasks   []models.Task
	listErr error
}

func (s *stubOverdueTaskSource) ListOverdue(ctx context.Context, limit int) ([]models.Task, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if len(s.tasks) > limit {
		return s.tasks[:limit], nil
	}
	return s.tasks, nil
}

func (s *stubOverdueTaskSource) CountOverdue(ctx context.Context) (int64, error) {
	return int64(len(s.tasks)), nil
}

func overdueTaskFixture(worker uuid.UUID) models.Task {
	due := time.Date(2026, 8, 28, 17, 0, 0, 0, time.UTC)
	return models.Task{
		ID:           uuid.New(),
		Title:        "Cut sofa frame",
		AssignedToID: worker,
		DueDate:      &due,
	}
}

func newOverdueJob(t *testing.T, tasks overdueTaskSource, notifier jobNotifier) Job {
	t.Helper()
	job, err := NewTaskOverdueJob(TaskOverdueJobParams{
		Logger:   testLogger(),
		Tasks:    tasks,
		Notifier: notifier,
	})
	if err != nil {
		t.Fatalf("NewTaskOverdueJob: %v", err)
	}
	return job
}

func TestOverdueSweepNotifiesAssignee(t *testing.T) {
	worker := uuid.New()
	task := overdueTaskFixture(worker)
	source := &stubOverdueTaskSource{tasks: []models.Task{task}}
	notifier := &stubJobNotifier{}
	job := newOverdueJob(t, source, notifier)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	sent := notifier.sent[0].input
	if sent.RecipientID != worker {
		t.Fatalf("expected the assignee notified, got %s", sent.RecipientID)
	}
	if sent.Kind != enums.NotificationKindTaskOverdue {
		t.Fatalf("unexpected kind %s", sent.Kind)
	}
	if sent.Priority != enums.NotificationPriorityHigh {
		t.Fatalf("unexpected priority %s", sent.Priority)
	}
	if sent.TaskID == nil || *sent.TaskID != task.ID {
		t.Fatal("notification must link the overdue task")
	}
}

func TestOverdueSweepWaitsForReadBeforeRenotifying(t *testing.T) {
	worker := uuid.New()
	source := &stubOverdueTaskSource{tasks: []models.Task{overdueTaskFixture(worker)}}
	notifier := &stubJobNotifier{}
	job := newOverdueJob(t, source, notifier)

	for i := 0; i < 3; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected a single reminder while unread, got %d", len(notifier.sent))
	}

	notifier.markAllRead()
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run after read: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("expected a fresh reminder after the last one was read, got %d", len(notifier.sent))
	}
}

func TestOverdueSweepSurvivesNotifyFailures(t *testing.T) {
	worker := uuid.New()
	source := &stubOverdueTaskSource{tasks: []models.Task{overdueTaskFixture(worker)}}
	notifier := &stubJobNotifier{notifyErr: errors.New("smtp down")}
	job := newOverdueJob(t, source, notifier)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected per-task failures to be swallowed, got %v", err)
	}
}

func TestOverdueSweepPropagatesListError(t *testing.T) {
	source := &stubOverdueTaskSource{listErr: errors.New("db down")}
	job := newOverdueJob(t, source, &stubJobNotifier{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected an error when the overdue listing fails")
	}
}
