package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
)

type stubExpiredQueueSource struct {
	orders []models.Order
}

func (s *stubExpiredQueueSource) ListExpired(ctx context.Context) ([]models.Order, error) {
	return s.orders, nil
}

func expiredOrderFixture(creator *uuid.UUID) models.Order {
	estimate := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	return models.Order{
		ID:                      uuid.New(),
		OrderNumber:             "OOX000042",
		CreatedByID:             creator,
		EstimatedCompletionDate: &estimate,
	}
}

func newExpiryJob(t *testing.T, queue expiredQueueSource, notifier jobNotifier) Job {
	t.Helper()
	job, err := NewQueueExpiryJob(QueueExpiryJobParams{
		Logger:   testLogger(),
		Queue:    queue,
		Notifier: notifier,
	})
	if err != nil {
		t.Fatalf("NewQueueExpiryJob: %v", err)
	}
	return job
}

func TestExpirySweepWarnsOrderCreator(t *testing.T) {
	creator := uuid.New()
	order := expiredOrderFixture(&creator)
	notifier := &stubJobNotifier{}
	job := newExpiryJob(t, &stubExpiredQueueSource{orders: []models.Order{order}}, notifier)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(notifier.sent))
	}
	sent := notifier.sent[0].input
	if sent.RecipientID != creator {
		t.Fatalf("expected the creator warned, got %s", sent.RecipientID)
	}
	if sent.Kind != enums.NotificationKindWarning {
		t.Fatalf("unexpected kind %s", sent.Kind)
	}
	if sent.OrderID == nil || *sent.OrderID != order.ID {
		t.Fatal("warning must reference the stale order")
	}
}

func TestExpirySweepDedupesWhileUnread(t *testing.T) {
	creator := uuid.New()
	order := expiredOrderFixture(&creator)
	notifier := &stubJobNotifier{}
	job := newExpiryJob(t, &stubExpiredQueueSource{orders: []models.Order{order}}, notifier)

	for i := 0; i < 2; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected one warning while unread, got %d", len(notifier.sent))
	}
}

func TestExpirySweepSkipsOrdersWithoutCreator(t *testing.T) {
	notifier := &stubJobNotifier{}
	job := newExpiryJob(t, &stubExpiredQueueSource{orders: []models.Order{expiredOrderFixture(nil)}}, notifier)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no warnings for orders without a creator, got %d", len(notifier.sent))
	}
}
