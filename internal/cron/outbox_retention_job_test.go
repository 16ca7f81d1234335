package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubRetentionRepo struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (r *stubRetentionRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	r.cutoffs = append(r.cutoffs, cutoff)
	return r.deleted, r.err
}

func TestRetentionDeletesBeyondWindow(t *testing.T) {
	repo := &stubRetentionRepo{deleted: 7}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(repo.cutoffs) != 1 {
		t.Fatalf("expected one delete call, got %d", len(repo.cutoffs))
	}
	want := now.AddDate(0, 0, -30)
	if !repo.cutoffs[0].Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoffs[0])
	}
}

func TestRetentionHonorsConfiguredWindow(t *testing.T) {
	repo := &stubRetentionRepo{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		Repository: repo,
		Retention:  7,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.AddDate(0, 0, -7); !repo.cutoffs[0].Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoffs[0])
	}
}

func TestRetentionPropagatesRepositoryError(t *testing.T) {
	repo := &stubRetentionRepo{err: errors.New("db down")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected the repository error surfaced")
	}
}
