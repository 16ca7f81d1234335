package cron

import (
	"context"
	"errors"
	"testing"
)

type stubRecalculator struct {
	calculated int
	err        error
	calls      int
}

func (s *stubRecalculator) RecalculateAll(ctx context.Context) (int, error) {
	s.calls++
	return s.calculated, s.err
}

func TestPredictionJobRefreshesForecasts(t *testing.T) {
	predictor := &stubRecalculator{calculated: 4}
	job, err := NewPredictionJob(PredictionJobParams{
		Logger:    testLogger(),
		Predictor: predictor,
	})
	if err != nil {
		t.Fatalf("NewPredictionJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if predictor.calls != 1 {
		t.Fatalf("expected one recalculation, got %d", predictor.calls)
	}
}

func TestPredictionJobPropagatesFailure(t *testing.T) {
	predictor := &stubRecalculator{err: errors.New("db down")}
	job, err := NewPredictionJob(PredictionJobParams{
		Logger:    testLogger(),
		Predictor: predictor,
	})
	if err != nil {
		t.Fatalf("NewPredictionJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected the recalculation error surfaced")
	}
}
