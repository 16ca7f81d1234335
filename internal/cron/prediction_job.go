package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/oakandloom/workshop-backend/pkg/logger"
)

const defaultPredictionInterval = 6 * time.Hour

type predictionRecalculator interface {
	RecalculateAll(ctx context.Context) (int, error)
}

// PredictionJobParams configure the consumption forecast refresh.
type PredictionJobParams struct {
	Logger    *logger.Logger
	Predictor predictionRecalculator
	Interval  time.Duration
}

// NewPredictionJob refreshes the material consumption forecasts.
func NewPredictionJob(params PredictionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Predictor == nil {
		return nil, fmt.Errorf("predictor required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultPredictionInterval
	}
	return &predictionJob{
		logg:      params.Logger,
		predictor: params.Predictor,
		interval:  interval,
	}, nil
}

type predictionJob struct {
	logg      *logger.Logger
	predictor predictionRecalculator
	interval  time.Duration
}

func (j *predictionJob) Name() string            { return "prediction-refresh" }
func (j *predictionJob) Interval() time.Duration { return j.interval }

func (j *predictionJob) Run(ctx context.Context) error {
	calculated, err := j.predictor.RecalculateAll(ctx)
	if err != nil {
		return fmt.Errorf("prediction refresh: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "materials_calculated", calculated)
	j.logg.Info(logCtx, "consumption forecasts refreshed")
	return nil
}
