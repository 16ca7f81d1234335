package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/logger"
)

const defaultProductivityInterval = 24 * time.Hour

// ProductivityJobParams configure the daily worker rollup.
type ProductivityJobParams struct {
	Logger     *logger.Logger
	Repository ProductivityRepository
	Interval   time.Duration
}

// NewProductivityJob rolls closed time sessions and task outcomes into one
// row per worker per day. Re-running a window upserts, so overlapping sweeps
// are harmless.
func NewProductivityJob(params ProductivityJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("productivity repository required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultProductivityInterval
	}
	return &productivityJob{
		logg:     params.Logger,
		repo:     params.Repository,
		interval: interval,
		now:      time.Now,
	}, nil
}

type productivityJob struct {
	logg     *logger.Logger
	repo     ProductivityRepository
	interval time.Duration
	now      func() time.Time
}

func (j *productivityJob) Name() string            { return "productivity-rollup" }
func (j *productivityJob) Interval() time.Duration { return j.interval }

func (j *productivityJob) Run(ctx context.Context) error {
	// Yesterday and today, so a sweep shortly after midnight still finalizes
	// the day that just closed.
	today := j.now().UTC().Truncate(24 * time.Hour)
	upserted := 0
	for _, day := range []time.Time{today.AddDate(0, 0, -1), today} {
		count, err := j.rollupDay(ctx, day)
		if err != nil {
			return err
		}
		upserted += count
	}

	logCtx := j.logg.WithField(ctx, "rows_upserted", upserted)
	j.logg.Info(logCtx, "worker productivity rollup complete")
	return nil
}

func (j *productivityJob) rollupDay(ctx context.Context, day time.Time) (int, error) {
	from := day
	to := day.AddDate(0, 0, 1)

	worked, err := j.repo.WorkedSecondsByWorker(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("worked seconds: %w", err)
	}
	completions, err := j.repo.CompletionsByWorker(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("completions: %w", err)
	}
	approvals, err := j.repo.ApprovalsByWorker(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("approvals: %w", err)
	}
	rejections, err := j.repo.RejectionsByWorker(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("rejections: %w", err)
	}

	workers := map[uuid.UUID]struct{}{}
	for workerID := range worked {
		workers[workerID] = struct{}{}
	}
	for workerID := range completions {
		workers[workerID] = struct{}{}
	}
	for workerID := range approvals {
		workers[workerID] = struct{}{}
	}
	for workerID := range rejections {
		workers[workerID] = struct{}{}
	}

	upserted := 0
	for workerID := range workers {
		completion := completions[workerID]
		rollup := &models.WorkerProductivity{
			WorkerID:        workerID,
			Day:             day,
			TasksCompleted:  completion.Tasks,
			TasksApproved:   approvals[workerID],
			TasksRejected:   rejections[workerID],
			WorkedSeconds:   worked[workerID],
			EfficiencyRatio: efficiencyRatio(completion.EstimatedSeconds, worked[workerID]),
		}
		if err := j.repo.UpsertRollup(ctx, rollup); err != nil {
			return upserted, fmt.Errorf("upsert rollup for worker %s: %w", workerID, err)
		}
		upserted++
	}
	return upserted, nil
}

// efficiencyRatio compares estimated effort against recorded time. Above 1
// means the worker beat the estimate.
func efficiencyRatio(estimatedSeconds, workedSeconds int64) decimal.Decimal {
	if workedSeconds <= 0 || estimatedSeconds <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(estimatedSeconds).
		Div(decimal.NewFromInt(workedSeconds)).
		Round(4)
}
