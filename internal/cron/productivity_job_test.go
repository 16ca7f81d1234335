package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakandloom/workshop-backend/pkg/db/models"
)

type stubProductivityRepo struct {
	worked      map[time.Time]map[uuid.UUID]int64
	completions map[time.Time]map[uuid.UUID]CompletionCounts
	approvals   map[time.Time]map[uuid.UUID]int
	rejections  map[time.Time]map[uuid.UUID]int
	upserts     []*models.WorkerProductivity
}

func newStubProductivityRepo() *stubProductivityRepo {
	return &stubProductivityRepo{
		worked:      map[time.Time]map[uuid.UUID]int64{},
		completions: map[time.Time]map[uuid.UUID]CompletionCounts{},
		approvals:   map[time.Time]map[uuid.UUID]int{},
		rejections:  map[time.Time]map[uuid.UUID]int{},
	}
}

func (r *stubProductivityRepo) WorkedSecondsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	for worker, seconds := range r.worked[from] {
		out[worker] = seconds
	}
	return out, nil
}

func (r *stubProductivityRepo) CompletionsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]CompletionCounts, error) {
	out := map[uuid.UUID]CompletionCounts{}
	for worker, counts := range r.completions[from] {
		out[worker] = counts
	}
	return out, nil
}

func (r *stubProductivityRepo) ApprovalsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]int, error) {
	out := map[uuid.UUID]int{}
	for worker, count := range r.approvals[from] {
		out[worker] = count
	}
	return out, nil
}

func (r *stubProductivityRepo) RejectionsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]int, error) {
	out := map[uuid.UUID]int{}
	for worker, count := range r.rejections[from] {
		out[worker] = count
	}
	return out, nil
}

func (r *stubProductivityRepo) UpsertRollup(ctx context.Context, rollup *models.WorkerProductivity) error {
	r.upserts = append(r.upserts, rollup)
	return nil
}

func (r *stubProductivityRepo) rowFor(worker uuid.UUID, day time.Time) *models.WorkerProductivity {
	for _, row := range r.upserts {
		if row.WorkerID == worker && row.Day.Equal(day) {
			return row
		}
	}
	return nil
}

func newProductivityTestJob(t *testing.T, repo ProductivityRepository, now time.Time) *productivityJob {
	t.Helper()
	job, err := NewProductivityJob(ProductivityJobParams{
		Logger:     testLogger(),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewProductivityJob: %v", err)
	}
	impl := job.(*productivityJob)
	impl.now = func() time.Time { return now }
	return impl
}

func TestRollupMergesAllActivitySources(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	today := now.Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)

	sewer := uuid.New()
	carpenter := uuid.New()
	repo := newStubProductivityRepo()
	// The sewer closed two tasks yesterday estimated at 2h each and logged 5h.
	repo.worked[yesterday] = map[uuid.UUID]int64{sewer: 5 * 3600}
	repo.completions[yesterday] = map[uuid.UUID]CompletionCounts{
		sewer: {Tasks: 2, EstimatedSeconds: 4 * 3600},
	}
	repo.approvals[yesterday] = map[uuid.UUID]int{sewer: 1}
	// The carpenter only picked up a rejection note, no time sessions.
	repo.rejections[yesterday] = map[uuid.UUID]int{carpenter: 1}

	job := newProductivityTestJob(t, repo, now)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sewerRow := repo.rowFor(sewer, yesterday)
	if sewerRow == nil {
		t.Fatal("expected a rollup row for the sewer")
	}
	if sewerRow.TasksCompleted != 2 || sewerRow.TasksApproved != 1 || sewerRow.TasksRejected != 0 {
		t.Fatalf("unexpected sewer counts: %+v", sewerRow)
	}
	if sewerRow.WorkedSeconds != 5*3600 {
		t.Fatalf("expected 5h worked, got %d", sewerRow.WorkedSeconds)
	}
	if !sewerRow.EfficiencyRatio.Equal(decimal.NewFromFloat(0.8)) {
		t.Fatalf("expected efficiency 0.8, got %s", sewerRow.EfficiencyRatio)
	}

	carpenterRow := repo.rowFor(carpenter, yesterday)
	if carpenterRow == nil {
		t.Fatal("expected a rollup row for the carpenter despite no sessions")
	}
	if carpenterRow.TasksRejected != 1 || carpenterRow.WorkedSeconds != 0 {
		t.Fatalf("unexpected carpenter counts: %+v", carpenterRow)
	}
	if !carpenterRow.EfficiencyRatio.IsZero() {
		t.Fatalf("expected zero efficiency without worked time, got %s", carpenterRow.EfficiencyRatio)
	}
}

func TestRollupCoversYesterdayAndToday(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 15, 0, 0, time.UTC)
	today := now.Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)

	worker := uuid.New()
	repo := newStubProductivityRepo()
	repo.worked[yesterday] = map[uuid.UUID]int64{worker: 3600}
	repo.worked[today] = map[uuid.UUID]int64{worker: 1800}

	job := newProductivityTestJob(t, repo, now)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if repo.rowFor(worker, yesterday) == nil || repo.rowFor(worker, today) == nil {
		t.Fatalf("expected rows for both days, got %d upserts", len(repo.upserts))
	}
}

func TestEfficiencyRatio(t *testing.T) {
	cases := []struct {
		name      string
		estimated int64
		worked    int64
		want      string
	}{
		{"beat the estimate", 7200, 3600, "2"},
		{"slower than estimated", 3600, 7200, "0.5"},
		{"no recorded time", 3600, 0, "0"},
		{"no estimate", 0, 3600, "0"},
		{"rounded", 3600, 10800, "0.3333"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := efficiencyRatio(tc.estimated, tc.worked)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("efficiencyRatio(%d, %d) = %s, want %s", tc.estimated, tc.worked, got, tc.want)
			}
		})
	}
}
