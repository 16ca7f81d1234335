package cron

import (
	"context"
	"testing"
	"time"
)

type stubCronJob struct {
	name     string
	interval time.Duration
	runs     int
	err      error
}

func (j *stubCronJob) Name() string            { return j.name }
func (j *stubCronJob) Interval() time.Duration { return j.interval }

func (j *stubCronJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func dueNames(jobs []Job) []string {
	names := []string{}
	for _, job := range jobs {
		names = append(names, job.Name())
	}
	return names
}

func TestDueRespectsPerJobCadence(t *testing.T) {
	hourly := &stubCronJob{name: "hourly", interval: time.Hour}
	daily := &stubCronJob{name: "daily", interval: 24 * time.Hour}
	registry := NewRegistry(hourly, daily)

	start := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)

	first := dueNames(registry.Due(start))
	if len(first) != 2 {
		t.Fatalf("expected both jobs due on first check, got %v", first)
	}

	soon := registry.Due(start.Add(30 * time.Minute))
	if len(soon) != 0 {
		t.Fatalf("expected nothing due after 30m, got %v", dueNames(soon))
	}

	later := dueNames(registry.Due(start.Add(time.Hour)))
	if len(later) != 1 || later[0] != "hourly" {
		t.Fatalf("expected only the hourly job after 1h, got %v", later)
	}

	nextDay := dueNames(registry.Due(start.Add(25 * time.Hour)))
	if len(nextDay) != 2 {
		t.Fatalf("expected both jobs after 25h, got %v", nextDay)
	}
}

func TestDueZeroIntervalRunsEveryCheck(t *testing.T) {
	always := &stubCronJob{name: "always"}
	registry := NewRegistry(always)

	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		due := registry.Due(now.Add(time.Duration(i) * time.Second))
		if len(due) != 1 {
			t.Fatalf("check %d: expected the job due, got %v", i, dueNames(due))
		}
	}
}

func TestRegisterIgnoresNilJob(t *testing.T) {
	registry := NewRegistry()
	registry.Register(nil)
	registry.Register(&stubCronJob{name: "real", interval: time.Hour})

	if got := len(registry.Jobs()); got != 1 {
		t.Fatalf("expected 1 registered job, got %d", got)
	}
}
