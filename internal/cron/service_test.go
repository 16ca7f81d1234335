package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/oakandloom/workshop-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

type stubLock struct {
	heldElsewhere bool
	acquireErr    error
	acquires      int
	releases      int
}

func (l *stubLock) Acquire(ctx context.Context) (bool, error) {
	l.acquires++
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	return !l.heldElsewhere, nil
}

func (l *stubLock) Release(ctx context.Context) error {
	l.releases++
	return nil
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCycleRunsDueJobsUnderLock(t *testing.T) {
	lock := &stubLock{}
	first := &stubCronJob{name: "first", interval: time.Hour}
	second := &stubCronJob{name: "second", interval: time.Hour}
	svc := newTestService(t, lock, first, second)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	if first.runs != 1 || second.runs != 1 {
		t.Fatalf("expected each job to run once, got %d and %d", first.runs, second.runs)
	}
	if lock.acquires != 1 || lock.releases != 1 {
		t.Fatalf("expected one acquire and one release, got %d/%d", lock.acquires, lock.releases)
	}
}

func TestCycleSkipsLockWhenNothingDue(t *testing.T) {
	lock := &stubLock{}
	job := &stubCronJob{name: "slow", interval: time.Hour}
	svc := newTestService(t, lock, job)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	if job.runs != 1 {
		t.Fatalf("expected a single run, got %d", job.runs)
	}
	if lock.acquires != 1 {
		t.Fatalf("expected the idle cycle to skip the lock, got %d acquires", lock.acquires)
	}
}

func TestCycleYieldsWhenAnotherInstanceHoldsLock(t *testing.T) {
	lock := &stubLock{heldElsewhere: true}
	job := &stubCronJob{name: "job", interval: time.Hour}
	svc := newTestService(t, lock, job)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	if job.runs != 0 {
		t.Fatalf("expected no runs while the lock is held elsewhere, got %d", job.runs)
	}
	if lock.releases != 0 {
		t.Fatalf("a lock we never acquired must not be released, got %d releases", lock.releases)
	}
}

func TestJobFailureDoesNotStopSiblings(t *testing.T) {
	lock := &stubLock{}
	failing := &stubCronJob{name: "failing", interval: time.Hour, err: errors.New("boom")}
	healthy := &stubCronJob{name: "healthy", interval: time.Hour}
	svc := newTestService(t, lock, failing, healthy)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	if healthy.runs != 1 {
		t.Fatalf("expected the healthy job to run despite the failure, got %d", healthy.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected the lock released after a failing job, got %d", lock.releases)
	}
}

func TestCycleReportsLockError(t *testing.T) {
	lock := &stubLock{acquireErr: errors.New("redis down")}
	job := &stubCronJob{name: "job", interval: time.Hour}
	svc := newTestService(t, lock, job)

	if err := svc.runCycle(context.Background()); err == nil {
		t.Fatal("expected an error when the lock cannot be acquired")
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs on lock failure, got %d", job.runs)
	}
}
