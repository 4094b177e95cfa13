package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jaradmin/jar-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
	acquires int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	due  bool
	err  error
	runs int
}

func (t *testJob) Name() string       { return t.name }
func (t *testJob) Due(time.Time) bool { return t.due }

func (t *testJob) Run(context.Context, time.Time) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
		Now:      func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestRunCycleRunsDueJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success", due: true}
	failure := &testJob{name: "fail", due: true, err: errors.New("boom")}
	service := newTestService(t, &fakeLock{}, success, failure)

	if err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if success.runs != 1 {
		t.Fatalf("expected success job to run once, ran %d", success.runs)
	}
	if failure.runs != 1 {
		t.Fatalf("expected failing job to run once, ran %d", failure.runs)
	}
}

func TestRunCycleSkipsJobsNotDue(t *testing.T) {
	due := &testJob{name: "due", due: true}
	idle := &testJob{name: "idle", due: false}
	service := newTestService(t, &fakeLock{}, due, idle)

	if err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if due.runs != 1 {
		t.Fatalf("expected due job to run once, ran %d", due.runs)
	}
	if idle.runs != 0 {
		t.Fatalf("expected idle job to be skipped, ran %d", idle.runs)
	}
}

func TestRunCycleSkipsLockingWhenNothingDue(t *testing.T) {
	lock := &fakeLock{}
	service := newTestService(t, lock, &testJob{name: "idle", due: false})

	if err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if lock.acquires != 0 {
		t.Fatalf("expected no lock attempts, got %d", lock.acquires)
	}
}

func TestRunCycleYieldsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "due", due: true}
	service := newTestService(t, &fakeLock{acquired: true}, job)

	if err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped while lock is held, ran %d", job.runs)
	}
}
