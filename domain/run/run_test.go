package run_test

import (
	"errors"
	"testing"

	"github.com/helixforge/labrun/domain/run"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults iteration budget", func(t *testing.T) {
		t.Parallel()

		r, err := run.New("predict binding affinity", 0)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if r.MaxIterations != run.DefaultMaxIterations {
			t.Errorf("MaxIterations = %d, want %d", r.MaxIterations, run.DefaultMaxIterations)
		}
		if r.Status != run.StatusPending {
			t.Errorf("Status = %s, want pending", r.Status)
		}
	})

	t.Run("rejects empty task", func(t *testing.T) {
		t.Parallel()

		if _, err := run.New("", 5); !errors.Is(err, run.ErrEmptyTask) {
			t.Errorf("New() error = %v, want ErrEmptyTask", err)
		}
	})
}

func TestRun_Lifecycle(t *testing.T) {
	t.Parallel()

	r, err := run.New("analyze scRNA-seq clusters", 2)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.BeginIteration(); !errors.Is(err, run.ErrInvalidTransition) {
		t.Errorf("BeginIteration() before Start error = %v, want ErrInvalidTransition", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := r.Start(); !errors.Is(err, run.ErrInvalidTransition) {
		t.Errorf("second Start() error = %v, want ErrInvalidTransition", err)
	}

	for i := 1; i <= 2; i++ {
		if err := r.BeginIteration(); err != nil {
			t.Fatalf("BeginIteration() %d error = %v", i, err)
		}
		if r.Iteration != i {
			t.Errorf("Iteration = %d, want %d", r.Iteration, i)
		}
	}

	if err := r.BeginIteration(); !errors.Is(err, run.ErrIterationsExhausted) {
		t.Errorf("BeginIteration() past budget error = %v, want ErrIterationsExhausted", err)
	}

	if err := r.Exhaust(); err != nil {
		t.Fatalf("Exhaust() error = %v", err)
	}
	if r.Status != run.StatusIncomplete {
		t.Errorf("Status = %s, want incomplete", r.Status)
	}
	if !r.Status.Terminal() {
		t.Error("incomplete should be terminal")
	}
	if r.Duration() <= 0 {
		t.Error("finished run should report a positive duration")
	}
}

func TestRun_CompleteAndFail(t *testing.T) {
	t.Parallel()

	t.Run("complete", func(t *testing.T) {
		t.Parallel()

		r := mustRunning(t)
		if err := r.Complete(); err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if r.Status != run.StatusCompleted {
			t.Errorf("Status = %s, want completed", r.Status)
		}
		if err := r.Fail("late"); !errors.Is(err, run.ErrInvalidTransition) {
			t.Errorf("Fail() after Complete error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("fail records reason", func(t *testing.T) {
		t.Parallel()

		r := mustRunning(t)
		if err := r.Fail("planning sub-chat exhausted its turn budget"); err != nil {
			t.Fatalf("Fail() error = %v", err)
		}
		if r.Status != run.StatusFailed {
			t.Errorf("Status = %s, want failed", r.Status)
		}
		if r.FailureReason == "" {
			t.Error("FailureReason not recorded")
		}
	})
}

func mustRunning(t *testing.T) *run.Run {
	t.Helper()
	r, err := run.New("train baseline model", 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	return r
}
