package pipeline

import (
	"errors"
	"testing"
)

func TestRunGuard_SingleFlight(t *testing.T) {
	var g runGuard

	if err := g.TryAcquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := g.TryAcquire(); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("second acquire = %v, want ErrRunInProgress", err)
	}

	g.Release()
	if err := g.TryAcquire(); err != nil {
		t.Errorf("acquire after release: %v", err)
	}
}

func TestRunGuard_Status(t *testing.T) {
	var g runGuard

	if st := g.Status(); st.Running {
		t.Error("idle guard reports running")
	}

	if err := g.TryAcquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	st := g.Status()
	if !st.Running {
		t.Error("held guard reports idle")
	}
	if st.Since.IsZero() {
		t.Error("held guard has zero Since")
	}

	g.Release()
	if st := g.Status(); st.Running {
		t.Error("released guard reports running")
	}
}
