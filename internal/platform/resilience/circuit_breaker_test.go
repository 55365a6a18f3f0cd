package resilience

import (
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	b := NewCircuitBreaker(3, 10*time.Second, 1)

	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("Allow() before threshold: %v", err)
		}
		b.RecordFailure()
	}

	if got := b.State(); got != CircuitStateOpen {
		t.Fatalf("State() = %q, want open", got)
	}
	if err := b.Allow(); err == nil {
		t.Fatal("Allow() after opening: want ErrCircuitOpen")
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	b := NewCircuitBreaker(2, 10*time.Second, 1)

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	if got := b.State(); got != CircuitStateClosed {
		t.Fatalf("State() = %q, want closed", got)
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	b := NewCircuitBreaker(1, 5*time.Second, 2)
	b.now = func() time.Time { return current }

	b.RecordFailure()
	if err := b.Allow(); err == nil {
		t.Fatal("Allow() while open: want ErrCircuitOpen")
	}

	current = current.Add(6 * time.Second)
	for i := 0; i < 2; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("Allow() probe %d: %v", i, err)
		}
		b.RecordSuccess()
	}

	if got := b.State(); got != CircuitStateClosed {
		t.Fatalf("State() after probes = %q, want closed", got)
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	b := NewCircuitBreaker(1, 5*time.Second, 1)
	b.now = func() time.Time { return current }

	b.RecordFailure()
	current = current.Add(6 * time.Second)

	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() probe: %v", err)
	}
	b.RecordFailure()

	if got := b.State(); got != CircuitStateOpen {
		t.Fatalf("State() = %q, want open", got)
	}
}
