package monitor

import (
	"os"
	"runtime"
	"testing"
	"time"
)

func TestRegionNoOp(t *testing.T) {
	r := Begin(10 * time.Millisecond)
	r.End()
	m := r.Measurement()

	if m.Elapsed < 0 {
		t.Fatalf("negative elapsed %v", m.Elapsed)
	}
	if m.PeakMemoryMB < m.BaselineMemoryMB {
		t.Fatalf("peak %f below baseline %f", m.PeakMemoryMB, m.BaselineMemoryMB)
	}
}

func TestRegionEndIdempotent(t *testing.T) {
	r := Begin(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	r.End()
	first := r.Measurement()
	time.Sleep(20 * time.Millisecond)
	r.End()
	if got := r.Measurement(); got != first {
		t.Fatalf("measurement changed after second End: %+v vs %+v", got, first)
	}
}

func TestRegionObservesBaseline(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("requires linux")
	}
	r := Begin(5 * time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	r.End()
	m := r.Measurement()
	if m.BaselineMemoryMB <= 0 {
		t.Fatalf("expected positive baseline, got %f", m.BaselineMemoryMB)
	}
	if m.PeakMemoryMB <= 0 {
		t.Fatalf("expected positive peak, got %f", m.PeakMemoryMB)
	}
}

func TestMonitorSelf(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("requires linux")
	}
	m := New(os.Getpid(), 5*time.Millisecond)
	m.Start()
	time.Sleep(25 * time.Millisecond)
	m.Stop()
	if m.PeakMB() <= 0 {
		t.Fatalf("expected positive peak, got %f", m.PeakMB())
	}
	// Stop again must not panic or block.
	m.Stop()
}

func TestMonitorVanishedProcess(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("requires linux")
	}
	// A pid that almost certainly does not exist.
	m := New(1<<22-1, 5*time.Millisecond)
	m.Start()
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return for vanished process")
	}
	if m.PeakMB() != 0 {
		t.Fatalf("expected zero peak, got %f", m.PeakMB())
	}
}
