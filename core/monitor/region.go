package monitor

import (
	"os"
	"sync"
	"time"
)

// Measurement is the read-only outcome of an in-process timed region.
type Measurement struct {
	Elapsed          time.Duration
	PeakMemoryMB     float64
	BaselineMemoryMB float64
}

// Region brackets a same-process computation with timing and memory
// sampling. Begin samples a baseline and starts the poller; End stops the
// poller exactly once regardless of how the bracketed work terminates, so
// it is safe (and expected) to defer.
type Region struct {
	mon      *Monitor
	start    time.Time
	baseline float64

	endOnce sync.Once
	result  Measurement
}

// Begin starts a timed region over the current process. A non-positive
// interval selects DefaultPollInterval.
func Begin(interval time.Duration) *Region {
	baseline, _ := residentSelfMB()
	r := &Region{
		mon:      New(os.Getpid(), interval),
		baseline: baseline,
	}
	r.mon.Start()
	r.start = time.Now()
	return r
}

// End stops the monitor and freezes the measurement. Idempotent.
func (r *Region) End() {
	r.endOnce.Do(func() {
		elapsed := time.Since(r.start)
		r.mon.Stop()
		peak := r.mon.PeakMB()
		if peak < r.baseline {
			peak = r.baseline
		}
		r.result = Measurement{
			Elapsed:          elapsed,
			PeakMemoryMB:     peak,
			BaselineMemoryMB: r.baseline,
		}
	})
}

// Measurement returns the frozen result. Call after End; calling it first
// ends the region.
func (r *Region) Measurement() Measurement {
	r.End()
	return r.result
}
