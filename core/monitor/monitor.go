// Package monitor measures wall-clock time and peak resident memory for a
// timed region of work, either a spawned process tree or the current
// process.
package monitor

import (
	"sync"
	"time"
)

// DefaultPollInterval is the memory sampling interval used when none is
// configured.
const DefaultPollInterval = 200 * time.Millisecond

// Monitor polls the resident memory of a process and its descendants in a
// background goroutine and records the peak. Stop must be called before
// reading the peak; it is safe to call more than once.
type Monitor struct {
	pid      int
	interval time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// peakMB is written only by the poll goroutine and read after done is
	// closed.
	peakMB float64
}

// New returns a monitor for pid. A non-positive interval selects
// DefaultPollInterval.
func New(pid int, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		pid:      pid,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background poll goroutine.
func (m *Monitor) Start() {
	go m.run()
}

// Stop signals the poller and waits for it to exit.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// PeakMB is the peak resident size observed, in megabytes. Valid after
// Stop returns. Monotonic non-decreasing across polls.
func (m *Monitor) PeakMB() float64 {
	return m.peakMB
}

func (m *Monitor) run() {
	defer close(m.done)
	for {
		mb, err := residentTreeMB(m.pid)
		if err != nil {
			// Target gone or platform unsupported; keep whatever peak we
			// already have.
			return
		}
		if mb > m.peakMB {
			m.peakMB = mb
		}
		select {
		case <-m.stop:
			return
		case <-time.After(m.interval):
		}
	}
}
