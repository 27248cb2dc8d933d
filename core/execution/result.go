// Package execution runs external renderer binaries with timing, memory
// accounting, output capture, and timeout enforcement.
package execution

import (
	"fmt"
	"time"

	"github.com/renderscope-dev/renderscope/trace"
)

// Spec describes one command execution request.
type Spec struct {
	Args []string
	// Timeout is the maximum wall-clock time; zero means unlimited.
	Timeout time.Duration
	// Env is overlaid onto the current environment.
	Env map[string]string
	Dir string
	// PollInterval is the memory sampling interval; zero selects the
	// default (200ms).
	PollInterval time.Duration
	// Trace enables exec tracing of spawned descendants where available.
	Trace bool
}

// Result is the immutable outcome of a completed process run. It is
// produced exactly once per run; a timeout or missing binary yields an
// error instead.
type Result struct {
	ExitCode     int
	Stdout       string
	Stderr       string
	Truncated    bool
	Elapsed      time.Duration
	PeakMemoryMB float64
	// Processes is the observed process tree when tracing was active.
	Processes []trace.Process
}

// NotFoundError reports that the command binary could not be located.
type NotFoundError struct {
	Command string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("command not found: %s", e.Command)
}

// TimeoutError reports that the process exceeded its time limit and was
// killed. It is terminal; the engine never retries.
type TimeoutError struct {
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("process timed out after %.1fs (limit: %.1fs)",
		e.Elapsed.Seconds(), e.Limit.Seconds())
}
