package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/renderscope-dev/renderscope/core/monitor"
	"github.com/renderscope-dev/renderscope/trace"
)

// DefaultMaxOutput caps each captured output stream.
const DefaultMaxOutput = 1 << 20 // 1 MiB

// Engine executes external commands. The zero value is usable.
type Engine struct {
	// MaxOutput caps captured stdout/stderr bytes per stream; zero selects
	// DefaultMaxOutput.
	MaxOutput int
	// TraceConfig configures the optional exec watcher.
	TraceConfig trace.Config
}

// Run executes spec: spawns the process, monitors peak memory of the
// process tree in the background, and waits for completion, timeout, or
// context cancellation. Clean non-zero exits return a Result; only a
// missing binary or a timeout produce an error.
func (e Engine) Run(ctx context.Context, spec Spec) (*Result, error) {
	if len(spec.Args) == 0 {
		return nil, errors.New("no command provided")
	}

	bin, err := exec.LookPath(spec.Args[0])
	if err != nil {
		return nil, &NotFoundError{Command: spec.Args[0]}
	}

	maxOutput := e.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}

	cmd := exec.Command(bin, spec.Args[1:]...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		env := os.Environ()
		for k, v := range spec.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}
	var stdout, stderr bytes.Buffer
	outW := &limitWriter{buf: &stdout, limit: maxOutput}
	errW := &limitWriter{buf: &stderr, limit: maxOutput}
	cmd.Stdout = outW
	cmd.Stderr = errW
	setProcAttr(cmd)

	slog.Debug("running command", "cmd", strings.Join(spec.Args, " "))
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", spec.Args[0], err)
	}

	mon := monitor.New(cmd.Process.Pid, spec.PollInterval)
	mon.Start()
	session := e.startTrace(ctx, spec, cmd.Process.Pid)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var timeoutCh <-chan time.Time
	if spec.Timeout > 0 {
		timer := time.NewTimer(spec.Timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case waitErr := <-done:
		mon.Stop()
		procs := session.finish()
		elapsed := time.Since(start)

		exitCode := 0
		if waitErr != nil {
			var exitErr *exec.ExitError
			if !errors.As(waitErr, &exitErr) {
				return nil, fmt.Errorf("executing %s: %w", spec.Args[0], waitErr)
			}
			exitCode = exitCodeFor(exitErr)
		}

		peak := mon.PeakMB()
		if rss := childMaxRSSMB(cmd.ProcessState); rss > peak {
			peak = rss
		}

		return &Result{
			ExitCode:     exitCode,
			Stdout:       decode(stdout.Bytes()),
			Stderr:       decode(stderr.Bytes()),
			Truncated:    outW.truncated || errW.truncated,
			Elapsed:      elapsed,
			PeakMemoryMB: peak,
			Processes:    procs,
		}, nil

	case <-timeoutCh:
		killTree(cmd)
		<-done // drain; the kill guarantees completion
		mon.Stop()
		session.finish()
		return nil, &TimeoutError{Elapsed: time.Since(start), Limit: spec.Timeout}

	case <-ctx.Done():
		killTree(cmd)
		<-done
		mon.Stop()
		session.finish()
		return nil, ctx.Err()
	}
}

// Run executes spec with a zero-value Engine.
func Run(ctx context.Context, spec Spec) (*Result, error) {
	return Engine{}.Run(ctx, spec)
}

// decode converts captured bytes to a string, replacing invalid UTF-8
// rather than failing.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// limitWriter writes up to limit bytes to buf, then silently discards the
// rest while reporting all bytes consumed to avoid short-write errors. It
// remembers whether anything was actually discarded.
type limitWriter struct {
	buf       *bytes.Buffer
	limit     int
	truncated bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			w.truncated = true
		}
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		w.truncated = true
		return len(p), nil
	}
	return w.buf.Write(p)
}

// traceSession ties a watcher and its aggregation goroutine to one run.
// A nil session (tracing disabled or unavailable) is a no-op.
type traceSession struct {
	watcher trace.Watcher
	tree    *trace.Tree
	done    chan struct{}
}

func (e Engine) startTrace(ctx context.Context, spec Spec, pid int) *traceSession {
	if !spec.Trace {
		return nil
	}
	watcher, err := trace.New(e.TraceConfig)
	if err != nil {
		slog.Debug("exec tracing unavailable", "error", err)
		return nil
	}
	if err := watcher.Start(ctx); err != nil {
		slog.Debug("exec tracing failed to start", "error", err)
		_ = watcher.Close()
		return nil
	}

	s := &traceSession{
		watcher: watcher,
		tree:    trace.NewTree(uint32(pid), strings.Join(spec.Args, " ")),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		for {
			select {
			case ev, ok := <-watcher.Events():
				if !ok {
					return
				}
				s.tree.Observe(ev)
			case err, ok := <-watcher.Errors():
				if !ok {
					return
				}
				slog.Debug("exec trace error", "error", err)
			}
		}
	}()
	return s
}

// finish closes the watcher and returns the observed tree. Safe on nil.
func (s *traceSession) finish() []trace.Process {
	if s == nil {
		return nil
	}
	_ = s.watcher.Close()
	<-s.done
	return s.tree.Processes()
}
