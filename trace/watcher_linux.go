//go:build linux

package trace

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/ringbuf"
)

const (
	defaultObjDir = "ebpf/objects"
	eventSize     = 308

	eventTypeExec = 1
)

type execWatcher struct {
	mu      sync.Mutex
	started bool
	events  chan Event
	errs    chan error
	reader  *ringbuf.Reader
	links   []link.Link
	objs    *ebpf.Collection
	wg      sync.WaitGroup
	closed  chan struct{}
}

// New loads the exec tracepoint object and returns a watcher. It fails
// when the object is missing or cannot be attached; callers treat that as
// "tracing unavailable" rather than a fatal error.
func New(cfg Config) (Watcher, error) {
	dir := cfg.ObjectDir
	if dir == "" {
		if env := os.Getenv("RENDERSCOPE_BPF_DIR"); env != "" {
			dir = env
		} else {
			dir = defaultObjDir
		}
	}

	path := filepath.Join(dir, "exec.o")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("eBPF object missing: %s", path)
	}

	spec, err := ebpf.LoadCollectionSpec(path)
	if err != nil {
		return nil, fmt.Errorf("load eBPF spec %s: %w", path, err)
	}
	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("load eBPF collection %s: %w", path, err)
	}

	eventsMap := coll.Maps["events"]
	if eventsMap == nil {
		coll.Close()
		return nil, fmt.Errorf("eBPF object %s has no events map", path)
	}
	reader, err := ringbuf.NewReader(eventsMap)
	if err != nil {
		coll.Close()
		return nil, fmt.Errorf("open ringbuf %s: %w", path, err)
	}

	w := &execWatcher{
		events: make(chan Event, 1024),
		errs:   make(chan error, 16),
		reader: reader,
		objs:   coll,
		closed: make(chan struct{}),
	}

	for _, tp := range []struct {
		prog string
		name string
	}{
		{"trace_execve", "sys_enter_execve"},
		{"trace_execveat", "sys_enter_execveat"},
	} {
		l, err := attachTracepoint(coll, tp.prog, "syscalls", tp.name)
		if err != nil {
			w.closeLoaded()
			return nil, err
		}
		w.links = append(w.links, l)
	}

	return w, nil
}

func (w *execWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	w.started = true
	w.wg.Add(1)
	go w.readLoop(ctx)
	return nil
}

func (w *execWatcher) Events() <-chan Event { return w.events }
func (w *execWatcher) Errors() <-chan error { return w.errs }

func (w *execWatcher) Close() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		w.closeLoaded()
		return nil
	}
	w.mu.Unlock()

	close(w.closed)
	_ = w.reader.Close()
	w.wg.Wait()
	for _, l := range w.links {
		_ = l.Close()
	}
	w.objs.Close()
	close(w.events)
	close(w.errs)
	return nil
}

func (w *execWatcher) closeLoaded() {
	for _, l := range w.links {
		_ = l.Close()
	}
	if w.reader != nil {
		_ = w.reader.Close()
	}
	if w.objs != nil {
		w.objs.Close()
	}
}

func (w *execWatcher) readLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		record, err := w.reader.Read()
		if err != nil {
			if errors.Is(err, ringbuf.ErrClosed) {
				return
			}
			select {
			case w.errs <- err:
			case <-w.closed:
			}
			continue
		}
		ev, ok, err := parseEvent(record.RawSample)
		if err != nil {
			select {
			case w.errs <- err:
			case <-w.closed:
			}
			continue
		}
		if !ok {
			continue
		}
		select {
		case w.events <- ev:
		case <-w.closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

// parseEvent decodes the fixed wire layout emitted by the tracepoint
// program. Non-exec records are skipped.
func parseEvent(data []byte) (Event, bool, error) {
	if len(data) < eventSize {
		return Event{}, false, fmt.Errorf("short event: %d", len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != eventTypeExec {
		return Event{}, false, nil
	}
	ev := Event{
		PID:  binary.LittleEndian.Uint32(data[4:8]),
		PPID: binary.LittleEndian.Uint32(data[8:12]),
		Comm: trimNull(data[36:52]),
		Path: trimNull(data[52:308]),
	}
	return ev, true, nil
}

func trimNull(b []byte) string {
	idx := bytes.IndexByte(b, 0)
	if idx == -1 {
		idx = len(b)
	}
	return string(b[:idx])
}

func attachTracepoint(coll *ebpf.Collection, progName, category, name string) (link.Link, error) {
	prog := coll.Programs[progName]
	if prog == nil {
		return nil, fmt.Errorf("program %s not found", progName)
	}
	l, err := link.Tracepoint(category, name, prog, nil)
	if err != nil {
		return nil, fmt.Errorf("attach %s/%s: %w", category, name, err)
	}
	return l, nil
}
