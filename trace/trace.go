// Package trace optionally observes the processes a renderer spawns while
// it runs. It is Linux-only (eBPF exec tracepoints) and the execution
// engine degrades to untraced runs when it is unavailable.
package trace

import (
	"context"
	"sort"
	"sync"
)

// Event is one exec observation.
type Event struct {
	PID  uint32
	PPID uint32
	Comm string
	Path string
}

// Watcher streams exec events for the whole host; callers filter them to
// the process tree they care about via Tree.
type Watcher interface {
	Start(ctx context.Context) error
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// Config controls where prebuilt eBPF objects are loaded from.
type Config struct {
	// ObjectDir overrides the default object directory
	// ($RENDERSCOPE_BPF_DIR, else ebpf/objects).
	ObjectDir string
}

// Process is one entry of an observed process tree.
type Process struct {
	PID     uint32 `json:"pid"`
	PPID    uint32 `json:"ppid"`
	Command string `json:"command"`
}

// Tree filters exec events down to the descendants of a root pid.
type Tree struct {
	mu        sync.Mutex
	rootPID   uint32
	pids      map[uint32]struct{}
	processes map[uint32]Process
}

// NewTree returns a tree rooted at pid.
func NewTree(pid uint32, command string) *Tree {
	t := &Tree{
		rootPID:   pid,
		pids:      map[uint32]struct{}{pid: {}},
		processes: map[uint32]Process{pid: {PID: pid, Command: command}},
	}
	return t
}

// Observe records ev if it belongs to the tracked tree. Events from
// unrelated processes are dropped.
func (t *Tree) Observe(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked := ev.PID == t.rootPID
	if !tracked {
		_, tracked = t.pids[ev.PPID]
	}
	if !tracked {
		return
	}
	t.pids[ev.PID] = struct{}{}

	cmd := ev.Path
	if cmd == "" {
		cmd = ev.Comm
	}
	entry, ok := t.processes[ev.PID]
	if !ok {
		entry = Process{PID: ev.PID}
	}
	if ev.PPID != 0 {
		entry.PPID = ev.PPID
	}
	if cmd != "" && len(cmd) > len(entry.Command) {
		entry.Command = cmd
	}
	t.processes[ev.PID] = entry
}

// Processes returns the observed tree, root first, children in pid order.
func (t *Tree) Processes() []Process {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Process, 0, len(t.processes))
	if root, ok := t.processes[t.rootPID]; ok {
		out = append(out, root)
	}
	var rest []Process
	for pid, p := range t.processes {
		if pid == t.rootPID {
			continue
		}
		rest = append(rest, p)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].PID < rest[j].PID })
	return append(out, rest...)
}
