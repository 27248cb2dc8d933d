// Package binding holds the process-wide table of in-process native render
// bindings. A renderer integration that links its engine into this process
// (cgo or pure Go) registers here; adapters probe the table the way a
// separate-process adapter probes PATH.
package binding

import (
	"context"
	"sort"
	"sync"
)

// Request describes one in-process render call.
type Request struct {
	ScenePath  string
	OutputPath string
	Width      int
	Height     int
	Samples    int
	Threads    int
	GPU        bool
	// Variant is the binding-specific execution variant chosen by the
	// adapter (e.g. a Mitsuba variant or a LuxCore engine name).
	Variant string
}

// Renderer is an in-process render binding.
type Renderer interface {
	// Version reports the bound engine version.
	Version() string
	// Render executes the request and writes the output file. The context
	// carries the resolved time budget; honoring it is best-effort.
	Render(ctx context.Context, req Request) error
}

// SceneLoader is optionally implemented by bindings whose engine separates
// scene loading from rendering, so load time can be reported apart from
// render time.
type SceneLoader interface {
	LoadScene(ctx context.Context, scenePath string) error
}

var (
	mu    sync.RWMutex
	table = map[string]Renderer{}
)

// Register adds or replaces the binding for name.
func Register(name string, r Renderer) {
	mu.Lock()
	defer mu.Unlock()
	table[name] = r
}

// Unregister removes a binding, mainly for tests.
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(table, name)
}

// Lookup returns the binding for name. A false result means the engine is
// not linked into this process.
func Lookup(name string) (Renderer, bool) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := table[name]
	return r, ok
}

// Names returns the sorted registered binding names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
