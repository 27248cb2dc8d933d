// Package registry holds the adapter catalog: registration by factory,
// instantiation by name, and cached installation detection across all
// known renderers.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/renderscope-dev/renderscope/adapter"
)

// Status is one renderer's detection outcome.
type Status struct {
	Version   string `json:"version,omitempty"`
	Installed bool   `json:"installed"`
}

// Registry maps renderer names to adapter factories. Detection results are
// memoized until the registered set changes or the cache is cleared.
type Registry struct {
	log *slog.Logger

	mu        sync.Mutex
	factories map[string]adapter.Factory
	detected  map[string]Status
}

// New returns an empty registry.
func New(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:       log,
		factories: map[string]adapter.Factory{},
	}
}

// Register adds a factory under the name its adapter reports. Registering
// over an existing name replaces it and is logged. Any registration
// invalidates the detection cache.
func (r *Registry) Register(factory adapter.Factory) error {
	a, err := factory()
	if err != nil {
		return fmt.Errorf("construct adapter: %w", err)
	}
	name := a.Name()
	if name == "" {
		return fmt.Errorf("adapter %T reports an empty name", a)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		r.log.Warn("overwriting registered adapter", "renderer", name)
	}
	r.factories[name] = factory
	r.detected = nil
	return nil
}

// Get constructs a fresh adapter instance for name.
func (r *Registry) Get(name string) (adapter.Adapter, error) {
	r.mu.Lock()
	factory, ok := r.factories[name]
	r.mu.Unlock()
	if !ok {
		return nil, &adapter.NotFoundError{Renderer: name}
	}
	a, err := factory()
	if err != nil {
		return nil, fmt.Errorf("construct adapter %q: %w", name, err)
	}
	return a, nil
}

// Names returns the registered renderer names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListAll constructs one instance of every registered adapter, in name
// order.
func (r *Registry) ListAll() ([]adapter.Adapter, error) {
	var out []adapter.Adapter
	for _, name := range r.Names() {
		a, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// DetectAll probes every registered renderer and reports per-renderer
// status. Results are memoized; the returned map is a copy the caller may
// mutate. A failure in one adapter's probe never aborts the sweep: that
// renderer simply reads as not installed.
func (r *Registry) DetectAll() map[string]Status {
	r.mu.Lock()
	if r.detected != nil {
		out := copyStatus(r.detected)
		r.mu.Unlock()
		return out
	}
	factories := make(map[string]adapter.Factory, len(r.factories))
	for name, f := range r.factories {
		factories[name] = f
	}
	r.mu.Unlock()

	detected := make(map[string]Status, len(factories))
	for name, factory := range factories {
		detected[name] = r.probe(name, factory)
	}

	r.mu.Lock()
	r.detected = detected
	out := copyStatus(detected)
	r.mu.Unlock()
	return out
}

func (r *Registry) probe(name string, factory adapter.Factory) (st Status) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("adapter detection panicked", "renderer", name, "panic", rec)
			st = Status{}
		}
	}()
	a, err := factory()
	if err != nil {
		r.log.Warn("adapter construction failed during detection", "renderer", name, "error", err)
		return Status{}
	}
	version, ok := a.Detect()
	if !ok {
		return Status{}
	}
	return Status{Version: version, Installed: true}
}

// ListInstalled returns the names of renderers that detected as installed,
// sorted.
func (r *Registry) ListInstalled() []string {
	var out []string
	for name, st := range r.DetectAll() {
		if st.Installed {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ClearCache discards memoized detection results.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	r.detected = nil
	r.mu.Unlock()
}

func copyStatus(m map[string]Status) map[string]Status {
	out := make(map[string]Status, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Bootstrap registers every factory, collecting errors rather than
// stopping at the first. A bad integration must not take down the rest.
func (r *Registry) Bootstrap(factories []adapter.Factory) error {
	var errs []error
	for _, factory := range factories {
		if err := r.Register(factory); err != nil {
			r.log.Error("adapter registration failed", "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d adapter(s) failed to register", len(errs))
	}
	return nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry, populated with the builtin
// adapters on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New(slog.Default())
		_ = defaultReg.Bootstrap(adapter.Builtin())
	})
	return defaultReg
}
