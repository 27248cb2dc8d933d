package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/renderscope-dev/renderscope/adapter"
	"github.com/renderscope-dev/renderscope/render"
)

type stubAdapter struct {
	name      string
	version   string
	installed bool
	panics    bool
	detects   *int
}

func (s *stubAdapter) Name() string        { return s.name }
func (s *stubAdapter) DisplayName() string { return s.name }

func (s *stubAdapter) Detect() (string, bool) {
	if s.detects != nil {
		*s.detects++
	}
	if s.panics {
		panic("probe exploded")
	}
	return s.version, s.installed
}

func (s *stubAdapter) SupportedFormats() []string { return []string{"test"} }

func (s *stubAdapter) Render(context.Context, string, string, render.Settings) (*render.Result, error) {
	return nil, errors.New("not implemented")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func factoryFor(a adapter.Adapter) adapter.Factory {
	return func() (adapter.Adapter, error) { return a, nil }
}

func TestRegisterAndGet(t *testing.T) {
	r := New(quietLogger())
	if err := r.Register(factoryFor(&stubAdapter{name: "alpha"})); err != nil {
		t.Fatal(err)
	}
	a, err := r.Get("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if a.Name() != "alpha" {
		t.Errorf("name = %q", a.Name())
	}
}

func TestGetUnknownIsNotFound(t *testing.T) {
	r := New(quietLogger())
	_, err := r.Get("ghost")
	var nf *adapter.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestNamesSorted(t *testing.T) {
	r := New(quietLogger())
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(factoryFor(&stubAdapter{name: name})); err != nil {
			t.Fatal(err)
		}
	}
	got := r.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("names = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

func TestDetectAllMemoized(t *testing.T) {
	var probes int
	r := New(quietLogger())
	a := &stubAdapter{name: "alpha", version: "4.0.0", installed: true, detects: &probes}
	if err := r.Register(factoryFor(a)); err != nil {
		t.Fatal(err)
	}

	first := r.DetectAll()
	if st := first["alpha"]; !st.Installed || st.Version != "4.0.0" {
		t.Fatalf("status = %+v", st)
	}
	r.DetectAll()
	r.DetectAll()
	if probes != 1 {
		t.Errorf("probes = %d, want 1", probes)
	}

	r.ClearCache()
	r.DetectAll()
	if probes != 2 {
		t.Errorf("probes after ClearCache = %d, want 2", probes)
	}
}

func TestDetectAllReturnsCopy(t *testing.T) {
	r := New(quietLogger())
	if err := r.Register(factoryFor(&stubAdapter{name: "alpha", installed: true})); err != nil {
		t.Fatal(err)
	}
	first := r.DetectAll()
	first["alpha"] = Status{}
	delete(first, "alpha")
	if st := r.DetectAll()["alpha"]; !st.Installed {
		t.Error("caller mutation leaked into the cache")
	}
}

func TestRegisterInvalidatesCache(t *testing.T) {
	r := New(quietLogger())
	if err := r.Register(factoryFor(&stubAdapter{name: "alpha", installed: true})); err != nil {
		t.Fatal(err)
	}
	r.DetectAll()
	if err := r.Register(factoryFor(&stubAdapter{name: "beta"})); err != nil {
		t.Fatal(err)
	}
	statuses := r.DetectAll()
	if _, ok := statuses["beta"]; !ok {
		t.Error("stale cache survived registration")
	}
}

func TestDetectAllSurvivesPanickingAdapter(t *testing.T) {
	r := New(quietLogger())
	if err := r.Register(factoryFor(&stubAdapter{name: "good", version: "4.0.0", installed: true})); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(factoryFor(&stubAdapter{name: "bad", panics: true})); err != nil {
		t.Fatal(err)
	}

	statuses := r.DetectAll()
	if st := statuses["good"]; !st.Installed || st.Version != "4.0.0" {
		t.Errorf("good = %+v", st)
	}
	if st := statuses["bad"]; st.Installed {
		t.Errorf("bad = %+v, want not installed", st)
	}
}

func TestListInstalled(t *testing.T) {
	r := New(quietLogger())
	for _, a := range []*stubAdapter{
		{name: "here", installed: true, version: "1.0"},
		{name: "absent"},
	} {
		if err := r.Register(factoryFor(a)); err != nil {
			t.Fatal(err)
		}
	}
	got := r.ListInstalled()
	if len(got) != 1 || got[0] != "here" {
		t.Errorf("installed = %v", got)
	}
}

func TestRegisterOverwrite(t *testing.T) {
	r := New(quietLogger())
	if err := r.Register(factoryFor(&stubAdapter{name: "alpha", version: "1.0"})); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(factoryFor(&stubAdapter{name: "alpha", version: "2.0", installed: true})); err != nil {
		t.Fatal(err)
	}
	a, err := r.Get("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := a.Detect(); v != "2.0" {
		t.Errorf("version = %q, want the replacement", v)
	}
}

func TestBootstrapCollectsFailures(t *testing.T) {
	r := New(quietLogger())
	bad := func() (adapter.Adapter, error) { return nil, errors.New("broken build") }
	err := r.Bootstrap([]adapter.Factory{
		factoryFor(&stubAdapter{name: "alpha"}),
		bad,
		factoryFor(&stubAdapter{name: "beta"}),
	})
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	if got := r.Names(); len(got) != 2 {
		t.Errorf("registered = %v, want both good adapters", got)
	}
}

func TestDefaultHasBuiltins(t *testing.T) {
	names := Default().Names()
	if len(names) != 7 {
		t.Errorf("builtin registrations = %d, want 7: %v", len(names), names)
	}
}
