package bench

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/renderscope-dev/renderscope/registry"
	"github.com/renderscope-dev/renderscope/render"
)

// Record is one renderer/scene run within a suite.
type Record struct {
	ID       string         `json:"id"`
	Renderer string         `json:"renderer"`
	Scene    string         `json:"scene"`
	Run      int            `json:"run"`
	OK       bool           `json:"ok"`
	Error    string         `json:"error,omitempty"`
	Result   *render.Result `json:"result,omitempty"`
}

// Report is the outcome of a whole suite.
type Report struct {
	ID        string   `json:"id"`
	Suite     string   `json:"suite"`
	StartedAt string   `json:"started_at"`
	Elapsed   float64  `json:"elapsed_seconds"`
	Records   []Record `json:"records"`
}

// Failures counts failed records.
func (r *Report) Failures() int {
	n := 0
	for _, rec := range r.Records {
		if !rec.OK {
			n++
		}
	}
	return n
}

// Runner executes suites against a registry.
type Runner struct {
	Registry *registry.Registry
	Log      *slog.Logger
}

// NewRunner wires a runner; nil arguments select the defaults.
func NewRunner(reg *registry.Registry, log *slog.Logger) *Runner {
	if reg == nil {
		reg = registry.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{Registry: reg, Log: log}
}

// Run executes the suite: every renderer against every scene, Repeat
// times. One failing run is recorded and the sweep continues; only context
// cancellation aborts early.
func (r *Runner) Run(ctx context.Context, suite Suite) (*Report, error) {
	renderers := suite.Renderers
	if len(renderers) == 0 {
		renderers = r.Registry.ListInstalled()
	}
	if len(renderers) == 0 {
		return nil, fmt.Errorf("no renderers to benchmark")
	}
	if len(suite.Scenes) == 0 {
		return nil, fmt.Errorf("suite %q has no scenes", suite.Name)
	}

	report := &Report{
		ID:        uuid.NewString(),
		Suite:     suite.Name,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	start := time.Now()

	for _, name := range renderers {
		for _, scene := range suite.Scenes {
			for run := 1; run <= suite.Repeat; run++ {
				if err := ctx.Err(); err != nil {
					report.Elapsed = time.Since(start).Seconds()
					return report, err
				}
				report.Records = append(report.Records, r.one(ctx, suite, name, scene, run))
			}
		}
	}

	report.Elapsed = time.Since(start).Seconds()
	r.Log.Info("suite finished",
		"suite", suite.Name,
		"records", len(report.Records),
		"failures", report.Failures())
	return report, nil
}

func (r *Runner) one(ctx context.Context, suite Suite, name, scene string, run int) Record {
	rec := Record{
		ID:       uuid.NewString(),
		Renderer: name,
		Scene:    sceneStem(scene),
		Run:      run,
	}
	r.Log.Info("render starting", "renderer", name, "scene", rec.Scene, "run", run)

	a, err := r.Registry.Get(name)
	if err != nil {
		rec.Error = err.Error()
		r.Log.Error("render failed", "renderer", name, "scene", rec.Scene, "error", err)
		return rec
	}

	out := filepath.Join(suite.OutputDir,
		fmt.Sprintf("%s_%s_%d.png", name, rec.Scene, run))
	result, err := a.Render(ctx, scene, out, suite.Settings)
	if err != nil {
		rec.Error = err.Error()
		r.Log.Error("render failed", "renderer", name, "scene", rec.Scene, "error", err)
		return rec
	}

	rec.OK = true
	rec.Result = result
	r.Log.Info("render finished",
		"renderer", name,
		"scene", rec.Scene,
		"seconds", result.RenderTimeSeconds,
		"peak_mb", result.PeakMemoryMB)
	return rec
}

func sceneStem(scenePath string) string {
	base := filepath.Base(scenePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
