package adapter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/renderscope-dev/renderscope/binding"
	"github.com/renderscope-dev/renderscope/render"
	"github.com/renderscope-dev/renderscope/trace"
)

// fakeBinding is an in-process engine that writes a fixed payload to the
// requested output path.
type fakeBinding struct {
	version   string
	variants  []string
	renderErr error
	loadErr   error
	loaded    []string
	requests  []binding.Request
}

func (f *fakeBinding) Version() string { return f.version }

func (f *fakeBinding) Variants() []string { return f.variants }

func (f *fakeBinding) LoadScene(_ context.Context, scenePath string) error {
	f.loaded = append(f.loaded, scenePath)
	return f.loadErr
}

func (f *fakeBinding) Render(_ context.Context, req binding.Request) error {
	f.requests = append(f.requests, req)
	if f.renderErr != nil {
		return f.renderErr
	}
	return os.WriteFile(req.OutputPath, []byte("image"), 0o644)
}

func writeScene(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("scene"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMitsubaRenderViaBinding(t *testing.T) {
	fake := &fakeBinding{version: "3.5.0", variants: []string{"scalar_rgb", "llvm_ad_rgb"}}
	binding.Register("mitsuba", fake)
	defer binding.Unregister("mitsuba")

	scene := writeScene(t, "cornell.xml")
	out := filepath.Join(t.TempDir(), "cornell.png")

	settings := render.DefaultSettings()
	settings.Samples = 32

	a := NewMitsuba()
	res, err := a.Render(context.Background(), scene, out, settings)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Renderer != "mitsuba3" {
		t.Errorf("renderer = %q, want mitsuba3", res.Renderer)
	}
	if res.Scene != "cornell" {
		t.Errorf("scene = %q, want cornell", res.Scene)
	}
	if res.OutputPath != out {
		t.Errorf("output = %q, want %q", res.OutputPath, out)
	}
	if res.Timestamp == "" {
		t.Error("timestamp not stamped")
	}
	if got := res.Metadata["variant"]; got != "llvm_ad_rgb" {
		t.Errorf("variant = %v, want llvm_ad_rgb", got)
	}
	if _, ok := res.Metadata["scene_load_time_seconds"]; !ok {
		t.Error("scene_load_time_seconds missing from metadata")
	}
	if got := res.Metadata["gpu_enabled"]; got != false {
		t.Errorf("gpu_enabled = %v, want false for a CPU variant", got)
	}
	if got := res.Metadata["spp"]; got != 32 {
		t.Errorf("spp = %v, want 32", got)
	}
	if len(fake.loaded) != 1 || fake.loaded[0] != scene {
		t.Errorf("loaded = %v, want [%s]", fake.loaded, scene)
	}
	if len(fake.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(fake.requests))
	}
	if fake.requests[0].Variant != "llvm_ad_rgb" {
		t.Errorf("request variant = %q", fake.requests[0].Variant)
	}
}

func TestMitsubaNotInstalled(t *testing.T) {
	a := NewMitsuba()
	_, err := a.Render(context.Background(), "scene.xml", "out.png", render.DefaultSettings())
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if !strings.Contains(nf.Error(), "not installed") {
		t.Errorf("message = %q", nf.Error())
	}
}

func TestMitsubaRejectsFormatBeforeExecution(t *testing.T) {
	fake := &fakeBinding{version: "3.5.0"}
	binding.Register("mitsuba", fake)
	defer binding.Unregister("mitsuba")

	a := NewMitsuba()
	_, err := a.Render(context.Background(), "/nonexistent/scene.blend", "out.png", render.DefaultSettings())
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FormatError", err)
	}
	if fe.Format != "blend" {
		t.Errorf("format = %q, want blend", fe.Format)
	}
	if !strings.Contains(fe.Error(), ".xml") {
		t.Errorf("message does not list supported formats: %q", fe.Error())
	}
	if len(fake.requests) != 0 {
		t.Error("render dispatched despite format error")
	}
}

func TestMitsubaMissingScene(t *testing.T) {
	binding.Register("mitsuba", &fakeBinding{version: "3.5.0"})
	defer binding.Unregister("mitsuba")

	a := NewMitsuba()
	_, err := a.Render(context.Background(), "/nonexistent/scene.xml", "out.png", render.DefaultSettings())
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want RenderError", err)
	}
	if !strings.Contains(re.Reason, "scene file not found") {
		t.Errorf("reason = %q", re.Reason)
	}
}

func TestMitsubaBindingFailure(t *testing.T) {
	binding.Register("mitsuba", &fakeBinding{
		version:   "3.5.0",
		renderErr: errors.New("variant refused"),
	})
	defer binding.Unregister("mitsuba")

	scene := writeScene(t, "box.xml")
	a := NewMitsuba()
	_, err := a.Render(context.Background(), scene, filepath.Join(t.TempDir(), "box.png"), render.DefaultSettings())
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want RenderError", err)
	}
	if !strings.Contains(re.Reason, "variant refused") {
		t.Errorf("reason = %q", re.Reason)
	}
}

func TestMitsubaVariantSelection(t *testing.T) {
	tests := []struct {
		name     string
		variants []string
		gpu      bool
		want     string
	}{
		{"gpu prefers cuda", []string{"scalar_rgb", "cuda_ad_rgb"}, true, "cuda_ad_rgb"},
		{"gpu falls back to llvm", []string{"scalar_rgb", "llvm_rgb"}, true, "llvm_rgb"},
		{"cpu prefers llvm", []string{"scalar_rgb", "llvm_ad_rgb"}, false, "llvm_ad_rgb"},
		{"scalar last resort", []string{"scalar_rgb"}, false, "scalar_rgb"},
		{"nothing advertised", nil, true, "scalar_rgb"},
	}
	a := NewMitsuba()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.pickVariant(&fakeBinding{variants: tt.variants}, tt.gpu)
			if got != tt.want {
				t.Errorf("pickVariant = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLuxCorePrefersBinding(t *testing.T) {
	binding.Register("luxcore", &fakeBinding{version: "2.6"})
	defer binding.Unregister("luxcore")

	a := NewLuxCore()
	path, ok := a.IntegrationPath()
	if !ok || path != PathBinding {
		t.Fatalf("path = %q ok=%v, want binding", path, ok)
	}
	version, ok := a.Detect()
	if !ok || version != "2.6" {
		t.Errorf("Detect = %q %v", version, ok)
	}
}

func TestLuxCoreResolutionIsCached(t *testing.T) {
	a := NewLuxCore()
	if _, ok := a.IntegrationPath(); ok {
		t.Skip("luxcore present on this system")
	}

	// Registering after the first resolve must not change the outcome.
	binding.Register("luxcore", &fakeBinding{version: "2.6"})
	defer binding.Unregister("luxcore")
	if _, ok := a.IntegrationPath(); ok {
		t.Error("cached resolution changed after binding registration")
	}
	if _, ok := NewLuxCore().IntegrationPath(); !ok {
		t.Error("fresh instance did not see the new binding")
	}
}

func TestLuxCoreBindingEngineSelection(t *testing.T) {
	fake := &fakeBinding{version: "2.6"}
	binding.Register("luxcore", fake)
	defer binding.Unregister("luxcore")

	scene := writeScene(t, "room.lxs")
	settings := render.DefaultSettings()
	settings.GPU = true
	settings.Extra = map[string]any{"engine": "PATHCUDA"}

	a := NewLuxCore()
	res, err := a.Render(context.Background(), scene, filepath.Join(t.TempDir(), "room.png"), settings)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := res.Metadata["engine"]; got != "PATHCUDA" {
		t.Errorf("engine = %v, want PATHCUDA", got)
	}
	if fake.requests[0].Variant != "PATHCUDA" {
		t.Errorf("request variant = %q", fake.requests[0].Variant)
	}
}

func TestVerifyOutputAlternateExtension(t *testing.T) {
	dir := t.TempDir()
	requested := filepath.Join(dir, "frame.png")
	actual := filepath.Join(dir, "frame.exr")
	if err := os.WriteFile(actual, []byte("exr"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := verifyOutput("Test", requested, []string{".exr"}, "")
	if err != nil {
		t.Fatalf("verifyOutput: %v", err)
	}
	if got != actual {
		t.Errorf("path = %q, want %q", got, actual)
	}
}

func TestVerifyOutputEmptyFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "frame.png")
	if err := os.WriteFile(out, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := verifyOutput("Test", out, nil, "warning: low sample count")
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want RenderError", err)
	}
	if !strings.Contains(re.Reason, "empty") {
		t.Errorf("reason = %q", re.Reason)
	}
	if !strings.Contains(re.Output, "low sample count") {
		t.Errorf("output = %q", re.Output)
	}
}

func TestVerifyOutputMissing(t *testing.T) {
	_, err := verifyOutput("Test", filepath.Join(t.TempDir(), "frame.png"), []string{".exr"}, "")
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want RenderError", err)
	}
	if !strings.Contains(re.Reason, "not created") {
		t.Errorf("reason = %q", re.Reason)
	}
}

func TestTruncateDiagnostic(t *testing.T) {
	long := strings.Repeat("x", maxDiagnostic+500)
	got := truncateDiagnostic(long)
	if !strings.HasSuffix(got, "... (truncated)") {
		t.Errorf("missing truncation marker: %q", got[len(got)-40:])
	}
	if len(got) > maxDiagnostic+len("\n... (truncated)") {
		t.Errorf("len = %d", len(got))
	}
	if short := truncateDiagnostic("all good"); short != "all good" {
		t.Errorf("short input modified: %q", short)
	}
}

func TestRenderErrorMessage(t *testing.T) {
	err := &RenderError{
		Renderer: "PBRT v4",
		Reason:   "non-zero exit code",
		ExitCode: intPtr(139),
		Output:   "segfault in integrator",
	}
	msg := err.Error()
	for _, want := range []string{"PBRT v4 render failed", "Exit code: 139", "segfault in integrator"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestBuiltinFactoriesConstruct(t *testing.T) {
	seen := map[string]bool{}
	for _, factory := range Builtin() {
		a, err := factory()
		if err != nil {
			t.Fatalf("factory: %v", err)
		}
		if a.Name() == "" || a.DisplayName() == "" {
			t.Errorf("adapter %T has empty identity", a)
		}
		if seen[a.Name()] {
			t.Errorf("duplicate adapter name %q", a.Name())
		}
		seen[a.Name()] = true
		if len(a.SupportedFormats()) == 0 {
			t.Errorf("%s advertises no formats", a.Name())
		}
		// Callers own the returned slice.
		formats := a.SupportedFormats()
		formats[0] = "mutated"
		if a.SupportedFormats()[0] == "mutated" {
			t.Errorf("%s SupportedFormats aliases internal state", a.Name())
		}
	}
	if len(seen) != 7 {
		t.Errorf("builtin adapters = %d, want 7", len(seen))
	}
}

func TestProcessMetadataFields(t *testing.T) {
	meta := processMetadata("4.0.0", "/usr/local/bin/pbrt", true, nil)
	if got := meta["renderer_version"]; got != "4.0.0" {
		t.Errorf("renderer_version = %v", got)
	}
	if got := meta["binary"]; got != "/usr/local/bin/pbrt" {
		t.Errorf("binary = %v", got)
	}
	if got := meta["gpu_enabled"]; got != true {
		t.Errorf("gpu_enabled = %v", got)
	}
	if _, ok := meta["process_tree"]; ok {
		t.Error("process_tree present without traced processes")
	}

	meta = processMetadata("4.0.0", "/usr/local/bin/pbrt", false,
		[]trace.Process{{PID: 1, Command: "pbrt"}})
	if _, ok := meta["process_tree"]; !ok {
		t.Error("process_tree missing despite traced processes")
	}
}

func TestPBRTArgs(t *testing.T) {
	settings := render.DefaultSettings()
	args := pbrtArgs("/bin/pbrt", "scene.pbrt", "out.png", settings)
	for _, a := range args {
		if a == "--nthreads" {
			t.Error("--nthreads passed without an explicit thread count")
		}
		if a == "--gpu" {
			t.Error("--gpu passed without the GPU flag")
		}
	}
	if args[len(args)-1] != "scene.pbrt" {
		t.Errorf("scene not last: %v", args)
	}

	settings.Threads = 8
	settings.Samples = 64
	settings.GPU = true
	args = pbrtArgs("/bin/pbrt", "scene.pbrt", "out.png", settings)
	text := strings.Join(args, " ")
	for _, want := range []string{"--nthreads 8", "--spp 64", "--gpu"} {
		if !strings.Contains(text, want) {
			t.Errorf("args %q missing %q", text, want)
		}
	}
}

func TestCLIDetectAbsentBinary(t *testing.T) {
	tool := cliTool{Binaries: []string{"renderscope-test-definitely-absent"}}
	if _, ok := tool.Detect(); ok {
		t.Fatal("detected a nonexistent binary")
	}
	// Cached negative result.
	if _, ok := tool.Detect(); ok {
		t.Fatal("second Detect flipped")
	}
}

func TestCyclesDriverScript(t *testing.T) {
	a := NewCycles()
	scene := writeScene(t, "monkey.obj")
	settings := render.Settings{Width: 640, Height: 480, Samples: 16, Threads: 4, GPU: true}

	script, err := a.writeDriver(scene, "/tmp/out.png", settings)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(script)

	data, err := os.ReadFile(script)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		"bpy.ops.wm.obj_import",
		"resolution_x = 640",
		"resolution_y = 480",
		"cycles.samples = 16",
		"device = 'GPU'",
		"render.threads = 4",
		"bpy.ops.render.render(write_still=True)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("driver script missing %q", want)
		}
	}
}

var _ binding.SceneLoader = (*fakeBinding)(nil)
