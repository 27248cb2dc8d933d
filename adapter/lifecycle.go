package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/renderscope-dev/renderscope/core/execution"
	"github.com/renderscope-dev/renderscope/render"
	"github.com/renderscope-dev/renderscope/trace"
)

// The render lifecycle is identical across integrations: detect, validate
// the scene format against the adapter's table, confirm the scene exists,
// ensure the output directory, dispatch to an execution engine, verify the
// output, build the result. The helpers below implement the shared steps.

// sceneExt returns the lower-cased scene extension without the dot.
func sceneExt(scenePath string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(scenePath)), ".")
}

// sceneStem is the scene identifier: the file name without its extension.
func sceneStem(scenePath string) string {
	base := filepath.Base(scenePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// checkScene validates format membership and existence. Format validation
// runs first so an unsupported extension fails before any disk access.
func checkScene(a Adapter, scenePath string, accepted []string) error {
	ext := sceneExt(scenePath)
	supported := false
	for _, f := range accepted {
		if ext == f {
			supported = true
			break
		}
	}
	if !supported {
		return &FormatError{
			Renderer:  a.DisplayName(),
			ScenePath: scenePath,
			Format:    ext,
			Supported: a.SupportedFormats(),
		}
	}
	if _, err := os.Stat(scenePath); err != nil {
		return &RenderError{
			Renderer: a.DisplayName(),
			Reason:   fmt.Sprintf("scene file not found: %s", scenePath),
		}
	}
	return nil
}

// ensureOutputDir creates the output file's directory if missing.
func ensureOutputDir(display, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &RenderError{
			Renderer: display,
			Reason:   fmt.Sprintf("cannot create output directory %s: %v", dir, err),
		}
	}
	return nil
}

// runRender dispatches to the process engine and translates engine-level
// failures into the adapter taxonomy. A clean non-zero exit also fails.
func runRender(ctx context.Context, display string, spec execution.Spec) (*execution.Result, error) {
	res, err := execution.Run(ctx, spec)
	if err != nil {
		var timeout *execution.TimeoutError
		if errors.As(err, &timeout) {
			return nil, &RenderError{
				Renderer: display,
				Reason:   timeout.Error(),
				ExitCode: intPtr(-1),
			}
		}
		var notFound *execution.NotFoundError
		if errors.As(err, &notFound) {
			// The binary vanished between detection and render.
			return nil, &RenderError{Renderer: display, Reason: notFound.Error()}
		}
		return nil, &RenderError{Renderer: display, Reason: err.Error()}
	}
	if res.ExitCode != 0 {
		return nil, &RenderError{
			Renderer: display,
			Reason:   "non-zero exit code",
			ExitCode: intPtr(res.ExitCode),
			Output:   truncateDiagnostic(res.Stderr),
		}
	}
	return res, nil
}

// verifyOutput confirms the render produced a non-empty file. altExts are
// tried when the renderer may rewrite the output extension; the path that
// actually exists is returned.
func verifyOutput(display, outputPath string, altExts []string, diagnostic string) (string, error) {
	candidates := append([]string{outputPath}, altPaths(outputPath, altExts)...)
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if info.Size() == 0 {
			return "", &RenderError{
				Renderer: display,
				Reason:   fmt.Sprintf("output file is empty: %s", candidate),
				Output:   truncateDiagnostic(diagnostic),
			}
		}
		return candidate, nil
	}
	return "", &RenderError{
		Renderer: display,
		Reason:   fmt.Sprintf("output file was not created at %s", outputPath),
		Output:   truncateDiagnostic(diagnostic),
	}
}

func altPaths(outputPath string, altExts []string) []string {
	if len(altExts) == 0 {
		return nil
	}
	stem := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	out := make([]string, 0, len(altExts))
	for _, ext := range altExts {
		out = append(out, stem+ext)
	}
	return out
}

// execSpec assembles the engine spec for a CLI render. The working
// directory is the scene's own directory so relative asset references in
// scene files resolve.
func execSpec(args []string, scenePath string, settings render.Settings, defaultTimeout time.Duration) execution.Spec {
	return execution.Spec{
		Args:    args,
		Timeout: settings.ResolveTimeout(defaultTimeout),
		Dir:     filepath.Dir(scenePath),
		Trace:   traceRequested(settings.Extra),
	}
}

// processMetadata builds the baseline result metadata for CLI renders:
// the detected version, the resolved binary, whether GPU rendering was
// requested, and the traced process tree when tracing was active.
func processMetadata(version, binary string, gpu bool, procs []trace.Process) map[string]any {
	meta := map[string]any{
		"renderer_version": version,
		"binary":           binary,
		"gpu_enabled":      gpu,
	}
	if len(procs) > 0 {
		meta["process_tree"] = procs
	}
	return meta
}

// traceRequested reports whether the caller asked for exec tracing via the
// settings extension map.
func traceRequested(extra map[string]any) bool {
	v, ok := extra["trace"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
