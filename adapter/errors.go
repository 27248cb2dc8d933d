package adapter

import (
	"errors"
	"fmt"
	"strings"
)

// maxDiagnostic caps the renderer output embedded in error messages.
const maxDiagnostic = 2000

// ErrConversionUnsupported is returned by adapters that cannot transcode
// to the requested format.
var ErrConversionUnsupported = errors.New("scene conversion not supported")

// NotFoundError reports that a renderer is not installed.
type NotFoundError struct {
	Renderer    string
	InstallHint string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is not installed or not found on this system.", e.Renderer)
	if e.InstallHint != "" {
		fmt.Fprintf(&b, "\nTo install:\n  %s", e.InstallHint)
	}
	return b.String()
}

// FormatError reports a scene file in a format the renderer cannot read.
type FormatError struct {
	Renderer  string
	ScenePath string
	Format    string
	Supported []string
}

func (e *FormatError) Error() string {
	exts := make([]string, len(e.Supported))
	for i, f := range e.Supported {
		exts[i] = "." + f
	}
	return fmt.Sprintf("%s cannot render '.%s' files.\nScene: %s\nSupported formats for %s: %s",
		e.Renderer, e.Format, e.ScenePath, e.Renderer, strings.Join(exts, ", "))
}

// RenderError reports a failed render execution: non-zero exit, timeout,
// missing or empty output, or a binding failure mid-render.
type RenderError struct {
	Renderer string
	Reason   string
	// ExitCode is nil when no process exit is involved.
	ExitCode *int
	// Output is the captured diagnostic text, already truncated.
	Output string
}

func (e *RenderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s render failed: %s", e.Renderer, e.Reason)
	if e.ExitCode != nil {
		fmt.Fprintf(&b, "\nExit code: %d", *e.ExitCode)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		fmt.Fprintf(&b, "\nRenderer output:\n  %s", out)
	}
	return b.String()
}

// truncateDiagnostic caps diagnostic output and marks the cut.
func truncateDiagnostic(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxDiagnostic {
		return s
	}
	return s[:maxDiagnostic] + "\n... (truncated)"
}

func intPtr(v int) *int { return &v }
