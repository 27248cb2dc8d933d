package adapter

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/renderscope-dev/renderscope/core/execution"
)

const versionProbeTimeout = 10 * time.Second

// cliTool locates a renderer's command-line binary and probes its version.
// Detection results are cached per instance so repeated Detect calls during
// a benchmark run do not re-shell the binary.
type cliTool struct {
	// Binaries is the candidate list in priority order. The first one
	// present on PATH wins.
	Binaries []string

	// VersionArgs are passed to the binary to make it print its version.
	VersionArgs []string

	// VersionPatterns are tried in order against the combined output; the
	// first submatch of the first matching pattern is the version string.
	VersionPatterns []*regexp.Regexp

	mu     sync.Mutex
	probed bool
	binary string
	ver    string
}

// Detect resolves the binary and version, caching the outcome. The version
// falls back to "unknown" when the probe fails or the output does not match
// any pattern; a renderer that is present but mute is still usable.
func (t *cliTool) Detect() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.probed {
		return t.ver, t.binary != ""
	}
	t.probed = true
	for _, name := range t.Binaries {
		if path, err := exec.LookPath(name); err == nil {
			t.binary = path
			break
		}
	}
	if t.binary == "" {
		return "", false
	}
	t.ver = t.probeVersion()
	return t.ver, true
}

// Binary returns the resolved binary path, running detection if needed.
func (t *cliTool) Binary() (string, bool) {
	_, ok := t.Detect()
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.binary, ok
}

func (t *cliTool) probeVersion() string {
	ctx, cancel := context.WithTimeout(context.Background(), versionProbeTimeout)
	defer cancel()
	res, err := execution.Run(ctx, execution.Spec{
		Args:    append([]string{t.binary}, t.VersionArgs...),
		Timeout: versionProbeTimeout,
	})
	if err != nil {
		return "unknown"
	}
	out := res.Stdout + "\n" + res.Stderr
	for _, pat := range t.VersionPatterns {
		if m := pat.FindStringSubmatch(out); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return "unknown"
}
