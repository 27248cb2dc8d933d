//go:build !linux

package trace

import "fmt"

// New is unavailable off Linux; the execution engine runs untraced.
func New(cfg Config) (Watcher, error) {
	_ = cfg
	return nil, fmt.Errorf("exec tracing is only supported on linux")
}
