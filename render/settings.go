package render

import "time"

// Settings is the caller-supplied configuration for one render invocation.
// The framework never mutates it.
type Settings struct {
	Width      int           `json:"width" yaml:"width"`
	Height     int           `json:"height" yaml:"height"`
	Samples    int           `json:"samples,omitempty" yaml:"samples,omitempty"`
	TimeBudget time.Duration `json:"time_budget,omitempty" yaml:"time_budget,omitempty"`
	Threads    int           `json:"threads,omitempty" yaml:"threads,omitempty"`
	GPU        bool          `json:"gpu" yaml:"gpu"`
	// Extra carries renderer-specific options (e.g. "renderer" for the
	// OSPRay renderer subtype, or an ad-hoc "timeout" in seconds).
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// DefaultSettings returns settings with the default 1920x1080 resolution.
func DefaultSettings() Settings {
	return Settings{Width: 1920, Height: 1080}
}

// ExtraString returns a string-valued extra option.
func (s Settings) ExtraString(key string) (string, bool) {
	v, ok := s.Extra[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// ExtraTimeout returns the ad-hoc "timeout" extra (in seconds) if present.
func (s Settings) ExtraTimeout() (time.Duration, bool) {
	v, ok := s.Extra["timeout"]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return time.Duration(t) * time.Second, true
	case int64:
		return time.Duration(t) * time.Second, true
	case float64:
		return time.Duration(t * float64(time.Second)), true
	case time.Duration:
		return t, true
	default:
		return 0, false
	}
}

// ResolveTimeout picks the effective timeout for a render: the explicit
// time budget wins, then the ad-hoc extra, then the adapter default.
// Zero means unlimited.
func (s Settings) ResolveTimeout(adapterDefault time.Duration) time.Duration {
	if s.TimeBudget > 0 {
		return s.TimeBudget
	}
	if t, ok := s.ExtraTimeout(); ok && t > 0 {
		return t
	}
	return adapterDefault
}
