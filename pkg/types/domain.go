package types

import "time"

// Tier is the coarse capability ranking used to match a request's
// complexity against candidate backends.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

// String returns the lowercase name used in config files and API payloads.
func (t Tier) String() string {
	switch t {
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "low"
	}
}

// ParseTier maps a config/API string to a Tier. Unknown values map to
// TierLow, matching the router's default for an unspecified hint.
func ParseTier(s string) Tier {
	switch s {
	case "medium":
		return TierMedium
	case "high":
		return TierHigh
	default:
		return TierLow
	}
}

// MarshalText implements encoding.TextMarshaler so Tier round-trips through
// JSON and YAML as its lowercase name.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	*t = ParseTier(string(b))
	return nil
}

// MarshalYAML emits the lowercase name in catalog files.
func (t Tier) MarshalYAML() (any, error) { return t.String(), nil }

// UnmarshalYAML accepts the lowercase name in catalog files.
func (t *Tier) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*t = ParseTier(s)
	return nil
}

// Class distinguishes backends that consume local memory from the remote
// fallback, which is always affordable.
type Class string

const (
	ClassLocal  Class = "local"
	ClassRemote Class = "remote"
)

// Backend describes one selectable inference target.
type Backend struct {
	// Stable identifier.
	// example: phi3-mini
	ID string `json:"id" yaml:"id"`
	// Human-friendly name.
	// example: Phi-3 Mini
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Capability tier this backend serves.
	Tier Tier `json:"tier" yaml:"tier"`
	// Estimated resident memory cost in MB. Zero for remote backends.
	// example: 2048
	MemoryCostMB int `json:"memory_cost_mb" yaml:"memory_cost_mb"`
	// local or remote.
	Class Class `json:"class" yaml:"class"`
	// Maximum prompt length in characters the backend accepts.
	// example: 8192
	MaxPromptChars int `json:"max_prompt_chars,omitempty" yaml:"max_prompt_chars,omitempty"`
	// Base URL of the serving endpoint (Ollama-compatible for local
	// backends, OpenAI-compatible for the remote fallback).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// MemoryProfile is an immutable point-in-time view of host resources.
type MemoryProfile struct {
	TotalMB     int       `json:"total_mb"`
	AvailableMB int       `json:"available_mb"`
	CPUCount    int       `json:"cpu_count"`
	SampledAt   time.Time `json:"sampled_at"`
}

// UsedPct reports used memory as a percentage of total. Returns 0 when the
// profile is empty (e.g., metrics were unavailable).
func (p MemoryProfile) UsedPct() float64 {
	if p.TotalMB <= 0 {
		return 0
	}
	return float64(p.TotalMB-p.AvailableMB) / float64(p.TotalMB) * 100
}
