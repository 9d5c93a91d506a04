package config

import "time"

// Defaults applied when corresponding Settings fields are unset. The
// specific numbers are product tunables, not contracts.
const (
	DefaultCacheTTL              = 600 * time.Second
	DefaultPressureThresholdPct  = 75.0
	DefaultIntervalFloor         = 30 * time.Second
	DefaultIntervalCeiling       = 300 * time.Second
	DefaultDeepCleanupMultiplier = 5
	DefaultLongSessionWarnAfter  = 4 * time.Hour
	DefaultInvokeTimeout         = 120 * time.Second
)

// Settings holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by Normalize.
type Settings struct {
	Addr                    string  `json:"addr" yaml:"addr" toml:"addr"`
	CatalogPath             string  `json:"catalog_path" yaml:"catalog_path" toml:"catalog_path"`
	EnableCaching           *bool   `json:"enable_caching" yaml:"enable_caching" toml:"enable_caching"`
	EnableContextTruncation *bool   `json:"enable_context_truncation" yaml:"enable_context_truncation" toml:"enable_context_truncation"`
	CacheTTLSeconds         int     `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds" toml:"cache_ttl_seconds"`
	MemoryBudgetMB          int     `json:"memory_budget_mb" yaml:"memory_budget_mb" toml:"memory_budget_mb"`
	PressureThresholdPct    float64 `json:"memory_pressure_threshold_pct" yaml:"memory_pressure_threshold_pct" toml:"memory_pressure_threshold_pct"`
	IntervalFloorSeconds    int     `json:"monitoring_interval_floor_seconds" yaml:"monitoring_interval_floor_seconds" toml:"monitoring_interval_floor_seconds"`
	IntervalCeilingSeconds  int     `json:"monitoring_interval_ceiling_seconds" yaml:"monitoring_interval_ceiling_seconds" toml:"monitoring_interval_ceiling_seconds"`
	DeepCleanupMultiplier   int     `json:"deep_cleanup_tick_multiplier" yaml:"deep_cleanup_tick_multiplier" toml:"deep_cleanup_tick_multiplier"`
	InvokeTimeoutSeconds    int     `json:"invoke_timeout_seconds" yaml:"invoke_timeout_seconds" toml:"invoke_timeout_seconds"`
}

// Normalize fills unspecified fields with package defaults and clamps
// nonsensical values. It returns the receiver for chaining.
func (s *Settings) Normalize() *Settings {
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.EnableCaching == nil {
		s.EnableCaching = boolPtr(true)
	}
	if s.EnableContextTruncation == nil {
		s.EnableContextTruncation = boolPtr(true)
	}
	if s.CacheTTLSeconds <= 0 {
		s.CacheTTLSeconds = int(DefaultCacheTTL / time.Second)
	}
	if s.PressureThresholdPct <= 0 || s.PressureThresholdPct > 100 {
		s.PressureThresholdPct = DefaultPressureThresholdPct
	}
	if s.IntervalFloorSeconds <= 0 {
		s.IntervalFloorSeconds = int(DefaultIntervalFloor / time.Second)
	}
	if s.IntervalCeilingSeconds <= 0 {
		s.IntervalCeilingSeconds = int(DefaultIntervalCeiling / time.Second)
	}
	if s.IntervalCeilingSeconds < s.IntervalFloorSeconds {
		s.IntervalCeilingSeconds = s.IntervalFloorSeconds
	}
	if s.DeepCleanupMultiplier <= 0 {
		s.DeepCleanupMultiplier = DefaultDeepCleanupMultiplier
	}
	if s.InvokeTimeoutSeconds <= 0 {
		s.InvokeTimeoutSeconds = int(DefaultInvokeTimeout / time.Second)
	}
	return s
}

// CacheTTL returns the TTL as a duration.
func (s *Settings) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// IntervalFloor returns the scheduler floor interval.
func (s *Settings) IntervalFloor() time.Duration {
	return time.Duration(s.IntervalFloorSeconds) * time.Second
}

// IntervalCeiling returns the scheduler ceiling interval.
func (s *Settings) IntervalCeiling() time.Duration {
	return time.Duration(s.IntervalCeilingSeconds) * time.Second
}

// InvokeTimeout returns the per-invocation timeout.
func (s *Settings) InvokeTimeout() time.Duration {
	return time.Duration(s.InvokeTimeoutSeconds) * time.Second
}

// CachingEnabled reports whether the backend cache should be consulted.
func (s *Settings) CachingEnabled() bool {
	return s.EnableCaching == nil || *s.EnableCaching
}

// TruncationEnabled reports whether the prompt optimizer may shrink prompts.
func (s *Settings) TruncationEnabled() bool {
	return s.EnableContextTruncation == nil || *s.EnableContextTruncation
}

// Default returns a fully-populated Settings with package defaults.
func Default() Settings {
	var s Settings
	s.Normalize()
	return s
}

func boolPtr(b bool) *bool { return &b }
