package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"inferd/internal/common/fsutil"
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Settings, error) {
	var s Settings
	if path == "" {
		return s, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return s, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return s, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &s); err != nil {
			return s, err
		}
	case ".json":
		if err := json.Unmarshal(b, &s); err != nil {
			return s, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &s); err != nil {
			return s, err
		}
	default:
		return s, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return s, nil
}

// ApplyEnv overrides fields from the recognized environment keys. Malformed
// values are ignored so a bad env never prevents startup.
func (s *Settings) ApplyEnv() *Settings {
	if v, ok := envInt("CACHE_TTL_SECONDS"); ok {
		s.CacheTTLSeconds = v
	}
	if v, ok := envFloat("MEMORY_PRESSURE_THRESHOLD_PCT"); ok {
		s.PressureThresholdPct = v
	}
	if v, ok := envInt("MONITORING_INTERVAL_FLOOR_SECONDS"); ok {
		s.IntervalFloorSeconds = v
	}
	if v, ok := envInt("MONITORING_INTERVAL_CEILING_SECONDS"); ok {
		s.IntervalCeilingSeconds = v
	}
	if v, ok := envInt("DEEP_CLEANUP_TICK_MULTIPLIER"); ok {
		s.DeepCleanupMultiplier = v
	}
	if v, ok := envBool("ENABLE_CACHING"); ok {
		s.EnableCaching = boolPtr(v)
	}
	if v, ok := envBool("ENABLE_CONTEXT_TRUNCATION"); ok {
		s.EnableContextTruncation = boolPtr(v)
	}
	return s
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
