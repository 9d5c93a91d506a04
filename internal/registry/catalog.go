package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"inferd/internal/common/fsutil"
	"inferd/pkg/types"
)

// DefaultCatalog returns the built-in backend ladder: three local models of
// increasing capability and memory cost, plus the remote fallback.
func DefaultCatalog() []types.Backend {
	return []types.Backend{
		{
			ID:             "tinyllama",
			Name:           "TinyLlama 1.1B",
			Tier:           types.TierLow,
			MemoryCostMB:   1024,
			Class:          types.ClassLocal,
			MaxPromptChars: 4096,
			BaseURL:        "http://localhost:11434",
		},
		{
			ID:             "phi3-mini",
			Name:           "Phi-3 Mini",
			Tier:           types.TierMedium,
			MemoryCostMB:   2048,
			Class:          types.ClassLocal,
			MaxPromptChars: 8192,
			BaseURL:        "http://localhost:11434",
		},
		{
			ID:             "biomistral-7b",
			Name:           "BioMistral 7B",
			Tier:           types.TierHigh,
			MemoryCostMB:   4096,
			Class:          types.ClassLocal,
			MaxPromptChars: 16384,
			BaseURL:        "http://localhost:11434",
		},
		{
			ID:             "gemini-flash",
			Name:           "Gemini 1.5 Flash",
			Tier:           types.TierHigh,
			MemoryCostMB:   0,
			Class:          types.ClassRemote,
			MaxPromptChars: 131072,
		},
	}
}

// catalogFile is the on-disk shape of a catalog override.
type catalogFile struct {
	Backends []types.Backend `yaml:"backends"`
}

// LoadFile reads a YAML catalog from path and builds a validated Registry.
func LoadFile(path string) (*Registry, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Backends)
}
