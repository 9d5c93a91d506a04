package hostinfo

import (
	"errors"
	"sync"
	"time"

	"inferd/pkg/types"
)

// Static is a Sampler with a fixed profile, used in tests and dry runs.
// The profile can be swapped at runtime to simulate changing pressure.
type Static struct {
	mu      sync.Mutex
	profile types.MemoryProfile
	fail    bool
}

// NewStatic returns a Static sampler reporting the given figures.
func NewStatic(totalMB, availableMB, cpuCount int) *Static {
	return &Static{profile: types.MemoryProfile{
		TotalMB:     totalMB,
		AvailableMB: availableMB,
		CPUCount:    cpuCount,
	}}
}

// Set replaces the reported figures.
func (s *Static) Set(totalMB, availableMB int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.TotalMB = totalMB
	s.profile.AvailableMB = availableMB
}

// SetFailing makes subsequent Sample calls return metrics-unavailable.
func (s *Static) SetFailing(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *Static) Sample() (types.MemoryProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return types.MemoryProfile{}, ErrMetricsUnavailable(errors.New("static sampler set to fail"))
	}
	p := s.profile
	p.SampledAt = time.Now()
	return p, nil
}
