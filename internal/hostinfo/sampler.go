// Package hostinfo adapts host memory/CPU facts into MemoryProfile values.
package hostinfo

import (
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"inferd/pkg/types"
)

// Sampler produces a fresh MemoryProfile on each call.
type Sampler interface {
	Sample() (types.MemoryProfile, error)
}

// metricsUnavailableError signals the host could not be queried. Callers
// recover by assuming zero available memory.
type metricsUnavailableError struct{ cause error }

func (e metricsUnavailableError) Error() string {
	return "host metrics unavailable: " + e.cause.Error()
}

func (e metricsUnavailableError) Unwrap() error { return e.cause }

// ErrMetricsUnavailable wraps a sampling failure.
func ErrMetricsUnavailable(cause error) error { return metricsUnavailableError{cause: cause} }

// IsMetricsUnavailable reports whether err indicates a host sampling failure.
func IsMetricsUnavailable(err error) bool {
	_, ok := err.(metricsUnavailableError)
	return ok
}

// HostSampler reads live figures via gopsutil.
type HostSampler struct{}

// NewHostSampler returns a Sampler backed by the running host.
func NewHostSampler() *HostSampler { return &HostSampler{} }

// Sample queries virtual memory and logical CPU counts. Any failure is
// wrapped as metrics-unavailable; the profile is never partially filled.
func (s *HostSampler) Sample() (types.MemoryProfile, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return types.MemoryProfile{}, ErrMetricsUnavailable(err)
	}
	cpus, err := cpu.Counts(true)
	if err != nil {
		return types.MemoryProfile{}, ErrMetricsUnavailable(err)
	}
	return types.MemoryProfile{
		TotalMB:     int(vm.Total / (1024 * 1024)),
		AvailableMB: int(vm.Available / (1024 * 1024)),
		CPUCount:    cpus,
		SampledAt:   time.Now(),
	}, nil
}
