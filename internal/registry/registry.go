package registry

import (
	"fmt"
	"sort"

	"inferd/pkg/types"
)

// Registry is a read-only catalog of backend descriptors. It is immutable
// after construction and therefore safe for concurrent use.
type Registry struct {
	backends []types.Backend
	byID     map[string]types.Backend
	remote   types.Backend
}

// New validates the catalog and builds a Registry. Exactly one descriptor
// must be remote, and the remote descriptor must have a zero memory cost so
// it is always affordable as the terminal fallback.
func New(backends []types.Backend) (*Registry, error) {
	r := &Registry{byID: make(map[string]types.Backend, len(backends))}
	remotes := 0
	for _, b := range backends {
		if b.ID == "" {
			return nil, fmt.Errorf("backend with empty id")
		}
		if _, dup := r.byID[b.ID]; dup {
			return nil, fmt.Errorf("duplicate backend id %q", b.ID)
		}
		switch b.Class {
		case types.ClassLocal:
			if b.MemoryCostMB <= 0 {
				return nil, fmt.Errorf("local backend %q must declare a positive memory cost", b.ID)
			}
		case types.ClassRemote:
			if b.MemoryCostMB != 0 {
				return nil, fmt.Errorf("remote backend %q must have zero memory cost", b.ID)
			}
			remotes++
			r.remote = b
		default:
			return nil, fmt.Errorf("backend %q has unknown class %q", b.ID, b.Class)
		}
		r.byID[b.ID] = b
		r.backends = append(r.backends, b)
	}
	if remotes != 1 {
		return nil, fmt.Errorf("catalog must contain exactly one remote backend, got %d", remotes)
	}
	return r, nil
}

// Get looks up a descriptor by id.
func (r *Registry) Get(id string) (types.Backend, bool) {
	b, ok := r.byID[id]
	return b, ok
}

// Remote returns the terminal fallback descriptor.
func (r *Registry) Remote() types.Backend { return r.remote }

// All returns a copy of the full catalog.
func (r *Registry) All() []types.Backend {
	out := make([]types.Backend, len(r.backends))
	copy(out, r.backends)
	return out
}

// Candidates returns local backends at or above minTier ordered by ascending
// memory cost, with the remote fallback appended last. The order is
// deterministic for a fixed catalog.
func (r *Registry) Candidates(minTier types.Tier) []types.Backend {
	var out []types.Backend
	for _, b := range r.backends {
		if b.Class == types.ClassLocal && b.Tier >= minTier {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MemoryCostMB < out[j].MemoryCostMB
	})
	return append(out, r.remote)
}
