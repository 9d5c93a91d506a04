// Package cache owns the lifecycle of warm backend entries under a memory
// budget. All mutations of the entry map go through the Cache's own
// synchronized operations.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"inferd/internal/hostinfo"
	"inferd/internal/registry"
	"inferd/pkg/types"
)

// State is the lifecycle state of a cache entry.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// entry is the internal record for one backend id.
type entry struct {
	backendID string
	state     State
	loadedAt  time.Time
	lastUsed  time.Time
	sizeMB    int
}

// Handle is the caller-visible proof that a backend is warm.
type Handle struct {
	BackendID string
	SizeMB    int
}

// Loader warms one backend. Implementations should block until the backend
// is usable and return when the context is canceled. The cache counts one
// Load call per cold acquire regardless of how many callers wait on it.
type Loader interface {
	Load(ctx context.Context, b types.Backend) error
}

// LoadFunc adapts a plain function to the Loader interface.
type LoadFunc func(ctx context.Context, b types.Backend) error

func (f LoadFunc) Load(ctx context.Context, b types.Backend) error { return f(ctx, b) }

// Config encapsulates tunables for Cache construction.
type Config struct {
	Registry *registry.Registry
	Sampler  hostinfo.Sampler
	Loader   Loader
	TTL      time.Duration
	// BudgetMB caps the sum of warm entry sizes. Zero means derive the
	// budget from sampled available memory at each load decision.
	BudgetMB int
	Logger   zerolog.Logger
}

// Cache keeps zero-or-one entry per backend id.
type Cache struct {
	// mu guards entries and usedMB only; it is never held across a load.
	// usedMB counts Ready entries plus in-flight Loading reservations.
	mu      sync.Mutex
	entries map[string]*entry
	usedMB  int

	group   singleflight.Group
	reg     *registry.Registry
	sampler hostinfo.Sampler
	loader  Loader
	ttl     time.Duration
	budget  int
	log     zerolog.Logger
}

// New constructs a Cache.
func New(cfg Config) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 600 * time.Second
	}
	loader := cfg.Loader
	if loader == nil {
		loader = LoadFunc(func(ctx context.Context, b types.Backend) error { return nil })
	}
	return &Cache{
		entries: make(map[string]*entry),
		reg:     cfg.Registry,
		sampler: cfg.Sampler,
		loader:  loader,
		ttl:     ttl,
		budget:  cfg.BudgetMB,
		log:     cfg.Logger,
	}
}

// Acquire returns a warm handle for backendID. A fresh Ready entry is a hit
// and returns immediately. Concurrent callers for the same cold backend wait
// on a single in-flight load; callers for different backends never block
// each other. When the memory budget cannot fit the backend, Acquire fails
// fast with an insufficient-memory error and no load is attempted.
func (c *Cache) Acquire(ctx context.Context, backendID string) (Handle, error) {
	b, ok := c.reg.Get(backendID)
	if !ok {
		return Handle{}, ErrNotRegistered(backendID)
	}

	if h, ok := c.tryHit(backendID); ok {
		hitsTotal.Inc()
		return h, nil
	}
	missesTotal.Inc()

	// The load is shared by every waiter on this key, so it runs detached
	// from the initiating caller: one caller canceling must not fail the
	// flight for waiters whose contexts are still live.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(backendID, func() (any, error) {
		return c.load(loadCtx, b)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Handle{}, res.Err
		}
		return res.Val.(Handle), nil
	case <-ctx.Done():
		return Handle{}, ctx.Err()
	}
}

// AcquireBypass loads the backend without consulting or populating the
// entry map. Used when caching is disabled: every request pays the full
// load, but the budget check still applies.
func (c *Cache) AcquireBypass(ctx context.Context, backendID string) (Handle, error) {
	b, ok := c.reg.Get(backendID)
	if !ok {
		return Handle{}, ErrNotRegistered(backendID)
	}
	c.mu.Lock()
	budget := c.budgetForLocked()
	free := budget - c.usedMB
	c.mu.Unlock()
	if b.MemoryCostMB > free {
		return Handle{}, ErrInsufficientMemory(b.ID, b.MemoryCostMB, free)
	}
	loadsTotal.Inc()
	if err := c.loader.Load(ctx, b); err != nil {
		loadFailuresTotal.Inc()
		return Handle{}, ErrLoadFailed(b.ID, err)
	}
	return Handle{BackendID: b.ID, SizeMB: b.MemoryCostMB}, nil
}

// tryHit returns a handle when a fresh Ready entry exists, bumping lastUsed.
// An entry past its TTL is never returned as a hit; it is removed so the
// caller performs a fresh load.
func (c *Cache) tryHit(backendID string) (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[backendID]
	if !ok || e.state != StateReady {
		return Handle{}, false
	}
	now := time.Now()
	if now.Sub(e.lastUsed) > c.ttl {
		c.removeLocked(e)
		evictionsTotal.WithLabelValues("ttl").Inc()
		return Handle{}, false
	}
	e.lastUsed = now
	return Handle{BackendID: e.backendID, SizeMB: e.sizeMB}, true
}

// load performs the single in-flight load for one backend id.
func (c *Cache) load(ctx context.Context, b types.Backend) (Handle, error) {
	// Re-check under lock: another singleflight round may have completed
	// between the miss and this call.
	if h, ok := c.tryHit(b.ID); ok {
		return h, nil
	}

	c.mu.Lock()
	budget := c.budgetForLocked()
	if c.usedMB+b.MemoryCostMB > budget {
		needed := b.MemoryCostMB
		used := c.usedMB
		c.mu.Unlock()
		return Handle{}, ErrInsufficientMemory(b.ID, needed, budget-used)
	}
	now := time.Now()
	e := &entry{backendID: b.ID, state: StateLoading, loadedAt: now, lastUsed: now, sizeMB: b.MemoryCostMB}
	c.entries[b.ID] = e
	// Reserve the cost while loading so concurrent loads of other backends
	// cannot jointly overcommit the budget.
	c.usedMB += b.MemoryCostMB
	entriesGauge.Set(float64(len(c.entries)))
	usedMBGauge.Set(float64(c.usedMB))
	c.mu.Unlock()

	loadsTotal.Inc()
	c.log.Debug().Str("backend", b.ID).Int("cost_mb", b.MemoryCostMB).Msg("cache load start")
	if err := c.loader.Load(ctx, b); err != nil {
		c.mu.Lock()
		c.removeLocked(e)
		c.mu.Unlock()
		loadFailuresTotal.Inc()
		c.log.Warn().Str("backend", b.ID).Err(err).Msg("cache load failed")
		return Handle{}, ErrLoadFailed(b.ID, err)
	}

	c.mu.Lock()
	e.state = StateReady
	e.lastUsed = time.Now()
	c.mu.Unlock()
	c.log.Info().Str("backend", b.ID).Int("size_mb", b.MemoryCostMB).Msg("backend warm")
	return Handle{BackendID: b.ID, SizeMB: b.MemoryCostMB}, nil
}

// budgetForLocked resolves the effective budget. With no configured budget
// the sampled available memory bounds new loads; when sampling fails the
// budget is zero, which rejects every local load (conservative).
func (c *Cache) budgetForLocked() int {
	if c.budget > 0 {
		return c.budget
	}
	if c.sampler == nil {
		return c.usedMB // no information: allow nothing new
	}
	p, err := c.sampler.Sample()
	if err != nil {
		return c.usedMB
	}
	// Warm entries already occupy part of what the host reports used, so
	// available memory bounds only the new load.
	return c.usedMB + p.AvailableMB
}

// removeLocked deletes an entry and releases its accounting. Loading entries
// carry a reservation, so the size is returned regardless of state. Caller
// holds mu.
func (c *Cache) removeLocked(e *entry) {
	delete(c.entries, e.backendID)
	c.usedMB -= e.sizeMB
	if c.usedMB < 0 {
		c.usedMB = 0
	}
	entriesGauge.Set(float64(len(c.entries)))
	usedMBGauge.Set(float64(c.usedMB))
}

// UsedMB reports the estimated MB held by warm entries.
func (c *Cache) UsedMB() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usedMB
}

// Snapshot returns a read-only view of current entries for status reporting.
func (c *Cache) Snapshot() []types.EntryStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.EntryStatus, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, types.EntryStatus{
			BackendID: e.backendID,
			State:     string(e.state),
			LoadedAt:  e.loadedAt.Unix(),
			LastUsed:  e.lastUsed.Unix(),
			SizeMB:    e.sizeMB,
		})
	}
	return out
}
