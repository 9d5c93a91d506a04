// Package router chooses a backend for each request, invokes it, and walks
// the fallback chain on failure. It is the single point where lower-level
// failures are either retried against another candidate or aggregated into
// the one error surfaced to callers.
package router

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/backend"
	"inferd/internal/cache"
	"inferd/internal/config"
	"inferd/internal/hostinfo"
	"inferd/internal/optimizer"
	"inferd/internal/registry"
	"inferd/internal/session"
	"inferd/pkg/types"
)

// Result carries the outcome of a routed request.
type Result struct {
	Text        string
	BackendUsed string
	Truncated   bool
}

// Config encapsulates router dependencies.
type Config struct {
	Registry *registry.Registry
	Cache    *cache.Cache
	Sampler  hostinfo.Sampler
	Factory  backend.Factory
	Settings *config.Settings
	Session  *session.Tracker
	Logger   zerolog.Logger
}

// Router never holds cache entries itself; it only asks the cache for a
// warm handle or triggers a load, then invokes the backend.
type Router struct {
	reg      *registry.Registry
	cache    *cache.Cache
	sampler  hostinfo.Sampler
	factory  backend.Factory
	settings *config.Settings
	session  *session.Tracker
	log      zerolog.Logger
}

// New constructs a Router.
func New(cfg Config) *Router {
	return &Router{
		reg:      cfg.Registry,
		cache:    cfg.Cache,
		sampler:  cfg.Sampler,
		factory:  cfg.Factory,
		settings: cfg.Settings,
		session:  cfg.Session,
		log:      cfg.Logger,
	}
}

// Route executes prompt against the cheapest viable candidate at or above
// the hinted tier, falling back in capability order and terminating at the
// remote backend. Intermediate skips and fallbacks are invisible to the
// caller: Route either succeeds or returns one aggregate error describing
// every attempt.
func (r *Router) Route(ctx context.Context, prompt string, hint types.Tier) (Result, error) {
	start := time.Now()
	requestsTotal.Inc()
	if r.session != nil {
		r.session.RecordInteraction(session.KindMessage)
	}

	profile := r.sampleProfile()
	candidates := r.reg.Candidates(hint)

	var attempts []Attempt
	for i, b := range candidates {
		if b.Class == types.ClassLocal && b.MemoryCostMB > profile.AvailableMB {
			// Cheap pre-filter: skip without touching the cache.
			attempts = append(attempts, Attempt{
				BackendID: b.ID,
				Reason:    "skipped: memory cost exceeds available",
			})
			continue
		}

		if b.Class == types.ClassLocal {
			if err := r.acquire(ctx, b.ID); err != nil {
				if ctx.Err() != nil {
					return Result{}, ctx.Err()
				}
				attempts = append(attempts, Attempt{BackendID: b.ID, Reason: err.Error()})
				continue
			}
		}

		optimized, truncated := optimizer.Optimize(prompt, b, r.settings)
		text, err := r.invoke(ctx, b, optimized)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			attempts = append(attempts, Attempt{BackendID: b.ID, Reason: err.Error()})
			r.log.Warn().Str("backend", b.ID).Err(err).Msg("candidate failed, advancing fallback chain")
			continue
		}

		if i > 0 || len(attempts) > 0 {
			fallbacksTotal.Inc()
		}
		r.log.Info().
			Str("backend", b.ID).
			Int("attempts", len(attempts)+1).
			Dur("dur", time.Since(start)).
			Msg("request routed")
		return Result{Text: text, BackendUsed: b.ID, Truncated: truncated}, nil
	}

	failuresTotal.Inc()
	err := ErrAllBackendsFailed(attempts)
	r.log.Error().Int("attempts", len(attempts)).Err(err).Msg("all backends failed")
	return Result{}, err
}

// sampleProfile degrades to a zero-available profile when the host cannot
// be queried, which forces the remote fallback rather than failing the
// request.
func (r *Router) sampleProfile() types.MemoryProfile {
	profile, err := r.sampler.Sample()
	if err != nil {
		if hostinfo.IsMetricsUnavailable(err) {
			r.log.Warn().Err(err).Msg("metrics unavailable, assuming zero available memory")
			return types.MemoryProfile{}
		}
		r.log.Warn().Err(err).Msg("unexpected sampler error, assuming zero available memory")
		return types.MemoryProfile{}
	}
	return profile
}

// acquire warms a local backend through the cache, or loads it directly
// when caching is disabled.
func (r *Router) acquire(ctx context.Context, backendID string) error {
	var err error
	if r.settings.CachingEnabled() {
		_, err = r.cache.Acquire(ctx, backendID)
	} else {
		_, err = r.cache.AcquireBypass(ctx, backendID)
	}
	return err
}

// invoke runs the backend under the configured per-invocation timeout.
// A timeout is treated identically to any other invocation failure.
func (r *Router) invoke(ctx context.Context, b types.Backend, prompt string) (string, error) {
	inv := r.factory.For(b)
	ictx, cancel := context.WithTimeout(ctx, r.settings.InvokeTimeout())
	defer cancel()
	attemptsTotal.WithLabelValues(b.ID).Inc()
	text, err := inv.Invoke(ictx, prompt)
	if err != nil && ictx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return "", backend.ErrTimeout("invocation exceeded " + r.settings.InvokeTimeout().String())
	}
	return text, err
}
