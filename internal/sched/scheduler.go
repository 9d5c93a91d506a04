// Package sched runs the background maintenance loop. The tick interval is
// recomputed from session age at the start of every tick, so long-lived
// sessions relax their own monitoring cadence instead of accumulating
// overhead.
package sched

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/cache"
	"inferd/internal/config"
	"inferd/internal/hostinfo"
	"inferd/internal/session"
)

// Phase names the scheduler's cadence regime. Session time never decreases,
// so phases only ever advance forward.
type Phase string

const (
	PhaseActive      Phase = "active"
	PhaseSettled     Phase = "settled"
	PhaseLongRunning Phase = "long-running"
)

// Phase boundaries. Tunable product decisions, not contracts.
const (
	settledAfter     = 30 * time.Minute
	longRunningAfter = 2 * time.Hour
)

// Config encapsulates scheduler dependencies and tunables.
type Config struct {
	Cache    *cache.Cache
	Session  *session.Tracker
	Sampler  hostinfo.Sampler
	Settings *config.Settings
	// Publisher receives advisory events. Nil means drop them.
	Publisher EventPublisher
	// ReclaimHint is the best-effort host memory reclamation called on the
	// deep-cleanup path. Nil defaults to debug.FreeOSMemory; absence of a
	// runtime hint is never an error.
	ReclaimHint func()
	Logger      zerolog.Logger
}

// Scheduler drives periodic cache maintenance from a single ticker whose
// interval is a function of observed session age.
type Scheduler struct {
	cache     *cache.Cache
	session   *session.Tracker
	sampler   hostinfo.Sampler
	settings  *config.Settings
	publisher EventPublisher
	reclaim   func()
	log       zerolog.Logger

	warnAfter time.Duration

	// mu guards the tick-loop state below, which status reporting reads
	// concurrently with the Run goroutine.
	mu      sync.Mutex
	phase   Phase
	ticks   int
	warned  bool
	current time.Duration
}

// New constructs a Scheduler.
func New(cfg Config) *Scheduler {
	pub := cfg.Publisher
	if pub == nil {
		pub = noopPublisher{}
	}
	reclaim := cfg.ReclaimHint
	if reclaim == nil {
		reclaim = debug.FreeOSMemory
	}
	return &Scheduler{
		cache:     cfg.Cache,
		session:   cfg.Session,
		sampler:   cfg.Sampler,
		settings:  cfg.Settings,
		publisher: pub,
		reclaim:   reclaim,
		log:       cfg.Logger,
		warnAfter: config.DefaultLongSessionWarnAfter,
		phase:     PhaseActive,
		current:   cfg.Settings.IntervalFloor(),
	}
}

// Run loops until ctx is canceled. A single timer is re-armed with the
// recomputed interval after each tick; there is no chain of self-scheduled
// timers to drift or leak.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.Interval())
	defer timer.Stop()
	s.log.Info().Dur("interval", s.Interval()).Msg("scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return
		case now := <-timer.C:
			s.Tick(now)
			timer.Reset(s.Interval())
		}
	}
}

// Tick performs one maintenance pass. Exposed so tests can drive the
// scheduler deterministically without the timer loop. Failures inside a
// tick are logged and skipped; the loop continues on the next tick.
func (s *Scheduler) Tick(now time.Time) {
	ticksTotal.Inc()

	elapsed := s.session.Elapsed(now)

	s.mu.Lock()
	s.ticks++
	deep := s.ticks%s.settings.DeepCleanupMultiplier == 0
	warn := !s.warned && elapsed >= s.warnAfter
	if warn {
		s.warned = true
	}
	s.advancePhaseLocked(elapsed)
	s.current = s.IntervalFor(elapsed)
	s.mu.Unlock()

	removed := s.cache.EvictExpired(now)
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("tick evicted expired entries")
	}

	if deep {
		s.deepCleanup()
	}

	if warn {
		s.publisher.Publish(Event{
			Name:   "long_session_advisory",
			Fields: map[string]any{"elapsed_seconds": int64(elapsed / time.Second)},
		})
		s.log.Warn().Dur("elapsed", elapsed).Msg("long session: consider a reset")
	}
}

// deepCleanup samples the host and evicts under pressure, then requests a
// best-effort memory reclamation from the runtime.
func (s *Scheduler) deepCleanup() {
	deepCleanupsTotal.Inc()
	profile, err := s.sampler.Sample()
	if err != nil {
		s.log.Warn().Err(err).Msg("deep cleanup: metrics unavailable, skipping pressure sweep")
		return
	}
	s.cache.EvictUnderPressure(profile, s.settings.PressureThresholdPct)
	s.reclaim()
}

// advancePhaseLocked moves the phase forward when elapsed crosses a
// boundary. Transitions are idempotent and monotonic. Caller holds mu.
func (s *Scheduler) advancePhaseLocked(elapsed time.Duration) {
	next := PhaseFor(elapsed)
	if next == s.phase {
		return
	}
	s.log.Info().Str("from", string(s.phase)).Str("to", string(next)).Dur("elapsed", elapsed).Msg("scheduler phase advanced")
	s.phase = next
	phaseGauge.Set(phaseOrdinal(next))
}

// PhaseFor maps session age to a phase.
func PhaseFor(elapsed time.Duration) Phase {
	switch {
	case elapsed >= longRunningAfter:
		return PhaseLongRunning
	case elapsed >= settledAfter:
		return PhaseSettled
	default:
		return PhaseActive
	}
}

// IntervalFor computes the tick interval for a session age. The result is
// always within [floor, ceiling] and non-decreasing in elapsed time.
func (s *Scheduler) IntervalFor(elapsed time.Duration) time.Duration {
	floor := s.settings.IntervalFloor()
	ceiling := s.settings.IntervalCeiling()
	var iv time.Duration
	switch PhaseFor(elapsed) {
	case PhaseLongRunning:
		iv = ceiling
	case PhaseSettled:
		iv = floor + (ceiling-floor)/2
	default:
		iv = floor
	}
	if iv < floor {
		iv = floor
	}
	if iv > ceiling {
		iv = ceiling
	}
	return iv
}

// Phase returns the current phase.
func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Interval returns the interval the next tick will be scheduled with.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func phaseOrdinal(p Phase) float64 {
	switch p {
	case PhaseSettled:
		return 1
	case PhaseLongRunning:
		return 2
	default:
		return 0
	}
}
