package cache

import (
	"sort"
	"time"

	"inferd/pkg/types"
)

// EvictExpired removes every Ready entry whose idle time exceeds the TTL.
// Returns the number of entries removed.
func (c *Cache) EvictExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, e := range c.entries {
		if e.state != StateReady {
			continue
		}
		if now.Sub(e.lastUsed) > c.ttl {
			c.removeLocked(e)
			evictionsTotal.WithLabelValues("ttl").Inc()
			removed++
		}
	}
	if removed > 0 {
		c.log.Info().Int("removed", removed).Msg("ttl eviction sweep")
	}
	return removed
}

// EvictUnderPressure evicts Ready entries least-recently-used first while
// measured host usage exceeds thresholdPct, stopping when usage drops under
// the threshold or a single entry remains. Freed entry sizes are credited
// against the profile when recomputing usage, so the decision does not need
// a second host sample. Returns the number of entries removed.
func (c *Cache) EvictUnderPressure(profile types.MemoryProfile, thresholdPct float64) int {
	if profile.TotalMB <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ready := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.state == StateReady {
			ready = append(ready, e)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].lastUsed.Before(ready[j].lastUsed) })

	removed := 0
	avail := profile.AvailableMB
	usedPct := func() float64 {
		return float64(profile.TotalMB-avail) / float64(profile.TotalMB) * 100
	}
	for _, e := range ready {
		if usedPct() <= thresholdPct {
			break
		}
		if len(ready)-removed <= 1 {
			break
		}
		avail += e.sizeMB
		c.removeLocked(e)
		evictionsTotal.WithLabelValues("pressure").Inc()
		removed++
	}
	if removed > 0 {
		c.log.Info().Int("removed", removed).Float64("threshold_pct", thresholdPct).Msg("pressure eviction sweep")
	}
	return removed
}

// Clear removes all entries unconditionally (explicit free-memory request).
// Returns the number of entries removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, e := range c.entries {
		c.removeLocked(e)
		evictionsTotal.WithLabelValues("clear").Inc()
		removed++
	}
	if removed > 0 {
		c.log.Info().Int("removed", removed).Msg("cache cleared")
	}
	return removed
}
