package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	hitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Acquires served by a warm entry",
	})

	missesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Acquires that required a load",
	})

	loadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "cache",
		Name:      "loads_total",
		Help:      "Backend load operations started",
	})

	loadFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "cache",
		Name:      "load_failures_total",
		Help:      "Backend load operations that failed",
	})

	evictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Entries evicted, by reason",
	}, []string{"reason"})

	entriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "inferd",
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Current number of cache entries",
	})

	usedMBGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "inferd",
		Subsystem: "cache",
		Name:      "used_mb",
		Help:      "Estimated MB held by warm entries",
	})
)

func init() {
	prometheus.MustRegister(hitsTotal, missesTotal, loadsTotal, loadFailuresTotal, evictionsTotal, entriesGauge, usedMBGauge)
}
