package sched

import "github.com/prometheus/client_golang/prometheus"

var (
	ticksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "sched",
		Name:      "ticks_total",
		Help:      "Maintenance ticks performed",
	})

	deepCleanupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "sched",
		Name:      "deep_cleanups_total",
		Help:      "Deep cleanup passes performed",
	})

	phaseGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "inferd",
		Subsystem: "sched",
		Name:      "phase",
		Help:      "Current scheduler phase (0=active, 1=settled, 2=long-running)",
	})
)

func init() {
	prometheus.MustRegister(ticksTotal, deepCleanupsTotal, phaseGauge)
}
