package router

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "router",
		Name:      "requests_total",
		Help:      "Route calls received",
	})

	attemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "router",
		Name:      "attempts_total",
		Help:      "Backend invocation attempts, by backend",
	}, []string{"backend"})

	fallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "router",
		Name:      "fallbacks_total",
		Help:      "Requests served by a backend other than the first candidate",
	})

	failuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "router",
		Name:      "failures_total",
		Help:      "Requests that exhausted every candidate including remote",
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, attemptsTotal, fallbacksTotal, failuresTotal)
}
