package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "runtracker",
		Subsystem: "run",
		Name:      "started_total",
		Help:      "Total runs started",
	})

	RunsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "runtracker",
		Subsystem: "run",
		Name:      "finished_total",
		Help:      "Total runs finished",
	})

	RunDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "runtracker",
		Subsystem: "run",
		Name:      "distance_meters",
		Help:      "Distance computed for finished runs",
		Buckets:   []float64{100, 500, 1000, 2500, 5000, 10000, 21097, 42195},
	})

	PositionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runtracker",
		Subsystem: "location",
		Name:      "positions_total",
		Help:      "Positions received while running, by outcome",
	}, []string{"outcome"})

	DirectionsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runtracker",
		Subsystem: "directions",
		Name:      "requests_total",
		Help:      "Directions lookups, by result",
	}, []string{"result"})

	Shares = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runtracker",
		Subsystem: "share",
		Name:      "attempts_total",
		Help:      "Share attempts, by result",
	}, []string{"result"})
)

// Handler returns the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
