package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	starts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vigil",
			Subsystem: "supervisor",
			Name:      "starts_total",
			Help:      "Number of confirmed starts of the monitored process.",
		}, []string{"kind"}, // manual | auto
	)
	stops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vigil",
			Subsystem: "supervisor",
			Name:      "stops_total",
			Help:      "Number of confirmed operator stops.",
		},
	)
	aborts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vigil",
			Subsystem: "supervisor",
			Name:      "aborts_total",
			Help:      "Number of confirmed operator aborts.",
		},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vigil",
			Subsystem: "supervisor",
			Name:      "state_transitions_total",
			Help:      "Number of state transitions between supervisor states.",
		}, []string{"from", "to"},
	)
	currentState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vigil",
			Subsystem: "supervisor",
			Name:      "current_state",
			Help:      "Current supervisor state (1 = active state, 0 = inactive).",
		}, []string{"state"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{starts, stops, aborts, stateTransitions, currentState}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// RegisterDefault registers with the default prometheus registry.
func RegisterDefault() error { return Register(prometheus.DefaultRegisterer) }

// Handler returns an http.Handler serving metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// newServer builds the metrics listener with bounded header and
// connection timeouts so a stalled scraper cannot pin connections.
func newServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Serve starts a blocking metrics listener on addr.
func Serve(addr string) error {
	return newServer(addr).ListenAndServe()
}

// Helpers used by the supervisor loop. They no-op until Register is called.

func IncStart(kind string) {
	if regOK.Load() {
		starts.WithLabelValues(kind).Inc()
	}
}

func IncStop() {
	if regOK.Load() {
		stops.Inc()
	}
}

func IncAbort() {
	if regOK.Load() {
		aborts.Inc()
	}
}

func RecordStateTransition(from, to string) {
	if regOK.Load() {
		stateTransitions.WithLabelValues(from, to).Inc()
	}
}

func SetCurrentState(state string, active bool) {
	if regOK.Load() {
		var value float64
		if active {
			value = 1
		}
		currentState.WithLabelValues(state).Set(value)
	}
}
