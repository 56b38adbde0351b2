package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes, used as the 'outcome' label on watches_lookups_total
const (
	OutcomeOk             = "ok"
	OutcomeBadRequest     = "bad_request"
	OutcomeIntegrityError = "integrity_error"
	OutcomeUpstreamError  = "upstream_error"
)

// Metrics holds the Prometheus collectors shared by the watches server and consumer
type Metrics struct {
	Lookups         *prometheus.CounterVec
	WatchesReturned *prometheus.HistogramVec
	PlaybackEvents  *prometheus.CounterVec
	WatchesChanged  *prometheus.CounterVec
	registry        *prometheus.Registry
}

// New initializes our collectors and registers them with a dedicated registry
func New() *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watches_lookups_total",
				Help: "Total latest-watch lookups, by media kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		WatchesReturned: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "watches_viewers_per_item",
				Help:    "Number of distinct viewers in each successful lookup.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
			[]string{"kind"},
		),
		PlaybackEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watches_playback_events_total",
				Help: "Total playback notifications received from Tautulli, by media type.",
			},
			[]string{"media_type"},
		),
		WatchesChanged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watches_changed_total",
				Help: "Total viewer watches that differed from the last recorded snapshot.",
			},
			[]string{"kind"},
		),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.Lookups,
		m.WatchesReturned,
		m.PlaybackEvents,
		m.WatchesChanged,
	)
	return m
}

// RegisterRoutes exposes our collectors at GET /metrics
func (m *Metrics) RegisterRoutes(r *mux.Router) {
	r.Path("/metrics").Methods("GET").Handler(m.Handler())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
