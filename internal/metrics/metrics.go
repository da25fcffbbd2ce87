// Package metrics exposes Prometheus counters for distribution activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	Injections         *prometheus.CounterVec
	Uploads            *prometheus.CounterVec
	ScheduledPublishes prometheus.Counter
	GenerationSeconds  prometheus.Histogram
}

// New registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Injections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "distributor_injections_total",
			Help: "Post injection attempts by site and outcome.",
		}, []string{"site_id", "status"}),
		Uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "distributor_asset_uploads_total",
			Help: "Image replication attempts by outcome.",
		}, []string{"status"}),
		ScheduledPublishes: factory.NewCounter(prometheus.CounterOpts{
			Name: "distributor_scheduled_publishes_total",
			Help: "Posts flipped from scheduled to published by the scheduler.",
		}),
		GenerationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "distributor_generation_duration_seconds",
			Help:    "Content generation latency.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}
