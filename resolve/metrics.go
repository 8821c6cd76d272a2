package resolve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restlens_fetches_total",
		Help: "Number of lens requests by outcome.",
	}, []string{"outcome"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "restlens_fetch_duration_seconds",
		Help:    "Duration of lens requests.",
		Buckets: prometheus.DefBuckets,
	})
)
