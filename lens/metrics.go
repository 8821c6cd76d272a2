package lens

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recomputeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restlens_match_recomputes_total",
		Help: "Number of document scans for provider matches.",
	})

	matchHitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restlens_match_hits_total",
		Help: "Number of lens renders served from cached matches.",
	})

	lookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restlens_lens_lookups_total",
		Help: "Number of lens lookups by resulting state.",
	}, []string{"state"})
)
