package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var providerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "restlens_provider_errors_total",
	Help: "Number of times a provider definition could not be matched.",
}, []string{"provider"})
