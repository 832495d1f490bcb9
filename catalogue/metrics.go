package catalogue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts how page requests were served. A nil registerer leaves the
// counters unregistered.
type Metrics struct {
	Hits     prometheus.Counter
	Misses   prometheus.Counter
	Failures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "finescale_catalogue_cache_hits_total",
			Help: "Catalogue pages served from the page cache",
		}),
		Misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "finescale_catalogue_cache_misses_total",
			Help: "Catalogue pages fetched from the catalogue site",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "finescale_catalogue_fetch_failures_total",
			Help: "Catalogue page fetches that failed",
		}),
	}
}
