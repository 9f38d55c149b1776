package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the engine's prometheus collectors. All writes are
// best-effort: nothing on the serving path depends on them.
type Metrics struct {
	Registry *prometheus.Registry

	RatingDelta     prometheus.Histogram
	TierTransitions *prometheus.CounterVec
	Swipes          *prometheus.CounterVec
	RecCacheHits    prometheus.Counter
	RecCacheMisses  prometheus.Counter
	DecayApplied    prometheus.Counter
	BonusApplied    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		RatingDelta: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ranking",
			Name:      "rating_delta",
			Help:      "Per-update rating delta (absolute).",
			Buckets:   []float64{1, 5, 10, 20, 40, 80, 160},
		}),
		TierTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "tier_transitions_total",
			Help:      "Tier changes after rating updates.",
		}, []string{"from", "to"}),
		Swipes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "swipes_total",
			Help:      "Swipe events processed by the rating updater.",
		}, []string{"action"}),
		RecCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "recommendation_cache_hits_total",
			Help:      "Recommendation requests served from cache.",
		}),
		RecCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "recommendation_cache_misses_total",
			Help:      "Recommendation requests that ran the full pipeline.",
		}),
		DecayApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "decay_applied_total",
			Help:      "Inactivity decay adjustments applied.",
		}),
		BonusApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "bonus_applied_total",
			Help:      "Score bonuses applied.",
		}, []string{"type"}),
	}
}
