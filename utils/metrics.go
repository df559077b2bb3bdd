package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AppMetrics holds the prometheus collectors exported on /metrics.
type AppMetrics struct {
	TurnsHandled      *prometheus.CounterVec
	ConversationsDone prometheus.Counter
	BookingsHandedOff prometheus.Counter
	Restarts          *prometheus.CounterVec
	SearchDuration    prometheus.Histogram
	OffersReturned    prometheus.Histogram
	AirlinesReturned  prometheus.Histogram
	ErrorsCount       *prometheus.CounterVec
}

// Metrics is registered once against the default registry.
var Metrics = NewMetrics("flightbot")

// NewMetrics creates the collectors under the given namespace.
func NewMetrics(namespace string) *AppMetrics {
	return &AppMetrics{
		TurnsHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_turns_total",
			Help:      "Dialog turns handled, by stage at arrival",
		}, []string{"stage"}),
		ConversationsDone: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_completed_total",
			Help:      "Conversations that reached a confirmed flight selection",
		}),
		BookingsHandedOff: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_handed_off_total",
			Help:      "Confirmed bookings processed by the queue worker",
		}),
		Restarts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_restarts_total",
			Help:      "Forced dialog restarts, by reason",
		}, []string{"reason"}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "offer_search_duration_seconds",
			Help:      "Time taken to query and group flight offers",
			Buckets:   prometheus.DefBuckets,
		}),
		OffersReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "offer_search_offers",
			Help:      "Usable offers returned by the provider for one search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}),
		AirlinesReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "offer_search_airlines",
			Help:      "Airlines present in a grouped offer set",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		ErrorsCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
