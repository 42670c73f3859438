// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProfileSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_saves_total",
			Help: "Total number of profile save attempts by outcome",
		},
		[]string{"outcome"},
	)

	ValidationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_validation_failures_total",
			Help: "Total number of field validation failures by field",
		},
		[]string{"field"},
	)

	StatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_status_transitions_total",
			Help: "Total number of profile status transitions",
		},
		[]string{"from", "to"},
	)

	SaveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "profile_save_duration_seconds",
			Help: "Duration of the save hook sequence in seconds",
		},
		[]string{"operation"},
	)
)
