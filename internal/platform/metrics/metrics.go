package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ParticipantsCreated prometheus.Counter
	StatusTransitions   *prometheus.CounterVec
	ContactAttempts     *prometheus.CounterVec
	Escalations         *prometheus.CounterVec
	MergesCompleted     prometheus.Counter
	WriteConflicts      prometheus.Counter
	GuidanceTasksOpened prometheus.Counter
	OverdueParticipants *prometheus.GaugeVec
	SweepDuration       prometheus.Histogram
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ParticipantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reentry_participants_created_total",
			Help: "Total number of participants enrolled",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reentry_status_transitions_total",
			Help: "Lifecycle transitions by target status",
		}, []string{"to"}),
		ContactAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reentry_contact_attempts_total",
			Help: "Contact attempts by track and outcome",
		}, []string{"track", "outcome"}),
		Escalations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reentry_escalations_total",
			Help: "Unreachable escalations by track",
		}, []string{"track"}),
		MergesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reentry_merges_completed_total",
			Help: "Total number of duplicate record merges",
		}),
		WriteConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reentry_write_conflicts_total",
			Help: "Optimistic write conflicts encountered before retry",
		}),
		GuidanceTasksOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reentry_guidance_tasks_opened_total",
			Help: "Guidance tasks opened from initial contact forms",
		}),
		OverdueParticipants: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reentry_overdue_participants",
			Help: "Participants with an overdue obligation, by kind",
		}, []string{"kind"}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "reentry_sweep_duration_seconds",
			Help:    "Duration of overdue sweep passes",
			Buckets: prometheus.DefBuckets,
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reentry_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}
