package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduling
	AppointmentsCreated *prometheus.CounterVec
	StatusTransitions   *prometheus.CounterVec
	PlansOpened         prometheus.Counter
	PlansClosed         *prometheus.CounterVec
	PlanConflicts       prometheus.Counter
	AvailabilitySaves   *prometheus.CounterVec

	// Collaborators
	StoreOperations *prometheus.CounterVec
	StoreLatency    *prometheus.HistogramVec
	AnalyzerCalls   *prometheus.CounterVec
	AnalyzerLatency *prometheus.HistogramVec
	EventsPublished *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AppointmentsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "appointments_created_total",
			Help:      "Appointments added to the collection, by source",
		}, []string{"source"}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "status_transitions_total",
			Help:      "Appointment status changes, by target status",
		}, []string{"status"}),
		PlansOpened: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "plans_opened_total",
			Help:      "Treatment plan editing sessions enabled",
		}),
		PlansClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "plans_closed_total",
			Help:      "Treatment plan editing sessions closed, by outcome",
		}, []string{"outcome"}),
		PlanConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "plan_conflicts_total",
			Help:      "Commits rejected by the conflict check",
		}),
		AvailabilitySaves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "availability_saves_total",
			Help:      "Explicit availability saves, by sync status",
		}, []string{"status"}),

		StoreOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Durable store calls",
		}, []string{"operation", "status"}),
		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duration of durable store calls",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		AnalyzerCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notes",
			Name:      "analyzer_calls_total",
			Help:      "Text analysis calls",
		}, []string{"operation", "status"}),
		AnalyzerLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notes",
			Name:      "analyzer_duration_seconds",
			Help:      "Duration of text analysis calls",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20},
		}, []string{"operation"}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Appointment events handed to the broker",
		}, []string{"event_type", "status"}),
	}
}

// New builds metrics on a private registry, for tests and tools.
func New(namespace string) *Metrics {
	return NewMetrics(prometheus.NewRegistry(), namespace)
}

// Status turns an error into a label value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
