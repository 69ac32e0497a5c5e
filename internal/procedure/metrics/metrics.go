package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the procedure workflow.
// Tracks transitions, rejections, sign-off activity and command latency.
type Metrics struct {
	Transitions         *prometheus.CounterVec
	Rejections          *prometheus.CounterVec
	Signoffs            *prometheus.CounterVec
	Revocations         *prometheus.CounterVec
	IntegrityMismatches prometheus.Counter
	StaleWrites         prometheus.Counter
	ProceduresCreated   *prometheus.CounterVec
	ActionDuration      *prometheus.HistogramVec
	FeedPublishFailures prometheus.Counter
}

// New registers the procedure metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the procedure metrics with reg. Tests pass a fresh
// registry so repeated construction does not collide.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engageflow_transitions_total",
			Help: "Total number of successful procedure state transitions",
		}, []string{"action", "from", "to"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engageflow_rejections_total",
			Help: "Total number of rejected procedure commands by kind",
		}, []string{"action", "kind"}),
		Signoffs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engageflow_signoffs_total",
			Help: "Total number of sign-offs recorded by role",
		}, []string{"role"}),
		Revocations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engageflow_signoff_revocations_total",
			Help: "Total number of sign-offs revoked by role",
		}, []string{"role"}),
		IntegrityMismatches: f.NewCounter(prometheus.CounterOpts{
			Name: "engageflow_integrity_mismatches_total",
			Help: "Total number of content integrity checks that found post-signoff edits",
		}),
		StaleWrites: f.NewCounter(prometheus.CounterOpts{
			Name: "engageflow_stale_writes_total",
			Help: "Total number of writes rejected by the version/state precondition",
		}),
		ProceduresCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engageflow_procedures_created_total",
			Help: "Total number of procedures created by risk level",
		}, []string{"risk_level"}),
		ActionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engageflow_action_duration_seconds",
			Help:    "Duration of procedure commands (load, decide, persist)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"action"}),
		FeedPublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "engageflow_feed_publish_failures_total",
			Help: "Total number of change events that could not be published",
		}),
	}
}

func (m *Metrics) IncrementTransition(action, from, to string) {
	m.Transitions.WithLabelValues(action, from, to).Inc()
}

// IncrementRejection records a refused command. kind is one of transition,
// authorization, integrity, stale.
func (m *Metrics) IncrementRejection(action, kind string) {
	m.Rejections.WithLabelValues(action, kind).Inc()
}

func (m *Metrics) IncrementSignoff(role string) {
	m.Signoffs.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementRevocation(role string) {
	m.Revocations.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementIntegrityMismatch() {
	m.IntegrityMismatches.Inc()
}

func (m *Metrics) IncrementStaleWrite() {
	m.StaleWrites.Inc()
}

func (m *Metrics) IncrementProcedureCreated(risk string) {
	m.ProceduresCreated.WithLabelValues(risk).Inc()
}

func (m *Metrics) IncrementFeedPublishFailure() {
	m.FeedPublishFailures.Inc()
}

// ObserveAction records the duration of a command.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAction(action string, start time.Time) {
	m.ActionDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}
