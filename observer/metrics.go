package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Brano80/veridion-nexus/ledger"
)

// Metrics exposes invocation and ledger delivery counters.
type Metrics struct {
	InvocationsTotal     *prometheus.CounterVec
	BackendErrorsTotal   *prometheus.CounterVec
	EventsSubmittedTotal *prometheus.CounterVec
	EventsDroppedTotal   *prometheus.CounterVec
	LedgerErrorsTotal    prometheus.Counter
	InferenceDuration    *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg. Pass
// prometheus.DefaultRegisterer for the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InvocationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridion_invocations_total",
			Help: "Total number of instrumented backend invocations",
		}, []string{"system_id"}),
		BackendErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridion_backend_errors_total",
			Help: "Total number of backend invocation failures",
		}, []string{"system_id"}),
		EventsSubmittedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridion_audit_events_submitted_total",
			Help: "Total number of audit events accepted by the ledger",
		}, []string{"system_id"}),
		EventsDroppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridion_audit_events_dropped_total",
			Help: "Total number of audit events dropped before submission",
		}, []string{"reason"}),
		LedgerErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridion_ledger_errors_total",
			Help: "Total number of failed ledger submission attempts",
		}),
		InferenceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veridion_inference_duration_seconds",
			Help:    "Wall-clock duration of backend calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"system_id"}),
	}
}

func (m *Metrics) OnInvokeStart(ctx context.Context, info InvokeInfo) {
	m.InvocationsTotal.WithLabelValues(info.SystemID).Inc()
}

func (m *Metrics) OnInvokeEnd(ctx context.Context, info InvokeInfo, err error) {
	if err != nil {
		m.BackendErrorsTotal.WithLabelValues(info.SystemID).Inc()
		return
	}
	m.InferenceDuration.WithLabelValues(info.SystemID).Observe(info.Duration.Seconds())
}

func (m *Metrics) OnSubmit(ctx context.Context, event ledger.Event, receipt *ledger.Receipt, err error) {
	if err != nil {
		m.LedgerErrorsTotal.Inc()
		return
	}
	m.EventsSubmittedTotal.WithLabelValues(event.SystemID).Inc()
}

func (m *Metrics) OnDrop(ctx context.Context, event ledger.Event, reason string) {
	m.EventsDroppedTotal.WithLabelValues(reason).Inc()
}

var _ Observer = (*Metrics)(nil)
