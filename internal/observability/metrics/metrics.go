package metrics

import "github.com/prometheus/client_golang/prometheus"

// DialogMetrics exposes counters/histograms for the dialog engine.
type DialogMetrics struct {
	turnsTotal         *prometheus.CounterVec
	slotsFilledTotal   *prometheus.CounterVec
	commitsTotal       *prometheus.CounterVec
	verificationsTotal *prometheus.CounterVec
	turnLatency        *prometheus.HistogramVec
}

func NewDialogMetrics(reg prometheus.Registerer) *DialogMetrics {
	m := &DialogMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "dialog",
			Name:      "turns_total",
			Help:      "Total processed dialog turns",
		}, []string{"vertical", "outcome"}),
		slotsFilledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "dialog",
			Name:      "slots_filled_total",
			Help:      "Total slots filled from caller utterances",
		}, []string{"slot"}),
		commitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "dialog",
			Name:      "commits_total",
			Help:      "Total booking commit attempts",
		}, []string{"status"}),
		verificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "dialog",
			Name:      "verifications_total",
			Help:      "Total identity verification attempts",
		}, []string{"status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voicebooking",
			Subsystem: "dialog",
			Name:      "turn_seconds",
			Help:      "Latency of dialog turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"vertical"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.slotsFilledTotal, m.commitsTotal, m.verificationsTotal, m.turnLatency)
	return m
}

func (m *DialogMetrics) ObserveTurn(vertical, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(vertical, outcome).Inc()
	m.turnLatency.WithLabelValues(vertical).Observe(seconds)
}

func (m *DialogMetrics) ObserveSlotFilled(slot string) {
	if m == nil {
		return
	}
	m.slotsFilledTotal.WithLabelValues(slot).Inc()
}

func (m *DialogMetrics) ObserveCommit(status string) {
	if m == nil {
		return
	}
	m.commitsTotal.WithLabelValues(status).Inc()
}

func (m *DialogMetrics) ObserveVerification(status string) {
	if m == nil {
		return
	}
	m.verificationsTotal.WithLabelValues(status).Inc()
}

// OutboxMetrics exposes counters for the email outbox worker.
type OutboxMetrics struct {
	sentTotal   prometheus.Counter
	failedTotal prometheus.Counter
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	m := &OutboxMetrics{
		sentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "outbox",
			Name:      "sent_total",
			Help:      "Total confirmation emails delivered",
		}),
		failedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "outbox",
			Name:      "failed_total",
			Help:      "Total confirmation emails abandoned after max attempts",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sentTotal, m.failedTotal)
	return m
}

func (m *OutboxMetrics) ObserveSent() {
	if m == nil {
		return
	}
	m.sentTotal.Inc()
}

func (m *OutboxMetrics) ObserveFailed() {
	if m == nil {
		return
	}
	m.failedTotal.Inc()
}
