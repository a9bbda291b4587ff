package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for the conversation engine.
type EngineMetrics struct {
	inboundTotal   *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	flowStarted    *prometheus.CounterVec
	flowCompleted  *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	escalations    prometheus.Counter
	remindersTotal *prometheus.CounterVec
	turnLatency    prometheus.Histogram
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realnex",
			Subsystem: "conversation",
			Name:      "inbound_total",
			Help:      "Total inbound WhatsApp messages",
		}, []string{"status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realnex",
			Subsystem: "conversation",
			Name:      "outbound_total",
			Help:      "Total outbound sends by kind",
		}, []string{"kind", "status"}),
		flowStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realnex",
			Subsystem: "conversation",
			Name:      "flow_started_total",
			Help:      "Flows started by name",
		}, []string{"flow"}),
		flowCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realnex",
			Subsystem: "conversation",
			Name:      "flow_completed_total",
			Help:      "Flows run to completion by name",
		}, []string{"flow"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realnex",
			Subsystem: "schedule",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		escalations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realnex",
			Subsystem: "conversation",
			Name:      "escalations_total",
			Help:      "Conversations handed off to a human agent",
		}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realnex",
			Subsystem: "schedule",
			Name:      "reminders_total",
			Help:      "Appointment reminders sent by window",
		}, []string{"window"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "realnex",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Latency of one conversation turn",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.inboundTotal, m.outboundTotal, m.flowStarted, m.flowCompleted,
		m.bookingsTotal, m.escalations, m.remindersTotal, m.turnLatency,
	)
	return m
}

func (m *EngineMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *EngineMetrics) ObserveOutbound(kind, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *EngineMetrics) ObserveFlowStarted(flow string) {
	if m == nil {
		return
	}
	m.flowStarted.WithLabelValues(flow).Inc()
}

func (m *EngineMetrics) ObserveFlowCompleted(flow string) {
	if m == nil {
		return
	}
	m.flowCompleted.WithLabelValues(flow).Inc()
}

func (m *EngineMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *EngineMetrics) ObserveEscalation() {
	if m == nil {
		return
	}
	m.escalations.Inc()
}

func (m *EngineMetrics) ObserveReminder(window string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(window).Inc()
}

func (m *EngineMetrics) ObserveTurnLatency(seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.Observe(seconds)
}
