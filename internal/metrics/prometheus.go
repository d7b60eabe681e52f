package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// All methods are non-blocking and fire-and-forget.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	// Tracker metrics
	eventsTotal       *prometheus.CounterVec
	eventsDedupTotal  *prometheus.CounterVec
	eventsIgnored     prometheus.Counter
	completionsTotal  *prometheus.CounterVec
	recordsExpired    *prometheus.CounterVec
	recordsTracked    *prometheus.GaugeVec
	recordsSweptTotal *prometheus.CounterVec

	// EventBus metrics
	bufferSize       prometheus.Gauge
	bufferCapacity   prometheus.Gauge
	bufferSaturation prometheus.Gauge
	emitErrorsTotal  prometheus.Counter
}

// NewPrometheusSink creates a new Prometheus metrics sink.
// If registration fails, it logs a warning and returns a functional sink.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{}
	s.initTrackerMetrics(reg)
	s.initEventBusMetrics(reg)
	return s
}

func (s *PrometheusSink) initTrackerMetrics(reg prometheus.Registerer) {
	s.eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitui_tracker_events_accepted_total",
		Help: "Total number of lifecycle events accepted past the dedup filter.",
	}, []string{"kind", "status"})

	s.eventsDedupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitui_tracker_events_deduplicated_total",
		Help: "Total number of events rejected as exact repeats of the prior status.",
	}, []string{"kind"})

	s.eventsIgnored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbitui_tracker_events_ignored_total",
		Help: "Total number of events dropped for an unrecognized status.",
	})

	s.completionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitui_tracker_completions_total",
		Help: "Total number of terminal statuses recorded, by kind and outcome.",
	}, []string{"kind", "outcome"})

	s.recordsExpired = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitui_tracker_records_expired_total",
		Help: "Total number of records removed after their post-terminal grace period.",
	}, []string{"kind"})

	s.recordsTracked = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "orbitui_tracker_records_tracked",
		Help: "Number of entities currently tracked per operation kind.",
	}, []string{"kind"})

	s.recordsSweptTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitui_tracker_records_swept_total",
		Help: "Total number of overaged records force-removed by the janitor.",
	}, []string{"kind"})

	s.register(reg, s.eventsTotal, "orbitui_tracker_events_accepted_total")
	s.register(reg, s.eventsDedupTotal, "orbitui_tracker_events_deduplicated_total")
	s.register(reg, s.eventsIgnored, "orbitui_tracker_events_ignored_total")
	s.register(reg, s.completionsTotal, "orbitui_tracker_completions_total")
	s.register(reg, s.recordsExpired, "orbitui_tracker_records_expired_total")
	s.register(reg, s.recordsTracked, "orbitui_tracker_records_tracked")
	s.register(reg, s.recordsSweptTotal, "orbitui_tracker_records_swept_total")
}

func (s *PrometheusSink) initEventBusMetrics(reg prometheus.Registerer) {
	s.bufferSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitui_eventbus_buffer_size",
		Help: "Current number of envelopes in the event bus buffer.",
	})
	s.bufferCapacity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitui_eventbus_buffer_capacity",
		Help: "Configured event bus buffer capacity.",
	})
	s.bufferSaturation = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitui_eventbus_buffer_saturation",
		Help: "Event bus buffer fill ratio (0.0-1.0).",
	})
	s.emitErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbitui_eventbus_emit_errors_total",
		Help: "Total number of emit errors (buffer full or cancelled).",
	})

	s.register(reg, s.bufferSize, "orbitui_eventbus_buffer_size")
	s.register(reg, s.bufferCapacity, "orbitui_eventbus_buffer_capacity")
	s.register(reg, s.bufferSaturation, "orbitui_eventbus_buffer_saturation")
	s.register(reg, s.emitErrorsTotal, "orbitui_eventbus_emit_errors_total")
}

// register attempts to register a collector, logging any errors without propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: failed to register %s: %v", name, err)
	}
}

// Tracker metrics implementation

func (s *PrometheusSink) EventAccepted(kind, status string) {
	s.eventsTotal.WithLabelValues(kind, status).Inc()
}

func (s *PrometheusSink) EventDeduplicated(kind string) {
	s.eventsDedupTotal.WithLabelValues(kind).Inc()
}

func (s *PrometheusSink) EventIgnored() {
	s.eventsIgnored.Inc()
}

func (s *PrometheusSink) CompletionRecorded(kind string, success bool) {
	s.completionsTotal.WithLabelValues(kind, OutcomeLabel(success)).Inc()
}

func (s *PrometheusSink) RecordExpired(kind string) {
	s.recordsExpired.WithLabelValues(kind).Inc()
}

func (s *PrometheusSink) TrackedRecords(kind string, count int) {
	s.recordsTracked.WithLabelValues(kind).Set(float64(count))
}

func (s *PrometheusSink) RecordsSwept(kind string, count int) {
	s.recordsSweptTotal.WithLabelValues(kind).Add(float64(count))
}

// EventBus metrics implementation

func (s *PrometheusSink) BufferSizeUpdate(size int) {
	s.bufferSize.Set(float64(size))
}

func (s *PrometheusSink) BufferCapacitySet(capacity int) {
	s.bufferCapacity.Set(float64(capacity))
}

func (s *PrometheusSink) BufferSaturationUpdate(saturation float64) {
	s.bufferSaturation.Set(saturation)
}

func (s *PrometheusSink) EmitError() {
	s.emitErrorsTotal.Inc()
}
