package metrics

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations MUST NOT block or
// propagate errors. If the metrics backend is unavailable, implementations
// log warnings and continue.
type Sink interface {
	// Tracker metrics
	EventAccepted(kind, status string)
	EventDeduplicated(kind string)
	EventIgnored()
	CompletionRecorded(kind string, success bool)
	RecordExpired(kind string)
	TrackedRecords(kind string, count int)
	RecordsSwept(kind string, count int)

	// EventBus metrics
	BufferSizeUpdate(size int)
	BufferCapacitySet(capacity int)
	BufferSaturationUpdate(saturation float64)
	EmitError()
}

// Outcome label values for the completions metric.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// OutcomeLabel maps a success flag to its bounded label value.
func OutcomeLabel(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailed
}
