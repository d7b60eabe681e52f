package metrics

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) EventAccepted(kind, status string)            {}
func (n *NoopSink) EventDeduplicated(kind string)                {}
func (n *NoopSink) EventIgnored()                                {}
func (n *NoopSink) CompletionRecorded(kind string, success bool) {}
func (n *NoopSink) RecordExpired(kind string)                    {}
func (n *NoopSink) TrackedRecords(kind string, count int)        {}
func (n *NoopSink) RecordsSwept(kind string, count int)          {}
func (n *NoopSink) BufferSizeUpdate(size int)                    {}
func (n *NoopSink) BufferCapacitySet(capacity int)               {}
func (n *NoopSink) BufferSaturationUpdate(saturation float64)    {}
func (n *NoopSink) EmitError()                                   {}
