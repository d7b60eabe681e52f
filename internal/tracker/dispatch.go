package tracker

import (
	"context"
	"log"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
)

// MetricsSink records tracker metrics. All methods must be non-blocking and
// fire-and-forget.
type MetricsSink interface {
	EventAccepted(kind, status string)
	EventDeduplicated(kind string)
	EventIgnored()
	CompletionRecorded(kind string, success bool)
	RecordExpired(kind string)
	TrackedRecords(kind string, count int)
}

// JournalSink persists accepted envelopes. Implementations handle their own
// errors; journaling never affects tracker state.
type JournalSink interface {
	Append(ctx context.Context, kind domain.Kind, env domain.Envelope) error
}

// AnalyticsSink records terminal outcomes as a best-effort side effect.
type AnalyticsSink interface {
	Record(ctx context.Context, kind domain.Kind, status domain.Status)
}

// Dispatch is the single entry point for decoded push notifications. It
// classifies the envelope by status, runs it through the dedup filter and
// applies it to the matching store. An envelope with a status outside both
// fixed sets is ignored (fail closed) rather than allowed to corrupt a
// record.
func (t *Tracker) Dispatch(ctx context.Context, env domain.Envelope) {
	kind, ok := domain.Classify(env.Status)
	if !ok {
		log.Printf("tracker: ignoring event key=%s with unknown status %q", env.Key, env.Status)
		if t.metrics != nil {
			t.metrics.EventIgnored()
		}
		return
	}

	if !t.accept(kind, env) {
		return
	}

	if t.journal != nil {
		if err := t.journal.Append(ctx, kind, env); err != nil {
			log.Printf("tracker: journal append key=%s: %v", env.Key, err)
		}
	}
	if t.analytics != nil && domain.IsTerminal(env.Status) {
		t.analytics.Record(ctx, kind, env.Status)
	}
}
