package analytics

import (
	"context"
	"log"
	"time"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/circuitbreaker"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// Recorder adapts RedisSink to the tracker's fire-and-forget analytics
// contract: errors are logged, never propagated. A circuit breaker stops
// the tracker from hammering Redis while it is down.
type Recorder struct {
	sink    *RedisSink
	breaker *circuitbreaker.CircuitBreaker
	clock   func() time.Time
}

func NewRecorder(sink *RedisSink) *Recorder {
	return &Recorder{
		sink:    sink,
		breaker: circuitbreaker.New(breakerThreshold, breakerCooldown),
		clock:   time.Now,
	}
}

func (r *Recorder) Record(ctx context.Context, kind domain.Kind, status domain.Status) {
	if err := r.breaker.Allow(); err != nil {
		return
	}

	if err := r.sink.Write(ctx, kind, status, r.clock()); err != nil {
		r.breaker.RecordFailure()
		log.Printf("analytics: record kind=%s status=%s: %v", kind, status, err)
		return
	}
	r.breaker.RecordSuccess()
}
