// Package channel provides the in-memory bus between the push-message
// decode boundary and the tracker's dispatch entry point. The push
// technology itself stays outside this module; whatever receives and
// decodes raw messages emits envelopes here.
package channel

import (
	"context"
	"errors"
	"time"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
)

// ErrBufferFull is returned when an emit cannot be buffered within the emit
// timeout.
var ErrBufferFull = errors.New("event bus buffer full")

// DefaultEmitTimeout bounds how long Emit blocks on a full buffer.
const DefaultEmitTimeout = time.Second

// BusMetrics records bus health. Methods must not block.
type BusMetrics interface {
	BufferSizeUpdate(size int)
	BufferCapacitySet(capacity int)
	BufferSaturationUpdate(saturation float64)
	EmitError()
}

type EventBus struct {
	ch          chan domain.Envelope
	emitTimeout time.Duration
	metrics     BusMetrics // optional, nil = disabled
}

type Option func(*EventBus)

// WithEmitTimeout overrides the emit timeout.
func WithEmitTimeout(d time.Duration) Option {
	return func(b *EventBus) { b.emitTimeout = d }
}

// WithMetrics attaches a metrics sink to the bus.
func WithMetrics(m BusMetrics) Option {
	return func(b *EventBus) { b.metrics = m }
}

func NewEventBus(buffer int, opts ...Option) *EventBus {
	b := &EventBus{
		ch:          make(chan domain.Envelope, buffer),
		emitTimeout: DefaultEmitTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics != nil {
		b.metrics.BufferCapacitySet(buffer)
	}
	return b
}

// Emit buffers one decoded envelope. It returns ErrBufferFull if the buffer
// stays full past the emit timeout, or the context error on cancellation.
func (b *EventBus) Emit(ctx context.Context, env domain.Envelope) error {
	timer := time.NewTimer(b.emitTimeout)
	defer timer.Stop()

	select {
	case b.ch <- env:
		b.reportBuffer()
		return nil
	case <-timer.C:
		if b.metrics != nil {
			b.metrics.EmitError()
		}
		return ErrBufferFull
	case <-ctx.Done():
		if b.metrics != nil {
			b.metrics.EmitError()
		}
		return ctx.Err()
	}
}

func (b *EventBus) Channel() <-chan domain.Envelope {
	return b.ch
}

func (b *EventBus) reportBuffer() {
	if b.metrics == nil {
		return
	}
	size := len(b.ch)
	b.metrics.BufferSizeUpdate(size)
	if c := cap(b.ch); c > 0 {
		b.metrics.BufferSaturationUpdate(float64(size) / float64(c))
	}
}
