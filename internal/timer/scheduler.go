// Package timer abstracts delayed execution so expiry behaviour can be
// tested with a virtual clock instead of wall-clock sleeps.
package timer

import "time"

// Cancel stops a pending callback. Calling it after the callback has fired,
// or more than once, is a no-op.
type Cancel func()

// Scheduler runs a callback once after a delay.
type Scheduler interface {
	After(d time.Duration, fn func()) Cancel
}

// Real schedules callbacks on the runtime timer heap.
type Real struct{}

func NewReal() *Real {
	return &Real{}
}

func (Real) After(d time.Duration, fn func()) Cancel {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
