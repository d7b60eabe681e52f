// Package conn derives connectivity booleans from the transport's reported
// connection state and a feature-enablement flag. Values are read through on
// every call, never cached; the tracker's own state plays no part.
package conn

import "errors"

// Status is the transport-reported connection state.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusConnecting   Status = "connecting"
	StatusDisconnected Status = "disconnected"
	StatusFailed       Status = "failed"
)

// State is one observation of the transport's connection.
type State struct {
	Status Status
	Err    error // set when Status is StatusFailed
}

// Source reports the transport's current connection state.
type Source interface {
	State() State
}

// ErrConnectionFailed is returned when the transport reports failure without
// a more specific error.
var ErrConnectionFailed = errors.New("push channel connection failed")

// View combines a state source with the feature flag. The push channel may
// be disabled entirely in some deployments, in which case every derived
// value reports "not configured".
type View struct {
	enabled bool
	src     Source
}

// NewView creates a View. src may be nil when the channel is disabled.
func NewView(enabled bool, src Source) *View {
	return &View{enabled: enabled, src: src}
}

// Configured reports whether the push channel is enabled at all.
func (v *View) Configured() bool {
	return v != nil && v.enabled && v.src != nil
}

// Connected reports whether the channel is configured and currently connected.
func (v *View) Connected() bool {
	return v.Configured() && v.src.State().Status == StatusConnected
}

// ConnectionError returns the transport's failure, or nil when the channel
// is unconfigured or not in a failed state.
func (v *View) ConnectionError() error {
	if !v.Configured() {
		return nil
	}
	st := v.src.State()
	if st.Status != StatusFailed {
		return nil
	}
	if st.Err != nil {
		return st.Err
	}
	return ErrConnectionFailed
}
