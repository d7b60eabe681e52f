package conn

import "sync"

// StateHolder is a thread-safe Source fed by whatever owns the transport.
// It starts disconnected until the first Set.
type StateHolder struct {
	mu    sync.RWMutex
	state State
}

// NewStateHolder returns a holder in the disconnected state.
func NewStateHolder() *StateHolder {
	return &StateHolder{state: State{Status: StatusDisconnected}}
}

// Set records the latest observed connection state.
func (h *StateHolder) Set(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
}

// State returns the most recent observation.
func (h *StateHolder) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}
