package domain

import "time"

// Record is the current tracked state of one entity under one operation
// kind. It mirrors the latest accepted envelope; AuxID is sticky (a later
// envelope without one does not clear it).
type Record struct {
	Key    string  `json:"key"`
	Status Status  `json:"status"`
	Error  *string `json:"error,omitempty"`
	AuxID  *int64  `json:"auxId,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the record has reached a terminal status.
func (r Record) Terminal() bool {
	return IsTerminal(r.Status)
}
