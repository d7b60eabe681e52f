package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingKey    = errors.New("envelope missing key")
	ErrMissingStatus = errors.New("envelope missing status")
)

// Envelope is the wire shape of one lifecycle notification as decoded from
// the push channel. The tracker does not own this type's delivery; it is
// handed in once per decoded message.
type Envelope struct {
	Key       string  `json:"key"`
	Status    Status  `json:"status"`
	Error     *string `json:"error,omitempty"`
	AuxID     *int64  `json:"auxId,omitempty"`
	Timestamp *string `json:"timestamp,omitempty"` // advisory, never used for ordering
}

// Validate checks the structural requirements the decode boundary must
// enforce before dispatch. A status outside both fixed sets is rejected
// here so the tracker can assume a classifiable envelope.
func (e Envelope) Validate() error {
	if e.Key == "" {
		return ErrMissingKey
	}
	if e.Status == "" {
		return ErrMissingStatus
	}
	if _, ok := Classify(e.Status); !ok {
		return fmt.Errorf("unknown status %q", e.Status)
	}
	return nil
}
