package tracker

import (
	"github.com/hardimpactdev/orbit-ui-sub001/internal/conn"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
)

// Kind-specific conveniences for rendering code. These are thin wrappers
// over the generic store operations.

// TrackProject starts tracking a provision optimistically, before the first
// event arrives.
func (t *Tracker) TrackProject(key string) {
	t.StartTracking(domain.KindProvision, key, domain.StatusQueued)
}

// TrackDeletion starts tracking a deletion optimistically.
func (t *Tracker) TrackDeletion(key string) {
	t.StartTracking(domain.KindDeletion, key, domain.StatusDeleting)
}

// ProjectStatus returns the current provision record for key.
func (t *Tracker) ProjectStatus(key string) (domain.Record, bool) {
	return t.Read(domain.KindProvision, key)
}

// DeletionStatus returns the current deletion record for key.
func (t *Tracker) DeletionStatus(key string) (domain.Record, bool) {
	return t.Read(domain.KindDeletion, key)
}

// MarkDeletionComplete forces a "deleted" record for key; used when the
// caller already knows the outcome from a direct response.
func (t *Tracker) MarkDeletionComplete(key string) {
	t.MarkComplete(domain.KindDeletion, key)
}

// MarkDeletionFailed forces a "delete_failed" record for key.
func (t *Tracker) MarkDeletionFailed(key string, errText *string) {
	t.MarkFailed(domain.KindDeletion, key, errText)
}

// ClearDeletion stops tracking a deletion early. Idempotent.
func (t *Tracker) ClearDeletion(key string) {
	t.Clear(domain.KindDeletion, key)
}

// WithConnection attaches the connectivity view exposed through the façade.
func (t *Tracker) WithConnection(view *conn.View) *Tracker {
	t.connView = view
	return t
}

// IsConfigured reports whether the push channel is enabled for this
// deployment. Read through from the transport signal, never cached.
func (t *Tracker) IsConfigured() bool {
	return t.connView.Configured()
}

// IsConnected reports whether the push channel is currently connected.
func (t *Tracker) IsConnected() bool {
	return t.connView.Connected()
}

// ConnectionError returns the transport's reported failure, if any.
func (t *Tracker) ConnectionError() error {
	return t.connView.ConnectionError()
}
