// Package tracker maintains a queryable view of long-running background
// operations (project provisioning, project deletion) from out-of-order,
// possibly duplicated lifecycle notifications.
//
// Duplicate suppression compares only against the immediately previous
// accepted status per key. Out-of-order delivery of *different* statuses is
// not corrected: a terminal status can be overwritten by a late non-terminal
// one. That permissiveness is deliberate; tightening it could mask
// legitimate rapid retries.
package tracker

import (
	"sync"
	"time"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/conn"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/timer"
)

// Config holds grace periods for post-terminal record retention.
type Config struct {
	// ProvisionGrace keeps a finished provision visible (a "ready" badge
	// lingers) before automatic removal.
	ProvisionGrace time.Duration

	// DeletionGrace is shorter: the entity itself is gone.
	DeletionGrace time.Duration
}

// DefaultConfig returns the default grace periods.
func DefaultConfig() Config {
	return Config{
		ProvisionGrace: 60 * time.Second,
		DeletionGrace:  10 * time.Second,
	}
}

type pendingExpiry struct {
	cancel timer.Cancel
}

// kindStore is the per-operation-kind state: current records, the dedup
// ledger of last accepted statuses, and armed expiries. Ledger entries are
// added and removed in lockstep with their records.
type kindStore struct {
	records map[string]*domain.Record
	ledger  map[string]domain.Status
	expiry  map[string]*pendingExpiry
}

func newKindStore() *kindStore {
	return &kindStore{
		records: make(map[string]*domain.Record),
		ledger:  make(map[string]domain.Status),
		expiry:  make(map[string]*pendingExpiry),
	}
}

// Tracker owns one lifecycle store per operation kind plus the completion
// counters. All methods are non-blocking and safe for concurrent use; expiry
// callbacks run on scheduler goroutines and take the same lock.
type Tracker struct {
	mu     sync.Mutex
	cfg    Config
	sched  timer.Scheduler
	clock  func() time.Time
	stores map[domain.Kind]*kindStore

	provisioned uint64 // successful provisions, process lifetime
	deleted     uint64 // successful deletions, process lifetime

	metrics   MetricsSink   // optional, nil = disabled
	journal   JournalSink   // optional, nil = disabled
	analytics AnalyticsSink // optional, nil = disabled
	connView  *conn.View    // optional; nil reports not configured
}

// New creates a Tracker using the given scheduler for expiry timers.
func New(cfg Config, sched timer.Scheduler) *Tracker {
	return &Tracker{
		cfg:   cfg,
		sched: sched,
		clock: time.Now,
		stores: map[domain.Kind]*kindStore{
			domain.KindProvision: newKindStore(),
			domain.KindDeletion:  newKindStore(),
		},
	}
}

// WithMetrics attaches a metrics sink.
func (t *Tracker) WithMetrics(sink MetricsSink) *Tracker {
	t.metrics = sink
	return t
}

// WithJournal attaches an event journal.
func (t *Tracker) WithJournal(sink JournalSink) *Tracker {
	t.journal = sink
	return t
}

// WithAnalytics attaches an analytics sink for terminal outcomes.
func (t *Tracker) WithAnalytics(sink AnalyticsSink) *Tracker {
	t.analytics = sink
	return t
}

// StartTracking inserts a record for key with an initial status, only if the
// key is not already tracked. Used for immediate feedback when the caller
// initiates an operation before the first event arrives.
func (t *Tracker) StartTracking(kind domain.Kind, key string, initial domain.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ks := t.stores[kind]
	if _, exists := ks.records[key]; exists {
		return
	}
	now := t.clock().UTC()
	ks.records[key] = &domain.Record{
		Key:       key,
		Status:    initial,
		StartedAt: now,
		UpdatedAt: now,
	}
	ks.ledger[key] = initial
	t.reportTracked(kind, ks)
}

// Read returns a snapshot of the record for key, and whether it exists.
// Absence is data, not an error.
func (t *Tracker) Read(kind domain.Kind, key string) (domain.Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.stores[kind].records[key]
	if !ok {
		return domain.Record{}, false
	}
	return *rec, true
}

// Snapshot returns a copy of all current records for a kind, safe to range
// over while the tracker keeps mutating.
func (t *Tracker) Snapshot(kind domain.Kind) map[string]domain.Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	ks := t.stores[kind]
	out := make(map[string]domain.Record, len(ks.records))
	for k, rec := range ks.records {
		out[k] = *rec
	}
	return out
}

// Clear immediately removes the record, its ledger entry and any pending
// expiry for key. Clearing an absent key is a no-op.
func (t *Tracker) Clear(kind domain.Kind, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(kind, key)
}

// MarkComplete forces the kind's successful terminal status for key without
// waiting for a matching event, creating the record if the key is untracked.
// Terminal side effects (counter, expiry) match an accepted event.
func (t *Tracker) MarkComplete(kind domain.Kind, key string) {
	t.accept(kind, domain.Envelope{Key: key, Status: domain.SuccessStatus(kind)})
}

// MarkFailed forces the kind's failed terminal status for key, storing the
// error text verbatim.
func (t *Tracker) MarkFailed(kind domain.Kind, key string, errText *string) {
	t.accept(kind, domain.Envelope{Key: key, Status: domain.FailureStatus(kind), Error: errText})
}

// accept runs the dedup filter and, on acceptance, applies the envelope to
// the kind's store. Returns whether the envelope was accepted.
func (t *Tracker) accept(kind domain.Kind, env domain.Envelope) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	ks := t.stores[kind]
	if last, ok := ks.ledger[env.Key]; ok && last == env.Status {
		if t.metrics != nil {
			t.metrics.EventDeduplicated(string(kind))
		}
		return false
	}
	t.applyLocked(kind, ks, env)
	return true
}

// applyLocked upserts the record for an accepted envelope and performs
// terminal side effects. Caller holds t.mu.
func (t *Tracker) applyLocked(kind domain.Kind, ks *kindStore, env domain.Envelope) {
	now := t.clock().UTC()

	rec, ok := ks.records[env.Key]
	if !ok {
		rec = &domain.Record{Key: env.Key, StartedAt: now}
		ks.records[env.Key] = rec
	}
	rec.Status = env.Status
	rec.Error = env.Error
	rec.UpdatedAt = now
	if env.AuxID != nil {
		// Sticky: an envelope without auxId never clears a known one.
		rec.AuxID = env.AuxID
	}
	ks.ledger[env.Key] = env.Status

	// Any state transition supersedes a pending removal for this key.
	t.cancelExpiryLocked(ks, env.Key)

	if t.metrics != nil {
		t.metrics.EventAccepted(string(kind), string(env.Status))
	}

	if domain.IsTerminal(env.Status) {
		if domain.IsSuccess(env.Status) {
			t.incrementLocked(kind)
		} else if t.metrics != nil {
			t.metrics.CompletionRecorded(string(kind), false)
		}
		t.armExpiryLocked(kind, ks, env.Key)
	}
	t.reportTracked(kind, ks)
}

func (t *Tracker) incrementLocked(kind domain.Kind) {
	if kind == domain.KindDeletion {
		t.deleted++
	} else {
		t.provisioned++
	}
	if t.metrics != nil {
		t.metrics.CompletionRecorded(string(kind), true)
	}
}

// armExpiryLocked schedules removal of key after the kind's grace period.
// The callback removes the record only if its own arming is still current,
// so a removal armed for a superseded state never fires on live data.
func (t *Tracker) armExpiryLocked(kind domain.Kind, ks *kindStore, key string) {
	p := &pendingExpiry{}
	ks.expiry[key] = p

	p.cancel = t.sched.After(t.grace(kind), func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if ks.expiry[key] != p {
			return
		}
		delete(ks.records, key)
		delete(ks.ledger, key)
		delete(ks.expiry, key)
		if t.metrics != nil {
			t.metrics.RecordExpired(string(kind))
		}
		t.reportTracked(kind, ks)
	})
}

func (t *Tracker) cancelExpiryLocked(ks *kindStore, key string) {
	if p, ok := ks.expiry[key]; ok {
		if p.cancel != nil {
			p.cancel()
		}
		delete(ks.expiry, key)
	}
}

// removeLocked deletes the record and ledger entry and cancels any pending
// expiry. Caller holds t.mu.
func (t *Tracker) removeLocked(kind domain.Kind, key string) bool {
	ks := t.stores[kind]
	t.cancelExpiryLocked(ks, key)
	if _, ok := ks.records[key]; !ok {
		return false
	}
	delete(ks.records, key)
	delete(ks.ledger, key)
	t.reportTracked(kind, ks)
	return true
}

func (t *Tracker) grace(kind domain.Kind) time.Duration {
	if kind == domain.KindDeletion {
		return t.cfg.DeletionGrace
	}
	return t.cfg.ProvisionGrace
}

func (t *Tracker) reportTracked(kind domain.Kind, ks *kindStore) {
	if t.metrics != nil {
		t.metrics.TrackedRecords(string(kind), len(ks.records))
	}
}

// SweepOlderThan force-removes every record tracked since before cutoff,
// regardless of status. Bounds the growth from keys that never receive a
// terminal event. Returns the number of records removed per kind.
func (t *Tracker) SweepOlderThan(cutoff time.Time) map[domain.Kind]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := make(map[domain.Kind]int)
	for kind, ks := range t.stores {
		for key, rec := range ks.records {
			if rec.StartedAt.Before(cutoff) {
				t.cancelExpiryLocked(ks, key)
				delete(ks.records, key)
				delete(ks.ledger, key)
				removed[kind]++
			}
		}
		if removed[kind] > 0 {
			t.reportTracked(kind, ks)
		}
	}
	return removed
}

// SuccessfulProvisions returns the count of provisions that reached "ready".
// Monotonic for the process lifetime.
func (t *Tracker) SuccessfulProvisions() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.provisioned
}

// SuccessfulDeletions returns the count of deletions that reached "deleted".
func (t *Tracker) SuccessfulDeletions() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleted
}
