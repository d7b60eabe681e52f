package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/testutil"
)

var testStart = time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T) (*Tracker, *testutil.FakeScheduler, *testutil.FakeClock) {
	t.Helper()
	sched := testutil.NewFakeScheduler(testStart)
	clock := testutil.NewFakeClock(testStart)
	trk := New(DefaultConfig(), sched)
	trk.clock = clock.Now
	return trk, sched, clock
}

func dispatch(t *testing.T, trk *Tracker, key string, status domain.Status) {
	t.Helper()
	trk.Dispatch(context.Background(), domain.Envelope{Key: key, Status: status})
}

func strPtr(s string) *string { return &s }
func intPtr(n int64) *int64   { return &n }

func TestDispatch_CreatesRecord(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusProvisioning)

	rec, ok := trk.Read(domain.KindProvision, "proj-a")
	if !ok {
		t.Fatal("expected record for proj-a")
	}
	if rec.Status != domain.StatusProvisioning {
		t.Errorf("Status = %q, want provisioning", rec.Status)
	}
	if !rec.StartedAt.Equal(testStart) {
		t.Errorf("StartedAt = %v, want %v", rec.StartedAt, testStart)
	}
}

func TestDispatch_ClassifiesDeletionStatuses(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusRemovingFiles)

	if _, ok := trk.Read(domain.KindProvision, "proj-a"); ok {
		t.Error("deletion status must not create a provision record")
	}
	rec, ok := trk.Read(domain.KindDeletion, "proj-a")
	if !ok {
		t.Fatal("expected deletion record for proj-a")
	}
	if rec.Status != domain.StatusRemovingFiles {
		t.Errorf("Status = %q, want removing_files", rec.Status)
	}
}

func TestDispatch_Idempotence(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusReady)
	before, _ := trk.Read(domain.KindProvision, "proj-a")
	count := trk.SuccessfulProvisions()

	dispatch(t, trk, "proj-a", domain.StatusReady)

	after, _ := trk.Read(domain.KindProvision, "proj-a")
	if after != before {
		t.Errorf("duplicate changed record: %+v != %+v", after, before)
	}
	if got := trk.SuccessfulProvisions(); got != count {
		t.Errorf("duplicate incremented counter: %d, want %d", got, count)
	}
}

func TestDispatch_NonInterference(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusBuilding)
	dispatch(t, trk, "proj-b", domain.StatusCloning)
	dispatch(t, trk, "proj-a", domain.StatusReady)

	recB, ok := trk.Read(domain.KindProvision, "proj-b")
	if !ok {
		t.Fatal("expected record for proj-b")
	}
	if recB.Status != domain.StatusCloning {
		t.Errorf("proj-b Status = %q, want cloning", recB.Status)
	}
}

func TestDispatch_StickyAuxID(t *testing.T) {
	trk, _, _ := newTestTracker(t)
	ctx := context.Background()

	trk.Dispatch(ctx, domain.Envelope{Key: "p1", Status: domain.StatusProvisioning})
	trk.Dispatch(ctx, domain.Envelope{Key: "p1", Status: domain.StatusCreatingProject, AuxID: intPtr(42)})
	trk.Dispatch(ctx, domain.Envelope{Key: "p1", Status: domain.StatusReady})

	rec, ok := trk.Read(domain.KindProvision, "p1")
	if !ok {
		t.Fatal("expected record for p1")
	}
	if rec.AuxID == nil || *rec.AuxID != 42 {
		t.Errorf("AuxID = %v, want 42", rec.AuxID)
	}
}

func TestDispatch_UnknownStatusIgnored(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.Status("warp_drive"))

	if _, ok := trk.Read(domain.KindProvision, "proj-a"); ok {
		t.Error("unknown status must not create a record")
	}
	if _, ok := trk.Read(domain.KindDeletion, "proj-a"); ok {
		t.Error("unknown status must not create a deletion record")
	}
}

func TestDispatch_OutOfOrderIsPermissive(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	// A late non-terminal event overwrites an observed terminal one.
	// Only exact repeats are rejected.
	dispatch(t, trk, "proj-a", domain.StatusFailed)
	dispatch(t, trk, "proj-a", domain.StatusBuilding)

	rec, _ := trk.Read(domain.KindProvision, "proj-a")
	if rec.Status != domain.StatusBuilding {
		t.Errorf("Status = %q, want building", rec.Status)
	}
}

func TestDispatch_ErrorStoredVerbatim(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	trk.Dispatch(context.Background(), domain.Envelope{
		Key:    "proj-a",
		Status: domain.StatusFailed,
		Error:  strPtr("composer install exited 1: memory limit"),
	})

	rec, _ := trk.Read(domain.KindProvision, "proj-a")
	if rec.Error == nil || *rec.Error != "composer install exited 1: memory limit" {
		t.Errorf("Error = %v, want verbatim text", rec.Error)
	}
	if trk.SuccessfulProvisions() != 0 {
		t.Error("failed terminal must not increment the success counter")
	}
}

func TestExpiry_TerminalRemovedAfterGrace(t *testing.T) {
	trk, sched, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusReady)

	if _, ok := trk.Read(domain.KindProvision, "proj-a"); !ok {
		t.Fatal("record must be present immediately after terminal event")
	}

	sched.Advance(59 * time.Second)
	if _, ok := trk.Read(domain.KindProvision, "proj-a"); !ok {
		t.Fatal("record must survive until the grace period elapses")
	}

	sched.Advance(2 * time.Second)
	if _, ok := trk.Read(domain.KindProvision, "proj-a"); ok {
		t.Error("record must be absent after the grace period")
	}
}

func TestExpiry_DeletionGraceIsShorter(t *testing.T) {
	trk, sched, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusDeleted)

	sched.Advance(11 * time.Second)
	if _, ok := trk.Read(domain.KindDeletion, "proj-a"); ok {
		t.Error("deletion record must expire after the shorter deletion grace")
	}
}

func TestExpiry_LedgerRemovedWithRecord(t *testing.T) {
	trk, sched, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusReady)
	sched.Advance(61 * time.Second)

	// With the ledger entry gone, the same status is accepted afresh.
	dispatch(t, trk, "proj-a", domain.StatusReady)

	if _, ok := trk.Read(domain.KindProvision, "proj-a"); !ok {
		t.Fatal("expected a fresh record after re-accepting ready")
	}
	if got := trk.SuccessfulProvisions(); got != 2 {
		t.Errorf("SuccessfulProvisions = %d, want 2", got)
	}
}

func TestExpiry_SupersededByNewEvent(t *testing.T) {
	trk, sched, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusReady)
	sched.Advance(30 * time.Second)

	// A late non-terminal event supersedes the pending removal.
	dispatch(t, trk, "proj-a", domain.StatusBuilding)

	sched.Advance(45 * time.Second)
	rec, ok := trk.Read(domain.KindProvision, "proj-a")
	if !ok {
		t.Fatal("superseded removal must not delete the live record")
	}
	if rec.Status != domain.StatusBuilding {
		t.Errorf("Status = %q, want building", rec.Status)
	}
}

func TestExpiry_ReArmedTerminalMeasuresFromAcceptance(t *testing.T) {
	trk, sched, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusReady)
	sched.Advance(50 * time.Second)
	dispatch(t, trk, "proj-a", domain.StatusFailed)

	// 50s into the first grace; the second terminal re-arms a full window.
	sched.Advance(50 * time.Second)
	if _, ok := trk.Read(domain.KindProvision, "proj-a"); !ok {
		t.Fatal("record must survive a full grace period after re-arming")
	}

	sched.Advance(11 * time.Second)
	if _, ok := trk.Read(domain.KindProvision, "proj-a"); ok {
		t.Error("record must expire one grace period after the second terminal")
	}
}

func TestStartTracking_InsertsOnlyWhenAbsent(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusBuilding)
	trk.StartTracking(domain.KindProvision, "proj-a", domain.StatusQueued)

	rec, _ := trk.Read(domain.KindProvision, "proj-a")
	if rec.Status != domain.StatusBuilding {
		t.Errorf("StartTracking overwrote a live record: %q", rec.Status)
	}
}

func TestStartTracking_SeedsDedupLedger(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	trk.TrackProject("proj-a")
	updatedBefore, _ := trk.Read(domain.KindProvision, "proj-a")

	// An event repeating the initial status is an exact repeat.
	dispatch(t, trk, "proj-a", domain.StatusQueued)

	updatedAfter, _ := trk.Read(domain.KindProvision, "proj-a")
	if updatedAfter != updatedBefore {
		t.Errorf("repeat of the initial status must be deduplicated")
	}
}

func TestMarkComplete_UntrackedKey(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	trk.MarkComplete(domain.KindProvision, "p2")

	rec, ok := trk.Read(domain.KindProvision, "p2")
	if !ok {
		t.Fatal("MarkComplete must create a record for an untracked key")
	}
	if rec.Status != domain.StatusReady {
		t.Errorf("Status = %q, want ready", rec.Status)
	}
	if got := trk.SuccessfulProvisions(); got != 1 {
		t.Errorf("SuccessfulProvisions = %d, want 1", got)
	}

	// Repeating the escape hatch must not double count.
	trk.MarkComplete(domain.KindProvision, "p2")
	if got := trk.SuccessfulProvisions(); got != 1 {
		t.Errorf("SuccessfulProvisions after repeat = %d, want 1", got)
	}
}

func TestMarkFailed_StoresErrorAndArmsExpiry(t *testing.T) {
	trk, sched, _ := newTestTracker(t)

	trk.MarkDeletionFailed("proj-x", strPtr("backend timeout"))

	rec, ok := trk.Read(domain.KindDeletion, "proj-x")
	if !ok {
		t.Fatal("expected deletion record")
	}
	if rec.Status != domain.StatusDeleteFailed {
		t.Errorf("Status = %q, want delete_failed", rec.Status)
	}
	if rec.Error == nil || *rec.Error != "backend timeout" {
		t.Errorf("Error = %v, want backend timeout", rec.Error)
	}
	if trk.SuccessfulDeletions() != 0 {
		t.Error("failed deletion must not increment the success counter")
	}

	sched.Advance(11 * time.Second)
	if _, ok := trk.Read(domain.KindDeletion, "proj-x"); ok {
		t.Error("failed deletion record must expire after the deletion grace")
	}
}

func TestClear_Idempotent(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	// Clearing a never-tracked key is a no-op, twice.
	trk.ClearDeletion("x")
	trk.ClearDeletion("x")

	if _, ok := trk.Read(domain.KindDeletion, "x"); ok {
		t.Error("clear must leave no record")
	}
}

func TestClear_CancelsPendingExpiry(t *testing.T) {
	trk, sched, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusDeleted)
	trk.ClearDeletion("proj-a")

	// Re-track under the same key; the old timer must not remove it.
	trk.TrackDeletion("proj-a")
	sched.Advance(time.Minute)

	if _, ok := trk.Read(domain.KindDeletion, "proj-a"); !ok {
		t.Error("stale expiry removed a re-tracked record")
	}
}

func TestClear_AllowsSameStatusAgain(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	dispatch(t, trk, "proj-a", domain.StatusDeleting)
	trk.ClearDeletion("proj-a")

	// Ledger entry removed with the record: the status is accepted afresh.
	dispatch(t, trk, "proj-a", domain.StatusDeleting)

	if _, ok := trk.Read(domain.KindDeletion, "proj-a"); !ok {
		t.Error("expected record after clearing and re-receiving the status")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	trk, _, _ := newTestTracker(t)

	trk.TrackProject("proj-a")
	snap := trk.Snapshot(domain.KindProvision)
	delete(snap, "proj-a")

	if _, ok := trk.Read(domain.KindProvision, "proj-a"); !ok {
		t.Error("mutating a snapshot must not affect the store")
	}
}

func TestSweepOlderThan_RemovesOveragedOnly(t *testing.T) {
	trk, _, clock := newTestTracker(t)

	trk.TrackProject("old")
	clock.Advance(45 * time.Minute)
	trk.TrackProject("fresh")

	removed := trk.SweepOlderThan(clock.Now().Add(-30 * time.Minute))

	if removed[domain.KindProvision] != 1 {
		t.Errorf("swept %d provision records, want 1", removed[domain.KindProvision])
	}
	if _, ok := trk.Read(domain.KindProvision, "old"); ok {
		t.Error("overaged record must be removed")
	}
	if _, ok := trk.Read(domain.KindProvision, "fresh"); !ok {
		t.Error("fresh record must survive the sweep")
	}

	// Ledger removed in lockstep: the old key's status is accepted again.
	dispatch(t, trk, "old", domain.StatusQueued)
	if _, ok := trk.Read(domain.KindProvision, "old"); !ok {
		t.Error("expected swept key to be trackable again")
	}
}

func TestEndToEnd_ProvisionLifecycle(t *testing.T) {
	trk, sched, _ := newTestTracker(t)
	ctx := context.Background()

	base := trk.SuccessfulProvisions()

	trk.StartTracking(domain.KindProvision, "proj-a", domain.StatusQueued)
	trk.Dispatch(ctx, domain.Envelope{Key: "proj-a", Status: domain.StatusProvisioning})
	trk.Dispatch(ctx, domain.Envelope{Key: "proj-a", Status: domain.StatusProvisioning}) // duplicate, ignored
	trk.Dispatch(ctx, domain.Envelope{Key: "proj-a", Status: domain.StatusReady})

	rec, ok := trk.Read(domain.KindProvision, "proj-a")
	if !ok {
		t.Fatal("expected record immediately after the terminal event")
	}
	if rec.Key != "proj-a" || rec.Status != domain.StatusReady || rec.Error != nil || rec.AuxID != nil {
		t.Errorf("record = %+v, want key=proj-a status=ready error=nil auxId=nil", rec)
	}
	if got := trk.SuccessfulProvisions(); got != base+1 {
		t.Errorf("SuccessfulProvisions = %d, want %d", got, base+1)
	}

	sched.Advance(61 * time.Second)
	if _, ok := trk.Read(domain.KindProvision, "proj-a"); ok {
		t.Error("record must be absent after the provisioning grace period")
	}
}

// mockMetrics counts sink calls.
type mockMetrics struct {
	mu       sync.Mutex
	accepted int
	deduped  int
	ignored  int
	expired  int
}

func (m *mockMetrics) EventAccepted(kind, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted++
}

func (m *mockMetrics) EventDeduplicated(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deduped++
}

func (m *mockMetrics) EventIgnored() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignored++
}

func (m *mockMetrics) CompletionRecorded(kind string, success bool) {}

func (m *mockMetrics) RecordExpired(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expired++
}

func (m *mockMetrics) TrackedRecords(kind string, count int) {}
func (m *mockMetrics) RecordsSwept(kind string, count int)   {}

func TestMetrics_AcceptDedupIgnore(t *testing.T) {
	trk, sched, _ := newTestTracker(t)
	sink := &mockMetrics{}
	trk.WithMetrics(sink)

	dispatch(t, trk, "proj-a", domain.StatusReady)
	dispatch(t, trk, "proj-a", domain.StatusReady)
	dispatch(t, trk, "proj-a", domain.Status("warp_drive"))
	sched.Advance(61 * time.Second)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.accepted != 1 {
		t.Errorf("accepted = %d, want 1", sink.accepted)
	}
	if sink.deduped != 1 {
		t.Errorf("deduped = %d, want 1", sink.deduped)
	}
	if sink.ignored != 1 {
		t.Errorf("ignored = %d, want 1", sink.ignored)
	}
	if sink.expired != 1 {
		t.Errorf("expired = %d, want 1", sink.expired)
	}
}

// mockJournal records appended envelopes.
type mockJournal struct {
	mu      sync.Mutex
	entries []domain.Envelope
}

func (m *mockJournal) Append(ctx context.Context, kind domain.Kind, env domain.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, env)
	return nil
}

// mockAnalytics records terminal outcomes.
type mockAnalytics struct {
	mu       sync.Mutex
	statuses []domain.Status
}

func (m *mockAnalytics) Record(ctx context.Context, kind domain.Kind, status domain.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
}

func TestSinks_JournalOnAcceptAnalyticsOnTerminal(t *testing.T) {
	trk, _, _ := newTestTracker(t)
	j := &mockJournal{}
	a := &mockAnalytics{}
	trk.WithJournal(j).WithAnalytics(a)

	dispatch(t, trk, "proj-a", domain.StatusProvisioning)
	dispatch(t, trk, "proj-a", domain.StatusProvisioning) // duplicate: no sink calls
	dispatch(t, trk, "proj-a", domain.StatusReady)

	j.mu.Lock()
	journaled := len(j.entries)
	j.mu.Unlock()
	if journaled != 2 {
		t.Errorf("journaled %d envelopes, want 2 (accepted only)", journaled)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.statuses) != 1 || a.statuses[0] != domain.StatusReady {
		t.Errorf("analytics = %v, want [ready]", a.statuses)
	}
}
