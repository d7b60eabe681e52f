package janitor

import (
	"sync"
	"testing"
	"time"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/testutil"
)

// mockSweeper records the cutoffs it was asked to sweep.
type mockSweeper struct {
	mu      sync.Mutex
	cutoffs []time.Time
	result  map[domain.Kind]int
}

func (m *mockSweeper) SweepOlderThan(cutoff time.Time) map[domain.Kind]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	return m.result
}

type mockSweepMetrics struct {
	mu    sync.Mutex
	calls map[string]int
}

func (m *mockSweepMetrics) RecordsSwept(kind string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[kind] += count
}

func TestSweepOnce_CutoffFromMaxAge(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC))
	sweeper := &mockSweeper{}

	j := New(Config{Schedule: "@every 1m", MaxAge: 30 * time.Minute}, sweeper)
	j.clock = clock.Now

	j.SweepOnce()

	sweeper.mu.Lock()
	defer sweeper.mu.Unlock()
	if len(sweeper.cutoffs) != 1 {
		t.Fatalf("expected 1 sweep, got %d", len(sweeper.cutoffs))
	}
	want := time.Date(2026, 1, 2, 11, 30, 0, 0, time.UTC)
	if !sweeper.cutoffs[0].Equal(want) {
		t.Errorf("cutoff = %v, want %v", sweeper.cutoffs[0], want)
	}
}

func TestSweepOnce_ReportsMetricsPerKind(t *testing.T) {
	sweeper := &mockSweeper{result: map[domain.Kind]int{
		domain.KindProvision: 2,
		domain.KindDeletion:  1,
	}}
	sink := &mockSweepMetrics{}

	j := New(DefaultConfig(), sweeper).WithMetrics(sink)
	j.SweepOnce()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.calls["provision"] != 2 {
		t.Errorf("provision swept = %d, want 2", sink.calls["provision"])
	}
	if sink.calls["deletion"] != 1 {
		t.Errorf("deletion swept = %d, want 1", sink.calls["deletion"])
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	j := New(Config{Schedule: "not a cron spec", MaxAge: time.Minute}, &mockSweeper{})

	if err := j.Start(); err == nil {
		t.Fatal("expected error for invalid schedule, got nil")
	}
}

func TestStartStop(t *testing.T) {
	j := New(Config{Schedule: "@every 1h", MaxAge: time.Minute}, &mockSweeper{})

	if err := j.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	j.Stop()

	// Stop on a never-started janitor is a no-op.
	New(DefaultConfig(), &mockSweeper{}).Stop()
}
