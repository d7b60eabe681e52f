package circuitbreaker

import (
	"testing"
	"time"
)

func TestAllow_Fresh_Allowed(t *testing.T) {
	cb := New(3, 5*time.Second)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestAllow_BelowThreshold_Allowed(t *testing.T) {
	cb := New(3, 5*time.Second)
	cb.RecordFailure()
	cb.RecordFailure()
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestAllow_AtThreshold_Open(t *testing.T) {
	cb := New(3, 5*time.Second)
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	if err := cb.Allow(); err == nil {
		t.Fatal("expected ErrCircuitOpen, got nil")
	}
}

func TestAllow_OpenAfterCooldown_HalfOpen(t *testing.T) {
	cb := New(3, 10*time.Millisecond)
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected nil (probe allowed), got %v", err)
	}
	if err := cb.Allow(); err == nil {
		t.Fatal("expected ErrCircuitOpen while half-open probe in flight")
	}
}

func TestRecordSuccess_ResetsToClose(t *testing.T) {
	cb := New(3, 10*time.Millisecond)
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	cb.Allow()
	cb.RecordSuccess()
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected nil after reset, got %v", err)
	}
}

func TestRecordFailure_HalfOpenReOpens(t *testing.T) {
	cb := New(3, 10*time.Millisecond)
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	cb.Allow()
	cb.RecordFailure()
	if err := cb.Allow(); err == nil {
		t.Fatal("expected ErrCircuitOpen after probe failure re-open")
	}
}

func TestRecordSuccess_ClosedState_NoOp(t *testing.T) {
	cb := New(3, 5*time.Second)
	cb.RecordSuccess()
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
