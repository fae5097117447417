package session

import (
	"testing"
)

func TestSweepOnce_RemovesEndedOnly(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Create("CA1", "sess-1", "MZ1", "unknown", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := reg.Create("CA2", "sess-2", "MZ2", "unknown", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := reg.Create("CA3", "sess-3", "MZ3", "unknown", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	reg.UpdateStatus("CA1", StatusEnded)
	reg.UpdateStatus("CA2", StatusRunning)

	if err := sweepOnce(reg); err != nil {
		t.Fatalf("sweepOnce failed: %v", err)
	}

	if reg.Get("CA1") != nil {
		t.Error("Expected ended session CA1 to be evicted")
	}
	if reg.Get("CA2") == nil {
		t.Error("Expected running session CA2 to survive")
	}
	if reg.Get("CA3") == nil {
		t.Error("Expected active session CA3 to survive")
	}
}

func TestSweepOnce_EmptyRegistry(t *testing.T) {
	reg := NewRegistry()
	if err := sweepOnce(reg); err != nil {
		t.Fatalf("sweepOnce on empty registry failed: %v", err)
	}
}

func TestSweepOnce_ErrorSessionsSurvive(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Create("CA1", "sess-1", "MZ1", "unknown", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	reg.UpdateStatus("CA1", StatusError)

	if err := sweepOnce(reg); err != nil {
		t.Fatalf("sweepOnce failed: %v", err)
	}

	// Only ended sessions are swept; error sessions are cleaned up by the
	// media handler when its socket closes.
	if reg.Get("CA1") == nil {
		t.Error("Expected error session CA1 to survive the sweep")
	}
}
