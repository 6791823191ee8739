package manager

import (
	"testing"
	"time"
)

func TestSyncGate_StartFinish(t *testing.T) {
	g := newSyncGate()

	if g.State() != GateIdle {
		t.Errorf("Expected idle, got %s", g.State())
	}
	if !g.TryStart() {
		t.Fatal("Expected first TryStart to succeed")
	}
	if g.State() != GateRunning {
		t.Errorf("Expected running, got %s", g.State())
	}
	if g.TryStart() {
		t.Error("Expected second TryStart to fail while running")
	}
	g.Finish()
	if g.State() != GateIdle {
		t.Errorf("Expected idle after Finish, got %s", g.State())
	}
	if !g.TryStart() {
		t.Error("Expected TryStart to succeed after Finish")
	}
}

func TestSyncGate_StaleTakeover(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	g := newSyncGate()
	g.now = func() time.Time { return now }

	if !g.TryStart() {
		t.Fatal("Expected TryStart to succeed")
	}

	now = now.Add(staleAfter - time.Second)
	if g.State() != GateRunning {
		t.Errorf("Expected running just under the threshold, got %s", g.State())
	}
	if g.TryStart() {
		t.Error("Expected takeover to fail before the holder is stale")
	}

	now = now.Add(2 * time.Second)
	if g.State() != GateStale {
		t.Errorf("Expected stale, got %s", g.State())
	}
	if !g.TryStart() {
		t.Error("Expected takeover of a stale holder to succeed")
	}
	if g.State() != GateRunning {
		t.Errorf("Expected running after takeover, got %s", g.State())
	}
}
