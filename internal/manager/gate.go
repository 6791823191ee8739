package manager

import (
	"sync"
	"time"
)

// GateState reports what the sync gate currently holds.
type GateState string

const (
	// GateIdle means no sync run is in progress.
	GateIdle GateState = "idle"
	// GateRunning means a sync run started recently and still holds the gate.
	GateRunning GateState = "running"
	// GateStale means a run holds the gate but has not finished within the
	// stale threshold; a new run may take over.
	GateStale GateState = "stale"
)

// staleAfter is how long a run may hold the gate before a new run is allowed
// to take over. Covers runs killed mid-flight without a Finish call.
const staleAfter = 30 * time.Second

// syncGate serializes sync runs within the process. Unlike a plain mutex it
// exposes its state and lets a fresh run reclaim a gate whose holder died.
type syncGate struct {
	mu        sync.Mutex
	running   bool
	startedAt time.Time
	now       func() time.Time
}

func newSyncGate() *syncGate {
	return &syncGate{now: time.Now}
}

// TryStart claims the gate. It fails only when a non-stale run already holds
// it; a stale holder is taken over.
func (g *syncGate) TryStart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running && g.now().Sub(g.startedAt) < staleAfter {
		return false
	}
	g.running = true
	g.startedAt = g.now()
	return true
}

// Finish releases the gate.
func (g *syncGate) Finish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running = false
}

// State reports the gate's current state.
func (g *syncGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case !g.running:
		return GateIdle
	case g.now().Sub(g.startedAt) >= staleAfter:
		return GateStale
	default:
		return GateRunning
	}
}
