// Package heartbeat implements the heartbeat manager (§4.3): per-node
// deadline timers running on their own cooperative context, independent of
// RPC-server shutdown latency, so the failure detector keeps arming and
// disarming timers even while the transport drains. Grounded on the
// teacher's reconciler deadline sweep (now.Sub(last) > timeout) and its
// ticker-with-stop-channel loop shape.
package heartbeat

import (
	"sync"
	"time"

	"github.com/cuemby/gcsd/pkg/log"
)

// FailureDetector is the callback invoked from the sweep goroutine when a
// node's deadline passes. pkg/gcs wires it to the node manager's
// OnNodeFailure, which serializes the state mutation under that manager's
// own lock (§4.3).
type FailureDetector func(nodeID string)

// Manager tracks one deadline per alive node and sweeps for expired ones on
// its own ticker, separate from the main loop.
type Manager struct {
	mu       sync.Mutex
	deadline map[string]time.Time
	timeout  time.Duration
	sweep    time.Duration
	onFail   FailureDetector

	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs a heartbeat manager. sweepInterval should be well under
// timeout (the teacher's reconciler uses a 10s sweep against a 30s
// timeout); onFail is invoked once per node the moment its deadline is
// first observed as expired.
func New(timeout, sweepInterval time.Duration, onFail FailureDetector) *Manager {
	return &Manager{
		deadline: make(map[string]time.Time),
		timeout:  timeout,
		sweep:    sweepInterval,
		onFail:   onFail,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// AddNode arms a fresh deadline for nodeID, called when NodeAdded fires.
func (m *Manager) AddNode(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadline[nodeID] = time.Now().Add(m.timeout)
}

// RemoveNode disarms nodeID's timer, called when NodeRemoved fires.
func (m *Manager) RemoveNode(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.deadline, nodeID)
}

// Heartbeat extends nodeID's deadline. Called from the heartbeat RPC
// handler.
func (m *Manager) Heartbeat(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, tracked := m.deadline[nodeID]; !tracked {
		return
	}
	m.deadline[nodeID] = time.Now().Add(m.timeout)
}

// Start begins the sweep loop on its own goroutine. Must be started
// strictly after the RPC server per §4.1, so nodes can re-register before
// their first heartbeat is due.
func (m *Manager) Start() {
	go m.run()
}

// Stop halts the sweep loop and waits for it to exit. Stopping is the
// first step of shutdown (§4.1): it must happen before the RPC server
// stops accepting heartbeat calls that would otherwise reset timers.
func (m *Manager) Stop() {
	close(m.stopCh)
	<-m.doneCh
}

func (m *Manager) run() {
	defer close(m.doneCh)
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweepOnce()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) sweepOnce() {
	now := time.Now()

	m.mu.Lock()
	var expired []string
	for nodeID, dl := range m.deadline {
		if now.After(dl) {
			expired = append(expired, nodeID)
		}
	}
	for _, nodeID := range expired {
		delete(m.deadline, nodeID)
	}
	m.mu.Unlock()

	hbLog := log.WithComponent("heartbeat")
	for _, nodeID := range expired {
		hbLog.Warn().Str("node_id", nodeID).Msg("heartbeat deadline exceeded")
		m.onFail(nodeID)
	}
}
