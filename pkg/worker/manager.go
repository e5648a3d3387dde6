// Package worker implements the worker manager (§4.6 bullet, §6
// WorkerInfo service): a death-notification registry that feeds the actor
// manager's OnWorkerDead. Grounded on the teacher's
// pkg/worker/health_monitor.go "one monitored unit per id" shape, stripped
// of every containerd/health-check call it carried and rewritten as a
// small persisted record of how and when a worker exited.
package worker

import (
	"sync"
	"time"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/gcserr"
	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/types"
)

// DeathListener is notified when a worker's death is recorded, satisfied
// by pkg/actor.Manager.OnWorkerDead.
type DeathListener interface {
	OnWorkerDead(workerID string, exitType types.WorkerExitType)
}

// Manager owns the Worker table.
type Manager struct {
	mu      sync.RWMutex
	store   store.Store
	bus     eventbus.Bus
	actors  DeathListener
	workers map[string]*types.Worker
}

// New constructs a worker manager. Call Load to replay persisted workers
// before accepting RPCs, then SetDeathListener once the actor manager is
// constructed (they are wired in bootstrap order, §4.1).
func New(s store.Store, bus eventbus.Bus) *Manager {
	return &Manager{store: s, bus: bus, workers: make(map[string]*types.Worker)}
}

// SetDeathListener wires the actor manager's death callback. Called once
// during bootstrap, after both managers exist.
func (m *Manager) SetDeathListener(l DeathListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors = l
}

// Load replays a snapshot taken by the init loader into memory.
func (m *Manager) Load(workers []*types.Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range workers {
		m.workers[w.WorkerID] = w
	}
}

// ReportWorkerFailure records a worker's exit and notifies the actor
// manager, persisting before publishing (§3).
func (m *Manager) ReportWorkerFailure(workerID, nodeID string, exitType types.WorkerExitType, detail string) error {
	w := &types.Worker{
		WorkerID:   workerID,
		NodeID:     nodeID,
		ExitType:   exitType,
		ExitDetail: detail,
		ReportedAt: time.Now(),
	}

	m.mu.Lock()
	if err := m.store.PutWorker(w); err != nil {
		m.mu.Unlock()
		return gcserr.TransientStore("worker.ReportWorkerFailure", err)
	}
	m.workers[workerID] = w
	listener := m.actors
	m.mu.Unlock()

	m.bus.Publish(eventbus.TopicWorkerDead, w)
	if listener != nil {
		listener.OnWorkerDead(workerID, exitType)
	}
	return nil
}

// GetWorker returns a worker's recorded exit by id.
func (m *Manager) GetWorker(workerID string) (*types.Worker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workers[workerID]
	return w, ok
}
