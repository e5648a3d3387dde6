// Package node implements the node manager (§4.2): the source of truth for
// cluster membership. It persists NodeInfo through the backing store,
// applies it to in-memory state, then publishes NodeAdded/NodeRemoved on
// the event bus — persistence before publication, as required by §3's
// persistence contract.
package node

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/gcserr"
	"github.com/cuemby/gcsd/pkg/log"
	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/types"
)

// Manager owns the NodeInfo table.
type Manager struct {
	mu    sync.RWMutex
	store store.Store
	bus   eventbus.Bus
	nodes map[string]*types.NodeInfo
}

// New constructs a node manager. Call Load to replay persisted nodes
// before accepting RPCs.
func New(s store.Store, bus eventbus.Bus) *Manager {
	return &Manager{
		store: s,
		bus:   bus,
		nodes: make(map[string]*types.NodeInfo),
	}
}

// Load replays a snapshot taken by the init loader into memory. It does
// not publish events: listeners are not installed yet at this point in the
// bootstrap sequence (§4.1).
func (m *Manager) Load(nodes []*types.NodeInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range nodes {
		m.nodes[n.NodeID] = n
	}
}

// Register is idempotent on node_id: re-registering an already-alive node
// with the same id is a no-op observable as the same state as the first
// call (§8 round-trip property). Registering a node_id already recorded as
// DEAD returns an error.
func (m *Manager) Register(info *types.NodeInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.nodes[info.NodeID]; ok {
		if existing.State == types.NodeAlive {
			return nil
		}
		return fmt.Errorf("node.Register: node %s is DEAD and cannot rejoin under the same id", info.NodeID)
	}

	if info.State == "" {
		info.State = types.NodeAlive
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}
	info.LastHeartbeat = time.Now()

	if err := m.store.PutNode(info); err != nil {
		return gcserr.TransientStore("node.Register", err)
	}
	m.nodes[info.NodeID] = info

	nodeLog := log.WithComponent("node")
	nodeLog.Info().Str("node_id", info.NodeID).Msg("node registered")
	m.bus.Publish(eventbus.TopicNodeAdded, info)
	return nil
}

// Heartbeat extends a node's last-heartbeat timestamp. The heartbeat
// manager's timers are the authority on deadlines; this just records
// arrival.
func (m *Manager) Heartbeat(nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[nodeID]
	if !ok {
		return fmt.Errorf("node.Heartbeat: unknown node %s", nodeID)
	}
	n.LastHeartbeat = time.Now()
	return nil
}

// OnNodeFailure marks a node DEAD, persists the transition, and emits
// NodeRemoved exactly once. A node that is already DEAD is a no-op: the
// state transition is monotonic (§3).
func (m *Manager) OnNodeFailure(nodeID string) error {
	m.mu.Lock()
	n, ok := m.nodes[nodeID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("node.OnNodeFailure: unknown node %s", nodeID)
	}
	if n.State == types.NodeDead {
		m.mu.Unlock()
		return nil
	}

	now := time.Now()
	n.State = types.NodeDead
	n.DeadAt = &now

	if err := m.store.PutNode(n); err != nil {
		m.mu.Unlock()
		return gcserr.TransientStore("node.OnNodeFailure", err)
	}
	m.mu.Unlock()

	nodeLog := log.WithComponent("node")
	nodeLog.Warn().Str("node_id", nodeID).Msg("node marked dead")
	m.bus.Publish(eventbus.TopicNodeRemoved, n)
	return nil
}

// GetNode returns the current record for nodeID, alive or dead.
func (m *Manager) GetNode(nodeID string) (*types.NodeInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[nodeID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return n, nil
}

// GetAllAliveNodes returns every node currently in NodeAlive, in no
// particular order; callers that need deterministic order sort by NodeID.
func (m *Manager) GetAllAliveNodes() []*types.NodeInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.NodeInfo, 0, len(m.nodes))
	for _, n := range m.nodes {
		if n.State == types.NodeAlive {
			out = append(out, n)
		}
	}
	return out
}

// GetAllNodes returns every known node regardless of state.
func (m *Manager) GetAllNodes() []*types.NodeInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.NodeInfo, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	return out
}
