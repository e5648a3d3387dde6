// Package resource implements the resource manager and scheduler (§4.4).
// The manager holds a mutable per-node ResourceView fed by either pull
// polling or push broadcast (mutually exclusive, configured at boot). The
// scheduler is a pure function over a manager snapshot: it never mutates
// state and never commits a binding, matching the "scheduling never blocks
// and never takes ownership of a decision" rule.
package resource

import (
	"sort"
	"sync"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/types"
)

// Manager holds the live ResourceView for every alive node.
type Manager struct {
	mu   sync.RWMutex
	bus  eventbus.Bus
	view map[string]*types.ResourceView
}

// New constructs an empty resource manager.
func New(bus eventbus.Bus) *Manager {
	return &Manager{bus: bus, view: make(map[string]*types.ResourceView)}
}

// OnNodeAdd seeds a fresh ResourceView from the node's advertised
// resources, wired directly to the node-added listener edge (§8
// InstallEventListeners).
func (m *Manager) OnNodeAdd(n *types.NodeInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view[n.NodeID] = &types.ResourceView{
		NodeID:    n.NodeID,
		Total:     n.AdvertisedResources.Clone(),
		Available: n.AdvertisedResources.Clone(),
	}
}

// OnNodeDead discards the view for a node that just left the alive set.
func (m *Manager) OnNodeDead(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.view, nodeID)
}

// ReportResources applies a resource-report delta for nodeID, whether it
// arrived via poll or via broadcast.
func (m *Manager) ReportResources(view *types.ResourceView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view[view.NodeID] = view
	m.bus.Publish(eventbus.TopicResourceChanged, view)
}

// Reserve subtracts demand from a node's available resources when a
// scheduling decision commits. Returns false without mutating state if the
// node no longer fits demand (a race between scoring and commit).
func (m *Manager) Reserve(nodeID string, demand types.Resources) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.view[nodeID]
	if !ok || !v.Available.Fits(demand) {
		return false
	}
	v.Available = v.Available.Sub(demand)
	return true
}

// Release adds demand back to a node's available resources, called on
// actor/bundle release or node death cleanup.
func (m *Manager) Release(nodeID string, demand types.Resources) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.view[nodeID]
	if !ok {
		return
	}
	v.Available = v.Available.Add(demand)
}

// Snapshot returns a defensive copy of every live ResourceView, sorted by
// NodeID so scheduler tie-breaks are deterministic.
func (m *Manager) Snapshot() []*types.ResourceView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.ResourceView, 0, len(m.view))
	for _, v := range m.view {
		cp := *v
		cp.Available = v.Available.Clone()
		cp.Total = v.Total.Clone()
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// Get returns the current view for a single node.
func (m *Manager) Get(nodeID string) (*types.ResourceView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.view[nodeID]
	return v, ok
}
