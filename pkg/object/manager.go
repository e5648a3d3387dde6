// Package object implements the object-location manager (§4.7): a
// location index for large shared objects. Grounded on the node manager's
// CRUD shape, reused for simpler add/remove-location set membership with
// no state machine. Locations are soft state: a missing entry is a miss,
// not an error, and is expected to be rebuilt by periodic
// re-announcement from remote workers rather than reconstructed here.
package object

import (
	"sync"
	"time"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/gcserr"
	"github.com/cuemby/gcsd/pkg/log"
	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/types"
)

// Manager owns the ObjectLocation table.
type Manager struct {
	mu        sync.RWMutex
	store     store.Store
	bus       eventbus.Bus
	locations map[string]*types.ObjectLocation
}

// New constructs an object-location manager. Call Load to replay
// persisted locations before accepting RPCs.
func New(s store.Store, bus eventbus.Bus) *Manager {
	return &Manager{store: s, bus: bus, locations: make(map[string]*types.ObjectLocation)}
}

// Load replays a snapshot taken by the init loader into memory.
func (m *Manager) Load(locations []*types.ObjectLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range locations {
		m.locations[o.ObjectID] = o
	}
}

// AddLocation records that nodeID now holds a copy of objectID, creating
// the entry if this is the first known copy.
func (m *Manager) AddLocation(objectID, nodeID string) error {
	m.mu.Lock()
	o, ok := m.locations[objectID]
	if !ok {
		o = &types.ObjectLocation{ObjectID: objectID, NodeIDs: make(map[string]bool)}
		m.locations[objectID] = o
	}
	o.NodeIDs[nodeID] = true
	o.UpdatedAt = time.Now()
	err := m.store.PutObjectLocation(o)
	m.mu.Unlock()
	if err != nil {
		return gcserr.TransientStore("object.AddLocation", err)
	}
	m.bus.Publish(eventbus.TopicObjectLocationUpdated, o)
	return nil
}

// RemoveLocation drops nodeID from objectID's location set. Removing a
// location that does not exist is a no-op, not an error: locations are
// soft state.
func (m *Manager) RemoveLocation(objectID, nodeID string) error {
	m.mu.Lock()
	o, ok := m.locations[objectID]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	if !o.NodeIDs[nodeID] {
		m.mu.Unlock()
		return nil
	}
	delete(o.NodeIDs, nodeID)
	o.UpdatedAt = time.Now()

	var err error
	if len(o.NodeIDs) == 0 {
		delete(m.locations, objectID)
		err = m.store.DeleteObjectLocation(objectID)
	} else {
		err = m.store.PutObjectLocation(o)
	}
	m.mu.Unlock()
	if err != nil {
		return gcserr.TransientStore("object.RemoveLocation", err)
	}
	m.bus.Publish(eventbus.TopicObjectLocationUpdated, o)
	return nil
}

// GetLocations returns the current copy-holding node set for an object. A
// miss returns an empty, non-nil location rather than an error.
func (m *Manager) GetLocations(objectID string) *types.ObjectLocation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.locations[objectID]
	if !ok {
		return &types.ObjectLocation{ObjectID: objectID, NodeIDs: map[string]bool{}}
	}
	return o
}

// Count returns the number of objects with at least one known location,
// used by the periodic debug-dump loop.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.locations)
}

// OnNodeDead drops nodeID from every object's location set, since copies
// held only on a dead node are no longer reachable.
func (m *Manager) OnNodeDead(nodeID string) {
	m.mu.RLock()
	objectIDs := make([]string, 0, len(m.locations))
	for id, o := range m.locations {
		if o.NodeIDs[nodeID] {
			objectIDs = append(objectIDs, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range objectIDs {
		if err := m.RemoveLocation(id, nodeID); err != nil {
			objLog := log.WithComponent("object.manager")
			objLog.Error().Err(err).Msg("drop location on node death failed")
		}
	}
}
