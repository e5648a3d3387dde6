// Package storetest provides an in-memory Store fake for manager unit tests
// that don't need real bbolt/etcd durability.
package storetest

import (
	"sync"

	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/types"
)

// MemStore is a plain map-backed store.Store implementation.
type MemStore struct {
	mu              sync.RWMutex
	nodes           map[string]*types.NodeInfo
	jobs            map[string]*types.JobInfo
	actors          map[string]*types.Actor
	placementGroups map[string]*types.PlacementGroup
	workers         map[string]*types.Worker
	objects         map[string]*types.ObjectLocation
	kv              map[string][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes:           make(map[string]*types.NodeInfo),
		jobs:            make(map[string]*types.JobInfo),
		actors:          make(map[string]*types.Actor),
		placementGroups: make(map[string]*types.PlacementGroup),
		workers:         make(map[string]*types.Worker),
		objects:         make(map[string]*types.ObjectLocation),
		kv:              make(map[string][]byte),
	}
}

func clone[T any](v T) T { return v }

func (m *MemStore) PutNode(n *types.NodeInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.nodes[n.NodeID] = &cp
	return nil
}

func (m *MemStore) GetNode(id string) (*types.NodeInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *MemStore) ListNodes() ([]*types.NodeInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.NodeInfo, 0, len(m.nodes))
	for _, n := range m.nodes {
		cp := *n
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) DeleteNode(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, id)
	return nil
}

func (m *MemStore) PutJob(j *types.JobInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.jobs[j.JobID] = &cp
	return nil
}

func (m *MemStore) GetJob(id string) (*types.JobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *MemStore) ListJobs() ([]*types.JobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.JobInfo, 0, len(m.jobs))
	for _, j := range m.jobs {
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) PutActor(a *types.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.actors[a.ActorID] = &cp
	return nil
}

func (m *MemStore) GetActor(id string) (*types.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemStore) ListActors() ([]*types.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Actor, 0, len(m.actors))
	for _, a := range m.actors {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) DeleteActor(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.actors, id)
	return nil
}

func (m *MemStore) PutPlacementGroup(pg *types.PlacementGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pg
	m.placementGroups[pg.PlacementGroupID] = &cp
	return nil
}

func (m *MemStore) GetPlacementGroup(id string) (*types.PlacementGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pg, ok := m.placementGroups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *pg
	return &cp, nil
}

func (m *MemStore) ListPlacementGroups() ([]*types.PlacementGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.PlacementGroup, 0, len(m.placementGroups))
	for _, pg := range m.placementGroups {
		cp := *pg
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) DeletePlacementGroup(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.placementGroups, id)
	return nil
}

func (m *MemStore) PutWorker(w *types.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.workers[w.WorkerID] = &cp
	return nil
}

func (m *MemStore) GetWorker(id string) (*types.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *MemStore) ListWorkers() ([]*types.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Worker, 0, len(m.workers))
	for _, w := range m.workers {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) PutObjectLocation(o *types.ObjectLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.objects[o.ObjectID] = &cp
	return nil
}

func (m *MemStore) GetObjectLocation(id string) (*types.ObjectLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MemStore) ListObjectLocations() ([]*types.ObjectLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.ObjectLocation, 0, len(m.objects))
	for _, o := range m.objects {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) DeleteObjectLocation(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, id)
	return nil
}

func (m *MemStore) KVPut(namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[namespace+"/"+key] = clone(value)
	return nil
}

func (m *MemStore) KVGet(namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[namespace+"/"+key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (m *MemStore) KVDel(namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, namespace+"/"+key)
	return nil
}

func (m *MemStore) KVList(namespace string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := namespace + "/"
	out := make(map[string][]byte)
	for k, v := range m.kv {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out[k[len(prefix):]] = v
		}
	}
	return out, nil
}

func (m *MemStore) Close() error { return nil }

var _ store.Store = (*MemStore)(nil)
