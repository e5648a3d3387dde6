// Package store defines the backing-store adapter (§2, §6): opaque
// append/update/scan over typed logical tables, plus the reserved
// InternalKV namespace used for the GcsServerAddress key and runtime-env
// URI bookkeeping. Two adapters implement Store: BoltStore (embedded,
// file-backed) and EtcdStore (external cluster, also supplies native
// pub/sub for pkg/eventbus).
package store

import (
	"errors"

	"github.com/cuemby/gcsd/pkg/types"
)

// ErrNotFound is returned by Get-style lookups when the key does not exist.
var ErrNotFound = errors.New("store: not found")

// ReservedGCSAddressKey is the well-known InternalKV key holding the active
// GCS server's "<ip>:<port>" (§6).
const ReservedGCSAddressKey = "GcsServerAddress"

// Store is the opaque table adapter every manager persists through. Writes
// are upserts: Put replaces any existing record for the same id.
type Store interface {
	PutNode(n *types.NodeInfo) error
	GetNode(nodeID string) (*types.NodeInfo, error)
	ListNodes() ([]*types.NodeInfo, error)
	DeleteNode(nodeID string) error

	PutJob(j *types.JobInfo) error
	GetJob(jobID string) (*types.JobInfo, error)
	ListJobs() ([]*types.JobInfo, error)

	PutActor(a *types.Actor) error
	GetActor(actorID string) (*types.Actor, error)
	ListActors() ([]*types.Actor, error)
	DeleteActor(actorID string) error

	PutPlacementGroup(pg *types.PlacementGroup) error
	GetPlacementGroup(id string) (*types.PlacementGroup, error)
	ListPlacementGroups() ([]*types.PlacementGroup, error)
	DeletePlacementGroup(id string) error

	PutWorker(w *types.Worker) error
	GetWorker(workerID string) (*types.Worker, error)
	ListWorkers() ([]*types.Worker, error)

	PutObjectLocation(o *types.ObjectLocation) error
	GetObjectLocation(objectID string) (*types.ObjectLocation, error)
	ListObjectLocations() ([]*types.ObjectLocation, error)
	DeleteObjectLocation(objectID string) error

	// KVPut/KVGet/KVDel/KVList implement the InternalKV service (§6):
	// arbitrary namespaced key/value pairs, including the reserved
	// GcsServerAddress key and runtime-env URI reference counts.
	KVPut(namespace, key string, value []byte) error
	KVGet(namespace, key string) ([]byte, error)
	KVDel(namespace, key string) error
	KVList(namespace string) (map[string][]byte, error)

	Close() error
}

// Snapshot is everything the init loader reads at startup (§4.1, §3
// persistence contract: "on crash recovery, the init loader replays the
// store into the managers before any RPC is accepted").
type Snapshot struct {
	Nodes           []*types.NodeInfo
	Jobs            []*types.JobInfo
	Actors          []*types.Actor
	PlacementGroups []*types.PlacementGroup
	Workers         []*types.Worker
	ObjectLocations []*types.ObjectLocation
}

// Load reads every table into a single Snapshot.
func Load(s Store) (*Snapshot, error) {
	nodes, err := s.ListNodes()
	if err != nil {
		return nil, err
	}
	jobs, err := s.ListJobs()
	if err != nil {
		return nil, err
	}
	actors, err := s.ListActors()
	if err != nil {
		return nil, err
	}
	pgs, err := s.ListPlacementGroups()
	if err != nil {
		return nil, err
	}
	workers, err := s.ListWorkers()
	if err != nil {
		return nil, err
	}
	objs, err := s.ListObjectLocations()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Nodes:           nodes,
		Jobs:            jobs,
		Actors:          actors,
		PlacementGroups: pgs,
		Workers:         workers,
		ObjectLocations: objs,
	}, nil
}
