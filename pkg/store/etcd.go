package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cuemby/gcsd/pkg/types"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Key prefixes for the logical tables, mirroring the InternalKV layout
// described in §6: one namespace per entity class, binary/string ids as
// keys, opaque JSON as values.
const (
	prefixNodes           = "/gcsd/nodes/"
	prefixJobs            = "/gcsd/jobs/"
	prefixActors          = "/gcsd/actors/"
	prefixPlacementGroups = "/gcsd/placement_groups/"
	prefixWorkers         = "/gcsd/workers/"
	prefixObjectLocations = "/gcsd/objects/"
	prefixKV              = "/gcsd/kv/"
)

// EtcdStore implements Store against an external etcd cluster instead of
// the embedded bbolt file, trading local durability for a store that can
// also drive pkg/eventbus's native-pubsub mode via Watch.
type EtcdStore struct {
	client *clientv3.Client
	ctx    context.Context
}

// NewEtcdStore dials endpoints and returns a ready EtcdStore.
func NewEtcdStore(endpoints []string) (*EtcdStore, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdStore{client: cli, ctx: context.Background()}, nil
}

// Client exposes the underlying etcd client so pkg/eventbus can Watch the
// same key space without a second connection.
func (e *EtcdStore) Client() *clientv3.Client { return e.client }

func (e *EtcdStore) Close() error { return e.client.Close() }

func (e *EtcdStore) putValue(key string, val interface{}) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	_, err = e.client.Put(e.ctx, key, string(data))
	return err
}

func (e *EtcdStore) getValue(key string, out interface{}) error {
	resp, err := e.client.Get(e.ctx, key)
	if err != nil {
		return err
	}
	if len(resp.Kvs) == 0 {
		return ErrNotFound
	}
	return json.Unmarshal(resp.Kvs[0].Value, out)
}

func (e *EtcdStore) deleteValue(key string) error {
	_, err := e.client.Delete(e.ctx, key)
	return err
}

func listPrefix[T any](e *EtcdStore, prefix string) ([]*T, error) {
	resp, err := e.client.Get(e.ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var v T
		if err := json.Unmarshal(kv.Value, &v); err != nil {
			continue
		}
		out = append(out, &v)
	}
	return out, nil
}

func (e *EtcdStore) PutNode(n *types.NodeInfo) error { return e.putValue(prefixNodes+n.NodeID, n) }
func (e *EtcdStore) GetNode(id string) (*types.NodeInfo, error) {
	var n types.NodeInfo
	if err := e.getValue(prefixNodes+id, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
func (e *EtcdStore) ListNodes() ([]*types.NodeInfo, error) { return listPrefix[types.NodeInfo](e, prefixNodes) }
func (e *EtcdStore) DeleteNode(id string) error            { return e.deleteValue(prefixNodes + id) }

func (e *EtcdStore) PutJob(j *types.JobInfo) error { return e.putValue(prefixJobs+j.JobID, j) }
func (e *EtcdStore) GetJob(id string) (*types.JobInfo, error) {
	var j types.JobInfo
	if err := e.getValue(prefixJobs+id, &j); err != nil {
		return nil, err
	}
	return &j, nil
}
func (e *EtcdStore) ListJobs() ([]*types.JobInfo, error) { return listPrefix[types.JobInfo](e, prefixJobs) }

func (e *EtcdStore) PutActor(a *types.Actor) error { return e.putValue(prefixActors+a.ActorID, a) }
func (e *EtcdStore) GetActor(id string) (*types.Actor, error) {
	var a types.Actor
	if err := e.getValue(prefixActors+id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
func (e *EtcdStore) ListActors() ([]*types.Actor, error) { return listPrefix[types.Actor](e, prefixActors) }
func (e *EtcdStore) DeleteActor(id string) error         { return e.deleteValue(prefixActors + id) }

func (e *EtcdStore) PutPlacementGroup(pg *types.PlacementGroup) error {
	return e.putValue(prefixPlacementGroups+pg.PlacementGroupID, pg)
}
func (e *EtcdStore) GetPlacementGroup(id string) (*types.PlacementGroup, error) {
	var pg types.PlacementGroup
	if err := e.getValue(prefixPlacementGroups+id, &pg); err != nil {
		return nil, err
	}
	return &pg, nil
}
func (e *EtcdStore) ListPlacementGroups() ([]*types.PlacementGroup, error) {
	return listPrefix[types.PlacementGroup](e, prefixPlacementGroups)
}
func (e *EtcdStore) DeletePlacementGroup(id string) error {
	return e.deleteValue(prefixPlacementGroups + id)
}

func (e *EtcdStore) PutWorker(w *types.Worker) error {
	return e.putValue(prefixWorkers+w.WorkerID, w)
}
func (e *EtcdStore) GetWorker(id string) (*types.Worker, error) {
	var w types.Worker
	if err := e.getValue(prefixWorkers+id, &w); err != nil {
		return nil, err
	}
	return &w, nil
}
func (e *EtcdStore) ListWorkers() ([]*types.Worker, error) {
	return listPrefix[types.Worker](e, prefixWorkers)
}

func (e *EtcdStore) PutObjectLocation(o *types.ObjectLocation) error {
	return e.putValue(prefixObjectLocations+o.ObjectID, o)
}
func (e *EtcdStore) GetObjectLocation(id string) (*types.ObjectLocation, error) {
	var o types.ObjectLocation
	if err := e.getValue(prefixObjectLocations+id, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
func (e *EtcdStore) ListObjectLocations() ([]*types.ObjectLocation, error) {
	return listPrefix[types.ObjectLocation](e, prefixObjectLocations)
}
func (e *EtcdStore) DeleteObjectLocation(id string) error {
	return e.deleteValue(prefixObjectLocations + id)
}

func (e *EtcdStore) KVPut(namespace, key string, value []byte) error {
	_, err := e.client.Put(e.ctx, prefixKV+namespace+"/"+key, string(value))
	return err
}

func (e *EtcdStore) KVGet(namespace, key string) ([]byte, error) {
	resp, err := e.client.Get(e.ctx, prefixKV+namespace+"/"+key)
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, ErrNotFound
	}
	return resp.Kvs[0].Value, nil
}

func (e *EtcdStore) KVDel(namespace, key string) error {
	return e.deleteValue(prefixKV + namespace + "/" + key)
}

func (e *EtcdStore) KVList(namespace string) (map[string][]byte, error) {
	resp, err := e.client.Get(e.ctx, prefixKV+namespace+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	prefix := prefixKV + namespace + "/"
	out := make(map[string][]byte, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		out[string(kv.Key)[len(prefix):]] = kv.Value
	}
	return out, nil
}
