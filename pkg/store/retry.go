package store

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cuemby/gcsd/pkg/types"
)

// retryingStore wraps a Store so a momentary bbolt lock contention or etcd
// leader election surfaces as a transient retry instead of a hard failure
// (§7: "TransientStoreError (retried with backoff by the adapter)").
// ErrNotFound is never retried; it is a permanent, expected outcome.
type retryingStore struct {
	inner Store
	max   uint64
}

// NewRetrying wraps s with exponential-backoff retries around every call.
// maxRetries bounds the attempt count; the adapter still returns the last
// error (wrapped by gcserr.TransientStore at the manager layer) if every
// attempt fails.
func NewRetrying(s Store, maxRetries uint64) Store {
	return &retryingStore{inner: s, max: maxRetries}
}

func (r *retryingStore) retry(op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 1 * time.Second
	b.MaxElapsedTime = 0
	return backoff.Retry(func() error {
		err := op()
		if err != nil && errors.Is(err, ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithMaxRetries(b, r.max))
}

func (r *retryingStore) PutNode(n *types.NodeInfo) error {
	return r.retry(func() error { return r.inner.PutNode(n) })
}

func (r *retryingStore) GetNode(nodeID string) (*types.NodeInfo, error) {
	var out *types.NodeInfo
	err := r.retry(func() error {
		n, err := r.inner.GetNode(nodeID)
		out = n
		return err
	})
	return out, err
}

func (r *retryingStore) ListNodes() ([]*types.NodeInfo, error) {
	var out []*types.NodeInfo
	err := r.retry(func() error {
		n, err := r.inner.ListNodes()
		out = n
		return err
	})
	return out, err
}

func (r *retryingStore) DeleteNode(nodeID string) error {
	return r.retry(func() error { return r.inner.DeleteNode(nodeID) })
}

func (r *retryingStore) PutJob(j *types.JobInfo) error {
	return r.retry(func() error { return r.inner.PutJob(j) })
}

func (r *retryingStore) GetJob(jobID string) (*types.JobInfo, error) {
	var out *types.JobInfo
	err := r.retry(func() error {
		j, err := r.inner.GetJob(jobID)
		out = j
		return err
	})
	return out, err
}

func (r *retryingStore) ListJobs() ([]*types.JobInfo, error) {
	var out []*types.JobInfo
	err := r.retry(func() error {
		j, err := r.inner.ListJobs()
		out = j
		return err
	})
	return out, err
}

func (r *retryingStore) PutActor(a *types.Actor) error {
	return r.retry(func() error { return r.inner.PutActor(a) })
}

func (r *retryingStore) GetActor(actorID string) (*types.Actor, error) {
	var out *types.Actor
	err := r.retry(func() error {
		a, err := r.inner.GetActor(actorID)
		out = a
		return err
	})
	return out, err
}

func (r *retryingStore) ListActors() ([]*types.Actor, error) {
	var out []*types.Actor
	err := r.retry(func() error {
		a, err := r.inner.ListActors()
		out = a
		return err
	})
	return out, err
}

func (r *retryingStore) DeleteActor(actorID string) error {
	return r.retry(func() error { return r.inner.DeleteActor(actorID) })
}

func (r *retryingStore) PutPlacementGroup(pg *types.PlacementGroup) error {
	return r.retry(func() error { return r.inner.PutPlacementGroup(pg) })
}

func (r *retryingStore) GetPlacementGroup(id string) (*types.PlacementGroup, error) {
	var out *types.PlacementGroup
	err := r.retry(func() error {
		pg, err := r.inner.GetPlacementGroup(id)
		out = pg
		return err
	})
	return out, err
}

func (r *retryingStore) ListPlacementGroups() ([]*types.PlacementGroup, error) {
	var out []*types.PlacementGroup
	err := r.retry(func() error {
		pg, err := r.inner.ListPlacementGroups()
		out = pg
		return err
	})
	return out, err
}

func (r *retryingStore) DeletePlacementGroup(id string) error {
	return r.retry(func() error { return r.inner.DeletePlacementGroup(id) })
}

func (r *retryingStore) PutWorker(w *types.Worker) error {
	return r.retry(func() error { return r.inner.PutWorker(w) })
}

func (r *retryingStore) GetWorker(workerID string) (*types.Worker, error) {
	var out *types.Worker
	err := r.retry(func() error {
		w, err := r.inner.GetWorker(workerID)
		out = w
		return err
	})
	return out, err
}

func (r *retryingStore) ListWorkers() ([]*types.Worker, error) {
	var out []*types.Worker
	err := r.retry(func() error {
		w, err := r.inner.ListWorkers()
		out = w
		return err
	})
	return out, err
}

func (r *retryingStore) PutObjectLocation(o *types.ObjectLocation) error {
	return r.retry(func() error { return r.inner.PutObjectLocation(o) })
}

func (r *retryingStore) GetObjectLocation(objectID string) (*types.ObjectLocation, error) {
	var out *types.ObjectLocation
	err := r.retry(func() error {
		o, err := r.inner.GetObjectLocation(objectID)
		out = o
		return err
	})
	return out, err
}

func (r *retryingStore) ListObjectLocations() ([]*types.ObjectLocation, error) {
	var out []*types.ObjectLocation
	err := r.retry(func() error {
		o, err := r.inner.ListObjectLocations()
		out = o
		return err
	})
	return out, err
}

func (r *retryingStore) DeleteObjectLocation(objectID string) error {
	return r.retry(func() error { return r.inner.DeleteObjectLocation(objectID) })
}

func (r *retryingStore) KVPut(namespace, key string, value []byte) error {
	return r.retry(func() error { return r.inner.KVPut(namespace, key, value) })
}

func (r *retryingStore) KVGet(namespace, key string) ([]byte, error) {
	var out []byte
	err := r.retry(func() error {
		v, err := r.inner.KVGet(namespace, key)
		out = v
		return err
	})
	return out, err
}

func (r *retryingStore) KVDel(namespace, key string) error {
	return r.retry(func() error { return r.inner.KVDel(namespace, key) })
}

func (r *retryingStore) KVList(namespace string) (map[string][]byte, error) {
	var out map[string][]byte
	err := r.retry(func() error {
		m, err := r.inner.KVList(namespace)
		out = m
		return err
	})
	return out, err
}

// Close is not retried; a failure here means the process is shutting down
// anyway.
func (r *retryingStore) Close() error { return r.inner.Close() }
