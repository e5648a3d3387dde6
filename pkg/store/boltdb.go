package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cuemby/gcsd/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketNodes           = []byte("nodes")
	bucketJobs            = []byte("jobs")
	bucketActors          = []byte("actors")
	bucketPlacementGroups = []byte("placement_groups")
	bucketWorkers         = []byte("workers")
	bucketObjectLocations = []byte("object_locations")
	bucketKV              = []byte("kv")
)

var boltBuckets = [][]byte{
	bucketNodes,
	bucketJobs,
	bucketActors,
	bucketPlacementGroups,
	bucketWorkers,
	bucketObjectLocations,
	bucketKV,
}

// BoltStore implements Store on top of an embedded bbolt file, one bucket
// per logical table plus a flat namespaced KV bucket (keys of the form
// "namespace/key") for InternalKV.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if necessary) a gcsd.db file under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "gcsd.db")

	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range boltBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) PutNode(n *types.NodeInfo) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketNodes).Put([]byte(n.NodeID), data)
	})
}

func (s *BoltStore) GetNode(nodeID string) (*types.NodeInfo, error) {
	var n types.NodeInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketNodes).Get([]byte(nodeID))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &n)
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *BoltStore) ListNodes() ([]*types.NodeInfo, error) {
	var out []*types.NodeInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNodes).ForEach(func(k, v []byte) error {
			var n types.NodeInfo
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			out = append(out, &n)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) DeleteNode(nodeID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNodes).Delete([]byte(nodeID))
	})
}

func (s *BoltStore) PutJob(j *types.JobInfo) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(j)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketJobs).Put([]byte(j.JobID), data)
	})
}

func (s *BoltStore) GetJob(jobID string) (*types.JobInfo, error) {
	var j types.JobInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketJobs).Get([]byte(jobID))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &j)
	})
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *BoltStore) ListJobs() ([]*types.JobInfo, error) {
	var out []*types.JobInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).ForEach(func(k, v []byte) error {
			var j types.JobInfo
			if err := json.Unmarshal(v, &j); err != nil {
				return err
			}
			out = append(out, &j)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) PutActor(a *types.Actor) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketActors).Put([]byte(a.ActorID), data)
	})
}

func (s *BoltStore) GetActor(actorID string) (*types.Actor, error) {
	var a types.Actor
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketActors).Get([]byte(actorID))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *BoltStore) ListActors() ([]*types.Actor, error) {
	var out []*types.Actor
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketActors).ForEach(func(k, v []byte) error {
			var a types.Actor
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			out = append(out, &a)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) DeleteActor(actorID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketActors).Delete([]byte(actorID))
	})
}

func (s *BoltStore) PutPlacementGroup(pg *types.PlacementGroup) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(pg)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketPlacementGroups).Put([]byte(pg.PlacementGroupID), data)
	})
}

func (s *BoltStore) GetPlacementGroup(id string) (*types.PlacementGroup, error) {
	var pg types.PlacementGroup
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPlacementGroups).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &pg)
	})
	if err != nil {
		return nil, err
	}
	return &pg, nil
}

func (s *BoltStore) ListPlacementGroups() ([]*types.PlacementGroup, error) {
	var out []*types.PlacementGroup
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPlacementGroups).ForEach(func(k, v []byte) error {
			var pg types.PlacementGroup
			if err := json.Unmarshal(v, &pg); err != nil {
				return err
			}
			out = append(out, &pg)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) DeletePlacementGroup(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPlacementGroups).Delete([]byte(id))
	})
}

func (s *BoltStore) PutWorker(w *types.Worker) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(w)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketWorkers).Put([]byte(w.WorkerID), data)
	})
}

func (s *BoltStore) GetWorker(workerID string) (*types.Worker, error) {
	var w types.Worker
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketWorkers).Get([]byte(workerID))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &w)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *BoltStore) ListWorkers() ([]*types.Worker, error) {
	var out []*types.Worker
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWorkers).ForEach(func(k, v []byte) error {
			var w types.Worker
			if err := json.Unmarshal(v, &w); err != nil {
				return err
			}
			out = append(out, &w)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) PutObjectLocation(o *types.ObjectLocation) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(o)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketObjectLocations).Put([]byte(o.ObjectID), data)
	})
}

func (s *BoltStore) GetObjectLocation(objectID string) (*types.ObjectLocation, error) {
	var o types.ObjectLocation
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketObjectLocations).Get([]byte(objectID))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &o)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *BoltStore) ListObjectLocations() ([]*types.ObjectLocation, error) {
	var out []*types.ObjectLocation
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketObjectLocations).ForEach(func(k, v []byte) error {
			var o types.ObjectLocation
			if err := json.Unmarshal(v, &o); err != nil {
				return err
			}
			out = append(out, &o)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) DeleteObjectLocation(objectID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketObjectLocations).Delete([]byte(objectID))
	})
}

func kvKey(namespace, key string) []byte {
	return []byte(namespace + "/" + key)
}

func (s *BoltStore) KVPut(namespace, key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketKV).Put(kvKey(namespace, key), value)
	})
}

func (s *BoltStore) KVGet(namespace, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketKV).Get(kvKey(namespace, key))
		if v == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltStore) KVDel(namespace, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketKV).Delete(kvKey(namespace, key))
	})
}

func (s *BoltStore) KVList(namespace string) (map[string][]byte, error) {
	prefix := []byte(namespace + "/")
	out := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketKV).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			out[string(k[len(prefix):])] = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
