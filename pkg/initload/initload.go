// Package initload sequences the one-shot read of every persisted table at
// boot into each manager's in-memory state, before the event-listener
// fan-out is installed and before the RPC server starts accepting
// traffic (§4.1). It plays the role the teacher's Raft
// Snapshot/Restore pair plays in pkg/manager/fsm.go, generalized from a
// single FSM restore into a table-by-table replay over the Store
// interface.
package initload

import (
	"fmt"

	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/types"
)

// NodeLoader is satisfied by pkg/node.Manager.
type NodeLoader interface {
	Load(nodes []*types.NodeInfo)
}

// JobLoader is satisfied by pkg/job.Manager.
type JobLoader interface {
	Load(jobs []*types.JobInfo)
}

// PlacementGroupLoader is satisfied by pkg/placementgroup.Manager.
type PlacementGroupLoader interface {
	Load(groups []*types.PlacementGroup)
}

// ActorLoader is satisfied by pkg/actor.Manager.
type ActorLoader interface {
	Load(actors []*types.Actor)
}

// WorkerLoader is satisfied by pkg/worker.Manager.
type WorkerLoader interface {
	Load(workers []*types.Worker)
}

// ObjectLoader is satisfied by pkg/object.Manager.
type ObjectLoader interface {
	Load(locations []*types.ObjectLocation)
}

// Targets bundles every manager that needs a replay, so the caller can
// build them all first and hand the whole set to Run in one call.
type Targets struct {
	Nodes           NodeLoader
	Jobs            JobLoader
	PlacementGroups PlacementGroupLoader
	Actors          ActorLoader
	Workers         WorkerLoader
	Objects         ObjectLoader
}

// Run reads every table out of s and replays each into its matching
// manager. It must run strictly before InstallEventListeners and before
// the RPC server starts (§4.1): managers populated this way do not
// publish events for the rows they load, since nothing is subscribed yet.
func Run(s store.Store, t Targets) error {
	snap, err := store.Load(s)
	if err != nil {
		return fmt.Errorf("initload: read snapshot: %w", err)
	}

	t.Nodes.Load(snap.Nodes)
	t.Jobs.Load(snap.Jobs)
	t.PlacementGroups.Load(snap.PlacementGroups)
	t.Actors.Load(snap.Actors)
	t.Workers.Load(snap.Workers)
	t.Objects.Load(snap.ObjectLocations)
	return nil
}
