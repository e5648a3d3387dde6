// Package listeners installs the cross-component event reactions every
// manager above reacts to: a node joining re-seeds resources and drains
// pending queues, a node dying tears down its dependents, a worker dying
// feeds the actor manager's restart policy, and a job finishing tears
// down its non-detached actors and owned placement groups. This is the
// Go-native restatement of gcs_server.cc's InstallEventListeners,
// reproduced edge for edge (§4.8, §8). No direct teacher analog: Warren
// has no comparable fan-out table, so the installer itself is new code
// over the already-adapted managers.
package listeners

import (
	"strings"

	"github.com/cuemby/gcsd/pkg/actor"
	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/heartbeat"
	"github.com/cuemby/gcsd/pkg/log"
	"github.com/cuemby/gcsd/pkg/placementgroup"
	"github.com/cuemby/gcsd/pkg/resource"
	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/types"
)

// runtimeEnvURIScheme is the only scheme the cleaner trigger forwards to
// KV; any other scheme belongs to some other system and is acknowledged
// as a no-op.
const runtimeEnvURIScheme = "gcs://"

// runtimeEnvKVNamespace is the InternalKV namespace holding runtime-env
// URI reference counts, per the reserved-key store layout (§6).
const runtimeEnvKVNamespace = "runtime_env_refs"

// ResourceReporter is satisfied by either *resource.Poller or
// *resource.Broadcaster, whichever boot picked (§4.4, §9): both expose the
// same node-added/node-removed bookkeeping hooks.
type ResourceReporter interface {
	HandleNodeAdded(nodeID string)
	HandleNodeRemoved(nodeID string)
}

// Managers bundles every component the installer wires together. All
// fields are required except ResourceReport and Store: with a nil
// ResourceReport the reporting hooks are skipped, and with a nil Store the
// runtime-env URI cleanup is skipped.
type Managers struct {
	Bus             eventbus.Bus
	Store           store.Store
	Resources       *resource.Manager
	Heartbeat       *heartbeat.Manager
	PlacementGroups *placementgroup.Manager
	Actors          *actor.Manager
	ResourceReport  ResourceReporter
}

// Install subscribes a single dispatcher goroutine to the bus and fans out
// every event to its wired listeners in registration order, synchronously
// on the main loop, per §4.8's "every listener must be total" rule: a
// panicking handler here is a bootstrap bug, not a runtime condition to
// recover from.
func Install(m Managers) {
	sub := m.Bus.Subscribe()
	go func() {
		for event := range sub {
			dispatch(m, event)
		}
	}()
}

func dispatch(m Managers, event *eventbus.Event) {
	switch event.Topic {
	case eventbus.TopicNodeAdded:
		n := event.Payload.(*types.NodeInfo)
		m.Resources.OnNodeAdd(n)
		m.PlacementGroups.SchedulePendingPlacementGroups()
		m.Actors.SchedulePendingActors()
		m.Heartbeat.AddNode(n.NodeID)
		if m.ResourceReport != nil {
			m.ResourceReport.HandleNodeAdded(n.NodeID)
		}

	case eventbus.TopicNodeRemoved:
		n := event.Payload.(*types.NodeInfo)
		m.Resources.OnNodeDead(n.NodeID)
		m.PlacementGroups.OnNodeDead(n.NodeID)
		m.Actors.OnNodeDead(n.NodeID)
		m.Heartbeat.RemoveNode(n.NodeID)
		// raylet client pool disconnect has no analog here: this core
		// has no outbound client-pool concept of its own (see DESIGN.md).
		if m.ResourceReport != nil {
			m.ResourceReport.HandleNodeRemoved(n.NodeID)
		}

	case eventbus.TopicWorkerDead:
		w := event.Payload.(*types.Worker)
		m.Actors.OnWorkerDead(w.WorkerID, w.ExitType)

	case eventbus.TopicJobFinished:
		j := event.Payload.(*types.JobInfo)
		m.Actors.OnJobFinished(j.JobID)
		m.PlacementGroups.CleanPlacementGroupIfNeededWhenJobDead(j.JobID)
		cleanRuntimeEnvURI(m.Store, j.RuntimeEnvURI)

	case eventbus.TopicActorRemoved:
		a := event.Payload.(*types.Actor)
		cleanRuntimeEnvURI(m.Store, a.RuntimeEnvURI)

	case eventbus.TopicActorUpdated:
		a := event.Payload.(*types.Actor)
		if a.State == types.ActorDead {
			m.PlacementGroups.CleanPlacementGroupIfNeededWhenActorDead(a.ActorID)
		}
	}
}

// cleanRuntimeEnvURI is the runtime-env URI cleaner's trigger half: it
// decides whether a removed actor/job's runtime-env reference is ours to
// release. Only the gcs:// scheme is; the cleaner itself (decrementing
// the ref count and deleting the packaged env once it hits zero) is
// external, so this only forwards the delete to the reserved KV
// namespace that tracks it.
func cleanRuntimeEnvURI(s store.Store, uri string) {
	if s == nil || uri == "" || !strings.HasPrefix(uri, runtimeEnvURIScheme) {
		return
	}
	if err := s.KVDel(runtimeEnvKVNamespace, uri); err != nil {
		listenersLog := log.WithComponent("listeners")
		listenersLog.Warn().Str("uri", uri).Err(err).Msg("runtime-env URI cleanup failed")
	}
}
