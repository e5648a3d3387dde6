// Package actor implements the actor manager and scheduler (§4.6): actor
// lifecycle registration, placement, restart, and destruction. The
// pending-queue-plus-retry shape is grounded on
// yi-json-synapse/internal/scheduler/manager.go's FIFO pending queue and
// dead-node sweep; the restart/backoff timer shape is grounded on the
// teacher's pkg/worker/health_monitor.go per-entity cancel-function map
// over context.WithCancel.
package actor

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/gcserr"
	"github.com/cuemby/gcsd/pkg/log"
	"github.com/cuemby/gcsd/pkg/resource"
	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/google/uuid"
)

// WorkerTransport sends the create/destroy worker RPCs to a node's local
// manager. Implemented by pkg/rpc's node client pool; a fake is used in
// tests.
type WorkerTransport interface {
	CreateWorker(nodeID string, actor *types.Actor) (workerID string, err error)
	DestroyWorker(nodeID, workerID string, noRestart bool) error
}

// NamespaceResolver resolves a job's namespace, satisfied by
// pkg/job.Manager.
type NamespaceResolver interface {
	Namespace(jobID string) (string, bool)
}

// PlacementGroupBundleNode resolves the node a placement-group bundle is
// bound to, satisfied by pkg/placementgroup.Manager.
type PlacementGroupBundleNode interface {
	GetPlacementGroup(id string) (*types.PlacementGroup, bool)
}

// GCDelay is how long a DEAD actor's metadata survives before it is
// garbage-collected (§4.6: "a one-shot timer on the main loop; cancellation
// of that timer is explicit").
const GCDelay = 10 * time.Minute

// Manager owns the Actor table.
type Manager struct {
	mu        sync.Mutex
	store     store.Store
	bus       eventbus.Bus
	resources *resource.Manager
	jobs      NamespaceResolver
	pgs       PlacementGroupBundleNode
	transport WorkerTransport

	actors    map[string]*types.Actor
	byName    map[string]string // "namespace/name" -> actor_id, held until the actor is garbage-collected
	byWorker  map[string]string // worker_id -> actor_id
	byNode    map[string]map[string]bool
	pending   []string // actor_ids parked for a future NodeAdded retry, oldest first
	gcTimers  map[string]context.CancelFunc
}

// New constructs an actor manager. Call Load to replay persisted actors
// before accepting RPCs.
func New(s store.Store, bus eventbus.Bus, resources *resource.Manager, jobs NamespaceResolver, pgs PlacementGroupBundleNode, transport WorkerTransport) *Manager {
	return &Manager{
		store:     s,
		bus:       bus,
		resources: resources,
		jobs:      jobs,
		pgs:       pgs,
		transport: transport,
		actors:    make(map[string]*types.Actor),
		byName:    make(map[string]string),
		byWorker:  make(map[string]string),
		byNode:    make(map[string]map[string]bool),
		gcTimers:  make(map[string]context.CancelFunc),
	}
}

func nameKey(namespace, name string) string { return namespace + "/" + name }

// Load replays a snapshot taken by the init loader. Actors left in a
// non-terminal state are re-parked so SchedulePendingActors picks them up
// once listeners are installed.
func (m *Manager) Load(actors []*types.Actor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range actors {
		m.indexLocked(a)
		if a.State == types.ActorDependenciesUnready || a.State == types.ActorPendingCreation || a.State == types.ActorRestarting {
			m.pending = append(m.pending, a.ActorID)
		}
	}
}

func (m *Manager) indexLocked(a *types.Actor) {
	m.actors[a.ActorID] = a
	if a.Name != "" && a.State != types.ActorDead {
		m.byName[nameKey(a.Namespace, a.Name)] = a.ActorID
	}
	if a.WorkerID != "" {
		m.byWorker[a.WorkerID] = a.ActorID
	}
	if a.NodeID != "" {
		if m.byNode[a.NodeID] == nil {
			m.byNode[a.NodeID] = make(map[string]bool)
		}
		m.byNode[a.NodeID][a.ActorID] = true
	}
}

// Register persists a new actor in DEPENDENCIES_UNREADY (if depsReady is
// false) or PENDING_CREATION, enforcing name uniqueness scoped to
// (namespace, name) resolved through the job manager (§4.6).
func (m *Manager) Register(a *types.Actor, depsReady bool) (*types.Actor, error) {
	if a.ActorID != "" {
		// Re-registering under an id that was mid-GC-delay cancels that
		// timer explicitly (§5): the id is live again, it must not be
		// deleted out from under this call a moment later.
		m.CancelGC(a.ActorID)
	}
	if a.Namespace == "" {
		if ns, ok := m.jobs.Namespace(a.JobID); ok {
			a.Namespace = ns
		}
	}
	if a.ActorID == "" {
		a.ActorID = uuid.NewString()
	}
	if a.MaxRestarts == 0 && !a.Detached {
		a.MaxRestarts = 0
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	if depsReady {
		a.State = types.ActorPendingCreation
	} else {
		a.State = types.ActorDependenciesUnready
	}

	m.mu.Lock()
	if a.Name != "" {
		key := nameKey(a.Namespace, a.Name)
		if existing, ok := m.byName[key]; ok && existing != a.ActorID {
			m.mu.Unlock()
			return nil, gcserr.NameConflict(a.Namespace, a.Name)
		}
	}
	if err := m.store.PutActor(a); err != nil {
		m.mu.Unlock()
		return nil, gcserr.TransientStore("actor.Register", err)
	}
	m.indexLocked(a)
	m.mu.Unlock()

	m.bus.Publish(eventbus.TopicActorUpdated, a)

	if depsReady {
		m.tryPlace(a)
	}
	return a, nil
}

// MarkDependenciesReady transitions an actor out of DEPENDENCIES_UNREADY
// once its dependencies resolve, then attempts placement.
func (m *Manager) MarkDependenciesReady(actorID string) error {
	m.mu.Lock()
	a, ok := m.actors[actorID]
	if !ok {
		m.mu.Unlock()
		return gcserr.InvariantViolation("actor.MarkDependenciesReady: unknown actor " + actorID)
	}
	if a.State != types.ActorDependenciesUnready {
		m.mu.Unlock()
		return nil
	}
	a.State = types.ActorPendingCreation
	a.UpdatedAt = time.Now()
	err := m.store.PutActor(a)
	m.mu.Unlock()
	if err != nil {
		return gcserr.TransientStore("actor.MarkDependenciesReady", err)
	}
	m.bus.Publish(eventbus.TopicActorUpdated, a)
	m.tryPlace(a)
	return nil
}

// tryPlace chooses a node via the resource scheduler and sends a
// create-worker RPC. On success the actor becomes ALIVE; on failure it is
// parked for the next NodeAdded sweep (§4.6).
func (m *Manager) tryPlace(a *types.Actor) {
	node, ok := m.pickNode(a)
	if !ok {
		m.park(a.ActorID)
		return
	}

	if !m.resources.Reserve(node, a.Resources) {
		m.park(a.ActorID)
		return
	}

	workerID, err := m.transport.CreateWorker(node, a)
	if err != nil {
		actorLog := log.WithComponent("actor.manager")
		actorLog.Warn().Str("actor_id", a.ActorID).Str("node_id", node).
			Err(err).Msg("create worker failed")
		m.resources.Release(node, a.Resources)
		m.park(a.ActorID)
		return
	}

	m.mu.Lock()
	a.NodeID = node
	a.WorkerID = workerID
	a.State = types.ActorAlive
	a.UpdatedAt = time.Now()
	if m.byNode[node] == nil {
		m.byNode[node] = make(map[string]bool)
	}
	m.byNode[node][a.ActorID] = true
	m.byWorker[workerID] = a.ActorID
	perr := m.store.PutActor(a)
	m.mu.Unlock()
	if perr != nil {
		actorLog := log.WithComponent("actor.manager")
		actorLog.Error().Err(perr).Msg("persist alive actor failed")
		return
	}
	m.bus.Publish(eventbus.TopicActorUpdated, a)
}

// pickNode resolves the node to schedule onto: the placement-group
// bundle's bound node when the actor belongs to one, otherwise the
// highest-scoring feasible node from the resource scheduler.
func (m *Manager) pickNode(a *types.Actor) (string, bool) {
	if a.PlacementGroupID != "" {
		pg, ok := m.pgs.GetPlacementGroup(a.PlacementGroupID)
		if !ok {
			return "", false
		}
		node, ok := pg.BundleToNode[a.BundleIndex]
		return node, ok
	}
	cands := resource.Candidates(m.resources.Snapshot(), resource.Constraint{Demand: a.Resources})
	if len(cands) == 0 {
		return "", false
	}
	return cands[0], true
}

func (m *Manager) park(actorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.pending {
		if id == actorID {
			return
		}
	}
	m.pending = append(m.pending, actorID)
}

// SchedulePendingActors drains the pending queue, retrying every parked
// actor. Wired to NodeAdded by the event-listener installer (§4.6, §4.8).
func (m *Manager) SchedulePendingActors() {
	m.mu.Lock()
	queue := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, id := range queue {
		m.mu.Lock()
		a, ok := m.actors[id]
		m.mu.Unlock()
		if !ok || a.State == types.ActorAlive || a.State == types.ActorDead {
			continue
		}
		if a.State == types.ActorDependenciesUnready {
			m.park(id)
			continue
		}
		m.tryPlace(a)
	}
}

// GetActor returns an actor by id.
func (m *Manager) GetActor(actorID string) (*types.Actor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[actorID]
	return a, ok
}

// GetActorByName looks up an actor by its (namespace, name) key.
func (m *Manager) GetActorByName(namespace, name string) (*types.Actor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byName[nameKey(namespace, name)]
	if !ok {
		return nil, false
	}
	a := m.actors[id]
	return a, a != nil
}

// ListActors returns every known actor.
func (m *Manager) ListActors() []*types.Actor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Actor, 0, len(m.actors))
	for _, a := range m.actors {
		out = append(out, a)
	}
	return out
}

// Kill destroys an actor. With noRestart false it dies through the normal
// restart budget (§4.6), same as a lost worker; with noRestart true it is
// forced straight to DEAD, bypassing any restart budget remaining.
// Idempotent: killing an already-DEAD actor is a no-op (§8).
func (m *Manager) Kill(actorID string, noRestart bool) error {
	m.mu.Lock()
	a, ok := m.actors[actorID]
	if !ok {
		m.mu.Unlock()
		return gcserr.InvariantViolation("actor.Kill: unknown actor " + actorID)
	}
	if a.State == types.ActorDead {
		m.mu.Unlock()
		return nil
	}
	node, workerID := a.NodeID, a.WorkerID
	m.mu.Unlock()

	if !noRestart {
		m.handleActorLostWorker(actorID, types.WorkerExitIntended)
	} else {
		m.mu.Lock()
		a, ok = m.actors[actorID]
		if !ok || a.State == types.ActorDead {
			m.mu.Unlock()
		} else {
			if a.NodeID != "" {
				m.resources.Release(a.NodeID, a.Resources)
			}
			a.State = types.ActorDead
			a.NodeID = ""
			a.WorkerID = ""
			a.UpdatedAt = time.Now()
			err := m.store.PutActor(a)
			m.mu.Unlock()
			if err != nil {
				return gcserr.TransientStore("actor.Kill", err)
			}
			m.bus.Publish(eventbus.TopicActorUpdated, a)
			m.scheduleGC(actorID)
		}
	}

	if node != "" && workerID != "" {
		if err := m.transport.DestroyWorker(node, workerID, noRestart); err != nil {
			actorLog := log.WithComponent("actor.manager")
			actorLog.Warn().Str("actor_id", actorID).Str("worker_id", workerID).
				Err(err).Msg("destroy worker rpc failed")
		}
	}
	return nil
}

// OnWorkerDead restarts or destroys every actor whose current worker
// process just died, per its restart budget (§4.6). Wired to
// TopicWorkerDead by the event-listener installer.
func (m *Manager) OnWorkerDead(workerID string, exitType types.WorkerExitType) {
	m.mu.Lock()
	actorID, ok := m.byWorker[workerID]
	delete(m.byWorker, workerID)
	m.mu.Unlock()
	if !ok {
		return
	}
	m.handleActorLostWorker(actorID, exitType)
}

// OnNodeDead transitions every actor that was running on a dead node per
// its restart policy: detached actors with restart budget remaining
// re-schedule, others become DEAD (§4.6).
func (m *Manager) OnNodeDead(nodeID string) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.byNode[nodeID]))
	for id := range m.byNode[nodeID] {
		ids = append(ids, id)
	}
	delete(m.byNode, nodeID)
	m.mu.Unlock()

	for _, id := range ids {
		m.handleActorLostWorker(id, types.WorkerExitNodeDied)
	}
}

func (m *Manager) handleActorLostWorker(actorID string, exitType types.WorkerExitType) {
	m.mu.Lock()
	a, ok := m.actors[actorID]
	if !ok || a.State == types.ActorDead {
		m.mu.Unlock()
		return
	}

	restart := a.NumRestarts < a.MaxRestarts || a.MaxRestarts < 0
	if exitType == types.WorkerExitNodeDied && !a.Detached {
		restart = false
	}
	if restart {
		a.State = types.ActorRestarting
		a.NumRestarts++
	} else {
		a.State = types.ActorDead
		if exitType == types.WorkerExitSystemErr {
			a.CreationException = "worker exited with a system error"
		}
	}
	a.NodeID = ""
	a.WorkerID = ""
	a.UpdatedAt = time.Now()
	err := m.store.PutActor(a)
	m.mu.Unlock()

	if err != nil {
		actorLog := log.WithComponent("actor.manager")
		actorLog.Error().Err(err).Msg("persist actor state after worker loss failed")
		return
	}
	m.bus.Publish(eventbus.TopicActorUpdated, a)

	if restart {
		m.mu.Lock()
		a.State = types.ActorPendingCreation
		m.mu.Unlock()
		m.tryPlace(a)
	} else {
		m.scheduleGC(actorID)
	}
}

// scheduleGC arms a one-shot timer that deletes a DEAD actor's metadata
// after GCDelay, cancellable by a re-registration under the same id.
func (m *Manager) scheduleGC(actorID string) {
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if old, ok := m.gcTimers[actorID]; ok {
		old()
	}
	m.gcTimers[actorID] = cancel
	m.mu.Unlock()

	go func() {
		select {
		case <-time.After(GCDelay):
			m.gc(actorID)
		case <-ctx.Done():
		}
	}()
}

func (m *Manager) gc(actorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gcTimers, actorID)
	a, ok := m.actors[actorID]
	if !ok || a.State != types.ActorDead {
		return
	}
	delete(m.actors, actorID)
	if a.Name != "" {
		delete(m.byName, nameKey(a.Namespace, a.Name))
	}
	if err := m.store.DeleteActor(actorID); err != nil {
		actorLog := log.WithComponent("actor.manager")
		actorLog.Error().Err(err).Msg("delete garbage-collected actor failed")
	}
	m.bus.Publish(eventbus.TopicActorRemoved, a)
}

// CancelGC cancels a pending garbage-collection timer, called when an
// actor is re-registered under the same id before expiry (§5).
func (m *Manager) CancelGC(actorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.gcTimers[actorID]; ok {
		cancel()
		delete(m.gcTimers, actorID)
	}
}

// OnJobFinished tears down every non-detached actor owned by a job that
// just finished: detached actors outlive their creating job by design and
// are left alone. Wired to TopicJobFinished by the event-listener
// installer (§4.8).
func (m *Manager) OnJobFinished(jobID string) {
	m.mu.Lock()
	var victims []*types.Actor
	for _, a := range m.actors {
		if a.JobID == jobID && !a.Detached && a.State != types.ActorDead {
			victims = append(victims, a)
		}
	}
	m.mu.Unlock()

	for _, a := range victims {
		m.mu.Lock()
		if node := a.NodeID; node != "" {
			m.resources.Release(node, a.Resources)
		}
		a.State = types.ActorDead
		a.NodeID = ""
		a.WorkerID = ""
		a.UpdatedAt = time.Now()
		err := m.store.PutActor(a)
		m.mu.Unlock()
		if err != nil {
			actorLog := log.WithComponent("actor.manager")
			actorLog.Error().Err(err).Msg("persist actor death on job finish failed")
			continue
		}
		m.bus.Publish(eventbus.TopicActorUpdated, a)
		m.scheduleGC(a.ActorID)
	}
}
