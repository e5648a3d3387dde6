package actor_test

import (
	"sync"
	"testing"

	"github.com/cuemby/gcsd/pkg/actor"
	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/resource"
	"github.com/cuemby/gcsd/pkg/store/storetest"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNamespaces struct{ ns map[string]string }

func (f *fakeNamespaces) Namespace(jobID string) (string, bool) {
	ns, ok := f.ns[jobID]
	return ns, ok
}

type fakePGs struct{ groups map[string]*types.PlacementGroup }

func (f *fakePGs) GetPlacementGroup(id string) (*types.PlacementGroup, bool) {
	pg, ok := f.groups[id]
	return pg, ok
}

type fakeTransport struct {
	mu        sync.Mutex
	failNode  string
	seq       int
	destroyed []string
}

func (f *fakeTransport) CreateWorker(nodeID string, a *types.Actor) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if nodeID == f.failNode {
		return "", assert.AnError
	}
	f.seq++
	return "w-" + nodeID + "-" + string(rune('0'+f.seq)), nil
}

func (f *fakeTransport) DestroyWorker(nodeID, workerID string, noRestart bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, workerID)
	return nil
}

func newFixture() (*actor.Manager, *resource.Manager) {
	bus := eventbus.NewBroker()
	res := resource.New(bus)
	mgr := actor.New(storetest.NewMemStore(), bus, res,
		&fakeNamespaces{ns: map[string]string{"job1": "ns1"}},
		&fakePGs{groups: map[string]*types.PlacementGroup{}},
		&fakeTransport{})
	return mgr, res
}

func TestRegisterSchedulesImmediatelyWhenFeasible(t *testing.T) {
	mgr, res := newFixture()
	res.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}})

	a, err := mgr.Register(&types.Actor{JobID: "job1", Resources: types.Resources{"CPU": 1}, MaxRestarts: 2}, true)
	require.NoError(t, err)

	got, ok := mgr.GetActor(a.ActorID)
	require.True(t, ok)
	assert.Equal(t, types.ActorAlive, got.State)
	assert.Equal(t, "ns1", got.Namespace)
	assert.Equal(t, "n1", got.NodeID)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	mgr, res := newFixture()
	res.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}})

	_, err := mgr.Register(&types.Actor{JobID: "job1", Name: "singleton", Resources: types.Resources{"CPU": 1}}, true)
	require.NoError(t, err)

	_, err = mgr.Register(&types.Actor{JobID: "job1", Name: "singleton", Resources: types.Resources{"CPU": 1}}, true)
	assert.Error(t, err)
}

func TestRegisterParksWhenInfeasibleThenSchedulesOnNodeAdded(t *testing.T) {
	mgr, res := newFixture()

	a, err := mgr.Register(&types.Actor{JobID: "job1", Resources: types.Resources{"CPU": 2}}, true)
	require.NoError(t, err)

	got, _ := mgr.GetActor(a.ActorID)
	assert.Equal(t, types.ActorPendingCreation, got.State)

	res.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}})
	mgr.SchedulePendingActors()

	got, _ = mgr.GetActor(a.ActorID)
	assert.Equal(t, types.ActorAlive, got.State)
}

func TestOnWorkerDeadRestartsWithinBudget(t *testing.T) {
	mgr, res := newFixture()
	res.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}})

	a, err := mgr.Register(&types.Actor{JobID: "job1", Resources: types.Resources{"CPU": 1}, MaxRestarts: 1}, true)
	require.NoError(t, err)
	got, _ := mgr.GetActor(a.ActorID)
	workerID := got.WorkerID
	require.NotEmpty(t, workerID)

	mgr.OnWorkerDead(workerID, types.WorkerExitUnintended)

	got, _ = mgr.GetActor(a.ActorID)
	assert.Equal(t, types.ActorAlive, got.State)
	assert.Equal(t, 1, got.NumRestarts)
}

func TestOnWorkerDeadDiesWhenBudgetExhausted(t *testing.T) {
	mgr, res := newFixture()
	res.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}})

	a, err := mgr.Register(&types.Actor{JobID: "job1", Resources: types.Resources{"CPU": 1}, MaxRestarts: 0}, true)
	require.NoError(t, err)
	got, _ := mgr.GetActor(a.ActorID)
	workerID := got.WorkerID

	mgr.OnWorkerDead(workerID, types.WorkerExitUnintended)

	got, _ = mgr.GetActor(a.ActorID)
	assert.Equal(t, types.ActorDead, got.State)
}

func TestOnNodeDeadAffectsOnlyActorsOnThatNode(t *testing.T) {
	mgr, res := newFixture()
	res.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}})
	res.OnNodeAdd(&types.NodeInfo{NodeID: "n2", AdvertisedResources: types.Resources{"CPU": 4}})

	a1, err := mgr.Register(&types.Actor{JobID: "job1", Resources: types.Resources{"CPU": 1}, MaxRestarts: 1}, true)
	require.NoError(t, err)
	got1, _ := mgr.GetActor(a1.ActorID)
	require.Equal(t, "n1", got1.NodeID)

	res.OnNodeDead("n1")
	mgr.OnNodeDead("n1")

	got1, _ = mgr.GetActor(a1.ActorID)
	assert.NotEqual(t, "n1", got1.NodeID)
}

func TestKillWithNoRestartForcesDeadDespiteBudget(t *testing.T) {
	mgr, res := newFixture()
	res.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}})

	a, err := mgr.Register(&types.Actor{JobID: "job1", Resources: types.Resources{"CPU": 1}, MaxRestarts: 5}, true)
	require.NoError(t, err)

	require.NoError(t, mgr.Kill(a.ActorID, true))

	got, _ := mgr.GetActor(a.ActorID)
	assert.Equal(t, types.ActorDead, got.State)
}

func TestKillWithoutNoRestartRespectsBudget(t *testing.T) {
	mgr, res := newFixture()
	res.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}})

	a, err := mgr.Register(&types.Actor{JobID: "job1", Resources: types.Resources{"CPU": 1}, MaxRestarts: 1}, true)
	require.NoError(t, err)

	require.NoError(t, mgr.Kill(a.ActorID, false))

	got, _ := mgr.GetActor(a.ActorID)
	assert.Equal(t, types.ActorAlive, got.State)
	assert.Equal(t, 1, got.NumRestarts)
}

func TestKillIsIdempotentOnAlreadyDeadActor(t *testing.T) {
	mgr, res := newFixture()
	res.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}})

	a, err := mgr.Register(&types.Actor{JobID: "job1", Resources: types.Resources{"CPU": 1}, MaxRestarts: 0}, true)
	require.NoError(t, err)

	require.NoError(t, mgr.Kill(a.ActorID, true))
	got, _ := mgr.GetActor(a.ActorID)
	require.Equal(t, types.ActorDead, got.State)

	require.NoError(t, mgr.Kill(a.ActorID, true))
	got, _ = mgr.GetActor(a.ActorID)
	assert.Equal(t, types.ActorDead, got.State)
}

func TestKillUnknownActorIsAnError(t *testing.T) {
	mgr, _ := newFixture()
	assert.Error(t, mgr.Kill("missing", true))
}
