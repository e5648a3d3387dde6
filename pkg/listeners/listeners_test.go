package listeners_test

import (
	"testing"
	"time"

	"github.com/cuemby/gcsd/pkg/actor"
	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/heartbeat"
	"github.com/cuemby/gcsd/pkg/listeners"
	"github.com/cuemby/gcsd/pkg/node"
	"github.com/cuemby/gcsd/pkg/placementgroup"
	"github.com/cuemby/gcsd/pkg/resource"
	"github.com/cuemby/gcsd/pkg/store/storetest"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNamespaces struct{}

func (fakeNamespaces) Namespace(string) (string, bool) { return "", false }

type fakePGTransport struct{}

func (fakePGTransport) PrepareBundle(string, string, types.Bundle) error { return nil }
func (fakePGTransport) CommitBundle(string, string, types.Bundle) error  { return nil }
func (fakePGTransport) CancelBundle(string, string, types.Bundle) error  { return nil }

type fakeActorTransport struct{ seq int }

func (f *fakeActorTransport) CreateWorker(nodeID string, a *types.Actor) (string, error) {
	f.seq++
	return "w" + string(rune('0'+f.seq)), nil
}

func (f *fakeActorTransport) DestroyWorker(nodeID, workerID string, noRestart bool) error {
	return nil
}

func TestNodeAddedFansOutToEveryManager(t *testing.T) {
	bus := eventbus.NewBroker()
	bus.Start()
	defer bus.Stop()

	s := storetest.NewMemStore()
	res := resource.New(bus)
	hb := heartbeat.New(time.Hour, time.Hour, func(string) {})
	nodes := node.New(s, bus)
	pgs := placementgroup.New(s, bus, res, fakePGTransport{})
	actors := actor.New(s, bus, res, fakeNamespaces{}, pgs, &fakeActorTransport{})

	listeners.Install(listeners.Managers{
		Bus:             bus,
		Resources:       res,
		Heartbeat:       hb,
		PlacementGroups: pgs,
		Actors:          actors,
	})

	_, err := actors.Register(&types.Actor{JobID: "job1", Resources: types.Resources{"CPU": 1}}, true)
	require.NoError(t, err)

	require.NoError(t, nodes.Register(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}}))

	assert.Eventually(t, func() bool {
		a, _ := actors.GetActor(findFirstActorID(actors))
		return a != nil && a.State == types.ActorAlive
	}, time.Second, 5*time.Millisecond)
}

func findFirstActorID(actors *actor.Manager) string {
	for _, a := range actors.ListActors() {
		return a.ActorID
	}
	return ""
}

func TestActorDeathCleansUpOwnedPlacementGroup(t *testing.T) {
	bus := eventbus.NewBroker()
	bus.Start()
	defer bus.Stop()

	s := storetest.NewMemStore()
	res := resource.New(bus)
	hb := heartbeat.New(time.Hour, time.Hour, func(string) {})
	nodes := node.New(s, bus)
	pgs := placementgroup.New(s, bus, res, fakePGTransport{})
	actors := actor.New(s, bus, res, fakeNamespaces{}, pgs, &fakeActorTransport{})

	listeners.Install(listeners.Managers{
		Bus:             bus,
		Resources:       res,
		Heartbeat:       hb,
		PlacementGroups: pgs,
		Actors:          actors,
	})

	a, err := actors.Register(&types.Actor{JobID: "job1", Resources: types.Resources{"CPU": 1}, Detached: true}, true)
	require.NoError(t, err)

	pg, err := pgs.Create(types.StrategyStrictPack, []types.Bundle{{BundleIndex: 0, Resources: types.Resources{"CPU": 1}}},
		"job1", "", "", a.ActorID)
	require.NoError(t, err)

	require.NoError(t, actors.Kill(a.ActorID, true))

	assert.Eventually(t, func() bool {
		got, ok := pgs.GetPlacementGroup(pg.PlacementGroupID)
		return ok && got.State == types.PGRemoved
	}, time.Second, 5*time.Millisecond)
}
