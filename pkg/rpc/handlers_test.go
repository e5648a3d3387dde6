package rpc

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/gcsd/pkg/actor"
	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/heartbeat"
	"github.com/cuemby/gcsd/pkg/job"
	"github.com/cuemby/gcsd/pkg/node"
	"github.com/cuemby/gcsd/pkg/object"
	"github.com/cuemby/gcsd/pkg/placementgroup"
	"github.com/cuemby/gcsd/pkg/resource"
	"github.com/cuemby/gcsd/pkg/store/storetest"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/cuemby/gcsd/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBundleTransport struct{}

func (fakeBundleTransport) PrepareBundle(string, string, types.Bundle) error { return nil }
func (fakeBundleTransport) CommitBundle(string, string, types.Bundle) error  { return nil }
func (fakeBundleTransport) CancelBundle(string, string, types.Bundle) error  { return nil }

type fakeCreateWorker struct{}

func (fakeCreateWorker) CreateWorker(nodeID string, a *types.Actor) (string, error) {
	return "worker-" + a.ActorID, nil
}

func (fakeCreateWorker) DestroyWorker(nodeID, workerID string, noRestart bool) error {
	return nil
}

func newHandlersFixture() *Handlers {
	mem := storetest.NewMemStore()
	bus := eventbus.NewBroker()
	bus.Start()

	nodes := node.New(mem, bus)
	resources := resource.New(bus)
	hb := heartbeat.New(0, 0, func(string) {})
	jobs := job.New(mem, bus)
	pgs := placementgroup.New(mem, bus, resources, fakeBundleTransport{})
	actors := actor.New(mem, bus, resources, jobs, pgs, fakeCreateWorker{})
	objects := object.New(mem, bus)
	workers := worker.New(mem, bus)
	workers.SetDeathListener(actors)

	return &Handlers{
		Nodes:           nodes,
		Resources:       resources,
		Heartbeat:       hb,
		Jobs:            jobs,
		Actors:          actors,
		PlacementGroups: pgs,
		Objects:         objects,
		Workers:         workers,
		Store:           mem,
	}
}

func TestRegisterAndGetNode(t *testing.T) {
	h := newHandlersFixture()
	ctx := context.Background()

	n := &types.NodeInfo{NodeID: "n1", Address: "10.0.0.1", Port: 9000, AdvertisedResources: types.Resources{"CPU": 4}}
	_, err := h.RegisterNode(ctx, &RegisterNodeRequest{Node: n})
	require.NoError(t, err)

	resp, err := h.GetNode(ctx, &GetNodeRequest{NodeID: "n1"})
	require.NoError(t, err)
	assert.Equal(t, types.NodeAlive, resp.Node.State)
}

func TestGetNodeMissingReturnsNotFound(t *testing.T) {
	h := newHandlersFixture()
	_, err := h.GetNode(context.Background(), &GetNodeRequest{NodeID: "missing"})
	assert.Error(t, err)
}

func TestSubmitAndFinishJobThroughHandlers(t *testing.T) {
	h := newHandlersFixture()
	ctx := context.Background()

	j := &types.JobInfo{JobID: "job-1", Namespace: "default"}
	_, err := h.SubmitJob(ctx, &SubmitJobRequest{Job: j})
	require.NoError(t, err)

	got, err := h.GetJob(ctx, &GetJobRequest{JobID: "job-1"})
	require.NoError(t, err)
	assert.False(t, got.Job.IsDead)

	_, err = h.FinishJob(ctx, &FinishJobRequest{JobID: "job-1"})
	require.NoError(t, err)

	got, err = h.GetJob(ctx, &GetJobRequest{JobID: "job-1"})
	require.NoError(t, err)
	assert.True(t, got.Job.IsDead)
}

func TestRegisterActorThroughHandlers(t *testing.T) {
	h := newHandlersFixture()
	ctx := context.Background()

	node := &types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}}
	_, err := h.RegisterNode(ctx, &RegisterNodeRequest{Node: node})
	require.NoError(t, err)
	h.Resources.OnNodeAdd(node)

	resp, err := h.RegisterActor(ctx, &RegisterActorRequest{
		Actor: &types.Actor{
			JobID: "job-1", Namespace: "default", Resources: types.Resources{"CPU": 1}, MaxRestarts: 3,
		},
		DependenciesReady: true,
	})
	require.NoError(t, err)
	assert.Equal(t, types.ActorAlive, resp.Actor.State)

	list, err := h.ListActors(ctx, &ListActorsRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Actors, 1)
}

func TestKillActorThroughHandlersIsIdempotent(t *testing.T) {
	h := newHandlersFixture()
	ctx := context.Background()

	node := &types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 4}}
	_, err := h.RegisterNode(ctx, &RegisterNodeRequest{Node: node})
	require.NoError(t, err)
	h.Resources.OnNodeAdd(node)

	reg, err := h.RegisterActor(ctx, &RegisterActorRequest{
		Actor:             &types.Actor{JobID: "job-1", Resources: types.Resources{"CPU": 1}},
		DependenciesReady: true,
	})
	require.NoError(t, err)

	_, err = h.KillActor(ctx, &KillActorRequest{ActorID: reg.Actor.ActorID, NoRestart: true})
	require.NoError(t, err)

	got, err := h.GetActor(ctx, &GetActorRequest{ActorID: reg.Actor.ActorID})
	require.NoError(t, err)
	assert.Equal(t, types.ActorDead, got.Actor.State)

	_, err = h.KillActor(ctx, &KillActorRequest{ActorID: reg.Actor.ActorID, NoRestart: true})
	assert.NoError(t, err)
}

func TestWaitPlacementGroupUntilReadyReturnsImmediatelyWhenAlreadyCreated(t *testing.T) {
	h := newHandlersFixture()
	ctx := context.Background()

	node := &types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 8}}
	_, err := h.RegisterNode(ctx, &RegisterNodeRequest{Node: node})
	require.NoError(t, err)
	h.Resources.OnNodeAdd(node)

	created, err := h.CreatePlacementGroup(ctx, &CreatePlacementGroupRequest{
		Strategy: types.StrategyStrictPack,
		Bundles:  []types.Bundle{{BundleIndex: 0, Resources: types.Resources{"CPU": 1}}},
		JobID:    "job-1",
	})
	require.NoError(t, err)

	resp, err := h.WaitPlacementGroupUntilReady(ctx, &WaitPlacementGroupUntilReadyRequest{
		PlacementGroupID: created.PlacementGroup.PlacementGroupID,
		Timeout:          time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, types.PGCreated, resp.PlacementGroup.State)
}

func TestCreatePlacementGroupThroughHandlers(t *testing.T) {
	h := newHandlersFixture()
	ctx := context.Background()

	node := &types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 8}}
	_, err := h.RegisterNode(ctx, &RegisterNodeRequest{Node: node})
	require.NoError(t, err)
	h.Resources.OnNodeAdd(node)

	resp, err := h.CreatePlacementGroup(ctx, &CreatePlacementGroupRequest{
		Strategy: types.StrategyStrictPack,
		Bundles:  []types.Bundle{{BundleIndex: 0, Resources: types.Resources{"CPU": 1}}},
		JobID:    "job-1",
	})
	require.NoError(t, err)
	assert.Equal(t, types.PGCreated, resp.PlacementGroup.State)
}

func TestKVPutGetDelRoundTrip(t *testing.T) {
	h := newHandlersFixture()
	ctx := context.Background()

	_, err := h.KVPut(ctx, &KVPutRequest{Namespace: "ns", Key: "k", Value: []byte("v")})
	require.NoError(t, err)

	got, err := h.KVGet(ctx, &KVGetRequest{Namespace: "ns", Key: "k"})
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, []byte("v"), got.Value)

	_, err = h.KVDel(ctx, &KVDelRequest{Namespace: "ns", Key: "k"})
	require.NoError(t, err)

	got, err = h.KVGet(ctx, &KVGetRequest{Namespace: "ns", Key: "k"})
	require.NoError(t, err)
	assert.False(t, got.Found)
}

func TestAddObjectLocationThroughHandlers(t *testing.T) {
	h := newHandlersFixture()
	ctx := context.Background()

	_, err := h.AddObjectLocation(ctx, &AddObjectLocationRequest{ObjectID: "o1", NodeID: "n1"})
	require.NoError(t, err)

	resp, err := h.GetObjectLocations(ctx, &GetObjectLocationsRequest{ObjectID: "o1"})
	require.NoError(t, err)
	assert.True(t, resp.Location.NodeIDs["n1"])
}
