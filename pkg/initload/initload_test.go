package initload_test

import (
	"testing"

	"github.com/cuemby/gcsd/pkg/initload"
	"github.com/cuemby/gcsd/pkg/store/storetest"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader[T any] struct {
	got []T
}

func (f *fakeLoader[T]) Load(v []T) { f.got = v }

func TestRunReplaysEveryTable(t *testing.T) {
	s := storetest.NewMemStore()
	require.NoError(t, s.PutNode(&types.NodeInfo{NodeID: "n1"}))
	require.NoError(t, s.PutJob(&types.JobInfo{JobID: "j1"}))
	require.NoError(t, s.PutActor(&types.Actor{ActorID: "a1"}))
	require.NoError(t, s.PutPlacementGroup(&types.PlacementGroup{PlacementGroupID: "pg1"}))
	require.NoError(t, s.PutWorker(&types.Worker{WorkerID: "w1"}))
	require.NoError(t, s.PutObjectLocation(&types.ObjectLocation{ObjectID: "o1"}))

	nodes := &fakeLoader[*types.NodeInfo]{}
	jobs := &fakeLoader[*types.JobInfo]{}
	pgs := &fakeLoader[*types.PlacementGroup]{}
	actors := &fakeLoader[*types.Actor]{}
	workers := &fakeLoader[*types.Worker]{}
	objects := &fakeLoader[*types.ObjectLocation]{}

	err := initload.Run(s, initload.Targets{
		Nodes:           nodes,
		Jobs:            jobs,
		PlacementGroups: pgs,
		Actors:          actors,
		Workers:         workers,
		Objects:         objects,
	})
	require.NoError(t, err)

	assert.Len(t, nodes.got, 1)
	assert.Len(t, jobs.got, 1)
	assert.Len(t, pgs.got, 1)
	assert.Len(t, actors.got, 1)
	assert.Len(t, workers.got, 1)
	assert.Len(t, objects.got, 1)
}
