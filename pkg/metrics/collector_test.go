package metrics

import (
	"testing"
	"time"

	"github.com/cuemby/gcsd/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type fakeNodes struct{ nodes []*types.NodeInfo }

func (f fakeNodes) GetAllNodes() []*types.NodeInfo { return f.nodes }

type fakeJobs struct{ jobs []*types.JobInfo }

func (f fakeJobs) ListJobs() []*types.JobInfo { return f.jobs }

type fakeActors struct{ actors []*types.Actor }

func (f fakeActors) ListActors() []*types.Actor { return f.actors }

type fakePGs struct{ groups []*types.PlacementGroup }

func (f fakePGs) ListPlacementGroups() []*types.PlacementGroup { return f.groups }

func TestCollectorUpdatesGaugesWithoutPanicking(t *testing.T) {
	coll := NewCollector(
		fakeNodes{nodes: []*types.NodeInfo{{NodeID: "n1", State: types.NodeAlive}}},
		fakeJobs{jobs: []*types.JobInfo{{JobID: "j1"}}},
		fakeActors{actors: []*types.Actor{{ActorID: "a1", State: types.ActorAlive}}},
		fakePGs{groups: []*types.PlacementGroup{{PlacementGroupID: "pg1", State: types.PGCreated}}},
		10*time.Millisecond,
	)
	assert.NotPanics(t, coll.Start)
	defer coll.Stop()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(NodesTotal.WithLabelValues(string(types.NodeAlive))) == 1
	}, time.Second, 5*time.Millisecond)
}
