package metrics

import (
	"testing"
	"time"

	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
)

type fakeObjects struct{ n int }

func (f fakeObjects) Count() int { return f.n }

type fakeSubscriberBus struct{ n int }

func (f fakeSubscriberBus) SubscriberCount() int { return f.n }

func TestDebugDumperRunsWithoutPanicking(t *testing.T) {
	d := NewDebugDumper(
		fakeNodes{nodes: []*types.NodeInfo{{NodeID: "n1", State: types.NodeAlive}}},
		fakeJobs{jobs: []*types.JobInfo{{JobID: "j1"}}},
		fakeActors{actors: []*types.Actor{{ActorID: "a1", State: types.ActorAlive}}},
		fakePGs{groups: []*types.PlacementGroup{{PlacementGroupID: "pg1", State: types.PGCreated}}},
		fakeObjects{n: 3},
		fakeSubscriberBus{n: 2},
		10*time.Millisecond,
	)
	assert.NotPanics(t, d.Start)
	time.Sleep(25 * time.Millisecond)
	d.Stop()
}

func TestDebugDumperSkipsSubscriberCountWhenBusDoesNotExposeOne(t *testing.T) {
	d := NewDebugDumper(
		fakeNodes{}, fakeJobs{}, fakeActors{}, fakePGs{}, fakeObjects{},
		struct{}{},
		10*time.Millisecond,
	)
	assert.NotPanics(t, d.dump)
}

func TestDebugDumperNonPositiveIntervalDoesNotStart(t *testing.T) {
	d := NewDebugDumper(fakeNodes{}, fakeJobs{}, fakeActors{}, fakePGs{}, fakeObjects{}, fakeSubscriberBus{}, 0)
	assert.NotPanics(t, d.Start)
	assert.NotPanics(t, d.Stop)
}
