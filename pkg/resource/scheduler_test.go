package resource_test

import (
	"testing"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/resource"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestCandidatesFiltersInfeasibleNodes(t *testing.T) {
	mgr := resource.New(eventbus.NewBroker())
	mgr.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 2}})
	mgr.OnNodeAdd(&types.NodeInfo{NodeID: "n2", AdvertisedResources: types.Resources{"CPU": 8}})

	cands := resource.Candidates(mgr.Snapshot(), resource.Constraint{Demand: types.Resources{"CPU": 4}})
	assert.Equal(t, []string{"n2"}, cands)
}

func TestCandidatesTieBreakIsLexicographic(t *testing.T) {
	mgr := resource.New(eventbus.NewBroker())
	mgr.OnNodeAdd(&types.NodeInfo{NodeID: "nb", AdvertisedResources: types.Resources{"CPU": 8}})
	mgr.OnNodeAdd(&types.NodeInfo{NodeID: "na", AdvertisedResources: types.Resources{"CPU": 8}})

	cands := resource.Candidates(mgr.Snapshot(), resource.Constraint{Demand: types.Resources{"CPU": 1}})
	assert.Equal(t, []string{"na", "nb"}, cands)
}

func TestCandidatesPrefersMoreUtilizedNode(t *testing.T) {
	mgr := resource.New(eventbus.NewBroker())
	mgr.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 8}})
	mgr.OnNodeAdd(&types.NodeInfo{NodeID: "n2", AdvertisedResources: types.Resources{"CPU": 8}})
	assert.True(t, mgr.Reserve("n1", types.Resources{"CPU": 6}))

	cands := resource.Candidates(mgr.Snapshot(), resource.Constraint{Demand: types.Resources{"CPU": 1}})
	assert.Equal(t, "n1", cands[0], "bin-packing should prefer the already-utilized node")
}

func TestReserveFailsWhenInfeasible(t *testing.T) {
	mgr := resource.New(eventbus.NewBroker())
	mgr.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 2}})
	assert.False(t, mgr.Reserve("n1", types.Resources{"CPU": 4}))
}

func TestReserveAndRelease(t *testing.T) {
	mgr := resource.New(eventbus.NewBroker())
	mgr.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 8}})
	assert.True(t, mgr.Reserve("n1", types.Resources{"CPU": 4}))

	v, ok := mgr.Get("n1")
	assert.True(t, ok)
	assert.Equal(t, 4.0, v.Available["CPU"])

	mgr.Release("n1", types.Resources{"CPU": 4})
	v, _ = mgr.Get("n1")
	assert.Equal(t, 8.0, v.Available["CPU"])
}
