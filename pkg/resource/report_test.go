package resource_test

import (
	"sync"
	"testing"
	"time"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/resource"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestPollerAppliesFetchedDeltas(t *testing.T) {
	mgr := resource.New(eventbus.NewBroker())
	mgr.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 8}})

	fetch := func(nodeID string) (*resource.ReportDelta, error) {
		return &resource.ReportDelta{
			NodeID:    nodeID,
			Total:     types.Resources{"CPU": 8},
			Available: types.Resources{"CPU": 3},
		}, nil
	}
	nodeIDs := func() []string { return []string{"n1"} }

	poller := resource.NewPoller(mgr, fetch, nodeIDs, 10*time.Millisecond)
	poller.Start()
	defer poller.Stop()

	assert.Eventually(t, func() bool {
		v, ok := mgr.Get("n1")
		return ok && v.Available["CPU"] == 3
	}, time.Second, 5*time.Millisecond)
}

func TestPollerSkipsFailedFetchesWithoutBlocking(t *testing.T) {
	mgr := resource.New(eventbus.NewBroker())
	mgr.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 8}})

	var calls int
	var mu sync.Mutex
	fetch := func(nodeID string) (*resource.ReportDelta, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil, assert.AnError
	}
	nodeIDs := func() []string { return []string{"n1"} }

	poller := resource.NewPoller(mgr, fetch, nodeIDs, 10*time.Millisecond)
	poller.Start()
	defer poller.Stop()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestBroadcasterAppliesPushedDeltas(t *testing.T) {
	mgr := resource.New(eventbus.NewBroker())
	mgr.OnNodeAdd(&types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 8}})

	b := resource.NewBroadcaster(mgr)
	b.HandlePush(&resource.ReportDelta{
		NodeID:    "n1",
		Total:     types.Resources{"CPU": 8},
		Available: types.Resources{"CPU": 5},
	})

	v, ok := mgr.Get("n1")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v.Available["CPU"])
}
