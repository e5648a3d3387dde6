package node_test

import (
	"testing"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/node"
	"github.com/cuemby/gcsd/pkg/store/storetest"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotent(t *testing.T) {
	bus := eventbus.NewBroker()
	bus.Start()
	defer bus.Stop()

	mgr := node.New(storetest.NewMemStore(), bus)
	info := &types.NodeInfo{NodeID: "n1", Address: "10.0.0.1", Port: 7654}

	require.NoError(t, mgr.Register(info))
	require.NoError(t, mgr.Register(info))

	all := mgr.GetAllAliveNodes()
	assert.Len(t, all, 1)
}

func TestOnNodeFailureIsMonotonicAndEmitsOnce(t *testing.T) {
	bus := eventbus.NewBroker()
	bus.Start()
	defer bus.Stop()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	mgr := node.New(storetest.NewMemStore(), bus)
	require.NoError(t, mgr.Register(&types.NodeInfo{NodeID: "n1"}))

	<-sub // NodeAdded

	require.NoError(t, mgr.OnNodeFailure("n1"))
	event := <-sub
	assert.Equal(t, eventbus.TopicNodeRemoved, event.Topic)

	require.NoError(t, mgr.OnNodeFailure("n1"))
	select {
	case <-sub:
		t.Fatal("NodeRemoved must be emitted at most once per transition")
	default:
	}

	got, err := mgr.GetNode("n1")
	require.NoError(t, err)
	assert.Equal(t, types.NodeDead, got.State)
	assert.Empty(t, mgr.GetAllAliveNodes())
}
