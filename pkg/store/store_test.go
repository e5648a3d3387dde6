package store_test

import (
	"testing"
	"time"

	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/store/storetest"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStoreNodeRoundTrip(t *testing.T) {
	s, err := store.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	node := &types.NodeInfo{
		NodeID:              "n1",
		Address:             "10.0.0.1",
		Port:                7654,
		AdvertisedResources: types.Resources{"CPU": 8},
		State:               types.NodeAlive,
		LastHeartbeat:       time.Now(),
	}
	require.NoError(t, s.PutNode(node))

	got, err := s.GetNode("n1")
	require.NoError(t, err)
	assert.Equal(t, node.Address, got.Address)
	assert.Equal(t, types.NodeAlive, got.State)

	all, err := s.ListNodes()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteNode("n1"))
	_, err = s.GetNode("n1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBoltStoreReservedAddressKey(t *testing.T) {
	s, err := store.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.KVPut("internal", store.ReservedGCSAddressKey, []byte("10.0.0.1:7654")))
	v, err := s.KVGet("internal", store.ReservedGCSAddressKey)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:7654", string(v))
}

func TestLoadSnapshot(t *testing.T) {
	s := storetest.NewMemStore()
	require.NoError(t, s.PutNode(&types.NodeInfo{NodeID: "n1", State: types.NodeAlive}))
	require.NoError(t, s.PutActor(&types.Actor{ActorID: "a1", State: types.ActorAlive}))

	snap, err := store.Load(s)
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 1)
	assert.Len(t, snap.Actors, 1)
}
