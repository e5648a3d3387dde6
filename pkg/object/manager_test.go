package object_test

import (
	"testing"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/object"
	"github.com/cuemby/gcsd/pkg/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndRemoveLocation(t *testing.T) {
	mgr := object.New(storetest.NewMemStore(), eventbus.NewBroker())
	require.NoError(t, mgr.AddLocation("o1", "n1"))
	require.NoError(t, mgr.AddLocation("o1", "n2"))

	loc := mgr.GetLocations("o1")
	assert.True(t, loc.NodeIDs["n1"])
	assert.True(t, loc.NodeIDs["n2"])

	require.NoError(t, mgr.RemoveLocation("o1", "n1"))
	loc = mgr.GetLocations("o1")
	assert.False(t, loc.NodeIDs["n1"])
	assert.True(t, loc.NodeIDs["n2"])
}

func TestMissingLocationIsNotAnError(t *testing.T) {
	mgr := object.New(storetest.NewMemStore(), eventbus.NewBroker())
	loc := mgr.GetLocations("missing")
	assert.Empty(t, loc.NodeIDs)

	assert.NoError(t, mgr.RemoveLocation("missing", "n1"))
}

func TestCountReflectsKnownObjects(t *testing.T) {
	mgr := object.New(storetest.NewMemStore(), eventbus.NewBroker())
	assert.Equal(t, 0, mgr.Count())

	require.NoError(t, mgr.AddLocation("o1", "n1"))
	require.NoError(t, mgr.AddLocation("o2", "n1"))
	assert.Equal(t, 2, mgr.Count())

	require.NoError(t, mgr.RemoveLocation("o1", "n1"))
	assert.Equal(t, 1, mgr.Count())
}

func TestOnNodeDeadDropsAllLocationsOnThatNode(t *testing.T) {
	mgr := object.New(storetest.NewMemStore(), eventbus.NewBroker())
	require.NoError(t, mgr.AddLocation("o1", "n1"))
	require.NoError(t, mgr.AddLocation("o2", "n1"))
	require.NoError(t, mgr.AddLocation("o2", "n2"))

	mgr.OnNodeDead("n1")

	assert.Empty(t, mgr.GetLocations("o1").NodeIDs)
	loc2 := mgr.GetLocations("o2")
	assert.False(t, loc2.NodeIDs["n1"])
	assert.True(t, loc2.NodeIDs["n2"])
}
