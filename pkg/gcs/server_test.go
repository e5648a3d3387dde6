package gcs

import (
	"testing"

	"github.com/cuemby/gcsd/pkg/config"
	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/store/storetest"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.GRPCServerPort = 0 // let the OS assign a port
	cfg.NodeIPAddress = "127.0.0.1"
	cfg.HeartbeatIntervalMS = 50
	cfg.HeartbeatTimeoutMS = 500
	return cfg
}

func TestStartPublishesAddressAndStopIsClean(t *testing.T) {
	cfg := testConfig()
	s := storetest.NewMemStore()
	bus := eventbus.NewBroker()
	bus.Start()

	srv := New(cfg, s, bus)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	assert.NotEmpty(t, srv.Addr())

	raw, err := s.KVGet(reservedNamespace, store.ReservedGCSAddressKey)
	require.NoError(t, err)
	assert.Equal(t, srv.Addr(), string(raw))
}

func TestStartReplaysPersistedNodesBeforeAcceptingTraffic(t *testing.T) {
	cfg := testConfig()
	s := storetest.NewMemStore()
	require.NoError(t, s.PutNode(&types.NodeInfo{NodeID: "n1", State: types.NodeAlive}))
	bus := eventbus.NewBroker()
	bus.Start()

	srv := New(cfg, s, bus)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	got, err := srv.nodes.GetNode("n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", got.NodeID)
}
