package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().GRPCServerPort, cfg.GRPCServerPort)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gcsd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("node_id: gcs-test\ngrpc_server_port: 9999\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gcs-test", cfg.NodeID)
	assert.Equal(t, 9999, cfg.GRPCServerPort)
}

func TestValidateRejectsBadTimeouts(t *testing.T) {
	cfg := Default()
	cfg.HeartbeatIntervalMS = 5000
	cfg.HeartbeatTimeoutMS = 1000
	assert.Error(t, cfg.Validate())
}

func TestCollectStatsIntervalIsHalfMetricsReport(t *testing.T) {
	cfg := Default()
	cfg.MetricsReportIntervalMS = 10000
	assert.Equal(t, cfg.MetricsReportInterval()/2, cfg.CollectStatsInterval())
}
