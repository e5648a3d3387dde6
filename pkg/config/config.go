// Package config loads the boot-time configuration enumerated in spec §6:
// RPC listener settings, backing-store connection info, the broadcast/poll
// and pubsub mode switches, and the periodic interval knobs. Values load
// from an optional YAML file and can be overridden by CLI flags.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StoreKind selects the backing-store adapter.
type StoreKind string

const (
	StoreBolt StoreKind = "bolt"
	StoreEtcd StoreKind = "etcd"
)

// Config is the full set of options observed at boot.
type Config struct {
	NodeID       string `yaml:"node_id"`
	NodeIPAddress string `yaml:"node_ip_address"`

	GRPCServerPort      int `yaml:"grpc_server_port"`
	GRPCServerThreadNum int `yaml:"grpc_server_thread_num"`

	StoreKind     StoreKind `yaml:"store_kind"`
	StoreDataDir  string    `yaml:"store_data_dir"`
	StoreAddress  string    `yaml:"store_address"`
	StorePort     int       `yaml:"store_port"`
	StorePassword string    `yaml:"store_password"`

	// GRPCBasedResourceBroadcast selects push (true) vs poll (false) for
	// resource reporting. The two are mutually exclusive: the broadcaster
	// runs when this is set, the poller only when it is not (§9).
	GRPCBasedResourceBroadcast bool `yaml:"grpc_based_resource_broadcast"`

	// GRPCPubsubEnabled selects the in-process topic broker. When it is off
	// and StoreKind is etcd, the store-native pub/sub fabric (etcd Watch) is
	// used instead; the bolt store always uses the in-process broker.
	// Exactly one is active at runtime.
	GRPCPubsubEnabled bool `yaml:"grpc_pubsub_enabled"`

	HeartbeatIntervalMS     int64 `yaml:"heartbeat_interval_ms"`
	HeartbeatTimeoutMS      int64 `yaml:"heartbeat_timeout_ms"`
	MetricsReportIntervalMS int64 `yaml:"metrics_report_interval_ms"`
	DebugDumpIntervalMS     int64 `yaml:"debug_dump_interval_ms"`
	AsioStatsIntervalMS     int64 `yaml:"asio_stats_interval_ms"`

	HealthAddr string `yaml:"health_addr"`
}

// Default returns the configuration used when neither a file nor flags
// supply a value.
func Default() *Config {
	return &Config{
		NodeID:                     "gcs-1",
		GRPCServerPort:             7654,
		GRPCServerThreadNum:        4,
		StoreKind:                  StoreBolt,
		StoreDataDir:               "./gcsd-data",
		StoreAddress:               "127.0.0.1",
		StorePort:                  2379,
		GRPCBasedResourceBroadcast: false,
		GRPCPubsubEnabled:          false,
		HeartbeatIntervalMS:        1000,
		HeartbeatTimeoutMS:         5000,
		MetricsReportIntervalMS:    10000,
		DebugDumpIntervalMS:        60000,
		AsioStatsIntervalMS:        60000,
		HealthAddr:                 "127.0.0.1:8090",
	}
}

// Load reads a YAML file at path over top of Default(). A missing path is
// not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// HeartbeatInterval is HeartbeatIntervalMS as a time.Duration.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMS) * time.Millisecond
}

// HeartbeatTimeout is HeartbeatTimeoutMS as a time.Duration.
func (c *Config) HeartbeatTimeout() time.Duration {
	return time.Duration(c.HeartbeatTimeoutMS) * time.Millisecond
}

// MetricsReportInterval is MetricsReportIntervalMS as a time.Duration.
func (c *Config) MetricsReportInterval() time.Duration {
	return time.Duration(c.MetricsReportIntervalMS) * time.Millisecond
}

// DebugDumpInterval is DebugDumpIntervalMS as a time.Duration.
func (c *Config) DebugDumpInterval() time.Duration {
	return time.Duration(c.DebugDumpIntervalMS) * time.Millisecond
}

// AsioStatsInterval is AsioStatsIntervalMS as a time.Duration.
func (c *Config) AsioStatsInterval() time.Duration {
	return time.Duration(c.AsioStatsIntervalMS) * time.Millisecond
}

// CollectStatsInterval runs at half of MetricsReportInterval, matching the
// upstream GCS server's timer for its stats-collection loop.
func (c *Config) CollectStatsInterval() time.Duration {
	return c.MetricsReportInterval() / 2
}

// Validate rejects configurations that would never boot correctly.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node_id must not be empty")
	}
	if c.GRPCServerPort <= 0 {
		return fmt.Errorf("grpc_server_port must be positive")
	}
	if c.StoreKind != StoreBolt && c.StoreKind != StoreEtcd {
		return fmt.Errorf("store_kind must be %q or %q", StoreBolt, StoreEtcd)
	}
	if c.HeartbeatTimeoutMS <= c.HeartbeatIntervalMS {
		return fmt.Errorf("heartbeat_timeout_ms must exceed heartbeat_interval_ms")
	}
	return nil
}
