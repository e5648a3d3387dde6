// Package gcs sequences the managers built across the rest of this module
// into one running core: construction order, init-load replay, listener
// installation, RPC server startup, and the reverse order on shutdown
// (§4.1). It plays the role the teacher's pkg/manager.Manager plays as a
// top-level object wiring Raft/FSM/scheduler/reconciler together, adapted
// here into the GCS server's own, differently-ordered boot sequence.
package gcs

import (
	"fmt"
	"net"

	"github.com/cuemby/gcsd/pkg/actor"
	"github.com/cuemby/gcsd/pkg/config"
	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/heartbeat"
	"github.com/cuemby/gcsd/pkg/initload"
	"github.com/cuemby/gcsd/pkg/job"
	"github.com/cuemby/gcsd/pkg/listeners"
	"github.com/cuemby/gcsd/pkg/log"
	"github.com/cuemby/gcsd/pkg/metrics"
	"github.com/cuemby/gcsd/pkg/node"
	"github.com/cuemby/gcsd/pkg/object"
	"github.com/cuemby/gcsd/pkg/placementgroup"
	"github.com/cuemby/gcsd/pkg/resource"
	"github.com/cuemby/gcsd/pkg/rpc"
	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/worker"
)

// reservedNamespace holds well-known keys like store.ReservedGCSAddressKey,
// separate from any per-entity InternalKV namespace a client might use.
const reservedNamespace = "gcs_reserved"

// Server is the running GCS core: every manager it owns, the bus and store
// they share, and the RPC/health listeners fronting them.
type Server struct {
	cfg *config.Config

	store store.Store
	bus   eventbus.Bus

	resources       *resource.Manager
	nodes           *node.Manager
	heartbeat       *heartbeat.Manager
	jobs            *job.Manager
	placementGroups *placementgroup.Manager
	actors          *actor.Manager
	objects         *object.Manager
	workers         *worker.Manager
	resourceReport  listeners.ResourceReporter
	poller          *resource.Poller
	collector       *metrics.Collector
	debugDump       *metrics.DebugDumper

	rpcServer    *rpc.Server
	healthServer *rpc.HealthServer
	boundAddr    string
}

// New constructs every manager in the Init* order confirmed against
// original_source/gcs_server.cc: resource manager, resource scheduler (the
// same package), node manager, heartbeat manager, (KV is the store
// itself, nothing to construct), (runtime-env manager is the listener
// cleanup trigger, nothing to construct), job manager, placement-group
// manager, actor manager, object manager, worker manager. It does not open
// any listener yet.
func New(cfg *config.Config, s store.Store, bus eventbus.Bus) *Server {
	resources := resource.New(bus)
	nodes := node.New(s, bus)
	hb := heartbeat.New(cfg.HeartbeatTimeout(), cfg.HeartbeatTimeout()/3, func(nodeID string) {
		if err := nodes.OnNodeFailure(nodeID); err != nil {
			srvLog := log.WithComponent("gcs.server")
			srvLog.Warn().Str("node_id", nodeID).Err(err).Msg("node failure handling failed")
		}
	})
	jobs := job.New(s, bus)
	pgTransport := rpc.NewNodeClient(nodes, cfg.HeartbeatTimeout())
	pgs := placementgroup.New(s, bus, resources, pgTransport)
	actors := actor.New(s, bus, resources, jobs, pgs, pgTransport)
	objects := object.New(s, bus)
	workers := worker.New(s, bus)
	workers.SetDeathListener(actors)

	srv := &Server{
		cfg:             cfg,
		store:           s,
		bus:             bus,
		resources:       resources,
		nodes:           nodes,
		heartbeat:       hb,
		jobs:            jobs,
		placementGroups: pgs,
		actors:          actors,
		objects:         objects,
		workers:         workers,
		collector:       metrics.NewCollector(nodes, jobs, actors, pgs, cfg.CollectStatsInterval()),
	}
	srv.debugDump = metrics.NewDebugDumper(nodes, jobs, actors, pgs, objects, bus, cfg.DebugDumpInterval())

	if cfg.GRPCBasedResourceBroadcast {
		srv.resourceReport = resource.NewBroadcaster(resources)
	} else {
		aliveIDs := func() []string {
			alive := nodes.GetAllAliveNodes()
			ids := make([]string, len(alive))
			for i, n := range alive {
				ids[i] = n.NodeID
			}
			return ids
		}
		poller := resource.NewPoller(resources, pgTransport.FetchResourceReport, aliveIDs, cfg.HeartbeatInterval())
		srv.poller = poller
		srv.resourceReport = poller
	}

	return srv
}

// Start runs the rest of §4.1's boot sequence: init-load replay, listener
// installation, the RPC server, address publication, and only then the
// heartbeat manager and periodic collectors. Must be called at most once.
func (s *Server) Start() error {
	metrics.RegisterComponent("store", true, "")

	if err := initload.Run(s.store, initload.Targets{
		Nodes:           s.nodes,
		Jobs:            s.jobs,
		PlacementGroups: s.placementGroups,
		Actors:          s.actors,
		Workers:         s.workers,
		Objects:         s.objects,
	}); err != nil {
		return fmt.Errorf("gcs: init load: %w", err)
	}

	listeners.Install(listeners.Managers{
		Bus:             s.bus,
		Store:           s.store,
		Resources:       s.resources,
		Heartbeat:       s.heartbeat,
		PlacementGroups: s.placementGroups,
		Actors:          s.actors,
		ResourceReport:  s.resourceReport,
	})

	if s.poller != nil {
		s.poller.Start()
	}

	s.rpcServer = rpc.NewServer(&rpc.Handlers{
		Nodes:           s.nodes,
		Resources:       s.resources,
		Heartbeat:       s.heartbeat,
		Jobs:            s.jobs,
		Actors:          s.actors,
		PlacementGroups: s.placementGroups,
		Objects:         s.objects,
		Workers:         s.workers,
		Store:           s.store,
	})

	addr := fmt.Sprintf("%s:%d", s.localAddress(), s.cfg.GRPCServerPort)
	bound, err := s.rpcServer.Start(addr)
	if err != nil {
		metrics.RegisterComponent("rpc", false, err.Error())
		return fmt.Errorf("gcs: start rpc server: %w", err)
	}
	s.boundAddr = bound
	metrics.RegisterComponent("rpc", true, "")

	// The reserved GcsServerAddress key is set only after the listener is
	// actually accepting connections, so a reader that races the boot
	// sequence never observes an address nothing is listening on yet.
	if err := s.store.KVPut(reservedNamespace, store.ReservedGCSAddressKey, []byte(bound)); err != nil {
		return fmt.Errorf("gcs: publish server address: %w", err)
	}

	// Heartbeat starts strictly after the RPC server (§4.1): starting it
	// earlier would let a deadline expire for a node that simply hadn't
	// been able to reconnect yet.
	s.heartbeat.Start()
	s.collector.Start()
	s.debugDump.Start()

	if s.healthServer != nil {
		go func() {
			if err := s.healthServer.Start(s.cfg.HealthAddr); err != nil {
				srvLog := log.WithComponent("gcs.server")
				srvLog.Error().Err(err).Msg("health server exited")
			}
		}()
	}

	srvLog := log.WithComponent("gcs.server")
	srvLog.Info().Str("addr", bound).Msg("gcs server started")
	return nil
}

// WithHealthServer attaches a health/ready/live HTTP server, started
// alongside the RPC server in Start. Optional: a caller that doesn't want
// the HTTP surface simply never calls this.
func (s *Server) WithHealthServer(version string) *Server {
	s.healthServer = rpc.NewHealthServer(version)
	return s
}

// Addr returns the address the RPC server is listening on, valid only
// after Start returns successfully.
func (s *Server) Addr() string {
	return s.boundAddr
}

// Stop reverses Start's order: the heartbeat manager stops first so it
// stops checking deadlines before the RPC server stops accepting the
// heartbeats that would have reset them, then the resource-report poller,
// then the RPC server itself, then periodic collection.
func (s *Server) Stop() {
	s.heartbeat.Stop()
	if s.poller != nil {
		s.poller.Stop()
	}
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
	s.collector.Stop()
	s.debugDump.Stop()
	if err := s.store.Close(); err != nil {
		srvLog := log.WithComponent("gcs.server")
		srvLog.Warn().Err(err).Msg("store close failed")
	}
}

// localAddress returns cfg.NodeIPAddress when set, otherwise the address
// this process would use to reach the outside world, per
// original_source's StoreGcsServerAddressInRedis fallback.
func (s *Server) localAddress() string {
	if s.cfg.NodeIPAddress != "" {
		return s.cfg.NodeIPAddress
	}
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
