package rpc

import (
	"fmt"
	"net"

	"github.com/cuemby/gcsd/pkg/log"
	"google.golang.org/grpc"
)

// Server wraps a grpc.Server registered with the hand-built ServiceDescs in
// services.go, adapted from the teacher's pkg/api/server.go shape (listen,
// register, Serve; GracefulStop to shut down) but without a
// proto.UnimplementedXxxServer embed, since there is no generated service
// interface to satisfy.
type Server struct {
	handlers *Handlers
	grpc     *grpc.Server
	listener net.Listener
}

// NewServer constructs the RPC server and registers every service in
// allServiceDescs against h.
func NewServer(h *Handlers, opts ...grpc.ServerOption) *Server {
	s := grpc.NewServer(opts...)
	for _, desc := range allServiceDescs {
		s.RegisterService(desc, h)
	}
	return &Server{handlers: h, grpc: s}
}

// Start binds addr and serves in a background goroutine, returning once the
// listener is open so the caller can publish addr under
// store.ReservedGCSAddressKey (§4.1: the RPC server must be listening
// before the address is published).
func (s *Server) Start(addr string) (string, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("rpc: listen %s: %w", addr, err)
	}
	s.listener = lis
	go func() {
		if err := s.grpc.Serve(lis); err != nil {
			rpcLog := log.WithComponent("rpc.server")
			rpcLog.Error().Err(err).Msg("grpc server stopped")
		}
	}()
	return lis.Addr().String(), nil
}

// Stop gracefully drains in-flight RPCs before returning. The bootstrap
// sequencer calls this only after the heartbeat manager has already
// stopped (§4.1, §9): stopping the RPC server first would let in-flight
// heartbeats land after the failure detector quit watching deadlines.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}
