package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/gcsd/pkg/gcserr"
	"github.com/cuemby/gcsd/pkg/resource"
	"github.com/cuemby/gcsd/pkg/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// AddressResolver resolves a node_id to its dial address, satisfied by
// pkg/node.Manager.
type AddressResolver interface {
	GetNode(nodeID string) (*types.NodeInfo, error)
}

// NodeClient is the outbound half of the two-phase bundle binding (§4.5)
// and worker creation (§4.6): it dials the node's own agent and calls it
// with the same JSON codec the server side registers. This core carries no
// raylet-equivalent of its own — the node-side agent answering these calls
// is the external worker-side runtime named in spec.md §1's non-goals —
// but the caller side of that relationship belongs here, grounded on the
// teacher's pkg/worker/worker.go dial pattern (grpc.NewClient against a
// resolved address, one conn per call).
type NodeClient struct {
	resolver AddressResolver
	timeout  time.Duration
}

// NewNodeClient constructs a NodeClient. timeout bounds each outbound call;
// a node that doesn't answer within it is treated as unreachable
// (gcserr.NodeUnreachable), not fatal to the caller.
func NewNodeClient(resolver AddressResolver, timeout time.Duration) *NodeClient {
	return &NodeClient{resolver: resolver, timeout: timeout}
}

func (c *NodeClient) addr(nodeID string) (string, error) {
	n, err := c.resolver.GetNode(nodeID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", n.Address, n.Port), nil
}

func (c *NodeClient) invoke(nodeID, method string, req, reply interface{}) error {
	addr, err := c.addr(nodeID)
	if err != nil {
		return err
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("rpc: dial node %s at %s: %w", nodeID, addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := conn.Invoke(ctx, method, req, reply, grpc.CallContentSubtype(codecName)); err != nil {
		if ctx.Err() != nil {
			return gcserr.NodeUnreachable(nodeID, err)
		}
		return err
	}
	return nil
}

type bundleRPCRequest struct {
	PlacementGroupID string      `json:"placement_group_id"`
	Bundle           types.Bundle `json:"bundle"`
}

type bundleRPCResponse struct{}

// PrepareBundle implements pkg/placementgroup.BundleTransport.
func (c *NodeClient) PrepareBundle(nodeID, pgID string, bundle types.Bundle) error {
	return c.invoke(nodeID, "/gcs.NodeAgent/PrepareBundle",
		&bundleRPCRequest{PlacementGroupID: pgID, Bundle: bundle}, new(bundleRPCResponse))
}

// CommitBundle implements pkg/placementgroup.BundleTransport.
func (c *NodeClient) CommitBundle(nodeID, pgID string, bundle types.Bundle) error {
	return c.invoke(nodeID, "/gcs.NodeAgent/CommitBundle",
		&bundleRPCRequest{PlacementGroupID: pgID, Bundle: bundle}, new(bundleRPCResponse))
}

// CancelBundle implements pkg/placementgroup.BundleTransport.
func (c *NodeClient) CancelBundle(nodeID, pgID string, bundle types.Bundle) error {
	return c.invoke(nodeID, "/gcs.NodeAgent/CancelBundle",
		&bundleRPCRequest{PlacementGroupID: pgID, Bundle: bundle}, new(bundleRPCResponse))
}

type createWorkerRPCRequest struct {
	Actor *types.Actor `json:"actor"`
}

type createWorkerRPCResponse struct {
	WorkerID string `json:"worker_id"`
}

// CreateWorker implements pkg/actor.WorkerTransport.
func (c *NodeClient) CreateWorker(nodeID string, a *types.Actor) (string, error) {
	resp := new(createWorkerRPCResponse)
	if err := c.invoke(nodeID, "/gcs.NodeAgent/CreateWorker", &createWorkerRPCRequest{Actor: a}, resp); err != nil {
		return "", err
	}
	return resp.WorkerID, nil
}

type destroyWorkerRPCRequest struct {
	WorkerID  string `json:"worker_id"`
	NoRestart bool   `json:"no_restart"`
}

type destroyWorkerRPCResponse struct{}

// DestroyWorker implements pkg/actor.WorkerTransport. Errors are logged by
// the caller, not propagated as a Kill failure: the GCS-side state
// transition is authoritative once persisted (§4.6).
func (c *NodeClient) DestroyWorker(nodeID, workerID string, noRestart bool) error {
	return c.invoke(nodeID, "/gcs.NodeAgent/DestroyWorker",
		&destroyWorkerRPCRequest{WorkerID: workerID, NoRestart: noRestart}, new(destroyWorkerRPCResponse))
}

type getResourceReportRPCRequest struct{}

type getResourceReportRPCResponse struct {
	Available types.Resources `json:"available"`
	Total     types.Resources `json:"total"`
}

// FetchResourceReport implements pkg/resource.ReportFetcher, used by the
// poller when config.GRPCBasedResourceBroadcast is off (§4.4).
func (c *NodeClient) FetchResourceReport(nodeID string) (*resource.ReportDelta, error) {
	resp := new(getResourceReportRPCResponse)
	if err := c.invoke(nodeID, "/gcs.NodeAgent/GetResourceReport", &getResourceReportRPCRequest{}, resp); err != nil {
		return nil, err
	}
	return &resource.ReportDelta{NodeID: nodeID, Available: resp.Available, Total: resp.Total}, nil
}
