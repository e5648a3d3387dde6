package rpc

import (
	"context"
	"testing"

	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

func findMethod(t *testing.T, desc grpc.ServiceDesc, name string) grpc.MethodDesc {
	t.Helper()
	for _, m := range desc.Methods {
		if m.MethodName == name {
			return m
		}
	}
	t.Fatalf("method %s not found on %s", name, desc.ServiceName)
	return grpc.MethodDesc{}
}

func TestNodeInfoServiceDescDispatchesRegisterNode(t *testing.T) {
	h := newHandlersFixture()
	m := findMethod(t, NodeInfoServiceDesc, "RegisterNode")

	dec := func(v interface{}) error {
		req := v.(*RegisterNodeRequest)
		req.Node = &types.NodeInfo{NodeID: "n1", AdvertisedResources: types.Resources{"CPU": 2}}
		return nil
	}

	out, err := m.Handler(h, context.Background(), dec, nil)
	require.NoError(t, err)
	resp := out.(*RegisterNodeResponse)
	assert.Equal(t, "n1", resp.Node.NodeID)

	got, err := h.Nodes.GetNode("n1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestKVServiceDescDispatchesPutAndGet(t *testing.T) {
	h := newHandlersFixture()
	put := findMethod(t, InternalKVServiceDesc, "KVPut")
	get := findMethod(t, InternalKVServiceDesc, "KVGet")

	putReq := &KVPutRequest{Namespace: "ns", Key: "k", Value: []byte("v")}
	_, err := put.Handler(h, context.Background(), func(v interface{}) error {
		*v.(*KVPutRequest) = *putReq
		return nil
	}, nil)
	require.NoError(t, err)

	getReq := &KVGetRequest{Namespace: "ns", Key: "k"}
	out, err := get.Handler(h, context.Background(), func(v interface{}) error {
		*v.(*KVGetRequest) = *getReq
		return nil
	}, nil)
	require.NoError(t, err)
	resp := out.(*KVGetResponse)
	assert.True(t, resp.Found)
	assert.Equal(t, []byte("v"), resp.Value)
}
