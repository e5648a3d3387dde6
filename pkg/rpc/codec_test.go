package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodecRoundTrips(t *testing.T) {
	c := jsonCodec{}
	in := &HeartbeatRequest{NodeID: "n1"}
	data, err := c.Marshal(in)
	require.NoError(t, err)

	out := new(HeartbeatRequest)
	require.NoError(t, c.Unmarshal(data, out))
	assert.Equal(t, in.NodeID, out.NodeID)
}

func TestJSONCodecName(t *testing.T) {
	assert.Equal(t, "json", jsonCodec{}.Name())
}
