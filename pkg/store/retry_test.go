package store_test

import (
	"errors"
	"testing"

	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/store/storetest"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the first n calls to any method with a transient error,
// then delegates to the embedded MemStore.
type flakyStore struct {
	*storetest.MemStore
	failuresLeft int
}

var errFlaky = errors.New("simulated transient failure")

func (f *flakyStore) PutNode(n *types.NodeInfo) error {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return errFlaky
	}
	return f.MemStore.PutNode(n)
}

func (f *flakyStore) GetNode(nodeID string) (*types.NodeInfo, error) {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, errFlaky
	}
	return f.MemStore.GetNode(nodeID)
}

func TestRetryingStoreRecoversFromTransientFailure(t *testing.T) {
	inner := &flakyStore{MemStore: storetest.NewMemStore(), failuresLeft: 2}
	s := store.NewRetrying(inner, 5)

	node := &types.NodeInfo{NodeID: "n1", State: types.NodeAlive}
	require.NoError(t, s.PutNode(node))

	got, err := s.GetNode("n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", got.NodeID)
}

func TestRetryingStoreGivesUpAfterMaxRetries(t *testing.T) {
	inner := &flakyStore{MemStore: storetest.NewMemStore(), failuresLeft: 100}
	s := store.NewRetrying(inner, 2)

	err := s.PutNode(&types.NodeInfo{NodeID: "n1"})
	assert.ErrorIs(t, err, errFlaky)
}

func TestRetryingStoreDoesNotRetryNotFound(t *testing.T) {
	inner := &flakyStore{MemStore: storetest.NewMemStore(), failuresLeft: 0}
	s := store.NewRetrying(inner, 5)

	_, err := s.GetNode("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
