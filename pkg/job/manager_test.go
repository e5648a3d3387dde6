package job_test

import (
	"testing"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/job"
	"github.com/cuemby/gcsd/pkg/store/storetest"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAndGet(t *testing.T) {
	mgr := job.New(storetest.NewMemStore(), eventbus.NewBroker())
	require.NoError(t, mgr.Submit(&types.JobInfo{JobID: "j1", Namespace: "ns1"}))

	got, ok := mgr.GetJob("j1")
	require.True(t, ok)
	assert.Equal(t, "ns1", got.Namespace)
	assert.False(t, got.StartTime.IsZero())
}

func TestFinishIsIdempotentAndPublishes(t *testing.T) {
	bus := eventbus.NewBroker()
	bus.Start()
	defer bus.Stop()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	mgr := job.New(storetest.NewMemStore(), bus)
	require.NoError(t, mgr.Submit(&types.JobInfo{JobID: "j1"}))
	require.NoError(t, mgr.Finish("j1"))

	evt := <-sub
	assert.Equal(t, eventbus.TopicJobFinished, evt.Topic)

	require.NoError(t, mgr.Finish("j1"))
	got, _ := mgr.GetJob("j1")
	assert.True(t, got.IsDead)
}

func TestNamespaceLookup(t *testing.T) {
	mgr := job.New(storetest.NewMemStore(), eventbus.NewBroker())
	require.NoError(t, mgr.Submit(&types.JobInfo{JobID: "j1", Namespace: "prod"}))

	ns, ok := mgr.Namespace("j1")
	require.True(t, ok)
	assert.Equal(t, "prod", ns)

	_, ok = mgr.Namespace("missing")
	assert.False(t, ok)
}
