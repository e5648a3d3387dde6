package worker_test

import (
	"testing"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/store/storetest"
	"github.com/cuemby/gcsd/pkg/types"
	"github.com/cuemby/gcsd/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeListener struct {
	workerID string
	exitType types.WorkerExitType
	calls    int
}

func (f *fakeListener) OnWorkerDead(workerID string, exitType types.WorkerExitType) {
	f.workerID = workerID
	f.exitType = exitType
	f.calls++
}

func TestReportWorkerFailureNotifiesListener(t *testing.T) {
	mgr := worker.New(storetest.NewMemStore(), eventbus.NewBroker())
	listener := &fakeListener{}
	mgr.SetDeathListener(listener)

	require.NoError(t, mgr.ReportWorkerFailure("w1", "n1", types.WorkerExitUnintended, "crashed"))

	assert.Equal(t, 1, listener.calls)
	assert.Equal(t, "w1", listener.workerID)
	assert.Equal(t, types.WorkerExitUnintended, listener.exitType)

	w, ok := mgr.GetWorker("w1")
	require.True(t, ok)
	assert.Equal(t, "crashed", w.ExitDetail)
}

func TestReportWorkerFailureWithoutListenerDoesNotPanic(t *testing.T) {
	mgr := worker.New(storetest.NewMemStore(), eventbus.NewBroker())
	assert.NotPanics(t, func() {
		require.NoError(t, mgr.ReportWorkerFailure("w1", "n1", types.WorkerExitIntended, ""))
	})
}
