// Package job implements the job manager (§2, §4 Job manager bullet):
// job registration, finish notification, and the job-namespace mapping
// the actor manager resolves name uniqueness through. Grounded on the
// teacher's CreateService/GetService/ListService CRUD shape in
// pkg/manager/manager.go, generalized from services to jobs.
package job

import (
	"sync"
	"time"

	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/gcserr"
	"github.com/cuemby/gcsd/pkg/store"
	"github.com/cuemby/gcsd/pkg/types"
)

// Manager owns the JobInfo table.
type Manager struct {
	mu   sync.RWMutex
	store store.Store
	bus   eventbus.Bus
	jobs  map[string]*types.JobInfo
}

// New constructs a job manager. Call Load to replay persisted jobs before
// accepting RPCs.
func New(s store.Store, bus eventbus.Bus) *Manager {
	return &Manager{store: s, bus: bus, jobs: make(map[string]*types.JobInfo)}
}

// Load replays a snapshot taken by the init loader into memory. No events
// are published: listeners are not installed yet at this point (§4.1).
func (m *Manager) Load(jobs []*types.JobInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range jobs {
		m.jobs[j.JobID] = j
	}
}

// Submit registers a new job. StartTime defaults to now if zero.
func (m *Manager) Submit(j *types.JobInfo) error {
	if j.StartTime.IsZero() {
		j.StartTime = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.PutJob(j); err != nil {
		return gcserr.TransientStore("job.Submit", err)
	}
	m.jobs[j.JobID] = j
	return nil
}

// Finish marks a job dead and sets its end time, then publishes
// TopicJobFinished so the actor manager can run OnJobFinished and the
// placement-group manager can run CleanPlacementGroupIfNeededWhenJobDead
// (§4.8 installer wiring).
func (m *Manager) Finish(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok {
		return gcserr.InvariantViolation("job.Finish: unknown job " + jobID)
	}
	if j.IsDead {
		return nil
	}
	now := time.Now()
	j.IsDead = true
	j.EndTime = &now

	if err := m.store.PutJob(j); err != nil {
		return gcserr.TransientStore("job.Finish", err)
	}
	m.bus.Publish(eventbus.TopicJobFinished, j)
	return nil
}

// GetJob returns a job by id.
func (m *Manager) GetJob(jobID string) (*types.JobInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[jobID]
	return j, ok
}

// ListJobs returns every known job.
func (m *Manager) ListJobs() []*types.JobInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.JobInfo, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out
}

// Namespace resolves the namespace a job's actors are visible in, called
// by the actor manager to scope name-uniqueness checks (§4.6).
func (m *Manager) Namespace(jobID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return "", false
	}
	return j.Namespace, true
}
