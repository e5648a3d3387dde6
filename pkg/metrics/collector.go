package metrics

import (
	"strconv"
	"time"

	"github.com/cuemby/gcsd/pkg/types"
)

// NodeLister is satisfied by pkg/node.Manager.
type NodeLister interface {
	GetAllNodes() []*types.NodeInfo
}

// JobLister is satisfied by pkg/job.Manager.
type JobLister interface {
	ListJobs() []*types.JobInfo
}

// ActorLister is satisfied by pkg/actor.Manager.
type ActorLister interface {
	ListActors() []*types.Actor
}

// PlacementGroupLister is satisfied by pkg/placementgroup.Manager.
type PlacementGroupLister interface {
	ListPlacementGroups() []*types.PlacementGroup
}

// Collector periodically snapshots every manager's table into the
// registered gauges, following the teacher's pkg/metrics/collector.go
// ticker-driven collect() shape.
type Collector struct {
	nodes           NodeLister
	jobs            JobLister
	actors          ActorLister
	placementGroups PlacementGroupLister
	interval        time.Duration
	stopCh          chan struct{}
}

// NewCollector constructs a collector. interval should be
// config.CollectStatsInterval(), half the metrics-report interval per
// the upstream GCS server's own stats-collection timer.
func NewCollector(nodes NodeLister, jobs JobLister, actors ActorLister, pgs PlacementGroupLister, interval time.Duration) *Collector {
	return &Collector{nodes: nodes, jobs: jobs, actors: actors, placementGroups: pgs, interval: interval, stopCh: make(chan struct{})}
}

// Start begins periodic collection, collecting once immediately.
func (c *Collector) Start() {
	go func() {
		c.collect()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop halts periodic collection.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectNodes()
	c.collectJobs()
	c.collectActors()
	c.collectPlacementGroups()
}

func (c *Collector) collectNodes() {
	counts := map[types.NodeState]int{}
	for _, n := range c.nodes.GetAllNodes() {
		counts[n.State]++
	}
	NodesTotal.Reset()
	for state, count := range counts {
		NodesTotal.WithLabelValues(string(state)).Set(float64(count))
	}
}

func (c *Collector) collectJobs() {
	counts := map[bool]int{}
	for _, j := range c.jobs.ListJobs() {
		counts[j.IsDead]++
	}
	JobsTotal.Reset()
	for isDead, count := range counts {
		JobsTotal.WithLabelValues(strconv.FormatBool(isDead)).Set(float64(count))
	}
}

func (c *Collector) collectActors() {
	counts := map[types.ActorState]int{}
	pending := 0
	for _, a := range c.actors.ListActors() {
		counts[a.State]++
		if a.State == types.ActorPendingCreation && a.NodeID == "" {
			pending++
		}
	}
	ActorsTotal.Reset()
	for state, count := range counts {
		ActorsTotal.WithLabelValues(string(state)).Set(float64(count))
	}
	PendingActorsTotal.Set(float64(pending))
}

func (c *Collector) collectPlacementGroups() {
	counts := map[types.PlacementGroupState]int{}
	for _, pg := range c.placementGroups.ListPlacementGroups() {
		counts[pg.State]++
	}
	PlacementGroupsTotal.Reset()
	for state, count := range counts {
		PlacementGroupsTotal.WithLabelValues(string(state)).Set(float64(count))
	}
}
