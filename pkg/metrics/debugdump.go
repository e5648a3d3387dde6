package metrics

import (
	"time"

	"github.com/cuemby/gcsd/pkg/log"
)

// ObjectCounter is satisfied by pkg/object.Manager.
type ObjectCounter interface {
	Count() int
}

// SubscriberCounter is satisfied by eventbus.Broker. EtcdBus carries no
// equivalent subscriber count of its own, so a bus that doesn't implement
// this is simply skipped in the dump.
type SubscriberCounter interface {
	SubscriberCount() int
}

// DebugDumper logs one line per manager's debug summary on a repeating
// timer, the Go-native restatement of the upstream GCS server's
// PrintDebugInfo loop (§D): node/actor/object/placement-group/event-bus
// counts, at debug level so it's silent unless asked for.
type DebugDumper struct {
	nodes           NodeLister
	jobs            JobLister
	actors          ActorLister
	placementGroups PlacementGroupLister
	objects         ObjectCounter
	bus             interface{}
	interval        time.Duration
	stopCh          chan struct{}
}

// NewDebugDumper constructs a dumper. bus is typed interface{} since only
// some Bus implementations expose SubscriberCount.
func NewDebugDumper(nodes NodeLister, jobs JobLister, actors ActorLister, pgs PlacementGroupLister, objects ObjectCounter, bus interface{}, interval time.Duration) *DebugDumper {
	return &DebugDumper{
		nodes:           nodes,
		jobs:            jobs,
		actors:          actors,
		placementGroups: pgs,
		objects:         objects,
		bus:             bus,
		interval:        interval,
		stopCh:          make(chan struct{}),
	}
}

// Start begins the periodic dump. A non-positive interval disables the
// loop entirely rather than ticking as fast as possible.
func (d *DebugDumper) Start() {
	if d.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.dump()
			case <-d.stopCh:
				return
			}
		}
	}()
}

// Stop halts the periodic dump.
func (d *DebugDumper) Stop() {
	close(d.stopCh)
}

func (d *DebugDumper) dump() {
	logger := log.WithComponent("gcs.debugdump")
	logger.Debug().Int("count", len(d.nodes.GetAllNodes())).Msg("node manager debug info")
	logger.Debug().Int("count", len(d.jobs.ListJobs())).Msg("job manager debug info")
	logger.Debug().Int("count", len(d.actors.ListActors())).Msg("actor manager debug info")
	logger.Debug().Int("count", len(d.placementGroups.ListPlacementGroups())).Msg("placement group manager debug info")
	logger.Debug().Int("count", d.objects.Count()).Msg("object manager debug info")
	if sc, ok := d.bus.(SubscriberCounter); ok {
		logger.Debug().Int("subscribers", sc.SubscriberCount()).Msg("event bus debug info")
	}
}
