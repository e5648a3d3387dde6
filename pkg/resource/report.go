package resource

import (
	"sync"
	"time"

	"github.com/cuemby/gcsd/pkg/log"
	"github.com/cuemby/gcsd/pkg/types"
)

// ReportFetcher pulls one node's current resource usage, implemented by
// the RPC layer's client to that node's resource-report RPC (§6
// NodeResourceInfo).
type ReportFetcher func(nodeID string) (*ReportDelta, error)

// ReportDelta is a raw resource-report sample before it is turned into a
// types.ResourceView.
type ReportDelta struct {
	NodeID    string
	Available types.Resources
	Total     types.Resources
}

func (d *ReportDelta) toView() *types.ResourceView {
	return &types.ResourceView{
		NodeID:       d.NodeID,
		Total:        d.Total,
		Available:    d.Available,
		LastReportAt: time.Now(),
	}
}

// Poller pulls a resource report from every known alive node on a fixed
// interval, grounded on the teacher's ticker-driven scheduler.Scheduler.run
// shape. It runs only when broadcast mode is off; the Broadcaster takes its
// place otherwise (§4.4, §9).
type Poller struct {
	mgr      *Manager
	fetch    ReportFetcher
	nodeIDs  func() []string
	interval time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewPoller constructs a poller. nodeIDs should return the node manager's
// current alive set on each tick.
func NewPoller(mgr *Manager, fetch ReportFetcher, nodeIDs func() []string, interval time.Duration) *Poller {
	return &Poller{mgr: mgr, fetch: fetch, nodeIDs: nodeIDs, interval: interval}
}

// HandleNodeAdded is a no-op hook kept symmetric with Broadcaster so both
// satisfy the same event-listener installer shape (§4.8); the poller
// already re-derives its node list from nodeIDs() on every tick.
func (p *Poller) HandleNodeAdded(nodeID string) {}

// HandleNodeRemoved is likewise a no-op; the next tick simply stops asking
// a node that is no longer alive.
func (p *Poller) HandleNodeRemoved(nodeID string) {}

// Start begins polling on its own goroutine.
func (p *Poller) Start() {
	p.mu.Lock()
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()
	go p.run()
}

// Stop halts polling and waits for the loop to exit. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
	p.mu.Lock()
	p.stopCh = nil
	p.mu.Unlock()
}

func (p *Poller) run() {
	defer close(p.doneCh)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.pollOnce()
		case <-p.stopCh:
			return
		}
	}
}

func (p *Poller) pollOnce() {
	for _, nodeID := range p.nodeIDs() {
		delta, err := p.fetch(nodeID)
		if err != nil {
			pollLog := log.WithComponent("resource.poller")
			pollLog.Warn().Str("node_id", nodeID).Err(err).Msg("resource report fetch failed")
			continue
		}
		p.mgr.ReportResources(delta.toView())
	}
}

// Broadcaster receives resource reports pushed by nodes and applies them
// directly; unlike the poller it does not drive outbound calls, so it has
// no ticker of its own. It only exists when
// config.GRPCBasedResourceBroadcast is set — push and poll are mutually
// exclusive (§4.4, §9), but both share the node-added/node-removed
// bookkeeping shape so pkg/listeners wires either one identically.
type Broadcaster struct {
	mgr *Manager
}

// NewBroadcaster constructs a broadcaster bound to mgr.
func NewBroadcaster(mgr *Manager) *Broadcaster {
	return &Broadcaster{mgr: mgr}
}

// HandlePush applies a report a node pushed on its own schedule.
func (b *Broadcaster) HandlePush(delta *ReportDelta) {
	b.mgr.ReportResources(delta.toView())
}

// HandleNodeAdded is a no-op: broadcast mode is passive, it has nothing to
// arm when a node joins.
func (b *Broadcaster) HandleNodeAdded(nodeID string) {}

// HandleNodeRemoved is a no-op for the same reason.
func (b *Broadcaster) HandleNodeRemoved(nodeID string) {}
