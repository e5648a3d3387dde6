// Package eventbus implements the publish path for cluster topic streams
// described in §2 and wired by pkg/listeners: "node added", "actor
// updated", "resource change", and friends. Two implementations satisfy
// Bus: Broker, an in-process channel fan-out adapted from the teacher's
// event broker, and EtcdBus, backed by the store's native pub/sub. Exactly
// one is active at runtime, selected by config.GRPCPubsubEnabled (§9).
package eventbus

import (
	"sync"
	"time"
)

// Topic identifies a cluster event stream.
type Topic string

const (
	TopicNodeAdded             Topic = "node.added"
	TopicNodeRemoved           Topic = "node.removed"
	TopicResourceChanged       Topic = "resource.changed"
	TopicJobFinished           Topic = "job.finished"
	TopicActorUpdated          Topic = "actor.updated"
	TopicPlacementGroupUpdated Topic = "placement_group.updated"
	TopicWorkerDead            Topic = "worker.dead"
	TopicObjectLocationUpdated Topic = "object_location.updated"
	TopicActorRemoved          Topic = "actor.removed"
)

// Event is one message on the bus. Payload carries the topic-specific
// typed value (e.g. *types.NodeInfo for TopicNodeAdded); listeners type
// assert according to Topic.
type Event struct {
	Topic     Topic       `json:"topic"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Subscriber is a channel that receives bus events.
type Subscriber chan *Event

// Bus is the publish/subscribe fabric every manager publishes state
// transitions through and pkg/listeners subscribes to.
type Bus interface {
	Start()
	Stop()
	Subscribe() Subscriber
	Unsubscribe(Subscriber)
	Publish(topic Topic, payload interface{})
}

// Broker is an in-process topic broker: a single dispatcher goroutine fans
// each published event out to every subscriber's buffered channel,
// dropping the event for subscribers whose buffer is full rather than
// blocking the publisher.
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a Broker; call Start before publishing.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100),
		stopCh:      make(chan struct{}),
	}
}

func (b *Broker) Start() { go b.run() }

func (b *Broker) Stop() { close(b.stopCh) }

func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := make(Subscriber, 50)
	b.subscribers[sub] = true
	return sub
}

func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

func (b *Broker) Publish(topic Topic, payload interface{}) {
	event := &Event{Topic: topic, Timestamp: time.Now(), Payload: payload}
	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// SubscriberCount reports the number of active subscribers, mostly useful
// for tests and the debug dump loop.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

var _ Bus = (*Broker)(nil)
