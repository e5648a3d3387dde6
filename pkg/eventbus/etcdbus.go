package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const etcdBusPrefix = "/gcsd/events/"

// EtcdBus publishes events as new keys under etcdBusPrefix and translates
// etcd's Watch stream back into Bus events, the same way
// beinian555-titan's WatchJobs turns a Watch into a typed JobEvent channel.
// Publish never blocks on subscriber delivery: it is a single etcd Put,
// after which every live Watch (one per Subscribe call) observes it
// independently.
type EtcdBus struct {
	client *clientv3.Client
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs map[Subscriber]context.CancelFunc
}

// NewEtcdBus wraps an existing etcd client (typically the one backing
// store.EtcdStore, so both share a connection).
func NewEtcdBus(client *clientv3.Client) *EtcdBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &EtcdBus{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[Subscriber]context.CancelFunc),
	}
}

func (e *EtcdBus) Start() {}

func (e *EtcdBus) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for sub, cancel := range e.subs {
		cancel()
		close(sub)
	}
	e.subs = make(map[Subscriber]context.CancelFunc)
	e.cancel()
}

func (e *EtcdBus) Subscribe() Subscriber {
	sub := make(Subscriber, 50)
	ctx, cancel := context.WithCancel(e.ctx)

	e.mu.Lock()
	e.subs[sub] = cancel
	e.mu.Unlock()

	watchCh := e.client.Watch(ctx, etcdBusPrefix, clientv3.WithPrefix())
	go func() {
		for resp := range watchCh {
			for _, kvEvent := range resp.Events {
				if kvEvent.Type != clientv3.EventTypePut {
					continue
				}
				var event Event
				if err := json.Unmarshal(kvEvent.Kv.Value, &event); err != nil {
					continue
				}
				select {
				case sub <- &event:
				default:
				}
			}
		}
	}()

	return sub
}

func (e *EtcdBus) Unsubscribe(sub Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cancel, ok := e.subs[sub]
	if !ok {
		return
	}
	cancel()
	delete(e.subs, sub)
	close(sub)
}

func (e *EtcdBus) Publish(topic Topic, payload interface{}) {
	event := &Event{Topic: topic, Timestamp: time.Now(), Payload: payload}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	key := etcdBusPrefix + string(topic) + "/" + uuid.NewString()
	_, _ = e.client.Put(e.ctx, key, string(data))
}

var _ Bus = (*EtcdBus)(nil)
