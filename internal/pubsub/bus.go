package pubsub

import (
	"context"
	"sync"
)

// Topic names a stream of chat events.
type Topic string

const (
	TopicMessageReceived     Topic = "MESSAGE_RECEIVED"
	TopicConversationUpdated Topic = "CONVERSATION_UPDATED"
)

// Event is one published payload.
type Event struct {
	Topic   Topic
	Payload interface{}
}

// FilterFunc decides whether a payload is yielded to a subscriber.
type FilterFunc func(payload interface{}) bool

// Bus is an in-process publish/subscribe channel. The interface is the
// substitution point for a networked broker in a multi-instance deployment.
type Bus interface {
	Publish(topic Topic, payload interface{})
	Subscribe(ctx context.Context, topic Topic, filter FilterFunc) (<-chan Event, func())
}

// LocalBus delivers events to subscribers within this process. Delivery is
// at-most-once per subscriber in publish order; a subscriber that attaches
// after a publish never sees it.
type LocalBus struct {
	mu          sync.RWMutex
	subscribers map[Topic]map[int64]*subscriber
	nextID      int64
	bufferSize  int
}

type subscriber struct {
	id     int64
	stream chan Event
	filter FilterFunc
	done   chan struct{}
}

func NewLocalBus() *LocalBus {
	return &LocalBus{
		subscribers: make(map[Topic]map[int64]*subscriber),
		bufferSize:  16,
	}
}

// Publish fans payload out to every current subscriber of topic. Slow
// subscribers with a full buffer miss the event rather than block the
// publisher.
func (b *LocalBus) Publish(topic Topic, payload interface{}) {
	b.mu.RLock()
	current := b.subscribers[topic]
	if len(current) == 0 {
		b.mu.RUnlock()
		return
	}
	copies := make([]*subscriber, 0, len(current))
	for _, sub := range current {
		copies = append(copies, sub)
	}
	b.mu.RUnlock()

	event := Event{Topic: topic, Payload: payload}
	for _, sub := range copies {
		if sub.filter != nil && !sub.filter(payload) {
			continue
		}
		select {
		case sub.stream <- event:
		default:
		}
	}
}

// Subscribe attaches a consumer to topic. The returned cleanup detaches it;
// cancellation of ctx does the same. After detach no further events are
// delivered and the filter closure is released.
func (b *LocalBus) Subscribe(ctx context.Context, topic Topic, filter FilterFunc) (<-chan Event, func()) {
	sub := &subscriber{
		id:     b.nextSequence(),
		stream: make(chan Event, b.bufferSize),
		filter: filter,
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	if _, ok := b.subscribers[topic]; !ok {
		b.subscribers[topic] = make(map[int64]*subscriber)
	}
	b.subscribers[topic][sub.id] = sub
	b.mu.Unlock()

	cleanup := func() {
		b.unregister(topic, sub.id)
	}
	// The waiter exits on explicit cleanup too; it must not pin ctx for the
	// lifetime of a long-lived context.
	go func() {
		select {
		case <-ctx.Done():
			cleanup()
		case <-sub.done:
		}
	}()

	return sub.stream, cleanup
}

func (b *LocalBus) nextSequence() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return b.nextID
}

// unregister detaches the subscriber and releases its context waiter. Only
// the call that removes the entry closes done, so repeated cleanup is safe.
func (b *LocalBus) unregister(topic Topic, id int64) {
	b.mu.Lock()
	subs := b.subscribers[topic]
	if subs != nil {
		if sub, ok := subs[id]; ok {
			delete(subs, id)
			close(sub.done)
			if len(subs) == 0 {
				delete(b.subscribers, topic)
			}
		}
	}
	b.mu.Unlock()
}
