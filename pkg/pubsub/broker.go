// Package pubsub implements topic-style fan-out of packets
// over a set of connections.
package pubsub

import (
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network"
)

// Sink delivers an encoded message to a single connection.
// Deliver must not block, it returns false when the message was dropped.
type Sink interface {
	Deliver(id network.Uid, data []byte) bool
}

// Broker keeps topic subscriptions of connections.
// It is not safe for concurrent use, the owner serializes all calls.
type Broker struct {
	topics map[string]map[network.Uid]struct{}
	subs   map[network.Uid]map[string]struct{}
	sink   Sink
}

func NewBroker(sink Sink) *Broker {
	return &Broker{
		topics: make(map[string]map[network.Uid]struct{}),
		subs:   make(map[network.Uid]map[string]struct{}),
		sink:   sink,
	}
}

func (b *Broker) Subscribe(id network.Uid, topic string) {
	members, ok := b.topics[topic]
	if !ok {
		members = make(map[network.Uid]struct{})
		b.topics[topic] = members
	}
	members[id] = struct{}{}

	topics, ok := b.subs[id]
	if !ok {
		topics = make(map[string]struct{})
		b.subs[id] = topics
	}
	topics[topic] = struct{}{}
}

func (b *Broker) Unsubscribe(id network.Uid, topic string) {
	if members, ok := b.topics[topic]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(b.topics, topic)
		}
	}
	if topics, ok := b.subs[id]; ok {
		delete(topics, topic)
		if len(topics) == 0 {
			delete(b.subs, id)
		}
	}
}

// UnsubscribeAll removes the connection from every topic.
func (b *Broker) UnsubscribeAll(id network.Uid) {
	for topic := range b.subs[id] {
		b.Unsubscribe(id, topic)
	}
}

// Publish sends data to every subscriber of the topic except
// the excluded ones and returns the number of accepted deliveries.
func (b *Broker) Publish(topic string, data []byte, exclude ...network.Uid) (n int) {
	for id := range b.topics[topic] {
		if contains(exclude, id) {
			continue
		}
		if b.sink.Deliver(id, data) {
			n++
		}
	}
	return n
}

// Members lists subscribers of the topic.
func (b *Broker) Members(topic string) []network.Uid {
	members := make([]network.Uid, 0, len(b.topics[topic]))
	for id := range b.topics[topic] {
		members = append(members, id)
	}
	return members
}

func (b *Broker) IsSubscribed(id network.Uid, topic string) bool {
	_, ok := b.topics[topic][id]
	return ok
}

func (b *Broker) Topics() int { return len(b.topics) }

func contains(list []network.Uid, id network.Uid) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}
