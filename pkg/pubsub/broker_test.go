package pubsub

import (
	"testing"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network"
)

type sink struct {
	got  map[network.Uid][]string
	full map[network.Uid]bool
}

func newSink() *sink { return &sink{got: map[network.Uid][]string{}, full: map[network.Uid]bool{}} }

func (s *sink) Deliver(id network.Uid, data []byte) bool {
	if s.full[id] {
		return false
	}
	s.got[id] = append(s.got[id], string(data))
	return true
}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	s := newSink()
	b := NewBroker(s)
	b.Subscribe("1", "session:ruby")
	b.Subscribe("2", "session:ruby")

	if n := b.Publish("session:ruby", []byte("hello")); n != 2 {
		t.Fatalf("expected 2 deliveries, got %v", n)
	}
	if len(s.got["1"]) != 1 || len(s.got["2"]) != 1 || s.got["1"][0] != "hello" {
		t.Errorf("wrong deliveries: %v", s.got)
	}
}

func TestPublishExcludes(t *testing.T) {
	s := newSink()
	b := NewBroker(s)
	b.Subscribe("host", "session:ruby")
	b.Subscribe("1", "session:ruby")

	b.Publish("session:ruby", []byte("x"), "host")

	if len(s.got["host"]) != 0 {
		t.Errorf("excluded subscriber has got a message")
	}
	if len(s.got["1"]) != 1 {
		t.Errorf("subscriber has no message")
	}
}

func TestPublishDoesNotDeliverToOtherTopics(t *testing.T) {
	s := newSink()
	b := NewBroker(s)
	b.Subscribe("1", "session:ruby")
	b.Subscribe("2", "session:opal")

	b.Publish("session:ruby", []byte("x"))

	if len(s.got["2"]) != 0 {
		t.Errorf("opal subscriber should not receive ruby messages")
	}
}

func TestPublishCountsDrops(t *testing.T) {
	s := newSink()
	s.full["2"] = true
	b := NewBroker(s)
	b.Subscribe("1", "t")
	b.Subscribe("2", "t")

	if n := b.Publish("t", []byte("x")); n != 1 {
		t.Errorf("expected 1 accepted delivery, got %v", n)
	}
}

func TestUnsubscribeCleansUp(t *testing.T) {
	b := NewBroker(newSink())
	b.Subscribe("1", "a")
	b.Subscribe("1", "b")
	b.Subscribe("2", "b")

	b.Unsubscribe("1", "a")
	if b.IsSubscribed("1", "a") {
		t.Errorf("still subscribed")
	}
	if b.Topics() != 1 {
		t.Errorf("empty topic should be removed, have %v topics", b.Topics())
	}

	b.UnsubscribeAll("1")
	if members := b.Members("b"); len(members) != 1 || members[0] != "2" {
		t.Errorf("wrong members after unsubscribe: %v", members)
	}

	// no-op twice
	b.UnsubscribeAll("1")
	b.Unsubscribe("3", "zzz")
}
