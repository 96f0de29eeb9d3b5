package coordinator

import (
	"errors"
	"testing"
	"time"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/api"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/logger"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/pubsub"
)

func TestRouterErrors(t *testing.T) {
	now := time.Unix(100, 0)
	tr := newFakeTransport()
	r, d := NewRegistry(), NewDirectory()
	b := pubsub.NewBroker(tr)
	router := NewRouter(r, d, b, logger.Nop())

	r.Connect("u")
	r.Connect("orphan")
	_ = r.RegisterClient("orphan", "gone", now)
	r.Connect("h")
	_ = r.RegisterHost("h", "ruby")
	_ = d.Create("ruby", "h", now)
	b.Subscribe("h", hostTopic("ruby"))
	r.Connect("c")
	_ = r.RegisterClient("c", "ruby", now)

	tests := []struct {
		name   string
		sender string
		n      int
		err    error
	}{
		{name: "unknown", sender: "x", err: ErrUnknownSender},
		{name: "unassigned", sender: "u", err: ErrUnknownSender},
		{name: "no session", sender: "orphan", err: ErrSessionNotFound},
		{name: "client", sender: "c", n: 1},
		{name: "host without clients", sender: "h", n: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := router.Route(network.Uid(tt.sender), api.RelayRequest{Data: []byte(`{}`)}, now.Add(time.Second))
			if !errors.Is(err, tt.err) || n != tt.n {
				t.Errorf("got %v %v, want %v %v", n, err, tt.n, tt.err)
			}
		})
	}

	if c, _ := r.Find("c"); !c.LastActivity.Equal(now.Add(time.Second)) {
		t.Errorf("routing didn't refresh client activity")
	}
}
