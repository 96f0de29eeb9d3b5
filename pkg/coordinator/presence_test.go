package coordinator

import (
	"testing"
	"time"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network"
)

func TestPresenceStale(t *testing.T) {
	t0 := time.Unix(1000, 0)
	r := NewRegistry()
	r.Connect("h")
	_ = r.RegisterHost("h", "ruby")
	for _, c := range []struct {
		id  network.Uid
		ago time.Duration
	}{{"fresh", 5 * time.Second}, {"edge", 30 * time.Second}, {"old", 31 * time.Second}} {
		r.Connect(c.id)
		_ = r.RegisterClient(c.id, "ruby", t0.Add(-c.ago))
	}

	p := NewPresence(r, 10*time.Second, 30*time.Second)
	stale := p.Stale(t0)
	if len(stale) != 1 || stale[0] != "old" {
		t.Errorf("expected only old to be stale, got %v", stale)
	}
}
