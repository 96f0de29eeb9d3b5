package coordinator

import (
	"time"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network"
)

// Presence finds clients which have been silent for too long.
// Hosts are never stale as only client updates are timestamped.
type Presence struct {
	registry  *Registry
	Interval  time.Duration
	Threshold time.Duration
}

func NewPresence(r *Registry, interval, threshold time.Duration) *Presence {
	return &Presence{registry: r, Interval: interval, Threshold: threshold}
}

func (p *Presence) Stale(now time.Time) (ids []network.Uid) {
	p.registry.Clients(func(c Connection) {
		if now.Sub(c.LastActivity) > p.Threshold {
			ids = append(ids, c.Id)
		}
	})
	return ids
}
