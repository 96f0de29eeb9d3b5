package coordinator

import (
	"time"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network"
)

type Session struct {
	Id      string
	Host    network.Uid
	Created time.Time
}

// Directory binds active session ids to their hosts.
// Client members are tracked by topic subscriptions, not here.
type Directory struct {
	sessions map[string]Session
}

func NewDirectory() *Directory { return &Directory{sessions: make(map[string]Session)} }

func (d *Directory) Create(id string, host network.Uid, now time.Time) error {
	if _, ok := d.sessions[id]; ok {
		return ErrSessionIdInUse
	}
	d.sessions[id] = Session{Id: id, Host: host, Created: now}
	return nil
}

func (d *Directory) Lookup(id string) (network.Uid, error) {
	if s, ok := d.sessions[id]; ok {
		return s.Host, nil
	}
	return network.EmptyUid, ErrSessionNotFound
}

func (d *Directory) Has(id string) bool { _, ok := d.sessions[id]; return ok }

func (d *Directory) Destroy(id string) { delete(d.sessions, id) }

func (d *Directory) Len() int { return len(d.sessions) }

func (d *Directory) Ids() []string {
	ids := make([]string, 0, len(d.sessions))
	for id := range d.sessions {
		ids = append(ids, id)
	}
	return ids
}
