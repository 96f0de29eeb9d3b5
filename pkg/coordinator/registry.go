package coordinator

import (
	"time"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network"
)

type Role uint8

const (
	Unassigned Role = iota
	Host
	Client
)

func (r Role) String() string {
	switch r {
	case Host:
		return "host"
	case Client:
		return "client"
	default:
		return "unassigned"
	}
}

// Connection is a registered transport link.
type Connection struct {
	Id        network.Uid
	Role      Role
	SessionId string
	// LastActivity is tracked for clients only.
	LastActivity time.Time
}

// Registry is the single source of truth for who is connected as what.
type Registry struct {
	conns  map[network.Uid]*Connection
	owners map[string]network.Uid
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[network.Uid]*Connection),
		owners: make(map[string]network.Uid),
	}
}

// Connect records a new connection without a role.
func (r *Registry) Connect(id network.Uid) {
	if _, ok := r.conns[id]; !ok {
		r.conns[id] = &Connection{Id: id}
	}
}

func (r *Registry) RegisterHost(id network.Uid, sessionId string) error {
	if err := r.assignable(id); err != nil {
		return err
	}
	r.conns[id] = &Connection{Id: id, Role: Host, SessionId: sessionId}
	r.owners[sessionId] = id
	return nil
}

func (r *Registry) RegisterClient(id network.Uid, sessionId string, now time.Time) error {
	if err := r.assignable(id); err != nil {
		return err
	}
	r.conns[id] = &Connection{Id: id, Role: Client, SessionId: sessionId, LastActivity: now}
	return nil
}

func (r *Registry) assignable(id network.Uid) error {
	if c, ok := r.conns[id]; ok && c.Role != Unassigned {
		return ErrDuplicateConnection
	}
	return nil
}

// Remove deletes the connection and returns its last state.
func (r *Registry) Remove(id network.Uid) (Connection, error) {
	c, ok := r.conns[id]
	if !ok {
		return Connection{}, ErrNotFound
	}
	delete(r.conns, id)
	if c.Role == Host && r.owners[c.SessionId] == id {
		delete(r.owners, c.SessionId)
	}
	return *c, nil
}

// Reset returns a client back to the unassigned state.
func (r *Registry) Reset(id network.Uid) {
	if c, ok := r.conns[id]; ok && c.Role == Client {
		r.conns[id] = &Connection{Id: id}
	}
}

func (r *Registry) Find(id network.Uid) (Connection, error) {
	if c, ok := r.conns[id]; ok {
		return *c, nil
	}
	return Connection{}, ErrNotFound
}

func (r *Registry) FindSessionByHost(id network.Uid) (string, error) {
	if c, ok := r.conns[id]; ok && c.Role == Host {
		return c.SessionId, nil
	}
	return "", ErrNotFound
}

func (r *Registry) RoleOf(id network.Uid) (Role, error) {
	if c, ok := r.conns[id]; ok {
		return c.Role, nil
	}
	return Unassigned, ErrNotFound
}

func (r *Registry) ReverseLookupSessionOwner(sessionId string) (network.Uid, error) {
	if id, ok := r.owners[sessionId]; ok {
		return id, nil
	}
	return network.EmptyUid, ErrNotFound
}

// Touch refreshes the activity time of a client.
func (r *Registry) Touch(id network.Uid, now time.Time) {
	if c, ok := r.conns[id]; ok && c.Role == Client {
		c.LastActivity = now
	}
}

// Clients calls fn for every client connection.
func (r *Registry) Clients(fn func(c Connection)) {
	for _, c := range r.conns {
		if c.Role == Client {
			fn(*c)
		}
	}
}

func (r *Registry) Count(role Role) (n int) {
	for _, c := range r.conns {
		if c.Role == role {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int { return len(r.conns) }
