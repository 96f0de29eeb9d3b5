package coordinator

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/api"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/config"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/logger"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/pubsub"
)

// Transport is what the hub needs from the network side:
// non-blocking delivery of messages and closing of links.
type Transport interface {
	pubsub.Sink
	Close(id network.Uid)
}

type EventKind uint8

const (
	Connected EventKind = iota
	Received
	Disconnected
	Tick
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Received:
		return "received"
	case Disconnected:
		return "disconnected"
	case Tick:
		return "tick"
	}
	return "?"
}

type Event struct {
	Kind EventKind
	Conn network.Uid
	// Data is a raw message of Received events.
	Data []byte
	At   time.Time
}

// Hub keeps connections, sessions and subscriptions consistent.
// All the state is owned by a single goroutine (Run) which handles
// events one by one, so nothing here is locked.
type Hub struct {
	conf      config.Coordinator
	transport Transport

	registry  *Registry
	directory *Directory
	pool      *IdPool
	broker    *pubsub.Broker
	router    *Router
	presence  *Presence

	events chan Event
	done   chan struct{}
	now    func() time.Time
	log    *logger.Logger
}

type HubOption func(h *Hub)

func WithClock(now func() time.Time) HubOption { return func(h *Hub) { h.now = now } }
func WithRand(rnd *rand.Rand) HubOption {
	return func(h *Hub) { h.pool = NewIdPool(h.conf.Session.Names, rnd) }
}

func NewHub(conf config.Coordinator, transport Transport, log *logger.Logger, opts ...HubOption) *Hub {
	queue := conf.Transport.Queue
	if queue < 1 {
		queue = 1
	}
	h := &Hub{
		conf:      conf,
		transport: transport,
		registry:  NewRegistry(),
		directory: NewDirectory(),
		broker:    pubsub.NewBroker(transport),
		events:    make(chan Event, queue),
		done:      make(chan struct{}),
		now:       time.Now,
		log:       log,
	}
	h.pool = NewIdPool(conf.Session.Names, rand.New(rand.NewSource(time.Now().UnixNano())))
	for _, opt := range opts {
		opt(h)
	}
	h.router = NewRouter(h.registry, h.directory, h.broker, log)
	h.presence = NewPresence(h.registry, conf.Presence.Interval, conf.Presence.Threshold)
	return h
}

// Submit queues an event for the loop, it blocks only when the queue is full.
// Returns false when the hub is not running anymore.
func (h *Hub) Submit(ev Event) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

// Run handles events until the context is cancelled.
// The liveness sweep ticks in the same loop.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.presence.Interval)
	defer func() {
		ticker.Stop()
		close(h.done)
		h.log.Debug().Msg("hub has stopped")
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			h.Handle(ev)
		case <-ticker.C:
			h.Handle(Event{Kind: Tick})
		}
	}
}

// Done is closed when Run exits.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Handle is the state transition function of the hub.
func (h *Hub) Handle(ev Event) {
	if ev.At.IsZero() {
		ev.At = h.now()
	}
	switch ev.Kind {
	case Connected:
		h.connect(ev.Conn)
	case Received:
		h.receive(ev.Conn, ev.Data, ev.At)
	case Disconnected:
		h.disconnect(ev.Conn, "close")
	case Tick:
		h.sweep(ev.At)
	}
	connectionsActive.Set(float64(h.registry.Len()))
	sessionsActive.Set(float64(h.directory.Len()))
}

func (h *Hub) connect(id network.Uid) {
	h.registry.Connect(id)
	h.send(id, api.AssignedId, id)
	h.log.Info().Str(logger.ConnField, id.Short()).Msgf("%v is attempting connection", id)
}

func (h *Hub) receive(id network.Uid, data []byte, now time.Time) {
	if _, err := h.registry.Find(id); err != nil {
		h.log.Debug().Str(logger.ConnField, id.Short()).Msg("message from unregistered connection")
		return
	}
	in, err := api.Decode(data)
	if err != nil {
		h.log.Warn().Err(err).Str(logger.ConnField, id.Short()).Send()
		h.send(id, api.Error, api.ErrorResponse{Message: "malformed message"})
		return
	}
	switch in.T {
	case api.Join:
		h.join(id, in.Payload, now)
	case api.ClientConnected:
		h.clientConnected(id, in.Payload, now)
	case api.RelayPayload:
		h.relay(id, in.Payload, now)
	default:
		h.log.Warn().Str(logger.ConnField, id.Short()).Msgf("unknown packet %v", in.T)
		h.send(id, api.Error, api.ErrorResponse{Message: api.ErrUnknown.Error()})
	}
}

func (h *Hub) join(id network.Uid, payload []byte, now time.Time) {
	log := h.log.Extend(h.log.With().Str(logger.ConnField, id.Short()))
	rq, err := api.Unwrap[api.JoinRequest](payload)
	if err != nil {
		log.Warn().Err(ErrMalformedJoin).Msgf("join: %v", err)
		return
	}
	sid := normalizeSessionId(rq.SessionId)
	switch strings.ToLower(strings.TrimSpace(rq.Role)) {
	case api.RoleHost:
		if len(sid) > h.conf.Session.MaxIdLength {
			log.Warn().Err(ErrMalformedJoin).Msgf("join: session id is longer than %v", h.conf.Session.MaxIdLength)
			return
		}
		h.joinHost(id, sid, log)
	case api.RoleClient:
		h.joinClient(id, sid, now, log)
	default:
		log.Warn().Err(ErrMalformedJoin).Msgf("join: role %q is not recognized", rq.Role)
	}
}

// normalizeSessionId treats serialized empty values as no id.
func normalizeSessionId(id string) string {
	id = strings.TrimSpace(id)
	if id == "undefined" || id == "null" {
		return ""
	}
	return id
}

func (h *Hub) joinHost(id network.Uid, sid string, log *logger.Logger) {
	fail := func(err error, result string) {
		log.Warn().Err(err).Str(logger.SessionField, sid).Msg("host join has failed")
		joins.WithLabelValues(Host.String(), result).Inc()
		h.send(id, api.HostConnect, api.HostConnectResponse{SessionId: sid, Error: err.Error()})
	}

	if role, _ := h.registry.RoleOf(id); role != Unassigned {
		fail(ErrDuplicateConnection, "duplicate")
		return
	}
	if sid == "" {
		var err error
		if sid, err = h.pool.Next(h.directory.Has); err != nil {
			log.Warn().Msgf("%v hosts detected, no names available", h.registry.Count(Host))
			fail(err, "exhausted")
			return
		}
	} else if h.directory.Has(sid) {
		fail(ErrSessionIdInUse, "in_use")
		return
	}

	if err := h.directory.Create(sid, id, h.now()); err != nil {
		fail(err, "in_use")
		return
	}
	if err := h.registry.RegisterHost(id, sid); err != nil {
		h.directory.Destroy(sid)
		fail(err, "duplicate")
		return
	}
	h.broker.Subscribe(id, hostTopic(sid))
	h.broker.Subscribe(id, sessionTopic(sid))
	h.send(id, api.HostConnect, api.HostConnectResponse{SessionId: sid, Status: true})

	joins.WithLabelValues(Host.String(), "ok").Inc()
	log.Info().Str(logger.SessionField, sid).
		Msgf("host added with session id %v, hosts: %v", sid, h.registry.Count(Host))
}

func (h *Hub) joinClient(id network.Uid, sid string, now time.Time, log *logger.Logger) {
	reject := func(reason string) {
		joins.WithLabelValues(Client.String(), reason).Inc()
		h.send(id, api.JoinResult, api.JoinResultResponse{Status: false})
	}

	if role, _ := h.registry.RoleOf(id); role != Unassigned {
		log.Warn().Err(ErrDuplicateConnection).Str(logger.SessionField, sid).Msg("client join has failed")
		reject("duplicate")
		return
	}
	if sid == "" || !h.directory.Has(sid) {
		log.Info().Str(logger.SessionField, sid).Msgf("session %q not found", sid)
		reject("not_found")
		return
	}
	if err := h.registry.RegisterClient(id, sid, now); err != nil {
		log.Warn().Err(err).Msg("client join has failed")
		reject("duplicate")
		return
	}
	h.broker.Subscribe(id, sessionTopic(sid))
	h.broker.Subscribe(id, clientTopic(id, sid))
	h.send(id, api.JoinResult, api.JoinResultResponse{Status: true})
	h.publish(hostTopic(sid), api.ClientConnected, api.ClientConnectedNotice{Id: id, SessionId: sid})

	joins.WithLabelValues(Client.String(), "ok").Inc()
	log.Info().Str(logger.SessionField, sid).
		Msgf("client added to session %v, clients: %v", sid, h.registry.Count(Client))
}

// clientConnected forwards a readiness notice of a client to its host.
func (h *Hub) clientConnected(id network.Uid, payload []byte, now time.Time) {
	rq, err := api.Unwrap[api.ClientConnectedRequest](payload)
	if err != nil {
		h.log.Debug().Err(err).Str(logger.ConnField, id.Short()).Msg("bad client notice")
		return
	}
	conn, _ := h.registry.Find(id)
	if conn.Role != Client || !h.directory.Has(conn.SessionId) {
		return
	}
	if sid := normalizeSessionId(rq.SessionId); sid != "" && sid != conn.SessionId {
		h.log.Debug().Str(logger.ConnField, id.Short()).Msgf("client notice for a foreign session %v", sid)
		return
	}
	h.registry.Touch(id, now)
	h.publish(hostTopic(conn.SessionId), api.ClientConnected, api.ClientConnectedNotice{Id: id, SessionId: conn.SessionId})
}

func (h *Hub) relay(id network.Uid, payload []byte, now time.Time) {
	role, _ := h.registry.RoleOf(id)
	rq, err := api.Unwrap[api.RelayRequest](payload)
	if err != nil {
		relayed.WithLabelValues(role.String(), "malformed").Inc()
		h.log.Debug().Err(err).Str(logger.ConnField, id.Short()).Msg("relay: dropped")
		return
	}
	n, err := h.router.Route(id, *rq, now)
	switch {
	case errors.Is(err, ErrUnknownSender):
		relayed.WithLabelValues(role.String(), "unknown_sender").Inc()
	case errors.Is(err, ErrSessionNotFound):
		relayed.WithLabelValues(role.String(), "no_session").Inc()
	case err != nil:
		relayed.WithLabelValues(role.String(), "error").Inc()
	default:
		relayed.WithLabelValues(role.String(), "ok").Inc()
		return
	}
	h.log.Debug().Err(err).Str(logger.ConnField, id.Short()).Msgf("relay: dropped, %v delivered", n)
}

// disconnect removes the connection and notifies the other side of its
// session. It is a no-op for unknown connections.
func (h *Hub) disconnect(id network.Uid, cause string) {
	conn, err := h.registry.Remove(id)
	if err != nil {
		return
	}
	h.broker.UnsubscribeAll(id)
	departures.WithLabelValues(conn.Role.String(), cause).Inc()

	log := h.log.Extend(h.log.With().
		Str(logger.ConnField, id.Short()).
		Str(logger.RoleField, conn.Role.String()).
		Str(logger.SessionField, conn.SessionId))

	switch conn.Role {
	case Client:
		log.Info().Msgf("client removed (%v), clients: %v", cause, h.registry.Count(Client))
		if h.directory.Has(conn.SessionId) {
			h.publish(hostTopic(conn.SessionId), api.ClientDeparted, api.ClientDepartedNotice{Id: id})
		}
	case Host:
		sid := conn.SessionId
		if owner, err := h.directory.Lookup(sid); err == nil && owner == id {
			h.directory.Destroy(sid)
		}
		h.publish(sessionTopic(sid), api.HostDeparted, api.HostDepartedNotice{SessionId: sid})
		for _, member := range h.broker.Members(sessionTopic(sid)) {
			h.broker.UnsubscribeAll(member)
			h.registry.Reset(member)
		}
		log.Info().Msgf("host with session id %v removed (%v), hosts: %v", sid, cause, h.registry.Count(Host))
	default:
		log.Debug().Msg("disconnected before join")
	}
}

func (h *Hub) sweep(now time.Time) {
	for _, id := range h.presence.Stale(now) {
		h.log.Info().Str(logger.ConnField, id.Short()).Msgf("evicting a client silent for more than %v", h.presence.Threshold)
		h.disconnect(id, "stale")
		h.transport.Close(id)
	}
}

func (h *Hub) send(id network.Uid, t api.PT, payload any) {
	data, err := api.Encode(t, payload)
	if err != nil {
		h.log.Error().Err(err).Msgf("couldn't encode %v", t)
		return
	}
	h.transport.Deliver(id, data)
}

func (h *Hub) publish(topic string, t api.PT, payload any, exclude ...network.Uid) {
	data, err := api.Encode(t, payload)
	if err != nil {
		h.log.Error().Err(err).Msgf("couldn't encode %v", t)
		return
	}
	h.broker.Publish(topic, data, exclude...)
}
