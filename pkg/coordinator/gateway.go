package coordinator

import (
	"net/http"

	gorilla "github.com/gorilla/websocket"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/com"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/config"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/logger"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network/websocket"
	"golang.org/x/time/rate"
)

// Gateway accepts websocket connections and turns them into hub events.
// It is the hub's Transport.
type Gateway struct {
	conf     config.Transport
	upgrader *gorilla.Upgrader
	conns    *com.Map[network.Uid, *websocket.WS]
	submit   func(Event) bool
	log      *logger.Logger
}

func NewGateway(conf config.Transport, log *logger.Logger) *Gateway {
	return &Gateway{
		conf:     conf,
		upgrader: websocket.NewUpgrader(conf.Origin),
		conns:    com.NewMap[network.Uid, *websocket.WS](),
		submit:   func(Event) bool { return false },
		log:      log,
	}
}

// Attach sets the receiver of connection events.
func (g *Gateway) Attach(submit func(Event) bool) { g.submit = submit }

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Debug().Err(err).Msgf("no upgrade for %v", r.RemoteAddr)
		return
	}

	id := network.NewUid()
	log := g.log.Extend(g.log.With().Str(logger.ConnField, id.Short()))
	sock := websocket.NewServer(conn, websocket.Options{
		MaxMessageSize: g.conf.MaxMessageSize,
		SendBuffer:     g.conf.SendBuffer,
		PingInterval:   g.conf.PingInterval,
		PongTimeout:    g.conf.PongTimeout,
		WriteTimeout:   g.conf.WriteTimeout,
	}, log)

	limiter := g.limiter()
	sock.OnMessage = func(message []byte) {
		if limiter != nil && !limiter.Allow() {
			throttled.Inc()
			log.Debug().Msg("message throttled")
			return
		}
		g.submit(Event{Kind: Received, Conn: id, Data: message})
	}

	// the id should be reachable before the hub replies with it
	g.conns.Put(id, sock)
	if !g.submit(Event{Kind: Connected, Conn: id}) {
		g.conns.RemoveByKey(id)
		_ = conn.Close()
		return
	}
	done := sock.Listen()
	go func() {
		<-done
		g.conns.RemoveByKey(id)
		g.submit(Event{Kind: Disconnected, Conn: id})
		log.Debug().Msg("socket closed")
	}()
}

func (g *Gateway) limiter() *rate.Limiter {
	if g.conf.RateLimit <= 0 {
		return nil
	}
	burst := g.conf.RateBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(g.conf.RateLimit), burst)
}

// Deliver queues data for the connection without blocking.
func (g *Gateway) Deliver(id network.Uid, data []byte) bool {
	sock, err := g.conns.Find(id)
	if err != nil {
		transportDrops.WithLabelValues(dropGone).Inc()
		return false
	}
	if !sock.Write(data) {
		cause := dropFull
		if sock.IsClosed() {
			cause = dropGone
		}
		transportDrops.WithLabelValues(cause).Inc()
		return false
	}
	return true
}

// Causes of undelivered messages.
const (
	dropFull = "full"
	dropGone = "gone"
)

func (g *Gateway) Close(id network.Uid) {
	if sock, err := g.conns.Find(id); err == nil {
		sock.Close()
	}
}

// CloseAll closes every open socket.
func (g *Gateway) CloseAll() { g.conns.ForEach(func(sock *websocket.WS) { sock.Close() }) }

func (g *Gateway) Len() int { return g.conns.Len() }
