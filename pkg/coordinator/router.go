package coordinator

import (
	"time"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/api"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/logger"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/pubsub"
)

func sessionTopic(sid string) string                 { return "session:" + sid }
func hostTopic(sid string) string                    { return "host:" + sid }
func clientTopic(cid network.Uid, sid string) string { return "client:" + cid.String() + ":" + sid }

// Router forwards relay payloads to the counter-party of the sender:
// clients talk to the host of their session, hosts talk to all
// the clients of the session or to a single one of them.
type Router struct {
	registry  *Registry
	directory *Directory
	broker    *pubsub.Broker
	log       *logger.Logger
}

func NewRouter(r *Registry, d *Directory, b *pubsub.Broker, log *logger.Logger) *Router {
	return &Router{registry: r, directory: d, broker: b, log: log}
}

// Route returns the number of connections the payload was handed to.
func (r *Router) Route(sender network.Uid, rq api.RelayRequest, now time.Time) (int, error) {
	conn, err := r.registry.Find(sender)
	if err != nil || conn.Role == Unassigned {
		return 0, ErrUnknownSender
	}
	if !r.directory.Has(conn.SessionId) {
		return 0, ErrSessionNotFound
	}
	if rq.SessionId != "" && rq.SessionId != conn.SessionId {
		r.log.Debug().Str(logger.ConnField, sender.Short()).
			Msgf("claimed session %v ignored for %v", rq.SessionId, conn.SessionId)
	}

	data, err := api.Encode(api.RelayPayload, api.RelayMessage{
		Id:        sender,
		SessionId: conn.SessionId,
		Data:      rq.Data,
	})
	if err != nil {
		return 0, err
	}

	switch conn.Role {
	case Client:
		r.registry.Touch(sender, now)
		return r.broker.Publish(hostTopic(conn.SessionId), data), nil
	case Host:
		if !rq.To.IsEmpty() {
			return r.broker.Publish(clientTopic(rq.To, conn.SessionId), data), nil
		}
		return r.broker.Publish(sessionTopic(conn.SessionId), data, sender), nil
	}
	return 0, ErrUnknownSender
}
