package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/config"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/logger"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/monitoring"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network/httpx"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/service"
)

// InstanceId identifies this coordinator process in metrics.
var InstanceId = uuid.Must(uuid.NewV4()).String()

// Coordinator runs the relay socket server together with the hub loop
// and the optional monitoring server.
type Coordinator struct {
	hub      *Hub
	gateway  *Gateway
	server   *httpx.Server
	services service.Group
	log      *logger.Logger
}

func New(conf config.Coordinator, log *logger.Logger) (*Coordinator, error) {
	gateway := NewGateway(conf.Transport, log)
	hub := NewHub(conf, gateway, log)
	gateway.Attach(hub.Submit)

	server, err := httpx.NewServer(
		conf.Server.Address,
		func(*httpx.Server) http.Handler {
			h := http.NewServeMux()
			h.Handle(conf.Transport.Path, gateway)
			return h
		},
		httpx.WithServerConfig(conf.Server),
		httpx.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}

	c := &Coordinator{hub: hub, gateway: gateway, server: server, log: log}
	c.services.Add(&loop{hub: hub}, server)
	if conf.Monitoring.IsEnabled() {
		mon, err := monitoring.New(conf.Monitoring, log)
		if err != nil {
			_ = server.Shutdown(context.Background())
			return nil, err
		}
		c.services.Add(mon)
	}
	return c, nil
}

func (c *Coordinator) Start() {
	c.log.Info().Str("iid", InstanceId).Msgf("relay socket at %v", c.server)
	c.services.Start()
}

func (c *Coordinator) Shutdown(ctx context.Context) error {
	err := c.services.Shutdown(ctx)
	c.gateway.CloseAll()
	return err
}

func (c *Coordinator) Addr() string { return c.server.Addr }

// loop runs the hub as a service.
type loop struct {
	hub    *Hub
	cancel context.CancelFunc
}

func (l *loop) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go l.hub.Run(ctx)
}

func (l *loop) Shutdown(ctx context.Context) error {
	if l.cancel == nil {
		return nil
	}
	l.cancel()
	select {
	case <-l.hub.Done():
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("hub is still running"), ctx.Err())
	}
}

func (l *loop) String() string { return "hub" }
