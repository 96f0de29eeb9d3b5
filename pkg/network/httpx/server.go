package httpx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/logger"
	"golang.org/x/crypto/acme/autocert"
)

type Server struct {
	http.Server

	autoCert *autocert.Manager
	opts     Options

	listener *Listener
	log      *logger.Logger
}

func NewServer(address string, handler func(*Server) http.Handler, options ...Option) (*Server, error) {
	opts := &Options{
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	opts.override(options...)

	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	server := &Server{
		Server: http.Server{
			Addr:         address,
			IdleTimeout:  opts.IdleTimeout,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
		opts: *opts,
		log:  opts.Logger,
	}
	server.Handler = handler(server)

	if opts.Https && opts.IsAutoHttpsCert() {
		server.autoCert = newCertManager(opts.HttpsDomain)
		server.TLSConfig = server.autoCert.TLSConfig()
	}

	addr := server.Addr
	if addr == "" {
		addr = ":http"
		if opts.Https {
			addr = ":https"
		}
		opts.Logger.Warn().Msgf("Empty server address has been changed to %v", addr)
	}
	listener, err := NewListener(addr, opts.PortRoll)
	if err != nil {
		return nil, err
	}
	server.listener = listener

	// the real port is known only after listen
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = ""
	}
	server.Addr = net.JoinHostPort(host, strconv.Itoa(listener.GetPort()))
	opts.Logger.Info().Msgf("httpx %v", server.Addr)

	return server, nil
}

// Run starts serving in the background.
func (s *Server) Run() { go s.run() }

func (s *Server) run() {
	protocol := s.GetProtocol()
	s.log.Debug().Msgf("Starting %s server on %s", protocol, s.Addr)

	var err error
	if s.opts.Https {
		err = s.ServeTLS(s.listener, s.opts.HttpsCert, s.opts.HttpsKey)
	} else {
		err = s.Serve(s.listener)
	}
	if errors.Is(err, http.ErrServerClosed) {
		s.log.Debug().Msgf("%s server was closed", protocol)
		return
	}
	s.log.Error().Err(err).Msgf("%s server failure", protocol)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.Server.Shutdown(ctx) }

func (s *Server) GetProtocol() string {
	if s.opts.Https {
		return "https"
	}
	return "http"
}

func (s *Server) String() string { return s.GetProtocol() + "://" + s.Addr }
