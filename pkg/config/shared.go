package config

import (
	"time"

	"github.com/spf13/pflag"
)

type Server struct {
	Address string `default:":3000"`
	Https   bool
	Tls     struct {
		Domain    string
		HttpsKey  string
		HttpsCert string
	}
	// PortRoll tries next ports when the address port is busy.
	PortRoll     bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (s *Server) WithFlags(fs *pflag.FlagSet) {
	fs.StringVar(&s.Address, "address", s.Address, "HTTP server address (host:port)")
	fs.BoolVar(&s.Https, "https", s.Https, "Serve over HTTPS")
	fs.StringVar(&s.Tls.HttpsKey, "httpsKey", s.Tls.HttpsKey, "HTTPS key")
	fs.StringVar(&s.Tls.HttpsCert, "httpsCert", s.Tls.HttpsCert, "HTTPS chain")
	fs.StringVar(&s.Tls.Domain, "httpsDomain", s.Tls.Domain, "Domain for automatic certificates")
	fs.BoolVar(&s.PortRoll, "portRoll", s.PortRoll, "Use next free port when the given one is busy")
}

type Monitoring struct {
	Port             int `default:"6601"`
	PortRoll         bool
	URLPrefix        string
	MetricEnabled    bool `fig:"metric_enabled"`
	ProfilingEnabled bool `fig:"profiling_enabled"`
}

func (c *Monitoring) IsEnabled() bool { return c.MetricEnabled || c.ProfilingEnabled }
