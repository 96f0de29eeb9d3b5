package config

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	Coordinator Coordinator
}

type Coordinator struct {
	Debug      bool
	Server     Server
	Monitoring Monitoring
	Presence   Presence
	Session    Session
	Transport  Transport
}

// Presence sets the liveness sweep of client connections.
type Presence struct {
	Interval  time.Duration `default:"10s"`
	Threshold time.Duration `default:"30s"`
}

type Session struct {
	// Names is the catalogue of human-readable session ids.
	Names       []string
	MaxIdLength int `default:"64"`
}

type Transport struct {
	Path           string `default:"/ws"`
	Origin         string
	MaxMessageSize int64         `default:"65536"`
	SendBuffer     int           `default:"64"`
	PingInterval   time.Duration `default:"25s"`
	PongTimeout    time.Duration `default:"60s"`
	WriteTimeout   time.Duration `default:"10s"`
	// RateLimit is the number of inbound messages per second allowed for
	// a single connection, 0 disables the limit.
	RateLimit float64 `default:"60"`
	RateBurst int     `default:"120"`
	// Queue is the size of the hub event queue.
	Queue int `default:"1024"`
}

// DefaultSessionNames are the gemstones used as session ids.
var DefaultSessionNames = []string{
	"agate", "amber", "amethyst", "barite", "beryl", "bloodstone", "coral",
	"crystal", "diamond", "emerald", "fluorite", "garnet", "goldstone",
	"jade", "jasper", "moonstone", "onyx", "opal", "pearl", "peridot",
	"quahog", "quartz", "ruby", "sapphire", "sardonyx", "sunstone",
	"tigereye", "topaz", "turquoise", "zircon",
}

// NewConfig loads the config file (see LoadConfig) and then
// applies command line flags over it.
func NewConfig(args []string) (conf Config, err error) {
	pre := pflag.NewFlagSet("pre", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	path := pre.StringP("conf", "c", "", "")
	_ = pre.Parse(args)

	if err = LoadConfig(&conf, *path); err != nil {
		return conf, fmt.Errorf("config: %w", err)
	}

	fs := pflag.NewFlagSet("coordinator", pflag.ContinueOnError)
	fs.StringP("conf", "c", *path, "Set custom configuration file directory")
	conf.Coordinator.WithFlags(fs)
	if err = fs.Parse(args); err != nil {
		return conf, err
	}

	conf.Coordinator.withDefaults()
	if err = conf.Coordinator.Validate(); err != nil {
		return conf, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}

func (c *Coordinator) WithFlags(fs *pflag.FlagSet) {
	c.Server.WithFlags(fs)
	fs.BoolVarP(&c.Debug, "debug", "d", c.Debug, "Enable debug logs")
	fs.IntVar(&c.Monitoring.Port, "monitoring.port", c.Monitoring.Port, "Monitoring server port")
	fs.DurationVar(&c.Presence.Interval, "presence.interval", c.Presence.Interval, "Client liveness sweep interval")
	fs.DurationVar(&c.Presence.Threshold, "presence.threshold", c.Presence.Threshold, "Client inactivity before eviction")
}

func (c *Coordinator) withDefaults() {
	if len(c.Session.Names) == 0 {
		c.Session.Names = DefaultSessionNames
	}
}

func (c *Coordinator) Validate() error {
	if c.Presence.Interval <= 0 || c.Presence.Threshold <= 0 {
		return errors.New("presence interval and threshold should be positive")
	}
	if c.Session.MaxIdLength < 1 {
		return errors.New("session id length should be positive")
	}
	if c.Transport.SendBuffer < 1 || c.Transport.Queue < 1 {
		return errors.New("transport buffers should be positive")
	}
	if c.Transport.RateLimit < 0 {
		return errors.New("rate limit can't be negative")
	}
	return nil
}
