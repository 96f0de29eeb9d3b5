package httpx

import (
	"net/http"
	"testing"
	"time"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/config"
)

func TestWithServerConfig(t *testing.T) {
	tests := []struct {
		name string
		conf config.Server
		want Options
	}{
		{name: "defaults kept", conf: config.Server{}, want: Options{ReadTimeout: time.Second, WriteTimeout: time.Second}},
		{name: "port roll", conf: config.Server{PortRoll: true}, want: Options{PortRoll: true, ReadTimeout: time.Second, WriteTimeout: time.Second}},
		{name: "timeouts", conf: config.Server{ReadTimeout: time.Minute, WriteTimeout: 2 * time.Minute},
			want: Options{ReadTimeout: time.Minute, WriteTimeout: 2 * time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{ReadTimeout: time.Second, WriteTimeout: time.Second}
			opts.override(WithServerConfig(tt.conf))
			if opts != tt.want {
				t.Errorf("got %+v, want %+v", opts, tt.want)
			}
		})
	}
}

func TestServerPortRoll(t *testing.T) {
	busy, err := NewListener("127.0.0.1:0", false)
	if err != nil {
		t.Fatalf("couldn't listen: %v", err)
	}
	defer func() { _ = busy.Close() }()

	conf := config.Server{Address: busy.Addr().String(), PortRoll: true}
	s, err := NewServer(conf.Address, func(*Server) http.Handler { return http.NotFoundHandler() }, WithServerConfig(conf))
	if err != nil {
		t.Fatalf("no server: %v", err)
	}
	defer func() { _ = s.listener.Close() }()
	if s.listener.GetPort() == busy.GetPort() {
		t.Errorf("server took the busy port")
	}
}
