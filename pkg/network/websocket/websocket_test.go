package websocket

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/logger"
)

func echoServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := NewUpgrader("").Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("no socket, %v", err)
			return
		}
		ws := NewServer(conn, Options{}, logger.Nop())
		ws.OnMessage = func(m []byte) { ws.Write(m) }
		<-ws.Listen()
	}))
}

func TestEcho(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	client, err := NewClient(*u, Options{}, logger.Nop())
	if err != nil {
		t.Fatalf("couldn't connect: %v", err)
	}
	got := make(chan string, 3)
	client.OnMessage = func(m []byte) { got <- string(m) }
	done := client.Listen()

	for _, m := range []string{"a", "bb", `{"t":1}`} {
		if !client.Write([]byte(m)) {
			t.Fatalf("write of %v failed", m)
		}
		select {
		case v := <-got:
			if v != m {
				t.Errorf("got %v, want %v", v, m)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("no echo for %v", m)
		}
	}

	client.Close()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("socket didn't stop")
	}
	if client.Write([]byte("late")) {
		t.Errorf("write after close should fail")
	}
}

func TestWriteDoesNotBlock(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	// not listening, nothing drains the buffer
	client, err := NewClient(*u, Options{SendBuffer: 2}, logger.Nop())
	if err != nil {
		t.Fatalf("couldn't connect: %v", err)
	}
	defer func() { _ = client.conn.close() }()

	results := []bool{client.Write([]byte("1")), client.Write([]byte("2")), client.Write([]byte("3"))}
	if !results[0] || !results[1] || results[2] {
		t.Errorf("unexpected write results %v", results)
	}
}

func TestOptionDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Options
		ping time.Duration
	}{
		{name: "empty", in: Options{}, ping: pingTime},
		{name: "ping above pong", in: Options{PingInterval: time.Minute, PongTimeout: 10 * time.Second}, ping: 9 * time.Second},
		{name: "custom", in: Options{PingInterval: time.Second, PongTimeout: 2 * time.Second}, ping: time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.in
			o.defaults()
			if o.PingInterval != tt.ping {
				t.Errorf("ping %v, want %v", o.PingInterval, tt.ping)
			}
			if o.SendBuffer <= 0 || o.MaxMessageSize <= 0 || o.WriteTimeout <= 0 {
				t.Errorf("missing defaults %+v", o)
			}
		})
	}
}
