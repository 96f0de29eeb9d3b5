package monitoring

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/config"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/logger"
)

func TestMetricsEndpoint(t *testing.T) {
	m, err := New(config.Monitoring{Port: 0, MetricEnabled: true}, logger.Nop())
	if err != nil {
		t.Fatalf("no monitoring: %v", err)
	}
	m.Run()
	defer func() { _ = m.Shutdown(context.Background()) }()

	addr := m.Addr()
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("no metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "go_goroutines") {
		t.Errorf("unexpected metrics response %v", resp.StatusCode)
	}
}

func TestPortRoll(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("couldn't listen: %v", err)
	}
	defer func() { _ = busy.Close() }()
	port := busy.Addr().(*net.TCPAddr).Port

	if _, err := New(config.Monitoring{Port: port, MetricEnabled: true}, logger.Nop()); err == nil {
		t.Fatalf("busy port should fail without port roll")
	}

	m, err := New(config.Monitoring{Port: port, PortRoll: true, MetricEnabled: true}, logger.Nop())
	if err != nil {
		t.Fatalf("no monitoring with port roll: %v", err)
	}
	defer func() { _ = m.Shutdown(context.Background()) }()

	_, p, _ := net.SplitHostPort(m.Addr())
	if p == strconv.Itoa(port) {
		t.Errorf("monitoring took the busy port %v", p)
	}
}
