package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCommand(t *testing.T) {
	m := New()
	m.ObserveCommand("GET", 0.001)
	m.ObserveCommand("GET", 0.002)
	m.ObserveCommand("SET", 0.001)

	if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("GET")); got != 2 {
		t.Errorf("commands_total{command=GET} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("SET")); got != 1 {
		t.Errorf("commands_total{command=SET} = %v, want 1", got)
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ConnectionsTotal.Inc()
	if got := testutil.ToFloat64(b.ConnectionsTotal); got != 0 {
		t.Errorf("second instance saw %v connections", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ConnectionsActive.Inc()
	m.DecodeErrors.Inc()

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	res, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	for _, want := range []string{
		"simpleredis_connections_active 1",
		"simpleredis_decode_errors_total 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output does not contain %q", want)
		}
	}
}
