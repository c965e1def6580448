package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// value returns the sum of all samples of a counter or gauge family whose
// labels include want.
func value(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			match := true
			for k, v := range want {
				if labels[k] != v {
					match = false
				}
			}
			if !match {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveOperation("create", time.Now(), nil)
	m.ObserveOperation("create", time.Now(), errors.New("boom"))
	m.ObserveOperation("delete", time.Now(), nil)
	m.Rollback("directory")
	m.PortAllocated(true)
	m.PortAllocated(false)
	m.PortAllocated(false)
	m.PortReclaimed()
	m.SetHosts(7)
	m.WebserverCommand("reload", nil)
	m.HTTPRequest("GET", "/vhosts", 200, time.Millisecond)
	m.PanicRecovered()

	tests := []struct {
		name   string
		metric string
		labels map[string]string
		want   float64
	}{
		{"create ok", "vhostctl_operations_total", map[string]string{"operation": "create", "status": StatusOK}, 1},
		{"create error", "vhostctl_operations_total", map[string]string{"operation": "create", "status": StatusError}, 1},
		{"create durations", "vhostctl_operation_duration_seconds", map[string]string{"operation": "create"}, 2},
		{"rollback", "vhostctl_rollbacks_total", map[string]string{"stage": "directory"}, 1},
		{"reused", "vhostctl_ports_allocated_total", map[string]string{"source": "reused"}, 1},
		{"fresh", "vhostctl_ports_allocated_total", map[string]string{"source": "fresh"}, 2},
		{"reclaimed", "vhostctl_ports_reclaimed_total", nil, 1},
		{"hosts", "vhostctl_hosts", nil, 7},
		{"reload", "vhostctl_webserver_commands_total", map[string]string{"verb": "reload", "status": StatusOK}, 1},
		{"http", "vhostctl_http_requests_total", map[string]string{"endpoint": "/vhosts", "status": "200"}, 1},
		{"panics", "vhostctl_panics_recovered_total", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := value(t, reg, tt.metric, tt.labels); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.metric, got, tt.want)
			}
		})
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("create", time.Now(), nil)
	m.Rollback("config")
	m.PortAllocated(true)
	m.PortReclaimed()
	m.SetHosts(1)
	m.WebserverCommand("start", nil)
	m.HTTPRequest("GET", "/", 200, 0)
	m.PanicRecovered()
	if m.Handler() == nil {
		t.Error("nil metrics should still serve a handler")
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.PortReclaimed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "vhostctl_ports_reclaimed_total 1") {
		t.Errorf("exposition missing counter:\n%s", body)
	}
}
