package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/omote-irgen/internal/generator"
)

var _ generator.Observer = (*Metrics)(nil)

func TestObserveEncode(t *testing.T) {
	m := New(false)

	m.ObserveEncode("SIRC12", "ok", time.Microsecond)
	m.ObserveEncode("SIRC12", "ok", 2*time.Microsecond)
	m.ObserveEncode("UNKNOWN", "unsupported_protocol", time.Microsecond)

	tests := []struct {
		protocol, outcome string
		want              float64
	}{
		{"SIRC12", "ok", 2},
		{"UNKNOWN", "unsupported_protocol", 1},
		{"NEC", "ok", 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.encodeTotal.WithLabelValues(tt.protocol, tt.outcome))
		if got != tt.want {
			t.Errorf("encode_total{%s,%s} = %v, want %v", tt.protocol, tt.outcome, got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(m.encodeDuration); n != 2 {
		t.Errorf("encode_duration_seconds series = %d, want 2", n)
	}
}

func TestObserveRun(t *testing.T) {
	m := New(false)
	at := time.Unix(1791968400, 0)

	m.ObserveRun("tv", RunOK, 12, 2, at)
	m.ObserveRun("tv", RunOK, 10, 0, at)
	m.ObserveRun("amp", RunEmpty, 0, 4, at)

	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues(RunOK)); got != 2 {
		t.Errorf("runs_total{ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.lastRunCodes.WithLabelValues("tv")); got != 10 {
		t.Errorf("last_run_codes{tv} = %v, want 10", got)
	}
	if got := testutil.ToFloat64(m.lastRunSkipped.WithLabelValues("amp")); got != 4 {
		t.Errorf("last_run_skipped{amp} = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.lastRunTime.WithLabelValues("amp")); got != 1791968400 {
		t.Errorf("last_run_timestamp_seconds{amp} = %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveEncode("NEC", "ok", time.Second)
	m.ObserveRun("tv", RunOK, 1, 0, time.Now())
}

func TestWriteTextfile(t *testing.T) {
	m := New(false)
	m.ObserveEncode("NEC", "ok", time.Microsecond)

	path := filepath.Join(t.TempDir(), "irgen.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), `irgen_encode_total{outcome="ok",protocol="NEC"} 1`) {
		t.Errorf("textfile missing encode counter:\n%s", data)
	}
}

func TestWriteTextfile_BadDir(t *testing.T) {
	m := New(false)
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "irgen.prom")); err == nil {
		t.Error("WriteTextfile() into missing dir succeeded")
	}
}

func TestHandler(t *testing.T) {
	m := New(true)
	m.ObserveRun("tv", RunOK, 3, 0, time.Now())

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	for _, want := range []string{`irgen_last_run_codes{device="tv"} 3`, "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics body missing %q", want)
		}
	}
}
