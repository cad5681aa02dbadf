package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/omote-irgen/internal/catalog"
	"github.com/nerrad567/omote-irgen/internal/infrastructure/config"
	"github.com/nerrad567/omote-irgen/internal/infrastructure/database"
	"github.com/nerrad567/omote-irgen/internal/infrastructure/logging"
	"github.com/nerrad567/omote-irgen/internal/ir"
	"github.com/nerrad567/omote-irgen/internal/metrics"
)

const tvSource = `Filetype: IR signals file
Version: 1
#
# # Sony Bravia KD-55XF80.ir
#
name: Power
type: parsed
protocol: SIRC
address: 01 00 00 00
command: 15 00 00 00
#
name: Vol_up
type: parsed
protocol: SIRC
address: 01 00 00 00
command: 12 00 00 00
#
name: Input
type: parsed
protocol: XYZZY
address: 01 00 00 00
command: 01 00 00 00
`

type testOpts struct {
	catalog bool
	metrics bool
}

// testServer creates a Server with optional in-memory catalog and metrics.
func testServer(t *testing.T, o testOpts) *Server {
	t.Helper()

	deps := Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Generator: config.Default().Generator,
		Logger:    logging.Discard(),
		Version:   "test",
	}
	if o.catalog {
		repo, err := catalog.Open(context.Background(), database.Config{Path: ":memory:", BusyTimeout: 1})
		if err != nil {
			t.Fatalf("catalog.Open() error = %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		deps.Catalog = repo
	}
	if o.metrics {
		deps.Metrics = metrics.New(false)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshalling body: %v", err)
		}
		rd = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

// ─── Construction ───────────────────────────────────────────────────

func TestNew_RequiresLogger(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger succeeded")
	}
}

func TestNew_BadRawProtocol(t *testing.T) {
	_, err := New(Deps{Logger: logging.Discard(), Generator: config.GeneratorConfig{RawProtocol: "XYZZY"}})
	if err == nil {
		t.Error("New() with unknown raw protocol succeeded")
	}
}

// ─── Health / protocols ─────────────────────────────────────────────

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name        string
		opts        testOpts
		wantCatalog any
	}{
		{"no catalog", testOpts{}, nil},
		{"with catalog", testOpts{catalog: true}, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, tt.opts)
			rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/v1/health", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := decode[map[string]any](t, rec)
			if body["status"] != "ok" || body["version"] != "test" {
				t.Errorf("body = %v", body)
			}
			if body["catalog"] != tt.wantCatalog {
				t.Errorf("catalog = %v, want %v", body["catalog"], tt.wantCatalog)
			}
		})
	}
}

func TestHandleProtocols(t *testing.T) {
	srv := testServer(t, testOpts{})
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/v1/protocols", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Protocols []ProtocolInfo `json:"protocols"`
		Count     int            `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if body.Count != len(ir.Protocols()) || len(body.Protocols) != body.Count {
		t.Fatalf("count = %d, protocols = %d, want %d", body.Count, len(body.Protocols), len(ir.Protocols()))
	}

	var sirc *ProtocolInfo
	for i := range body.Protocols {
		if body.Protocols[i].Key == "SIRC12" {
			sirc = &body.Protocols[i]
		}
	}
	if sirc == nil {
		t.Fatal("SIRC12 missing from protocol list")
	}
	want := ProtocolInfo{Key: "SIRC12", Constant: "IR_PROTOCOL_SONY12", Firmware: "SIRC", Bits: 12, DefaultRepeat: 2}
	if *sirc != want {
		t.Errorf("SIRC12 = %+v, want %+v", *sirc, want)
	}
}

// ─── Encode ─────────────────────────────────────────────────────────

func TestHandleEncode(t *testing.T) {
	srv := testServer(t, testOpts{})
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/encode", EncodeRequest{
		Name:     "Power",
		Protocol: "SIRC",
		Fields:   map[string]string{"address": "0x01", "command": "0x13"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got := decode[CodeResponse](t, rec)
	want := CodeResponse{
		Name:     "Power",
		Protocol: "SIRC12",
		Constant: "IR_PROTOCOL_SONY12",
		Hex:      "0xC90",
		WireHex:  "0x093",
		Bits:     12,
		Repeat:   2,
		Payload:  "0xC90:12:2",
		Source:   "builder",
	}
	if got != want {
		t.Errorf("response = %+v, want %+v", got, want)
	}
}

func TestHandleEncode_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unsupported protocol",
			body:       EncodeRequest{Name: "X", Protocol: "XYZZY", Fields: map[string]string{"command": "1"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ir.CodeUnsupportedProtocol,
		},
		{
			name:       "unparseable field",
			body:       EncodeRequest{Name: "X", Protocol: "NEC", Fields: map[string]string{"command": "zz"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ir.CodeFieldParse,
		},
		{
			name:       "strict range",
			body:       EncodeRequest{Name: "X", Protocol: "SIRC12", Fields: map[string]string{"address": "0x40", "command": "1"}, Strict: true},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ir.CodeFieldRange,
		},
		{
			name:       "empty record",
			body:       EncodeRequest{Name: "X", Protocol: "NEC"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ir.CodeInvalidRecord,
		},
		{
			name:       "short raw",
			body:       EncodeRequest{Name: "X", Timings: []int{9000}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ir.CodeMalformedRaw,
		},
		{
			name:       "bad json",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "bad byte order",
			body:       EncodeRequest{Name: "X", Protocol: "NEC", ByteOrder: "middle"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
	}

	srv := testServer(t, testOpts{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/encode", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			got := decode[Error](t, rec)
			if got.Code != tt.wantCode || got.Status != tt.wantStatus {
				t.Errorf("error = %+v, want code %q", got, tt.wantCode)
			}
		})
	}
}

func TestHandleEncode_MaskedByDefault(t *testing.T) {
	srv := testServer(t, testOpts{})
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/encode", EncodeRequest{
		Name: "X", Protocol: "SIRC12", Fields: map[string]string{"address": "0x41", "command": "0x13"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	// 0x41 masks to 0x01, the same frame as address 1.
	if got := decode[CodeResponse](t, rec); got.Hex != "0xC90" {
		t.Errorf("Hex = %q, want 0xC90", got.Hex)
	}
}

func TestHandleEncode_NECLSBFirst(t *testing.T) {
	srv := testServer(t, testOpts{})
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/encode", EncodeRequest{
		Name: "Power", Protocol: "NEC", Fields: map[string]string{"address": "0x00", "command": "0x10"}, NECLSBFirst: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := decode[CodeResponse](t, rec)
	if got.Hex != got.WireHex {
		t.Errorf("Hex = %q, want wire form %q", got.Hex, got.WireHex)
	}
	if got.Payload != got.WireHex+":32:0" {
		t.Errorf("Payload = %q", got.Payload)
	}
}

// ─── Generate ───────────────────────────────────────────────────────

func TestHandleGenerate(t *testing.T) {
	srv := testServer(t, testOpts{})
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/generate", GenerateRequest{
		Device:   "tv",
		Filename: "sony.ir",
		Content:  tvSource,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got := decode[GenerateResponse](t, rec)
	if got.Device != "tv" || got.Format != "omote" {
		t.Errorf("device/format = %q/%q", got.Device, got.Format)
	}
	if len(got.Codes) != 2 || got.Codes[0].Payload != "0xA90:12:2" || got.Codes[1].Payload != "0x490:12:2" {
		t.Errorf("codes = %+v", got.Codes)
	}
	wantSkip := catalog.SkippedRecord{Name: "Input", Protocol: "XYZZY", Reason: ir.CodeUnsupportedProtocol}
	if len(got.Skipped) != 1 || got.Skipped[0] != wantSkip {
		t.Errorf("skipped = %+v, want [%+v]", got.Skipped, wantSkip)
	}
	if len(got.Files) != 2 || got.Files[0].Name != "device_tv.h" || got.Files[1].Name != "device_tv.cpp" {
		t.Fatalf("files = %+v", got.Files)
	}
	if !strings.Contains(got.Files[1].Content, `"0xA90:12:2"`) {
		t.Errorf("cpp missing power payload:\n%s", got.Files[1].Content)
	}
	if got.RunID != "" {
		t.Errorf("RunID = %q without save", got.RunID)
	}
}

func TestHandleGenerate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       GenerateRequest
		wantStatus int
		wantCode   string
	}{
		{"empty content", GenerateRequest{Device: "tv"}, http.StatusBadRequest, ErrCodeBadRequest},
		{"bad format", GenerateRequest{Device: "tv", Content: tvSource, Format: "xml"}, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown source", GenerateRequest{Device: "tv", Content: "just some words"}, http.StatusUnprocessableEntity, "unknown_format"},
		{"save without catalog", GenerateRequest{Device: "tv", Content: tvSource, Save: true}, http.StatusServiceUnavailable, ErrCodeUnavailable},
		{"fail fast", GenerateRequest{Device: "tv", Filename: "tv.ir", Content: tvSource, FailFast: true}, http.StatusUnprocessableEntity, ir.CodeUnsupportedProtocol},
		{
			"nothing encodes",
			GenerateRequest{Device: "tv", Filename: "tv.ir", Content: "name: A\ntype: parsed\nprotocol: XYZZY\ncommand: 01\n"},
			http.StatusUnprocessableEntity,
			ErrCodeNoCommands,
		},
	}

	srv := testServer(t, testOpts{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/generate", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decode[Error](t, rec); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleGenerate_SaveAndList(t *testing.T) {
	srv := testServer(t, testOpts{catalog: true})
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/generate", GenerateRequest{
		Device: "tv", Filename: "sony.ir", Content: tvSource, Format: "yaml", Save: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", rec.Code, rec.Body.String())
	}
	gen := decode[GenerateResponse](t, rec)
	if gen.RunID == "" {
		t.Fatal("RunID empty after save")
	}
	if len(gen.Files) != 1 || gen.Files[0].Name != "tv.yaml" {
		t.Errorf("files = %+v", gen.Files)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/devices", nil)
	var devs struct {
		Devices []string `json:"devices"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&devs); err != nil {
		t.Fatalf("decoding devices: %v", err)
	}
	if len(devs.Devices) != 1 || devs.Devices[0] != "tv" {
		t.Errorf("devices = %v", devs.Devices)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/devices/tv/commands", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("commands status = %d", rec.Code)
	}
	var cmds struct {
		Run      catalog.Run       `json:"run"`
		Commands []catalog.Command `json:"commands"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&cmds); err != nil {
		t.Fatalf("decoding commands: %v", err)
	}
	if cmds.Run.ID != gen.RunID || cmds.Run.Format != "yaml" {
		t.Errorf("run = %+v", cmds.Run)
	}
	if len(cmds.Commands) != 2 || cmds.Commands[0].Var != "POWER" || cmds.Commands[1].Var != "VOL_UP" {
		t.Errorf("commands = %+v", cmds.Commands)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/devices/tv/runs?limit=5", nil)
	var runs struct {
		Runs  []catalog.Run `json:"runs"`
		Count int           `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatalf("decoding runs: %v", err)
	}
	if runs.Count != 1 || runs.Runs[0].Skipped != 1 {
		t.Errorf("runs = %+v", runs)
	}
}

// ─── Catalog routes ─────────────────────────────────────────────────

func TestCatalogRoutes_Errors(t *testing.T) {
	tests := []struct {
		name       string
		opts       testOpts
		path       string
		wantStatus int
	}{
		{"devices without catalog", testOpts{}, "/api/v1/devices", http.StatusServiceUnavailable},
		{"commands without catalog", testOpts{}, "/api/v1/devices/tv/commands", http.StatusServiceUnavailable},
		{"unknown device", testOpts{catalog: true}, "/api/v1/devices/nope/commands", http.StatusNotFound},
		{"bad limit", testOpts{catalog: true}, "/api/v1/devices/tv/runs?limit=0", http.StatusBadRequest},
		{"empty runs", testOpts{catalog: true}, "/api/v1/devices/tv/runs", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, tt.opts)
			rec := doRequest(t, srv.Handler(), http.MethodGet, tt.path, nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

// ─── Metrics ────────────────────────────────────────────────────────

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, testOpts{metrics: true})
	h := srv.Handler()

	doRequest(t, h, http.MethodPost, "/api/v1/encode", EncodeRequest{
		Name: "Power", Protocol: "SIRC", Fields: map[string]string{"address": "1", "command": "0x13"},
	})
	doRequest(t, h, http.MethodPost, "/api/v1/encode", EncodeRequest{
		Name: "X", Protocol: "XYZZY", Fields: map[string]string{"command": "1"},
	})

	rec := doRequest(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`irgen_encode_total{outcome="ok",protocol="SIRC12"} 1`,
		`irgen_encode_total{outcome="unsupported_protocol",protocol="UNKNOWN"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsEndpoint_NotMounted(t *testing.T) {
	srv := testServer(t, testOpts{})
	if rec := doRequest(t, srv.Handler(), http.MethodGet, "/metrics", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// ─── Middleware ─────────────────────────────────────────────────────

func TestRequestIDMiddleware(t *testing.T) {
	srv := testServer(t, testOpts{})
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/health", nil)
	if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("generated X-Request-ID = %q, want a UUID", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := testServer(t, testOpts{})
	h := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := doRequest(t, h, http.MethodGet, "/", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := decode[Error](t, rec); got.Code != ErrCodeInternal {
		t.Errorf("code = %q", got.Code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	srv := testServer(t, testOpts{})
	big := `{"name":"` + strings.Repeat("a", maxRequestBodySize) + `"}`
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/encode", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

// ─── Lifecycle ──────────────────────────────────────────────────────

func TestStartClose(t *testing.T) {
	srv := testServer(t, testOpts{})
	ctx := context.Background()

	if err := srv.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() before Start succeeded")
	}
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := srv.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/api/v1/health", srv.Addr()))
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestStart_PortInUse(t *testing.T) {
	first := testServer(t, testOpts{})
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer first.Close()

	second := testServer(t, testOpts{})
	second.cfg.Port = first.Addr().(*net.TCPAddr).Port
	if err := second.Start(context.Background()); err == nil {
		second.Close()
		t.Error("Start() on a bound port succeeded")
	}
}
