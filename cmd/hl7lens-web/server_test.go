package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hl7lens/hl7lens-go/internal/config"
	"github.com/hl7lens/hl7lens-go/pkg/discovery"
	"github.com/hl7lens/hl7lens-go/pkg/log"
	"github.com/hl7lens/hl7lens-go/pkg/version"
)

const (
	sampleA = "MSH|^~\\&|SND|FAC|RCV|FAC|20240101120000||ADT^A01|MSG00001|P|2.5\nPID|1||12345^^^MR||DOE^JOHN||19800101|M\nPV1|1|I"
	sampleB = "MSH|^~\\&|SND|FAC|RCV|FAC|20240101120000||ADT^A01|MSG00001|P|2.5\nPID|1||12345^^^MR||DOE^JANE||19800101|M\nPV1|1|I\nNK1|1|DOE^MARY|SPO"
)

// recordingLogger collects capture events.
type recordingLogger struct {
	events []log.Event
}

func (r *recordingLogger) Log(e log.Event) { r.events = append(r.events, e) }

func newTestServer(t *testing.T) (*Server, *recordingLogger) {
	t.Helper()
	capture := &recordingLogger{}
	srv, err := NewServer(ServerConfig{
		Version:      "1.0.0-test",
		MaxBodyBytes: config.DefaultMaxBodyBytes,
		Capture:      capture,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return srv, capture
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(srv, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %q", resp["status"])
	}
	if resp["version"] != "1.0.0-test" {
		t.Errorf("Expected version '1.0.0-test', got %q", resp["version"])
	}
}

func TestHealthEndpointMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(srv, http.MethodPost, "/api/v1/health", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
	if w.Header().Get("Allow") != http.MethodGet {
		t.Errorf("Allow = %q", w.Header().Get("Allow"))
	}
}

func TestParseEndpoint(t *testing.T) {
	srv, capture := newTestServer(t)

	w := do(srv, http.MethodPost, "/api/parse", mustJSON(t, map[string]string{"message": sampleA}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ParsedMessage *struct {
			Version     string `json:"version"`
			MessageType string `json:"messageType"`
			ControlID   string `json:"controlId"`
			Segments    []struct {
				Name string `json:"name"`
			} `json:"segments"`
		} `json:"parsedMessage"`
		Errors []map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.ParsedMessage == nil {
		t.Fatal("Expected parsedMessage")
	}
	if resp.ParsedMessage.ControlID != "MSG00001" || resp.ParsedMessage.Version != "2.5" {
		t.Errorf("Unexpected message header: %+v", resp.ParsedMessage)
	}
	if len(resp.ParsedMessage.Segments) != 3 {
		t.Errorf("Expected 3 segments, got %d", len(resp.ParsedMessage.Segments))
	}
	if resp.Errors == nil || len(resp.Errors) != 0 {
		t.Errorf("Expected empty errors array, got %v", resp.Errors)
	}

	if len(capture.events) != 1 || capture.events[0].Parse == nil {
		t.Fatalf("Expected one parse event, got %+v", capture.events)
	}
	ev := capture.events[0]
	if ev.Source != log.SourceWeb {
		t.Errorf("Expected web source, got %v", ev.Source)
	}
	if ev.RequestID == "" || ev.RequestID != w.Header().Get(RequestIDHeader) {
		t.Errorf("Event request ID %q does not match header %q", ev.RequestID, w.Header().Get(RequestIDHeader))
	}
}

func TestParseEndpointDiagnostics(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(srv, http.MethodPost, "/api/parse", `{"message":"PID|1||12345"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if string(resp["parsedMessage"]) != "null" {
		t.Errorf("Expected null parsedMessage, got %s", resp["parsedMessage"])
	}

	var errs []struct {
		Severity string `json:"severity"`
		Type     string `json:"type"`
	}
	if err := json.Unmarshal(resp["errors"], &errs); err != nil {
		t.Fatal(err)
	}
	if len(errs) != 1 || errs[0].Severity != "critical" || errs[0].Type != "critical" {
		t.Errorf("Expected one critical diagnostic, got %+v", errs)
	}
}

func TestParseEndpointMLLPFramed(t *testing.T) {
	srv, _ := newTestServer(t)

	framed := "\x0b" + strings.ReplaceAll(sampleA, "\n", "\r") + "\r\x1c\r"
	w := do(srv, http.MethodPost, "/api/parse", mustJSON(t, map[string]string{"message": framed}))

	var resp segmentsOnly
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ParsedMessage == nil || len(resp.ParsedMessage.Segments) != 3 {
		t.Errorf("Expected 3 segments from framed input, got %s", w.Body.String())
	}
}

// segmentsOnly decodes just the segment list of a parse response.
type segmentsOnly struct {
	ParsedMessage *struct {
		Segments []json.RawMessage `json:"segments"`
	} `json:"parsedMessage"`
}

func TestParseEndpointBadRequests(t *testing.T) {
	srv, capture := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing message", `{}`, "HL7 message is required and must be a string."},
		{"non-string message", `{"message": 42}`, "HL7 message is required and must be a string."},
		{"empty message", `{"message": ""}`, "HL7 message is required and must be a string."},
		{"invalid JSON", `{"message": `, "Invalid JSON in request body."},
		{"not an object", `["MSH"]`, "Invalid JSON in request body."},
		{"null body", `null`, "Invalid JSON in request body."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(srv, http.MethodPost, "/api/parse", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp["error"] != tt.want {
				t.Errorf("error = %q, want %q", resp["error"], tt.want)
			}
		})
	}

	for _, e := range capture.events {
		if e.Error == nil || e.Error.Code == nil || *e.Error.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 error events, got %+v", e)
		}
	}
}

func TestParseEndpointMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(srv, http.MethodGet, "/api/parse", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Expected JSON error body, got %q", w.Header().Get("Content-Type"))
	}
}

func TestParseEndpointBodyLimit(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		MaxBodyBytes: 64,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	w := do(srv, http.MethodPost, "/api/parse", mustJSON(t, map[string]string{"message": sampleA}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Request body too large.") {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}
}

func TestDiffEndpoint(t *testing.T) {
	srv, capture := newTestServer(t)

	body := mustJSON(t, map[string]string{"messageA": sampleA, "messageB": sampleB})
	w := do(srv, http.MethodPost, "/api/diff", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Diff struct {
			Segments []struct {
				SegmentName string `json:"segmentName"`
				Type        string `json:"type"`
			} `json:"segments"`
		} `json:"diff"`
		Summary struct {
			Added    int `json:"added"`
			Removed  int `json:"removed"`
			Modified int `json:"modified"`
			Common   int `json:"common"`
		} `json:"summary"`
		ErrorsA []json.RawMessage `json:"errorsA"`
		ErrorsB []json.RawMessage `json:"errorsB"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Summary.Added != 1 || resp.Summary.Modified != 1 || resp.Summary.Common != 2 {
		t.Errorf("Unexpected summary: %+v", resp.Summary)
	}
	if len(resp.Diff.Segments) != 4 {
		t.Errorf("Expected 4 segment diffs, got %d", len(resp.Diff.Segments))
	}
	if resp.ErrorsA == nil || resp.ErrorsB == nil {
		t.Error("errorsA and errorsB must be arrays")
	}

	// Two parses and one diff, all tagged with the same request.
	if len(capture.events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(capture.events))
	}
	if capture.events[2].Diff == nil {
		t.Fatalf("Expected diff event last, got %+v", capture.events[2])
	}
	id := w.Header().Get(RequestIDHeader)
	for _, e := range capture.events {
		if e.RequestID != id {
			t.Errorf("Event request ID %q, want %q", e.RequestID, id)
		}
	}
}

func TestDiffEndpointOneSide(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(srv, http.MethodPost, "/api/diff", mustJSON(t, map[string]string{"messageB": sampleA}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Summary struct {
			Added int `json:"added"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Summary.Added != 3 {
		t.Errorf("Expected all 3 segments added, got %d", resp.Summary.Added)
	}
}

func TestDiffEndpointBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, body := range []string{`{}`, `{"messageA": 1}`, `{"messageA": "", "messageB": null}`} {
		w := do(srv, http.MethodPost, "/api/diff", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", body, w.Code)
		}
	}
}

func TestExportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := mustJSON(t, map[string]any{"message": sampleA, "format": "csv", "includeRaw": false})
	w := do(srv, http.MethodPost, "/api/export", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != "text/csv" {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	disp := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(disp, `attachment; filename="hl7-message-`) || !strings.HasSuffix(disp, `.csv"`) {
		t.Errorf("Content-Disposition = %q", disp)
	}
	if !strings.HasPrefix(w.Body.String(), "Segment,Field,Value") {
		t.Errorf("Unexpected CSV:\n%s", w.Body.String())
	}
}

func TestExportEndpointErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(srv, http.MethodPost, "/api/export", mustJSON(t, map[string]string{"message": sampleA, "format": "pdf"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad format: expected 400, got %d", w.Code)
	}

	w = do(srv, http.MethodPost, "/api/export", mustJSON(t, map[string]any{"message": sampleA, "includeRaw": "yes"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad includeRaw: expected 400, got %d", w.Code)
	}

	w = do(srv, http.MethodPost, "/api/export", mustJSON(t, map[string]string{"message": "garbage"}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("unparseable: expected 422, got %d", w.Code)
	}
}

func TestDefinitionsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(srv, http.MethodGet, "/api/v1/definitions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var list struct {
		Versions []struct {
			Version  string   `json:"version"`
			Segments []string `json:"segments"`
		} `json:"versions"`
		Default string `json:"default"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Default != "2.5" || len(list.Versions) == 0 {
		t.Errorf("Unexpected definitions list: %+v", list)
	}

	w = do(srv, http.MethodGet, "/api/v1/definitions/2.9/pid", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var seg struct {
		Segment         string `json:"segment"`
		ResolvedVersion string `json:"resolvedVersion"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &seg); err != nil {
		t.Fatal(err)
	}
	if seg.Segment != "PID" || seg.ResolvedVersion != "2.5" {
		t.Errorf("Unexpected segment response: %+v", seg)
	}

	if w = do(srv, http.MethodGet, "/api/v1/definitions/2.5/PID/5", ""); w.Code != http.StatusOK {
		t.Errorf("field: expected 200, got %d", w.Code)
	}
	if w = do(srv, http.MethodGet, "/api/v1/definitions/2.5/ZZZ", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown segment: expected 404, got %d", w.Code)
	}
	if w = do(srv, http.MethodGet, "/api/v1/definitions/2.5/PID/x", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad index: expected 400, got %d", w.Code)
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(srv, http.MethodGet, "/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(srv, http.MethodGet, "/api/v1/health", "")
	if _, err := uuid.Parse(w.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("Expected generated UUID, got %q", w.Header().Get(RequestIDHeader))
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != id {
		t.Errorf("Expected incoming ID to be kept, got %q", rec.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) == "not a uuid" {
		t.Error("Expected malformed ID to be replaced")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var logs bytes.Buffer
	srv, err := NewServer(ServerConfig{
		MaxBodyBytes: config.DefaultMaxBodyBytes,
		Logger:       slog.New(slog.NewTextHandler(&logs, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	srv.mux.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	w := do(srv, http.MethodGet, "/panic", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] != "Internal server error" || resp["details"] != "boom" {
		t.Errorf("Unexpected body: %v", resp)
	}
	if !strings.Contains(logs.String(), "handler panic") || !strings.Contains(logs.String(), "status=500") {
		t.Errorf("Expected panic and request log lines, got:\n%s", logs.String())
	}
}

func TestNewServerRejectsZeroBodyLimit(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); err == nil {
		t.Error("Expected error for zero body limit")
	}
}

// fakeAdvertiser records advertisements.
type fakeAdvertiser struct {
	info    *discovery.ServiceInfo
	stopped bool
}

func (f *fakeAdvertiser) Advertise(_ context.Context, info *discovery.ServiceInfo) error {
	f.info = info
	return nil
}

func (f *fakeAdvertiser) Update(info *discovery.ServiceInfo) error {
	f.info = info
	return nil
}

func (f *fakeAdvertiser) Stop() error {
	f.stopped = true
	return nil
}

func TestAPIPrefixFollowsCurrentVersion(t *testing.T) {
	v, err := version.Parse(version.Current)
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("/api/v%d", v.Major)
	if got := apiPrefix(); got != want {
		t.Errorf("apiPrefix() = %q, want %q", got, want)
	}

	srv, _ := newTestServer(t)
	for _, path := range []string{want + "/health", want + "/definitions"} {
		if w := do(srv, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("GET %s: status %d", path, w.Code)
		}
	}
}

func TestServeAdvertisesAndShutsDown(t *testing.T) {
	adv := &fakeAdvertiser{}
	srv, err := NewServer(ServerConfig{
		Version:      "test",
		MaxBodyBytes: config.DefaultMaxBodyBytes,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Advertiser:   adv,
		InstanceName: "hl7lens-test",
	})
	if err != nil {
		t.Fatal(err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if adv.info == nil || adv.info.Port != port || adv.info.InstanceName != "hl7lens-test" {
		t.Errorf("Unexpected advertisement: %+v", adv.info)
	}
	if len(adv.info.HL7Versions) == 0 {
		t.Error("Expected HL7 versions in advertisement")
	}
	if adv.info.Path != "/api/v1" {
		t.Errorf("Expected advertised path /api/v1, got %q", adv.info.Path)
	}
	if !adv.stopped {
		t.Error("Expected advertiser to be stopped")
	}
}

func TestServerCaptureToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.hlog")
	fl, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	srv, err := NewServer(ServerConfig{
		MaxBodyBytes: config.DefaultMaxBodyBytes,
		Capture:      log.NewMultiLogger(fl, nil),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	do(srv, http.MethodPost, "/api/parse", mustJSON(t, map[string]string{"message": sampleA}))
	if err := fl.Close(); err != nil {
		t.Fatal(err)
	}

	source := log.SourceWeb
	r, err := log.NewFilteredReader(path, log.Filter{Source: &source, ControlID: "MSG00001"})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	events, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("Expected 1 captured event, got %d", len(events))
	}
}
