package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hl7lens/hl7lens-go/cmd/hl7lens-web/api"
	"github.com/hl7lens/hl7lens-go/pkg/definitions"
	"github.com/hl7lens/hl7lens-go/pkg/discovery"
	"github.com/hl7lens/hl7lens-go/pkg/hl7"
	"github.com/hl7lens/hl7lens-go/pkg/log"
	"github.com/hl7lens/hl7lens-go/pkg/version"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Listen       string
	Version      string
	MaxBodyBytes int64

	// Registry defaults to definitions.Default().
	Registry *definitions.Registry

	// Capture receives parse, diff and error events. Nil disables capture.
	Capture log.Logger

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Advertiser publishes the server over mDNS when set.
	Advertiser   discovery.Advertiser
	InstanceName string
}

// Server is the HTTP adapter around the parser and diff engine.
type Server struct {
	config      ServerConfig
	logger      *slog.Logger
	mux         *http.ServeMux
	handler     http.Handler
	server      *http.Server
	registry    *definitions.Registry
	analysisAPI *api.AnalysisAPI
	defsAPI     *api.DefinitionsAPI
}

// NewServer creates a new server with the given configuration.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Listen == "" {
		cfg.Listen = fmt.Sprintf(":%d", discovery.DefaultPort)
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("max body size must be positive, got %d", cfg.MaxBodyBytes)
	}
	reg := cfg.Registry
	if reg == nil {
		reg = definitions.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:      cfg,
		logger:      logger,
		mux:         http.NewServeMux(),
		registry:    reg,
		analysisAPI: api.NewAnalysisAPI(hl7.NewParserWithDefinitions(reg), cfg.Capture, cfg.MaxBodyBytes),
		defsAPI:     api.NewDefinitionsAPI(reg),
	}

	s.registerRoutes()
	s.handler = s.withRequestID(s.withLogging(s.withRecovery(s.mux)))

	s.server = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	// Analysis
	s.mux.HandleFunc("/api/parse", s.analysisAPI.HandleParse)
	s.mux.HandleFunc("/api/diff", s.analysisAPI.HandleDiff)
	s.mux.HandleFunc("/api/export", s.analysisAPI.HandleExport)

	// Service
	prefix := apiPrefix()
	s.mux.HandleFunc(prefix+"/health", s.handleHealth)
	s.mux.HandleFunc(prefix+"/definitions", s.defsAPI.HandleList)
	s.mux.HandleFunc(prefix+"/definitions/{version}/{segment}", s.defsAPI.HandleSegment)
	s.mux.HandleFunc(prefix+"/definitions/{version}/{segment}/{field}", s.defsAPI.HandleField)

	s.mux.HandleFunc("/", s.handleNotFound)
}

// apiPrefix is the route prefix of the current API major version.
func apiPrefix() string {
	v, err := version.Parse(version.Current)
	if err != nil {
		panic(err)
	}
	return version.APIPrefix(v.Major)
}

// Handler returns the server's root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.MethodNotAllowed(w, http.MethodGet)
		return
	}

	v := s.config.Version
	if v == "" {
		v = "dev"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": v,
		"api":     version.Current,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONError(w, http.StatusNotFound, "Not found", r.URL.Path)
}

// withRequestID assigns every request an ID. A well-formed incoming ID is
// kept so callers can correlate their own logs.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(api.WithRequestID(r.Context(), id)))
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.LogAttrs(r.Context(), level, "request",
			slog.String("request_id", api.RequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// withRecovery turns a handler panic into a 500 JSON response.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.logger.Error("handler panic",
					"request_id", api.RequestID(r.Context()),
					"panic", v,
					"stack", string(debug.Stack()))
				api.WriteJSONError(w, http.StatusInternalServerError, "Internal server error", fmt.Sprint(v))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. The mDNS advertisement, if configured, lives as long as the
// listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.config.Advertiser != nil {
		info := &discovery.ServiceInfo{
			InstanceName: s.config.InstanceName,
			Port:         portOf(ln.Addr()),
			APIVersion:   version.Current,
			Release:      s.config.Version,
			HL7Versions:  s.registry.Versions(),
			Path:         apiPrefix(),
		}
		if err := s.config.Advertiser.Advertise(ctx, info); err != nil {
			s.logger.Warn("mDNS advertisement failed", "error", err)
		} else {
			defer s.config.Advertiser.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func portOf(addr net.Addr) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	_, p, err := net.SplitHostPort(addr.String())
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(p)
	return n
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
