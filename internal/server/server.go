package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/oauth2"
	calv3 "google.golang.org/api/calendar/v3"

	"github.com/teemow/dayglance/internal/annotate"
	"github.com/teemow/dayglance/internal/calendar"
	"github.com/teemow/dayglance/internal/google"
	"github.com/teemow/dayglance/internal/instrumentation"
	"github.com/teemow/dayglance/internal/session"
)

// CalendarAPI is the aggregation surface the handlers need. The concrete
// implementation wraps the Google Calendar service; tests substitute fakes.
type CalendarAPI interface {
	Window(ctx context.Context, daysForward int) ([]*calv3.Event, error)
	FourDayView(ctx context.Context) ([]calendar.DayBucket, error)
	CalendarSamples(ctx context.Context) ([]calendar.CalendarSample, error)
}

// Config carries the dependencies of the HTTP server.
type Config struct {
	Addr      string
	OAuth     *google.OAuth
	Sessions  *session.Store
	Annotator *annotate.Service
	Logger    *slog.Logger
	Metrics   *instrumentation.Metrics
	Tracer    trace.Tracer
}

// Server serves the web API.
type Server struct {
	addr        string
	oauth       *google.OAuth
	sessions    *session.Store
	annotator   *annotate.Service
	newCalendar func(ctx context.Context, tokens *session.Tokens) (CalendarAPI, error)
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	tracer      trace.Tracer
	health      *HealthChecker

	httpServer *http.Server
	shutdown   atomic.Bool
}

// New creates the server. The calendar factory builds a per-request client
// from the session's tokens; there is no cross-request calendar state.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &instrumentation.Metrics{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("dayglance")
	}

	s := &Server{
		addr:      cfg.Addr,
		oauth:     cfg.OAuth,
		sessions:  cfg.Sessions,
		annotator: cfg.Annotator,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
	}
	s.health = NewHealthChecker(s.IsShutdown)

	s.newCalendar = func(ctx context.Context, tokens *session.Tokens) (CalendarAPI, error) {
		ts := cfg.OAuth.TokenSource(ctx, &oauth2.Token{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			TokenType:    "Bearer",
		})
		return calendar.NewClient(ctx, ts)
	}

	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /me", s.handleMe)
	mux.HandleFunc("GET /auth/google", s.handleAuthGoogle)
	mux.HandleFunc("GET /auth/google/callback", s.handleAuthCallback)
	mux.HandleFunc("GET /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /calendar/today", s.handleCalendarToday)
	mux.HandleFunc("GET /calendar/four-days", s.handleCalendarFourDays)
	mux.HandleFunc("GET /calendar/debug", s.handleCalendarDebug)
	mux.HandleFunc("POST /ai", s.handleAnnotate)

	s.health.RegisterHealthEndpoints(mux)

	return s.instrumentationMiddleware(mux)
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Store(true)
	s.health.SetReady(false)
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// IsShutdown reports whether shutdown has started.
func (s *Server) IsShutdown() bool {
	return s.shutdown.Load()
}

// responseWriter captures the status code for request metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// instrumentationMiddleware records request metrics and an access log line.
func (s *Server) instrumentationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode, duration)
		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", duration,
		)
	})
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform JSON error shape.
type errorBody struct {
	Error string `json:"error"`
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
