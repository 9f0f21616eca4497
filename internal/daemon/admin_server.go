package daemon

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
	"git.home.luguber.info/inful/rosterwatch/internal/logfields"
	"git.home.luguber.info/inful/rosterwatch/internal/metrics"
	"git.home.luguber.info/inful/rosterwatch/internal/version"
)

// HealthStatus represents the overall health of the daemon.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusStarting HealthStatus = "starting"
	HealthStatusDegraded HealthStatus = "degraded"
)

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Uptime    string       `json:"uptime"`
	Version   string       `json:"version"`
	Phase     Phase        `json:"phase,omitempty"`
}

// AdminServer serves /healthz, /status and /metrics.
type AdminServer struct {
	addr      string
	board     *StatusBoard
	heartbeat *Heartbeat
	registry  *prom.Registry
	errs      *errors.HTTPErrorAdapter
	server    *http.Server
	listener  net.Listener
	started   time.Time
}

// NewAdminServer creates the server. heartbeat and registry may be nil.
func NewAdminServer(addr string, board *StatusBoard, heartbeat *Heartbeat, registry *prom.Registry) *AdminServer {
	return &AdminServer{
		addr:      addr,
		board:     board,
		heartbeat: heartbeat,
		registry:  registry,
		errs:      errors.NewHTTPErrorAdapter(slog.Default()),
		started:   time.Now(),
	}
}

// Handler returns the routed handler wrapped with request logging.
func (s *AdminServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	if s.registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(s.registry))
	}
	return requestLogger(mux)
}

// Start listens on addr and serves in the background.
func (s *AdminServer) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.DaemonError("failed to bind admin server").
			WithCause(err).
			WithContext("addr", s.addr).
			Build()
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("Admin server failed", logfields.Error(err))
		}
	}()
	slog.Info("Admin server listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *AdminServer) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *AdminServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Version:   version.Version,
	}
	snap := s.board.Load()
	switch {
	case snap == nil || snap.Phase == PhaseStarting:
		resp.Status = HealthStatusStarting
	case s.heartbeat != nil && s.heartbeat.Stalled(snap):
		resp.Status = HealthStatusDegraded
	}
	if snap != nil {
		resp.Phase = snap.Phase
	}

	code := http.StatusOK
	if resp.Status == HealthStatusDegraded {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (s *AdminServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.board.Load()
	if snap == nil {
		s.errs.WriteErrorResponse(w, r, errors.NotFoundError("no status published yet").Build())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Warn("Failed to encode response", logfields.Error(err))
	}
}

type logResponseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *logResponseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogger tags each request with an X-Request-ID and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		rw := &logResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		level := slog.LevelDebug
		if rw.status >= 500 {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "Admin request",
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logfields.Status(rw.status),
			logfields.Duration(time.Since(start)))
	})
}
