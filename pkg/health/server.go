package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server provides health monitoring endpoints
type Server struct {
	port         int
	agentInfo    *AgentInfo
	statusGetter StatusGetter
	gatherer     prometheus.Gatherer
	logger       zerolog.Logger
	server       *http.Server
}

// AgentInfo contains basic agent information
type AgentInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Chain        string   `json:"chain"`
	Capabilities []string `json:"capabilities"`
	Description  string   `json:"description"`
}

// StatusGetter reports live counters from the report service.
type StatusGetter interface {
	ActiveReports() int
	ReportsServed() int64
	ReportsFailed() int64
	Uptime() time.Duration
}

// HealthStatus represents the agent's health status
type HealthStatus struct {
	Status        string    `json:"status"`
	ActiveReports int       `json:"active_reports"`
	ReportsServed int64     `json:"reports_served"`
	ReportsFailed int64     `json:"reports_failed"`
	Uptime        string    `json:"uptime"`
	Timestamp     time.Time `json:"timestamp"`
	Agent         AgentInfo `json:"agent"`
}

// NewServer creates a new health monitoring server. A nil gatherer disables /metrics.
func NewServer(port int, agentInfo *AgentInfo, statusGetter StatusGetter, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	s := &Server{
		port:         port,
		agentInfo:    agentInfo,
		statusGetter: statusGetter,
		gatherer:     gatherer,
		logger:       logger.With().Str("component", "health").Logger(),
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route table without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.rootHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/info", s.infoHandler)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start blocks serving until Stop is called. It returns nil at once if Stop
// already ran.
func (s *Server) Start() error {
	s.logger.Info().Int("port", s.port).Msg("starting health server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "%s v%s\n", s.agentInfo.Name, s.agentInfo.Version)
	fmt.Fprintf(w, "Chain: %s\n", s.agentInfo.Chain)
	fmt.Fprintf(w, "Active Reports: %d\n", s.statusGetter.ActiveReports())
	fmt.Fprintf(w, "Reports Served: %d\n", s.statusGetter.ReportsServed())
	fmt.Fprintf(w, "Reports Failed: %d\n", s.statusGetter.ReportsFailed())
	fmt.Fprintf(w, "Capabilities: %s\n", strings.Join(s.agentInfo.Capabilities, ", "))
	fmt.Fprintf(w, "Uptime: %v\n", s.statusGetter.Uptime().Truncate(time.Second))
	fmt.Fprintf(w, "\nEndpoints:\n")
	fmt.Fprintf(w, "  /health  - Health check\n")
	fmt.Fprintf(w, "  /status  - Detailed status (JSON)\n")
	fmt.Fprintf(w, "  /info    - Agent information (JSON)\n")
	if s.gatherer != nil {
		fmt.Fprintf(w, "  /metrics - Prometheus metrics\n")
	}
}

// healthHandler is a liveness probe; the process serving it is healthy.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"agent":     s.agentInfo.Name,
	})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	active := s.statusGetter.ActiveReports()
	status := "idle"
	if active > 0 {
		status = "working"
	}

	s.writeJSON(w, HealthStatus{
		Status:        status,
		ActiveReports: active,
		ReportsServed: s.statusGetter.ReportsServed(),
		ReportsFailed: s.statusGetter.ReportsFailed(),
		Uptime:        s.statusGetter.Uptime().Truncate(time.Second).String(),
		Timestamp:     time.Now().UTC(),
		Agent:         *s.agentInfo,
	})
}

func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.agentInfo)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("health response encode failed")
	}
}
