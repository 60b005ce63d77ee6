package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arcavoice/orbe/internal/config"
	"github.com/arcavoice/orbe/internal/conversation"
	"github.com/arcavoice/orbe/internal/session"
)

// SessionSource exposes the session state the monitor reports on.
type SessionSource interface {
	State() session.State
	ConversationID() string
	Active() bool
	History() []*conversation.Turn
}

// HealthFunc probes backend reachability.
type HealthFunc func(ctx context.Context) bool

// Server provides local HTTP endpoints for monitoring the client
type Server struct {
	server  *http.Server
	logger  *slog.Logger
	config  *config.Config
	session SessionSource
	health  HealthFunc

	startTime time.Time
}

// NewServer creates a monitoring server bound to the configured
// address.
func NewServer(cfg config.MonitorConfig, appConfig *config.Config, sess SessionSource, health HealthFunc, logger *slog.Logger) *Server {
	s := &Server{
		logger:    logger,
		config:    appConfig,
		session:   sess,
		health:    health,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures the monitoring routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/session", s.handleSession)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/config", s.handleConfig)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", s.handleRoot)
}

// Start starts the monitoring server
func (s *Server) Start() error {
	s.logger.Info("Starting monitoring server",
		slog.String("address", s.server.Addr),
	)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Monitoring server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the monitoring server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping monitoring server...")

	return s.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	backendUp := s.health(ctx)
	status := "healthy"
	if !backendUp {
		status = "degraded"
	}

	health := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startTime).String(),
		"components": map[string]interface{}{
			"backend": map[string]interface{}{
				"reachable": backendUp,
			},
			"session": map[string]interface{}{
				"state":  s.session.State().String(),
				"active": s.session.Active(),
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleSession implements the /session endpoint
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info := map[string]interface{}{
		"state":            s.session.State().String(),
		"active":           s.session.Active(),
		"conversation_id":  s.session.ConversationID(),
		"has_conversation": s.session.ConversationID() != "",
		"turns":            len(s.session.History()),
		"timestamp":        time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// handleHistory implements the /history endpoint
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	turns := s.session.History()
	response := map[string]interface{}{
		"total_turns": len(turns),
		"timestamp":   time.Now().UTC(),
		"turns":       turns,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleConfig implements the /config endpoint
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sanitized := map[string]interface{}{
		"backend": map[string]interface{}{
			"base_url": s.config.Backend.BaseURL,
			"language": s.config.Backend.Language,
			"timeout":  s.config.Backend.Timeout,
		},
		"capture": map[string]interface{}{
			"sample_rate":        s.config.Capture.SampleRate,
			"channels":           s.config.Capture.Channels,
			"min_recording_ms":   s.config.Capture.MinRecordingMs,
			"max_recording_ms":   s.config.Capture.MaxRecordingMs,
			"noise_gate":         s.config.Capture.NoiseGate,
			"target_sample_rate": s.config.Capture.TargetSampleRate,
		},
		"presentation": map[string]interface{}{
			"char_interval_ms": s.config.Presentation.CharIntervalMs,
			"fade_ms":          s.config.Presentation.FadeMs,
			"message_pause_ms": s.config.Presentation.MessagePauseMs,
		},
		"logging": map[string]interface{}{
			"level":  s.config.Logging.Level,
			"format": s.config.Logging.Format,
			"output": s.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitized)
}

// handleRoot implements the / endpoint with API documentation
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "orbe voice client",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"GET /":        "API documentation",
			"GET /health":  "Client and backend health",
			"GET /session": "Current session state",
			"GET /history": "Retained conversation turns",
			"GET /config":  "Client configuration",
			"GET /metrics": "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}
