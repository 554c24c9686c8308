// Package server exposes the HTTP API: meeting and task CRUD, mailbox
// push notifications, and polling control.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mkhoa/meeting-assistant/internal/extract"
	"github.com/mkhoa/meeting-assistant/internal/logging"
	"github.com/mkhoa/meeting-assistant/internal/mailbox"
	"github.com/mkhoa/meeting-assistant/internal/model"
	"github.com/mkhoa/meeting-assistant/internal/notify"
	"github.com/mkhoa/meeting-assistant/internal/reconcile"
	"github.com/mkhoa/meeting-assistant/internal/store"
	"github.com/mkhoa/meeting-assistant/internal/sync"
)

// Watcher manages the mailbox push subscription. Implemented by the
// Gmail gateway; nil when push notifications are not configured.
type Watcher interface {
	Watch(ctx context.Context) (uint64, error)
	StopWatch(ctx context.Context) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Store     store.Store
	Gateway   mailbox.Gateway
	Watcher   Watcher
	Engine    *reconcile.Engine
	Poller    *sync.Poller
	Mailer    *notify.Mailer
	Extractor *extract.Extractor
}

// Server is the HTTP front end.
type Server struct {
	cfg    model.AppConfig
	deps   Deps
	logger *slog.Logger

	listener net.Listener
	server   *http.Server
}

// New creates the server and wires up its routes.
func New(cfg model.AppConfig, deps Deps, logger *slog.Logger) *Server {
	srv := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logging.WithComponent(logger, "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/gmail/webhook", srv.handleWebhook)
	mux.HandleFunc("/api/gmail/setup-webhook", srv.handleSetupWebhook)
	mux.HandleFunc("/api/gmail/stop-webhook", srv.handleStopWebhook)
	mux.HandleFunc("/api/gmail/start-polling", srv.handleStartPolling)
	mux.HandleFunc("/api/gmail/stop-polling", srv.handleStopPolling)
	mux.HandleFunc("/api/gmail/check-now", srv.handleCheckNow)
	mux.HandleFunc("/api/gmail/polling-status", srv.handlePollingStatus)
	mux.HandleFunc("/api/email/reply", srv.handleEmailReply)
	mux.HandleFunc("/api/employees", srv.handleEmployees)
	mux.HandleFunc("/api/meetings", srv.handleMeetings)
	mux.HandleFunc("/api/meetings/", srv.handleMeetingByID)
	mux.HandleFunc("/api/tasks", srv.handleTasks)
	mux.HandleFunc("/api/tasks/", srv.handleTaskByID)
	mux.HandleFunc("/api/dashboard-stats", srv.handleDashboardStats)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Start begins serving on the configured bind address. It returns once
// the listener is up; serving continues until ctx is canceled or Stop
// is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}
