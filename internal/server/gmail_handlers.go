package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkhoa/meeting-assistant/internal/logging"
	"github.com/mkhoa/meeting-assistant/internal/mailbox"
	"github.com/mkhoa/meeting-assistant/internal/model"
)

// maxWebhookBody caps the push envelope size. Real notifications are a
// few hundred bytes.
const maxWebhookBody = 64 * 1024

// handleWebhook ingests mailbox push notifications. Everything past the
// sender check is acknowledged with 200 regardless of outcome; a non-2xx
// answer would make the push service retry and eventually drop the
// subscription.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !strings.Contains(r.UserAgent(), "Google") {
		s.writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.logger.Warn("reading webhook body", logging.Error(err))
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	notification, err := mailbox.DecodePushNotification(body)
	if err != nil {
		if errors.Is(err, mailbox.ErrMalformedNotification) {
			s.logger.Warn("malformed push notification", logging.Error(err))
		} else {
			s.logger.Error("decoding push notification", logging.Error(err))
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if !s.deps.Gateway.Ready() {
		s.logger.Warn("push notification received but mailbox not configured")
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	ids, err := s.deps.Gateway.ListHistory(r.Context(), notification.HistoryID)
	if err != nil {
		s.logger.Error("listing mailbox history",
			logging.Uint64("history_id", notification.HistoryID),
			logging.Error(err))
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	processed := 0
	for _, id := range ids {
		if err := s.deps.Poller.ProcessMessage(r.Context(), id); err != nil {
			s.logger.Error("processing pushed message",
				logging.String("provider_message_id", id),
				logging.Error(err))
			continue
		}
		processed++
	}

	s.logger.Info("push notification handled",
		logging.String("account", notification.EmailAddress),
		logging.Uint64("history_id", notification.HistoryID),
		logging.Int("messages", len(ids)),
		logging.Int("processed", processed))
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSetupWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.deps.Watcher == nil || !s.deps.Gateway.Ready() {
		s.writeError(w, http.StatusInternalServerError, "mailbox not configured")
		return
	}

	historyID, err := s.deps.Watcher.Watch(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "watching",
		"historyId": historyID,
	})
}

func (s *Server) handleStopWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.deps.Watcher == nil || !s.deps.Gateway.Ready() {
		s.writeError(w, http.StatusInternalServerError, "mailbox not configured")
		return
	}

	if err := s.deps.Watcher.StopWatch(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleStartPolling(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		IntervalMinutes int `json:"intervalMinutes"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	minutes := req.IntervalMinutes
	if minutes <= 0 {
		minutes = s.cfg.Polling.IntervalMinutes
	}

	if err := s.deps.Poller.Start(time.Duration(minutes) * time.Minute); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.deps.Poller.Status())
}

func (s *Server) handleStopPolling(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.deps.Poller.Stop()
	s.writeJSON(w, http.StatusOK, s.deps.Poller.Status())
}

// handleCheckNow runs one polling cycle synchronously, whether or not
// the scheduler is running.
func (s *Server) handleCheckNow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.deps.Gateway.Ready() {
		s.writeError(w, http.StatusInternalServerError, "mailbox not configured")
		return
	}
	s.deps.Poller.CheckNow(r.Context())
	s.writeJSON(w, http.StatusOK, s.deps.Poller.Status())
}

func (s *Server) handlePollingStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.deps.Poller.Status())
}

// handleEmailReply injects a reply directly, bypassing the mailbox
// provider. Useful for testing the reconciliation path and for clients
// that receive mail some other way.
func (s *Server) handleEmailReply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		MessageID  string   `json:"messageId"`
		InReplyTo  string   `json:"inReplyTo"`
		References []string `json:"references"`
		From       string   `json:"from"`
		Subject    string   `json:"subject"`
		Body       string   `json:"body"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.InReplyTo == "" && len(req.References) == 0 {
		s.writeError(w, http.StatusBadRequest, "inReplyTo or references required")
		return
	}
	if req.From == "" {
		s.writeError(w, http.StatusBadRequest, "from required")
		return
	}

	msg := model.InboundMessage{
		MessageID:  mailbox.CanonicalMessageID(req.MessageID),
		InReplyTo:  mailbox.CanonicalMessageID(req.InReplyTo),
		References: req.References,
		From:       req.From,
		Subject:    req.Subject,
		Body:       mailbox.NormalizeBody(req.Body),
	}

	outcome, err := s.deps.Engine.Reconcile(r.Context(), msg)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !outcome.Matched {
		s.writeError(w, http.StatusNotFound, "no matching task for reply")
		return
	}
	if outcome.SenderMismatch {
		s.writeError(w, http.StatusForbidden, "reply sender does not match assigned employee")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"taskId":    outcome.TaskID,
		"oldStatus": outcome.OldStatus,
		"newStatus": outcome.NewStatus,
		"reason":    outcome.Reason,
	})
}
