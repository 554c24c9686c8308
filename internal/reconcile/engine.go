// Package reconcile matches inbound email replies to the tasks whose
// assignment emails they answer, and updates task state from their
// content.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/mkhoa/meeting-assistant/internal/logging"
	"github.com/mkhoa/meeting-assistant/internal/mailbox"
	"github.com/mkhoa/meeting-assistant/internal/model"
	"github.com/mkhoa/meeting-assistant/internal/store"
)

// maxReplyContent bounds the reply body stored on the task for audit.
const maxReplyContent = 1000

// maxActivityExcerpt bounds the reply excerpt in activity log entries.
const maxActivityExcerpt = 500

// Store is the slice of the task store the engine needs.
type Store interface {
	FindTaskByOutboundMessageID(ctx context.Context, messageID string) (*model.TaskDetail, error)
	UpdateStatusAndReply(ctx context.Context, taskID string, upd store.ReplyUpdate) error
	AppendActivity(ctx context.Context, a model.TaskActivity) error
}

// Outcome describes what reconciling one inbound message did.
type Outcome struct {
	// Matched reports whether the message was a reply to a known task
	// notification. Unmatched messages are expected and benign.
	Matched bool

	// SenderMismatch is set when a task matched but the reply came from
	// someone other than the assigned employee; the update was refused.
	SenderMismatch bool

	TaskID           string `json:"task_id,omitempty"`
	MatchedMessageID string `json:"matched_message_id,omitempty"`
	OldStatus        string `json:"old_status,omitempty"`
	NewStatus        string `json:"new_status,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// Engine maps one inbound message to at most one task and updates it.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// NewEngine creates a reconciliation engine over the given store.
func NewEngine(s Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  s,
		logger: logging.WithComponent(logger, "reconcile"),
	}
}

// Reconcile matches msg against the tasks' outbound message ids and, on
// a verified match, applies the inferred status and reply metadata in
// one atomic store update. Reconciling the same message twice is
// harmless: the inference is deterministic from the body, so the second
// pass rewrites identical fields.
func (e *Engine) Reconcile(
	ctx context.Context,
	msg model.InboundMessage,
) (*Outcome, error) {
	task, matchedID, err := e.findTask(ctx, msg)
	if err != nil {
		return nil, err
	}
	if task == nil {
		// Most inbound mail is unrelated; not an error.
		e.logger.Debug("no matching task for inbound message",
			logging.String("message_id", msg.MessageID),
			logging.String("in_reply_to", msg.InReplyTo))
		return &Outcome{}, nil
	}

	sender := extractAddress(msg.From)
	if !task.Assigned() || !strings.EqualFold(sender, *task.EmployeeEmail) {
		assigned := ""
		if task.EmployeeEmail != nil {
			assigned = *task.EmployeeEmail
		}
		e.logger.Warn("reply sender does not match assigned employee, update refused",
			logging.String("task_id", task.ID),
			logging.String("sender", sender),
			logging.String("assigned", assigned))
		return &Outcome{Matched: true, SenderMismatch: true, TaskID: task.ID}, nil
	}

	newStatus, reason := InferStatus(msg.Body, task.Status)

	upd := store.ReplyUpdate{
		Status:         newStatus,
		ReplyAt:        time.Now().UTC(),
		ReplyMessageID: msg.MessageID,
		ReplyContent:   truncate(msg.Body, maxReplyContent),
	}
	if err := e.store.UpdateStatusAndReply(ctx, task.ID, upd); err != nil {
		return nil, fmt.Errorf("applying reply to task %s: %w", task.ID, err)
	}

	e.appendActivity(ctx, task, msg, sender, newStatus, reason)

	e.logger.Info("task updated from email reply",
		logging.String("task_id", task.ID),
		logging.String("sender", sender),
		logging.String("old_status", task.Status),
		logging.String("new_status", newStatus),
		logging.String("reason", reason))

	return &Outcome{
		Matched:          true,
		TaskID:           task.ID,
		MatchedMessageID: matchedID,
		OldStatus:        task.Status,
		NewStatus:        newStatus,
		Reason:           reason,
	}, nil
}

// findTask resolves the message's threading headers against stored
// outbound message ids: In-Reply-To first, then each References entry in
// header order. First match wins.
func (e *Engine) findTask(
	ctx context.Context,
	msg model.InboundMessage,
) (*model.TaskDetail, string, error) {
	candidates := make([]string, 0, 1+len(msg.References))
	if id := mailbox.CanonicalMessageID(msg.InReplyTo); id != "" {
		candidates = append(candidates, id)
	}
	for _, ref := range msg.References {
		if id := mailbox.CanonicalMessageID(ref); id != "" {
			candidates = append(candidates, id)
		}
	}

	for _, candidate := range candidates {
		task, err := e.store.FindTaskByOutboundMessageID(ctx, candidate)
		if err != nil {
			return nil, "", fmt.Errorf("looking up task by message id: %w", err)
		}
		if task != nil {
			return task, candidate, nil
		}
	}

	return nil, "", nil
}

// appendActivity writes the audit log entry for a matched reply.
// Activity logging is best-effort: a failure is logged and swallowed so
// it never rolls back the task update.
func (e *Engine) appendActivity(
	ctx context.Context,
	task *model.TaskDetail,
	msg model.InboundMessage,
	sender, newStatus, reason string,
) {
	payload := model.ReplyActivity{
		OldStatus:    task.Status,
		NewStatus:    newStatus,
		ReplyExcerpt: truncate(msg.Body, maxActivityExcerpt),
		FromEmail:    sender,
		MessageID:    msg.MessageID,
		Reason:       reason,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Warn("marshaling reply activity", logging.Error(err))
		return
	}

	activity := model.TaskActivity{
		TaskID:       task.ID,
		ActivityType: model.ActivityEmailReplyReceived,
		ActivityData: string(data),
	}
	if err := e.store.AppendActivity(ctx, activity); err != nil {
		e.logger.Warn("appending task activity",
			logging.String("task_id", task.ID),
			logging.Error(err))
	}
}

// extractAddress pulls the bare address out of a From header value
// ("Name <addr>" or a bare address).
func extractAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	return strings.TrimSpace(from)
}

// truncate limits s to at most n characters.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
