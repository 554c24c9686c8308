// Package notify sends task assignment emails and records the outbound
// message id replies are later matched against.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/mkhoa/meeting-assistant/internal/logging"
	"github.com/mkhoa/meeting-assistant/internal/model"
)

// Store is the slice of the task store the mailer needs.
type Store interface {
	SetOutboundMessageID(ctx context.Context, taskID, messageID string, sentAt time.Time) error
}

// Result records the outcome of one assignment email.
type Result struct {
	TaskID    string `json:"task_id"`
	Email     string `json:"email,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Mailer sends assignment emails over SMTP.
type Mailer struct {
	cfg    model.SMTPConfig
	store  Store
	logger *slog.Logger
}

// NewMailer creates a mailer with the given SMTP settings.
func NewMailer(cfg model.SMTPConfig, s Store, logger *slog.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		store:  s,
		logger: logging.WithComponent(logger, "notify"),
	}
}

// Ready reports whether outbound mail is configured.
func (m *Mailer) Ready() bool {
	return m.cfg.Host != "" && m.cfg.Username != "" && m.cfg.Password != ""
}

// SendAssignment emails the task to its assigned employee and records
// the generated Message-ID on the task. The id is stored without angle
// brackets, matching how inbound threading headers are canonicalized.
func (m *Mailer) SendAssignment(
	ctx context.Context,
	task model.TaskDetail,
) (string, error) {
	if !task.Assigned() {
		return "", fmt.Errorf("task %s has no assigned employee", task.ID)
	}
	if !m.Ready() {
		return "", fmt.Errorf("smtp not configured")
	}

	msgID, raw, err := BuildAssignmentEmail(m.cfg.Username, task)
	if err != nil {
		return "", fmt.Errorf("composing assignment email: %w", err)
	}

	if err := m.send(*task.EmployeeEmail, raw); err != nil {
		return "", fmt.Errorf("sending assignment email: %w", err)
	}

	if err := m.store.SetOutboundMessageID(ctx, task.ID, msgID, time.Now().UTC()); err != nil {
		// The mail is out; without the stored id no reply will ever
		// match this task.
		return msgID, fmt.Errorf("recording outbound message id: %w", err)
	}

	m.logger.Info("assignment email sent",
		logging.String("task_id", task.ID),
		logging.String("email", *task.EmployeeEmail),
		logging.String("message_id", msgID))
	return msgID, nil
}

// SendAssignments emails a batch of tasks. Per-task failures are
// collected, not fatal.
func (m *Mailer) SendAssignments(
	ctx context.Context,
	tasks []model.TaskDetail,
) []Result {
	results := make([]Result, 0, len(tasks))
	for _, task := range tasks {
		res := Result{TaskID: task.ID}
		if task.EmployeeEmail != nil {
			res.Email = *task.EmployeeEmail
		}

		msgID, err := m.SendAssignment(ctx, task)
		if err != nil {
			res.Error = err.Error()
			m.logger.Warn("assignment email failed",
				logging.String("task_id", task.ID),
				logging.Error(err))
		} else {
			res.MessageID = msgID
		}
		results = append(results, res)
	}
	return results
}

// BuildAssignmentEmail composes the RFC 5322 assignment message and
// returns its generated Message-ID (without angle brackets) plus the raw
// message bytes.
func BuildAssignmentEmail(
	from string,
	task model.TaskDetail,
) (string, []byte, error) {
	var header mail.Header
	header.SetDate(time.Now())
	header.SetAddressList("From", []*mail.Address{{Address: from}})
	header.SetAddressList("To", []*mail.Address{
		{Name: derefString(task.EmployeeName), Address: *task.EmployeeEmail},
	})
	header.SetSubject("New Task Assignment")
	if err := header.GenerateMessageID(); err != nil {
		return "", nil, fmt.Errorf("generating message id: %w", err)
	}

	msgID, err := header.MessageID()
	if err != nil {
		return "", nil, fmt.Errorf("reading message id: %w", err)
	}

	var buf bytes.Buffer
	writer, err := mail.CreateSingleInlineWriter(&buf, header)
	if err != nil {
		return "", nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := writer.Write([]byte(assignmentBody(task))); err != nil {
		writer.Close()
		return "", nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", nil, fmt.Errorf("closing message writer: %w", err)
	}

	return msgID, buf.Bytes(), nil
}

// assignmentBody renders the plain-text assignment email.
func assignmentBody(task model.TaskDetail) string {
	var b strings.Builder

	name := derefString(task.EmployeeName)
	if name == "" {
		name = "there"
	}

	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	b.WriteString("You have been assigned a new task from a recent meeting:\n\n")
	fmt.Fprintf(&b, "    %s\n", task.Description)
	if task.DueDate != "" {
		fmt.Fprintf(&b, "    Due: %s\n", task.DueDate)
	}
	b.WriteString("\n")
	b.WriteString("Reply to this email with a short status update. ")
	b.WriteString("Saying \"completed\" or \"working on it\" updates the task automatically.\n")

	return b.String()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
