package model

import "time"

// Task status constants. A task starts as pending and is moved by the
// reconciliation engine (or a manual update) through the other states.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusBlocked    = "blocked"
)

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// Task is a unit of follow-up work extracted from a meeting and assigned
// to an employee.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `db:"id" json:"id"`

	// MeetingID references the meeting this task was extracted from.
	MeetingID string `db:"meeting_id" json:"meeting_id"`

	// EmployeeID references the assigned employee. Nil when the
	// extraction step could not match a name to a known employee.
	EmployeeID *string `db:"employee_id" json:"employee_id,omitempty"`

	// Description is the action item text.
	Description string `db:"description" json:"description"`

	// DueDate is the free-form due date as extracted from the
	// transcript ("Friday", "2026-09-12", ...).
	DueDate string `db:"due_date" json:"due_date"`

	// Status is one of the Status* constants.
	Status string `db:"status" json:"status"`

	// OutboundMessageID is the Message-ID of the assignment email sent
	// for this task, without angle brackets. It is set exactly once,
	// after the notification email goes out, and is the join key used
	// to match inbound replies back to this task. Nil means no email
	// was sent and no reply can ever match.
	OutboundMessageID *string `db:"outbound_message_id" json:"outbound_message_id,omitempty"`

	// EmailSentAt records when the assignment email was sent.
	EmailSentAt *time.Time `db:"email_sent_at" json:"email_sent_at,omitempty"`

	// LastReplyAt, LastReplyMessageID and LastReplyContent describe the
	// most recent matched reply. They are only ever written together.
	LastReplyAt        *time.Time `db:"last_reply_at" json:"last_reply_at,omitempty"`
	LastReplyMessageID *string    `db:"last_reply_message_id" json:"last_reply_message_id,omitempty"`
	LastReplyContent   *string    `db:"last_reply_content" json:"last_reply_content,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TaskDetail is a task joined with its assigned employee, as returned by
// store queries. The employee fields are nil for unassigned tasks.
type TaskDetail struct {
	Task

	EmployeeName  *string `db:"employee_name" json:"employee_name,omitempty"`
	EmployeeEmail *string `db:"employee_email" json:"employee_email,omitempty"`
}

// Assigned reports whether the task has an employee with an email address
// to notify and verify replies against.
func (t *TaskDetail) Assigned() bool {
	return t.EmployeeID != nil && t.EmployeeEmail != nil && *t.EmployeeEmail != ""
}
