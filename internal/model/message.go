package model

import "time"

// InboundMessage is a decoded inbound email as handed to the
// reconciliation engine. It is transient and never persisted directly.
type InboundMessage struct {
	// MessageID is the inbound message's own Message-ID header value.
	MessageID string `json:"message_id"`

	// InReplyTo is the Message-ID of the message being replied to, if
	// any. Empty for messages that are not replies.
	InReplyTo string `json:"in_reply_to"`

	// References is the ancestor Message-ID chain, oldest first, as
	// listed in the References header.
	References []string `json:"references,omitempty"`

	// From is the raw From header ("Name <addr>" or bare address).
	From string `json:"from"`

	Subject string `json:"subject"`

	// Body is the decoded plain-text body with normalized line endings.
	Body string `json:"body"`
}

// Activity types appended to the task audit log.
const (
	ActivityEmailReplyReceived = "email_reply_received"
)

// TaskActivity is one append-only audit log entry for a task.
type TaskActivity struct {
	ID           string    `db:"id" json:"id"`
	TaskID       string    `db:"task_id" json:"task_id"`
	ActivityType string    `db:"activity_type" json:"activity_type"`
	ActivityData string    `db:"activity_data" json:"activity_data"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ReplyActivity is the structured payload stored in ActivityData for
// ActivityEmailReplyReceived entries.
type ReplyActivity struct {
	OldStatus    string `json:"old_status"`
	NewStatus    string `json:"new_status"`
	ReplyExcerpt string `json:"reply_excerpt"`
	FromEmail    string `json:"from_email"`
	MessageID    string `json:"message_id"`
	Reason       string `json:"reason"`
}
