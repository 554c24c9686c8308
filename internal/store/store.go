package store

import (
	"context"
	"errors"
	"time"

	"github.com/mkhoa/meeting-assistant/internal/model"
)

// ErrNotFound is returned when a lookup by id matches nothing.
var ErrNotFound = errors.New("not found")

// ErrOutboundIDAlreadySet is returned when SetOutboundMessageID is called
// for a task that already has an outbound message id. The field is
// write-once: it records the one assignment email sent for the task.
var ErrOutboundIDAlreadySet = errors.New("outbound message id already set")

// TaskFilter controls filtering for task list queries.
type TaskFilter struct {
	Status     *string
	EmployeeID *string
	MeetingID  *string
	Limit      int
}

// ReplyUpdate carries the fields written by the reconciliation engine
// when an inbound reply has been matched to a task. The store applies it
// as a single-row atomic update.
type ReplyUpdate struct {
	Status         string
	ReplyAt        time.Time
	ReplyMessageID string
	ReplyContent   string
}

// Store defines the persistence interface for employees, meetings, tasks
// and the task activity log.
type Store interface {
	// === Employees ===

	CreateEmployee(ctx context.Context, e model.Employee) error
	GetEmployees(ctx context.Context) ([]model.Employee, error)
	FindEmployeeByName(ctx context.Context, name string) (*model.Employee, error)

	// === Meetings ===

	CreateMeeting(ctx context.Context, m model.Meeting) error
	GetMeetings(ctx context.Context) ([]model.Meeting, error)
	GetMeetingByID(ctx context.Context, id string) (*model.Meeting, error)

	// === Tasks ===

	CreateTask(ctx context.Context, t model.Task) error
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.TaskDetail, error)
	GetTaskByID(ctx context.Context, id string) (*model.TaskDetail, error)
	UpdateTaskStatus(ctx context.Context, id, status string) error

	// SetOutboundMessageID records the Message-ID of the assignment
	// email sent for a task. It fails with ErrOutboundIDAlreadySet if
	// the task already has one.
	SetOutboundMessageID(ctx context.Context, taskID, messageID string, sentAt time.Time) error

	// FindTaskByOutboundMessageID looks a task up by the Message-ID of
	// its assignment email. Returns nil (no error) when nothing matches.
	FindTaskByOutboundMessageID(ctx context.Context, messageID string) (*model.TaskDetail, error)

	// UpdateStatusAndReply applies a matched reply to a task: new
	// status plus the last_reply_* fields, in one atomic row update.
	UpdateStatusAndReply(ctx context.Context, taskID string, upd ReplyUpdate) error

	// === Activity log ===

	AppendActivity(ctx context.Context, a model.TaskActivity) error
	GetActivities(ctx context.Context, taskID string) ([]model.TaskActivity, error)

	// === Dashboard ===

	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
}
