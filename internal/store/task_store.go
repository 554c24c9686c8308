package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkhoa/meeting-assistant/internal/model"
)

// taskDetailSelect joins tasks with their assigned employee. Employee
// columns come back NULL for unassigned tasks.
const taskDetailSelect = `
	SELECT t.*, e.name AS employee_name, e.email AS employee_email
	FROM tasks t
	LEFT JOIN employees e ON e.id = t.employee_id`

// CreateTask inserts a new task. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("task description must not be empty")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	if !model.ValidStatus(t.Status) {
		return fmt.Errorf("invalid task status %q", t.Status)
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, meeting_id, employee_id, description, due_date, status,
			outbound_message_id, email_sent_at,
			last_reply_at, last_reply_message_id, last_reply_content,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.MeetingID, t.EmployeeID, t.Description, t.DueDate, t.Status,
		t.OutboundMessageID, t.EmailSentAt,
		t.LastReplyAt, t.LastReplyMessageID, t.LastReplyContent,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// GetTasks retrieves tasks matching the provided filter, newest first.
func (s *SQLiteStore) GetTasks(
	ctx context.Context,
	filter TaskFilter,
) ([]model.TaskDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "t.status = ?")
		args = append(args, *filter.Status)
	}
	if filter.EmployeeID != nil {
		conditions = append(conditions, "t.employee_id = ?")
		args = append(args, *filter.EmployeeID)
	}
	if filter.MeetingID != nil {
		conditions = append(conditions, "t.meeting_id = ?")
		args = append(args, *filter.MeetingID)
	}

	query := taskDetailSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var tasks []model.TaskDetail
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// GetTaskByID retrieves a single task with its employee by ID.
func (s *SQLiteStore) GetTaskByID(
	ctx context.Context,
	id string,
) (*model.TaskDetail, error) {
	var t model.TaskDetail
	err := s.db.GetContext(ctx, &t, taskDetailSelect+" WHERE t.id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &t, nil
}

// UpdateTaskStatus sets a task's status directly (manual CRUD path; the
// reconciliation engine uses UpdateStatusAndReply instead).
func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, id, status string) error {
	if !model.ValidStatus(status) {
		return fmt.Errorf("invalid task status %q", status)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating task %s status: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOutboundMessageID records the assignment email's Message-ID on a
// task. The field is write-once: the conditional update refuses to
// overwrite an existing value.
func (s *SQLiteStore) SetOutboundMessageID(
	ctx context.Context,
	taskID, messageID string,
	sentAt time.Time,
) error {
	if strings.TrimSpace(messageID) == "" {
		return fmt.Errorf("outbound message id must not be empty")
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET outbound_message_id = ?, email_sent_at = ?, updated_at = ?
		WHERE id = ? AND outbound_message_id IS NULL`,
		messageID, sentAt.UTC(), time.Now().UTC(), taskID,
	)
	if err != nil {
		return fmt.Errorf("setting outbound message id for task %s: %w", taskID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := s.GetTaskByID(ctx, taskID); err != nil {
			return err
		}
		return ErrOutboundIDAlreadySet
	}
	return nil
}

// FindTaskByOutboundMessageID looks a task up by the Message-ID of its
// assignment email. A miss is expected for most inbound mail, so it
// returns nil without an error.
func (s *SQLiteStore) FindTaskByOutboundMessageID(
	ctx context.Context,
	messageID string,
) (*model.TaskDetail, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, nil
	}

	var t model.TaskDetail
	err := s.db.GetContext(ctx, &t,
		taskDetailSelect+" WHERE t.outbound_message_id = ?", messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding task by outbound message id: %w", err)
	}
	return &t, nil
}

// UpdateStatusAndReply applies a matched reply to a task in one atomic
// row update: the inferred status plus all last_reply_* fields together.
func (s *SQLiteStore) UpdateStatusAndReply(
	ctx context.Context,
	taskID string,
	upd ReplyUpdate,
) error {
	if !model.ValidStatus(upd.Status) {
		return fmt.Errorf("invalid task status %q", upd.Status)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?,
			last_reply_at = ?,
			last_reply_message_id = ?,
			last_reply_content = ?,
			updated_at = ?
		WHERE id = ?`,
		upd.Status, upd.ReplyAt.UTC(), upd.ReplyMessageID, upd.ReplyContent,
		time.Now().UTC(), taskID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s from reply: %w", taskID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendActivity inserts an audit log entry for a task.
func (s *SQLiteStore) AppendActivity(ctx context.Context, a model.TaskActivity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.ActivityData == "" {
		a.ActivityData = "{}"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_activities (id, task_id, activity_type, activity_data, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.TaskID, a.ActivityType, a.ActivityData, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending activity for task %s: %w", a.TaskID, err)
	}
	return nil
}

// GetActivities retrieves a task's audit log entries, oldest first.
func (s *SQLiteStore) GetActivities(
	ctx context.Context,
	taskID string,
) ([]model.TaskActivity, error) {
	var activities []model.TaskActivity
	err := s.db.SelectContext(ctx, &activities, `
		SELECT * FROM task_activities
		WHERE task_id = ?
		ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing activities for task %s: %w", taskID, err)
	}
	return activities, nil
}

// DashboardStats returns the counters rendered on the dashboard.
func (s *SQLiteStore) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats

	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM meetings", &stats.TotalMeetings},
		{"SELECT COUNT(*) FROM tasks", &stats.TotalTasks},
		{"SELECT COUNT(*) FROM employees", &stats.TotalEmployees},
		{"SELECT COUNT(*) FROM tasks WHERE status = 'pending'", &stats.PendingTasks},
	}

	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dst, c.query); err != nil {
			return nil, fmt.Errorf("collecting dashboard stats: %w", err)
		}
	}

	return &stats, nil
}
