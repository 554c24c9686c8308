package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mkhoa/meeting-assistant/internal/model"
	"github.com/mkhoa/meeting-assistant/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations
// applied. It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedAssignedTask creates an employee, a meeting, and a task assigned
// to that employee with the given outbound message id already recorded.
// It returns the task id and the employee.
func SeedAssignedTask(
	t *testing.T,
	s *store.SQLiteStore,
	email, messageID string,
) (string, model.Employee) {
	t.Helper()
	ctx := context.Background()

	emp := model.Employee{
		ID:    uuid.New().String(),
		Name:  "Test Employee",
		Email: email,
	}
	if err := s.CreateEmployee(ctx, emp); err != nil {
		t.Fatalf("creating employee: %v", err)
	}

	meeting := model.Meeting{
		ID:         uuid.New().String(),
		Filename:   "standup.txt",
		Transcript: "discussed the quarterly report",
	}
	if err := s.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("creating meeting: %v", err)
	}

	task := model.Task{
		ID:          uuid.New().String(),
		MeetingID:   meeting.ID,
		EmployeeID:  &emp.ID,
		Description: "finish the quarterly report",
		DueDate:     "Friday",
		Status:      model.StatusPending,
	}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("creating task: %v", err)
	}

	if messageID != "" {
		if err := s.SetOutboundMessageID(ctx, task.ID, messageID, time.Now().UTC()); err != nil {
			t.Fatalf("setting outbound message id: %v", err)
		}
	}

	return task.ID, emp
}
