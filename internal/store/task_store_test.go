package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mkhoa/meeting-assistant/internal/model"
	"github.com/mkhoa/meeting-assistant/internal/store"
	"github.com/mkhoa/meeting-assistant/tests/testutil"
)

func TestSetOutboundMessageIDWriteOnce(t *testing.T) {
	s := testutil.NewTestStore(t)
	taskID, _ := testutil.SeedAssignedTask(t, s, "bob@co.com", "")
	ctx := context.Background()

	if err := s.SetOutboundMessageID(ctx, taskID, "first@mail.example.com", time.Now()); err != nil {
		t.Fatalf("first set: %v", err)
	}

	err := s.SetOutboundMessageID(ctx, taskID, "second@mail.example.com", time.Now())
	if !errors.Is(err, store.ErrOutboundIDAlreadySet) {
		t.Fatalf("expected ErrOutboundIDAlreadySet, got %v", err)
	}

	task, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		t.Fatalf("fetching task: %v", err)
	}
	if task.OutboundMessageID == nil || *task.OutboundMessageID != "first@mail.example.com" {
		t.Errorf("outbound id overwritten: %v", task.OutboundMessageID)
	}
	if task.EmailSentAt == nil {
		t.Error("email sent timestamp not recorded")
	}
}

func TestSetOutboundMessageIDMissingTask(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.SetOutboundMessageID(context.Background(), "no-such-task", "id@x", time.Now())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindTaskByOutboundMessageID(t *testing.T) {
	s := testutil.NewTestStore(t)
	taskID, emp := testutil.SeedAssignedTask(t, s, "bob@co.com", "task-1@mail.example.com")
	ctx := context.Background()

	task, err := s.FindTaskByOutboundMessageID(ctx, "task-1@mail.example.com")
	if err != nil {
		t.Fatalf("finding task: %v", err)
	}
	if task == nil || task.ID != taskID {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.EmployeeEmail == nil || *task.EmployeeEmail != emp.Email {
		t.Errorf("employee email not joined: %v", task.EmployeeEmail)
	}

	miss, err := s.FindTaskByOutboundMessageID(ctx, "unknown@mail.example.com")
	if err != nil {
		t.Fatalf("lookup miss errored: %v", err)
	}
	if miss != nil {
		t.Errorf("expected nil for unknown id, got %+v", miss)
	}

	empty, err := s.FindTaskByOutboundMessageID(ctx, "  ")
	if err != nil || empty != nil {
		t.Errorf("expected nil,nil for blank id, got %+v, %v", empty, err)
	}
}

func TestUpdateStatusAndReply(t *testing.T) {
	s := testutil.NewTestStore(t)
	taskID, _ := testutil.SeedAssignedTask(t, s, "bob@co.com", "task-1@mail.example.com")
	ctx := context.Background()

	replyAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	upd := store.ReplyUpdate{
		Status:         model.StatusCompleted,
		ReplyAt:        replyAt,
		ReplyMessageID: "reply-1@mail.example.com",
		ReplyContent:   "all done",
	}
	if err := s.UpdateStatusAndReply(ctx, taskID, upd); err != nil {
		t.Fatalf("updating: %v", err)
	}

	task, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		t.Fatalf("fetching task: %v", err)
	}
	if task.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", task.Status)
	}
	if task.LastReplyAt == nil || !task.LastReplyAt.Equal(replyAt) {
		t.Errorf("last reply at = %v, want %v", task.LastReplyAt, replyAt)
	}
	if task.LastReplyContent == nil || *task.LastReplyContent != "all done" {
		t.Errorf("last reply content = %v", task.LastReplyContent)
	}
}

func TestUpdateStatusAndReplyInvalidStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	taskID, _ := testutil.SeedAssignedTask(t, s, "bob@co.com", "task-1@mail.example.com")

	err := s.UpdateStatusAndReply(context.Background(), taskID, store.ReplyUpdate{
		Status:  "finished",
		ReplyAt: time.Now(),
	})
	if err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestUpdateTaskStatusNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.UpdateTaskStatus(context.Background(), "no-such-task", model.StatusCompleted)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTasksFilter(t *testing.T) {
	s := testutil.NewTestStore(t)
	taskID, emp := testutil.SeedAssignedTask(t, s, "bob@co.com", "task-1@mail.example.com")
	ctx := context.Background()

	pending := model.StatusPending
	tasks, err := s.GetTasks(ctx, store.TaskFilter{Status: &pending, EmployeeID: &emp.ID})
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != taskID {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}

	completed := model.StatusCompleted
	tasks, err = s.GetTasks(ctx, store.TaskFilter{Status: &completed})
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no completed tasks, got %d", len(tasks))
	}
}

func TestFindEmployeeByName(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	emp := model.Employee{
		ID:    uuid.New().String(),
		Name:  "Nguyen Van Minh",
		Email: "minh@co.com",
	}
	if err := s.CreateEmployee(ctx, emp); err != nil {
		t.Fatalf("creating employee: %v", err)
	}

	cases := []struct {
		name  string
		found bool
	}{
		{"Nguyen Van Minh", true},
		{"nguyen van minh", true},
		{"Minh", true},
		{"Nguyen Van Minh (engineering)", true},
		{"Alice", false},
	}
	for _, tc := range cases {
		got, err := s.FindEmployeeByName(ctx, tc.name)
		if err != nil {
			t.Fatalf("FindEmployeeByName(%q): %v", tc.name, err)
		}
		if tc.found && (got == nil || got.ID != emp.ID) {
			t.Errorf("FindEmployeeByName(%q) = %+v, want employee %s", tc.name, got, emp.ID)
		}
		if !tc.found && got != nil {
			t.Errorf("FindEmployeeByName(%q) matched unexpectedly: %+v", tc.name, got)
		}
	}
}
