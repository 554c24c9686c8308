package notify

import (
	"strings"
	"testing"

	"github.com/mkhoa/meeting-assistant/internal/model"
)

func assignedTask() model.TaskDetail {
	name := "Bob Jones"
	email := "bob@co.com"
	empID := "emp-1"
	return model.TaskDetail{
		Task: model.Task{
			ID:          "task-1",
			EmployeeID:  &empID,
			Description: "finish the quarterly report",
			DueDate:     "Friday",
			Status:      model.StatusPending,
		},
		EmployeeName:  &name,
		EmployeeEmail: &email,
	}
}

func TestBuildAssignmentEmail(t *testing.T) {
	msgID, raw, err := BuildAssignmentEmail("assistant@company.com", assignedTask())
	if err != nil {
		t.Fatalf("building email: %v", err)
	}

	if msgID == "" {
		t.Fatal("no message id generated")
	}
	if strings.ContainsAny(msgID, "<>") {
		t.Errorf("message id not canonical: %q", msgID)
	}

	text := string(raw)
	if !strings.Contains(text, "Message-ID: <"+msgID+">") {
		t.Error("generated message id missing from headers")
	}
	if !strings.Contains(text, "Subject: New Task Assignment") {
		t.Error("subject header missing")
	}
	if !strings.Contains(text, "To: ") || !strings.Contains(text, "bob@co.com") {
		t.Error("recipient missing from headers")
	}
	if !strings.Contains(text, "finish the quarterly report") {
		t.Error("task description missing from body")
	}
	if !strings.Contains(text, "Due: Friday") {
		t.Error("due date missing from body")
	}
}

func TestBuildAssignmentEmailDistinctIDs(t *testing.T) {
	first, _, err := BuildAssignmentEmail("assistant@company.com", assignedTask())
	if err != nil {
		t.Fatalf("building first email: %v", err)
	}
	second, _, err := BuildAssignmentEmail("assistant@company.com", assignedTask())
	if err != nil {
		t.Fatalf("building second email: %v", err)
	}
	if first == second {
		t.Errorf("message ids must be unique per email, both were %q", first)
	}
}

func TestMailerNotReady(t *testing.T) {
	m := NewMailer(model.SMTPConfig{}, nil, nil)
	if m.Ready() {
		t.Fatal("mailer without credentials reported ready")
	}
}
