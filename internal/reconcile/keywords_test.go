package reconcile

import (
	"testing"

	"github.com/mkhoa/meeting-assistant/internal/model"
)

func TestInferStatusCompletion(t *testing.T) {
	bodies := []string{
		"All done, thanks!",
		"Task COMPLETED yesterday",
		"finally finished it",
		"The fix is delivered",
		"it's been resolved",
	}
	for _, body := range bodies {
		status, reason := InferStatus(body, model.StatusPending)
		if status != model.StatusCompleted {
			t.Errorf("InferStatus(%q) = %q, want completed", body, status)
		}
		if reason == "" {
			t.Errorf("InferStatus(%q) returned empty reason", body)
		}
	}
}

func TestInferStatusProgress(t *testing.T) {
	bodies := []string{
		"I'm working on it",
		"started this morning",
		"still ongoing, will update Friday",
		"request is processing",
	}
	for _, body := range bodies {
		status, _ := InferStatus(body, model.StatusPending)
		if status != model.StatusInProgress {
			t.Errorf("InferStatus(%q) = %q, want in_progress", body, status)
		}
	}
}

func TestInferStatusCompletionBeatsProgress(t *testing.T) {
	status, _ := InferStatus("started this morning, completed now", model.StatusPending)
	if status != model.StatusCompleted {
		t.Errorf("expected completed when both keyword sets match, got %q", status)
	}
}

func TestInferStatusAcknowledgement(t *testing.T) {
	status, reason := InferStatus("Thanks, got it.", model.StatusInProgress)
	if status != model.StatusInProgress {
		t.Errorf("expected current status kept, got %q", status)
	}
	if reason != "employee replied to task email" {
		t.Errorf("unexpected reason: %q", reason)
	}
}

func TestInferStatusLastReplyWins(t *testing.T) {
	// A progress reply after completion moves the task back; no
	// monotonic guard.
	status, _ := InferStatus("actually still working on this", model.StatusCompleted)
	if status != model.StatusInProgress {
		t.Errorf("expected in_progress, got %q", status)
	}
}

func TestInferStatusCaseInsensitive(t *testing.T) {
	status, _ := InferStatus("WORKING ON it now", model.StatusPending)
	if status != model.StatusInProgress {
		t.Errorf("expected in_progress, got %q", status)
	}
}
