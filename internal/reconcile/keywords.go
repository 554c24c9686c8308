package reconcile

import (
	"fmt"
	"strings"
)

// completionKeywords mark a task as completed when found anywhere in a
// reply body. Checked before progressKeywords, so a reply containing
// both resolves to completed.
var completionKeywords = []string{
	"completed", "done", "finished", "complete", "ready",
	"accomplished", "resolved", "closed", "delivered",
	"success", "successful", "achieved", "fixed",
}

// progressKeywords mark a task as in progress.
var progressKeywords = []string{
	"working on", "in progress", "started", "begun",
	"proceeding", "ongoing", "underway", "processing",
}

// InferStatus derives a task status from a reply body. The search is a
// case-insensitive substring match, completion keywords first. A reply
// matching neither table is a plain acknowledgement: the current status
// is kept and only the reply metadata gets recorded.
//
// The rule is applied on every matched reply regardless of the current
// status, so a later ambiguous reply can move a completed task back to
// in_progress. Last reply wins.
func InferStatus(body, currentStatus string) (status, reason string) {
	lower := strings.ToLower(body)

	for _, keyword := range completionKeywords {
		if strings.Contains(lower, keyword) {
			return "completed", fmt.Sprintf("email reply contained %q", keyword)
		}
	}

	for _, keyword := range progressKeywords {
		if strings.Contains(lower, keyword) {
			return "in_progress", fmt.Sprintf("email reply contained %q", keyword)
		}
	}

	return currentStatus, "employee replied to task email"
}
