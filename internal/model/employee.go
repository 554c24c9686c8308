package model

import "time"

// Employee is a member of the team that tasks can be assigned to.
type Employee struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Department string    `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Meeting is an uploaded recording's transcript plus bookkeeping. The
// audio handling and transcription themselves happen upstream; by the
// time a meeting reaches this service it is already text.
type Meeting struct {
	ID         string    `db:"id" json:"id"`
	Filename   string    `db:"filename" json:"filename"`
	Transcript string    `db:"transcript" json:"transcript"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DashboardStats summarizes the store for the dashboard endpoint.
type DashboardStats struct {
	TotalMeetings  int `json:"total_meetings"`
	TotalTasks     int `json:"total_tasks"`
	TotalEmployees int `json:"total_employees"`
	PendingTasks   int `json:"pending_tasks"`
}
