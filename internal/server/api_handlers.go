package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkhoa/meeting-assistant/internal/logging"
	"github.com/mkhoa/meeting-assistant/internal/model"
	"github.com/mkhoa/meeting-assistant/internal/notify"
	"github.com/mkhoa/meeting-assistant/internal/store"
)

func (s *Server) handleEmployees(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		employees, err := s.deps.Store.GetEmployees(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, employees)

	case http.MethodPost:
		var req struct {
			Name       string `json:"name"`
			Email      string `json:"email"`
			Department string `json:"department"`
		}
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
			s.writeError(w, http.StatusBadRequest, "name and email required")
			return
		}

		emp := model.Employee{
			ID:         uuid.New().String(),
			Name:       strings.TrimSpace(req.Name),
			Email:      strings.TrimSpace(req.Email),
			Department: strings.TrimSpace(req.Department),
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.deps.Store.CreateEmployee(r.Context(), emp); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, emp)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// meetingResponse is returned from meeting creation: the stored meeting
// plus whatever tasks were extracted and the assignment email results.
type meetingResponse struct {
	Meeting model.Meeting      `json:"meeting"`
	Tasks   []model.TaskDetail `json:"tasks"`
	Emails  []notify.Result    `json:"emails,omitempty"`
}

func (s *Server) handleMeetings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		meetings, err := s.deps.Store.GetMeetings(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, meetings)

	case http.MethodPost:
		s.createMeeting(w, r)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// createMeeting stores a transcript, extracts action items from it,
// creates tasks, and emails the assignees. Extraction and email are
// best-effort; the meeting itself is always stored.
func (s *Server) createMeeting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename   string `json:"filename"`
		Transcript string `json:"transcript"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		s.writeError(w, http.StatusBadRequest, "transcript required")
		return
	}

	meeting := model.Meeting{
		ID:         uuid.New().String(),
		Filename:   req.Filename,
		Transcript: req.Transcript,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.deps.Store.CreateMeeting(r.Context(), meeting); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := meetingResponse{Meeting: meeting, Tasks: []model.TaskDetail{}}

	if s.deps.Extractor == nil {
		s.writeJSON(w, http.StatusCreated, resp)
		return
	}

	employees, err := s.deps.Store.GetEmployees(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items, err := s.deps.Extractor.ExtractActionItems(r.Context(), req.Transcript, employees)
	if err != nil {
		s.logger.Error("action item extraction failed",
			logging.String("meeting_id", meeting.ID),
			logging.Error(err))
		s.writeJSON(w, http.StatusCreated, resp)
		return
	}

	for _, item := range items {
		task := model.Task{
			ID:          uuid.New().String(),
			MeetingID:   meeting.ID,
			Description: item.Task,
			DueDate:     item.Due,
			Status:      model.StatusPending,
		}

		emp, err := s.deps.Store.FindEmployeeByName(r.Context(), item.Name)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if emp != nil {
			task.EmployeeID = &emp.ID
		} else if item.Name != "" {
			s.logger.Warn("no employee matched action item assignee",
				logging.String("meeting_id", meeting.ID),
				logging.String("name", item.Name))
		}

		if err := s.deps.Store.CreateTask(r.Context(), task); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		detail, err := s.deps.Store.GetTaskByID(r.Context(), task.ID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Tasks = append(resp.Tasks, *detail)
	}

	if s.deps.Mailer != nil && s.deps.Mailer.Ready() {
		assigned := make([]model.TaskDetail, 0, len(resp.Tasks))
		for _, task := range resp.Tasks {
			if task.Assigned() {
				assigned = append(assigned, task)
			}
		}
		resp.Emails = s.deps.Mailer.SendAssignments(r.Context(), assigned)
	}

	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleMeetingByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/meetings/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "meeting not found")
		return
	}

	meeting, err := s.deps.Store.GetMeetingByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "meeting not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tasks, err := s.deps.Store.GetTasks(r.Context(), store.TaskFilter{MeetingID: &id})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"meeting": meeting,
		"tasks":   tasks,
	})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var filter store.TaskFilter
	query := r.URL.Query()
	if v := strings.TrimSpace(query.Get("status")); v != "" {
		if !model.ValidStatus(v) {
			s.writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = &v
	}
	if v := strings.TrimSpace(query.Get("employee_id")); v != "" {
		filter.EmployeeID = &v
	}
	if v := strings.TrimSpace(query.Get("meeting_id")); v != "" {
		filter.MeetingID = &v
	}

	tasks, err := s.deps.Store.GetTasks(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	// /api/tasks/{id}/activities
	if id, ok := strings.CutSuffix(rest, "/activities"); ok {
		s.handleTaskActivities(w, r, id)
		return
	}
	if strings.Contains(rest, "/") {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		task, err := s.deps.Store.GetTaskByID(r.Context(), rest)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, "task not found")
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, task)

	case http.MethodPatch:
		var req struct {
			Status string `json:"status"`
		}
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !model.ValidStatus(req.Status) {
			s.writeError(w, http.StatusBadRequest, "invalid task status")
			return
		}

		if err := s.deps.Store.UpdateTaskStatus(r.Context(), rest, req.Status); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, "task not found")
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		task, err := s.deps.Store.GetTaskByID(r.Context(), rest)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, task)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTaskActivities(w http.ResponseWriter, r *http.Request, taskID string) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if _, err := s.deps.Store.GetTaskByID(r.Context(), taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	activities, err := s.deps.Store.GetActivities(r.Context(), taskID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, activities)
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := s.deps.Store.DashboardStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}
