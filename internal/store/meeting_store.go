package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkhoa/meeting-assistant/internal/model"
)

// CreateMeeting inserts a new meeting. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateMeeting(ctx context.Context, m model.Meeting) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meetings (id, filename, transcript, created_at)
		VALUES (?, ?, ?, ?)`,
		m.ID, m.Filename, m.Transcript, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating meeting: %w", err)
	}
	return nil
}

// GetMeetings retrieves all meetings, newest first.
func (s *SQLiteStore) GetMeetings(ctx context.Context) ([]model.Meeting, error) {
	var meetings []model.Meeting
	err := s.db.SelectContext(ctx, &meetings,
		"SELECT * FROM meetings ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing meetings: %w", err)
	}
	return meetings, nil
}

// GetMeetingByID retrieves a single meeting by ID.
func (s *SQLiteStore) GetMeetingByID(
	ctx context.Context,
	id string,
) (*model.Meeting, error) {
	var m model.Meeting
	err := s.db.GetContext(ctx, &m, "SELECT * FROM meetings WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting meeting %s: %w", id, err)
	}
	return &m, nil
}
