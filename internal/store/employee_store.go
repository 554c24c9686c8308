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

// CreateEmployee inserts a new employee. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateEmployee(ctx context.Context, e model.Employee) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("employee name must not be empty")
	}
	if strings.TrimSpace(e.Email) == "" {
		return fmt.Errorf("employee email must not be empty")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, department, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Name, strings.ToLower(e.Email), e.Department, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating employee: %w", err)
	}
	return nil
}

// GetEmployees retrieves all employees ordered by name.
func (s *SQLiteStore) GetEmployees(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	err := s.db.SelectContext(ctx, &employees,
		"SELECT * FROM employees ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	return employees, nil
}

// FindEmployeeByName looks an employee up by name, first by exact
// case-insensitive match, then by substring containment in either
// direction. Transcripts rarely carry a name exactly as it is stored.
// Returns nil (no error) when nothing matches.
func (s *SQLiteStore) FindEmployeeByName(
	ctx context.Context,
	name string,
) (*model.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var e model.Employee
	err := s.db.GetContext(ctx, &e,
		"SELECT * FROM employees WHERE name = ? COLLATE NOCASE LIMIT 1", name)
	if err == nil {
		return &e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("finding employee %q: %w", name, err)
	}

	all, err := s.GetEmployees(ctx)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(name)
	for i := range all {
		candidate := strings.ToLower(all[i].Name)
		if strings.Contains(candidate, lower) || strings.Contains(lower, candidate) {
			return &all[i], nil
		}
	}

	return nil, nil
}
