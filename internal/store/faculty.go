package store

import (
	"context"
	"fmt"

	"campus-support-backend/internal/agent"
	"campus-support-backend/internal/db"
)

// FacultyStore is the faculty directory over PostgreSQL.
type FacultyStore struct {
	db *db.DB
}

func NewFacultyStore(database *db.DB) *FacultyStore {
	return &FacultyStore{db: database}
}

// Find matches faculty by department and/or name, case-insensitive substring
// match. When only a department term is given it is also tried against names,
// since chat users often answer the "department or name" question with either.
func (fs *FacultyStore) Find(ctx context.Context, department, name string) ([]agent.FacultyRecord, error) {
	var (
		query string
		args  []any
	)
	switch {
	case department != "" && name != "":
		query = `
			SELECT id, name, designation, department, email, COALESCE(phone, '')
			FROM faculty
			WHERE department ILIKE '%' || $1 || '%' AND name ILIKE '%' || $2 || '%'
			ORDER BY name`
		args = []any{department, name}
	case name != "":
		query = `
			SELECT id, name, designation, department, email, COALESCE(phone, '')
			FROM faculty
			WHERE name ILIKE '%' || $1 || '%'
			ORDER BY name`
		args = []any{name}
	case department != "":
		query = `
			SELECT id, name, designation, department, email, COALESCE(phone, '')
			FROM faculty
			WHERE department ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%'
			ORDER BY name`
		args = []any{department}
	default:
		return nil, nil
	}

	rows, err := fs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search faculty: %w", err)
	}
	defer rows.Close()

	var out []agent.FacultyRecord
	for rows.Next() {
		var r agent.FacultyRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Designation, &r.Department, &r.Email, &r.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan faculty record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Departments lists distinct department names.
func (fs *FacultyStore) Departments(ctx context.Context) ([]string, error) {
	rows, err := fs.db.QueryContext(ctx, `SELECT DISTINCT department FROM faculty ORDER BY department`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
