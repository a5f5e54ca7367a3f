package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus-support-backend/internal/agent"
	"campus-support-backend/internal/db"
)

// TicketStore persists support tickets and the email-request log in
// PostgreSQL.
type TicketStore struct {
	db *db.DB
}

func NewTicketStore(database *db.DB) *TicketStore {
	return &TicketStore{db: database}
}

// Ticket is a stored support ticket.
type Ticket struct {
	ID             string    `json:"id"`
	RequesterEmail string    `json:"requesterEmail"`
	RequesterName  string    `json:"requesterName"`
	Category       string    `json:"category"`
	SubCategory    string    `json:"subCategory"`
	Priority       string    `json:"priority"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Department     string    `json:"department"`
	Status         string    `json:"status"`
	SLAHours       int       `json:"slaHours"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Ticket status values. Open and Assigned/In Progress count as "open" for
// duplicate prevention.
const (
	StatusOpen       = "Open"
	StatusAssigned   = "Assigned"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"
	StatusCancelled  = "Cancelled"
)

// HasOpen reports whether the requester already has an unresolved ticket in
// the category.
func (ts *TicketStore) HasOpen(ctx context.Context, requester, category string) (bool, error) {
	var count int
	err := ts.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tickets
		WHERE requester_email = $1 AND category = $2
		  AND status IN ($3, $4, $5)
	`, requester, category, StatusOpen, StatusAssigned, StatusInProgress).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check open tickets: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new ticket and returns its id (TKT-XXXXXXXX).
func (ts *TicketStore) Create(ctx context.Context, rec agent.TicketRecord) (string, error) {
	id := "TKT-" + strings.ToUpper(uuid.NewString()[:8])
	_, err := ts.db.ExecContext(ctx, `
		INSERT INTO tickets (
			id, requester_email, requester_name, category, sub_category,
			priority, title, description, department, status, sla_hours,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW())
	`, id, rec.RequesterEmail, rec.RequesterName, rec.Category, rec.SubCategory,
		rec.Priority, rec.Title, rec.Description, rec.Department, StatusOpen, rec.SLAHours)
	if err != nil {
		return "", fmt.Errorf("failed to create ticket: %w", err)
	}
	return id, nil
}

// ListByRequester returns the requester's tickets, newest first.
func (ts *TicketStore) ListByRequester(ctx context.Context, requester string) ([]Ticket, error) {
	rows, err := ts.db.QueryContext(ctx, `
		SELECT id, requester_email, requester_name, category, sub_category,
		       priority, title, description, department, status, sla_hours,
		       created_at, updated_at
		FROM tickets
		WHERE requester_email = $1
		ORDER BY created_at DESC
	`, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(
			&t.ID, &t.RequesterEmail, &t.RequesterName, &t.Category, &t.SubCategory,
			&t.Priority, &t.Title, &t.Description, &t.Department, &t.Status, &t.SLAHours,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get returns one ticket, or nil if not found.
func (ts *TicketStore) Get(ctx context.Context, id string) (*Ticket, error) {
	var t Ticket
	err := ts.db.QueryRowContext(ctx, `
		SELECT id, requester_email, requester_name, category, sub_category,
		       priority, title, description, department, status, sla_hours,
		       created_at, updated_at
		FROM tickets WHERE id = $1
	`, id).Scan(
		&t.ID, &t.RequesterEmail, &t.RequesterName, &t.Category, &t.SubCategory,
		&t.Priority, &t.Title, &t.Description, &t.Department, &t.Status, &t.SLAHours,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &t, nil
}

// Close marks the requester's ticket as closed. Only the owner may close it.
func (ts *TicketStore) Close(ctx context.Context, id, requester string) error {
	res, err := ts.db.ExecContext(ctx, `
		UPDATE tickets SET status = $1, updated_at = NOW()
		WHERE id = $2 AND requester_email = $3 AND status NOT IN ($4, $5)
	`, StatusClosed, id, requester, StatusClosed, StatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to close ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to close ticket: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ticket %s not found or already closed", id)
	}
	return nil
}

// CountToday returns how many emails the requester has sent since midnight
// UTC; backs the daily send limit.
func (ts *TicketStore) CountToday(ctx context.Context, requester string) (int, error) {
	var count int
	err := ts.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM email_requests
		WHERE student_email = $1 AND sent_at >= date_trunc('day', NOW())
	`, requester).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count email requests: %w", err)
	}
	return count, nil
}

// Record logs one executed email send.
func (ts *TicketStore) Record(ctx context.Context, requester, requesterName, to, subject, purpose string) error {
	_, err := ts.db.ExecContext(ctx, `
		INSERT INTO email_requests (student_email, student_name, recipient_email, subject, purpose, sent_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, requester, requesterName, to, subject, purpose)
	if err != nil {
		return fmt.Errorf("failed to record email request: %w", err)
	}
	return nil
}
