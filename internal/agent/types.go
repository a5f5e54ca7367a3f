package agent

import (
	"context"
	"errors"
	"time"
)

// Intent is the classified purpose of a user utterance. The set is closed;
// anything the classifier returns outside of it is coerced to IntentUnclear.
type Intent string

const (
	IntentFAQ            Intent = "faq"
	IntentSendEmail      Intent = "send_email"
	IntentRaiseTicket    Intent = "raise_ticket"
	IntentContactFaculty Intent = "contact_faculty"
	IntentConfirm        Intent = "confirm"
	IntentCancel         Intent = "cancel"
	IntentRegenerate     Intent = "regenerate"
	IntentEdit           Intent = "edit"
	IntentUnclear        Intent = "unclear"
)

// IntentResult is the outcome of one classification pass. Ephemeral; produced
// and consumed within a single turn.
type IntentResult struct {
	Intent     Intent
	Confidence float32
	Slots      map[string]string
}

// Mode narrows intent classification when the caller already knows which flow
// the user is in (e.g. a dedicated email-compose screen).
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeEmail   Mode = "email"
	ModeTicket  Mode = "ticket"
	ModeFaculty Mode = "faculty"
)

// ValidMode reports whether m is one of the accepted mode hints.
func ValidMode(m Mode) bool {
	switch m {
	case ModeAuto, ModeEmail, ModeTicket, ModeFaculty:
		return true
	}
	return false
}

// Message is one turn in a conversation history.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DraftKind tags the Draft union.
type DraftKind string

const (
	DraftEmail  DraftKind = "email"
	DraftTicket DraftKind = "ticket"
)

// Draft is a reviewable proposal for a side-effecting action. At most one
// exists per session, and it is never executed without an explicit confirm.
type Draft struct {
	Kind      DraftKind    `json:"kind"`
	Email     *EmailDraft  `json:"email,omitempty"`
	Ticket    *TicketDraft `json:"ticket,omitempty"`
	Editable  bool         `json:"editable"`
	CreatedAt time.Time    `json:"createdAt"`
}

type EmailDraft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Purpose string `json:"purpose"`
	Tone    string `json:"tone"`
	Length  string `json:"length"`
}

type TicketDraft struct {
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GateState is the per-session confirmation state machine position.
type GateState string

const (
	StateIdle          GateState = "idle"
	StateAwaitingSlots GateState = "awaiting_slots"
	StateDraftPending  GateState = "draft_pending"
	StateExecuting     GateState = "executing"
)

// Session is the per-conversation state. It is only mutated while the owning
// store's per-session lock is held.
type Session struct {
	ID        string
	Requester string // authenticated email of the session owner
	Name      string // display name for signatures
	History   []Message
	Pending   *Draft
	Mode      Mode
	State     GateState

	// Slot-filling state for the active action intent.
	ActiveIntent Intent
	Slots        map[string]string
	LastAsked    string // slot the last clarification question targeted
}

// ResponseType tags the Response union returned to the caller.
type ResponseType string

const (
	RespClarification ResponseType = "clarification_request"
	RespEmailPreview  ResponseType = "email_preview"
	RespTicketPreview ResponseType = "ticket_preview"
	RespConfirmation  ResponseType = "confirmation_request"
	RespInformation   ResponseType = "information"
	RespActionResult  ResponseType = "action_result"
	RespError         ResponseType = "error"
)

// Response is the single normalized result of a turn.
type Response struct {
	Type    ResponseType `json:"type"`
	Text    string       `json:"text,omitempty"`
	Draft   *Draft       `json:"draft,omitempty"`
	Success bool         `json:"success"` // meaningful for action_result only
}

// Passage is one ranked knowledge-base hit.
type Passage struct {
	Content string
	Score   float32
}

// FacultyRecord is a directory entry returned to the user verbatim.
type FacultyRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
}

// TicketRecord is what the executor hands to the ticket store on confirm.
type TicketRecord struct {
	RequesterEmail string
	RequesterName  string
	Category       string
	SubCategory    string
	Priority       string
	Title          string
	Description    string
	Department     string
	SLAHours       int
}

// Collaborator interfaces. Implementations live in internal/llm, internal/kb,
// internal/mail and internal/store; everything here is mockable in tests.

// Generator is the natural-language generation collaborator.
type Generator interface {
	Generate(ctx context.Context, prompt, context string) (string, error)
}

// Searcher is the knowledge-base retrieval collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]Passage, error)
}

// MailSender delivers one message. It must not retry on its own.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TicketStore is the ticket persistence collaborator.
type TicketStore interface {
	HasOpen(ctx context.Context, requester, category string) (bool, error)
	Create(ctx context.Context, rec TicketRecord) (string, error)
}

// FacultyDirectory resolves faculty contact records.
type FacultyDirectory interface {
	Find(ctx context.Context, department, name string) ([]FacultyRecord, error)
}

// EmailLog records executed sends and backs the per-student daily limit.
type EmailLog interface {
	CountToday(ctx context.Context, requester string) (int, error)
	Record(ctx context.Context, requester, requesterName, to, subject, purpose string) error
}

// SessionStore holds per-conversation state. Acquire serializes concurrent
// turns on the same session id.
type SessionStore interface {
	Acquire(sessionID string) (release func())
	GetOrCreate(sessionID string) *Session
	Append(sessionID string, msg Message)
	SetPending(sessionID string, d *Draft)
	Reset(sessionID string)
}

// Named failure conditions from the error taxonomy.
var (
	ErrNothingPending  = errors.New("no pending action for session")
	ErrDuplicateTicket = errors.New("duplicate")
	ErrGenerationFail  = errors.New("generation failed")
)

// DuplicateTicketMessage is the distinct message surfaced when a ticket in the
// same category is already open, so callers can render a specific screen.
const DuplicateTicketMessage = "duplicate"
