package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func emailDraft() *Draft {
	return &Draft{
		Kind: DraftEmail,
		Email: &EmailDraft{
			To:      "dean@college.edu",
			Subject: "Request for Bonafide Certificate",
			Body:    "Dear Sir,\n\nI need a bonafide certificate for my visa application.\n\nRegards,\nA Student",
			Purpose: "request a bonafide certificate",
			Tone:    "formal",
			Length:  "short",
		},
		Editable: true,
	}
}

func ticketDraft() *Draft {
	return &Draft{
		Kind: DraftTicket,
		Ticket: &TicketDraft{
			Category:    "IT Support",
			SubCategory: "Wi-Fi / Internet",
			Priority:    "High",
			Title:       "Wi-Fi / Internet: hostel wifi down",
			Description: "The hostel wifi in block C has been down since Monday.",
		},
		Editable: true,
	}
}

func TestValidateDraftAcceptsCompleteDrafts(t *testing.T) {
	assert.NoError(t, validateDraft(emailDraft()))
	assert.NoError(t, validateDraft(ticketDraft()))
}

func TestValidateDraftRejectsMissingFields(t *testing.T) {
	d := emailDraft()
	d.Email.Body = "   "
	assert.Error(t, validateDraft(d))

	d = ticketDraft()
	d.Ticket.Priority = ""
	assert.Error(t, validateDraft(d))

	d = ticketDraft()
	d.Ticket.Description = "wifi broken"
	assert.Error(t, validateDraft(d), "description under the minimum length")

	assert.ErrorIs(t, validateDraft(nil), ErrNothingPending)
}

func TestApplyEditsOverwritesKnownFields(t *testing.T) {
	d := emailDraft()
	applyEdits(d, map[string]string{"Subject": "New Subject", "to": "hod@college.edu", "mood": "angry"})
	assert.Equal(t, "New Subject", d.Email.Subject)
	assert.Equal(t, "hod@college.edu", d.Email.To)

	td := ticketDraft()
	applyEdits(td, map[string]string{"priority": "low", "description": "The lab projector in room 204 no longer powers on."})
	assert.Equal(t, "Low", td.Ticket.Priority)
	assert.Equal(t, "The lab projector in room 204 no longer powers on.", td.Ticket.Description)
}

func TestApplyEditsIgnoresInvalidPriority(t *testing.T) {
	d := ticketDraft()
	applyEdits(d, map[string]string{"priority": "yesterday"})
	assert.Equal(t, "High", d.Ticket.Priority)
}

func TestApplyEditsRespectsEditableFlag(t *testing.T) {
	d := emailDraft()
	d.Editable = false
	applyEdits(d, map[string]string{"subject": "changed"})
	assert.Equal(t, "Request for Bonafide Certificate", d.Email.Subject)
}

func TestCancelPendingResetsGateState(t *testing.T) {
	store := &stubSessionStore{}
	sess := &Session{
		ID:           "s",
		State:        StateDraftPending,
		ActiveIntent: IntentSendEmail,
		Slots:        map[string]string{"to": "x@y.com"},
		LastAsked:    "purpose",
		Pending:      emailDraft(),
	}
	cancelPending(store, sess)
	cancelPending(store, sess) // second cancel is a no-op

	assert.Equal(t, StateIdle, sess.State)
	assert.Empty(t, sess.ActiveIntent)
	assert.Nil(t, sess.Slots)
	assert.Empty(t, sess.LastAsked)
	assert.True(t, store.cleared)
}

type stubSessionStore struct {
	cleared bool
}

func (s *stubSessionStore) Acquire(string) func()       { return func() {} }
func (s *stubSessionStore) GetOrCreate(string) *Session { return nil }
func (s *stubSessionStore) Append(string, Message)      {}
func (s *stubSessionStore) Reset(string)                {}
func (s *stubSessionStore) SetPending(_ string, d *Draft) {
	if d == nil {
		s.cleared = true
	}
}
