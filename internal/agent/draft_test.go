package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildEmailDefaultsToneAndLength(t *testing.T) {
	b := NewDraftBuilder(&stubGen{reply: "Generated subject or body line"}, zap.NewNop())
	sess := &Session{ID: "s", Name: "Test Student", Slots: map[string]string{
		"to":      "dean@college.edu",
		"purpose": "request a fee deadline extension",
	}}

	d, err := b.BuildEmail(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, d.Email)
	assert.Equal(t, "semi-formal", d.Email.Tone)
	assert.Equal(t, "medium", d.Email.Length)
	assert.True(t, d.Editable)
}

func TestBuildTicketFallsBackToRawDescription(t *testing.T) {
	// The model over-summarizes below the minimum length; the student's own
	// words must survive.
	b := NewDraftBuilder(&stubGen{reply: "wifi broken"}, zap.NewNop())
	raw := "The hostel wifi in block C has been down since Monday evening."
	sess := &Session{ID: "s", Slots: map[string]string{
		"category":     "IT Support",
		"sub_category": "Wi-Fi / Internet",
		"priority":     "High",
		"description":  raw,
	}}

	d, err := b.BuildTicket(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, raw, d.Ticket.Description)
}

func TestTicketTitleTruncatesToSixWords(t *testing.T) {
	title := ticketTitle("Wi-Fi / Internet", "the hostel wifi has been down since monday evening in block C")
	assert.Equal(t, "Wi-Fi / Internet: the hostel wifi has been down", title)
}

func TestReviseKeepsOriginalDraftUntouched(t *testing.T) {
	b := NewDraftBuilder(&stubGen{reply: "A politer body."}, zap.NewNop())
	orig := &Draft{
		Kind:     DraftEmail,
		Email:    &EmailDraft{To: "x@y.com", Subject: "S", Body: "original body", Purpose: "p"},
		Editable: true,
	}

	revised, err := b.Revise(context.Background(), orig, "make it more polite")
	require.NoError(t, err)
	assert.Equal(t, "A politer body.", revised.Email.Body)
	assert.Equal(t, "original body", orig.Email.Body)
}

func TestBuildFailureReturnsGenerationError(t *testing.T) {
	b := NewDraftBuilder(&stubGen{err: assert.AnError}, zap.NewNop())
	sess := &Session{ID: "s", Slots: map[string]string{"to": "x@y.com", "purpose": "ask about my internship approval"}}

	_, err := b.BuildEmail(context.Background(), sess)
	assert.ErrorIs(t, err, ErrGenerationFail)
}
