package agent

import (
	"fmt"
	"strings"
)

// The confirmation gate is the safety core: no email is sent and no ticket is
// created without a confirm the caller triggered in a separate request from
// the one that produced the draft.
//
// Per-session states: idle -> awaiting_slots -> draft_pending -> executing ->
// idle on success; draft_pending -> idle on cancel; edit/regenerate keep the
// session in draft_pending with the content replaced.

// validateDraft re-checks that every required field of d is present. Run at
// confirm time, not just build time, since edits may have cleared a field.
func validateDraft(d *Draft) error {
	if d == nil {
		return ErrNothingPending
	}
	switch d.Kind {
	case DraftEmail:
		e := d.Email
		if e == nil {
			return fmt.Errorf("email draft has no content")
		}
		for field, v := range map[string]string{"to": e.To, "subject": e.Subject, "body": e.Body} {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("email %s is empty", field)
			}
		}
	case DraftTicket:
		t := d.Ticket
		if t == nil {
			return fmt.Errorf("ticket draft has no content")
		}
		for field, v := range map[string]string{
			"category": t.Category, "sub-category": t.SubCategory,
			"priority": t.Priority, "title": t.Title, "description": t.Description,
		} {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("ticket %s is empty", field)
			}
		}
		if len(strings.TrimSpace(t.Description)) < MinTicketDescriptionLen {
			return fmt.Errorf("ticket description is too short")
		}
	default:
		return fmt.Errorf("unknown draft kind %q", d.Kind)
	}
	return nil
}

// applyEdits overwrites draft fields with caller-supplied replacements without
// changing state. Unknown field names are ignored.
func applyEdits(d *Draft, fields map[string]string) {
	if d == nil || !d.Editable || len(fields) == 0 {
		return
	}
	switch d.Kind {
	case DraftEmail:
		for k, v := range fields {
			switch strings.ToLower(k) {
			case "to":
				d.Email.To = v
			case "subject":
				d.Email.Subject = v
			case "body":
				d.Email.Body = v
			}
		}
	case DraftTicket:
		for k, v := range fields {
			switch strings.ToLower(k) {
			case "title":
				d.Ticket.Title = v
			case "description":
				d.Ticket.Description = v
			case "priority":
				if p := NormalizePriority(v); p != "" {
					d.Ticket.Priority = p
				}
			}
		}
	}
}

// cancelPending clears the pending draft and resets the gate. Idempotent;
// cancelling with nothing pending is a no-op.
func cancelPending(store SessionStore, sess *Session) {
	store.SetPending(sess.ID, nil)
	sess.Pending = nil
	sess.State = StateIdle
	sess.ActiveIntent = ""
	sess.Slots = nil
	sess.LastAsked = ""
}
