package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DraftBuilder turns a completed slot set into a reviewable Draft via the
// generation collaborator. Building never leaves the session half-done: on
// any generation failure the caller gets an error and no pending draft is
// set.
type DraftBuilder struct {
	gen Generator
	log *zap.Logger
}

func NewDraftBuilder(gen Generator, log *zap.Logger) *DraftBuilder {
	return &DraftBuilder{gen: gen, log: log}
}

// BuildEmail generates subject and body for the purpose in sess.Slots.
// Regeneration reuses the same slot set; output is not expected to be
// byte-identical across calls.
func (b *DraftBuilder) BuildEmail(ctx context.Context, sess *Session) (*Draft, error) {
	to := strings.TrimSpace(sess.Slots["to"])
	purpose := strings.TrimSpace(sess.Slots["purpose"])
	tone := sess.Slots["tone"]
	if tone == "" {
		tone = "semi-formal"
	}
	length := sess.Slots["length"]
	if length == "" {
		length = "medium"
	}

	subject, err := b.gen.Generate(ctx, subjectPrompt(purpose), "")
	if err != nil {
		b.log.Warn("subject generation failed", zap.String("session", sess.ID), zap.Error(err))
		return nil, fmt.Errorf("generate subject: %w", ErrGenerationFail)
	}
	subject = strings.Trim(strings.TrimSpace(subject), `"'`)

	body, err := b.gen.Generate(ctx, bodyPrompt(purpose, tone, length, sess.Name), "")
	if err != nil {
		b.log.Warn("body generation failed", zap.String("session", sess.ID), zap.Error(err))
		return nil, fmt.Errorf("generate body: %w", ErrGenerationFail)
	}

	return &Draft{
		Kind: DraftEmail,
		Email: &EmailDraft{
			To:      to,
			Subject: subject,
			Body:    strings.TrimSpace(body),
			Purpose: purpose,
			Tone:    tone,
			Length:  length,
		},
		Editable:  true,
		CreatedAt: time.Now(),
	}, nil
}

// BuildTicket polishes the raw description into a submission-ready one and
// derives a title from the taxonomy.
func (b *DraftBuilder) BuildTicket(ctx context.Context, sess *Session) (*Draft, error) {
	category := sess.Slots["category"]
	subCategory := sess.Slots["sub_category"]
	priority := sess.Slots["priority"]
	rawDesc := strings.TrimSpace(sess.Slots["description"])

	desc, err := b.gen.Generate(ctx, descriptionPrompt(category, subCategory, priority, rawDesc), "")
	if err != nil {
		b.log.Warn("description generation failed", zap.String("session", sess.ID), zap.Error(err))
		return nil, fmt.Errorf("generate description: %w", ErrGenerationFail)
	}
	desc = strings.TrimSpace(desc)
	if len(desc) < MinTicketDescriptionLen {
		// The model over-summarized; the user's own words are authoritative.
		desc = rawDesc
	}

	return &Draft{
		Kind: DraftTicket,
		Ticket: &TicketDraft{
			Category:    category,
			SubCategory: subCategory,
			Priority:    priority,
			Title:       ticketTitle(subCategory, rawDesc),
			Description: desc,
		},
		Editable:  true,
		CreatedAt: time.Now(),
	}, nil
}

// Revise rewrites the pending draft's generated content according to a
// free-form edit instruction, keeping the slot set and state unchanged.
func (b *DraftBuilder) Revise(ctx context.Context, d *Draft, instruction string) (*Draft, error) {
	switch d.Kind {
	case DraftEmail:
		body, err := b.gen.Generate(ctx, revisePrompt(d.Email.Body, instruction), "")
		if err != nil {
			return nil, fmt.Errorf("revise body: %w", ErrGenerationFail)
		}
		out := *d
		email := *d.Email
		email.Body = strings.TrimSpace(body)
		out.Email = &email
		return &out, nil
	case DraftTicket:
		desc, err := b.gen.Generate(ctx, revisePrompt(d.Ticket.Description, instruction), "")
		if err != nil {
			return nil, fmt.Errorf("revise description: %w", ErrGenerationFail)
		}
		out := *d
		ticket := *d.Ticket
		ticket.Description = strings.TrimSpace(desc)
		out.Ticket = &ticket
		return &out, nil
	}
	return nil, fmt.Errorf("unknown draft kind %q", d.Kind)
}

func subjectPrompt(purpose string) string {
	return fmt.Sprintf(`Generate a concise email subject line (6-10 words) based STRICTLY on this purpose:

Purpose: %s

Rules: the subject must directly reflect the purpose, keep at least one noun phrase from it verbatim, and add nothing that is not in the purpose. Output ONLY the subject line.`, purpose)
}

func bodyPrompt(purpose, tone, length, studentName string) string {
	toneGuide := map[string]string{
		"formal":      "Use formal, respectful language. Be direct and professional.",
		"semi-formal": "Use professional but approachable language. Be polite and clear.",
		"friendly":    "Use warm, conversational language while maintaining professionalism.",
		"urgent":      "Use direct, action-oriented language. Convey urgency while remaining professional.",
	}
	lengthGuide := map[string]string{
		"short":    "Exactly 3-4 short sentences.",
		"medium":   "Exactly 5-7 sentences.",
		"detailed": "10-12 sentences with full context.",
	}
	if studentName == "" {
		studentName = "Student"
	}
	return fmt.Sprintf(`Write an email body for an individual student. Purpose: %s

Tone: %s
Length: %s

Rules: write in first person singular, never change the purpose, no bullet points, a single "Dear ..." greeting line, sign off as %s. Output ONLY the email body.`,
		purpose, toneGuide[tone], lengthGuide[length], studentName)
}

func descriptionPrompt(category, subCategory, priority, raw string) string {
	return fmt.Sprintf(`Rewrite this support ticket description so staff can act on it. Keep every fact, add nothing new, stay under 6 sentences.

Category: %s / %s (priority %s)
Description: %s

Output ONLY the rewritten description.`, category, subCategory, priority, raw)
}

func revisePrompt(current, instruction string) string {
	return fmt.Sprintf(`Revise the text below following the instruction. Keep the original purpose intact.

Instruction: %s

Text:
%s

Output ONLY the revised text.`, instruction, current)
}

func ticketTitle(subCategory, description string) string {
	words := strings.Fields(description)
	if len(words) > 6 {
		words = words[:6]
	}
	return fmt.Sprintf("%s: %s", subCategory, strings.Join(words, " "))
}
