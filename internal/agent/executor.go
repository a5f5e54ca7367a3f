package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Executor performs the confirmed side effect, exactly once per confirm.
// Failed sends are never retried automatically; the user must restart the
// action, since silently retrying a mail send risks duplicate delivery.
type Executor struct {
	mail       MailSender
	tickets    TicketStore
	emailLog   EmailLog
	dailyLimit int
	log        *zap.Logger
}

func NewExecutor(mail MailSender, tickets TicketStore, emailLog EmailLog, dailyLimit int, log *zap.Logger) *Executor {
	return &Executor{mail: mail, tickets: tickets, emailLog: emailLog, dailyLimit: dailyLimit, log: log}
}

// Execute runs the pending draft. The returned response is always an
// action_result; success=false covers delivery failures, duplicates, and the
// daily send limit. The caller clears the pending draft in every case.
func (e *Executor) Execute(ctx context.Context, sess *Session, d *Draft) Response {
	switch d.Kind {
	case DraftEmail:
		return e.sendEmail(ctx, sess, d.Email)
	case DraftTicket:
		return e.createTicket(ctx, sess, d.Ticket)
	}
	return Response{Type: RespActionResult, Success: false, Text: fmt.Sprintf("unknown draft kind %q", d.Kind)}
}

func (e *Executor) sendEmail(ctx context.Context, sess *Session, d *EmailDraft) Response {
	if e.dailyLimit > 0 && e.emailLog != nil {
		count, err := e.emailLog.CountToday(ctx, sess.Requester)
		if err != nil {
			e.log.Warn("email log lookup failed", zap.String("session", sess.ID), zap.Error(err))
		} else if count >= e.dailyLimit {
			return Response{
				Type:    RespActionResult,
				Success: false,
				Text:    fmt.Sprintf("You have reached the limit of %d emails per day. Please try again tomorrow.", e.dailyLimit),
			}
		}
	}

	if err := e.mail.Send(ctx, d.To, d.Subject, d.Body); err != nil {
		e.log.Warn("mail delivery failed",
			zap.String("session", sess.ID), zap.String("to", d.To), zap.Error(err))
		return Response{
			Type:    RespActionResult,
			Success: false,
			Text:    "The email could not be delivered. Nothing was sent; please start over if you still need it.",
		}
	}

	if e.emailLog != nil {
		if err := e.emailLog.Record(ctx, sess.Requester, sess.Name, d.To, d.Subject, d.Purpose); err != nil {
			// The send already happened; a logging failure is surfaced in the
			// message rather than rolled back.
			e.log.Warn("email request logging failed", zap.String("session", sess.ID), zap.Error(err))
		}
	}
	e.log.Info("email sent", zap.String("session", sess.ID), zap.String("to", d.To))
	return Response{Type: RespActionResult, Success: true, Text: fmt.Sprintf("Email sent to %s.", d.To)}
}

func (e *Executor) createTicket(ctx context.Context, sess *Session, d *TicketDraft) Response {
	if e.tickets == nil {
		return Response{
			Type:    RespActionResult,
			Success: false,
			Text:    "The ticket system is not configured. Please contact the college office directly.",
		}
	}
	open, err := e.tickets.HasOpen(ctx, sess.Requester, d.Category)
	if err != nil {
		e.log.Warn("duplicate check failed", zap.String("session", sess.ID), zap.Error(err))
		return Response{
			Type:    RespActionResult,
			Success: false,
			Text:    "The ticket system is unavailable right now. No ticket was created; please try again later.",
		}
	}
	if open {
		return Response{Type: RespActionResult, Success: false, Text: DuplicateTicketMessage}
	}

	id, err := e.tickets.Create(ctx, TicketRecord{
		RequesterEmail: sess.Requester,
		RequesterName:  sess.Name,
		Category:       d.Category,
		SubCategory:    d.SubCategory,
		Priority:       d.Priority,
		Title:          d.Title,
		Description:    d.Description,
		Department:     DepartmentForCategory[d.Category],
		SLAHours:       SLAHours[d.Priority],
	})
	if err != nil {
		e.log.Warn("ticket creation failed", zap.String("session", sess.ID), zap.Error(err))
		return Response{
			Type:    RespActionResult,
			Success: false,
			Text:    "The ticket could not be created. Please start over if the issue persists.",
		}
	}
	e.log.Info("ticket created",
		zap.String("session", sess.ID), zap.String("ticket", id), zap.String("category", d.Category))
	return Response{
		Type:    RespActionResult,
		Success: true,
		Text:    fmt.Sprintf("Ticket %s created under %s / %s. The %s will respond within %d hours.", id, d.Category, d.SubCategory, DepartmentForCategory[d.Category], SLAHours[d.Priority]),
	}
}
