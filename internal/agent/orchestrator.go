package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Orchestrator routes each incoming turn through classification, slot
// filling, draft building and the confirmation gate, and returns one
// normalized response. It is the only component that touches the session
// store, always under the per-session lock.
type Orchestrator struct {
	store      SessionStore
	classifier *Classifier
	builder    *DraftBuilder
	executor   *Executor
	gen        Generator
	search     Searcher
	directory  FacultyDirectory
	log        *zap.Logger
}

func NewOrchestrator(store SessionStore, classifier *Classifier, builder *DraftBuilder, executor *Executor, gen Generator, search Searcher, directory FacultyDirectory, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		classifier: classifier,
		builder:    builder,
		executor:   executor,
		gen:        gen,
		search:     search,
		directory:  directory,
		log:        log,
	}
}

// TurnRequest carries one user turn. Requester/Name come from the verified
// auth token, never from the message body.
type TurnRequest struct {
	SessionID string
	Requester string
	Name      string
	Message   string
	Mode      Mode
}

// HandleTurn processes one free-text message for a session.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) Response {
	release := o.store.Acquire(req.SessionID)
	defer release()

	sess := o.store.GetOrCreate(req.SessionID)
	sess.Requester = req.Requester
	sess.Name = req.Name
	if req.Mode != "" {
		sess.Mode = req.Mode
	}
	if sess.Mode == "" {
		sess.Mode = ModeAuto
	}
	o.store.Append(req.SessionID, Message{Role: "user", Content: req.Message, Timestamp: time.Now()})

	resp := o.route(ctx, sess, req.Message)

	if resp.Text != "" {
		o.store.Append(req.SessionID, Message{Role: "assistant", Content: resp.Text, Timestamp: time.Now()})
	}
	return resp
}

// ConfirmTurn resolves the pending draft: confirmed=true executes it (after
// applying any edited fields), confirmed=false cancels. Cancelling with
// nothing pending is a no-op and reports the same idle state every time.
func (o *Orchestrator) ConfirmTurn(ctx context.Context, sessionID string, confirmed bool, editedFields map[string]string) Response {
	release := o.store.Acquire(sessionID)
	defer release()

	sess := o.store.GetOrCreate(sessionID)
	if sess.Pending == nil {
		if confirmed {
			return Response{Type: RespError, Text: "There is nothing awaiting confirmation."}
		}
		return Response{Type: RespInformation, Text: "Nothing is pending."}
	}

	if !confirmed {
		cancelPending(o.store, sess)
		return Response{Type: RespInformation, Text: "Cancelled. Nothing is pending."}
	}

	applyEdits(sess.Pending, editedFields)
	if err := validateDraft(sess.Pending); err != nil {
		// Edits emptied a required field; keep the draft so it can be fixed.
		return Response{Type: RespError, Text: fmt.Sprintf("Cannot proceed: %v. Edit the draft and confirm again.", err)}
	}

	sess.State = StateExecuting
	draft := sess.Pending
	// One execution per confirm, and the pending draft is cleared whether it
	// succeeds or fails: a failed send must be restarted, not retried with
	// stale content.
	resp := o.executor.Execute(ctx, sess, draft)
	cancelPending(o.store, sess)
	o.store.Append(sessionID, Message{Role: "assistant", Content: resp.Text, Timestamp: time.Now()})
	return resp
}

// Reset clears the session's history and pending action.
func (o *Orchestrator) Reset(sessionID string) {
	release := o.store.Acquire(sessionID)
	defer release()
	o.store.Reset(sessionID)
}

func (o *Orchestrator) route(ctx context.Context, sess *Session, message string) Response {
	result := o.classifier.Classify(ctx, sess, message, sess.Pending != nil)
	o.log.Debug("turn classified",
		zap.String("session", sess.ID),
		zap.String("intent", string(result.Intent)),
		zap.Float32("confidence", result.Confidence))

	if sess.Pending != nil {
		return o.routePending(ctx, sess, message, result.Intent)
	}

	// Mid-clarification, the message answers the question we last asked;
	// only an explicit cancel breaks out of the flow.
	if sess.ActiveIntent != "" && sess.LastAsked != "" && result.Intent != IntentCancel {
		return o.fillAndBuild(ctx, sess, IntentResult{Intent: sess.ActiveIntent, Slots: result.Slots}, message)
	}

	switch result.Intent {
	case IntentCancel:
		// Cancel is idempotent; with no pending draft it just clears any
		// half-filled slots.
		cancelPending(o.store, sess)
		return Response{Type: RespInformation, Text: "Okay, cancelled. Anything else I can help with?"}
	case IntentFAQ:
		return o.answerFAQ(ctx, sess, message)
	case IntentSendEmail, IntentRaiseTicket, IntentContactFaculty:
		return o.fillAndBuild(ctx, sess, result, message)
	default:
		return Response{
			Type: RespInformation,
			Text: "I didn't quite get that. You can ask a question about the college, send an email to faculty, raise a support ticket, or look up faculty contacts.",
		}
	}
}

// routePending keeps the session on its pending draft: only confirm, cancel
// and regenerate change state, and anything else is an edit instruction. This
// is what prevents a second action from starting while one is pending.
func (o *Orchestrator) routePending(ctx context.Context, sess *Session, message string, intent Intent) Response {
	switch intent {
	case IntentConfirm:
		if err := validateDraft(sess.Pending); err != nil {
			return Response{Type: RespError, Text: fmt.Sprintf("Cannot proceed: %v. Edit the draft and confirm again.", err)}
		}
		sess.State = StateExecuting
		resp := o.executor.Execute(ctx, sess, sess.Pending)
		cancelPending(o.store, sess)
		return resp
	case IntentCancel:
		cancelPending(o.store, sess)
		return Response{Type: RespInformation, Text: "Cancelled. Nothing is pending."}
	case IntentRegenerate:
		return o.rebuild(ctx, sess)
	default:
		revised, err := o.builder.Revise(ctx, sess.Pending, message)
		if err != nil {
			return Response{Type: RespError, Text: "I couldn't apply that change right now. The draft is unchanged; try again or reply 'cancel'."}
		}
		o.store.SetPending(sess.ID, revised)
		sess.Pending = revised
		return o.preview(sess, revised, "Updated the draft.")
	}
}

// rebuild regenerates the pending draft from the same slot set.
func (o *Orchestrator) rebuild(ctx context.Context, sess *Session) Response {
	var (
		d   *Draft
		err error
	)
	switch sess.Pending.Kind {
	case DraftEmail:
		d, err = o.builder.BuildEmail(ctx, sess)
	case DraftTicket:
		d, err = o.builder.BuildTicket(ctx, sess)
	}
	if err != nil || d == nil {
		return Response{Type: RespError, Text: "I couldn't regenerate the draft right now. The previous draft is still pending."}
	}
	o.store.SetPending(sess.ID, d)
	sess.Pending = d
	return o.preview(sess, d, "Here is a fresh draft.")
}

// fillAndBuild merges slots, asks the single most important missing question,
// and once everything is present builds the draft (or, for the read-only
// faculty lookup, answers directly without the gate).
func (o *Orchestrator) fillAndBuild(ctx context.Context, sess *Session, result IntentResult, message string) Response {
	if sess.ActiveIntent != result.Intent {
		// New flow; stale slots from an abandoned one must not leak in.
		sess.ActiveIntent = result.Intent
		sess.Slots = map[string]string{}
		sess.LastAsked = ""
	}
	mergeSlots(sess, result.Slots, message)

	if sess.ActiveIntent == IntentSendEmail {
		if resp, ok := o.resolveRecipient(ctx, sess); !ok {
			return resp
		}
	}

	if missing := missingSlots(sess); len(missing) > 0 {
		return clarify(sess, missing)
	}
	sess.LastAsked = ""

	switch sess.ActiveIntent {
	case IntentContactFaculty:
		resp := o.lookupFaculty(ctx, sess)
		sess.ActiveIntent = ""
		sess.Slots = nil
		sess.State = StateIdle
		return resp
	case IntentSendEmail:
		d, err := o.builder.BuildEmail(ctx, sess)
		if err != nil {
			sess.State = StateIdle
			return Response{Type: RespError, Text: "I couldn't draft the email right now. Please try again in a moment."}
		}
		o.store.SetPending(sess.ID, d)
		sess.Pending = d
		return o.preview(sess, d, "Here is the draft email.")
	case IntentRaiseTicket:
		d, err := o.builder.BuildTicket(ctx, sess)
		if err != nil {
			sess.State = StateIdle
			return Response{Type: RespError, Text: "I couldn't prepare the ticket right now. Please try again in a moment."}
		}
		o.store.SetPending(sess.ID, d)
		sess.Pending = d
		return o.preview(sess, d, "Here is the ticket about to be raised.")
	}
	return Response{Type: RespError, Text: "Unsupported action."}
}

// resolveRecipient turns a faculty name in the "to" slot into an email
// address via the directory. Ambiguity or no match re-asks the slot.
func (o *Orchestrator) resolveRecipient(ctx context.Context, sess *Session) (Response, bool) {
	to := strings.TrimSpace(sess.Slots["to"])
	if to == "" || strings.Contains(to, "@") {
		return Response{}, true
	}
	if o.directory == nil {
		// Without a directory a bare name can never become an address, and
		// handing it to SMTP would only fail at delivery time.
		delete(sess.Slots, "to")
		sess.LastAsked = "to"
		sess.State = StateAwaitingSlots
		return Response{Type: RespClarification, Text: "I can't look up faculty by name right now. Please give me the recipient's email address."}, false
	}
	matches, err := o.directory.Find(ctx, "", to)
	if err != nil {
		o.log.Warn("recipient lookup failed", zap.String("session", sess.ID), zap.Error(err))
		matches = nil
	}
	switch len(matches) {
	case 1:
		sess.Slots["to"] = matches[0].Email
		return Response{}, true
	case 0:
		delete(sess.Slots, "to")
		sess.LastAsked = "to"
		sess.State = StateAwaitingSlots
		return Response{Type: RespClarification, Text: fmt.Sprintf("I couldn't find %q in the faculty directory. Who should the email go to? An email address also works.", to)}, false
	default:
		delete(sess.Slots, "to")
		sess.LastAsked = "to"
		sess.State = StateAwaitingSlots
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, fmt.Sprintf("%s (%s, %s)", m.Name, m.Designation, m.Department))
		}
		return Response{Type: RespClarification, Text: fmt.Sprintf("I found several matches: %s. Which one did you mean?", strings.Join(names, "; "))}, false
	}
}

func (o *Orchestrator) lookupFaculty(ctx context.Context, sess *Session) Response {
	if o.directory == nil {
		return Response{Type: RespError, Text: "The faculty directory is unavailable right now. Please try again later."}
	}
	dept := strings.TrimSpace(sess.Slots["department"])
	name := strings.TrimSpace(sess.Slots["name"])
	matches, err := o.directory.Find(ctx, dept, name)
	if err != nil {
		o.log.Warn("faculty lookup failed", zap.String("session", sess.ID), zap.Error(err))
		return Response{Type: RespError, Text: "The faculty directory is unavailable right now. Please try again later."}
	}
	if len(matches) == 0 {
		return Response{Type: RespInformation, Text: "No matching faculty found. Try a department name or a full faculty name."}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d faculty member(s):\n", len(matches))
	for _, m := range matches {
		fmt.Fprintf(&b, "- %s, %s, %s: %s", m.Name, m.Designation, m.Department, m.Email)
		if m.Phone != "" {
			fmt.Fprintf(&b, " (%s)", m.Phone)
		}
		b.WriteString("\n")
	}
	return Response{Type: RespInformation, Text: strings.TrimSpace(b.String())}
}

// answerFAQ composes a grounded answer: retrieve passages, then instruct the
// generator to answer only from them.
func (o *Orchestrator) answerFAQ(ctx context.Context, sess *Session, query string) Response {
	passages, err := o.search.Search(ctx, query, 4)
	if err != nil {
		o.log.Warn("knowledge base search failed", zap.String("session", sess.ID), zap.Error(err))
		return Response{Type: RespError, Text: "I couldn't reach the knowledge base. Please try again in a moment."}
	}
	if len(passages) == 0 {
		return Response{Type: RespInformation, Text: "I don't have information on that. You can raise a ticket and the right department will follow up."}
	}
	var contextText strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&contextText, "[%d] %s\n", i+1, p.Content)
	}
	prompt := fmt.Sprintf(`Answer the student's question using ONLY the passages below. If the passages do not cover it, say you don't have that information.

Question: %s

Passages:
%s
Answer concisely.`, query, contextText.String())
	answer, err := o.gen.Generate(ctx, prompt, "")
	if err != nil {
		o.log.Warn("faq answer generation failed", zap.String("session", sess.ID), zap.Error(err))
		return Response{Type: RespError, Text: "I couldn't compose an answer right now. Please try again in a moment."}
	}
	return Response{Type: RespInformation, Text: strings.TrimSpace(answer)}
}

func (o *Orchestrator) preview(sess *Session, d *Draft, lead string) Response {
	sess.State = StateDraftPending
	switch d.Kind {
	case DraftEmail:
		return Response{
			Type:  RespEmailPreview,
			Text:  fmt.Sprintf("%s To: %s | Subject: %s. Reply 'send' to send it, 'regenerate' for a new draft, 'cancel' to discard, or tell me what to change.", lead, d.Email.To, d.Email.Subject),
			Draft: d,
		}
	default:
		return Response{
			Type:  RespTicketPreview,
			Text:  fmt.Sprintf("%s %s / %s, priority %s. Reply 'submit' to create it, 'regenerate' to rewrite, 'cancel' to discard, or tell me what to change.", lead, d.Ticket.Category, d.Ticket.SubCategory, d.Ticket.Priority),
			Draft: d,
		}
	}
}
