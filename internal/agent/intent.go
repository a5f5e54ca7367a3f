package agent

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// IntentSpec is the YAML prompt specification for the classifier.
type IntentSpec struct {
	System  string `yaml:"system"`
	Intents []struct {
		Name        string     `yaml:"name"`
		Description string     `yaml:"description"`
		Slots       []specSlot `yaml:"slots"`
	} `yaml:"intents"`
	Style struct {
		MaxHistoryTurns int `yaml:"max_history_turns"`
	} `yaml:"style"`
}

type specSlot struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Cancel/confirm/regenerate keyword fast paths. Checked before any model call
// so that a pending draft can always be resolved even when the generation
// collaborator is down.
var (
	cancelKeywords     = []string{"cancel", "stop", "abort", "forget it", "never mind", "quit", "exit"}
	confirmKeywords    = []string{"yes", "y", "confirm", "ok", "okay", "sure", "send", "send it", "submit", "create", "proceed"}
	regenerateKeywords = []string{"regenerate", "regenerate email", "regen", "redo"}
)

// Classifier maps an utterance plus recent history to one intent of the
// closed set, with any slots it can confidently extract.
type Classifier struct {
	spec IntentSpec
	gen  Generator
	log  *zap.Logger
}

// LoadClassifier reads the intent spec from path.
func LoadClassifier(path string, gen Generator, log *zap.Logger) (*Classifier, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec IntentSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, err
	}
	return &Classifier{spec: spec, gen: gen, log: log}, nil
}

// NewClassifier builds a classifier with an in-code spec; used by tests.
func NewClassifier(spec IntentSpec, gen Generator, log *zap.Logger) *Classifier {
	return &Classifier{spec: spec, gen: gen, log: log}
}

// Classify runs the intent policy for one turn.
//
// With a pending draft, the answer space narrows to confirm/cancel/regenerate,
// and any other reply is an edit instruction; no model call is made. With a
// non-auto mode hint the action intent is fixed by the hint. Only mode=auto
// with no pending draft reaches the generation collaborator, and any failure
// or out-of-set answer there degrades to unclear.
func (c *Classifier) Classify(ctx context.Context, sess *Session, message string, hasPending bool) IntentResult {
	msg := strings.ToLower(strings.TrimSpace(message))

	if hasPending {
		switch {
		case isKeyword(msg, confirmKeywords):
			return IntentResult{Intent: IntentConfirm, Confidence: 1}
		case isKeyword(msg, regenerateKeywords):
			return IntentResult{Intent: IntentRegenerate, Confidence: 1}
		case isCancel(msg):
			return IntentResult{Intent: IntentCancel, Confidence: 1}
		default:
			return IntentResult{Intent: IntentEdit, Confidence: 1}
		}
	}

	if isCancel(msg) {
		return IntentResult{Intent: IntentCancel, Confidence: 1}
	}

	if sess.Mode != ModeAuto && sess.Mode != "" {
		// The mode hint fixes the action intent; only deterministic slot
		// extraction happens here, no model call.
		switch sess.Mode {
		case ModeEmail:
			slots := map[string]string{}
			if addr := extractEmailAddress(message); addr != "" {
				slots["to"] = addr
			}
			return IntentResult{Intent: IntentSendEmail, Confidence: 1, Slots: slots}
		case ModeTicket:
			slots := map[string]string{}
			// The opening message of a ticket flow usually is the issue.
			if sess.ActiveIntent != IntentRaiseTicket && len(strings.TrimSpace(message)) >= MinTicketDescriptionLen {
				slots["description"] = strings.TrimSpace(message)
			}
			return IntentResult{Intent: IntentRaiseTicket, Confidence: 1, Slots: slots}
		case ModeFaculty:
			return IntentResult{Intent: IntentContactFaculty, Confidence: 1}
		}
	}

	result := c.llmClassify(ctx, sess, message)
	if result.Intent == IntentSendEmail && result.Slots["to"] == "" {
		if addr := extractEmailAddress(message); addr != "" {
			result.Slots["to"] = addr
		}
	}
	return result
}

// extractEmailAddress returns the first plausible address token in message.
func extractEmailAddress(message string) string {
	for _, tok := range strings.Fields(message) {
		tok = strings.Trim(tok, ".,;:()<>\"'")
		at := strings.IndexByte(tok, '@')
		if at > 0 && strings.Contains(tok[at:], ".") {
			return tok
		}
	}
	return ""
}

func (c *Classifier) llmClassify(ctx context.Context, sess *Session, message string) IntentResult {
	prompt := c.buildPrompt(sess, message)
	raw, err := c.gen.Generate(ctx, prompt, "")
	if err != nil {
		c.log.Warn("intent classification failed", zap.String("session", sess.ID), zap.Error(err))
		return IntentResult{Intent: IntentUnclear, Confidence: 0}
	}

	var out struct {
		Intent     string            `json:"intent"`
		Confidence float32           `json:"confidence"`
		Slots      map[string]string `json:"slots"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		// Models sometimes wrap the object in prose; salvage the outermost braces.
		if salvaged, ok := salvageJSON(raw); ok {
			err = json.Unmarshal([]byte(salvaged), &out)
		}
		if err != nil {
			c.log.Warn("malformed classifier response", zap.String("session", sess.ID))
			return IntentResult{Intent: IntentUnclear, Confidence: 0}
		}
	}

	intent := Intent(strings.ToLower(strings.TrimSpace(out.Intent)))
	switch intent {
	case IntentFAQ, IntentSendEmail, IntentRaiseTicket, IntentContactFaculty, IntentCancel:
	default:
		// Outside the closed set. Never trust free-form model output as
		// control flow.
		return IntentResult{Intent: IntentUnclear, Confidence: 0}
	}
	if out.Slots == nil {
		out.Slots = map[string]string{}
	}
	return IntentResult{Intent: intent, Confidence: out.Confidence, Slots: out.Slots}
}

func (c *Classifier) buildPrompt(sess *Session, message string) string {
	maxTurns := c.spec.Style.MaxHistoryTurns
	if maxTurns <= 0 {
		maxTurns = 6
	}
	history := sess.History
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	var b strings.Builder
	b.WriteString(c.spec.System)
	b.WriteString("\n\nIntents:\n")
	for _, it := range c.spec.Intents {
		b.WriteString("- ")
		b.WriteString(it.Name)
		b.WriteString(": ")
		b.WriteString(it.Description)
		for _, s := range it.Slots {
			b.WriteString("\n    slot ")
			b.WriteString(s.Name)
			b.WriteString(": ")
			b.WriteString(s.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nTranscript (role: content):\n")
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		content = strings.ReplaceAll(content, "\n\n", "\n")
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(content)
		b.WriteString("\n")
	}
	b.WriteString("USER: ")
	b.WriteString(strings.TrimSpace(message))
	b.WriteString("\n\nRespond with ONLY a JSON object {\"intent\": ..., \"confidence\": 0..1, \"slots\": {...}} where intent is one of the listed names. Extract only slots clearly present in the transcript.\n")
	return b.String()
}

func isCancel(msg string) bool {
	// Keyword containment, but only for short inputs so that a sentence like
	// "my wifi stopped working" does not read as a cancel.
	if len(msg) >= 20 {
		return false
	}
	for _, kw := range cancelKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

func isKeyword(msg string, set []string) bool {
	for _, kw := range set {
		if msg == kw {
			return true
		}
	}
	return false
}

// salvageJSON extracts the outermost {...} from raw.
func salvageJSON(raw string) (string, bool) {
	first := strings.IndexByte(raw, '{')
	last := strings.LastIndexByte(raw, '}')
	if first >= 0 && last > first {
		return raw[first : last+1], true
	}
	return "", false
}
