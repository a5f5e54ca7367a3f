package agent

import (
	"fmt"
	"strings"
)

// Required slots per action intent. Faculty lookup is satisfied by either
// department or name, handled separately in missingSlots.
var requiredSlots = map[Intent][]string{
	IntentSendEmail:      {"to", "purpose"},
	IntentRaiseTicket:    {"category", "sub_category", "priority", "description"},
	IntentContactFaculty: {"department", "name"},
}

// Clarification questions per slot. One question per turn, most important
// slot first.
func questionFor(intent Intent, slot string, sess *Session) string {
	switch slot {
	case "to":
		return "Who should the email go to? You can give an email address or a faculty name."
	case "purpose":
		return "What is the purpose of your email? A short sentence is enough."
	case "category":
		return fmt.Sprintf("Which category does your issue fall under? Options: %s.", strings.Join(CategoryNames(), ", "))
	case "sub_category":
		subs := TicketCategories[sess.Slots["category"]]
		return fmt.Sprintf("Which best describes it? Options: %s.", strings.Join(subs, ", "))
	case "priority":
		return fmt.Sprintf("How urgent is this? (%s)", strings.Join(PriorityLevels, ", "))
	case "description":
		return "Please describe the issue in a couple of sentences (at least 20 characters)."
	case "department", "name":
		return "Which department or faculty member are you looking for?"
	}
	return "Could you tell me a bit more?"
}

// mergeSlots folds freshly extracted slots into the session, treating the
// current message as the answer to the last clarification question when one
// was asked. Values already remembered are not overwritten by empty extracts.
func mergeSlots(sess *Session, extracted map[string]string, message string) {
	if sess.Slots == nil {
		sess.Slots = map[string]string{}
	}
	for k, v := range extracted {
		v = strings.TrimSpace(v)
		if v != "" {
			sess.Slots[k] = v
		}
	}
	// The whole message answers the slot we last asked about, unless the
	// extractor already filled it.
	if sess.LastAsked != "" && sess.Slots[sess.LastAsked] == "" {
		sess.Slots[sess.LastAsked] = strings.TrimSpace(message)
	}
	normalizeSessionSlots(sess)
}

// normalizeSessionSlots canonicalizes taxonomy-bound values and drops ones
// that fail validation so they get re-asked.
func normalizeSessionSlots(sess *Session) {
	switch sess.ActiveIntent {
	case IntentRaiseTicket:
		if v, ok := sess.Slots["category"]; ok {
			if cat := NormalizeCategory(v); cat != "" {
				sess.Slots["category"] = cat
			} else {
				delete(sess.Slots, "category")
			}
		}
		if v, ok := sess.Slots["sub_category"]; ok {
			if sub := NormalizeSubCategory(sess.Slots["category"], v); sub != "" {
				sess.Slots["sub_category"] = sub
			} else {
				delete(sess.Slots, "sub_category")
			}
		}
		if v, ok := sess.Slots["priority"]; ok {
			if p := NormalizePriority(v); p != "" {
				sess.Slots["priority"] = p
			} else {
				delete(sess.Slots, "priority")
			}
		}
		if v, ok := sess.Slots["description"]; ok && len(strings.TrimSpace(v)) < MinTicketDescriptionLen {
			delete(sess.Slots, "description")
		}
	case IntentSendEmail:
		if v, ok := sess.Slots["purpose"]; ok && len(strings.Fields(v)) < MinEmailPurposeWords {
			delete(sess.Slots, "purpose")
		}
		if v, ok := sess.Slots["tone"]; ok {
			if t := normalizeChoice(v, EmailTones); t != "" {
				sess.Slots["tone"] = t
			} else {
				delete(sess.Slots, "tone")
			}
		}
		if v, ok := sess.Slots["length"]; ok {
			if l := normalizeChoice(v, EmailLengths); l != "" {
				sess.Slots["length"] = l
			} else {
				delete(sess.Slots, "length")
			}
		}
	}
}

// missingSlots returns required slots still absent, in ask order.
func missingSlots(sess *Session) []string {
	req, ok := requiredSlots[sess.ActiveIntent]
	if !ok {
		return nil
	}
	if sess.ActiveIntent == IntentContactFaculty {
		// Either slot satisfies the lookup.
		if strings.TrimSpace(sess.Slots["department"]) != "" || strings.TrimSpace(sess.Slots["name"]) != "" {
			return nil
		}
		return []string{"department"}
	}
	var missing []string
	for _, slot := range req {
		if strings.TrimSpace(sess.Slots[slot]) == "" {
			missing = append(missing, slot)
		}
	}
	return missing
}

// clarify produces the next single clarification question and records which
// slot it targets.
func clarify(sess *Session, missing []string) Response {
	slot := missing[0]
	sess.LastAsked = slot
	sess.State = StateAwaitingSlots
	return Response{Type: RespClarification, Text: questionFor(sess.ActiveIntent, slot, sess)}
}

func normalizeChoice(input string, choices []string) string {
	in := strings.ToLower(strings.TrimSpace(input))
	for _, c := range choices {
		if in == c {
			return c
		}
	}
	return ""
}
