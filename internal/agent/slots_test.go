package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ticketSession(slots map[string]string) *Session {
	return &Session{ID: "s", ActiveIntent: IntentRaiseTicket, Slots: slots}
}

func TestMergeSlotsUsesMessageAsAnswerToLastQuestion(t *testing.T) {
	sess := &Session{ID: "s", ActiveIntent: IntentSendEmail, Slots: map[string]string{}, LastAsked: "purpose"}
	mergeSlots(sess, nil, "asking about the revaluation fee refund")
	assert.Equal(t, "asking about the revaluation fee refund", sess.Slots["purpose"])
}

func TestMergeSlotsExtractedValueWinsOverMessage(t *testing.T) {
	sess := &Session{ID: "s", ActiveIntent: IntentSendEmail, Slots: map[string]string{}, LastAsked: "to"}
	mergeSlots(sess, map[string]string{"to": "dean@college.edu"}, "send it to the dean please")
	assert.Equal(t, "dean@college.edu", sess.Slots["to"])
}

func TestMergeSlotsEmptyExtractDoesNotClobber(t *testing.T) {
	sess := &Session{ID: "s", ActiveIntent: IntentSendEmail, Slots: map[string]string{"to": "dean@college.edu"}}
	mergeSlots(sess, map[string]string{"to": "  "}, "also cc the registrar maybe")
	assert.Equal(t, "dean@college.edu", sess.Slots["to"])
}

func TestNormalizeDropsInvalidTaxonomyValues(t *testing.T) {
	sess := ticketSession(map[string]string{
		"category":    "plumbing in my flat",
		"priority":    "super mega urgent!!",
		"description": "too short",
	})
	normalizeSessionSlots(sess)
	assert.NotContains(t, sess.Slots, "category")
	assert.NotContains(t, sess.Slots, "description")
	assert.NotContains(t, sess.Slots, "priority")
}

func TestNormalizePrioritySynonyms(t *testing.T) {
	assert.Equal(t, "Urgent", NormalizePriority("asap"))
	assert.Equal(t, "Medium", NormalizePriority("normal"))
	assert.Equal(t, "Low", NormalizePriority("not urgent"))
	assert.Empty(t, NormalizePriority("super mega urgent!!"))
}

func TestNormalizeCanonicalizesCaseInsensitively(t *testing.T) {
	sess := ticketSession(map[string]string{
		"category":     "it support",
		"sub_category": "wi-fi / internet",
		"priority":     "high",
	})
	normalizeSessionSlots(sess)
	assert.Equal(t, "IT Support", sess.Slots["category"])
	assert.Equal(t, "Wi-Fi / Internet", sess.Slots["sub_category"])
	assert.Equal(t, "High", sess.Slots["priority"])
}

func TestShortPurposeIsReAsked(t *testing.T) {
	sess := &Session{ID: "s", ActiveIntent: IntentSendEmail, Slots: map[string]string{
		"to":      "dean@college.edu",
		"purpose": "fee stuff",
	}}
	normalizeSessionSlots(sess)
	assert.NotContains(t, sess.Slots, "purpose")
	assert.Equal(t, []string{"purpose"}, missingSlots(sess))
}

func TestMissingSlotsAskOrderForTickets(t *testing.T) {
	sess := ticketSession(map[string]string{})
	assert.Equal(t, []string{"category", "sub_category", "priority", "description"}, missingSlots(sess))

	sess.Slots["category"] = "IT Support"
	assert.Equal(t, "sub_category", missingSlots(sess)[0])
}

func TestFacultyLookupNeedsEitherDepartmentOrName(t *testing.T) {
	sess := &Session{ID: "s", ActiveIntent: IntentContactFaculty, Slots: map[string]string{}}
	assert.NotEmpty(t, missingSlots(sess))

	sess.Slots["name"] = "Rao"
	assert.Empty(t, missingSlots(sess))

	sess.Slots = map[string]string{"department": "Physics"}
	assert.Empty(t, missingSlots(sess))
}

func TestClarifyAsksOneQuestionAndRecordsSlot(t *testing.T) {
	sess := ticketSession(map[string]string{"category": "IT Support"})
	resp := clarify(sess, missingSlots(sess))

	assert.Equal(t, RespClarification, resp.Type)
	assert.Equal(t, "sub_category", sess.LastAsked)
	assert.Equal(t, StateAwaitingSlots, sess.State)
	// The question lists the category's own options.
	assert.Contains(t, resp.Text, "Portal Login Issues")
}
