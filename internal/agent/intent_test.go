package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubGen struct {
	reply string
	err   error
	calls int
}

func (g *stubGen) Generate(_ context.Context, _, _ string) (string, error) {
	g.calls++
	return g.reply, g.err
}

func TestPendingNarrowsToKeywordIntents(t *testing.T) {
	gen := &stubGen{}
	c := NewClassifier(IntentSpec{}, gen, zap.NewNop())
	sess := &Session{ID: "s", Mode: ModeAuto}

	cases := map[string]Intent{
		"yes":                        IntentConfirm,
		"send it":                    IntentConfirm,
		"SUBMIT":                     IntentConfirm,
		"regenerate":                 IntentRegenerate,
		"cancel":                     IntentCancel,
		"never mind":                 IntentCancel,
		"make the subject shorter":   IntentEdit,
		"add my roll number as well": IntentEdit,
	}
	for msg, want := range cases {
		got := c.Classify(context.Background(), sess, msg, true)
		assert.Equal(t, want, got.Intent, "message %q", msg)
	}
	// Resolving a pending draft must never need the model.
	assert.Zero(t, gen.calls)
}

func TestCancelKeywordOnlyMatchesShortMessages(t *testing.T) {
	assert.True(t, isCancel("cancel"))
	assert.True(t, isCancel("ok stop"))
	assert.False(t, isCancel("my wifi stopped working in the hostel yesterday"))
}

func TestOutOfSetIntentDegradesToUnclear(t *testing.T) {
	gen := &stubGen{reply: `{"intent":"delete_account","confidence":0.99,"slots":{}}`}
	c := NewClassifier(IntentSpec{}, gen, zap.NewNop())
	got := c.Classify(context.Background(), &Session{ID: "s", Mode: ModeAuto}, "please delete everything", false)

	assert.Equal(t, IntentUnclear, got.Intent)
	assert.Zero(t, got.Confidence)
}

func TestProseWrappedJSONIsSalvaged(t *testing.T) {
	gen := &stubGen{reply: "Sure! Here you go: {\"intent\":\"faq\",\"confidence\":0.8,\"slots\":{}} hope that helps"}
	c := NewClassifier(IntentSpec{}, gen, zap.NewNop())
	got := c.Classify(context.Background(), &Session{ID: "s", Mode: ModeAuto}, "when is the exam?", false)

	assert.Equal(t, IntentFAQ, got.Intent)
}

func TestGarbageResponseDegradesToUnclear(t *testing.T) {
	gen := &stubGen{reply: "I think the user wants to chat."}
	c := NewClassifier(IntentSpec{}, gen, zap.NewNop())
	got := c.Classify(context.Background(), &Session{ID: "s", Mode: ModeAuto}, "hmm", false)

	assert.Equal(t, IntentUnclear, got.Intent)
}

func TestGeneratorErrorDegradesToUnclear(t *testing.T) {
	gen := &stubGen{err: errors.New("backend down")}
	c := NewClassifier(IntentSpec{}, gen, zap.NewNop())
	got := c.Classify(context.Background(), &Session{ID: "s", Mode: ModeAuto}, "is the library open", false)

	assert.Equal(t, IntentUnclear, got.Intent)
}

func TestModeHintFixesIntentWithoutModelCall(t *testing.T) {
	gen := &stubGen{}
	c := NewClassifier(IntentSpec{}, gen, zap.NewNop())

	got := c.Classify(context.Background(), &Session{ID: "s", Mode: ModeEmail}, "mail the exam cell at exams@college.edu", false)
	assert.Equal(t, IntentSendEmail, got.Intent)
	assert.Equal(t, "exams@college.edu", got.Slots["to"])

	got = c.Classify(context.Background(), &Session{ID: "s", Mode: ModeFaculty}, "who teaches networks", false)
	assert.Equal(t, IntentContactFaculty, got.Intent)

	assert.Zero(t, gen.calls)
}

func TestTicketModeSeedsDescriptionFromOpeningMessage(t *testing.T) {
	c := NewClassifier(IntentSpec{}, &stubGen{}, zap.NewNop())

	got := c.Classify(context.Background(), &Session{ID: "s", Mode: ModeTicket},
		"the projector in room 204 has been broken for a week", false)
	assert.Equal(t, IntentRaiseTicket, got.Intent)
	assert.NotEmpty(t, got.Slots["description"])

	// Mid-flow answers are slot values, not fresh descriptions.
	got = c.Classify(context.Background(), &Session{ID: "s", Mode: ModeTicket, ActiveIntent: IntentRaiseTicket},
		"Infrastructure problems with the classroom equipment", false)
	assert.Empty(t, got.Slots["description"])
}

func TestExtractEmailAddress(t *testing.T) {
	assert.Equal(t, "x@y.com", extractEmailAddress("please write to x@y.com today"))
	assert.Equal(t, "a.b@college.edu", extractEmailAddress("send it to (a.b@college.edu)."))
	assert.Empty(t, extractEmailAddress("send it to the HOD of CSE"))
	assert.Empty(t, extractEmailAddress("meet @ noon"))
}

func TestSlotExtractionFromClassifierOutput(t *testing.T) {
	gen := &stubGen{reply: `{"intent":"send_email","confidence":0.9,"slots":{"purpose":"request a bonafide certificate for my visa"}}`}
	c := NewClassifier(IntentSpec{}, gen, zap.NewNop())
	got := c.Classify(context.Background(), &Session{ID: "s", Mode: ModeAuto},
		"email admin@college.edu to request a bonafide certificate for my visa", false)

	assert.Equal(t, IntentSendEmail, got.Intent)
	assert.Equal(t, "admin@college.edu", got.Slots["to"])
	assert.Equal(t, "request a bonafide certificate for my visa", got.Slots["purpose"])
}
