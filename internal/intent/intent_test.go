package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBasicIntents(t *testing.T) {
	r := NewRouter(nil)

	tests := []struct {
		text       string
		wantName   string
		wantAction Action
	}{
		{"Hi there", "greeting", ActionTriggerFlow},
		{"I want to book a site visit", "book_visit", ActionTriggerFlow},
		{"what is the EMI for this flat", "emi_calculator", ActionTriggerCalculator},
		{"how much stamp duty will I pay", "stamp_duty", ActionTriggerCalculator},
		{"which documents do I need", "document_list", ActionSendDocumentList},
		{"cancel my site visit", "cancel_visit", ActionCancelVisit},
		{"let me talk to a human", "human_agent", ActionEscalate},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := r.Detect(tt.text)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantAction, got.Action)
			assert.Equal(t, 0.9, got.Confidence)
		})
	}
}

func TestDetectNoMatch(t *testing.T) {
	r := NewRouter(nil)

	got := r.Detect("asdf qwerty")
	assert.True(t, got.None())
	assert.Equal(t, 0.0, got.Confidence)

	assert.True(t, r.Detect("   ").None())
}

// Two rules matching the same input must resolve by table order, every run.
func TestDetectOrderStable(t *testing.T) {
	rules := []Rule{
		{Name: "first", Keywords: []string{"visit"}, Action: ActionTriggerFlow},
		{Name: "second", Keywords: []string{"visit"}, Action: ActionEscalate},
	}
	r := NewRouter(rules)

	for i := 0; i < 100; i++ {
		assert.Equal(t, "first", r.Detect("plan a visit").Name)
	}
}

func TestSingleWordKeywordsMatchWholeWords(t *testing.T) {
	r := NewRouter(nil)

	// "hi" must not fire inside "this".
	assert.True(t, r.Detect("is this negotiable").None())

	// Phrase keywords still match as substrings.
	assert.Equal(t, "emi_calculator", r.Detect("send the home loan breakdown").Name)
}
