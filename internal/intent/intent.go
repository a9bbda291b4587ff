// Package intent maps free-text WhatsApp messages to discrete intents with a
// keyword-rule table. The table is data, ordered by priority: the first rule
// with a substring match wins, which keeps classification deterministic and
// lets the table be replaced by a real classifier later without touching the
// flow engine.
package intent

import "strings"

// Action tells the flow engine what to do with a detected intent.
type Action string

const (
	ActionTriggerFlow       Action = "trigger_flow"
	ActionTriggerCalculator Action = "trigger_calculator"
	ActionSendDocumentList  Action = "send_document_list"
	ActionCancelVisit       Action = "cancel_visit"
	ActionEscalate          Action = "escalate"
)

// Intent is the classified purpose of a message. Derived per message, never
// stored.
type Intent struct {
	Name       string
	Confidence float64
	Action     Action
	Payload    string
}

// None reports whether no intent was detected.
func (i Intent) None() bool {
	return i.Name == ""
}

// matchConfidence is the fixed score assigned to keyword matches. There is no
// weighting; ties are broken by rule order.
const matchConfidence = 0.9

// Rule binds a keyword set to an intent.
type Rule struct {
	Name     string
	Keywords []string
	Action   Action
	Payload  string
}

// DefaultRules is the production rule table, highest priority first.
var DefaultRules = []Rule{
	{
		Name:     "greeting",
		Keywords: []string{"hi", "hello", "hey", "namaste", "good morning", "good evening"},
		Action:   ActionTriggerFlow,
		Payload:  "greeting",
	},
	{
		// Before book_visit so "cancel my site visit" is not read as a booking.
		Name:     "cancel_visit",
		Keywords: []string{"cancel", "can't make it", "cannot make it", "call off"},
		Action:   ActionCancelVisit,
	},
	{
		Name:     "book_visit",
		Keywords: []string{"site visit", "book", "visit", "appointment", "schedule", "see the property", "viewing"},
		Action:   ActionTriggerFlow,
		Payload:  "booking",
	},
	{
		Name:     "emi_calculator",
		Keywords: []string{"emi", "monthly installment", "loan calculator", "home loan"},
		Action:   ActionTriggerCalculator,
		Payload:  "emi",
	},
	{
		Name:     "valuation",
		Keywords: []string{"valuation", "property value", "worth", "market value"},
		Action:   ActionTriggerCalculator,
		Payload:  "valuation",
	},
	{
		Name:     "affordability",
		Keywords: []string{"afford", "budget", "how much can i"},
		Action:   ActionTriggerCalculator,
		Payload:  "affordability",
	},
	{
		Name:     "rental_yield",
		Keywords: []string{"rental yield", "rent return", "yield"},
		Action:   ActionTriggerCalculator,
		Payload:  "rental_yield",
	},
	{
		Name:     "stamp_duty",
		Keywords: []string{"stamp duty", "registration charge", "registry"},
		Action:   ActionTriggerCalculator,
		Payload:  "stamp_duty",
	},
	{
		Name:     "roi",
		Keywords: []string{"roi", "return on investment", "investment return"},
		Action:   ActionTriggerCalculator,
		Payload:  "roi",
	},
	{
		Name:     "document_list",
		Keywords: []string{"document", "documents", "paperwork", "papers required", "checklist"},
		Action:   ActionSendDocumentList,
	},
	{
		Name:     "human_agent",
		Keywords: []string{"agent", "human", "talk to someone", "call me", "representative"},
		Action:   ActionEscalate,
	},
}

// Router classifies messages against an ordered rule table.
type Router struct {
	rules []Rule
}

// NewRouter creates a router over the given rules. Passing nil uses
// DefaultRules.
func NewRouter(rules []Rule) *Router {
	if rules == nil {
		rules = DefaultRules
	}
	return &Router{rules: rules}
}

// Detect returns the first intent whose keyword set matches the text, or the
// zero Intent when nothing matches.
func (r *Router) Detect(text string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Intent{}
	}

	words := tokenize(normalized)
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if matchKeyword(normalized, words, kw) {
				return Intent{
					Name:       rule.Name,
					Confidence: matchConfidence,
					Action:     rule.Action,
					Payload:    rule.Payload,
				}
			}
		}
	}
	return Intent{}
}

// matchKeyword uses substring matching for phrases and whole-word matching
// for single-word keywords, so "hi" does not fire inside "this".
func matchKeyword(text string, words map[string]struct{}, kw string) bool {
	if strings.ContainsRune(kw, ' ') {
		return strings.Contains(text, kw)
	}
	_, ok := words[kw]
	return ok
}

func tokenize(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		words[w] = struct{}{}
	}
	return words
}
