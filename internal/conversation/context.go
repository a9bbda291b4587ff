// Package conversation owns per-contact dialogue state and the inbound job
// pipeline: webhook → queue → worker → flow processor.
package conversation

import (
	"time"

	"github.com/NiveshSarthi/RealNex-sub001/internal/schedule"
)

// FlowKind identifies the active multi-step conversation, if any. Calculator
// and booking flows are mutually exclusive: a context holds at most one.
type FlowKind string

const (
	FlowNone       FlowKind = ""
	FlowBooking    FlowKind = "booking"
	FlowCalculator FlowKind = "calculator"
)

// CalculatorKind selects which calculator wizard is running.
type CalculatorKind string

const (
	CalcEMI           CalculatorKind = "emi"
	CalcValuation     CalculatorKind = "valuation"
	CalcAffordability CalculatorKind = "affordability"
	CalcRentalYield   CalculatorKind = "rental_yield"
	CalcStampDuty     CalculatorKind = "stamp_duty"
	CalcROI           CalculatorKind = "roi"
)

// Context is the per-contact conversation state. Created lazily on first
// inbound message, mutated every turn, evicted by the store's TTL.
type Context struct {
	ContactID      string         `json:"contact_id"`
	Flow           FlowKind       `json:"flow"`
	Calculator     CalculatorKind `json:"calculator,omitempty"`
	Step           string         `json:"step,omitempty"`
	FailedAttempts int            `json:"failed_attempts"`
	// Escalated suppresses repeat handoffs until a recognized intent
	// shows the bot can serve the contact again.
	Escalated    bool                `json:"escalated"`
	LastIntent   string              `json:"last_intent,omitempty"`
	Greeted      bool                `json:"greeted"`
	Data         map[string]float64  `json:"data,omitempty"`
	PropertyID   string              `json:"property_id,omitempty"`
	VisitDate    string              `json:"visit_date,omitempty"` // YYYY-MM-DD
	VisitorCount int                 `json:"visitor_count,omitempty"`
	OfferedSlots []schedule.TimeSlot `json:"offered_slots,omitempty"`
	SelectedSlot *schedule.TimeSlot  `json:"selected_slot,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// SetData stores a wizard answer, allocating the map on first use.
func (c *Context) SetData(key string, value float64) {
	if c.Data == nil {
		c.Data = make(map[string]float64)
	}
	c.Data[key] = value
}

// ResetFlow clears all flow-scoped fields, returning the context to idle.
// Identity fields (ContactID, Greeted, Escalated, FailedAttempts) survive.
func (c *Context) ResetFlow() {
	c.Flow = FlowNone
	c.Calculator = ""
	c.Step = ""
	c.Data = nil
	c.PropertyID = ""
	c.VisitDate = ""
	c.VisitorCount = 0
	c.OfferedSlots = nil
	c.SelectedSlot = nil
}
