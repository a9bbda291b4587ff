// Package flow is the conversation state machine: it turns one inbound
// message plus the contact's stored context into the next context and the
// outbound replies. All turn logic is synchronous and deterministic given a
// clock; transport and persistence live behind interfaces.
package flow

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/NiveshSarthi/RealNex-sub001/internal/conversation"
	"github.com/NiveshSarthi/RealNex-sub001/internal/intent"
	"github.com/NiveshSarthi/RealNex-sub001/internal/messaging"
	"github.com/NiveshSarthi/RealNex-sub001/internal/observability/metrics"
	"github.com/NiveshSarthi/RealNex-sub001/internal/schedule"
	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

var engineTracer = otel.Tracer("flow.engine")

// maxOfferedSlots caps how many times are listed per date so the reply stays
// readable on a phone.
const maxOfferedSlots = 6

// defaultMaxFailedAttempts before an unmatched contact is escalated.
const defaultMaxFailedAttempts = 3

// Booker is the slice of the scheduler the engine needs.
type Booker interface {
	AvailableSlots(ctx context.Context, date time.Time, kind schedule.AppointmentKind, agentID string) ([]schedule.TimeSlot, error)
	Book(ctx context.Context, req schedule.BookingRequest) (schedule.Appointment, error)
	CancelUpcoming(ctx context.Context, contactID, reason string) (schedule.Appointment, error)
}

// Engine drives conversations. One instance serves all contacts; per-contact
// state lives entirely in the conversation store.
type Engine struct {
	store      conversation.Store
	intents    *intent.Router
	scheduler  Booker
	messenger  messaging.Messenger
	logger     *logging.Logger
	metrics    *metrics.EngineMetrics
	hours      schedule.WeeklyHours
	loc        *time.Location
	properties []Property
	agentID    string
	maxFailed  int
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithMetrics attaches engine metrics.
func WithMetrics(m *metrics.EngineMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithHours overrides the business-hours calendar.
func WithHours(hours schedule.WeeklyHours) EngineOption {
	return func(e *Engine) { e.hours = hours }
}

// WithProperties overrides the property catalog.
func WithProperties(properties []Property) EngineOption {
	return func(e *Engine) { e.properties = properties }
}

// WithLocation sets the business timezone used for slot display and the
// after-hours gate.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) { e.loc = loc }
}

// WithMaxFailedAttempts sets how many consecutive unmatched messages trigger
// an escalation.
func WithMaxFailedAttempts(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxFailed = n
		}
	}
}

// WithAgentID sets the agent whose calendar bookings land on.
func WithAgentID(id string) EngineOption {
	return func(e *Engine) { e.agentID = id }
}

// NewEngine wires the conversation engine.
func NewEngine(store conversation.Store, router *intent.Router, scheduler Booker, messenger messaging.Messenger, logger *logging.Logger, opts ...EngineOption) *Engine {
	if store == nil {
		panic("flow: store required")
	}
	if scheduler == nil {
		panic("flow: scheduler required")
	}
	if router == nil {
		router = intent.NewRouter(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		store:      store,
		intents:    router,
		scheduler:  scheduler,
		messenger:  messenger,
		logger:     logger.Component("flow"),
		hours:      schedule.DefaultWeeklyHours,
		loc:        time.UTC,
		properties: DefaultProperties,
		agentID:    "default",
		maxFailed:  defaultMaxFailedAttempts,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessInbound handles one queued message end to end: after-hours gate,
// load context, run the turn, persist, dispatch replies. It implements
// conversation.Processor. Dispatch failures are not returned: a send error
// must not make the queue redeliver an already-applied turn.
func (e *Engine) ProcessInbound(ctx context.Context, msg conversation.InboundMessage) error {
	ctx, span := engineTracer.Start(ctx, "flow.process_inbound")
	defer span.End()

	now := e.now().In(e.loc)

	if !e.hours.Open(now) {
		e.metrics.ObserveInbound("after_hours")
		messaging.Dispatch(ctx, e.messenger, e.logger, msg.ContactID, []messaging.Outbound{
			messaging.Text(afterHoursMessage),
		})
		return nil
	}

	convCtx, err := e.store.Get(ctx, msg.ContactID)
	if err != nil {
		e.metrics.ObserveInbound("store_error")
		return err
	}

	next, replies := e.Turn(ctx, convCtx, msg.Text, now)

	if _, err := e.store.Update(ctx, msg.ContactID, func(c *conversation.Context) {
		next.UpdatedAt = now
		*c = next
	}); err != nil {
		e.metrics.ObserveInbound("store_error")
		e.logger.Error("persisting conversation context", "contact_id", msg.ContactID, "error", err)
		messaging.Dispatch(ctx, e.messenger, e.logger, msg.ContactID, []messaging.Outbound{
			messaging.Text(persistenceFailureMessage),
		})
		return err
	}

	messaging.Dispatch(ctx, e.messenger, e.logger, msg.ContactID, replies)

	// Turn latency is observed by the worker wrapping this call, once per
	// job, so it is not recorded here as well.
	e.metrics.ObserveInbound("processed")
	return nil
}

// Turn advances the conversation by one message. It is pure with respect to
// state: the caller's context is not mutated, the returned context is the
// state to persist.
func (e *Engine) Turn(ctx context.Context, convCtx conversation.Context, text string, now time.Time) (conversation.Context, []messaging.Outbound) {
	c := convCtx
	trimmed := strings.TrimSpace(text)

	if c.Flow != conversation.FlowNone {
		if isCancelWord(trimmed) {
			c.ResetFlow()
			c.FailedAttempts = 0
			return c, []messaging.Outbound{messaging.Text(bookingAbortedMessage), whatNextMenu()}
		}
		// An explicit ask for a human always wins over the wizard step.
		if det := e.intents.Detect(trimmed); det.Action == intent.ActionEscalate {
			return c, e.escalate(&c)
		}
		switch c.Flow {
		case conversation.FlowCalculator:
			return c, handleCalculatorStep(&c, trimmed)
		case conversation.FlowBooking:
			return c, e.handleBookingStep(ctx, &c, trimmed, now)
		}
	}

	det := e.intents.Detect(trimmed)
	if det.None() {
		return c, e.handleFallback(&c)
	}

	c.LastIntent = det.Name
	c.FailedAttempts = 0
	// A recognized non-handoff intent means the bot can serve them again, so
	// a later breakdown may hand off afresh.
	if det.Action != intent.ActionEscalate {
		c.Escalated = false
	}

	switch det.Action {
	case intent.ActionTriggerFlow:
		if det.Payload == "booking" {
			return c, e.startBooking(&c)
		}
		// Greeting.
		first := !c.Greeted
		c.Greeted = true
		return c, welcomeMenu(first)

	case intent.ActionTriggerCalculator:
		kind := conversation.CalculatorKind(det.Payload)
		if _, ok := calculatorWizards[kind]; !ok {
			return c, e.handleFallback(&c)
		}
		e.metrics.ObserveFlowStarted("calculator_" + det.Payload)
		return c, startCalculator(&c, kind)

	case intent.ActionSendDocumentList:
		return c, []messaging.Outbound{documentChecklist(), whatNextMenu()}

	case intent.ActionCancelVisit:
		return c, e.cancelVisit(ctx, &c)

	case intent.ActionEscalate:
		return c, e.escalate(&c)
	}

	return c, e.handleFallback(&c)
}

// handleFallback cycles canned fallbacks and escalates once the attempt
// budget is exhausted. Escalation resets the counter so one quiet contact
// does not trigger a second handoff on their next message.
func (e *Engine) handleFallback(c *conversation.Context) []messaging.Outbound {
	c.FailedAttempts++
	if c.FailedAttempts >= e.maxFailed {
		return e.escalate(c)
	}
	msg := fallbackMessages[(c.FailedAttempts-1)%len(fallbackMessages)]
	return []messaging.Outbound{messaging.Text(msg)}
}

func (e *Engine) escalate(c *conversation.Context) []messaging.Outbound {
	// An already-escalated contact gets a reminder, not a second handoff:
	// the advisor was notified once and the counter should not double.
	if c.Escalated {
		c.ResetFlow()
		c.FailedAttempts = 0
		return []messaging.Outbound{messaging.Text(escalationPendingMessage)}
	}
	c.ResetFlow()
	c.Escalated = true
	c.FailedAttempts = 0
	e.metrics.ObserveEscalation()
	e.logger.Info("conversation escalated", "contact_id", c.ContactID)
	return []messaging.Outbound{messaging.Text(escalationMessage)}
}

// isCancelWord matches a bare abort command mid-flow. Only whole-message
// matches count: "cancel" inside a longer sentence is left to the flow step.
func isCancelWord(text string) bool {
	switch strings.ToLower(text) {
	case "cancel", "stop", "exit", "quit", "menu":
		return true
	}
	return false
}
