// Package messaging is the outbound boundary of the conversation engine. The
// engine produces message content; senders in this package own transport.
package messaging

import (
	"context"

	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

// maxButtons is the WhatsApp interactive-reply button limit.
const maxButtons = 3

// Button is a quick-reply option attached to an interactive message.
type Button struct {
	ID    string
	Title string
}

// ListRow is a selectable row inside an interactive list section.
type ListRow struct {
	ID          string
	Title       string
	Description string
}

// ListSection groups rows in an interactive list.
type ListSection struct {
	Title string
	Rows  []ListRow
}

// Messenger sends messages to a contact. Implementations must be safe for
// concurrent use.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
	SendList(ctx context.Context, to, header, body string, sections []ListSection) error
}

// OutboundKind discriminates Outbound content.
type OutboundKind string

const (
	KindText    OutboundKind = "text"
	KindButtons OutboundKind = "buttons"
	KindList    OutboundKind = "list"
)

// Outbound is message content produced by the flow engine, not yet sent.
type Outbound struct {
	Kind     OutboundKind
	Body     string
	Header   string
	Buttons  []Button
	Sections []ListSection
}

// Text builds a plain text Outbound.
func Text(body string) Outbound {
	return Outbound{Kind: KindText, Body: body}
}

// Buttons builds an interactive-buttons Outbound, truncating to the provider
// limit.
func Buttons(body string, buttons ...Button) Outbound {
	if len(buttons) > maxButtons {
		buttons = buttons[:maxButtons]
	}
	return Outbound{Kind: KindButtons, Body: body, Buttons: buttons}
}

// List builds an interactive-list Outbound.
func List(header, body string, sections ...ListSection) Outbound {
	return Outbound{Kind: KindList, Header: header, Body: body, Sections: sections}
}

// Dispatch sends each outbound message in order. Send failures are logged and
// skipped: outbound delivery is fire-and-forget from the engine's view.
func Dispatch(ctx context.Context, m Messenger, logger *logging.Logger, to string, msgs []Outbound) {
	if logger == nil {
		logger = logging.Default()
	}
	for _, msg := range msgs {
		var err error
		switch msg.Kind {
		case KindButtons:
			err = m.SendButtons(ctx, to, msg.Body, msg.Buttons)
		case KindList:
			err = m.SendList(ctx, to, msg.Header, msg.Body, msg.Sections)
		default:
			err = m.SendText(ctx, to, msg.Body)
		}
		if err != nil {
			logger.Error("outbound send failed", "to", to, "kind", msg.Kind, "error", err)
		}
	}
}
