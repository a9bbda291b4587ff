package transcript

import (
	"context"

	"github.com/NiveshSarthi/RealNex-sub001/internal/conversation"
	"github.com/NiveshSarthi/RealNex-sub001/internal/messaging"
	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

// RecordingProcessor wraps a conversation.Processor, persisting each inbound
// message before delegating. Persistence failures are logged, never fatal:
// losing a transcript row must not block a reply.
type RecordingProcessor struct {
	next   conversation.Processor
	store  *Store
	logger *logging.Logger
}

// RecordInbound wraps next with inbound transcript capture.
func RecordInbound(next conversation.Processor, store *Store, logger *logging.Logger) *RecordingProcessor {
	if logger == nil {
		logger = logging.Default()
	}
	return &RecordingProcessor{next: next, store: store, logger: logger.Component("transcript")}
}

func (p *RecordingProcessor) ProcessInbound(ctx context.Context, msg conversation.InboundMessage) error {
	if err := p.store.Append(ctx, Message{
		ContactID: msg.ContactID,
		Direction: DirectionInbound,
		Kind:      "text",
		Body:      msg.Text,
		CreatedAt: msg.Timestamp,
	}); err != nil {
		p.logger.Error("recording inbound message", "contact_id", msg.ContactID, "error", err)
	}
	return p.next.ProcessInbound(ctx, msg)
}

// RecordingMessenger wraps a messaging.Messenger, persisting each outbound
// message after a successful send.
type RecordingMessenger struct {
	next   messaging.Messenger
	store  *Store
	logger *logging.Logger
}

// RecordOutbound wraps next with outbound transcript capture.
func RecordOutbound(next messaging.Messenger, store *Store, logger *logging.Logger) *RecordingMessenger {
	if logger == nil {
		logger = logging.Default()
	}
	return &RecordingMessenger{next: next, store: store, logger: logger.Component("transcript")}
}

var _ messaging.Messenger = (*RecordingMessenger)(nil)

func (m *RecordingMessenger) SendText(ctx context.Context, to, body string) error {
	if err := m.next.SendText(ctx, to, body); err != nil {
		return err
	}
	m.record(ctx, to, string(messaging.KindText), body)
	return nil
}

func (m *RecordingMessenger) SendButtons(ctx context.Context, to, body string, buttons []messaging.Button) error {
	if err := m.next.SendButtons(ctx, to, body, buttons); err != nil {
		return err
	}
	m.record(ctx, to, string(messaging.KindButtons), body)
	return nil
}

func (m *RecordingMessenger) SendList(ctx context.Context, to, header, body string, sections []messaging.ListSection) error {
	if err := m.next.SendList(ctx, to, header, body, sections); err != nil {
		return err
	}
	m.record(ctx, to, string(messaging.KindList), body)
	return nil
}

func (m *RecordingMessenger) record(ctx context.Context, to, kind, body string) {
	if err := m.store.Append(ctx, Message{
		ContactID: to,
		Direction: DirectionOutbound,
		Kind:      kind,
		Body:      body,
	}); err != nil {
		m.logger.Error("recording outbound message", "contact_id", to, "error", err)
	}
}
