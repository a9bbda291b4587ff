package messaging

import (
	"context"

	"github.com/NiveshSarthi/RealNex-sub001/internal/observability/metrics"
)

// InstrumentedMessenger wraps a Messenger with prometheus outbound counters.
type InstrumentedMessenger struct {
	next    Messenger
	metrics *metrics.EngineMetrics
}

// Instrument wraps m so every send is counted by kind and status.
func Instrument(next Messenger, m *metrics.EngineMetrics) *InstrumentedMessenger {
	return &InstrumentedMessenger{next: next, metrics: m}
}

var _ Messenger = (*InstrumentedMessenger)(nil)

func (i *InstrumentedMessenger) SendText(ctx context.Context, to, body string) error {
	return i.observe(string(KindText), i.next.SendText(ctx, to, body))
}

func (i *InstrumentedMessenger) SendButtons(ctx context.Context, to, body string, buttons []Button) error {
	return i.observe(string(KindButtons), i.next.SendButtons(ctx, to, body, buttons))
}

func (i *InstrumentedMessenger) SendList(ctx context.Context, to, header, body string, sections []ListSection) error {
	return i.observe(string(KindList), i.next.SendList(ctx, to, header, body, sections))
}

func (i *InstrumentedMessenger) observe(kind string, err error) error {
	status := "ok"
	if err != nil {
		status = "error"
	}
	i.metrics.ObserveOutbound(kind, status)
	return err
}
