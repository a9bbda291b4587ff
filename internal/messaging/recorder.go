package messaging

import (
	"context"
	"sync"
)

// Recorder is a Messenger that captures sends for tests.
type Recorder struct {
	mu   sync.Mutex
	Sent []RecordedMessage

	// FailNext makes the next send return this error, once.
	FailNext error
}

// RecordedMessage is one captured send.
type RecordedMessage struct {
	To       string
	Outbound Outbound
}

var _ Messenger = (*Recorder)(nil)

func (r *Recorder) SendText(_ context.Context, to, body string) error {
	return r.record(to, Text(body))
}

func (r *Recorder) SendButtons(_ context.Context, to, body string, buttons []Button) error {
	return r.record(to, Outbound{Kind: KindButtons, Body: body, Buttons: buttons})
}

func (r *Recorder) SendList(_ context.Context, to, header, body string, sections []ListSection) error {
	return r.record(to, Outbound{Kind: KindList, Header: header, Body: body, Sections: sections})
}

func (r *Recorder) record(to string, msg Outbound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailNext; err != nil {
		r.FailNext = nil
		return err
	}
	r.Sent = append(r.Sent, RecordedMessage{To: to, Outbound: msg})
	return nil
}

// Bodies returns the body text of every captured message, in order.
func (r *Recorder) Bodies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Sent))
	for _, m := range r.Sent {
		out = append(out, m.Outbound.Body)
	}
	return out
}

// Reset clears captured messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = nil
}
