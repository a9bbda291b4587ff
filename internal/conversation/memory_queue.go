package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrQueueFull is returned by Send when the buffer has no room. The webhook
// layer turns it into backpressure instead of blocking a provider callback.
var ErrQueueFull = errors.New("conversation: queue full")

// MemoryQueue is a queueClient backed by a bounded in-memory channel. The
// interface matches a broker-backed client so one could replace it without
// touching the worker or publisher.
type MemoryQueue struct {
	ch chan queueMessage
}

// NewMemoryQueue creates a MemoryQueue with the provided buffer capacity.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &MemoryQueue{
		ch: make(chan queueMessage, buffer),
	}
}

// Send enqueues a payload without blocking; a full buffer is ErrQueueFull.
func (q *MemoryQueue) Send(ctx context.Context, body string) error {
	if ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	msg := queueMessage{
		ID:            uuid.NewString(),
		Body:          body,
		ReceiptHandle: uuid.NewString(),
	}

	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Receive returns up to maxMessages jobs, blocking for the first one until
// ctx is done or waitSeconds elapses. Once one job arrives, whatever else is
// already buffered is drained up to the batch size without further waiting.
func (q *MemoryQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxMessages <= 0 {
		maxMessages = 1
	}
	if waitSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(waitSeconds)*time.Second)
		defer cancel()
	}

	var first queueMessage
	select {
	case first = <-q.ch:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && waitSeconds > 0 {
			return nil, nil
		}
		return nil, ctx.Err()
	}

	messages := append(make([]queueMessage, 0, maxMessages), first)
	for len(messages) < maxMessages {
		select {
		case msg := <-q.ch:
			messages = append(messages, msg)
		default:
			return messages, nil
		}
	}
	return messages, nil
}

// Delete is a no-op; channel receive already consumed the message.
func (q *MemoryQueue) Delete(_ context.Context, _ string) error {
	return nil
}

// Depth reports how many jobs are waiting.
func (q *MemoryQueue) Depth() int {
	return len(q.ch)
}
