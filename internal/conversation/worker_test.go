package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

// orderRecorder records the sequence of texts seen per contact.
type orderRecorder struct {
	mu   sync.Mutex
	seen map[string][]string
	done chan struct{}
	want int
}

func newOrderRecorder(want int) *orderRecorder {
	return &orderRecorder{
		seen: make(map[string][]string),
		done: make(chan struct{}),
		want: want,
	}
}

func (r *orderRecorder) ProcessInbound(_ context.Context, msg InboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[msg.ContactID] = append(r.seen[msg.ContactID], msg.Text)
	total := 0
	for _, texts := range r.seen {
		total += len(texts)
	}
	if total == r.want {
		close(r.done)
	}
	return nil
}

func TestWorkerPreservesPerContactOrder(t *testing.T) {
	queue := NewMemoryQueue(256)
	publisher := NewPublisher(queue, logging.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const perContact = 20
	contacts := []string{"alice", "bob", "carol", "dave"}
	rec := newOrderRecorder(perContact * len(contacts))

	worker := NewWorker(queue, rec, logging.Default(), WithShardCount(4))
	worker.Start(ctx)

	for i := 0; i < perContact; i++ {
		for _, contact := range contacts {
			require.NoError(t, publisher.EnqueueMessage(ctx, InboundMessage{
				ContactID: contact,
				Text:      string(rune('a' + i)),
			}))
		}
	}

	select {
	case <-rec.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for jobs to drain")
	}
	cancel()
	worker.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, contact := range contacts {
		texts := rec.seen[contact]
		require.Len(t, texts, perContact, "contact %s", contact)
		for i, text := range texts {
			assert.Equal(t, string(rune('a'+i)), text,
				"contact %s message %d out of order", contact, i)
		}
	}
}

func TestWorkerDropsMalformedJobs(t *testing.T) {
	queue := NewMemoryQueue(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := newOrderRecorder(1)
	worker := NewWorker(queue, rec, logging.Default())
	worker.Start(ctx)

	require.NoError(t, queue.Send(ctx, "{not json"))
	require.NoError(t, NewPublisher(queue, logging.Default()).EnqueueMessage(ctx, InboundMessage{
		ContactID: "c1", Text: "hello",
	}))

	select {
	case <-rec.done:
	case <-time.After(5 * time.Second):
		t.Fatal("valid job behind a malformed one was never processed")
	}
	cancel()
	worker.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"hello"}, rec.seen["c1"])
}

func TestShardForIsStable(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, shardFor("contact-42", 4), shardFor("contact-42", 4))
	}
	shard := shardFor("anything", 3)
	assert.GreaterOrEqual(t, shard, 0)
	assert.Less(t, shard, 3)
}
