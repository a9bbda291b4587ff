package conversation

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"
	"time"

	"github.com/NiveshSarthi/RealNex-sub001/internal/observability/metrics"
	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

// Processor handles one conversation turn. Implemented by the flow engine.
type Processor interface {
	ProcessInbound(ctx context.Context, msg InboundMessage) error
}

const (
	defaultShardCount = 2
	defaultWaitSecs   = 2
	receiveBatchSize  = 5
	shardBuffer       = 32
)

// Worker consumes inbound jobs from the queue and invokes the processor.
// Jobs are sharded by contact ID onto dedicated goroutines, so turns for one
// contact are always processed in order even with multiple shards.
type Worker struct {
	queue     queueClient
	processor Processor
	logger    *logging.Logger
	metrics   *metrics.EngineMetrics
	shards    int

	wg sync.WaitGroup
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*Worker)

// WithShardCount sets the number of per-contact processing shards.
func WithShardCount(count int) WorkerOption {
	return func(w *Worker) {
		if count > 0 {
			w.shards = count
		}
	}
}

// WithMetrics attaches engine metrics to the worker.
func WithMetrics(m *metrics.EngineMetrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

// NewWorker creates a worker over the queue and processor.
func NewWorker(queue queueClient, processor Processor, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if processor == nil {
		panic("conversation: processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{
		queue:     queue,
		processor: processor,
		logger:    logger,
		shards:    defaultShardCount,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the receive loop and shard goroutines. It returns
// immediately; processing stops when ctx is cancelled. Call Wait to block
// until drain.
func (w *Worker) Start(ctx context.Context) {
	shardChans := make([]chan queuePayload, w.shards)
	for i := range shardChans {
		shardChans[i] = make(chan queuePayload, shardBuffer)
	}

	for i, ch := range shardChans {
		w.wg.Add(1)
		go func(shard int, jobs <-chan queuePayload) {
			defer w.wg.Done()
			for job := range jobs {
				w.process(ctx, shard, job)
			}
		}(i, ch)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			for _, ch := range shardChans {
				close(ch)
			}
		}()
		for {
			if ctx.Err() != nil {
				return
			}
			msgs, err := w.queue.Receive(ctx, receiveBatchSize, defaultWaitSecs)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Error("queue receive failed", "error", err)
				time.Sleep(time.Second)
				continue
			}
			for _, msg := range msgs {
				var payload queuePayload
				if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
					w.logger.Error("dropping malformed job", "job_id", msg.ID, "error", err)
					_ = w.queue.Delete(ctx, msg.ReceiptHandle)
					continue
				}
				select {
				case shardChans[shardFor(payload.Message.ContactID, w.shards)] <- payload:
					_ = w.queue.Delete(ctx, msg.ReceiptHandle)
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

// Wait blocks until all shard goroutines have drained after cancellation.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) process(ctx context.Context, shard int, job queuePayload) {
	start := time.Now()
	err := w.processor.ProcessInbound(ctx, job.Message)
	w.metrics.ObserveTurnLatency(time.Since(start).Seconds())
	if err != nil {
		// Errors here are infrastructure failures; user-input problems are
		// absorbed inside the flow engine as re-prompts.
		w.logger.Error("turn processing failed",
			"job_id", job.ID,
			"contact_id", job.Message.ContactID,
			"shard", shard,
			"error", err,
		)
		return
	}
	w.logger.Debug("turn processed", "job_id", job.ID, "contact_id", job.Message.ContactID, "shard", shard)
}

func shardFor(contactID string, shards int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(contactID))
	return int(h.Sum32() % uint32(shards))
}
