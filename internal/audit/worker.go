package audit

import (
	"context"
	"log/slog"
	"time"

	"cloakswap/pkg/platform/circuit"
)

const (
	defaultBatchSize     = 64
	defaultFlushInterval = 100 * time.Millisecond
	publishTimeout       = 5 * time.Second
)

// Worker drains the fan-out buffer into a Sink. While the sink's circuit is
// open, drained events are counted as dropped instead of retried.
type Worker struct {
	buffer   *RingBuffer
	sink     Sink
	breaker  *circuit.Breaker
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// WorkerOption configures the Worker.
type WorkerOption func(*Worker)

func WithFlushInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.interval = d
	}
}

func WithBreaker(b *circuit.Breaker) WorkerOption {
	return func(w *Worker) {
		w.breaker = b
	}
}

func NewWorker(buffer *RingBuffer, sink Sink, logger *slog.Logger, opts ...WorkerOption) *Worker {
	w := &Worker{
		buffer:   buffer,
		sink:     sink,
		breaker:  circuit.New("audit-sink"),
		logger:   logger,
		interval: defaultFlushInterval,
		batch:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains until ctx is cancelled, then makes one final pass.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			w.Drain(flushCtx)
			cancel()
			return nil
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain publishes everything currently buffered.
func (w *Worker) Drain(ctx context.Context) {
	for {
		events := w.buffer.DequeueBatch(w.batch)
		if len(events) == 0 {
			return
		}
		for i, event := range events {
			if !w.breaker.Allow() {
				w.buffer.addDropped(len(events) - i)
				break
			}
			if err := w.publish(ctx, event); err != nil {
				if change := w.breaker.RecordFailure(); change.Opened {
					w.logger.WarnContext(ctx, "audit sink circuit opened", "error", err)
				}
				w.buffer.addDropped(1)
				continue
			}
			if change := w.breaker.RecordSuccess(); change.Closed {
				w.logger.InfoContext(ctx, "audit sink circuit closed")
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (w *Worker) publish(ctx context.Context, event Event) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return w.sink.Publish(ctx, event)
}
