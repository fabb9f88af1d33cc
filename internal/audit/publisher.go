package audit

import (
	"context"
	"time"

	id "cloakswap/pkg/domain"
)

// Publisher records evaluations. The capped log write is synchronous and
// authoritative; the fan-out copy is queued for the Worker and may be lost.
type Publisher struct {
	log    *Log
	fanout *RingBuffer
}

// NewPublisher creates a publisher. fanout may be nil to disable fan-out.
func NewPublisher(log *Log, fanout *RingBuffer) *Publisher {
	return &Publisher{log: log, fanout: fanout}
}

// Emit appends e to identity's log and queues it for fan-out.
func (p *Publisher) Emit(ctx context.Context, identity id.Identity, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if err := p.log.Append(ctx, identity, e); err != nil {
		return err
	}
	if p.fanout != nil {
		p.fanout.Enqueue(Event{Identity: identity, Entry: e})
	}
	return nil
}

// List returns identity's history, most recent first.
func (p *Publisher) List(ctx context.Context, identity id.Identity) ([]Entry, error) {
	return p.log.List(ctx, identity)
}
