package audit

import "context"

// Buffer is a Store whose Append enqueues onto a channel; a Worker drains the
// channel into the real sink. Keeps slow sinks off the request path.
type Buffer struct {
	inbox chan Event
	sink  Store
}

func NewBuffer(sink Store, size int) *Buffer {
	return &Buffer{inbox: make(chan Event, size), sink: sink}
}

// Inbox is the channel a Worker should drain.
func (b *Buffer) Inbox() <-chan Event {
	return b.inbox
}

// Append enqueues the event, blocking only when the buffer is full.
func (b *Buffer) Append(ctx context.Context, event Event) error {
	select {
	case b.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListByParticipant reads through to the sink; queued events not yet drained
// by the worker are not visible.
func (b *Buffer) ListByParticipant(ctx context.Context, participantID string) ([]Event, error) {
	return b.sink.ListByParticipant(ctx, participantID)
}

// Close stops accepting events; the Worker exits once the queue drains.
func (b *Buffer) Close() {
	close(b.inbox)
}
