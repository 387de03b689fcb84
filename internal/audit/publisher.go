package audit

import (
	"context"
	"time"

	"reentry/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit records an event, filling timestamp, actor, and request id from the
// context when the caller left them empty.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if base.ActorID == "" {
		actor := requestcontext.Actor(ctx)
		base.ActorID = actor.ID
		base.ActorName = actor.Name
	}
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}
	return p.store.Append(ctx, base)
}

func (p *Publisher) List(ctx context.Context, participantID string) ([]Event, error) {
	return p.store.ListByParticipant(ctx, participantID)
}
