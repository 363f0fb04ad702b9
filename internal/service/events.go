package service

import (
	"context"
	"time"

	pkglog "github.com/weiawesome/signal-relay/pkg/log"
	"github.com/weiawesome/signal-relay/pkg/pubsub"
)

const (
	defaultEventQueueSize = 256
	publishTimeout        = 5 * time.Second
)

type queuedEvent struct {
	channel string
	event   *pubsub.Event
}

// eventPublisher moves room lifecycle events off the relay's lock. enqueue
// never blocks; when the queue is full the event is dropped.
type eventPublisher struct {
	publisher pubsub.Publisher
	queue     chan queuedEvent
}

func newEventPublisher(p pubsub.Publisher, size int) *eventPublisher {
	if p == nil {
		return &eventPublisher{}
	}
	return &eventPublisher{
		publisher: p,
		queue:     make(chan queuedEvent, size),
	}
}

func (e *eventPublisher) enqueue(ctx context.Context, eventType string, payload *pubsub.RoomEventPayload) {
	if e.publisher == nil {
		return
	}
	l := pkglog.Ctx(ctx)

	event, err := pubsub.NewEvent(eventType, payload.RoomID, payload)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldEvent, eventType).Msg("failed to build room event")
		return
	}

	select {
	case e.queue <- queuedEvent{channel: pubsub.RoomEventsChannel(payload.RoomID), event: event}:
	default:
		l.Warn().Str(pkglog.FieldEvent, eventType).Str(pkglog.FieldRoomID, payload.RoomID).Msg("room event queue full, dropping event")
	}
}

// run drains the queue until ctx is done. Events still queued at shutdown
// are published with a fresh deadline.
func (e *eventPublisher) run(ctx context.Context) error {
	if e.publisher == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			e.drain()
			return nil
		case qe := <-e.queue:
			e.publish(ctx, qe)
		}
	}
}

func (e *eventPublisher) drain() {
	for {
		select {
		case qe := <-e.queue:
			e.publish(context.Background(), qe)
		default:
			return
		}
	}
}

func (e *eventPublisher) publish(ctx context.Context, qe queuedEvent) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := e.publisher.Publish(ctx, qe.channel, qe.event); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str(pkglog.FieldEvent, qe.event.Type).Str(pkglog.FieldRoomID, qe.event.RoomID).Msg("failed to publish room event")
	}
}
