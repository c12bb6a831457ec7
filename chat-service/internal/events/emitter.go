package events

import (
	"context"
	"sync"
	"time"

	"github.com/weiawesome/wes-support-chat/pkg/log"
	"github.com/weiawesome/wes-support-chat/pkg/pubsub"
)

const publishTimeout = 5 * time.Second

// Emitter publishes events in the background. Failures are logged and never
// reach the caller.
type Emitter struct {
	publisher pubsub.Publisher

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewEmitter(publisher pubsub.Publisher) *Emitter {
	if publisher == nil {
		publisher = pubsub.NopPublisher{}
	}
	return &Emitter{publisher: publisher}
}

func (e *Emitter) CrisisEscalated(ctx context.Context, p CrisisEscalatedPayload) {
	e.emit(ctx, pubsub.CrisisChannel(p.ToRoom), TypeCrisisEscalated, p.ToRoom, p)
}

func (e *Emitter) RoomClosed(ctx context.Context, roomID string) {
	p := RoomClosedPayload{RoomID: roomID, ClosedAt: time.Now().UTC()}
	e.emit(ctx, pubsub.RoomEventsChannel(roomID), TypeRoomClosed, roomID, p)
}

func (e *Emitter) SessionEvicted(ctx context.Context, p SessionEvictedPayload) {
	e.emit(ctx, pubsub.RoomEventsChannel(p.RoomID), TypeSessionEvicted, p.RoomID, p)
}

func (e *Emitter) emit(ctx context.Context, channel, eventType, roomID string, payload interface{}) {
	l := log.Ctx(ctx)

	event, err := pubsub.NewEvent(eventType, roomID, payload)
	if err != nil {
		l.Error().Err(err).Str(log.FieldEventType, eventType).Msg("failed to encode event")
		return
	}

	// No Add once Close has set closed.
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		l.Debug().Str(log.FieldEventType, eventType).Msg("emitter closed, event dropped")
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()

		// Detached from ctx: the connection that triggered the event may be gone.
		pctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := e.publisher.Publish(pctx, channel, event); err != nil {
			l.Warn().Err(err).Str(log.FieldEventType, eventType).Str("channel", channel).Msg("failed to publish event")
			return
		}
		l.Debug().Str(log.FieldEventType, eventType).Str("event_id", event.ID).Msg("event published")
	}()
}

// Close stops accepting events, waits for in-flight publishes, then closes the
// publisher. Events emitted after Close has begun are dropped.
func (e *Emitter) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	return e.publisher.Close()
}
