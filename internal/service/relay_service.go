package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/weiawesome/signal-relay/internal/domain"
	"github.com/weiawesome/signal-relay/internal/registry"
	pkglog "github.com/weiawesome/signal-relay/pkg/log"
	"github.com/weiawesome/signal-relay/pkg/pubsub"
)

type relayService struct {
	transport Transport
	events    *eventPublisher

	// mu guards rooms for the whole of each handler, not just single map
	// operations, so two joins on one room never see the same count.
	rooms *registry.Registry
	mu    sync.Mutex
}

// NewRelayService creates a RelayService that owns rooms. publisher may be
// nil, in which case lifecycle events are not published.
func NewRelayService(transport Transport, rooms *registry.Registry, publisher pubsub.Publisher) RelayService {
	return &relayService{
		transport: transport,
		rooms:     rooms,
		events:    newEventPublisher(publisher, defaultEventQueueSize),
	}
}

func (s *relayService) HandleCreateRoom(ctx context.Context, connID, roomID string) error {
	l := pkglog.Ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.rooms.Get(roomID); err == nil {
		s.send(ctx, domain.ToConnection(connID), domain.MsgTypeError, domain.ErrMsgRoomExists)
		return fmt.Errorf("create room %q: %w", roomID, registry.ErrRoomExists)
	}

	s.transport.JoinChannel(connID, roomID)
	room, err := s.rooms.Create(roomID, connID)
	if err != nil {
		return fmt.Errorf("create room %q: %w", roomID, err)
	}

	s.send(ctx, domain.ToConnection(connID), domain.MsgTypeRoomCreated, roomID)
	s.events.enqueue(ctx, pubsub.EventRoomCreated, &pubsub.RoomEventPayload{
		RoomID:     roomID,
		StreamerID: connID,
	})

	l.Info().
		Str(pkglog.FieldRoomID, roomID).
		Str(pkglog.FieldClientID, connID).
		Time("created_at", room.CreatedAt).
		Msg("room created")
	return nil
}

func (s *relayService) HandleJoinRoom(ctx context.Context, connID, roomID string) error {
	l := pkglog.Ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.rooms.Get(roomID)
	if err != nil {
		s.send(ctx, domain.ToConnection(connID), domain.MsgTypeError, domain.ErrMsgRoomNotFound)
		return fmt.Errorf("join room %q: %w", roomID, err)
	}

	s.transport.JoinChannel(connID, roomID)

	// The streamer is already a channel member and never counts as its own
	// viewer.
	if room.Streamer == connID {
		s.send(ctx, domain.ToConnection(connID), domain.MsgTypeJoinedRoom, roomID)
		return nil
	}

	// A repeated join leaves the set unchanged but still notifies the
	// streamer again with the unchanged count.
	count, err := s.rooms.AddViewer(roomID, connID)
	if err != nil {
		return fmt.Errorf("join room %q: %w", roomID, err)
	}

	s.send(ctx, domain.ToConnection(connID), domain.MsgTypeJoinedRoom, roomID)
	s.send(ctx, domain.ToConnection(room.Streamer), domain.MsgTypeViewerJoined, &domain.ViewerEvent{
		ViewerID:    connID,
		ViewerCount: count,
	})
	s.events.enqueue(ctx, pubsub.EventViewerJoined, &pubsub.RoomEventPayload{
		RoomID:      roomID,
		StreamerID:  room.Streamer,
		ViewerID:    connID,
		ViewerCount: count,
	})

	l.Info().
		Str(pkglog.FieldRoomID, roomID).
		Str(pkglog.FieldClientID, connID).
		Int(pkglog.FieldViewerCount, count).
		Msg("viewer joined")
	return nil
}

func (s *relayService) HandleSignal(ctx context.Context, connID string, payload json.RawMessage) error {
	target, message, ok := domain.ParseSignal(payload)
	if !ok {
		l := pkglog.Ctx(ctx)
		l.Debug().Str(pkglog.FieldClientID, connID).Msg("dropping malformed signal")
		return nil
	}

	// Relaying touches no room state, so it does not take the lock.
	s.send(ctx, domain.ToConnection(target), domain.MsgTypeSignal, &domain.SignalMessage{
		From:    connID,
		Message: message,
	})
	return nil
}

func (s *relayService) HandleDisconnect(ctx context.Context, connID string) error {
	l := pkglog.Ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms.ForEach(func(roomID string, room *registry.Room) {
		switch {
		case room.Streamer == connID:
			s.send(ctx, domain.ToRoom(roomID), domain.MsgTypeStreamEnded, domain.ReasonStreamerDropped)
			s.rooms.Delete(roomID)
			s.events.enqueue(ctx, pubsub.EventRoomClosed, &pubsub.RoomEventPayload{
				RoomID:      roomID,
				StreamerID:  connID,
				ViewerCount: room.ViewerCount(),
				Reason:      "streamer_disconnected",
			})
			l.Info().Str(pkglog.FieldRoomID, roomID).Str(pkglog.FieldClientID, connID).Msg("room closed")

		case room.HasViewer(connID):
			count, err := s.rooms.RemoveViewer(roomID, connID)
			if err != nil {
				return
			}
			s.send(ctx, domain.ToConnection(room.Streamer), domain.MsgTypeViewerLeft, &domain.ViewerEvent{
				ViewerID:    connID,
				ViewerCount: count,
			})
			s.events.enqueue(ctx, pubsub.EventViewerLeft, &pubsub.RoomEventPayload{
				RoomID:      roomID,
				StreamerID:  room.Streamer,
				ViewerID:    connID,
				ViewerCount: count,
			})
			l.Info().
				Str(pkglog.FieldRoomID, roomID).
				Str(pkglog.FieldClientID, connID).
				Int(pkglog.FieldViewerCount, count).
				Msg("viewer left")
		}
	})
	return nil
}

func (s *relayService) ListRooms(ctx context.Context) []registry.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms.Snapshots()
}

func (s *relayService) GetRoom(ctx context.Context, roomID string) (registry.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms.Snapshot(roomID)
}

func (s *relayService) Run(ctx context.Context) error {
	return s.events.run(ctx)
}

func (s *relayService) send(ctx context.Context, to domain.Address, event string, payload interface{}) {
	if err := s.transport.Send(to, event, payload); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Str(pkglog.FieldTarget, to.String()).Str(pkglog.FieldEvent, event).Msg("send failed")
	}
}
