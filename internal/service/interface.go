package service

import (
	"context"
	"encoding/json"

	"github.com/weiawesome/signal-relay/internal/domain"
	"github.com/weiawesome/signal-relay/internal/registry"
)

// Transport delivers events to connections. Sends are fire-and-forget: a
// send to a connection that is already gone is silently dropped.
type Transport interface {
	// JoinChannel adds a connection to a named multicast group.
	JoinChannel(connID, channel string)

	// Send delivers one event to a single connection or to a room channel.
	Send(to domain.Address, event string, payload interface{}) error
}

// RelayService handles the signaling protocol.
type RelayService interface {
	// HandleCreateRoom registers connID as the streamer of a new room.
	HandleCreateRoom(ctx context.Context, connID, roomID string) error

	// HandleJoinRoom adds connID to an existing room as a viewer.
	HandleJoinRoom(ctx context.Context, connID, roomID string) error

	// HandleSignal forwards an opaque message to another connection.
	HandleSignal(ctx context.Context, connID string, payload json.RawMessage) error

	// HandleDisconnect tears down rooms streamed by connID and removes it
	// from every room it viewed.
	HandleDisconnect(ctx context.Context, connID string) error

	// ListRooms returns a copy of every active room.
	ListRooms(ctx context.Context) []registry.Snapshot

	// GetRoom returns a copy of one room.
	GetRoom(ctx context.Context, roomID string) (registry.Snapshot, error)

	// Run publishes room lifecycle events until ctx is cancelled.
	Run(ctx context.Context) error
}
