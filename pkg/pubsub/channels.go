package pubsub

import "fmt"

// Channel naming conventions for relay events.
const (
	// ChannelRoomEvents carries lifecycle events for one room.
	ChannelRoomEvents = "relay:room:%s:events"

	// PatternRoomEvents matches every room's lifecycle channel.
	PatternRoomEvents = "relay:room:*:events"
)

// Room lifecycle event types.
const (
	EventRoomCreated  = "room_created"
	EventViewerJoined = "viewer_joined"
	EventViewerLeft   = "viewer_left"
	EventRoomClosed   = "room_closed"
)

// RoomEventsChannel returns the lifecycle channel name for a room.
func RoomEventsChannel(roomID string) string {
	return fmt.Sprintf(ChannelRoomEvents, roomID)
}

// RoomEventPayload describes a change to a room's membership.
type RoomEventPayload struct {
	RoomID      string `json:"room_id"`
	StreamerID  string `json:"streamer_id"`
	ViewerID    string `json:"viewer_id,omitempty"`
	ViewerCount int    `json:"viewer_count"`
	Reason      string `json:"reason,omitempty"` // "streamer_disconnected"
}
