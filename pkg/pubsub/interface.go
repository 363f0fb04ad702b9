package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is one room lifecycle notification as it appears on the bus.
// ID is unique per event so consumers can drop redeliveries.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	RoomID    string          `json:"room_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent builds an event for roomID stamped with the current time.
func NewEvent(eventType, roomID string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		RoomID:    roomID,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload decodes the payload into v.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher sends events to a bus channel. Channel names follow
// RoomEventsChannel; drivers map them to their own addressing.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
}

// PubSub is a Publisher that owns a connection to the bus.
type PubSub interface {
	Publisher
	Close() error
}
