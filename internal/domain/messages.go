package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// WebSocket event types from client.
const (
	MsgTypeCreateRoom = "create-room"
	MsgTypeJoinRoom   = "join-room"
	MsgTypeSignal     = "signal"
	MsgTypePing       = "ping"
)

// WebSocket event types to client.
const (
	MsgTypeConnected    = "connected"
	MsgTypeRoomCreated  = "room-created"
	MsgTypeJoinedRoom   = "joined-room"
	MsgTypeViewerJoined = "viewer-joined"
	MsgTypeViewerLeft   = "viewer-left"
	MsgTypeStreamEnded  = "stream-ended"
	MsgTypeError        = "error"
	MsgTypePong         = "pong"
)

// Human readable strings carried by error and stream-ended events.
const (
	ErrMsgRoomExists      = "Room already exists"
	ErrMsgRoomNotFound    = "Room does not exist"
	ErrMsgInvalidMessage  = "Invalid message format"
	ErrMsgUnknownType     = "Unknown message type"
	ReasonStreamerDropped = "Streamer disconnected"
)

// ErrInvalidRoomID is returned when a create/join payload is not a JSON string.
var ErrInvalidRoomID = errors.New("room id must be a string")

// Envelope is the frame exchanged over the WebSocket in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an outbound frame. A nil payload leaves
// the payload field out.
func NewEnvelope(eventType string, payload interface{}) (*Envelope, error) {
	env := &Envelope{Type: eventType}
	if payload == nil {
		return env, nil
	}
	data, err := marshal(payload)
	if err != nil {
		return nil, err
	}
	env.Payload = data
	return env, nil
}

// Encode renders the frame as sent on the wire.
func (e *Envelope) Encode() ([]byte, error) {
	return marshal(e)
}

// EncodeEvent builds and encodes a frame in one step.
func EncodeEvent(eventType string, payload interface{}) ([]byte, error) {
	env, err := NewEnvelope(eventType, payload)
	if err != nil {
		return nil, err
	}
	return env.Encode()
}

// marshal is json.Marshal without HTML escaping, so relayed payloads keep
// their '<', '>' and '&' bytes.
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// RoomID decodes a create-room / join-room payload.
func (e *Envelope) RoomID() (string, error) {
	var id string
	if len(e.Payload) == 0 || bytes.Equal(bytes.TrimSpace(e.Payload), []byte("null")) {
		return "", ErrInvalidRoomID
	}
	if err := json.Unmarshal(e.Payload, &id); err != nil {
		return "", ErrInvalidRoomID
	}
	return id, nil
}

// SignalRequest is the inbound signal payload. Message is kept as raw bytes
// and is never inspected beyond the truthiness check.
type SignalRequest struct {
	Target  json.RawMessage `json:"target"`
	Message json.RawMessage `json:"message"`
}

// ParseSignal decodes a signal payload. ok is false when the payload must be
// dropped: not an object, target missing or not a non-empty string, or
// message missing or falsy.
func ParseSignal(payload json.RawMessage) (target string, message json.RawMessage, ok bool) {
	if !Truthy(payload) {
		return "", nil, false
	}
	var req SignalRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return "", nil, false
	}
	if err := json.Unmarshal(req.Target, &target); err != nil || target == "" {
		return "", nil, false
	}
	if !Truthy(req.Message) {
		return "", nil, false
	}
	return target, req.Message, true
}

// Truthy reports whether a JSON value would be truthy in a JavaScript client:
// absent, null, false, numeric zero and the empty string are falsy; every
// object and array, including empty ones, is truthy.
func Truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch v[0] {
	case '{', '[', 't':
		return true
	case 'n', 'f':
		return false
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return false
		}
		return s != ""
	default:
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			return false
		}
		return n != 0
	}
}

// SignalMessage is delivered to the signal target.
type SignalMessage struct {
	From    string          `json:"from"`
	Message json.RawMessage `json:"message"`
}

// ViewerEvent is sent to a streamer when a viewer joins or leaves.
type ViewerEvent struct {
	ViewerID    string `json:"viewerId"`
	ViewerCount int    `json:"viewerCount"`
}
