package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Connection
	FieldClientID   = "client_id"
	FieldRemoteAddr = "remote_addr"

	// Relay
	FieldRoomID      = "room_id"
	FieldEvent       = "event"
	FieldTarget      = "target"
	FieldViewerCount = "viewer_count"

	// Service
	FieldService = "service"
)
