package hub

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/weiawesome/signal-relay/internal/config"
	"github.com/weiawesome/signal-relay/internal/domain"
	pkglog "github.com/weiawesome/signal-relay/pkg/log"
)

// Hub manages all WebSocket connections and the channels they joined.
// Registration is synchronous so that a connection can be addressed as soon
// as its pumps start.
type Hub struct {
	clients  map[string]*Client
	channels map[string]map[string]*Client // channel -> clientID -> client
	mu       sync.RWMutex
	config   config.WebSocketConfig
}

// NewHub creates a new Hub.
func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		channels: make(map[string]map[string]*Client),
		config:   cfg,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	l := pkglog.L()
	l.Info().Str(pkglog.FieldClientID, client.ID).Msg("client registered")
}

// Unregister removes a client from the hub and every channel it joined, then
// closes its send queue. Calling it twice is harmless.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	for name, members := range h.channels {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.channels, name)
		}
	}
	delete(h.clients, client.ID)
	close(client.Send)
	h.mu.Unlock()

	l := pkglog.L()
	l.Info().Str(pkglog.FieldClientID, client.ID).Msg("client unregistered")
}

// JoinChannel adds a registered client to a channel. Unknown clients are
// ignored.
func (h *Hub) JoinChannel(clientID, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[string]*Client)
	}
	h.channels[channel][clientID] = client
}

// Send implements the relay's transport by resolving the address to one
// client or to a channel.
func (h *Hub) Send(to domain.Address, event string, payload interface{}) error {
	switch to.Kind {
	case domain.AddressConnection:
		return h.SendToClient(to.ID, event, payload)
	case domain.AddressRoom:
		return h.BroadcastToChannel(to.ID, event, payload)
	default:
		return fmt.Errorf("unsupported address kind %v", to.Kind)
	}
}

// SendToClient sends an event to a specific client. Unknown clients are
// skipped without error.
func (h *Hub) SendToClient(clientID, event string, payload interface{}) error {
	data, err := domain.EncodeEvent(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.clients[clientID]; ok {
		h.enqueue(client, data)
	}
	return nil
}

// BroadcastToChannel sends an event to every member of a channel.
func (h *Hub) BroadcastToChannel(channel, event string, payload interface{}) error {
	data, err := domain.EncodeEvent(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.channels[channel] {
		h.enqueue(client, data)
	}
	return nil
}

// enqueue must be called with h.mu held; Unregister closes client.Send under
// the write lock, so a send under the read lock never hits a closed channel.
func (h *Hub) enqueue(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		l := pkglog.L()
		l.Warn().Str(pkglog.FieldClientID, client.ID).Msg("client send buffer full, dropping connection")
		go h.Unregister(client)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ChannelMembers returns the ids currently joined to a channel.
func (h *Hub) ChannelMembers(channel string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.channels[channel]))
	for id := range h.channels[channel] {
		ids = append(ids, id)
	}
	return ids
}

// CloseAll sends a going-away close frame to every client and closes the
// connections. Their read pumps then run the normal disconnect path.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	deadline := time.Now().Add(h.config.WriteWait)
	for _, c := range clients {
		_ = c.Conn.WriteControl(websocket.CloseMessage, msg, deadline)
		c.Conn.Close()
	}
}
