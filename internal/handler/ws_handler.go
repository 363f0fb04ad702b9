package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/weiawesome/signal-relay/internal/domain"
	"github.com/weiawesome/signal-relay/internal/hub"
	"github.com/weiawesome/signal-relay/internal/registry"
	"github.com/weiawesome/signal-relay/internal/service"
	pkglog "github.com/weiawesome/signal-relay/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub     *hub.Hub
	service service.RelayService
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, svc service.RelayService) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
	}
}

// HandleWebSocket upgrades the request, assigns the connection its id and
// starts the pumps.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	reqLogger := pkglog.Ctx(c.Request.Context())

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		reqLogger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	clientID := uuid.New().String()
	client := hub.NewClient(clientID, h.hub, conn)

	// The request context ends with this handler; the connection outlives it.
	connLogger := reqLogger.With().Str(pkglog.FieldClientID, clientID).Logger()
	ctx := pkglog.WithLogger(context.Background(), connLogger)

	client.SetDisconnectHandler(func(cl *hub.Client) {
		if err := h.service.HandleDisconnect(ctx, cl.ID); err != nil {
			connLogger.Error().Err(err).Msg("disconnect handler error")
		}
		connLogger.Info().Msg("client disconnected")
	})

	h.hub.Register(client)
	h.reply(ctx, clientID, domain.MsgTypeConnected, clientID)
	connLogger.Info().Str(pkglog.FieldRemoteAddr, conn.RemoteAddr().String()).Msg("client connected")

	go client.WritePump()
	go client.ReadPump(func(cl *hub.Client, message []byte) {
		h.handleMessage(ctx, cl, message)
	})
}

func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	l := pkglog.Ctx(ctx)

	var env domain.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		h.reply(ctx, client.ID, domain.MsgTypeError, domain.ErrMsgInvalidMessage)
		return
	}

	switch env.Type {
	case domain.MsgTypeCreateRoom:
		roomID, err := env.RoomID()
		if err != nil {
			h.reply(ctx, client.ID, domain.MsgTypeError, domain.ErrMsgInvalidMessage)
			return
		}
		if err := h.service.HandleCreateRoom(ctx, client.ID, roomID); err != nil {
			logHandlerError(l, err, roomID, "create room failed")
		}

	case domain.MsgTypeJoinRoom:
		roomID, err := env.RoomID()
		if err != nil {
			h.reply(ctx, client.ID, domain.MsgTypeError, domain.ErrMsgInvalidMessage)
			return
		}
		if err := h.service.HandleJoinRoom(ctx, client.ID, roomID); err != nil {
			logHandlerError(l, err, roomID, "join room failed")
		}

	case domain.MsgTypeSignal:
		if err := h.service.HandleSignal(ctx, client.ID, env.Payload); err != nil {
			l.Error().Err(err).Msg("signal failed")
		}

	case domain.MsgTypePing:
		h.reply(ctx, client.ID, domain.MsgTypePong, nil)

	default:
		h.reply(ctx, client.ID, domain.MsgTypeError, domain.ErrMsgUnknownType)
	}
}

func (h *WSHandler) reply(ctx context.Context, clientID, event string, payload interface{}) {
	if err := h.hub.SendToClient(clientID, event, payload); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Str(pkglog.FieldEvent, event).Msg("reply failed")
	}
}

// logHandlerError logs expected protocol rejections quietly; the client has
// already been told.
func logHandlerError(l zerolog.Logger, err error, roomID, msg string) {
	if errors.Is(err, registry.ErrRoomExists) || errors.Is(err, registry.ErrRoomNotFound) {
		l.Debug().Err(err).Str(pkglog.FieldRoomID, roomID).Msg(msg)
		return
	}
	l.Error().Err(err).Str(pkglog.FieldRoomID, roomID).Msg(msg)
}

// RegisterRoutes registers the WebSocket route.
func (h *WSHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws", h.HandleWebSocket)
}
