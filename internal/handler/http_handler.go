package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/weiawesome/signal-relay/internal/hub"
	"github.com/weiawesome/signal-relay/internal/registry"
	"github.com/weiawesome/signal-relay/internal/service"
	pkglog "github.com/weiawesome/signal-relay/pkg/log"
	"github.com/weiawesome/signal-relay/pkg/response"
)

// HTTPHandler serves the non-WebSocket routes.
type HTTPHandler struct {
	hub        *hub.Hub
	service    service.RelayService
	iceServers []webrtc.ICEServer
	staticDir  string
}

// NewHTTPHandler creates a new HTTP handler. An empty staticDir disables
// static file serving.
func NewHTTPHandler(h *hub.Hub, svc service.RelayService, iceServers []webrtc.ICEServer, staticDir string) *HTTPHandler {
	return &HTTPHandler{
		hub:        h,
		service:    svc,
		iceServers: iceServers,
		staticDir:  staticDir,
	}
}

// RegisterRoutes registers HTTP routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/ice-servers", h.ICEServers)

	api := r.Group("/api/v1")
	{
		api.GET("/rooms", h.ListRooms)
		api.GET("/rooms/:id", h.GetRoom)
	}

	r.NoRoute(h.Static)
}

// Health reports liveness.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"clients": h.hub.ClientCount(),
	})
}

// ListRooms returns every active room.
func (h *HTTPHandler) ListRooms(c *gin.Context) {
	rooms := h.service.ListRooms(c.Request.Context())
	response.Success(c, gin.H{
		"rooms": rooms,
		"total": len(rooms),
	})
}

// GetRoom returns one room.
func (h *HTTPHandler) GetRoom(c *gin.Context) {
	room, err := h.service.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, registry.ErrRoomNotFound) {
			response.NotFound(c, "room not found")
			return
		}
		l := pkglog.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("get room failed")
		response.Internal(c, "failed to get room")
		return
	}
	response.Success(c, room)
}

// ICEServers returns the ICE servers clients should use for their peer
// connections.
func (h *HTTPHandler) ICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"iceServers": h.iceServers,
	})
}

// Static serves files from the static directory for any unmatched path.
// A directory path serves its index.html.
func (h *HTTPHandler) Static(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		response.MethodNotAllowed(c, "method not allowed")
		return
	}
	if h.staticDir == "" {
		response.NotFound(c, "not found")
		return
	}

	name := filepath.FromSlash(strings.TrimPrefix(c.Request.URL.Path, "/"))
	if !filepath.IsLocal(name) && name != "" {
		response.NotFound(c, "not found")
		return
	}
	path := filepath.Join(h.staticDir, name)

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		path = filepath.Join(path, "index.html")
		info, err = os.Stat(path)
	}
	if err != nil || info.IsDir() {
		response.NotFound(c, "not found")
		return
	}

	c.File(path)
}
