package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/weiawesome/signal-relay/internal/config"
	"github.com/weiawesome/signal-relay/internal/hub"
	"github.com/weiawesome/signal-relay/internal/service"
	pkglog "github.com/weiawesome/signal-relay/pkg/log"
)

// NewRouter builds the gin engine with every route the relay serves.
func NewRouter(logger zerolog.Logger, h *hub.Hub, svc service.RelayService, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	r.Use(CORS())

	NewWSHandler(h, svc).RegisterRoutes(r)
	NewHTTPHandler(h, svc, cfg.WebRTC.GetICEServers(), cfg.Static.Dir).RegisterRoutes(r)

	return r
}
