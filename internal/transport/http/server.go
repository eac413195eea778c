package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/onetimechat/relay-server/internal/config"
	"github.com/onetimechat/relay-server/internal/core"
	"github.com/onetimechat/relay-server/internal/store"
	"github.com/rs/zerolog"
)

// NewServer builds the HTTP server: health, room REST API, and the WS bridge.
func NewServer(hub *core.Hub, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger), CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	rooms := NewRoomHandlers(st, cfg.RoomsPerMinute, logger)
	api := router.Group("/api")
	{
		api.POST("/rooms", rooms.CreateRoom)
		api.GET("/rooms/:roomId", rooms.GetRoom)
		api.GET("/rooms/:roomId/users", rooms.GetRoomUsers)
		api.GET("/rooms/:roomId/messages", rooms.GetRoomMessages)
		api.DELETE("/rooms/:roomId", rooms.DeleteRoom)
	}

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
