package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/modoostudy/roomserver/internal/adapters/ws"
	"github.com/modoostudy/roomserver/internal/app"
	"github.com/modoostudy/roomserver/internal/config"
	"github.com/modoostudy/roomserver/internal/domain"
)

// ClientTokenMiddleware mints a per-client token that becomes the
// connection id on the websocket path. Authentication itself is
// established elsewhere; this layer only binds an identity carrier.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("RoomSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	// Read-only room inspection.
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": orch.Registry.Rooms()})
	})

	api.GET("/rooms/:id", func(c *gin.Context) {
		id := domain.RoomID(c.Param("id"))
		snap, ok := orch.Registry.Snapshot(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"roomId":            id,
			"screenShareUserId": snap.Sharer,
			"users":             snap.Users,
		})
	})

	ctrl := ws.NewController(orch, cfg)
	api.GET("/ws/room", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("conn", c.GetString("client_token")).Msg("ws room endpoint hit")
		ctrl.Handle(ctx, c)
	})

	return r
}
