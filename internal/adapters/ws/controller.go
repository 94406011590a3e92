package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/modoostudy/roomserver/internal/app"
	"github.com/modoostudy/roomserver/internal/config"
	"github.com/modoostudy/roomserver/internal/domain"
)

const sendBufSize = 64

type Controller struct {
	Orch    *app.Orchestrator
	Limiter *JoinRateLimiter

	readLimit  int64
	pingPeriod time.Duration
	upgrader   websocket.Upgrader
}

func NewController(orch *app.Orchestrator, cfg *config.Config) *Controller {
	origin := cfg.AllowedOrigin
	return &Controller{
		Orch:       orch,
		Limiter:    NewJoinRateLimiter(10, 10*time.Second),
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if origin == "" || origin == "*" {
					return true
				}
				return r.Header.Get("Origin") == origin
			},
		},
	}
}

// Handle upgrades the request and starts the connection pumps. Every
// upgrade mints a fresh connection id: a reconnecting client comes back
// with the same user id but a new connection, and cleanup for the dead
// socket must never hit the live one. The client token stays the
// session identity carrier only.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	cid := domain.ConnID(uuid.NewString())
	log.Info().Str("module", "ws").Str("conn", string(cid)).Str("client", c.GetString("client_token")).Msg("new WS connection")

	sock, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}

	conn := newConn(sock, sendBufSize)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.OnConnect(cid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cid, conn)
}
