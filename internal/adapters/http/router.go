package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/huddlehq/huddle/internal/adapters/signal"
	"github.com/huddlehq/huddle/internal/config"
	"github.com/huddlehq/huddle/internal/domain"
	"github.com/huddlehq/huddle/internal/store"
)

// sessionBootstrapHandler issues a stable client token, persisted in a
// cookie-backed session. A browser without its own persisted identity
// adopts it as the session id it presents on the ws handshake.
func sessionBootstrapHandler(c *gin.Context) {
	s := sessions.Default(c)
	token, _ := s.Get("client_token").(string)
	if token == "" {
		token = uuid.NewString()
		s.Set("client_token", token)
		if err := s.Save(); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session save failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": token})
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *signal.Controller, rooms *store.RoomStore) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookieStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSessions", cookieStore))

	// Liveness probe.
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	api.GET("/session", sessionBootstrapHandler)

	// Sanitized room lookup so a landing page can validate an invite
	// link before opening the signaling connection.
	api.GET("/rooms/:id", func(c *gin.Context) {
		id, err := domain.ExtractRoomID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrRoomNotFound.Error()})
			return
		}
		room, err := rooms.Get(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrRoomNotFound.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": room})
	})

	api.GET("/ws/signal", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
