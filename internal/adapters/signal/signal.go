package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/huddlehq/huddle/internal/app"
	"github.com/huddlehq/huddle/internal/config"
	"github.com/huddlehq/huddle/internal/domain"
	"github.com/huddlehq/huddle/internal/store"
)

var ErrBackpressure = errors.New("backpressure")

// Controller is the connection gateway: it authenticates the handshake,
// subscribes the connection to its session channel and runs the pumps.
type Controller struct {
	Orch     *app.Orchestrator
	Sessions *store.SessionStore
	Cfg      *config.Config

	limiter  *RoomRateLimiter
	upgrader websocket.Upgrader
}

func NewController(orch *app.Orchestrator, sessions *store.SessionStore, cfg *config.Config) *Controller {
	return &Controller{
		Orch:     orch,
		Sessions: sessions,
		Cfg:      cfg,
		limiter:  NewRoomRateLimiter(10, 10*time.Second),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return cfg.OriginAllowed(r.Header.Get("Origin"))
			},
		},
	}
}

// WsConn wraps a websocket with a buffered outbound channel so relay
// delivery never blocks on a slow reader.
type WsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades the connection. The handshake carries the
// required session id and an optional current-room hint used after a
// reconnect: when the hinted room still lists this session, the
// connection rejoins the room channel; otherwise the client is told its
// membership is gone.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := domain.SessionID(c.Query("session_id"))
	if sid == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrAuthRequired.Error()})
		return
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	connID := domain.ConnID(uuid.NewString())
	conn := &WsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("conn", string(connID)).Msg("new WS connection")

	ctl.Sessions.Bind(connID, sid)
	ctl.Orch.Registry.BindSession(sid, connID, conn)

	if hint := c.Query("room_id"); hint != "" {
		roomID := domain.RoomID(hint)
		if ctl.Orch.Rooms.IsMember(roomID, sid) {
			ctl.Orch.Registry.SubscribeRoom(roomID, sid)
		} else {
			// Room expired or the member was pruned while disconnected.
			ctl.sendEvent(conn, app.RoomTerminated(roomID))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, connID, conn)
}
