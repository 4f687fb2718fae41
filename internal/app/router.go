package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddlehq/huddle/internal/domain"
)

// Router translates a logical recipient (session id or room channel)
// into the live connections to deliver to. Delivery is best-effort and
// fire-and-forget: an offline recipient or a full send buffer drops the
// frame for that recipient only.
type Router struct {
	reg *Registry
}

func NewRouter(reg *Registry) *Router {
	return &Router{reg: reg}
}

// ToSession delivers an event to the session channel. It reports
// whether the frame was handed to a live connection.
func (r *Router) ToSession(sid domain.SessionID, ev Event) bool {
	conn, ok := r.reg.Conn(sid)
	if !ok {
		return false
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("type", ev.Type).Msg("marshal event")
		return false
	}
	if err := conn.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("sid", string(sid)).Str("type", ev.Type).Msg("dropped frame")
		return false
	}
	return true
}

// ToRoom delivers an event to every session subscribed to the room
// channel, optionally excluding one (the sender). Returns the number of
// successful deliveries.
func (r *Router) ToRoom(roomID domain.RoomID, except domain.SessionID, ev Event) int {
	sent := 0
	for _, sid := range r.reg.RoomSessions(roomID) {
		if sid == except {
			continue
		}
		if r.ToSession(sid, ev) {
			sent++
		}
	}
	log.Debug().Str("module", "app.router").Str("room", string(roomID)).Str("type", ev.Type).Int("sent_to", sent).Msg("room broadcast")
	return sent
}
