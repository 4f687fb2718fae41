package app

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/huddlehq/huddle/internal/domain"
)

// SignalConn is the transport endpoint a session channel delivers to.
// Owned by the adapter; the adapter must close it.
type SignalConn interface {
	TrySend([]byte) error
}

type connEntry struct {
	ConnID domain.ConnID
	Conn   SignalConn
}

// Registry is the channel-subscription table: which live connection a
// session id currently resolves to, and which sessions subscribe to
// each room channel. It is the single source of truth for "is this
// session live right now".
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*connEntry
	rooms    map[domain.RoomID]map[domain.SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.SessionID]*connEntry),
		rooms:    make(map[domain.RoomID]map[domain.SessionID]struct{}),
	}
}

// BindSession subscribes the connection to its session channel. A
// rebind from a newer connection simply replaces the previous one.
func (r *Registry) BindSession(sid domain.SessionID, connID domain.ConnID, conn SignalConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &connEntry{ConnID: connID, Conn: conn}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("conn", string(connID)).Msg("bound session")
}

// UnbindSession drops the session channel, but only while it is still
// held by connID. During a reconnect race the old connection's cleanup
// must not clobber the new binding; in that case nothing happens and
// the room subscriptions stay with the new connection.
func (r *Registry) UnbindSession(sid domain.SessionID, connID domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.ConnID != connID {
		return false
	}
	delete(r.sessions, sid)
	for _, members := range r.rooms {
		delete(members, sid)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("conn", string(connID)).Msg("unbound session")
	return true
}

// IsLive reports whether the session currently has a connection.
func (r *Registry) IsLive(sid domain.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[sid]
	return ok
}

// Conn resolves the session channel to its live connection.
func (r *Registry) Conn(sid domain.SessionID) (SignalConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	return entry.Conn, true
}

// SubscribeRoom adds the session to the room channel.
func (r *Registry) SubscribeRoom(roomID domain.RoomID, sid domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[domain.SessionID]struct{})
		r.rooms[roomID] = members
	}
	members[sid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Msg("subscribed to room")
}

// UnsubscribeRoom removes the session from the room channel.
func (r *Registry) UnsubscribeRoom(roomID domain.RoomID, sid domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.rooms[roomID]; ok {
		delete(members, sid)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// DropRoom removes the room channel entirely, e.g. after the room was
// deleted from the store.
func (r *Registry) DropRoom(roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}

// RoomSessions snapshots the sessions subscribed to a room channel.
func (r *Registry) RoomSessions(roomID domain.RoomID) []domain.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.rooms[roomID])
}
