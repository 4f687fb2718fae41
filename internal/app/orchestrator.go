package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddlehq/huddle/internal/domain"
	"github.com/huddlehq/huddle/internal/store"
)

// Orchestrator owns the compound room operations. Each operation runs
// under a per-room lock so interleaved join/leave for the same room
// cannot lose updates; different rooms proceed independently.
type Orchestrator struct {
	Rooms    *store.RoomStore
	Registry *Registry
	Router   *Router

	// DefaultCapacity applies when a room is created without an
	// explicit positive capacity.
	DefaultCapacity int

	mu *store.KeyedMutex
}

func NewOrchestrator(rooms *store.RoomStore, reg *Registry, defaultCapacity int) *Orchestrator {
	return &Orchestrator{
		Rooms:           rooms,
		Registry:        reg,
		Router:          NewRouter(reg),
		DefaultCapacity: defaultCapacity,
		mu:              store.NewKeyedMutex(),
	}
}

// CreateRoom allocates the room with the creator as sole member,
// subscribes the creator to the room channel and confirms on their
// session channel.
func (o *Orchestrator) CreateRoom(sid domain.SessionID, room domain.Room) (*domain.Room, error) {
	if room.Capacity() <= 0 {
		room.Opts = &domain.RoomOpts{Capacity: o.DefaultCapacity}
	}
	created, err := o.Rooms.Create(room, sid)
	if err != nil {
		return nil, err
	}
	o.Registry.SubscribeRoom(created.ID, sid)
	o.Router.ToSession(sid, RoomEstablished(created))
	return created, nil
}

// Join admits a session into a room identified by a bare id or a full
// invite link. Ghost members are pruned first, then the capacity gate
// applies; on success existing members get the peer announcement and
// the joiner gets the sanitized room view.
func (o *Orchestrator) Join(sid domain.SessionID, userName, idOrLink string) (*domain.Room, error) {
	id, err := domain.ExtractRoomID(idOrLink)
	if err != nil {
		return nil, err
	}

	unlock := o.mu.Lock(string(id))
	defer unlock()

	room, err := o.Rooms.Get(id)
	if err != nil {
		return nil, err
	}

	o.pruneGhosts(id)

	// A live member re-sending join (e.g. right after a reconnect) is
	// re-confirmed, never capacity-gated out of its own room.
	if o.Rooms.IsMember(id, sid) {
		o.Registry.SubscribeRoom(id, sid)
		o.Router.ToRoom(id, sid, EstablishPeer(sid, userName))
		o.Router.ToSession(sid, RoomEstablished(room))
		return room, nil
	}

	if o.Rooms.Size(id) >= room.Capacity() {
		return nil, domain.ErrRoomFull
	}

	o.Router.ToRoom(id, sid, EstablishPeer(sid, userName))
	if err := o.Rooms.AddMember(id, sid); err != nil {
		return nil, err
	}
	o.Registry.SubscribeRoom(id, sid)
	o.Router.ToSession(sid, RoomEstablished(room))
	log.Info().Str("module", "app.orchestrator").Str("sid", string(sid)).Str("room", string(id)).Msg("joined room")
	return room, nil
}

// Leave removes the session from the room, notifies the remaining
// members and the leaver, and deletes the room once empty.
func (o *Orchestrator) Leave(sid domain.SessionID, roomID domain.RoomID) error {
	unlock := o.mu.Lock(string(roomID))
	defer unlock()
	return o.removeMember(roomID, sid, sid)
}

// ReportPeerLeft handles a surviving peer reporting that another tab
// closed without a clean leave. The reported session is removed exactly
// as if it had left itself; the notice goes to the whole room.
func (o *Orchestrator) ReportPeerLeft(target domain.SessionID, roomID domain.RoomID) error {
	unlock := o.mu.Lock(string(roomID))
	defer unlock()
	return o.removeMember(roomID, target, "")
}

// removeMember is the shared leave orchestration. except controls who
// is excluded from the room broadcast. Caller holds the room lock.
func (o *Orchestrator) removeMember(roomID domain.RoomID, sid, except domain.SessionID) error {
	if err := o.Rooms.RemoveMember(roomID, sid); err != nil {
		return err
	}
	o.Router.ToRoom(roomID, except, TerminatePeer(sid))
	o.Router.ToSession(sid, RoomTerminated(roomID))
	o.Registry.UnsubscribeRoom(roomID, sid)

	if o.Rooms.Size(roomID) == 0 {
		if err := o.Rooms.Delete(roomID); err != nil {
			return err
		}
		o.Registry.DropRoom(roomID)
	}
	return nil
}

// Relay forwards an opaque signaling payload to the recipient's session
// channel. A recipient with no live connection is pruned from the room
// instead of failing the sender's request.
func (o *Orchestrator) Relay(from, to domain.SessionID, roomID domain.RoomID, data json.RawMessage) error {
	if o.Router.ToSession(to, MessageReceived(from, data)) {
		return nil
	}

	log.Info().Str("module", "app.orchestrator").Str("to", string(to)).Str("room", string(roomID)).Msg("relay miss, pruning recipient")
	unlock := o.mu.Lock(string(roomID))
	defer unlock()
	if !o.Registry.IsLive(to) && o.Rooms.IsMember(roomID, to) {
		return o.removeMember(roomID, to, "")
	}
	return nil
}
