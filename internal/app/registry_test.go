package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/huddlehq/huddle/internal/domain"
)

func TestRegistry_BindUnbind(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	conn := &fakeConn{}

	// Given no session is connected
	req.False(r.IsLive("A"))

	// When a connection binds its session channel
	r.BindSession("A", "conn-1", conn)

	// Then the session is live and resolvable
	req.True(r.IsLive("A"))
	got, ok := r.Conn("A")
	req.True(ok)
	req.Same(conn, got.(*fakeConn))

	// And unbinding drops it
	req.True(r.UnbindSession("A", "conn-1"))
	req.False(r.IsLive("A"))
}

func TestRegistry_ReconnectRace(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	oldConn := &fakeConn{}
	newConn := &fakeConn{}

	r.BindSession("A", "conn-old", oldConn)
	r.SubscribeRoom("room-1", "A")

	// The new connection rebinds before the old one finishes cleanup.
	r.BindSession("A", "conn-new", newConn)

	// The old connection's deferred unbind must not clobber the new
	// binding or the room subscription.
	req.False(r.UnbindSession("A", "conn-old"))
	req.True(r.IsLive("A"))
	req.Contains(r.RoomSessions("room-1"), domain.SessionID("A"))

	got, _ := r.Conn("A")
	req.Same(newConn, got.(*fakeConn))
}

func TestRegistry_RoomChannels(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	r.BindSession("A", "conn-a", &fakeConn{})
	r.BindSession("B", "conn-b", &fakeConn{})
	r.SubscribeRoom("room-1", "A")
	r.SubscribeRoom("room-1", "B")
	req.ElementsMatch(r.RoomSessions("room-1"), []domain.SessionID{"A", "B"})

	r.UnsubscribeRoom("room-1", "A")
	req.Equal([]domain.SessionID{"B"}, r.RoomSessions("room-1"))

	// Disconnect removes the remaining subscription with the session.
	req.True(r.UnbindSession("B", "conn-b"))
	req.Empty(r.RoomSessions("room-1"))

	r.SubscribeRoom("room-2", "A")
	r.DropRoom("room-2")
	req.Empty(r.RoomSessions("room-2"))
}
