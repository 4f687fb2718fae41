package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionStore(t *testing.T) {
	req := require.New(t)
	s := NewSessionStore()

	_, ok := s.Identity("conn-1")
	req.False(ok)

	s.Bind("conn-1", "sid-a")
	sid, ok := s.Identity("conn-1")
	req.True(ok)
	req.EqualValues("sid-a", sid)

	// Rebinding the same connection replaces the identity.
	s.Bind("conn-1", "sid-b")
	sid, _ = s.Identity("conn-1")
	req.EqualValues("sid-b", sid)

	s.Drop("conn-1")
	_, ok = s.Identity("conn-1")
	req.False(ok)
}
