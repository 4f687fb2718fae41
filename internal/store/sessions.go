package store

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/huddlehq/huddle/internal/domain"
)

// SessionStore maps a live connection to the identity presented on its
// handshake. Entries live exactly as long as the connection; the
// session itself has no record beyond room membership.
type SessionStore struct {
	mu     sync.RWMutex
	byConn map[domain.ConnID]domain.SessionID
}

func NewSessionStore() *SessionStore {
	return &SessionStore{byConn: make(map[domain.ConnID]domain.SessionID)}
}

func (s *SessionStore) Bind(conn domain.ConnID, sid domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byConn[conn] = sid
	log.Info().Str("module", "store.sessions").Str("conn", string(conn)).Str("sid", string(sid)).Msg("session bound")
}

func (s *SessionStore) Identity(conn domain.ConnID) (domain.SessionID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sid, ok := s.byConn[conn]
	return sid, ok
}

func (s *SessionStore) Drop(conn domain.ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byConn, conn)
}
