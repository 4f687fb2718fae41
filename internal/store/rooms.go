// Package store holds the authoritative in-memory state: the TTL-backed
// room table and the per-connection session identities.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/huddlehq/huddle/internal/domain"
)

const roomKeyPrefix = "room:"

// createAttempts bounds id generation retries on the (practically
// impossible) uuid collision before giving up.
const createAttempts = 5

// roomRecord is the stored shape. MemberIDs never leaves this package;
// Get returns only the embedded sanitized Room.
type roomRecord struct {
	domain.Room
	MemberIDs []domain.SessionID `json:"member_ids"`
}

// RoomStore is backed by an in-memory badger instance. Every write
// re-sets the entry with the configured TTL, so the expiry horizon
// slides on activity and stale rooms fall out on their own. Expired
// keys are filtered by badger on read, which gives the lazy-eviction
// half of the policy for free.
type RoomStore struct {
	db  *badger.DB
	ttl time.Duration
	mu  *KeyedMutex
}

func NewRoomStore(db *badger.DB, ttl time.Duration) *RoomStore {
	return &RoomStore{db: db, ttl: ttl, mu: NewKeyedMutex()}
}

func roomKey(id domain.RoomID) []byte {
	return []byte(roomKeyPrefix + string(id))
}

// Create allocates a fresh id, seeds membership with the creator and
// stores the room. The returned view is sanitized.
func (s *RoomStore) Create(room domain.Room, creator domain.SessionID) (*domain.Room, error) {
	for attempt := 0; attempt < createAttempts; attempt++ {
		id := domain.RoomID(uuid.NewString())
		room.ID = id
		room.DefaultName()
		if len(room.Name) > domain.MaxRoomNameLen {
			room.Name = room.Name[:domain.MaxRoomNameLen]
		}

		rec := roomRecord{Room: room, MemberIDs: []domain.SessionID{creator}}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode room: %w", err)
		}

		unlock := s.mu.Lock(string(id))
		err = s.db.Update(func(txn *badger.Txn) error {
			if _, err := txn.Get(roomKey(id)); err == nil {
				return errors.New("room id collision")
			}
			return txn.SetEntry(badger.NewEntry(roomKey(id), data).WithTTL(s.ttl))
		})
		unlock()
		if err != nil {
			log.Warn().Err(err).Str("module", "store.rooms").Str("room", string(id)).Msg("create retry")
			continue
		}

		log.Info().Str("module", "store.rooms").Str("room", string(id)).Str("creator", string(creator)).Msg("room created")
		view := rec.Room
		return &view, nil
	}
	return nil, errors.New("room id generation exhausted")
}

// Get returns the sanitized room view or ErrRoomNotFound for an absent
// or expired id.
func (s *RoomStore) Get(id domain.RoomID) (*domain.Room, error) {
	rec, err := s.read(id)
	if err != nil {
		return nil, err
	}
	view := rec.Room
	return &view, nil
}

// Delete is idempotent; removing an absent room is a no-op.
func (s *RoomStore) Delete(id domain.RoomID) error {
	unlock := s.mu.Lock(string(id))
	defer unlock()
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(roomKey(id))
	})
	if err != nil {
		return fmt.Errorf("delete room %s: %w", id, err)
	}
	log.Info().Str("module", "store.rooms").Str("room", string(id)).Msg("room deleted")
	return nil
}

// Size reports the current member count, 0 when the room is absent.
func (s *RoomStore) Size(id domain.RoomID) int {
	rec, err := s.read(id)
	if err != nil {
		return 0
	}
	return len(rec.MemberIDs)
}

// ListMembers returns the recorded member session ids.
func (s *RoomStore) ListMembers(id domain.RoomID) ([]domain.SessionID, error) {
	rec, err := s.read(id)
	if err != nil {
		return nil, err
	}
	return rec.MemberIDs, nil
}

// IsMember reports whether sid is recorded in the room. Absent or
// expired rooms report false.
func (s *RoomStore) IsMember(id domain.RoomID, sid domain.SessionID) bool {
	rec, err := s.read(id)
	if err != nil {
		return false
	}
	return lo.Contains(rec.MemberIDs, sid)
}

// AddMember records sid in the room. Adding an existing member is a
// successful no-op, so a session id occurs at most once.
func (s *RoomStore) AddMember(id domain.RoomID, sid domain.SessionID) error {
	return s.update(id, func(rec *roomRecord) {
		if lo.Contains(rec.MemberIDs, sid) {
			return
		}
		rec.MemberIDs = append(rec.MemberIDs, sid)
	})
}

// RemoveMember drops sid from the room. Removing a non-member is a
// successful no-op. The caller decides whether an emptied room should
// be deleted.
func (s *RoomStore) RemoveMember(id domain.RoomID, sid domain.SessionID) error {
	return s.update(id, func(rec *roomRecord) {
		rec.MemberIDs = lo.Without(rec.MemberIDs, sid)
	})
}

func (s *RoomStore) read(id domain.RoomID) (*roomRecord, error) {
	var rec roomRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read room %s: %w", id, err)
	}
	return &rec, nil
}

// update runs a read-modify-write under the per-room lock. The write
// re-arms the TTL.
func (s *RoomStore) update(id domain.RoomID, fn func(*roomRecord)) error {
	unlock := s.mu.Lock(string(id))
	defer unlock()
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(id))
		if err != nil {
			return err
		}
		var rec roomRecord
		if err := item.Value(func(v []byte) error {
			return json.Unmarshal(v, &rec)
		}); err != nil {
			return err
		}
		fn(&rec)
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(roomKey(id), data).WithTTL(s.ttl))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("update room %s: %w", id, err)
	}
	return nil
}
