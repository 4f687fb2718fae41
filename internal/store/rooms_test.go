package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/huddlehq/huddle/internal/domain"
)

// setupTestDB initializes a temporary in-memory badger instance.
func setupTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestStore(t *testing.T, ttl time.Duration) *RoomStore {
	t.Helper()
	return NewRoomStore(setupTestDB(t), ttl)
}

func TestRoomStore_CreateSeedsCreator(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t, time.Hour)

	room, err := s.Create(domain.Room{CreatedBy: "ann", Opts: &domain.RoomOpts{Capacity: 4}}, "sid-a")
	req.NoError(err)
	req.NotEmpty(room.ID)
	req.Equal("Room by ann", room.Name)
	req.Equal(4, room.Capacity())

	req.Equal(1, s.Size(room.ID))
	members, err := s.ListMembers(room.ID)
	req.NoError(err)
	req.Equal([]domain.SessionID{"sid-a"}, members)
	req.True(s.IsMember(room.ID, "sid-a"))
}

func TestRoomStore_AddMemberIdempotent(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t, time.Hour)

	room, err := s.Create(domain.Room{}, "sid-a")
	req.NoError(err)

	req.NoError(s.AddMember(room.ID, "sid-b"))
	req.NoError(s.AddMember(room.ID, "sid-b"))
	req.Equal(2, s.Size(room.ID))
}

func TestRoomStore_RemoveMember(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t, time.Hour)

	room, err := s.Create(domain.Room{}, "sid-a")
	req.NoError(err)
	req.NoError(s.AddMember(room.ID, "sid-b"))

	// Removing a non-member is a successful no-op.
	req.NoError(s.RemoveMember(room.ID, "sid-zzz"))
	req.Equal(2, s.Size(room.ID))

	req.NoError(s.RemoveMember(room.ID, "sid-b"))
	req.Equal(1, s.Size(room.ID))
	req.False(s.IsMember(room.ID, "sid-b"))
}

func TestRoomStore_NotFound(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t, time.Hour)

	_, err := s.Get("missing")
	req.ErrorIs(err, domain.ErrRoomNotFound)

	_, err = s.ListMembers("missing")
	req.ErrorIs(err, domain.ErrRoomNotFound)

	req.ErrorIs(s.AddMember("missing", "sid-a"), domain.ErrRoomNotFound)
	req.ErrorIs(s.RemoveMember("missing", "sid-a"), domain.ErrRoomNotFound)
	req.Equal(0, s.Size("missing"))
	req.False(s.IsMember("missing", "sid-a"))

	// Deleting an absent room is not an error.
	req.NoError(s.Delete("missing"))
}

func TestRoomStore_TTLExpiry(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t, 50*time.Millisecond)

	room, err := s.Create(domain.Room{}, "sid-a")
	req.NoError(err)

	time.Sleep(120 * time.Millisecond)

	_, err = s.Get(room.ID)
	req.ErrorIs(err, domain.ErrRoomNotFound)
	req.Equal(0, s.Size(room.ID))
}

func TestRoomStore_TTLResetsOnWrite(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t, 300*time.Millisecond)

	room, err := s.Create(domain.Room{}, "sid-a")
	req.NoError(err)

	time.Sleep(200 * time.Millisecond)
	req.NoError(s.AddMember(room.ID, "sid-b"))

	// 200ms past the write, beyond the original horizon but within the
	// re-armed one.
	time.Sleep(200 * time.Millisecond)
	_, err = s.Get(room.ID)
	req.NoError(err)

	time.Sleep(300 * time.Millisecond)
	_, err = s.Get(room.ID)
	req.ErrorIs(err, domain.ErrRoomNotFound)
}

func TestRoomStore_ConcurrentMutations(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t, time.Hour)

	room, err := s.Create(domain.Room{}, "sid-0")
	req.NoError(err)

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			sid := domain.SessionID(fmt.Sprintf("sid-%d", i+1))
			require.NoError(t, s.AddMember(room.ID, sid))
		}()
	}
	wg.Wait()
	req.Equal(n+1, s.Size(room.ID))

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			sid := domain.SessionID(fmt.Sprintf("sid-%d", i+1))
			require.NoError(t, s.RemoveMember(room.ID, sid))
		}()
	}
	wg.Wait()
	req.Equal(1, s.Size(room.ID))
}
