package signal

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/huddlehq/huddle/internal/domain"
)

func TestDecodePayload_Strict(t *testing.T) {
	req := require.New(t)

	p, err := decodePayload[joinRoomPayload](json.RawMessage(`{"userName":"ann","roomId":"abc"}`))
	req.NoError(err)
	req.Equal("ann", p.UserName)
	req.Equal("abc", p.RoomID)

	// Unknown fields mean an incompatible schema revision, reject.
	_, err = decodePayload[joinRoomPayload](json.RawMessage(`{"userName":"ann","roomId":"abc","legacy":true}`))
	req.ErrorIs(err, errBadPayload)

	// Missing required fields.
	_, err = decodePayload[joinRoomPayload](json.RawMessage(`{"userName":"ann"}`))
	req.ErrorIs(err, errBadPayload)

	// Not an object at all.
	_, err = decodePayload[joinRoomPayload](json.RawMessage(`"join please"`))
	req.ErrorIs(err, errBadPayload)
}

func TestDecodePayload_CreateRoomOpts(t *testing.T) {
	req := require.New(t)

	p, err := decodePayload[createRoomPayload](json.RawMessage(`{"room":{"name":"standup","created_by":"ann","opts":{"capacity":4}}}`))
	req.NoError(err)
	req.Equal("standup", p.Room.Name)
	req.Equal(4, p.Room.Opts.Capacity)

	// Opts are optional.
	p, err = decodePayload[createRoomPayload](json.RawMessage(`{"room":{}}`))
	req.NoError(err)
	req.Nil(p.Room.Opts)
}

func TestAckError_Mapping(t *testing.T) {
	req := require.New(t)

	req.Empty(ackError(nil))
	req.Equal(roomNotFoundErrMsg, ackError(domain.ErrRoomNotFound))
	// An unparseable invite reference reads the same as a missing room.
	req.Equal(roomNotFoundErrMsg, ackError(domain.ErrInvalidRoomRef))
	req.Equal(roomFullErrMsg, ackError(domain.ErrRoomFull))
	req.Equal(badPayloadErrMsg, ackError(errBadPayload))
	// Internals never leak to the client.
	req.Equal(genericErrMsg, ackError(errors.New("badger: disk full")))
}
