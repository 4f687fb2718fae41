package signal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/huddlehq/huddle/internal/domain"
)

// The wire contract is a tagged union: one envelope, one payload shape
// per type. Unrecognized fields or shapes are rejected instead of being
// silently misinterpreted.

type request struct {
	Type    string          `json:"type"`
	Seq     *int64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ackFrame mirrors the socket.io acknowledgement callback: the seq the
// client chose comes back with an empty error on success.
type ackFrame struct {
	Type  string `json:"type"`
	Seq   *int64 `json:"seq,omitempty"`
	Error string `json:"error,omitempty"`
}

type roomSpec struct {
	Name      string           `json:"name" validate:"max=64"`
	CreatedBy string           `json:"created_by" validate:"max=64"`
	Opts      *domain.RoomOpts `json:"opts"`
}

type createRoomPayload struct {
	Room roomSpec `json:"room"`
}

type joinRoomPayload struct {
	UserName string `json:"userName" validate:"required,max=64"`
	RoomID   string `json:"roomId" validate:"required"`
}

type leaveRoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

type sendMessagePayload struct {
	To     string          `json:"to" validate:"required"`
	RoomID string          `json:"roomId" validate:"required"`
	Data   json.RawMessage `json:"data" validate:"required"`
}

type reportPeerLeftPayload struct {
	UserID string `json:"userId" validate:"required"`
	RoomID string `json:"roomId" validate:"required"`
}

var validate = validator.New()

var errBadPayload = errors.New("bad payload")

// decodePayload strictly unmarshals and validates a payload shape.
func decodePayload[T any](raw json.RawMessage) (*T, error) {
	var p T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %s", errBadPayload, err)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("%w: %s", errBadPayload, err)
	}
	return &p, nil
}

// User-facing error strings; everything unexpected collapses into the
// generic one so internals never leak across the connection boundary.
const (
	genericErrMsg      = "Something went wrong, try again later!"
	roomNotFoundErrMsg = "Room not found or expired"
	roomFullErrMsg     = "Room is full, make a new one!"
	badPayloadErrMsg   = "Invalid request"
	tooManyErrMsg      = "Too many requests, slow down"
)

// ackError converts a handler error into the ack error string. An
// unparseable room reference reads the same as a missing room.
func ackError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrInvalidRoomRef):
		return roomNotFoundErrMsg
	case errors.Is(err, domain.ErrRoomFull):
		return roomFullErrMsg
	case errors.Is(err, errBadPayload):
		return badPayloadErrMsg
	default:
		return genericErrMsg
	}
}
