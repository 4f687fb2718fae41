package app

import (
	"encoding/json"

	"github.com/huddlehq/huddle/internal/domain"
)

// Event is a server-to-client frame. Payload shapes are fixed per type;
// relayed signaling data stays opaque.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	EvRoomEstablished = "room_connection_established"
	EvRoomTerminated  = "room_connection_terminated"
	EvEstablishPeer   = "establish_peer_connection"
	EvTerminatePeer   = "terminate_peer_connection"
	EvMessageReceived = "message_received"
)

func RoomEstablished(room *domain.Room) Event {
	return Event{Type: EvRoomEstablished, Payload: struct {
		Room *domain.Room `json:"room"`
	}{room}}
}

func RoomTerminated(roomID domain.RoomID) Event {
	return Event{Type: EvRoomTerminated, Payload: struct {
		RoomID domain.RoomID `json:"roomId"`
	}{roomID}}
}

func EstablishPeer(userID domain.SessionID, userName string) Event {
	return Event{Type: EvEstablishPeer, Payload: struct {
		UserID   domain.SessionID `json:"userId"`
		UserName string           `json:"userName"`
	}{userID, userName}}
}

func TerminatePeer(userID domain.SessionID) Event {
	return Event{Type: EvTerminatePeer, Payload: struct {
		UserID domain.SessionID `json:"userId"`
	}{userID}}
}

func MessageReceived(from domain.SessionID, data json.RawMessage) Event {
	return Event{Type: EvMessageReceived, Payload: struct {
		From domain.SessionID `json:"from"`
		Data json.RawMessage  `json:"data"`
	}{from, data}}
}
