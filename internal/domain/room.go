// Package domain contains entities without logic, just meta-data.
package domain

import "fmt"

const MaxRoomNameLen = 64

type RoomID string

// RoomOpts carries creator-supplied room settings.
type RoomOpts struct {
	Capacity int `json:"capacity,omitempty"`
}

// Room is the sanitized view of a room. Membership is internal to the
// store and never serialized into payloads sent to clients.
type Room struct {
	ID        RoomID    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by,omitempty"`
	Opts      *RoomOpts `json:"opts,omitempty"`
}

// Capacity returns the declared capacity, 0 when no opts were given.
func (r *Room) Capacity() int {
	if r.Opts == nil {
		return 0
	}
	return r.Opts.Capacity
}

// DefaultName fills in the display name the way the meeting UI expects:
// prefer the creator label, fall back to the room id.
func (r *Room) DefaultName() {
	if r.Name != "" {
		return
	}
	if r.CreatedBy != "" {
		r.Name = fmt.Sprintf("Room by %s", r.CreatedBy)
		return
	}
	r.Name = fmt.Sprintf("with id %s", r.ID)
}
