package domain

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found or expired")
	ErrRoomFull       = errors.New("room full")
	ErrAuthRequired   = errors.New("session id required")
	ErrInvalidRoomRef = errors.New("invalid room reference")
)
