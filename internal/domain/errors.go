package domain

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomLocked   = errors.New("room locked")
	ErrWrongPin     = errors.New("wrong pin")
	ErrPinTooLong   = errors.New("pin too long")
	ErrUnauthorized = errors.New("not host")
	ErrNotInRoom    = errors.New("not in room")
	ErrConnNotFound = errors.New("connection not found")
)
