package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrSelfJoinRejected = errors.New("participant already joined on this connection")
	ErrNotAParticipant  = errors.New("not a participant in this room")
	ErrWrongState       = errors.New("action not allowed in current room state")
	ErrDuplicateRoom    = errors.New("room already exists")
	ErrShuttingDown     = errors.New("no new rooms while shutting down")

	// Move errors
	ErrInvalidMove = errors.New("invalid move")

	// Profile errors
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidParticipant = errors.New("invalid participant")
)

// Refinements of ErrWrongState
var (
	ErrAlreadyReady = fmt.Errorf("%w: participant already signalled ready", ErrWrongState)
	ErrAlreadyMoved = fmt.Errorf("%w: move already submitted this round", ErrWrongState)
)
