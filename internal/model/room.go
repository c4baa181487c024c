package model

import "time"

// RoomID identifies a room, caller-supplied or registry-generated
type RoomID string

// RoomState is the lifecycle state of a room
type RoomState string

const (
	RoomStateWaitingForPlayer RoomState = "waiting_for_player"
	RoomStateReady            RoomState = "ready"
	RoomStateCountdown        RoomState = "countdown"
	RoomStateResultCooldown   RoomState = "result_cooldown"
	RoomStateFinished         RoomState = "finished"
)

// AcceptsMoves reports whether moves may be submitted in this state
func (s RoomState) AcceptsMoves() bool {
	return s == RoomStateCountdown
}

// RoundConcluded reports whether the round has already been resolved
func (s RoomState) RoundConcluded() bool {
	return s == RoomStateResultCooldown || s == RoomStateFinished
}

// Role distinguishes the two slots of a room
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// SlotSnapshot is a read-only view of one occupied slot
type SlotSnapshot struct {
	Participant    Participant
	Role           Role
	Connected      bool
	Ready          bool
	HasMoved       bool
	DisconnectedAt *time.Time
}

// RoomSnapshot is a read-only copy of a room's state
type RoomSnapshot struct {
	ID             RoomID
	State          RoomState
	Host           *SlotSnapshot
	Guest          *SlotSnapshot
	CreatedAt      time.Time
	DisconnectedAt *time.Time
	Outcome        Outcome // empty until resolved
	Winner         ParticipantID
}

// Slot returns the snapshot of the slot held by id, or nil
func (r *RoomSnapshot) Slot(id ParticipantID) *SlotSnapshot {
	if r.Host != nil && r.Host.Participant.ID == id {
		return r.Host
	}
	if r.Guest != nil && r.Guest.Participant.ID == id {
		return r.Guest
	}
	return nil
}

// RegistryStats summarises the live registry
type RegistryStats struct {
	Rooms          int
	PendingChoices int
}
