package model

import "time"

// EventType identifies a public room event seen by observers
type EventType string

const (
	EventRoomCreated        EventType = "room_created"
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerReconnected  EventType = "player_reconnected"
	EventPlayerReady        EventType = "player_ready"
	EventCountdownStarted   EventType = "countdown_started"
	EventMoveLocked         EventType = "move_locked"
	EventRoundResolved      EventType = "round_resolved"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventRoomClosed         EventType = "room_closed"
)

// Event is a public room event. It never carries a pending move.
type Event struct {
	Type          EventType
	Timestamp     time.Time
	RoomID        RoomID
	ParticipantID ParticipantID // the participant who triggered the event, if any
	State         RoomState     // room state after the event
	Payload       any
}

// RoundResolvedPayload is the public summary of a resolved round
type RoundResolvedPayload struct {
	HostMove  Move          `json:"host_move"`
	GuestMove Move          `json:"guest_move"`
	Outcome   Outcome       `json:"outcome"`
	Winner    ParticipantID `json:"winner,omitempty"` // empty on tie
}

// RoomClosedPayload explains why a room was torn down
type RoomClosedPayload struct {
	Reason CloseReason `json:"reason"`
}

// CloseReason names the path that deleted a room
type CloseReason string

const (
	CloseReasonFinished     CloseReason = "finished"
	CloseReasonGraceExpired CloseReason = "grace_expired"
	CloseReasonSwept        CloseReason = "swept"
	CloseReasonDeleted      CloseReason = "deleted"
	CloseReasonShutdown     CloseReason = "shutdown"
)
