package ws

import (
	"encoding/json"

	"github.com/mcoot/rpsduel/internal/model"
)

// MessageType identifies a client-to-server message
type MessageType string

const (
	MsgCreateRoom MessageType = "create-room"
	MsgJoinRoom   MessageType = "join-room"
	MsgReady      MessageType = "ready"
	MsgSubmitMove MessageType = "submit-move"
	MsgRoomStats  MessageType = "room-stats"
)

// Envelope is the wire form of every message in both directions
type Envelope struct {
	Type   string          `json:"type" validate:"required"`
	RoomID model.RoomID    `json:"room_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ParticipantInfo identifies the caller on join-style messages
type ParticipantInfo struct {
	ID          string `json:"id" validate:"required,max=64"`
	DisplayName string `json:"display_name" validate:"max=64"`
}

// CreateRoomRequest asks for a new room. An empty RoomID lets the server
// pick a code.
type CreateRoomRequest struct {
	RoomID      string          `json:"room_id" validate:"omitempty,max=64"`
	Participant ParticipantInfo `json:"participant" validate:"required"`
}

// JoinRoomRequest joins, creates or reconnects to a room
type JoinRoomRequest struct {
	RoomID      string          `json:"room_id" validate:"required,max=64"`
	Participant ParticipantInfo `json:"participant" validate:"required"`
}

// ReadyRequest signals readiness for the next round
type ReadyRequest struct {
	RoomID        string `json:"room_id" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
}

// SubmitMoveRequest locks in a move
type SubmitMoveRequest struct {
	RoomID        string `json:"room_id" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
	Move          string `json:"move" validate:"required"`
}

// NewEnvelope encodes payload as the data of a message of type t
func NewEnvelope(t MessageType, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: string(t), Data: data}, nil
}

// Decode unmarshals the envelope's data into v
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(e.Data, v)
}
