package sse

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/mcoot/rpsduel/internal/model"
)

// EventView is the JSON body of one SSE event
type EventView struct {
	Type          model.EventType     `json:"type"`
	RoomID        model.RoomID        `json:"room_id"`
	ParticipantID model.ParticipantID `json:"participant_id,omitempty"`
	State         model.RoomState     `json:"state,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
	Data          any                 `json:"data,omitempty"`
}

// EventName is the SSE event name for an event type: room_closed becomes
// room-closed, matching the websocket notification names
func EventName(t model.EventType) string {
	return strings.ReplaceAll(string(t), "_", "-")
}

// RenderEvent converts a room event to an SSE event name and JSON data
func RenderEvent(e model.Event) (string, string, error) {
	body, err := json.Marshal(EventView{
		Type:          e.Type,
		RoomID:        e.RoomID,
		ParticipantID: e.ParticipantID,
		State:         e.State,
		Timestamp:     e.Timestamp,
		Data:          e.Payload,
	})
	if err != nil {
		return "", "", err
	}
	return EventName(e.Type), string(body), nil
}
