package model

// NotificationType identifies a core-to-client notification
type NotificationType string

const (
	NotifyRoomCreated        NotificationType = "room-created"
	NotifyRoomJoined         NotificationType = "room-joined"
	NotifyPlayerJoined       NotificationType = "player-joined"
	NotifyPlayerReconnected  NotificationType = "player-reconnected"
	NotifyPlayerReady        NotificationType = "player-ready"
	NotifyStartCountdown     NotificationType = "start-countdown"
	NotifyMoveSubmitted      NotificationType = "move-submitted"
	NotifyGameResult         NotificationType = "game-result"
	NotifyTempDisconnected   NotificationType = "player-temporarily-disconnected"
	NotifyPlayerDisconnected NotificationType = "player-disconnected"
	NotifyRoomError          NotificationType = "room-error"
	NotifyRoomStats          NotificationType = "room-stats"
)

// Notification is a message delivered to a single participant connection
type Notification struct {
	Type    NotificationType `json:"type"`
	RoomID  RoomID           `json:"room_id,omitempty"`
	Payload any              `json:"data,omitempty"`
}

// ParticipantView is the public view of a participant
type ParticipantView struct {
	ID          ParticipantID `json:"id"`
	DisplayName string        `json:"display_name"`
	Rating      int           `json:"rating"`
	Score       int           `json:"score"`
}

// NewParticipantView builds the public view of p
func NewParticipantView(p Participant) ParticipantView {
	return ParticipantView{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Rating:      p.Snapshot.Rating,
		Score:       p.Snapshot.Score,
	}
}

// RoomCreatedPayload is sent to the host when a room is created
type RoomCreatedPayload struct {
	Host  ParticipantView `json:"host"`
	State RoomState       `json:"state"`
}

// RoomJoinedPayload acknowledges a join or reconnection to the joiner
type RoomJoinedPayload struct {
	Role        Role             `json:"role"`
	State       RoomState        `json:"state"`
	Opponent    *ParticipantView `json:"opponent,omitempty"`
	Reconnected bool             `json:"reconnected"`
}

// PlayerJoinedPayload tells the host who joined
type PlayerJoinedPayload struct {
	Participant ParticipantView `json:"participant"`
	State       RoomState       `json:"state"`
}

// ParticipantPayload carries just a participant identity
type ParticipantPayload struct {
	ParticipantID ParticipantID `json:"participant_id"`
}

// StartCountdownPayload announces that moves are now accepted
type StartCountdownPayload struct {
	Seconds int `json:"seconds"`
}

// GameResultPayload is the per-participant result of a round
type GameResultPayload struct {
	Move         Move          `json:"move"`
	OpponentMove Move          `json:"opponent_move"`
	Result       Result        `json:"result"`
	OpponentID   ParticipantID `json:"opponent_id"`
}

// TempDisconnectedPayload warns that the opponent dropped mid-round
type TempDisconnectedPayload struct {
	ParticipantID ParticipantID `json:"participant_id"`
	GraceSeconds  int           `json:"grace_seconds"`
}

// RoomErrorPayload reports a rejected action to its originator
type RoomErrorPayload struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// RoomStatsPayload answers a room-stats request
type RoomStatsPayload struct {
	TotalRooms   int `json:"total_rooms"`
	TotalChoices int `json:"total_choices"`
}
