package response

import (
	"time"

	"github.com/samber/lo"

	"github.com/mcoot/rpsduel/internal/model"
)

// Participant represents a seated participant in API responses
type Participant struct {
	ID             string     `json:"id"`
	DisplayName    string     `json:"display_name"`
	Role           string     `json:"role"`
	Rating         int        `json:"rating"`
	Score          int        `json:"score"`
	Connected      bool       `json:"connected"`
	Ready          bool       `json:"ready"`
	HasMoved       bool       `json:"has_moved"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// ParticipantFromModel converts a slot snapshot. It returns nil for an empty slot.
func ParticipantFromModel(s *model.SlotSnapshot) *Participant {
	if s == nil {
		return nil
	}
	return &Participant{
		ID:             string(s.Participant.ID),
		DisplayName:    s.Participant.DisplayName,
		Role:           string(s.Role),
		Rating:         s.Participant.Snapshot.Rating,
		Score:          s.Participant.Snapshot.Score,
		Connected:      s.Connected,
		Ready:          s.Ready,
		HasMoved:       s.HasMoved,
		DisconnectedAt: s.DisconnectedAt,
	}
}

// Room represents a room in API responses. Pending moves are never exposed;
// only whether each side has locked one in.
type Room struct {
	ID             string       `json:"id"`
	State          string       `json:"state"`
	Host           *Participant `json:"host"`
	Guest          *Participant `json:"guest"`
	CreatedAt      time.Time    `json:"created_at"`
	DisconnectedAt *time.Time   `json:"disconnected_at,omitempty"`
	Outcome        string       `json:"outcome,omitempty"`
	Winner         string       `json:"winner,omitempty"`
}

// RoomFromModel converts model.RoomSnapshot
func RoomFromModel(r model.RoomSnapshot) Room {
	return Room{
		ID:             string(r.ID),
		State:          string(r.State),
		Host:           ParticipantFromModel(r.Host),
		Guest:          ParticipantFromModel(r.Guest),
		CreatedAt:      r.CreatedAt,
		DisconnectedAt: r.DisconnectedAt,
		Outcome:        string(r.Outcome),
		Winner:         string(r.Winner),
	}
}

// Stats is the response for GET /api/v1/stats
type Stats struct {
	TotalRooms   int `json:"total_rooms"`
	TotalChoices int `json:"total_choices"`
}

// StatsFromModel converts model.RegistryStats
func StatsFromModel(s model.RegistryStats) Stats {
	return Stats{TotalRooms: s.Rooms, TotalChoices: s.PendingChoices}
}

// HistoryEntry is one finished round in a player's history
type HistoryEntry struct {
	OpponentID   string    `json:"opponent_id"`
	OpponentName string    `json:"opponent_name"`
	Result       string    `json:"result"`
	PointsEarned int       `json:"points_earned"`
	Move         string    `json:"move"`
	OpponentMove string    `json:"opponent_move"`
	At           time.Time `json:"at"`
}

// Player represents a player profile in API responses
type Player struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Rating      int            `json:"rating"`
	Score       int            `json:"score"`
	Friends     []string       `json:"friends"`
	History     []HistoryEntry `json:"history"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PlayerFromModel converts a model.Profile to a response Player
func PlayerFromModel(p *model.Profile) Player {
	friends := lo.Map(p.Friends, func(f model.ParticipantID, _ int) string { return string(f) })
	history := lo.Map(p.History, func(h model.HistoryEntry, _ int) HistoryEntry {
		return HistoryEntry{
			OpponentID:   string(h.OpponentID),
			OpponentName: h.OpponentName,
			Result:       string(h.Result),
			PointsEarned: h.PointsEarned,
			Move:         string(h.Move),
			OpponentMove: string(h.OpponentMove),
			At:           h.At,
		}
	})
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		Rating:      p.Standing.Rating,
		Score:       p.Standing.Score,
		Friends:     friends,
		History:     history,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
