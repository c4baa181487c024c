package model

import (
	"time"

	"github.com/samber/lo"
)

// DefaultRating is the rating assigned to a participant with no history
const DefaultRating = 1000

// MaxHistoryEntries bounds the per-profile game history
const MaxHistoryEntries = 50

// Profile is the persisted record kept by the scoring collaborator
type Profile struct {
	ID          ParticipantID
	DisplayName string
	Standing    Standing
	Friends     []ParticipantID
	History     []HistoryEntry // most recent last
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HistoryEntry records one finished round from the profile owner's perspective
type HistoryEntry struct {
	RoundKey     string
	OpponentID   ParticipantID
	OpponentName string
	Result       Result
	PointsEarned int
	Move         Move
	OpponentMove Move
	At           time.Time
}

// NewProfile returns a fresh profile with default standing
func NewProfile(id ParticipantID, displayName string, now time.Time) *Profile {
	return &Profile{
		ID:          id,
		DisplayName: displayName,
		Standing:    Standing{Rating: DefaultRating},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasRound reports whether the given round has already been applied
func (p *Profile) HasRound(roundKey string) bool {
	return lo.ContainsBy(p.History, func(h HistoryEntry) bool { return h.RoundKey == roundKey })
}

// AppendHistory adds an entry, dropping the oldest beyond MaxHistoryEntries
func (p *Profile) AppendHistory(entry HistoryEntry) {
	p.History = append(p.History, entry)
	if over := len(p.History) - MaxHistoryEntries; over > 0 {
		p.History = append([]HistoryEntry(nil), p.History[over:]...)
	}
}

// IsFriend reports whether id is in the friend list
func (p *Profile) IsFriend(id ParticipantID) bool {
	return lo.Contains(p.Friends, id)
}
