package model

// ParticipantID is the stable identity of a participant, supplied by the
// caller and preserved across reconnects
type ParticipantID string

// Standing is a participant's rating and accumulated score
type Standing struct {
	Rating int
	Score  int
}

// Participant represents one side of a match
type Participant struct {
	ID          ParticipantID
	DisplayName string
	Snapshot    Standing // taken at join time, display only
}
