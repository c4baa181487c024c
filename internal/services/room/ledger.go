package room

import "github.com/mcoot/rpsduel/internal/model"

// Ledger holds the pending moves of a single round
type Ledger struct {
	moves map[model.ParticipantID]model.Move
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{moves: make(map[model.ParticipantID]model.Move)}
}

// Submit records a move. A second move from the same participant is
// rejected and the first is kept.
func (l *Ledger) Submit(id model.ParticipantID, move model.Move) error {
	if !move.Valid() {
		return model.ErrInvalidMove
	}
	if _, ok := l.moves[id]; ok {
		return model.ErrAlreadyMoved
	}
	l.moves[id] = move
	return nil
}

// Has reports whether id has a pending move
func (l *Ledger) Has(id model.ParticipantID) bool {
	_, ok := l.moves[id]
	return ok
}

// Len returns the number of pending moves
func (l *Ledger) Len() int {
	return len(l.moves)
}

// Take returns both moves and clears the ledger. ok is false, and
// nothing is cleared, unless both a and b have submitted.
func (l *Ledger) Take(a, b model.ParticipantID) (moveA, moveB model.Move, ok bool) {
	moveA, okA := l.moves[a]
	moveB, okB := l.moves[b]
	if !okA || !okB {
		return "", "", false
	}
	l.Clear()
	return moveA, moveB, true
}

// Clear drops all pending moves
func (l *Ledger) Clear() {
	clear(l.moves)
}
