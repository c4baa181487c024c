package model

import (
	"fmt"
	"strings"
)

// Move is one of the three symmetric options
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

// Moves lists every valid move
var Moves = []Move{MoveRock, MovePaper, MoveScissors}

// beats maps each move to the single move it defeats
var beats = map[Move]Move{
	MoveRock:     MoveScissors,
	MoveScissors: MovePaper,
	MovePaper:    MoveRock,
}

// ParseMove validates a raw move string
func ParseMove(s string) (Move, error) {
	m := Move(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	return m, nil
}

// Valid reports whether m is a member of the move set
func (m Move) Valid() bool {
	_, ok := beats[m]
	return ok
}

// Beats reports whether m defeats other
func (m Move) Beats(other Move) bool {
	return beats[m] == other
}

// Outcome is the result of a round from the room's perspective
type Outcome string

const (
	OutcomeTie       Outcome = "tie"
	OutcomeHostWins  Outcome = "host_wins"
	OutcomeGuestWins Outcome = "guest_wins"
)

// Result is the outcome label relative to one participant
type Result string

const (
	ResultWin  Result = "win"
	ResultLose Result = "lose"
	ResultDraw Result = "draw"
)

// ForHost returns the result label for the host
func (o Outcome) ForHost() Result {
	switch o {
	case OutcomeHostWins:
		return ResultWin
	case OutcomeGuestWins:
		return ResultLose
	default:
		return ResultDraw
	}
}

// ForGuest returns the result label for the guest
func (o Outcome) ForGuest() Result {
	switch o {
	case OutcomeHostWins:
		return ResultLose
	case OutcomeGuestWins:
		return ResultWin
	default:
		return ResultDraw
	}
}

// OutcomeRecord is what the scoring collaborator receives for one participant
type OutcomeRecord struct {
	RoundKey       string
	ParticipantID  ParticipantID
	OpponentID     ParticipantID
	OpponentName   string
	OpponentRating int
	Result         Result
	Move           Move
	OpponentMove   Move
}
