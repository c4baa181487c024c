package scoring

import (
	"fmt"
	"math"

	"github.com/mcoot/rpsduel/internal/model"
)

// Policy turns a result into a new standing
type Policy interface {
	Name() string
	Apply(own model.Standing, opponentRating int, result model.Result) model.Standing
}

// FlatPolicy awards fixed points per result and leaves ratings untouched
type FlatPolicy struct {
	Win  int
	Draw int
	Lose int
}

// NewFlatPolicy returns the standard 3/2/1 point policy
func NewFlatPolicy() FlatPolicy {
	return FlatPolicy{Win: 3, Draw: 2, Lose: 1}
}

func (p FlatPolicy) Name() string { return "flat" }

func (p FlatPolicy) Apply(own model.Standing, _ int, result model.Result) model.Standing {
	switch result {
	case model.ResultWin:
		own.Score += p.Win
	case model.ResultDraw:
		own.Score += p.Draw
	case model.ResultLose:
		own.Score += p.Lose
	}
	return own
}

// RatingPolicy is a logistic rating exchange. The winner moves toward an
// expected score of 1 and the loser toward 0, scaled by K. Draws change nothing.
type RatingPolicy struct {
	K           float64
	Scale       float64
	WinnerBonus int
}

// NewRatingPolicy returns the standard K=32, scale 400, +10 bonus policy
func NewRatingPolicy() RatingPolicy {
	return RatingPolicy{K: 32, Scale: 400, WinnerBonus: 10}
}

func (p RatingPolicy) Name() string { return "rating" }

func (p RatingPolicy) Apply(own model.Standing, opponentRating int, result model.Result) model.Standing {
	expected := p.Expected(own.Rating, opponentRating)
	switch result {
	case model.ResultWin:
		own.Rating = int(math.Round(float64(own.Rating) + p.K*(1-expected)))
		own.Score += p.WinnerBonus
	case model.ResultLose:
		own.Rating = int(math.Round(float64(own.Rating) + p.K*(0-expected)))
	}
	return own
}

// Expected returns the probability that a player rated own beats one rated opponent
func (p RatingPolicy) Expected(own, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-own)/p.Scale))
}

// PolicyByName resolves a configured policy name
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "flat":
		return NewFlatPolicy(), nil
	case "rating", "elo":
		return NewRatingPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown scoring policy %q", name)
	}
}
