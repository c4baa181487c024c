package match

import (
	"context"
	"log/slog"

	"github.com/mcoot/rpsduel/internal/model"
)

// Resolve maps a pair of moves to an outcome using cyclic dominance.
// Identical moves tie.
func Resolve(host, guest model.Move) model.Outcome {
	switch {
	case host.Beats(guest):
		return model.OutcomeHostWins
	case guest.Beats(host):
		return model.OutcomeGuestWins
	default:
		return model.OutcomeTie
	}
}

// Round is a resolved round handed to the side-effecting Resolver
type Round struct {
	Key       string
	RoomID    model.RoomID
	Host      model.Participant
	Guest     model.Participant
	HostMove  model.Move
	GuestMove model.Move
	Outcome   model.Outcome
}

// Winner returns the winning participant's ID, or empty on a tie
func (r Round) Winner() model.ParticipantID {
	switch r.Outcome {
	case model.OutcomeHostWins:
		return r.Host.ID
	case model.OutcomeGuestWins:
		return r.Guest.ID
	default:
		return ""
	}
}

// Scorer records one participant's outcome. Implementations must apply
// each (RoundKey, ParticipantID) pair at most once.
type Scorer interface {
	RecordOutcome(ctx context.Context, rec model.OutcomeRecord) (model.Standing, error)
}

// Linker registers a relationship between two participants
type Linker interface {
	LinkParticipants(ctx context.Context, a, b model.ParticipantID) error
}

// Directory provides read-only participant snapshots
type Directory interface {
	LookupParticipant(ctx context.Context, id model.ParticipantID) (model.Participant, error)
}

// Collaborator is the full external interface consumed by the engine
type Collaborator interface {
	Scorer
	Linker
	Directory
}

// Resolver applies a round's scoring and relationship side effects.
// Collaborator failures are logged and never propagated.
type Resolver struct {
	scorer    Scorer
	linker    Linker
	directory Directory
	logger    *slog.Logger
}

// NewResolver creates a Resolver backed by the given collaborator
func NewResolver(c Collaborator, logger *slog.Logger) *Resolver {
	return &Resolver{
		scorer:    c,
		linker:    c,
		directory: c,
		logger:    logger.With(slog.String("component", "resolver")),
	}
}

// Settle records the outcome for both participants, then links them
func (r *Resolver) Settle(ctx context.Context, round Round) {
	logger := r.logger.With(
		slog.String("room_id", string(round.RoomID)),
		slog.String("round_key", round.Key),
	)

	// Both ratings are read before either is written so each side is
	// scored against the opponent's pre-round rating.
	hostRating := r.currentRating(ctx, round.Host, logger)
	guestRating := r.currentRating(ctx, round.Guest, logger)

	records := []model.OutcomeRecord{
		{
			RoundKey:       round.Key,
			ParticipantID:  round.Host.ID,
			OpponentID:     round.Guest.ID,
			OpponentName:   round.Guest.DisplayName,
			OpponentRating: guestRating,
			Result:         round.Outcome.ForHost(),
			Move:           round.HostMove,
			OpponentMove:   round.GuestMove,
		},
		{
			RoundKey:       round.Key,
			ParticipantID:  round.Guest.ID,
			OpponentID:     round.Host.ID,
			OpponentName:   round.Host.DisplayName,
			OpponentRating: hostRating,
			Result:         round.Outcome.ForGuest(),
			Move:           round.GuestMove,
			OpponentMove:   round.HostMove,
		},
	}

	for _, rec := range records {
		standing, err := r.scorer.RecordOutcome(ctx, rec)
		if err != nil {
			logger.Error("record outcome failed",
				slog.String("participant_id", string(rec.ParticipantID)),
				slog.String("error", err.Error()))
			continue
		}
		logger.Info("outcome recorded",
			slog.String("participant_id", string(rec.ParticipantID)),
			slog.String("result", string(rec.Result)),
			slog.Int("rating", standing.Rating),
			slog.Int("score", standing.Score))
	}

	if err := r.linker.LinkParticipants(ctx, round.Host.ID, round.Guest.ID); err != nil {
		logger.Warn("link participants failed", slog.String("error", err.Error()))
	}
}

func (r *Resolver) currentRating(ctx context.Context, p model.Participant, logger *slog.Logger) int {
	fresh, err := r.directory.LookupParticipant(ctx, p.ID)
	if err != nil {
		logger.Warn("lookup participant failed, using join snapshot",
			slog.String("participant_id", string(p.ID)),
			slog.String("error", err.Error()))
		return p.Snapshot.Rating
	}
	return fresh.Snapshot.Rating
}
