package scoring

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mcoot/rpsduel/internal/dependencies/clock"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/match"
	"github.com/mcoot/rpsduel/internal/storage"
)

// Service is the scoring collaborator. It keeps standings, friend lists and
// game history in a profile store and applies a pluggable Policy.
type Service struct {
	store  storage.ProfileStore
	policy Policy
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new scoring Service
func New(store storage.ProfileStore, policy Policy, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		policy: policy,
		clock:  clock,
		logger: logger.With(slog.String("component", "scoring"), slog.String("policy", policy.Name())),
	}
}

// Ensure Service satisfies the engine's collaborator interface
var _ match.Collaborator = (*Service)(nil)

// RecordOutcome applies the policy to one participant. A round key that has
// already been applied returns the current standing unchanged.
func (s *Service) RecordOutcome(ctx context.Context, rec model.OutcomeRecord) (model.Standing, error) {
	now := s.clock.Now()
	applied := true

	profile, err := s.store.UpdateProfile(ctx, rec.ParticipantID, func(p *model.Profile) error {
		if p.HasRound(rec.RoundKey) {
			applied = false
			return nil
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		before := p.Standing
		p.Standing = s.policy.Apply(p.Standing, rec.OpponentRating, rec.Result)
		p.AppendHistory(model.HistoryEntry{
			RoundKey:     rec.RoundKey,
			OpponentID:   rec.OpponentID,
			OpponentName: rec.OpponentName,
			Result:       rec.Result,
			PointsEarned: p.Standing.Score - before.Score,
			Move:         rec.Move,
			OpponentMove: rec.OpponentMove,
			At:           now,
		})
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return model.Standing{}, err
	}
	if !applied {
		s.logger.Debug("outcome already applied",
			slog.String("participant_id", string(rec.ParticipantID)),
			slog.String("round_key", rec.RoundKey))
	}
	return profile.Standing, nil
}

// LinkParticipants records a and b as each other's friends
func (s *Service) LinkParticipants(ctx context.Context, a, b model.ParticipantID) error {
	if a == b {
		return nil
	}
	if err := s.store.AddFriend(ctx, a, b); err != nil {
		return err
	}
	return s.store.AddFriend(ctx, b, a)
}

// LookupParticipant returns a participant snapshot. Unknown participants get
// the default standing.
func (s *Service) LookupParticipant(ctx context.Context, id model.ParticipantID) (model.Participant, error) {
	p, err := s.store.GetProfile(ctx, id)
	if errors.Is(err, model.ErrProfileNotFound) {
		return model.Participant{ID: id, Snapshot: model.Standing{Rating: model.DefaultRating}}, nil
	}
	if err != nil {
		return model.Participant{}, err
	}
	return model.Participant{ID: id, DisplayName: p.DisplayName, Snapshot: p.Standing}, nil
}

// GetProfile returns the stored profile for id
func (s *Service) GetProfile(ctx context.Context, id model.ParticipantID) (*model.Profile, error) {
	return s.store.GetProfile(ctx, id)
}

// UpsertProfile sets a participant's display name, creating the profile if needed
func (s *Service) UpsertProfile(ctx context.Context, id model.ParticipantID, displayName string) (*model.Profile, error) {
	displayName = strings.TrimSpace(displayName)
	if id == "" || displayName == "" {
		return nil, model.ErrInvalidParticipant
	}
	now := s.clock.Now()
	return s.store.UpdateProfile(ctx, id, func(p *model.Profile) error {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.DisplayName = displayName
		p.UpdatedAt = now
		return nil
	})
}

// ServiceInterface is the surface used by the HTTP and gateway layers
type ServiceInterface interface {
	match.Collaborator
	GetProfile(ctx context.Context, id model.ParticipantID) (*model.Profile, error)
	UpsertProfile(ctx context.Context, id model.ParticipantID, displayName string) (*model.Profile, error)
}

var _ ServiceInterface = (*Service)(nil)
