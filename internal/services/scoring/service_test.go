package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsduel/internal/dependencies/mocks"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/match"
	"github.com/mcoot/rpsduel/internal/storage/memory"
	"github.com/mcoot/rpsduel/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	store *memory.Storage
	clock *mocks.MockClock
	ctx   context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ctx = context.Background()
}

func (s *ServiceSuite) service(policy Policy) *Service {
	return New(s.store, policy, s.clock, testutil.NopLogger())
}

func (s *ServiceSuite) record(id, opponent model.ParticipantID, result model.Result) model.OutcomeRecord {
	return model.OutcomeRecord{
		RoundKey:       "round-1",
		ParticipantID:  id,
		OpponentID:     opponent,
		OpponentName:   string(opponent),
		OpponentRating: model.DefaultRating,
		Result:         result,
		Move:           model.MoveRock,
		OpponentMove:   model.MoveScissors,
	}
}

func (s *ServiceSuite) TestRecordOutcomeAppliesPolicyAndHistory() {
	svc := s.service(NewFlatPolicy())

	standing, err := svc.RecordOutcome(s.ctx, s.record("a", "b", model.ResultWin))
	s.Require().NoError(err)
	s.Equal(3, standing.Score)

	p, err := svc.GetProfile(s.ctx, "a")
	s.Require().NoError(err)
	s.Require().Len(p.History, 1)
	s.Equal(3, p.History[0].PointsEarned)
	s.Equal(model.ParticipantID("b"), p.History[0].OpponentID)
	s.Equal(s.clock.Now(), p.History[0].At)
	s.Equal(s.clock.Now(), p.CreatedAt)
}

func (s *ServiceSuite) TestRecordOutcomeIsIdempotentPerRound() {
	svc := s.service(NewFlatPolicy())
	rec := s.record("a", "b", model.ResultDraw)

	_, err := svc.RecordOutcome(s.ctx, rec)
	s.Require().NoError(err)
	standing, err := svc.RecordOutcome(s.ctx, rec)
	s.Require().NoError(err)

	s.Equal(2, standing.Score)
	p, _ := svc.GetProfile(s.ctx, "a")
	s.Len(p.History, 1)

	rec.RoundKey = "round-2"
	standing, err = svc.RecordOutcome(s.ctx, rec)
	s.Require().NoError(err)
	s.Equal(4, standing.Score)
}

func (s *ServiceSuite) TestRatingPolicyWinnerBonusRecordedAsPoints() {
	svc := s.service(NewRatingPolicy())

	standing, err := svc.RecordOutcome(s.ctx, s.record("a", "b", model.ResultWin))
	s.Require().NoError(err)
	s.Equal(model.Standing{Rating: 1016, Score: 10}, standing)

	p, _ := svc.GetProfile(s.ctx, "a")
	s.Equal(10, p.History[0].PointsEarned)
}

func (s *ServiceSuite) TestLinkParticipantsIsMutual() {
	svc := s.service(NewFlatPolicy())

	s.Require().NoError(svc.LinkParticipants(s.ctx, "a", "b"))
	s.Require().NoError(svc.LinkParticipants(s.ctx, "b", "a"))

	a, _ := svc.GetProfile(s.ctx, "a")
	b, _ := svc.GetProfile(s.ctx, "b")
	s.Equal([]model.ParticipantID{"b"}, a.Friends)
	s.Equal([]model.ParticipantID{"a"}, b.Friends)
}

func (s *ServiceSuite) TestLookupUnknownParticipantUsesDefaults() {
	svc := s.service(NewFlatPolicy())

	p, err := svc.LookupParticipant(s.ctx, "ghost")
	s.Require().NoError(err)
	s.Equal(model.Standing{Rating: model.DefaultRating}, p.Snapshot)
}

func (s *ServiceSuite) TestUpsertProfile() {
	svc := s.service(NewFlatPolicy())

	p, err := svc.UpsertProfile(s.ctx, "a", "  Alice ")
	s.Require().NoError(err)
	s.Equal("Alice", p.DisplayName)

	found, err := svc.LookupParticipant(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal("Alice", found.DisplayName)

	_, err = svc.UpsertProfile(s.ctx, "a", " ")
	s.ErrorIs(err, model.ErrInvalidParticipant)
}

func (s *ServiceSuite) TestResolverDrawUpdatesBothOnce() {
	svc := s.service(NewFlatPolicy())
	resolver := match.NewResolver(svc, testutil.NopLogger())
	round := match.Round{
		Key:       "round-9",
		RoomID:    "R",
		Host:      model.Participant{ID: "h"},
		Guest:     model.Participant{ID: "g"},
		HostMove:  model.MovePaper,
		GuestMove: model.MovePaper,
		Outcome:   model.OutcomeTie,
	}

	resolver.Settle(s.ctx, round)
	resolver.Settle(s.ctx, round)

	for _, id := range []model.ParticipantID{"h", "g"} {
		p, err := svc.GetProfile(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(2, p.Standing.Score, "participant %s", id)
		s.Len(p.History, 1)
		s.Len(p.Friends, 1)
	}
}

func (s *ServiceSuite) TestResolverRatingExchangeUsesPreRoundRatings() {
	svc := s.service(NewRatingPolicy())
	resolver := match.NewResolver(svc, testutil.NopLogger())

	resolver.Settle(s.ctx, match.Round{
		Key:       "round-1",
		Host:      model.Participant{ID: "h"},
		Guest:     model.Participant{ID: "g"},
		HostMove:  model.MoveRock,
		GuestMove: model.MoveScissors,
		Outcome:   model.OutcomeHostWins,
	})

	h, _ := svc.GetProfile(s.ctx, "h")
	g, _ := svc.GetProfile(s.ctx, "g")
	s.Equal(model.Standing{Rating: 1016, Score: 10}, h.Standing)
	s.Equal(model.Standing{Rating: 984, Score: 0}, g.Standing)
}
