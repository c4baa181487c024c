// Package storagetest holds a conformance suite run against every
// ProfileStore implementation.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/storage"
)

// ProfileStoreSuite exercises the ProfileStore contract
type ProfileStoreSuite struct {
	suite.Suite

	// NewStore returns an empty store for each test
	NewStore func(t *testing.T) storage.ProfileStore

	store storage.ProfileStore
	ctx   context.Context
}

func (s *ProfileStoreSuite) SetupTest() {
	s.store = s.NewStore(s.T())
	s.ctx = context.Background()
}

func (s *ProfileStoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

var created = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *ProfileStoreSuite) TestGetProfileNotFound() {
	_, err := s.store.GetProfile(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *ProfileStoreSuite) TestUpdateAndGetProfile() {
	p := model.NewProfile("p1", "Alice", created)
	p.Standing = model.Standing{Rating: 1016, Score: 13}
	p.AppendHistory(model.HistoryEntry{
		RoundKey:     "k1",
		OpponentID:   "p2",
		OpponentName: "Bob",
		Result:       model.ResultWin,
		PointsEarned: 13,
		Move:         model.MoveRock,
		OpponentMove: model.MoveScissors,
		At:           created,
	})

	_, err := s.store.UpdateProfile(s.ctx, "p1", func(stored *model.Profile) error {
		*stored = *p
		return nil
	})
	s.Require().NoError(err)

	got, err := s.store.GetProfile(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)
	s.Equal(p.Standing, got.Standing)
	s.Require().Len(got.History, 1)
	s.Equal("k1", got.History[0].RoundKey)
	s.Equal(model.MoveScissors, got.History[0].OpponentMove)
	s.True(created.Equal(got.History[0].At))
	s.True(created.Equal(got.CreatedAt))
}

func (s *ProfileStoreSuite) TestUpdateProfileCreatesMissing() {
	got, err := s.store.UpdateProfile(s.ctx, "p1", func(p *model.Profile) error {
		p.DisplayName = "Alice"
		return nil
	})
	s.Require().NoError(err)
	s.Equal(model.DefaultRating, got.Standing.Rating)

	stored, err := s.store.GetProfile(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Alice", stored.DisplayName)
	s.Equal(model.DefaultRating, stored.Standing.Rating)
}

func (s *ProfileStoreSuite) TestUpdateProfileErrorAborts() {
	boom := errors.New("boom")
	_, err := s.store.UpdateProfile(s.ctx, "p1", func(p *model.Profile) error {
		p.Standing.Score = 99
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.GetProfile(s.ctx, "p1")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *ProfileStoreSuite) TestConcurrentUpdatesAreAtomic() {
	const writers = 8
	const perWriter = 5

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_, err := s.store.UpdateProfile(s.ctx, "p1", func(p *model.Profile) error {
					p.Standing.Score++
					return nil
				})
				s.NoError(err)
			}
		}()
	}
	wg.Wait()

	got, err := s.store.GetProfile(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(writers*perWriter, got.Standing.Score)
}

func (s *ProfileStoreSuite) TestAddFriendIsIdempotent() {
	s.Require().NoError(s.store.AddFriend(s.ctx, "p1", "p2"))
	s.Require().NoError(s.store.AddFriend(s.ctx, "p1", "p2"))
	s.Require().NoError(s.store.AddFriend(s.ctx, "p1", "p3"))

	got, err := s.store.GetProfile(s.ctx, "p1")
	s.Require().NoError(err)
	s.ElementsMatch([]model.ParticipantID{"p2", "p3"}, got.Friends)
	s.Equal(model.DefaultRating, got.Standing.Rating)
}

func (s *ProfileStoreSuite) TestUpdateProfileKeepsFriends() {
	s.Require().NoError(s.store.AddFriend(s.ctx, "p1", "p2"))

	_, err := s.store.UpdateProfile(s.ctx, "p1", func(p *model.Profile) error {
		p.DisplayName = "Renamed"
		return nil
	})
	s.Require().NoError(err)

	got, err := s.store.GetProfile(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Renamed", got.DisplayName)
	s.Equal([]model.ParticipantID{"p2"}, got.Friends)
}
