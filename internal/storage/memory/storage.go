package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/storage"
)

// Storage is an in-memory implementation of the profile store
type Storage struct {
	mu       sync.RWMutex
	profiles map[model.ParticipantID]*model.Profile
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		profiles: make(map[model.ParticipantID]*model.Profile),
	}
}

// Ensure Storage implements the interface
var _ storage.ProfileStore = (*Storage)(nil)

func (s *Storage) GetProfile(ctx context.Context, id model.ParticipantID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return clone(p), nil
}

func (s *Storage) UpdateProfile(ctx context.Context, id model.ParticipantID, fn storage.UpdateFunc) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if ok {
		p = clone(p)
	} else {
		p = model.NewProfile(id, "", time.Time{})
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	s.profiles[id] = p
	return clone(p), nil
}

func (s *Storage) AddFriend(ctx context.Context, id, friend model.ParticipantID) error {
	_, err := s.UpdateProfile(ctx, id, func(p *model.Profile) error {
		if !p.IsFriend(friend) {
			p.Friends = append(p.Friends, friend)
		}
		return nil
	})
	return err
}

func (s *Storage) Close() error {
	return nil
}

// clone copies p so callers never share slices with the store
func clone(p *model.Profile) *model.Profile {
	c := *p
	c.Friends = append([]model.ParticipantID(nil), p.Friends...)
	c.History = append([]model.HistoryEntry(nil), p.History...)
	return &c
}
