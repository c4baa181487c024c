package storage

import (
	"context"

	"github.com/mcoot/rpsduel/internal/model"
)

// UpdateFunc mutates a profile in place. Returning an error aborts the update.
type UpdateFunc func(p *model.Profile) error

// ProfileStore persists participant profiles for the scoring collaborator
type ProfileStore interface {
	// GetProfile returns model.ErrProfileNotFound if id has no profile
	GetProfile(ctx context.Context, id model.ParticipantID) (*model.Profile, error)

	// UpdateProfile applies fn as one atomic read-modify-write. A missing
	// profile is created from model.NewProfile before fn runs.
	UpdateProfile(ctx context.Context, id model.ParticipantID, fn UpdateFunc) (*model.Profile, error)

	// AddFriend adds friend to id's friend set, creating id's profile if needed
	AddFriend(ctx context.Context, id, friend model.ParticipantID) error

	Close() error
}
