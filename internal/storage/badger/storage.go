package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/storage"
)

// ErrTooManyRetries is returned when an update keeps conflicting
var ErrTooManyRetries = errors.New("profile update conflicted, retries exhausted")

// Config holds the embedded database settings
type Config struct {
	// Path is the data directory; ignored when InMemory is set
	Path string

	InMemory bool

	// MaxTxRetries bounds retries on transaction conflicts
	MaxTxRetries int
}

// DefaultConfig returns sensible defaults for the embedded store
func DefaultConfig() Config {
	return Config{
		Path:         "data/profiles",
		MaxTxRetries: 10,
	}
}

// Storage is a BadgerDB-backed implementation of the profile store
type Storage struct {
	db  *badger.DB
	cfg Config
}

// Open opens (or creates) the database described by cfg
func Open(cfg Config) (*Storage, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLoggingLevel(badger.ERROR)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return NewWithDB(db, cfg), nil
}

// NewWithDB wraps an already open database
func NewWithDB(db *badger.DB, cfg Config) *Storage {
	return &Storage{db: db, cfg: cfg}
}

// Ensure Storage implements the interface
var _ storage.ProfileStore = (*Storage)(nil)

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) GetProfile(ctx context.Context, id model.ParticipantID) (*model.Profile, error) {
	var profile *model.Profile
	err := s.db.View(func(txn *badger.Txn) error {
		p, err := readProfile(txn, id)
		profile = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Storage) UpdateProfile(ctx context.Context, id model.ParticipantID, fn storage.UpdateFunc) (*model.Profile, error) {
	var updated *model.Profile
	err := s.retry(func(txn *badger.Txn) error {
		profile, err := readProfile(txn, id)
		if errors.Is(err, model.ErrProfileNotFound) {
			profile = model.NewProfile(id, "", time.Time{})
		} else if err != nil {
			return err
		}
		if err := fn(profile); err != nil {
			return err
		}
		updated = profile
		return writeProfile(txn, profile)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
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

// retry runs fn in a read-write transaction, retrying on conflicts
func (s *Storage) retry(fn func(txn *badger.Txn) error) error {
	for attempt := 0; attempt < s.cfg.MaxTxRetries; attempt++ {
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
	return ErrTooManyRetries
}

func profileKey(id model.ParticipantID) []byte {
	return []byte("profile:" + string(id))
}

func readProfile(txn *badger.Txn, id model.ParticipantID) (*model.Profile, error) {
	item, err := txn.Get(profileKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	var profile model.Profile
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &profile)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func writeProfile(txn *badger.Txn, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return txn.Set(profileKey(profile.ID), data)
}
