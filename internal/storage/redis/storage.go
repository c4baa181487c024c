package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/storage"
)

// ErrTooManyRetries is returned when an update keeps losing the optimistic lock
var ErrTooManyRetries = errors.New("profile update contended, retries exhausted")

// Storage is a Redis-backed implementation of the profile store
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.ProfileStore = (*Storage)(nil)

func (s *Storage) GetProfile(ctx context.Context, id model.ParticipantID) (*model.Profile, error) {
	data, err := s.client.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	if err := s.loadFriends(ctx, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile runs fn under WATCH so a concurrent writer forces a retry
func (s *Storage) UpdateProfile(ctx context.Context, id model.ParticipantID, fn storage.UpdateFunc) (*model.Profile, error) {
	key := profileKey(id)
	var updated *model.Profile

	txf := func(tx *redis.Tx) error {
		profile := model.NewProfile(id, "", time.Time{})
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(data, profile); err != nil {
				return err
			}
		}

		if err := fn(profile); err != nil {
			return err
		}
		encoded, err := encode(profile)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.cfg.ProfileTTL)
			return nil
		})
		updated = profile
		return err
	}

	for attempt := 0; attempt < s.cfg.MaxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := s.loadFriends(ctx, updated); err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTooManyRetries, id)
}

// AddFriend creates a default profile if none exists and adds to the friend SET
func (s *Storage) AddFriend(ctx context.Context, id, friend model.ParticipantID) error {
	fresh, err := encode(model.NewProfile(id, "", time.Time{}))
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.SetNX(ctx, profileKey(id), fresh, s.cfg.ProfileTTL)
	pipe.SAdd(ctx, friendsKey(id), string(friend))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) loadFriends(ctx context.Context, profile *model.Profile) error {
	members, err := s.client.SMembers(ctx, friendsKey(profile.ID)).Result()
	if err != nil {
		return err
	}
	slices.Sort(members)
	profile.Friends = make([]model.ParticipantID, 0, len(members))
	for _, m := range members {
		profile.Friends = append(profile.Friends, model.ParticipantID(m))
	}
	return nil
}

// encode marshals a profile without its friends, which live in their own SET
func encode(profile *model.Profile) ([]byte, error) {
	c := *profile
	c.Friends = nil
	return json.Marshal(&c)
}
