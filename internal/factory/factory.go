package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/rpsduel/internal/api"
	"github.com/mcoot/rpsduel/internal/dependencies/clock"
	"github.com/mcoot/rpsduel/internal/dependencies/random"
	"github.com/mcoot/rpsduel/internal/services/match"
	"github.com/mcoot/rpsduel/internal/services/room"
	"github.com/mcoot/rpsduel/internal/services/scoring"
	"github.com/mcoot/rpsduel/internal/services/sweeper"
	"github.com/mcoot/rpsduel/internal/storage"
	badgerstorage "github.com/mcoot/rpsduel/internal/storage/badger"
	"github.com/mcoot/rpsduel/internal/storage/memory"
	redisstorage "github.com/mcoot/rpsduel/internal/storage/redis"
	"github.com/mcoot/rpsduel/internal/web/sse"
	"github.com/mcoot/rpsduel/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeBadger = "badger"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.ProfileStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	ScoringService *scoring.Service
	Resolver       *match.Resolver
	Registry       *room.Registry
	Sweeper        *sweeper.Sweeper
	HubManager     *sse.HubManager
	Gateway        *ws.Gateway

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the profile store ("memory", "redis" or "badger")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// BadgerConfig holds badger settings; defaults apply if nil
	BadgerConfig *badgerstorage.Config
	// ScoringPolicy names the scoring strategy ("flat" or "rating")
	// If empty, defaults to "rating"
	ScoringPolicy string
	// Room, Sweeper and Gateway fall back to their defaults when zero
	Room    room.Config
	Sweeper sweeper.Config
	Gateway ws.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(store, clock.New(), random.New(), cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func openStorage(cfg Config) (storage.ProfileStore, error) {
	switch cfg.StorageType {
	case "", StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeBadger:
		badgerCfg := badgerstorage.DefaultConfig()
		if cfg.BadgerConfig != nil {
			badgerCfg = *cfg.BadgerConfig
		}
		return badgerstorage.Open(badgerCfg)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be memory, redis or badger", cfg.StorageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.ProfileStore, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) (*App, error) {
	policyName := cfg.ScoringPolicy
	if policyName == "" {
		policyName = "rating"
	}
	policy, err := scoring.PolicyByName(policyName)
	if err != nil {
		return nil, err
	}

	roomCfg := cfg.Room
	if roomCfg == (room.Config{}) {
		roomCfg = room.DefaultConfig()
	}
	sweepCfg := cfg.Sweeper
	if sweepCfg == (sweeper.Config{}) {
		sweepCfg = sweeper.DefaultConfig()
	}
	gatewayCfg := cfg.Gateway
	if gatewayCfg.PingInterval == 0 {
		gatewayCfg = ws.DefaultConfig()
	}

	scoringService := scoring.New(store, policy, clk, logger)
	resolver := match.NewResolver(scoringService, logger)
	hubManager := sse.NewHubManager(logger)
	broadcaster := sse.NewBroadcaster(hubManager, logger)
	registry := room.NewRegistry(roomCfg, resolver, broadcaster, clk, rnd, logger)
	sweep := sweeper.New(registry, sweepCfg, clk, logger)
	gateway := ws.NewGateway(registry, scoringService, gatewayCfg, logger)

	logger.Info("application wired",
		slog.String("scoring_policy", policy.Name()),
		slog.Duration("grace_period", roomCfg.GracePeriod),
		slog.Duration("sweep_interval", sweepCfg.Interval))

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		ScoringService: scoringService,
		Resolver:       resolver,
		Registry:       registry,
		Sweeper:        sweep,
		HubManager:     hubManager,
		Gateway:        gateway,
		logger:         logger,
	}, nil
}

// Handler returns the HTTP handler serving the API and the websocket gateway
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:         a.logger,
		Rooms:          a.Registry,
		ScoringService: a.ScoringService,
		HubManager:     a.HubManager,
		Gateway:        a.Gateway,
	})
}

// Start launches background maintenance
func (a *App) Start(ctx context.Context) {
	a.Sweeper.Start(ctx)
}

// Close stops background work, tears down every room, waits for pending
// scoring and closes storage
func (a *App) Close(ctx context.Context) error {
	a.Sweeper.Stop()
	a.Registry.Close(ctx)
	a.HubManager.Close()
	return a.Storage.Close()
}
