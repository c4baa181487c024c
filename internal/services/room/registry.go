package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mcoot/rpsduel/internal/dependencies/clock"
	"github.com/mcoot/rpsduel/internal/dependencies/random"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/match"
)

// Registry owns every live room. The map is the only state shared across
// rooms; everything inside a room is serialized through that room's actor.
// The registry lock is never held while waiting on a room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[model.RoomID]*room

	cfg      Config
	settler  Settler
	observer Observer
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger

	settling sync.WaitGroup
	closing  bool
}

// NewRegistry creates an empty registry. settler and observer may be nil.
func NewRegistry(
	cfg Config,
	settler Settler,
	observer Observer,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Registry {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Registry{
		rooms:    make(map[model.RoomID]*room),
		cfg:      cfg,
		settler:  settler,
		observer: observer,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "room")),
	}
}

// CreateRoom creates a room with p as host. An empty id asks the registry
// to generate one.
func (reg *Registry) CreateRoom(ctx context.Context, id model.RoomID, p model.Participant, conn Conn) (model.RoomSnapshot, error) {
	if p.ID == "" {
		return model.RoomSnapshot{}, model.ErrInvalidParticipant
	}
	if err := ctx.Err(); err != nil {
		return model.RoomSnapshot{}, err
	}

	reg.mu.Lock()
	if reg.closing {
		reg.mu.Unlock()
		return model.RoomSnapshot{}, model.ErrShuttingDown
	}
	if id == "" {
		id = reg.generateIDLocked()
	} else if _, exists := reg.rooms[id]; exists {
		reg.mu.Unlock()
		return model.RoomSnapshot{}, model.ErrDuplicateRoom
	}
	r := reg.insertLocked(id, p, conn)
	reg.mu.Unlock()

	return r.start(), nil
}

// Join seats p in room id, creating the room with p as host if it does not
// exist. A join by an identity that already holds a slot is a reconnection.
func (reg *Registry) Join(ctx context.Context, id model.RoomID, p model.Participant, conn Conn) (model.RoomSnapshot, error) {
	if id == "" {
		return model.RoomSnapshot{}, model.ErrRoomNotFound
	}
	if p.ID == "" {
		return model.RoomSnapshot{}, model.ErrInvalidParticipant
	}

	for {
		if err := ctx.Err(); err != nil {
			return model.RoomSnapshot{}, err
		}
		r, created, err := reg.getOrInsert(id, p, conn)
		if err != nil {
			return model.RoomSnapshot{}, err
		}
		if created {
			return r.start(), nil
		}

		var snap model.RoomSnapshot
		err = r.do(ctx, func() error {
			if err := r.join(p, conn); err != nil {
				return err
			}
			snap = r.snapshot()
			return nil
		})
		// The room closed between lookup and delivery; the next attempt
		// sees it gone and starts a fresh one.
		if errors.Is(err, errRoomStopped) {
			continue
		}
		return snap, err
	}
}

// Ready records a ready signal from participant pid
func (reg *Registry) Ready(ctx context.Context, id model.RoomID, pid model.ParticipantID) error {
	r, err := reg.lookup(id)
	if err != nil {
		return err
	}
	return reg.unwrap(r.do(ctx, func() error { return r.markReady(pid) }))
}

// SubmitMove records participant pid's move for the current round
func (reg *Registry) SubmitMove(ctx context.Context, id model.RoomID, pid model.ParticipantID, move model.Move) error {
	r, err := reg.lookup(id)
	if err != nil {
		return err
	}
	return reg.unwrap(r.do(ctx, func() error { return r.submitMove(pid, move) }))
}

// Disconnect reports that connID, held by pid, has dropped
func (reg *Registry) Disconnect(ctx context.Context, id model.RoomID, pid model.ParticipantID, connID string) error {
	r, err := reg.lookup(id)
	if err != nil {
		return err
	}
	return reg.unwrap(r.do(ctx, func() error { return r.disconnect(pid, connID) }))
}

// Get returns a snapshot of room id
func (reg *Registry) Get(ctx context.Context, id model.RoomID) (model.RoomSnapshot, error) {
	r, err := reg.lookup(id)
	if err != nil {
		return model.RoomSnapshot{}, err
	}
	var snap model.RoomSnapshot
	err = r.do(ctx, func() error {
		snap = r.snapshot()
		return nil
	})
	return snap, reg.unwrap(err)
}

// Delete tears down room id
func (reg *Registry) Delete(ctx context.Context, id model.RoomID) error {
	r, err := reg.lookup(id)
	if err != nil {
		return err
	}
	return reg.unwrap(r.do(ctx, func() error {
		r.close(model.CloseReasonDeleted)
		return nil
	}))
}

// Sweep deletes every room older than maxAge, regardless of state, and
// returns how many were removed
func (reg *Registry) Sweep(ctx context.Context, maxAge time.Duration) int {
	cutoff := reg.clock.Now().Add(-maxAge)

	reg.mu.RLock()
	stale := lo.Filter(lo.Values(reg.rooms), func(r *room, _ int) bool {
		return r.createdAt.Before(cutoff)
	})
	reg.mu.RUnlock()

	removed := 0
	for _, r := range stale {
		err := r.do(ctx, func() error {
			r.close(model.CloseReasonSwept)
			return nil
		})
		if err == nil {
			removed++
		}
	}
	if removed > 0 {
		reg.logger.Info("stale rooms swept", slog.Int("removed", removed))
	}
	return removed
}

// Stats counts live rooms and pending choice records
func (reg *Registry) Stats(ctx context.Context) model.RegistryStats {
	reg.mu.RLock()
	rooms := lo.Values(reg.rooms)
	reg.mu.RUnlock()

	stats := model.RegistryStats{}
	for _, r := range rooms {
		err := r.do(ctx, func() error {
			stats.PendingChoices += r.ledger.Len()
			return nil
		})
		if err == nil {
			stats.Rooms++
		}
	}
	return stats
}

// Len returns the number of live rooms
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// Wait blocks until in-flight scoring side effects have finished
func (reg *Registry) Wait() {
	reg.settling.Wait()
}

// Close tears down every room and waits for pending side effects. No room
// can be created once Close has started.
func (reg *Registry) Close(ctx context.Context) {
	reg.mu.Lock()
	reg.closing = true
	rooms := lo.Values(reg.rooms)
	reg.mu.Unlock()

	for _, r := range rooms {
		_ = r.do(ctx, func() error {
			r.close(model.CloseReasonShutdown)
			return nil
		})
	}
	reg.settling.Wait()
}

func (reg *Registry) lookup(id model.RoomID) (*room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return r, nil
}

func (reg *Registry) getOrInsert(id model.RoomID, p model.Participant, conn Conn) (*room, bool, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[id]; ok {
		return r, false, nil
	}
	if reg.closing {
		return nil, false, model.ErrShuttingDown
	}
	return reg.insertLocked(id, p, conn), true, nil
}

// insertLocked registers a room whose loop is not yet running. Operations
// sent to it wait until the creator calls start.
func (reg *Registry) insertLocked(id model.RoomID, host model.Participant, conn Conn) *room {
	r := newRoom(reg, id, host, conn)
	reg.rooms[id] = r
	return r
}

func (reg *Registry) generateIDLocked() model.RoomID {
	for {
		id := model.RoomID(reg.random.String(RoomCodeLength, RoomCodeAlphabet))
		if _, exists := reg.rooms[id]; !exists {
			return id
		}
	}
}

// remove is called from a room's own goroutine while it closes
func (reg *Registry) remove(id model.RoomID, r *room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.rooms[id] == r {
		delete(reg.rooms, id)
	}
}

func (reg *Registry) settle(round match.Round) {
	if reg.settler == nil {
		return
	}
	reg.settling.Add(1)
	go func() {
		defer reg.settling.Done()
		ctx, cancel := context.WithTimeout(context.Background(), reg.cfg.SettleTimeout)
		defer cancel()
		reg.settler.Settle(ctx, round)
	}()
}

// unwrap hides the internal stopped marker behind the public sentinel
func (reg *Registry) unwrap(err error) error {
	if errors.Is(err, errRoomStopped) {
		return model.ErrRoomNotFound
	}
	return err
}
