package room

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/rpsduel/internal/dependencies/clock"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/match"
)

// errRoomStopped is returned when an operation reaches a room whose actor
// has already exited. Callers outside the package only see ErrRoomNotFound.
var errRoomStopped = fmt.Errorf("%w: room closed", model.ErrRoomNotFound)

// slot is one participant position in a room
type slot struct {
	participant    model.Participant
	role           model.Role
	conn           Conn // nil while disconnected
	disconnectedAt *time.Time
	graceTimer     clock.Timer
	graceGen       uint64
}

func (s *slot) send(n model.Notification) {
	if s == nil || s.conn == nil {
		return
	}
	s.conn.Send(n)
}

func (s *slot) stopGrace() {
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	s.graceGen++
}

func (s *slot) snapshot(ready bool, moved bool) *model.SlotSnapshot {
	var at *time.Time
	if s.disconnectedAt != nil {
		t := *s.disconnectedAt
		at = &t
	}
	return &model.SlotSnapshot{
		Participant:    s.participant,
		Role:           s.role,
		Connected:      s.conn != nil,
		Ready:          ready,
		HasMoved:       moved,
		DisconnectedAt: at,
	}
}

// room is a single-owner actor. Every field below the channels is only
// touched from the goroutine running loop.
type room struct {
	reg     *Registry
	logger  *slog.Logger
	inbox   chan func()
	stopped chan struct{}

	id        model.RoomID
	createdAt time.Time
	state     model.RoomState
	host      *slot
	guest     *slot
	ready     map[model.ParticipantID]struct{}
	ledger    *Ledger
	outcome   model.Outcome
	winner    model.ParticipantID

	cleanupTimer clock.Timer
	cleanupGen   uint64
	closed       bool
}

func newRoom(reg *Registry, id model.RoomID, host model.Participant, conn Conn) *room {
	return &room{
		reg:       reg,
		logger:    reg.logger.With(slog.String("room_id", string(id))),
		inbox:     make(chan func()),
		stopped:   make(chan struct{}),
		id:        id,
		createdAt: reg.clock.Now(),
		state:     model.RoomStateWaitingForPlayer,
		host:      &slot{participant: host, role: model.RoleHost, conn: conn},
		ready:     make(map[model.ParticipantID]struct{}),
		ledger:    NewLedger(),
	}
}

// start announces the room to its host and hands it to its own goroutine.
// It runs on the creating goroutine before loop, so nothing else can be
// touching the room yet.
func (r *room) start() model.RoomSnapshot {
	r.announceCreated()
	snap := r.snapshot()
	go r.loop()
	return snap
}

// loop runs operations one at a time until the room closes
func (r *room) loop() {
	for op := range r.inbox {
		op()
		if r.closed {
			close(r.stopped)
			return
		}
	}
}

// do runs fn on the room's goroutine and waits for its result
func (r *room) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	op := func() { errc <- fn() }
	select {
	case r.inbox <- op:
	case <-r.stopped:
		return errRoomStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-errc
}

// post schedules fn from a timer callback; it is dropped if the room has gone
func (r *room) post(fn func()) {
	_ = r.do(context.Background(), func() error {
		fn()
		return nil
	})
}

func (r *room) slotFor(id model.ParticipantID) *slot {
	if r.host != nil && r.host.participant.ID == id {
		return r.host
	}
	if r.guest != nil && r.guest.participant.ID == id {
		return r.guest
	}
	return nil
}

func (r *room) other(s *slot) *slot {
	if s == r.host {
		return r.guest
	}
	return r.host
}

func (r *room) broadcast(n model.Notification) {
	r.host.send(n)
	r.guest.send(n)
}

func (r *room) notification(t model.NotificationType, payload any) model.Notification {
	return model.Notification{Type: t, RoomID: r.id, Payload: payload}
}

func (r *room) publish(t model.EventType, pid model.ParticipantID, payload any) {
	r.reg.observer.Publish(model.Event{
		Type:          t,
		Timestamp:     r.reg.clock.Now(),
		RoomID:        r.id,
		ParticipantID: pid,
		State:         r.state,
		Payload:       payload,
	})
}

func (r *room) snapshot() model.RoomSnapshot {
	snap := model.RoomSnapshot{
		ID:        r.id,
		State:     r.state,
		CreatedAt: r.createdAt,
		Outcome:   r.outcome,
		Winner:    r.winner,
	}
	for _, s := range []*slot{r.host, r.guest} {
		if s == nil {
			continue
		}
		_, ready := r.ready[s.participant.ID]
		ss := s.snapshot(ready, r.ledger.Has(s.participant.ID))
		if s.role == model.RoleHost {
			snap.Host = ss
		} else {
			snap.Guest = ss
		}
		if ss.DisconnectedAt != nil && (snap.DisconnectedAt == nil || ss.DisconnectedAt.Before(*snap.DisconnectedAt)) {
			snap.DisconnectedAt = ss.DisconnectedAt
		}
	}
	return snap
}

func (r *room) opponentView(s *slot) *model.ParticipantView {
	o := r.other(s)
	if o == nil {
		return nil
	}
	v := model.NewParticipantView(o.participant)
	return &v
}

// announceCreated tells the host their room exists
func (r *room) announceCreated() {
	r.host.send(r.notification(model.NotifyRoomCreated, model.RoomCreatedPayload{
		Host:  model.NewParticipantView(r.host.participant),
		State: r.state,
	}))
	r.publish(model.EventRoomCreated, r.host.participant.ID, model.NewParticipantView(r.host.participant))
	r.logger.Info("room created", slog.String("host_id", string(r.host.participant.ID)))
}

// join seats p as guest, or treats it as a reconnection if p already holds a slot
func (r *room) join(p model.Participant, conn Conn) error {
	if s := r.slotFor(p.ID); s != nil {
		if s.conn != nil && conn != nil && s.conn.ID() == conn.ID() {
			return model.ErrSelfJoinRejected
		}
		r.reconnect(s, conn)
		return nil
	}
	if r.guest != nil {
		return model.ErrRoomFull
	}
	if r.state != model.RoomStateWaitingForPlayer {
		return model.ErrWrongState
	}

	r.guest = &slot{participant: p, role: model.RoleGuest, conn: conn}
	r.state = model.RoomStateReady

	r.host.send(r.notification(model.NotifyPlayerJoined, model.PlayerJoinedPayload{
		Participant: model.NewParticipantView(p),
		State:       r.state,
	}))
	r.guest.send(r.notification(model.NotifyRoomJoined, model.RoomJoinedPayload{
		Role:     model.RoleGuest,
		State:    r.state,
		Opponent: r.opponentView(r.guest),
	}))
	r.publish(model.EventPlayerJoined, p.ID, model.NewParticipantView(p))
	r.logger.Info("player joined", slog.String("participant_id", string(p.ID)))
	return nil
}

// reconnect swaps the connection handle and cancels any pending grace timer.
// Once the round has concluded only the reconnecting participant is told.
func (r *room) reconnect(s *slot, conn Conn) {
	s.conn = conn
	s.disconnectedAt = nil
	s.stopGrace()

	s.send(r.notification(model.NotifyRoomJoined, model.RoomJoinedPayload{
		Role:        s.role,
		State:       r.state,
		Opponent:    r.opponentView(s),
		Reconnected: true,
	}))
	r.logger.Info("player reconnected",
		slog.String("participant_id", string(s.participant.ID)),
		slog.String("state", string(r.state)))

	if r.state.RoundConcluded() {
		return
	}
	r.other(s).send(r.notification(model.NotifyPlayerReconnected, model.ParticipantPayload{
		ParticipantID: s.participant.ID,
	}))
	r.publish(model.EventPlayerReconnected, s.participant.ID, nil)
}

// markReady records a ready signal and starts the countdown once both are in
func (r *room) markReady(id model.ParticipantID) error {
	s := r.slotFor(id)
	if s == nil {
		return model.ErrNotAParticipant
	}
	if _, ok := r.ready[id]; ok && r.state == model.RoomStateReady {
		return model.ErrAlreadyReady
	}
	if r.state != model.RoomStateReady {
		return model.ErrWrongState
	}

	r.ready[id] = struct{}{}
	r.broadcast(r.notification(model.NotifyPlayerReady, model.ParticipantPayload{ParticipantID: id}))
	r.publish(model.EventPlayerReady, id, nil)

	if len(r.ready) < 2 {
		return nil
	}
	clear(r.ready)
	r.state = model.RoomStateCountdown
	r.broadcast(r.notification(model.NotifyStartCountdown, model.StartCountdownPayload{
		Seconds: r.reg.cfg.CountdownSeconds,
	}))
	r.publish(model.EventCountdownStarted, "", nil)
	r.logger.Info("countdown started")
	return nil
}

// submitMove records a move and resolves the round once both are present
func (r *room) submitMove(id model.ParticipantID, move model.Move) error {
	s := r.slotFor(id)
	if s == nil {
		return model.ErrNotAParticipant
	}
	if !move.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidMove, move)
	}
	if !r.state.AcceptsMoves() {
		return model.ErrWrongState
	}
	if err := r.ledger.Submit(id, move); err != nil {
		return err
	}

	r.other(s).send(r.notification(model.NotifyMoveSubmitted, model.ParticipantPayload{ParticipantID: id}))
	r.publish(model.EventMoveLocked, id, nil)

	if r.ledger.Len() == 2 {
		r.resolveRound()
	}
	return nil
}

func (r *room) resolveRound() {
	hostMove, guestMove, ok := r.ledger.Take(r.host.participant.ID, r.guest.participant.ID)
	if !ok {
		return
	}

	round := match.Round{
		Key:       uuid.NewString(),
		RoomID:    r.id,
		Host:      r.host.participant,
		Guest:     r.guest.participant,
		HostMove:  hostMove,
		GuestMove: guestMove,
		Outcome:   match.Resolve(hostMove, guestMove),
	}
	r.outcome = round.Outcome
	r.winner = round.Winner()
	r.state = model.RoomStateResultCooldown

	r.host.send(r.notification(model.NotifyGameResult, model.GameResultPayload{
		Move:         hostMove,
		OpponentMove: guestMove,
		Result:       round.Outcome.ForHost(),
		OpponentID:   r.guest.participant.ID,
	}))
	r.guest.send(r.notification(model.NotifyGameResult, model.GameResultPayload{
		Move:         guestMove,
		OpponentMove: hostMove,
		Result:       round.Outcome.ForGuest(),
		OpponentID:   r.host.participant.ID,
	}))
	r.publish(model.EventRoundResolved, r.winner, model.RoundResolvedPayload{
		HostMove:  hostMove,
		GuestMove: guestMove,
		Outcome:   round.Outcome,
		Winner:    r.winner,
	})
	r.logger.Info("round resolved",
		slog.String("outcome", string(round.Outcome)),
		slog.String("round_key", round.Key))

	r.reg.settle(round)

	r.state = model.RoomStateFinished
	r.armCleanup()
}

func (r *room) armCleanup() {
	r.cleanupGen++
	gen := r.cleanupGen
	r.cleanupTimer = r.reg.clock.AfterFunc(r.reg.cfg.FinishedTTL, func() {
		r.post(func() {
			if r.cleanupGen != gen {
				return
			}
			r.close(model.CloseReasonFinished)
		})
	})
}

// disconnect marks a slot as disconnected and arms its grace timer.
// A connID that no longer owns the slot is ignored.
func (r *room) disconnect(id model.ParticipantID, connID string) error {
	s := r.slotFor(id)
	if s == nil {
		return model.ErrNotAParticipant
	}
	if s.conn == nil || s.conn.ID() != connID {
		return nil
	}

	now := r.reg.clock.Now()
	s.conn = nil
	s.disconnectedAt = &now

	if r.state == model.RoomStateCountdown {
		r.other(s).send(r.notification(model.NotifyTempDisconnected, model.TempDisconnectedPayload{
			ParticipantID: id,
			GraceSeconds:  int(r.reg.cfg.GracePeriod / time.Second),
		}))
	}
	r.publish(model.EventPlayerDisconnected, id, nil)

	s.stopGrace()
	gen := s.graceGen
	s.graceTimer = r.reg.clock.AfterFunc(r.reg.cfg.GracePeriod, func() {
		r.post(func() { r.graceExpired(id, gen) })
	})
	r.logger.Info("player disconnected",
		slog.String("participant_id", string(id)),
		slog.String("state", string(r.state)))
	return nil
}

func (r *room) graceExpired(id model.ParticipantID, gen uint64) {
	s := r.slotFor(id)
	if s == nil || s.graceGen != gen || s.disconnectedAt == nil {
		return
	}
	s.graceTimer = nil

	if r.state != model.RoomStateFinished {
		r.other(s).send(r.notification(model.NotifyPlayerDisconnected, model.ParticipantPayload{ParticipantID: id}))
	}
	r.ledger.Clear()
	r.logger.Info("grace period expired", slog.String("participant_id", string(id)))
	r.close(model.CloseReasonGraceExpired)
}

// close cancels every timer and removes the room from the registry
func (r *room) close(reason model.CloseReason) {
	if r.closed {
		return
	}
	r.closed = true
	for _, s := range []*slot{r.host, r.guest} {
		if s != nil {
			s.stopGrace()
		}
	}
	if r.cleanupTimer != nil {
		r.cleanupTimer.Stop()
	}
	r.cleanupGen++
	r.ledger.Clear()
	r.reg.remove(r.id, r)
	r.publish(model.EventRoomClosed, "", model.RoomClosedPayload{Reason: reason})
	r.logger.Info("room closed", slog.String("reason", string(reason)))
}
