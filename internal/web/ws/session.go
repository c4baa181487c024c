package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mcoot/rpsduel/internal/api/apierr"
	"github.com/mcoot/rpsduel/internal/model"
)

// session is one websocket connection. It is the room.Conn handed to the
// registry for every room the connection joins.
type session struct {
	id     string
	gw     *Gateway
	conn   *websocket.Conn
	send   chan model.Notification
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	bindings map[model.RoomID]binding
}

// binding records which side of which room a connection plays
type binding struct {
	participant model.ParticipantID
	createdAt   time.Time
}

func newSession(ctx context.Context, g *Gateway, conn *websocket.Conn) *session {
	ctx, cancel := context.WithCancel(ctx)
	id := newConnID()
	return &session{
		id:       id,
		gw:       g,
		conn:     conn,
		send:     make(chan model.Notification, g.cfg.SendBufferSize),
		logger:   g.logger.With(slog.String("conn_id", id)),
		ctx:      ctx,
		cancel:   cancel,
		bindings: make(map[model.RoomID]binding),
	}
}

// ID implements room.Conn
func (s *session) ID() string {
	return s.id
}

// Send implements room.Conn. A peer that cannot keep up is dropped.
func (s *session) Send(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- n:
	default:
		s.logger.Warn("send buffer full, closing slow client",
			slog.String("type", string(n.Type)))
		go s.close(websocket.StatusPolicyViolation, "too slow")
	}
}

func (s *session) readPump() {
	defer s.close(websocket.StatusNormalClosure, "")

	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				s.logger.Debug("websocket read ended", slog.Any("error", err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.gw.reject(s, "", apierr.NewInvalidRequestError("message is not valid JSON"))
			continue
		}
		if err := s.gw.validate.Struct(env); err != nil {
			s.gw.reject(s, env.RoomID, apierr.NewInvalidRequestError("message type is required"))
			continue
		}
		s.gw.handle(s.ctx, s, env)
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(s.gw.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case n := <-s.send:
			ctx, cancel := context.WithTimeout(s.ctx, s.gw.cfg.WriteTimeout)
			err := wsjson.Write(ctx, s.conn, n)
			cancel()
			if err != nil {
				s.logger.Debug("websocket write failed", slog.Any("error", err))
				s.close(websocket.StatusInternalError, "write failed")
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(s.ctx, s.gw.cfg.WriteTimeout)
			err := s.conn.Ping(ctx)
			cancel()
			if err != nil {
				s.logger.Debug("websocket ping failed", slog.Any("error", err))
				s.close(websocket.StatusGoingAway, "ping timeout")
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *session) close(code websocket.StatusCode, reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	_ = s.conn.Close(code, reason)
}

// release reports the lost connection to every room it was bound to
func (s *session) release() {
	s.mu.Lock()
	bindings := make(map[model.RoomID]model.ParticipantID, len(s.bindings))
	for id, b := range s.bindings {
		bindings[id] = b.participant
	}
	s.mu.Unlock()

	for id, pid := range bindings {
		ctx, cancel := context.WithTimeout(context.Background(), s.gw.cfg.OpTimeout)
		err := s.gw.rooms.Disconnect(ctx, id, pid, s.id)
		cancel()
		if err != nil && !errors.Is(err, model.ErrRoomNotFound) {
			s.logger.Warn("disconnect not recorded",
				slog.String("room_id", string(id)),
				slog.Any("error", err))
		}
	}
}

func (s *session) bind(snap model.RoomSnapshot, pid model.ParticipantID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[snap.ID] = binding{participant: pid, createdAt: snap.CreatedAt}
}

func (s *session) unbind(id model.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, id)
}

func (s *session) binding(id model.RoomID) (binding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[id]
	return b, ok
}

// authorize checks that pid is the identity this connection joined id as
func (s *session) authorize(id model.RoomID, pid model.ParticipantID) error {
	b, ok := s.binding(id)
	if !ok || b.participant != pid {
		return model.ErrNotAParticipant
	}
	return nil
}
