package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mcoot/rpsduel/internal/api/apierr"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/room"
)

// Rooms is the part of the room registry the gateway drives
type Rooms interface {
	CreateRoom(ctx context.Context, id model.RoomID, p model.Participant, conn room.Conn) (model.RoomSnapshot, error)
	Join(ctx context.Context, id model.RoomID, p model.Participant, conn room.Conn) (model.RoomSnapshot, error)
	Ready(ctx context.Context, id model.RoomID, pid model.ParticipantID) error
	SubmitMove(ctx context.Context, id model.RoomID, pid model.ParticipantID, move model.Move) error
	Disconnect(ctx context.Context, id model.RoomID, pid model.ParticipantID, connID string) error
	Get(ctx context.Context, id model.RoomID) (model.RoomSnapshot, error)
	Stats(ctx context.Context) model.RegistryStats
}

var _ Rooms = (*room.Registry)(nil)

// Directory supplies the rating snapshot taken at join time
type Directory interface {
	LookupParticipant(ctx context.Context, id model.ParticipantID) (model.Participant, error)
}

// Config holds websocket gateway settings
type Config struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	OpTimeout      time.Duration
	SendBufferSize int
	OriginPatterns []string
}

// DefaultConfig returns the default gateway configuration
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		OpTimeout:      5 * time.Second,
		SendBufferSize: 64,
		OriginPatterns: []string{"*"},
	}
}

// Gateway translates websocket messages into room registry calls
type Gateway struct {
	rooms     Rooms
	directory Directory
	cfg       Config
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewGateway creates a gateway. directory may be nil.
func NewGateway(rooms Rooms, directory Directory, cfg Config, logger *slog.Logger) *Gateway {
	return &Gateway{
		rooms:     rooms,
		directory: directory,
		cfg:       cfg,
		validate:  validator.New(),
		logger:    logger.With(slog.String("component", "ws-gateway")),
	}
}

// ServeHTTP upgrades the request and runs the session until the peer goes away
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: g.cfg.OriginPatterns,
	})
	if err != nil {
		g.logger.Warn("websocket accept failed", slog.Any("error", err))
		return
	}

	s := newSession(r.Context(), g, conn)
	s.logger.Info("websocket connected", slog.String("remote_addr", r.RemoteAddr))
	go s.writePump()
	s.readPump()
	s.release()
	s.logger.Info("websocket disconnected")
}

// handle dispatches one inbound message. Errors go back to the caller only.
func (g *Gateway) handle(ctx context.Context, s *session, env Envelope) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.OpTimeout)
	defer cancel()

	var err error
	var roomID model.RoomID
	switch MessageType(env.Type) {
	case MsgCreateRoom:
		var req CreateRoomRequest
		if err = g.decode(env, &req); err == nil {
			roomID, err = g.createRoom(ctx, s, req)
		}
	case MsgJoinRoom:
		var req JoinRoomRequest
		if err = g.decode(env, &req); err == nil {
			roomID = model.RoomID(req.RoomID)
			err = g.joinRoom(ctx, s, req)
		}
	case MsgReady:
		var req ReadyRequest
		if err = g.decode(env, &req); err == nil {
			roomID = model.RoomID(req.RoomID)
			err = g.ready(ctx, s, req)
		}
	case MsgSubmitMove:
		var req SubmitMoveRequest
		if err = g.decode(env, &req); err == nil {
			roomID = model.RoomID(req.RoomID)
			err = g.submitMove(ctx, s, req)
		}
	case MsgRoomStats:
		stats := g.rooms.Stats(ctx)
		s.Send(model.Notification{
			Type: model.NotifyRoomStats,
			Payload: model.RoomStatsPayload{
				TotalRooms:   stats.Rooms,
				TotalChoices: stats.PendingChoices,
			},
		})
	default:
		err = apierr.NewInvalidRequestError("unknown message type: " + env.Type)
	}

	if err != nil {
		g.reject(s, roomID, err)
	}
}

func (g *Gateway) createRoom(ctx context.Context, s *session, req CreateRoomRequest) (model.RoomID, error) {
	p := g.participant(ctx, req.Participant)
	snap, err := g.rooms.CreateRoom(ctx, model.RoomID(req.RoomID), p, s)
	if err != nil {
		return model.RoomID(req.RoomID), err
	}
	s.bind(snap, p.ID)
	return snap.ID, nil
}

func (g *Gateway) joinRoom(ctx context.Context, s *session, req JoinRoomRequest) error {
	id := model.RoomID(req.RoomID)
	pid := model.ParticipantID(req.Participant.ID)

	// One connection plays one side of a room
	if b, ok := s.binding(id); ok && b.participant != pid {
		if g.holds(ctx, id, b) {
			return model.ErrSelfJoinRejected
		}
		s.unbind(id)
	}

	snap, err := g.rooms.Join(ctx, id, g.participant(ctx, req.Participant), s)
	if err != nil {
		return err
	}
	s.bind(snap, pid)
	return nil
}

// holds reports whether the room this connection bound to is still live
// with the bound participant seated. A room torn down and reopened under the
// same id is a different room.
func (g *Gateway) holds(ctx context.Context, id model.RoomID, b binding) bool {
	snap, err := g.rooms.Get(ctx, id)
	if err != nil {
		return false
	}
	return snap.CreatedAt.Equal(b.createdAt) && snap.Slot(b.participant) != nil
}

func (g *Gateway) ready(ctx context.Context, s *session, req ReadyRequest) error {
	id, pid := model.RoomID(req.RoomID), model.ParticipantID(req.ParticipantID)
	if err := s.authorize(id, pid); err != nil {
		return err
	}
	return g.rooms.Ready(ctx, id, pid)
}

func (g *Gateway) submitMove(ctx context.Context, s *session, req SubmitMoveRequest) error {
	id, pid := model.RoomID(req.RoomID), model.ParticipantID(req.ParticipantID)
	if err := s.authorize(id, pid); err != nil {
		return err
	}
	return g.rooms.SubmitMove(ctx, id, pid, model.Move(strings.ToLower(strings.TrimSpace(req.Move))))
}

// participant builds the join-time snapshot. Lookup failures fall back to
// default standing; the display name on the request wins when present.
func (g *Gateway) participant(ctx context.Context, info ParticipantInfo) model.Participant {
	id := model.ParticipantID(info.ID)
	p := model.Participant{ID: id, Snapshot: model.Standing{Rating: model.DefaultRating}}
	if g.directory != nil {
		found, err := g.directory.LookupParticipant(ctx, id)
		if err != nil {
			g.logger.Warn("participant lookup failed",
				slog.String("participant_id", info.ID),
				slog.Any("error", err))
		} else {
			p = found
		}
	}
	if name := strings.TrimSpace(info.DisplayName); name != "" {
		p.DisplayName = name
	}
	if p.DisplayName == "" {
		p.DisplayName = info.ID
	}
	return p
}

func (g *Gateway) decode(env Envelope, v any) error {
	if err := env.Decode(v); err != nil {
		return apierr.NewInvalidRequestError("malformed " + env.Type + " payload")
	}
	if err := g.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apierr.NewInvalidRequestError("invalid field " + verrs[0].Namespace())
		}
		return apierr.NewInvalidRequestError("invalid " + env.Type + " payload")
	}
	return nil
}

func (g *Gateway) reject(s *session, roomID model.RoomID, err error) {
	apiErr := apierr.Classify(err)
	if apiErr.Code == apierr.CodeInternalError {
		s.logger.Error("room operation failed", slog.Any("error", err))
	} else {
		s.logger.Debug("room operation rejected",
			slog.String("room_id", string(roomID)),
			slog.String("code", apiErr.Code))
	}
	s.Send(model.Notification{
		Type:    model.NotifyRoomError,
		RoomID:  roomID,
		Payload: model.RoomErrorPayload{Code: apiErr.Code, Reason: apiErr.Message},
	})
}

func newConnID() string {
	return uuid.NewString()
}
