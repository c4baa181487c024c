package ws

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsduel/internal/dependencies/mocks"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/room"
	"github.com/mcoot/rpsduel/internal/testutil"
)

type staticDirectory map[model.ParticipantID]model.Participant

func (d staticDirectory) LookupParticipant(_ context.Context, id model.ParticipantID) (model.Participant, error) {
	if p, ok := d[id]; ok {
		return p, nil
	}
	return model.Participant{}, errors.New("directory offline")
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (c *testClient) send(t MessageType, payload any) {
	env, err := NewEnvelope(t, payload)
	if err != nil {
		c.t.Fatalf("encode %s: %v", t, err)
	}
	c.sendEnvelope(env)
}

func (c *testClient) sendEnvelope(env any) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, c.conn, env); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

// next returns the next message of type want, skipping any others
func (c *testClient) next(want model.NotificationType) Envelope {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		var env Envelope
		if err := wsjson.Read(ctx, c.conn, &env); err != nil {
			c.t.Fatalf("waiting for %s: %v", want, err)
		}
		if env.Type == string(want) {
			return env
		}
	}
}

// immediate returns the very next message
func (c *testClient) immediate() Envelope {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var env Envelope
	if err := wsjson.Read(ctx, c.conn, &env); err != nil {
		c.t.Fatalf("read: %v", err)
	}
	return env
}

type GatewaySuite struct {
	suite.Suite
	clock    *mocks.MockClock
	registry *room.Registry
	server   *httptest.Server
	url      string
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.registry = room.NewRegistry(room.DefaultConfig(), nil, nil, s.clock, mocks.NewMockRandom(), testutil.NopLogger())
	dir := staticDirectory{
		"alice": {ID: "alice", DisplayName: "Alice", Snapshot: model.Standing{Rating: 1200, Score: 7}},
	}
	gw := NewGateway(s.registry, dir, DefaultConfig(), testutil.NopLogger())
	s.server = httptest.NewServer(gw)
	s.url = "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *GatewaySuite) TearDownTest() {
	s.server.Close()
	s.registry.Close(context.Background())
}

func (s *GatewaySuite) dial() *testClient {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return &testClient{t: s.T(), conn: conn}
}

func (s *GatewaySuite) decode(env Envelope, v any) {
	s.Require().NoError(env.Decode(v))
}

// seat creates room R1 with alice as host and bob as guest
func (s *GatewaySuite) seat() (*testClient, *testClient) {
	host := s.dial()
	host.send(MsgCreateRoom, CreateRoomRequest{RoomID: "R1", Participant: ParticipantInfo{ID: "alice"}})
	host.next(model.NotifyRoomCreated)

	guest := s.dial()
	guest.send(MsgJoinRoom, JoinRoomRequest{RoomID: "R1", Participant: ParticipantInfo{ID: "bob", DisplayName: "Bob"}})
	guest.next(model.NotifyRoomJoined)
	host.next(model.NotifyPlayerJoined)
	return host, guest
}

func (s *GatewaySuite) countdown(host, guest *testClient) {
	host.send(MsgReady, ReadyRequest{RoomID: "R1", ParticipantID: "alice"})
	guest.send(MsgReady, ReadyRequest{RoomID: "R1", ParticipantID: "bob"})
	host.next(model.NotifyStartCountdown)
	guest.next(model.NotifyStartCountdown)
}

// awaitGraceTimer waits for the disconnect op to finish arming its timer
func (s *GatewaySuite) awaitGraceTimer() {
	s.Eventually(func() bool { return s.clock.PendingTimers() == 1 }, time.Second, 5*time.Millisecond)
}

func (s *GatewaySuite) TestCreateRoomUsesDirectorySnapshot() {
	host := s.dial()
	host.send(MsgCreateRoom, CreateRoomRequest{RoomID: "R1", Participant: ParticipantInfo{ID: "alice"}})

	env := host.next(model.NotifyRoomCreated)
	s.Equal(model.RoomID("R1"), env.RoomID)
	var payload model.RoomCreatedPayload
	s.decode(env, &payload)
	s.Equal("Alice", payload.Host.DisplayName)
	s.Equal(1200, payload.Host.Rating)
	s.Equal(model.RoomStateWaitingForPlayer, payload.State)
}

func (s *GatewaySuite) TestCreateRoomGeneratesCode() {
	host := s.dial()
	host.send(MsgCreateRoom, CreateRoomRequest{Participant: ParticipantInfo{ID: "carol", DisplayName: "Carol"}})

	env := host.next(model.NotifyRoomCreated)
	s.Equal(model.RoomID("AAAAAA"), env.RoomID)
	var payload model.RoomCreatedPayload
	s.decode(env, &payload)
	s.Equal(model.DefaultRating, payload.Host.Rating, "lookup failure falls back to default standing")
	s.Equal("Carol", payload.Host.DisplayName)
}

func (s *GatewaySuite) TestDuplicateCreateIsRejected() {
	s.seat()
	other := s.dial()
	other.send(MsgCreateRoom, CreateRoomRequest{RoomID: "R1", Participant: ParticipantInfo{ID: "carol"}})

	env := other.next(model.NotifyRoomError)
	var payload model.RoomErrorPayload
	s.decode(env, &payload)
	s.Equal("DUPLICATE_ROOM", payload.Code)
}

func (s *GatewaySuite) TestFullRoundOverWebsocket() {
	host, guest := s.seat()
	s.countdown(host, guest)

	host.send(MsgSubmitMove, SubmitMoveRequest{RoomID: "R1", ParticipantID: "alice", Move: "rock"})
	guest.next(model.NotifyMoveSubmitted)
	guest.send(MsgSubmitMove, SubmitMoveRequest{RoomID: "R1", ParticipantID: "bob", Move: "Scissors"})

	var hostResult, guestResult model.GameResultPayload
	s.decode(host.next(model.NotifyGameResult), &hostResult)
	s.decode(guest.next(model.NotifyGameResult), &guestResult)

	s.Equal(model.ResultWin, hostResult.Result)
	s.Equal(model.MoveRock, hostResult.Move)
	s.Equal(model.MoveScissors, hostResult.OpponentMove)
	s.Equal(model.ResultLose, guestResult.Result)
	s.Equal(model.MoveScissors, guestResult.Move)

	snap, err := s.registry.Get(context.Background(), "R1")
	s.Require().NoError(err)
	s.Equal(model.RoomStateFinished, snap.State)

	guest.send(MsgSubmitMove, SubmitMoveRequest{RoomID: "R1", ParticipantID: "bob", Move: "paper"})
	var rejected model.RoomErrorPayload
	s.decode(guest.next(model.NotifyRoomError), &rejected)
	s.Equal("WRONG_STATE", rejected.Code)
}

func (s *GatewaySuite) TestErrorsGoToCallerOnly() {
	host, guest := s.seat()

	guest.send(MsgSubmitMove, SubmitMoveRequest{RoomID: "R1", ParticipantID: "bob", Move: "rock"})
	var payload model.RoomErrorPayload
	env := guest.next(model.NotifyRoomError)
	s.decode(env, &payload)
	s.Equal("WRONG_STATE", payload.Code)
	s.Equal(model.RoomID("R1"), env.RoomID)

	host.send(MsgRoomStats, nil)
	s.Equal(string(model.NotifyRoomStats), host.immediate().Type)
}

func (s *GatewaySuite) TestActingForAnotherParticipantIsRejected() {
	_, guest := s.seat()

	guest.send(MsgReady, ReadyRequest{RoomID: "R1", ParticipantID: "alice"})
	var payload model.RoomErrorPayload
	s.decode(guest.next(model.NotifyRoomError), &payload)
	s.Equal("NOT_A_PARTICIPANT", payload.Code)

	snap, err := s.registry.Get(context.Background(), "R1")
	s.Require().NoError(err)
	s.False(snap.Host.Ready)
}

func (s *GatewaySuite) TestOneConnectionCannotTakeBothSlots() {
	host := s.dial()
	host.send(MsgCreateRoom, CreateRoomRequest{RoomID: "R1", Participant: ParticipantInfo{ID: "alice"}})
	host.next(model.NotifyRoomCreated)

	host.send(MsgJoinRoom, JoinRoomRequest{RoomID: "R1", Participant: ParticipantInfo{ID: "mallory"}})
	var payload model.RoomErrorPayload
	s.decode(host.next(model.NotifyRoomError), &payload)
	s.Equal("SELF_JOIN_REJECTED", payload.Code)

	snap, err := s.registry.Get(context.Background(), "R1")
	s.Require().NoError(err)
	s.Nil(snap.Guest)
}

func (s *GatewaySuite) TestJoinReopensRoomAfterTeardown() {
	host, _ := s.seat()
	s.Require().NoError(s.registry.Delete(context.Background(), "R1"))

	host.send(MsgJoinRoom, JoinRoomRequest{RoomID: "R1", Participant: ParticipantInfo{ID: "carol", DisplayName: "Carol"}})
	var payload model.RoomCreatedPayload
	s.decode(host.next(model.NotifyRoomCreated), &payload)
	s.Equal(model.ParticipantID("carol"), payload.Host.ID)

	host.send(MsgReady, ReadyRequest{RoomID: "R1", ParticipantID: "alice"})
	var rejected model.RoomErrorPayload
	s.decode(host.next(model.NotifyRoomError), &rejected)
	s.Equal("NOT_A_PARTICIPANT", rejected.Code)
}

func (s *GatewaySuite) TestJoinRoomReopenedByAnotherConnection() {
	host, _ := s.seat()
	s.clock.Advance(room.DefaultConfig().FinishedTTL)
	s.Require().NoError(s.registry.Delete(context.Background(), "R1"))

	carol := s.dial()
	carol.send(MsgJoinRoom, JoinRoomRequest{RoomID: "R1", Participant: ParticipantInfo{ID: "carol"}})
	carol.next(model.NotifyRoomCreated)

	host.send(MsgJoinRoom, JoinRoomRequest{RoomID: "R1", Participant: ParticipantInfo{ID: "dave"}})
	var joined model.RoomJoinedPayload
	s.decode(host.next(model.NotifyRoomJoined), &joined)
	s.Equal(model.RoleGuest, joined.Role)
	s.Require().NotNil(joined.Opponent)
	s.Equal(model.ParticipantID("carol"), joined.Opponent.ID)
}

func (s *GatewaySuite) TestThirdJoinIsRoomFull() {
	s.seat()
	third := s.dial()
	third.send(MsgJoinRoom, JoinRoomRequest{RoomID: "R1", Participant: ParticipantInfo{ID: "carol"}})

	var payload model.RoomErrorPayload
	s.decode(third.next(model.NotifyRoomError), &payload)
	s.Equal("ROOM_FULL", payload.Code)
}

func (s *GatewaySuite) TestMalformedMessages() {
	client := s.dial()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Require().NoError(client.conn.Write(ctx, websocket.MessageText, []byte("not json")))
	var payload model.RoomErrorPayload
	s.decode(client.next(model.NotifyRoomError), &payload)
	s.Equal("INVALID_REQUEST", payload.Code)

	client.sendEnvelope(map[string]any{"type": "dance"})
	s.decode(client.next(model.NotifyRoomError), &payload)
	s.Equal("INVALID_REQUEST", payload.Code)

	client.send(MsgJoinRoom, JoinRoomRequest{Participant: ParticipantInfo{ID: "bob"}})
	s.decode(client.next(model.NotifyRoomError), &payload)
	s.Equal("INVALID_REQUEST", payload.Code)
	s.Contains(payload.Reason, "RoomID")
}

func (s *GatewaySuite) TestInvalidMoveIsRejected() {
	host, guest := s.seat()
	s.countdown(host, guest)

	host.send(MsgSubmitMove, SubmitMoveRequest{RoomID: "R1", ParticipantID: "alice", Move: "lizard"})
	var payload model.RoomErrorPayload
	s.decode(host.next(model.NotifyRoomError), &payload)
	s.Equal("INVALID_MOVE", payload.Code)
}

func (s *GatewaySuite) TestDroppedConnectionStartsGracePeriod() {
	host, guest := s.seat()
	s.countdown(host, guest)

	s.Require().NoError(guest.conn.Close(websocket.StatusNormalClosure, ""))

	var temp model.TempDisconnectedPayload
	s.decode(host.next(model.NotifyTempDisconnected), &temp)
	s.Equal(model.ParticipantID("bob"), temp.ParticipantID)
	s.Equal(10, temp.GraceSeconds)

	s.awaitGraceTimer()
	s.clock.Advance(10 * time.Second)

	var gone model.ParticipantPayload
	s.decode(host.next(model.NotifyPlayerDisconnected), &gone)
	s.Equal(model.ParticipantID("bob"), gone.ParticipantID)
	s.Eventually(func() bool { return s.registry.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func (s *GatewaySuite) TestReconnectOnNewConnection() {
	host, guest := s.seat()
	s.countdown(host, guest)

	s.Require().NoError(guest.conn.Close(websocket.StatusNormalClosure, ""))
	host.next(model.NotifyTempDisconnected)

	s.awaitGraceTimer()
	s.clock.Advance(9 * time.Second)

	again := s.dial()
	again.send(MsgJoinRoom, JoinRoomRequest{RoomID: "R1", Participant: ParticipantInfo{ID: "bob"}})
	var joined model.RoomJoinedPayload
	s.decode(again.next(model.NotifyRoomJoined), &joined)
	s.True(joined.Reconnected)
	s.Equal(model.RoleGuest, joined.Role)
	host.next(model.NotifyPlayerReconnected)

	s.clock.Advance(time.Minute)
	snap, err := s.registry.Get(context.Background(), "R1")
	s.Require().NoError(err)
	s.True(snap.Guest.Connected)

	again.send(MsgSubmitMove, SubmitMoveRequest{RoomID: "R1", ParticipantID: "bob", Move: "paper"})
	host.next(model.NotifyMoveSubmitted)
}

func (s *GatewaySuite) TestRoomStats() {
	host, guest := s.seat()
	s.countdown(host, guest)
	host.send(MsgSubmitMove, SubmitMoveRequest{RoomID: "R1", ParticipantID: "alice", Move: "paper"})
	guest.next(model.NotifyMoveSubmitted)

	guest.send(MsgRoomStats, nil)
	var stats model.RoomStatsPayload
	s.decode(guest.next(model.NotifyRoomStats), &stats)
	s.Equal(1, stats.TotalRooms)
	s.Equal(1, stats.TotalChoices)
}
