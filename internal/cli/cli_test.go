package cli

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsduel/internal/factory"
	"github.com/mcoot/rpsduel/internal/model"
)

func newTestServer(t *testing.T) (*factory.TestApp, *httptest.Server) {
	t.Helper()
	app := factory.NewTestApp("rating")
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close(context.Background())
	})
	return app, srv
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	c := &Config{ServerURL: srv.URL}
	conn, _, err := websocket.Dial(ctx, c.WebsocketURL(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func nopLogf(string, ...any) {}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws"},
		{"http://localhost:8080/", "ws://localhost:8080/ws"},
		{"https://rps.example.com", "wss://rps.example.com/ws"},
	}

	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			c := &Config{ServerURL: tt.server}
			assert.Equal(t, tt.want, c.WebsocketURL())
		})
	}
}

func TestParseSSE(t *testing.T) {
	stream := "event: connected\ndata: {\"room_id\":\"R\"}\n\n" +
		": keepalive\n\n" +
		"event: round-resolved\ndata: line one\ndata: line two\n\n"

	var got []SSEEvent
	err := parseSSE(strings.NewReader(stream), func(event, data string) {
		got = append(got, SSEEvent{Event: event, Data: data})
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "connected", got[0].Event)
	assert.Equal(t, `{"room_id":"R"}`, got[0].Data)
	assert.Equal(t, "round-resolved", got[1].Event)
	assert.Equal(t, "line one\nline two", got[1].Data)
}

func TestPlayRound(t *testing.T) {
	app, srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hostConn := dial(t, ctx, srv)
	guestConn := dial(t, ctx, srv)

	var (
		wg          sync.WaitGroup
		hostResult  PlayResult
		guestResult PlayResult
		hostErr     error
		guestErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		hostResult, hostErr = playRound(ctx, hostConn, playOptions{
			RoomID: "DUEL", ParticipantID: "alice", Move: model.MovePaper, Create: true,
		}, nopLogf)
	}()

	require.Eventually(t, func() bool { return app.Registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	go func() {
		defer wg.Done()
		guestResult, guestErr = playRound(ctx, guestConn, playOptions{
			RoomID: "DUEL", ParticipantID: "bob", Move: model.MoveRock,
		}, nopLogf)
	}()
	wg.Wait()

	require.NoError(t, hostErr)
	require.NoError(t, guestErr)

	assert.Equal(t, PlayResult{
		RoomID: "DUEL", Role: "host", OpponentID: "bob",
		Move: "paper", OpponentMove: "rock", Result: "win",
	}, hostResult)
	assert.Equal(t, PlayResult{
		RoomID: "DUEL", Role: "guest", OpponentID: "alice",
		Move: "rock", OpponentMove: "paper", Result: "lose",
	}, guestResult)
}

func TestPlayRoundGeneratedRoom(t *testing.T) {
	app, srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hostConn := dial(t, ctx, srv)
	guestConn := dial(t, ctx, srv)

	done := make(chan PlayResult, 1)
	go func() {
		res, err := playRound(ctx, hostConn, playOptions{
			ParticipantID: "alice", Move: model.MoveRock, Create: true,
		}, nopLogf)
		assert.NoError(t, err)
		done <- res
	}()

	require.Eventually(t, func() bool { return app.Registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	// MockRandom yields the first alphabet character for every position
	res, err := playRound(ctx, guestConn, playOptions{
		RoomID: "AAAAAA", ParticipantID: "bob", Move: model.MoveRock,
	}, nopLogf)
	require.NoError(t, err)
	assert.Equal(t, "draw", res.Result)

	host := <-done
	assert.Equal(t, "AAAAAA", host.RoomID)
	assert.Equal(t, "draw", host.Result)
}

func TestPlayRoundReportsRoomErrors(t *testing.T) {
	app, srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := app.Registry.CreateRoom(ctx, "TAKEN", model.Participant{ID: "carol"}, nil)
	require.NoError(t, err)

	_, err = playRound(ctx, dial(t, ctx, srv), playOptions{
		RoomID: "TAKEN", ParticipantID: "alice", Move: model.MoveRock, Create: true,
	}, nopLogf)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "DUPLICATE_ROOM", apiErr.Code)
}

func TestCommandsReturnAPIErrors(t *testing.T) {
	_, srv := newTestServer(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown room", []string{"room", "get", "NOPE"}, "ROOM_NOT_FOUND"},
		{"delete unknown room", []string{"room", "delete", "NOPE"}, "ROOM_NOT_FOUND"},
		{"unknown player", []string{"player", "get", "nobody"}, "PLAYER_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			cmd.SetArgs(append([]string{"--server", srv.URL, "-o", "json"}, tt.args...))
			cmd.SilenceErrors = true

			err := cmd.Execute()

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestPlayerPutThenGet(t *testing.T) {
	app, srv := newTestServer(t)

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--server", srv.URL, "-o", "json", "player", "put", "alice", "--name", "Alice"})
	require.NoError(t, cmd.Execute())

	p, err := app.ScoringService.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.DisplayName)

	var got Player
	require.NoError(t, NewClient(srv.URL).Get("/api/v1/players/alice", &got))
	assert.Equal(t, model.DefaultRating, got.Rating)
}

func TestInvalidOutputFormat(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"-o", "yaml", "health"})
	cmd.SilenceErrors = true
	assert.Error(t, cmd.Execute())
}
