package sse

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/testutil"
)

var testTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func receive(t *testing.T, client *Client) string {
	t.Helper()
	select {
	case msg, ok := <-client.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		return string(msg)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client did not receive message")
	}
	return ""
}

func TestEventName(t *testing.T) {
	tests := map[model.EventType]string{
		model.EventRoomCreated:        "room-created",
		model.EventRoundResolved:      "round-resolved",
		model.EventPlayerDisconnected: "player-disconnected",
	}
	for in, want := range tests {
		if got := EventName(in); got != want {
			t.Errorf("EventName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderEvent(t *testing.T) {
	name, data, err := RenderEvent(model.Event{
		Type:      model.EventRoundResolved,
		Timestamp: testTime,
		RoomID:    "R1",
		State:     model.RoomStateResultCooldown,
		Payload: model.RoundResolvedPayload{
			HostMove:  model.MoveRock,
			GuestMove: model.MoveScissors,
			Outcome:   model.OutcomeHostWins,
			Winner:    "alice",
		},
	})
	if err != nil {
		t.Fatalf("RenderEvent: %v", err)
	}
	if name != "round-resolved" {
		t.Errorf("name = %q", name)
	}

	var view struct {
		Type   string `json:"type"`
		RoomID string `json:"room_id"`
		State  string `json:"state"`
		Data   struct {
			HostMove string `json:"host_move"`
			Winner   string `json:"winner"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		t.Fatalf("data is not JSON: %v", err)
	}
	if view.Type != "round_resolved" || view.RoomID != "R1" || view.State != "result_cooldown" {
		t.Errorf("unexpected view %+v", view)
	}
	if view.Data.HostMove != "rock" || view.Data.Winner != "alice" {
		t.Errorf("unexpected payload %+v", view.Data)
	}
}

func TestBroadcaster_PublishReachesRoomObservers(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	hub := manager.GetOrCreateHub("R1")
	client := NewClient(hub, "observer1")
	hub.Register(client)

	other := manager.GetOrCreateHub("R2")
	bystander := NewClient(other, "observer2")
	other.Register(bystander)

	broadcaster.Publish(model.Event{
		Type:          model.EventPlayerReady,
		Timestamp:     testTime,
		RoomID:        "R1",
		ParticipantID: "alice",
		State:         model.RoomStateReady,
	})

	msg := receive(t, client)
	if !strings.HasPrefix(msg, "event: player-ready\n") {
		t.Errorf("unexpected event line: %q", msg)
	}
	if !strings.Contains(msg, `"participant_id":"alice"`) {
		t.Errorf("message missing participant: %q", msg)
	}

	select {
	case msg := <-bystander.send:
		t.Errorf("observer of another room received %q", string(msg))
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBroadcaster_RoomClosedShutsHubDown(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	hub := manager.GetOrCreateHub("R1")
	client := NewClient(hub, "observer1")
	hub.Register(client)

	broadcaster.Publish(model.Event{
		Type:      model.EventRoomClosed,
		Timestamp: testTime,
		RoomID:    "R1",
		Payload:   model.RoomClosedPayload{Reason: model.CloseReasonSwept},
	})

	msg := receive(t, client)
	if !strings.Contains(msg, `"reason":"swept"`) {
		t.Errorf("unexpected close message %q", msg)
	}
	if manager.GetHub("R1") != nil {
		t.Error("hub still registered after room closed")
	}
}

func TestBroadcaster_NoHubDoesNotPanic(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	broadcaster.Publish(model.Event{Type: model.EventRoomCreated, RoomID: "NOBODY"})
	if manager.Len() != 0 {
		t.Error("Publish created a hub for an unobserved room")
	}
}

func TestServeSSE_StreamsUntilHubCloses(t *testing.T) {
	hub := newTestHub("R1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/R1/events", nil)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		ServeSSE(rec, req, hub, "observer1")
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	hub.BroadcastEvent("player-ready", `{"x":1}`)
	hub.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ServeSSE did not return after hub closed")
	}

	body := rec.Body.String()
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(body, "event: connected\n") {
		t.Errorf("missing connected event: %q", body)
	}
	if !strings.Contains(body, "event: player-ready\ndata: {\"x\":1}\n\n") {
		t.Errorf("missing broadcast event: %q", body)
	}
}
