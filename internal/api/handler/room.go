package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mcoot/rpsduel/internal/api/response"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/web/sse"
)

// Rooms is the read and admin surface of the room registry
type Rooms interface {
	Get(ctx context.Context, id model.RoomID) (model.RoomSnapshot, error)
	Delete(ctx context.Context, id model.RoomID) error
	Stats(ctx context.Context) model.RegistryStats
}

// RoomHandler handles room inspection endpoints
type RoomHandler struct {
	rooms Rooms
	hubs  *sse.HubManager
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms Rooms, hubs *sse.HubManager) *RoomHandler {
	return &RoomHandler{
		rooms: rooms,
		hubs:  hubs,
	}
}

// Stats handles GET /api/v1/stats
func (h *RoomHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.StatsFromModel(h.rooms.Stats(r.Context())))
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.rooms.Get(r.Context(), model.RoomID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomFromModel(snap))
}

// Delete handles DELETE /api/v1/rooms/{id}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.rooms.Delete(r.Context(), model.RoomID(mux.Vars(r)["id"])); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Events handles GET /api/v1/rooms/{id}/events, streaming public room
// events until the room closes or the client goes away
func (h *RoomHandler) Events(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])
	if _, err := h.rooms.Get(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	hub := h.hubs.GetOrCreateHub(id)
	// The room may have closed before the hub existed to carry room_closed
	if _, err := h.rooms.Get(r.Context(), id); err != nil {
		h.hubs.RemoveIfEmpty(id)
		WriteError(w, err)
		return
	}
	sse.ServeSSE(w, r, hub, uuid.NewString())
	h.hubs.RemoveIfEmpty(id)
}
