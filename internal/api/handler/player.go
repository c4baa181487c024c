package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsduel/internal/api/request"
	"github.com/mcoot/rpsduel/internal/api/response"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/scoring"
)

// PlayerHandler handles player profile endpoints
type PlayerHandler struct {
	scoring scoring.ServiceInterface
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(scoringService scoring.ServiceInterface) *PlayerHandler {
	return &PlayerHandler{
		scoring: scoringService,
	}
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.ParticipantID(mux.Vars(r)["id"])

	profile, err := h.scoring.GetProfile(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(profile))
}

// Put handles PUT /api/v1/players/{id}
func (h *PlayerHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := model.ParticipantID(mux.Vars(r)["id"])

	var req request.UpsertPlayerRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	profile, err := h.scoring.UpsertProfile(r.Context(), id, req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(profile))
}
