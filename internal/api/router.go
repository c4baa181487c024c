package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsduel/internal/api/handler"
	"github.com/mcoot/rpsduel/internal/api/middleware"
	"github.com/mcoot/rpsduel/internal/services/scoring"
	"github.com/mcoot/rpsduel/internal/web/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Rooms          handler.Rooms
	ScoringService scoring.ServiceInterface
	HubManager     *sse.HubManager
	// Gateway serves the websocket session endpoint; optional
	Gateway http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.Rooms, cfg.HubManager)
	playerHandler := handler.NewPlayerHandler(cfg.ScoringService)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats", roomHandler.Stats).Methods(http.MethodGet)

	// Room routes
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/rooms/{id}/events", roomHandler.Events).Methods(http.MethodGet)

	// Player routes
	api.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}", playerHandler.Put).Methods(http.MethodPut)

	if cfg.Gateway != nil {
		ws := r.PathPrefix("/ws").Subrouter()
		ws.Use(recoveryMiddleware)
		ws.Use(loggingMiddleware)
		ws.Handle("", cfg.Gateway).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
