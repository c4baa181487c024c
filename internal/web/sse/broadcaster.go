package sse

import (
	"log/slog"

	"github.com/mcoot/rpsduel/internal/model"
)

// Broadcaster publishes room events to the room's SSE hub. It is the
// registry's room.Observer.
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// Publish renders e and sends it to the room's observers. Rooms nobody
// watches have no hub and are skipped. A closed room's hub is shut down
// after its final event.
func (b *Broadcaster) Publish(e model.Event) {
	hub := b.hubManager.GetHub(e.RoomID)
	if hub == nil {
		return
	}

	name, data, err := RenderEvent(e)
	if err != nil {
		b.logger.Error("sse failed to render event",
			slog.String("room_id", string(e.RoomID)),
			slog.String("type", string(e.Type)),
			slog.Any("error", err))
		return
	}
	hub.BroadcastEvent(name, data)

	if e.Type == model.EventRoomClosed {
		b.hubManager.RemoveHub(e.RoomID)
	}
}
