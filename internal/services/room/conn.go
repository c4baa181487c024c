package room

import (
	"context"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/match"
)

// Conn is a participant's transport handle. Send must not block.
type Conn interface {
	ID() string
	Send(n model.Notification)
}

// Observer receives public room events. Publish must not block.
type Observer interface {
	Publish(e model.Event)
}

// Settler applies a resolved round's side effects (scoring, linking)
type Settler interface {
	Settle(ctx context.Context, round match.Round)
}

type nopObserver struct{}

func (nopObserver) Publish(model.Event) {}
