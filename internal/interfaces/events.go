package interfaces

import (
	"context"

	"github.com/akylbek/safari-buddy/internal/events"
)

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}
