package ports

import (
	"context"

	"cargo-logistics-service/internal/domain"
)

// Port: outbound domain event stream.
type EventPublisher interface {
	Publish(ctx context.Context, e domain.Event) error
	Close() error
}

// Port: delivery of messages to people (email, SMS workers).
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
	Close() error
}

// Port: live push of tracking updates to subscribers of a tracking number.
type TrackingBroadcaster interface {
	Broadcast(trackingNumber string, u domain.TrackingUpdate)
}
