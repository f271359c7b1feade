package services

import (
	"context"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"

	"go.uber.org/zap"
)

// Clock returns the current time. A nil Clock means time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// deliveryTimeout bounds how long a request waits on the broker or queue.
const deliveryTimeout = 2 * time.Second

// publish delivers e on a best effort basis. Failures are logged and never
// fail the caller.
func publish(ctx context.Context, p ports.EventPublisher, e domain.Event) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()
	if err := p.Publish(ctx, e); err != nil {
		zap.L().Warn("publish event failed",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("type", e.Type),
			zap.String("key", e.Key),
			zap.Error(err),
		)
	}
}

// notify hands n to the notifier on a best effort basis.
func notify(ctx context.Context, nf ports.Notifier, n domain.Notification) {
	if nf == nil || n.To == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()
	if err := nf.Notify(ctx, n); err != nil {
		zap.L().Warn("notification failed",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("kind", n.Kind),
			zap.Error(err),
		)
	}
}

// reference checks that an optional foreign key points at an existing row.
// A missing row becomes a validation error on field.
func reference(v *domain.ValidationError, field string, id *string, get func(string) error) error {
	if id == nil {
		return nil
	}
	err := get(*id)
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		v.Add(field, "does not exist")
		return nil
	}
	return err
}
