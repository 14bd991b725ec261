package entitlement

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

// Meter runs metered actions: resolve, check, act, record.
type Meter struct {
	resolver *Resolver
	recorder *Recorder
}

func NewMeter(resolver *Resolver, recorder *Recorder) *Meter {
	return &Meter{resolver: resolver, recorder: recorder}
}

func (m *Meter) Resolver() *Resolver { return m.resolver }

// Metered resolves the caller's entitlements, rejects when the counter's
// quota is exhausted, runs fn and, only if fn succeeded, records one use.
//
// fn receives the decision so it can apply extra checks (templates) before
// doing any work. A failed increment is logged and reported but does not
// fail the call: the action already happened.
func Metered[T any](ctx context.Context, m *Meter, userID uuid.UUID, counter plans.Counter,
	fn func(ctx context.Context, d *Decision) (T, error)) (T, error) {
	var zero T

	d, err := m.resolver.Resolve(ctx, userID)
	if err != nil {
		return zero, err
	}
	if err := d.Require(counter); err != nil {
		return zero, err
	}

	result, err := fn(ctx, d)
	if err != nil {
		return zero, err
	}

	if err := m.recorder.Record(ctx, d.Subscription.ID, counter); err != nil {
		slog.ErrorContext(ctx, "usage accounting missed",
			"user_id", userID.String(),
			"action", "record_usage",
			"counter", string(counter),
			"error", err,
		)
		sentry.CaptureException(err)
	}
	return result, nil
}
