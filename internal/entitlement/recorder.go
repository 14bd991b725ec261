package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/repository"
	"github.com/google/uuid"
)

type CounterIncrementer interface {
	IncrementCounter(ctx context.Context, subscriptionID uuid.UUID, counter plans.Counter) error
}

// Recorder increments usage counters. Each call adds exactly one; callers
// invoke it once per successful metered action.
type Recorder struct {
	subs CounterIncrementer
}

func NewRecorder(subs CounterIncrementer) *Recorder {
	return &Recorder{subs: subs}
}

func (r *Recorder) Record(ctx context.Context, subscriptionID uuid.UUID, counter plans.Counter) error {
	if !counter.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCounter, counter)
	}
	if err := r.subs.IncrementCounter(ctx, subscriptionID, counter); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: subscription %s", ErrSubscriptionNotFound, subscriptionID)
		}
		return fmt.Errorf("failed to record %s: %w", counter, err)
	}
	return nil
}
