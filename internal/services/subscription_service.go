package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/repository"
	"github.com/google/uuid"
)

const (
	// ExpiringWindow is how far ahead ListExpiring looks.
	ExpiringWindow      = 3 * 24 * time.Hour
	DefaultPlanDuration = 30
)

// SubscriptionStore is the persistence the lifecycle operations need.
type SubscriptionStore interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	UpdatePlan(ctx context.Context, subscriptionID uuid.UUID, plan plans.PlanTier, start time.Time, end *time.Time) error
	ResetCounters(ctx context.Context, userID uuid.UUID) error
	FindExpired(ctx context.Context, now time.Time) ([]models.Subscription, error)
	FindExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error)
	Downgrade(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (bool, error)
	CountByPlan(ctx context.Context) (map[plans.PlanTier]int64, error)
	List(ctx context.Context, limit, offset int) ([]models.Subscription, int64, error)
}

type SubscriptionService struct {
	subs SubscriptionStore
	now  func() time.Time
}

func NewSubscriptionService(subs SubscriptionStore) *SubscriptionService {
	return &SubscriptionService{subs: subs, now: time.Now}
}

// DowngradeResult describes one subscription touched by a lifecycle run.
type DowngradeResult struct {
	SubscriptionID uuid.UUID      `json:"subscription_id"`
	UserID         uuid.UUID      `json:"user_id"`
	Email          string         `json:"email"`
	PreviousPlan   plans.PlanTier `json:"previous_plan"`
	EndDate        *time.Time     `json:"end_date"`
	Error          string         `json:"error,omitempty"`
}

type LifecycleReport struct {
	Processed int               `json:"processed"`
	Succeeded []DowngradeResult `json:"succeeded"`
	Failed    []DowngradeResult `json:"failed"`
	// Skipped holds subscriptions renewed between the query and the update.
	Skipped []DowngradeResult `json:"skipped"`
	RanAt   time.Time         `json:"ran_at"`
}

// DowngradeExpired moves every active paid subscription past its end date
// back to FREE. Usage counters are left alone. A failure on one subscription
// is recorded in the report and does not stop the others.
func (s *SubscriptionService) DowngradeExpired(ctx context.Context) (*LifecycleReport, error) {
	now := s.now()
	expired, err := s.subs.FindExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired subscriptions: %w", err)
	}

	report := &LifecycleReport{
		Processed: len(expired),
		Succeeded: []DowngradeResult{},
		Failed:    []DowngradeResult{},
		Skipped:   []DowngradeResult{},
		RanAt:     now,
	}

	for i := range expired {
		sub := &expired[i]
		res := DowngradeResult{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			Email:          sub.User.Email,
			PreviousPlan:   sub.Plan,
			EndDate:        sub.EndDate,
		}

		changed, err := s.subs.Downgrade(ctx, sub.ID, now)
		if err != nil {
			res.Error = err.Error()
			report.Failed = append(report.Failed, res)
			slog.Error("subscription downgrade failed",
				"user_id", sub.UserID.String(),
				"action", "downgrade_expired",
				"plan", string(sub.Plan),
				"error", err,
			)
			continue
		}
		if !changed {
			report.Skipped = append(report.Skipped, res)
			slog.Info("subscription no longer expired, downgrade skipped",
				"user_id", sub.UserID.String(),
				"action", "downgrade_expired",
			)
			continue
		}
		report.Succeeded = append(report.Succeeded, res)
	}

	if report.Processed > 0 {
		slog.Info("expired subscriptions downgraded",
			"processed", report.Processed,
			"succeeded", len(report.Succeeded),
			"failed", len(report.Failed),
			"skipped", len(report.Skipped),
		)
	}
	return report, nil
}

type ExpiringSubscription struct {
	SubscriptionID uuid.UUID      `json:"subscription_id"`
	UserID         uuid.UUID      `json:"user_id"`
	Email          string         `json:"email"`
	Plan           plans.PlanTier `json:"plan"`
	EndDate        time.Time      `json:"end_date"`
	DaysLeft       int            `json:"days_left"`
}

type ExpiringReport struct {
	Expired      []ExpiringSubscription `json:"expired"`
	ExpiringSoon []ExpiringSubscription `json:"expiring_soon"`
	GeneratedAt  time.Time              `json:"generated_at"`
}

// ListExpiring is the read-only view of the lifecycle: subscriptions already
// due for downgrade and those whose end date falls within ExpiringWindow.
func (s *SubscriptionService) ListExpiring(ctx context.Context) (*ExpiringReport, error) {
	now := s.now()

	expired, err := s.subs.FindExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired subscriptions: %w", err)
	}
	soon, err := s.subs.FindExpiringBetween(ctx, now, now.Add(ExpiringWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring subscriptions: %w", err)
	}

	return &ExpiringReport{
		Expired:      toExpiring(expired, now),
		ExpiringSoon: toExpiring(soon, now),
		GeneratedAt:  now,
	}, nil
}

func toExpiring(subs []models.Subscription, now time.Time) []ExpiringSubscription {
	out := make([]ExpiringSubscription, 0, len(subs))
	for _, sub := range subs {
		if sub.EndDate == nil {
			continue
		}
		days := int(sub.EndDate.Sub(now).Hours() / 24)
		if days < 0 {
			days = 0
		}
		out = append(out, ExpiringSubscription{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			Email:          sub.User.Email,
			Plan:           sub.Plan,
			EndDate:        *sub.EndDate,
			DaysLeft:       days,
		})
	}
	return out
}

// SetUserPlan overrides a user's plan. Paid tiers run for durationDays from
// now (DefaultPlanDuration when zero or negative); FREE never expires.
func (s *SubscriptionService) SetUserPlan(ctx context.Context, userID uuid.UUID, tier plans.PlanTier, durationDays int) (*models.Subscription, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlan, tier)
	}

	sub, err := s.subs.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: subscription for user %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	now := s.now()
	previous := sub.Plan
	start, end := sub.StartDate, (*time.Time)(nil)
	if tier.Paid() {
		if durationDays <= 0 {
			durationDays = DefaultPlanDuration
		}
		expires := now.AddDate(0, 0, durationDays)
		start, end = now, &expires
	}

	if err := s.subs.UpdatePlan(ctx, sub.ID, tier, start, end); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: subscription for user %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	sub.Plan, sub.Status, sub.StartDate, sub.EndDate = tier, models.StatusActive, start, end

	slog.Info("plan changed",
		"user_id", userID.String(),
		"action", "set_plan",
		"plan", string(tier),
		"previous_plan", string(previous),
	)
	return sub, nil
}

func (s *SubscriptionService) ResetUsage(ctx context.Context, userID uuid.UUID) error {
	if err := s.subs.ResetCounters(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: subscription for user %s", ErrNotFound, userID)
		}
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	slog.Info("usage counters reset", "user_id", userID.String(), "action", "reset_usage")
	return nil
}

type PlanStats struct {
	ByPlan map[plans.PlanTier]int64 `json:"by_plan"`
	Total  int64                    `json:"total"`
}

func (s *SubscriptionService) PlanStats(ctx context.Context) (*PlanStats, error) {
	counts, err := s.subs.CountByPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	stats := &PlanStats{ByPlan: counts}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type SubscriptionPage struct {
	Items  []models.Subscription `json:"items"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// ListSubscriptions pages through all subscriptions, newest first.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, limit, offset int) (*SubscriptionPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset = max(offset, 0)

	items, total, err := s.subs.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if items == nil {
		items = []models.Subscription{}
	}
	return &SubscriptionPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// StartLifecycle runs DowngradeExpired every interval until done is closed.
// A non-positive interval disables the loop.
func (s *SubscriptionService) StartLifecycle(interval time.Duration, done chan struct{}) {
	if interval <= 0 {
		slog.Info("subscription lifecycle ticker disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				if _, err := s.DowngradeExpired(ctx); err != nil {
					slog.Error("subscription lifecycle run failed", "action", "downgrade_expired", "error", err)
				}
				cancel()
			case <-done:
				return
			}
		}
	}()
}
