package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	UpdatePlan(ctx context.Context, subscriptionID uuid.UUID, plan plans.PlanTier, start time.Time, end *time.Time) error
	IncrementCounter(ctx context.Context, subscriptionID uuid.UUID, counter plans.Counter) error
	ResetCounters(ctx context.Context, userID uuid.UUID) error
	FindExpired(ctx context.Context, now time.Time) ([]models.Subscription, error)
	FindExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error)
	Downgrade(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (bool, error)
	CountByPlan(ctx context.Context) (map[plans.PlanTier]int64, error)
	List(ctx context.Context, limit, offset int) ([]models.Subscription, int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&sub).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

// UpdatePlan rewrites the plan columns only. Counters are left to
// IncrementCounter and ResetCounters.
func (r *subscriptionRepository) UpdatePlan(ctx context.Context, subscriptionID uuid.UUID, plan plans.PlanTier, start time.Time, end *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Updates(map[string]interface{}{
			"plan":       plan,
			"status":     models.StatusActive,
			"start_date": start,
			"end_date":   end,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementCounter adds one to the named counter in a single UPDATE, so
// concurrent increments never lose a write.
func (r *subscriptionRepository) IncrementCounter(ctx context.Context, subscriptionID uuid.UUID, counter plans.Counter) error {
	if !counter.Valid() {
		return fmt.Errorf("unknown counter %q", counter)
	}
	column := string(counter)
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *subscriptionRepository) ResetCounters(ctx context.Context, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"resume_count":   0,
			"ai_usage_count": 0,
			"export_count":   0,
			"import_count":   0,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *subscriptionRepository) FindExpired(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status = ? AND plan IN ? AND end_date IS NOT NULL AND end_date <= ?",
			models.StatusActive, []plans.PlanTier{plans.Basic, plans.Pro}, now).
		Order("end_date ASC").
		Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status = ? AND plan IN ? AND end_date > ? AND end_date <= ?",
			models.StatusActive, []plans.PlanTier{plans.Basic, plans.Pro}, from, to).
		Order("end_date ASC").
		Find(&subs).Error
	return subs, err
}

// Downgrade moves a subscription to FREE without touching its counters. The
// row is only changed while it is still expired at now; false means it was
// renewed or changed since it was read.
func (r *subscriptionRepository) Downgrade(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND status = ? AND plan IN ? AND end_date IS NOT NULL AND end_date <= ?",
			subscriptionID, models.StatusActive, []plans.PlanTier{plans.Basic, plans.Pro}, now).
		Updates(map[string]interface{}{
			"plan":     plans.Free,
			"status":   models.StatusActive,
			"end_date": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *subscriptionRepository) CountByPlan(ctx context.Context) (map[plans.PlanTier]int64, error) {
	var rows []struct {
		Plan  plans.PlanTier
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Select("plan, COUNT(*) AS total").
		Group("plan").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[plans.PlanTier]int64, len(plans.AllTiers))
	for _, tier := range plans.AllTiers {
		counts[tier] = 0
	}
	for _, row := range rows {
		counts[row.Plan.Normalize()] += row.Total
	}
	return counts, nil
}

func (r *subscriptionRepository) List(ctx context.Context, limit, offset int) ([]models.Subscription, int64, error) {
	var subs []models.Subscription
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Subscription{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&subs).Error
	return subs, total, err
}
