package entitlement

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/repository"
	"github.com/google/uuid"
)

// Decision is computed per request and never cached.
type Decision struct {
	CanCreateResume    bool                 `json:"can_create_resume"`
	CanUseAI           bool                 `json:"can_use_ai"`
	CanExport          bool                 `json:"can_export"`
	CanImport          bool                 `json:"can_import"`
	CanUploadPhoto     bool                 `json:"can_upload_photo"`
	AvailableTemplates []string             `json:"available_templates"`
	Plan               plans.PlanTier       `json:"plan"`
	Limits             plans.Limits         `json:"limits"`
	Usage              plans.Usage          `json:"usage"`
	Subscription       *models.Subscription `json:"subscription"`
}

// Denied is the decision for a user without a subscription.
func Denied() *Decision {
	return &Decision{
		Plan:               plans.Free,
		AvailableTemplates: []string{},
	}
}

// Resolve derives a decision from settings and a subscription. It is pure.
func Resolve(settings Settings, sub *models.Subscription) *Decision {
	if sub == nil {
		return Denied()
	}

	tier := sub.Plan
	limits := settings.LimitsFor(tier)
	usage := sub.Usage()

	return &Decision{
		CanCreateResume:    plans.Allows(limits.MaxResumes, usage.Resumes),
		CanUseAI:           plans.Allows(limits.MaxAIUsage, usage.AI),
		CanExport:          plans.Allows(limits.MaxExports, usage.Exports),
		CanImport:          plans.Allows(limits.MaxImports, usage.Imports),
		CanUploadPhoto:     settings.PhotoEligible(tier),
		AvailableTemplates: settings.TemplatesFor(tier),
		Plan:               tier.Normalize(),
		Limits:             limits,
		Usage:              usage,
		Subscription:       sub,
	}
}

// Allows reports the permission that guards the given counter.
func (d *Decision) Allows(c plans.Counter) bool {
	switch c {
	case plans.CounterResumes:
		return d.CanCreateResume
	case plans.CounterAI:
		return d.CanUseAI
	case plans.CounterExports:
		return d.CanExport
	case plans.CounterImports:
		return d.CanImport
	}
	return false
}

func (d *Decision) AllowsTemplate(id string) bool {
	return slices.Contains(d.AvailableTemplates, id)
}

// Require returns a *DeniedError when the counter's quota is exhausted.
func (d *Decision) Require(c plans.Counter) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCounter, c)
	}
	if d.Allows(c) {
		return nil
	}
	return quotaDenied(d.Plan, c, d.Limits.For(c))
}

func (d *Decision) RequireTemplate(id string) error {
	if d.AllowsTemplate(id) {
		return nil
	}
	return templateDenied(d.Plan, id)
}

func (d *Decision) RequirePhotoUpload() error {
	if d.CanUploadPhoto {
		return nil
	}
	return photoDenied(d.Plan)
}

// SubscriptionFinder looks a subscription up by its owner.
type SubscriptionFinder interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

type Resolver struct {
	subs     SubscriptionFinder
	settings *SettingsStore
}

func NewResolver(subs SubscriptionFinder, settings *SettingsStore) *Resolver {
	return &Resolver{subs: subs, settings: settings}
}

// Resolve fails with ErrSubscriptionNotFound when the user has no subscription.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (*Decision, error) {
	sub, err := r.subs.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrSubscriptionNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return Resolve(r.settings.Load(ctx), sub), nil
}

// ResolveOrDeny is Resolve for read-only views: a missing subscription yields
// an all-false decision instead of an error.
func (r *Resolver) ResolveOrDeny(ctx context.Context, userID uuid.UUID) (*Decision, error) {
	d, err := r.Resolve(ctx, userID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return Denied(), nil
	}
	return d, err
}

// Settings exposes the current settings to callers that already hold a resolver.
func (r *Resolver) Settings(ctx context.Context) Settings {
	return r.settings.Load(ctx)
}
