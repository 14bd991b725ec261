package entitlement_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/entitlement"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
)

func TestResolve_UnlimitedIgnoresUsage(t *testing.T) {
	t.Parallel()

	settings := entitlement.DefaultSettings()
	settings.Limits[plans.Free] = plans.Limits{
		MaxResumes: plans.Unlimited,
		MaxAIUsage: plans.Unlimited,
		MaxExports: plans.Unlimited,
		MaxImports: plans.Unlimited,
	}

	for _, tier := range plans.AllTiers {
		if tier == plans.Basic {
			continue
		}
		for _, used := range []int{0, 1, 1_000_000} {
			t.Run(fmt.Sprintf("%s/%d", tier, used), func(t *testing.T) {
				sub := newSubscription(tier, plans.Usage{Resumes: used, AI: used, Exports: used, Imports: used})
				d := entitlement.Resolve(settings, sub)

				assert.True(t, d.CanCreateResume)
				assert.True(t, d.CanUseAI)
				assert.True(t, d.CanExport)
				assert.True(t, d.CanImport)
			})
		}
	}
}

func TestResolve_Boundary(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 10, 250} {
		t.Run(fmt.Sprintf("limit %d", n), func(t *testing.T) {
			settings := entitlement.DefaultSettings()
			settings.Limits[plans.Basic] = plans.Limits{MaxResumes: n, MaxAIUsage: n, MaxExports: n, MaxImports: n}

			below := entitlement.Resolve(settings, newSubscription(plans.Basic, plans.Usage{Resumes: n - 1, AI: n - 1, Exports: n - 1, Imports: n - 1}))
			for _, c := range plans.AllCounters {
				assert.True(t, below.Allows(c), c)
			}

			at := entitlement.Resolve(settings, newSubscription(plans.Basic, plans.Usage{Resumes: n, AI: n, Exports: n, Imports: n}))
			for _, c := range plans.AllCounters {
				assert.False(t, at.Allows(c), c)
			}
		})
	}

	t.Run("zero limit denies", func(t *testing.T) {
		d := entitlement.Resolve(entitlement.DefaultSettings(), newSubscription(plans.Free, plans.Usage{}))
		assert.False(t, d.CanImport)
		assert.True(t, d.CanCreateResume)

		err := d.Require(plans.CounterImports)
		require.ErrorIs(t, err, entitlement.ErrForbidden)
		assert.Contains(t, err.Error(), "Upgrade")
	})
}

func TestResolve_Templates(t *testing.T) {
	t.Parallel()

	settings := entitlement.DefaultSettings()

	free := entitlement.Resolve(settings, newSubscription(plans.Free, plans.Usage{}))
	assert.True(t, free.AllowsTemplate("modern"))
	assert.False(t, free.AllowsTemplate("creative"))
	require.ErrorIs(t, free.RequireTemplate("creative"), entitlement.ErrForbidden)

	basic := entitlement.Resolve(settings, newSubscription(plans.Basic, plans.Usage{}))
	assert.NoError(t, basic.RequireTemplate("creative"))
	assert.False(t, basic.AllowsTemplate("executive"))

	pro := entitlement.Resolve(settings, newSubscription(plans.Pro, plans.Usage{}))
	for _, id := range plans.AllTemplates {
		assert.True(t, pro.AllowsTemplate(id), id)
	}

	t.Run("empty list falls back", func(t *testing.T) {
		s := entitlement.DefaultSettings()
		s.Templates[plans.Basic] = []string{}
		d := entitlement.Resolve(s, newSubscription(plans.Basic, plans.Usage{}))
		assert.Equal(t, []string{"modern"}, d.AvailableTemplates)
	})
}

func TestResolve_PhotoUpload(t *testing.T) {
	t.Parallel()

	settings := entitlement.DefaultSettings()

	assert.False(t, entitlement.Resolve(settings, newSubscription(plans.Free, plans.Usage{})).CanUploadPhoto)
	assert.True(t, entitlement.Resolve(settings, newSubscription(plans.Basic, plans.Usage{})).CanUploadPhoto)
	assert.True(t, entitlement.Resolve(settings, newSubscription(plans.Pro, plans.Usage{})).CanUploadPhoto)

	err := entitlement.Resolve(settings, newSubscription(plans.Free, plans.Usage{})).RequirePhotoUpload()
	var denied *entitlement.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "photo_upload", denied.Feature)
}

func TestResolve_UnknownTierIsFree(t *testing.T) {
	t.Parallel()

	d := entitlement.Resolve(entitlement.DefaultSettings(), newSubscription(plans.PlanTier("ENTERPRISE"), plans.Usage{Resumes: 3}))

	assert.Equal(t, plans.Free, d.Plan)
	assert.Equal(t, 10, d.Limits.MaxResumes)
	assert.True(t, d.CanCreateResume)
	assert.False(t, d.CanUploadPhoto)
	assert.Equal(t, []string{"modern"}, d.AvailableTemplates)
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("missing subscription", func(t *testing.T) {
		t.Parallel()
		r := entitlement.NewResolver(newMemSubscriptions(), entitlement.NewSettingsStore(&memSettingsRepo{}))

		_, err := r.Resolve(context.Background(), uuid.New())
		require.ErrorIs(t, err, entitlement.ErrSubscriptionNotFound)

		d, err := r.ResolveOrDeny(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.False(t, d.CanCreateResume)
		assert.False(t, d.CanUseAI)
		assert.False(t, d.CanExport)
		assert.False(t, d.CanImport)
		assert.False(t, d.CanUploadPhoto)
		assert.Empty(t, d.AvailableTemplates)
	})

	t.Run("settings failure fails open", func(t *testing.T) {
		t.Parallel()
		repo := &mockSettingsRepo{}
		repo.On("First", mock.Anything).Return(nil, errors.New("connection reset"))
		sub := newSubscription(plans.Free, plans.Usage{AI: 99})
		r := entitlement.NewResolver(newMemSubscriptions(sub), entitlement.NewSettingsStore(repo))

		d, err := r.Resolve(context.Background(), sub.UserID)
		require.NoError(t, err)
		assert.True(t, d.CanUseAI)
		assert.Equal(t, 100, d.Limits.MaxAIUsage)
		assert.Equal(t, []string{"modern"}, d.AvailableTemplates)
	})

	t.Run("uses stored settings", func(t *testing.T) {
		t.Parallel()
		store := entitlement.NewSettingsStore(&memSettingsRepo{})
		_, err := store.Save(context.Background(), entitlement.SettingsUpdate{FreeMaxExports: intPtr(2)})
		require.NoError(t, err)

		sub := newSubscription(plans.Free, plans.Usage{Exports: 2})
		d, err := entitlement.NewResolver(newMemSubscriptions(sub), store).Resolve(context.Background(), sub.UserID)
		require.NoError(t, err)
		assert.False(t, d.CanExport)
		assert.Equal(t, sub.ID, d.Subscription.ID)
	})
}

func TestDecision_RequireInvalidCounter(t *testing.T) {
	t.Parallel()

	d := entitlement.Resolve(entitlement.DefaultSettings(), newSubscription(plans.Pro, plans.Usage{}))
	err := d.Require(plans.Counter("download_count"))
	require.ErrorIs(t, err, entitlement.ErrInvalidCounter)
	assert.NotErrorIs(t, err, entitlement.ErrForbidden)
}
