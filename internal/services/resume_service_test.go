package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/entitlement"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
)

type resumeFixture struct {
	subs     *memSubscriptions
	resumes  *memResumes
	llm      *mockCompleter
	renderer *stubRenderer
	photos   *stubPhotos
	svc      *services.ResumeService
}

func newResumeFixture() *resumeFixture {
	f := &resumeFixture{
		subs:     newMemSubscriptions(),
		resumes:  newMemResumes(),
		llm:      &mockCompleter{},
		renderer: &stubRenderer{},
		photos:   &stubPhotos{},
	}
	meter := newTestMeter(f.subs)
	ai := services.NewAIService(f.llm, meter)
	f.svc = services.NewResumeService(f.resumes, meter, ai, f.renderer, f.photos)
	return f
}

func TestResumeService_Create(t *testing.T) {
	t.Parallel()

	t.Run("counts the resume", func(t *testing.T) {
		t.Parallel()
		f := newResumeFixture()
		sub := f.subs.add(plans.Free, nil, plans.Usage{Resumes: 9})

		resume, err := f.svc.Create(context.Background(), sub.UserID, services.ResumeInput{Title: "  "})
		require.NoError(t, err)

		assert.Equal(t, "Untitled resume", resume.Title)
		assert.Equal(t, "modern", resume.Template)
		assert.Equal(t, 10, f.subs.get(sub.ID).ResumeCount)

		_, err = f.svc.Create(context.Background(), sub.UserID, services.ResumeInput{Title: "Another"})
		require.ErrorIs(t, err, entitlement.ErrForbidden)
		assert.Equal(t, 1, f.resumes.count())
	})

	t.Run("template outside the plan", func(t *testing.T) {
		t.Parallel()
		f := newResumeFixture()
		sub := f.subs.add(plans.Free, nil, plans.Usage{})

		_, err := f.svc.Create(context.Background(), sub.UserID, services.ResumeInput{Template: "executive"})
		require.ErrorIs(t, err, entitlement.ErrForbidden)
		assert.Zero(t, f.resumes.count())
		assert.Zero(t, f.subs.get(sub.ID).ResumeCount)
	})

	t.Run("unknown template", func(t *testing.T) {
		t.Parallel()
		f := newResumeFixture()
		sub := f.subs.add(plans.Pro, nil, plans.Usage{})

		_, err := f.svc.Create(context.Background(), sub.UserID, services.ResumeInput{Template: "neon"})
		require.ErrorIs(t, err, services.ErrInvalidInput)
	})

	t.Run("no subscription", func(t *testing.T) {
		t.Parallel()
		f := newResumeFixture()
		_, err := f.svc.Create(context.Background(), uuid.New(), services.ResumeInput{})
		require.ErrorIs(t, err, entitlement.ErrSubscriptionNotFound)
	})
}

func TestResumeService_UpdateAndPreview(t *testing.T) {
	t.Parallel()

	f := newResumeFixture()
	sub := f.subs.add(plans.Basic, nil, plans.Usage{})
	resume, err := f.svc.Create(context.Background(), sub.UserID, services.ResumeInput{Template: "creative"})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), sub.UserID, resume.ID, services.ResumeInput{Template: "executive"})
	require.ErrorIs(t, err, entitlement.ErrForbidden)

	updated, err := f.svc.Update(context.Background(), sub.UserID, resume.ID, services.ResumeInput{
		Title:   "Platform Engineer",
		Content: &models.ResumeContent{Summary: "Go"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineer", updated.Title)
	assert.Equal(t, "Go", updated.Content.Data().Summary)

	preview, err := f.svc.Preview(context.Background(), sub.UserID, resume.ID)
	require.NoError(t, err)
	assert.False(t, preview.Watermark)

	// The user drops to FREE; creative is no longer included.
	_, err = services.NewSubscriptionService(f.subs).SetUserPlan(context.Background(), sub.UserID, plans.Free, 0)
	require.NoError(t, err)

	preview, err = f.svc.Preview(context.Background(), sub.UserID, resume.ID)
	require.NoError(t, err)
	assert.True(t, preview.Watermark)
	assert.Equal(t, []string{"modern"}, preview.AvailableTemplates)

	_, err = f.svc.Preview(context.Background(), uuid.New(), resume.ID)
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestResumeService_Export(t *testing.T) {
	t.Parallel()

	t.Run("renders and counts", func(t *testing.T) {
		t.Parallel()
		f := newResumeFixture()
		sub := f.subs.add(plans.Free, nil, plans.Usage{Exports: 19})
		resume, err := f.svc.Create(context.Background(), sub.UserID, services.ResumeInput{Title: "CV"})
		require.NoError(t, err)

		pdf, got, err := f.svc.Export(context.Background(), sub.UserID, resume.ID)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
		assert.Equal(t, resume.ID, got.ID)
		assert.Equal(t, 20, f.subs.get(sub.ID).ExportCount)

		_, _, err = f.svc.Export(context.Background(), sub.UserID, resume.ID)
		require.ErrorIs(t, err, entitlement.ErrForbidden)
		assert.Equal(t, 1, f.renderer.calls)
	})

	t.Run("renderer failure is not counted", func(t *testing.T) {
		t.Parallel()
		f := newResumeFixture()
		f.renderer.err = services.ErrRenderFailed
		sub := f.subs.add(plans.Pro, nil, plans.Usage{})
		resume, err := f.svc.Create(context.Background(), sub.UserID, services.ResumeInput{})
		require.NoError(t, err)

		_, _, err = f.svc.Export(context.Background(), sub.UserID, resume.ID)
		require.ErrorIs(t, err, services.ErrRenderFailed)
		assert.Zero(t, f.subs.get(sub.ID).ExportCount)
	})

	t.Run("missing resume is not counted", func(t *testing.T) {
		t.Parallel()
		f := newResumeFixture()
		sub := f.subs.add(plans.Pro, nil, plans.Usage{})

		_, _, err := f.svc.Export(context.Background(), sub.UserID, uuid.New())
		require.ErrorIs(t, err, services.ErrNotFound)
		assert.Zero(t, f.subs.get(sub.ID).ExportCount)
	})
}

func TestResumeService_Import(t *testing.T) {
	t.Parallel()

	t.Run("free plan cannot import", func(t *testing.T) {
		t.Parallel()
		f := newResumeFixture()
		sub := f.subs.add(plans.Free, nil, plans.Usage{})

		_, err := f.svc.Import(context.Background(), sub.UserID, services.ImportInput{Text: "Ada Lovelace, engineer"})
		require.ErrorIs(t, err, entitlement.ErrForbidden)
		f.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("pro plan imports", func(t *testing.T) {
		t.Parallel()
		f := newResumeFixture()
		sub := f.subs.add(plans.Pro, nil, plans.Usage{})
		f.llm.On("Complete", mock.Anything, mock.Anything, "Ada Lovelace, engineer").
			Return(`{"personal_info": {"full_name": "Ada Lovelace"}, "skills": ["math"]}`, nil)

		resume, err := f.svc.Import(context.Background(), sub.UserID, services.ImportInput{Text: "Ada Lovelace, engineer"})
		require.NoError(t, err)

		assert.Equal(t, "Ada Lovelace", resume.Title)
		assert.Equal(t, []string{"math"}, resume.Content.Data().Skills)
		got := f.subs.get(sub.ID)
		assert.Equal(t, 1, got.ImportCount)
		assert.Zero(t, got.AIUsageCount)
	})
}

func TestResumeService_Photo(t *testing.T) {
	t.Parallel()

	t.Run("free plan is refused", func(t *testing.T) {
		t.Parallel()
		f := newResumeFixture()
		sub := f.subs.add(plans.Free, nil, plans.Usage{})
		resume, err := f.svc.Create(context.Background(), sub.UserID, services.ResumeInput{})
		require.NoError(t, err)

		_, err = f.svc.UploadPhoto(context.Background(), sub.UserID, resume.ID, strings.NewReader("jpeg"))
		var denied *entitlement.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, "photo_upload", denied.Feature)
		assert.Empty(t, f.photos.uploaded)
	})

	t.Run("upload replace and delete", func(t *testing.T) {
		t.Parallel()
		f := newResumeFixture()
		sub := f.subs.add(plans.Basic, nil, plans.Usage{})
		resume, err := f.svc.Create(context.Background(), sub.UserID, services.ResumeInput{})
		require.NoError(t, err)

		updated, err := f.svc.UploadPhoto(context.Background(), sub.UserID, resume.ID, strings.NewReader("jpeg"))
		require.NoError(t, err)
		assert.Contains(t, updated.PhotoURL, "res.cloudinary.com")
		assert.Equal(t, "resumes/resume-"+resume.ID.String(), updated.PhotoPublicID)

		cleared, err := f.svc.DeletePhoto(context.Background(), sub.UserID, resume.ID)
		require.NoError(t, err)
		assert.Empty(t, cleared.PhotoURL)
		assert.Equal(t, []string{"resumes/resume-" + resume.ID.String()}, f.photos.deleted)

		usage := f.subs.get(sub.ID).Usage()
		assert.Equal(t, plans.Usage{Resumes: 1}, usage)
	})
}

func TestResumeService_Delete(t *testing.T) {
	t.Parallel()

	f := newResumeFixture()
	sub := f.subs.add(plans.Pro, nil, plans.Usage{})
	resume, err := f.svc.Create(context.Background(), sub.UserID, services.ResumeInput{})
	require.NoError(t, err)
	_, err = f.svc.UploadPhoto(context.Background(), sub.UserID, resume.ID, strings.NewReader("png"))
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.Delete(context.Background(), uuid.New(), resume.ID), services.ErrNotFound)
	require.NoError(t, f.svc.Delete(context.Background(), sub.UserID, resume.ID))
	assert.Zero(t, f.resumes.count())
	assert.Len(t, f.photos.deleted, 1)
	assert.Equal(t, 1, f.subs.get(sub.ID).ResumeCount)
}
