package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/entitlement"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const defaultResumeTitle = "Untitled resume"

type ResumeStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Resume, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Resume, error)
	Create(ctx context.Context, resume *models.Resume) error
	Update(ctx context.Context, resume *models.Resume) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// ResumeParser extracts structured content from pasted resume text.
type ResumeParser interface {
	ParseResume(ctx context.Context, text string) (models.ResumeContent, error)
}

type ResumeService struct {
	resumes  ResumeStore
	meter    *entitlement.Meter
	parser   ResumeParser
	renderer Renderer
	photos   PhotoStorage
}

func NewResumeService(resumes ResumeStore, meter *entitlement.Meter, parser ResumeParser, renderer Renderer, photos PhotoStorage) *ResumeService {
	return &ResumeService{
		resumes:  resumes,
		meter:    meter,
		parser:   parser,
		renderer: renderer,
		photos:   photos,
	}
}

type ResumeInput struct {
	Title    string
	Template string
	Content  *models.ResumeContent
}

// Preview is a resume as shown in the editor. Watermark is set when the
// resume uses a template the user's plan does not include.
type Preview struct {
	Resume             *models.Resume `json:"resume"`
	Watermark          bool           `json:"watermark"`
	AvailableTemplates []string       `json:"available_templates"`
}

func (s *ResumeService) List(ctx context.Context, userID uuid.UUID) ([]models.Resume, error) {
	resumes, err := s.resumes.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return resumes, nil
}

func (s *ResumeService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Resume, error) {
	resume, err := s.resumes.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: resume %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load resume: %w", err)
	}
	return resume, nil
}

func (s *ResumeService) Create(ctx context.Context, userID uuid.UUID, in ResumeInput) (*models.Resume, error) {
	template := strings.TrimSpace(in.Template)
	if template == "" {
		template = plans.TemplateModern
	}
	if !plans.KnownTemplate(template) {
		return nil, fmt.Errorf("%w: unknown template %q", ErrInvalidInput, template)
	}

	return entitlement.Metered(ctx, s.meter, userID, plans.CounterResumes,
		func(ctx context.Context, d *entitlement.Decision) (*models.Resume, error) {
			if err := d.RequireTemplate(template); err != nil {
				return nil, err
			}
			resume := &models.Resume{
				UserID:   userID,
				Title:    titleOrDefault(in.Title),
				Template: template,
			}
			if in.Content != nil {
				resume.Content = datatypes.NewJSONType(*in.Content)
			}
			if err := s.resumes.Create(ctx, resume); err != nil {
				return nil, fmt.Errorf("failed to create resume: %w", err)
			}
			return resume, nil
		})
}

// Update edits a resume. Switching to a template outside the plan is refused;
// keeping the current template is always allowed.
func (s *ResumeService) Update(ctx context.Context, userID, id uuid.UUID, in ResumeInput) (*models.Resume, error) {
	resume, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	template := strings.TrimSpace(in.Template)
	if template != "" && template != resume.Template {
		if !plans.KnownTemplate(template) {
			return nil, fmt.Errorf("%w: unknown template %q", ErrInvalidInput, template)
		}
		d, err := s.meter.Resolver().Resolve(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := d.RequireTemplate(template); err != nil {
			return nil, err
		}
		resume.Template = template
	}
	if strings.TrimSpace(in.Title) != "" {
		resume.Title = strings.TrimSpace(in.Title)
	}
	if in.Content != nil {
		resume.Content = datatypes.NewJSONType(*in.Content)
	}

	if err := s.resumes.Update(ctx, resume); err != nil {
		return nil, fmt.Errorf("failed to update resume: %w", err)
	}
	return resume, nil
}

func (s *ResumeService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	resume, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.resumes.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: resume %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	if resume.PhotoPublicID != "" && s.photos != nil {
		if err := s.photos.Delete(ctx, resume.PhotoPublicID); err != nil {
			slog.Warn("orphaned resume photo", "user_id", userID.String(), "public_id", resume.PhotoPublicID, "error", err)
		}
	}
	return nil
}

// Preview never rejects on the template; it flags the watermark instead.
func (s *ResumeService) Preview(ctx context.Context, userID, id uuid.UUID) (*Preview, error) {
	resume, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	d, err := s.meter.Resolver().ResolveOrDeny(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Resume:             resume,
		Watermark:          !d.AllowsTemplate(resume.Template),
		AvailableTemplates: d.AvailableTemplates,
	}, nil
}

// Export renders the resume to PDF and counts one export on success.
func (s *ResumeService) Export(ctx context.Context, userID, id uuid.UUID) ([]byte, *models.Resume, error) {
	var resume *models.Resume
	pdf, err := entitlement.Metered(ctx, s.meter, userID, plans.CounterExports,
		func(ctx context.Context, d *entitlement.Decision) ([]byte, error) {
			r, err := s.Get(ctx, userID, id)
			if err != nil {
				return nil, err
			}
			if err := d.RequireTemplate(r.Template); err != nil {
				return nil, err
			}
			resume = r
			return s.renderer.Render(ctx, r, false)
		})
	if err != nil {
		return nil, nil, err
	}
	return pdf, resume, nil
}

type ImportInput struct {
	Title string
	Text  string
}

// Import parses pasted resume text with the AI parser and stores the result
// as a new resume. It counts one import.
func (s *ResumeService) Import(ctx context.Context, userID uuid.UUID, in ImportInput) (*models.Resume, error) {
	text := strings.TrimSpace(in.Text)
	if err := checkAIInput(text); err != nil {
		return nil, err
	}

	return entitlement.Metered(ctx, s.meter, userID, plans.CounterImports,
		func(ctx context.Context, d *entitlement.Decision) (*models.Resume, error) {
			content, err := s.parser.ParseResume(ctx, text)
			if err != nil {
				return nil, err
			}

			title := in.Title
			if strings.TrimSpace(title) == "" && content.PersonalInfo.FullName != "" {
				title = content.PersonalInfo.FullName
			}
			template := plans.TemplateModern
			if !d.AllowsTemplate(template) && len(d.AvailableTemplates) > 0 {
				template = d.AvailableTemplates[0]
			}

			resume := &models.Resume{
				UserID:   userID,
				Title:    titleOrDefault(title),
				Template: template,
				Content:  datatypes.NewJSONType(content),
			}
			if err := s.resumes.Create(ctx, resume); err != nil {
				return nil, fmt.Errorf("failed to create resume: %w", err)
			}
			return resume, nil
		})
}

// UploadPhoto stores a profile photo for the resume. Photos are gated by
// plan but not metered.
func (s *ResumeService) UploadPhoto(ctx context.Context, userID, id uuid.UUID, file io.Reader) (*models.Resume, error) {
	d, err := s.meter.Resolver().Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := d.RequirePhotoUpload(); err != nil {
		return nil, err
	}

	resume, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if s.photos == nil {
		return nil, fmt.Errorf("%w: storage not configured", ErrPhotoStorage)
	}

	stored, err := s.photos.Upload(ctx, file, "resume-"+resume.ID.String())
	if err != nil {
		return nil, err
	}
	previous := resume.PhotoPublicID
	resume.PhotoURL = stored.URL
	resume.PhotoPublicID = stored.PublicID
	if err := s.resumes.Update(ctx, resume); err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	if previous != "" && previous != stored.PublicID {
		if err := s.photos.Delete(ctx, previous); err != nil {
			slog.Warn("orphaned resume photo", "user_id", userID.String(), "public_id", previous, "error", err)
		}
	}
	return resume, nil
}

func (s *ResumeService) DeletePhoto(ctx context.Context, userID, id uuid.UUID) (*models.Resume, error) {
	resume, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if resume.PhotoPublicID == "" {
		return resume, nil
	}
	if s.photos != nil {
		if err := s.photos.Delete(ctx, resume.PhotoPublicID); err != nil {
			return nil, err
		}
	}
	resume.PhotoURL = ""
	resume.PhotoPublicID = ""
	if err := s.resumes.Update(ctx, resume); err != nil {
		return nil, fmt.Errorf("failed to remove photo: %w", err)
	}
	return resume, nil
}

func titleOrDefault(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return defaultResumeTitle
	}
	return title
}
