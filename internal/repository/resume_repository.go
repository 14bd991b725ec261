package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResumeRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Resume, error)
	// FindByID only returns resumes owned by userID.
	FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Resume, error)
	Create(ctx context.Context, resume *models.Resume) error
	Update(ctx context.Context, resume *models.Resume) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type resumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) ResumeRepository {
	return &resumeRepository{db: db}
}

func (r *resumeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Resume, error) {
	var resumes []models.Resume
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&resumes).Error
	return resumes, err
}

func (r *resumeRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Resume, error) {
	var resume models.Resume
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&resume).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &resume, nil
}

func (r *resumeRepository) Create(ctx context.Context, resume *models.Resume) error {
	return r.db.WithContext(ctx).Create(resume).Error
}

func (r *resumeRepository) Update(ctx context.Context, resume *models.Resume) error {
	return r.db.WithContext(ctx).Save(resume).Error
}

func (r *resumeRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Resume{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
