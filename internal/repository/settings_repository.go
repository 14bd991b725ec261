package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"gorm.io/gorm"
)

type SettingsRepository interface {
	// First returns the singleton row: the first one found by primary key.
	First(ctx context.Context) (*models.SystemSettings, error)
	// Save creates the row when it has no ID yet, otherwise overwrites it.
	Save(ctx context.Context, settings *models.SystemSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) First(ctx context.Context) (*models.SystemSettings, error) {
	var row models.SystemSettings
	if err := r.db.WithContext(ctx).Order("id ASC").First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *models.SystemSettings) error {
	if settings.ID == 0 {
		return r.db.WithContext(ctx).Create(settings).Error
	}
	return r.db.WithContext(ctx).Save(settings).Error
}
