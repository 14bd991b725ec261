package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"gorm.io/gorm"
)

type LogRepository interface {
	CreateBatch(ctx context.Context, logs []models.SystemLog) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type logRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) CreateBatch(ctx context.Context, logs []models.SystemLog) error {
	return r.db.WithContext(ctx).CreateInBatches(logs, 50).Error
}

func (r *logRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
