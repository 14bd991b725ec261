package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	// CreateWithSubscription inserts the user together with its subscription.
	CreateWithSubscription(ctx context.Context, user *models.User, sub *models.Subscription) error
	Update(ctx context.Context, user *models.User) error
	DeleteByExternalID(ctx context.Context, externalID string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Subscription").First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Subscription").
		Where("external_id = ?", externalID).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userRepository) CreateWithSubscription(ctx context.Context, user *models.User, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Subscription").Create(user).Error; err != nil {
			return err
		}
		sub.UserID = user.ID
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		user.Subscription = sub
		return nil
	})
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Subscription").Save(user).Error
}

func (r *userRepository) DeleteByExternalID(ctx context.Context, externalID string) error {
	result := r.db.WithContext(ctx).Where("external_id = ?", externalID).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
