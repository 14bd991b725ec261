package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/repository"
	"github.com/google/uuid"
)

// Identity is what the auth provider tells us about a user.
type Identity struct {
	ExternalID string
	Email      string
	Name       string
}

type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	CreateWithSubscription(ctx context.Context, user *models.User, sub *models.Subscription) error
	Update(ctx context.Context, user *models.User) error
	DeleteByExternalID(ctx context.Context, externalID string) error
}

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// EnsureUser returns the local user for an identity, creating it with a FREE
// subscription on first sight. Changed profile fields are synced.
func (s *UserService) EnsureUser(ctx context.Context, id Identity) (*models.User, error) {
	id.ExternalID = strings.TrimSpace(id.ExternalID)
	if id.ExternalID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidInput)
	}

	user, err := s.users.FindByExternalID(ctx, id.ExternalID)
	switch {
	case err == nil:
		return s.syncProfile(ctx, user, id)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	user = &models.User{
		ExternalID: id.ExternalID,
		Email:      strings.ToLower(strings.TrimSpace(id.Email)),
		Name:       strings.TrimSpace(id.Name),
		Role:       models.RoleUser,
	}
	if err := s.users.CreateWithSubscription(ctx, user, models.NewFreeSubscription(uuid.Nil, time.Now())); err != nil {
		// Another request may have provisioned the same identity first.
		if existing, findErr := s.users.FindByExternalID(ctx, id.ExternalID); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	slog.Info("user provisioned", "user_id", user.ID.String(), "action", "provision_user", "plan", "FREE")
	return user, nil
}

func (s *UserService) syncProfile(ctx context.Context, user *models.User, id Identity) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	name := strings.TrimSpace(id.Name)

	changed := false
	if email != "" && email != user.Email {
		user.Email = email
		changed = true
	}
	if name != "" && name != user.Name {
		user.Name = name
		changed = true
	}
	if !changed {
		return user, nil
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// DeleteIdentity removes the local user of a deleted identity. Unknown
// identities are ignored.
func (s *UserService) DeleteIdentity(ctx context.Context, externalID string) error {
	err := s.users.DeleteByExternalID(ctx, externalID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
