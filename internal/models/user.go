package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User mirrors an identity held by the external auth provider. External IDs
// are unique among live rows only, so a deleted identity can sign up again.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID   string         `gorm:"size:255;not null;uniqueIndex:idx_users_external_id_live,where:deleted_at IS NULL" json:"external_id"`
	Email        string         `gorm:"size:255;index" json:"email"`
	Name         string         `gorm:"size:255" json:"name"`
	Role         string         `gorm:"size:20;default:'user'" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Subscription *Subscription  `gorm:"foreignKey:UserID" json:"subscription,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
