package models

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusActive    = "ACTIVE"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
)

// Subscription is the per-user plan record carrying the usage counters.
// EndDate nil means the plan does not expire.
type Subscription struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Plan         plans.PlanTier `gorm:"size:20;not null;default:'FREE';index" json:"plan"`
	Status       string         `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      *time.Time     `gorm:"index" json:"end_date"`
	ResumeCount  int            `gorm:"column:resume_count;not null;default:0" json:"resume_count"`
	AIUsageCount int            `gorm:"column:ai_usage_count;not null;default:0" json:"ai_usage_count"`
	ExportCount  int            `gorm:"column:export_count;not null;default:0" json:"export_count"`
	ImportCount  int            `gorm:"column:import_count;not null;default:0" json:"import_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	User         User           `gorm:"foreignKey:UserID" json:"-"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// NewFreeSubscription is the record every user gets at provisioning time.
func NewFreeSubscription(userID uuid.UUID, now time.Time) *Subscription {
	return &Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		Plan:      plans.Free,
		Status:    StatusActive,
		StartDate: now,
	}
}

func (s *Subscription) Usage() plans.Usage {
	return plans.Usage{
		Resumes: s.ResumeCount,
		AI:      s.AIUsageCount,
		Exports: s.ExportCount,
		Imports: s.ImportCount,
	}
}

// Expired reports whether a paid, active plan has passed its end date.
func (s *Subscription) Expired(now time.Time) bool {
	return s.Status == StatusActive && s.Plan.Paid() && s.EndDate != nil && !s.EndDate.After(now)
}
