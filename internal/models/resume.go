package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Resume struct {
	ID            uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID                         `gorm:"type:uuid;not null;index" json:"user_id"`
	Title         string                            `gorm:"size:255;not null" json:"title"`
	Template      string                            `gorm:"size:50;not null;default:'modern'" json:"template"`
	Content       datatypes.JSONType[ResumeContent] `json:"content"`
	PhotoURL      string                            `gorm:"type:text" json:"photo_url"`
	PhotoPublicID string                            `gorm:"size:255" json:"-"`
	CreatedAt     time.Time                         `json:"created_at"`
	UpdatedAt     time.Time                         `json:"updated_at"`
	DeletedAt     gorm.DeletedAt                    `gorm:"index" json:"-"`
}

func (r *Resume) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ResumeContent is the structured body of a resume.
type ResumeContent struct {
	PersonalInfo PersonalInfo `json:"personal_info"`
	Summary      string       `json:"summary"`
	Experience   []Experience `json:"experience"`
	Education    []Education  `json:"education"`
	Skills       []string     `json:"skills"`
}

type PersonalInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Website  string `json:"website"`
	LinkedIn string `json:"linkedin"`
}

type Experience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}
