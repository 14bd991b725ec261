package dto

import (
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
)

// PlanInfo is the public description of one tier.
type PlanInfo struct {
	Tier           plans.PlanTier `json:"tier"`
	Price          float64        `json:"price"`
	Limits         plans.Limits   `json:"limits"`
	Templates      []string       `json:"templates"`
	CanUploadPhoto bool           `json:"can_upload_photo"`
}

type SetPlanRequest struct {
	Plan         string `json:"plan" validate:"required,plan_tier"`
	DurationDays int    `json:"duration_days" validate:"min=0,max=3650"`
}
