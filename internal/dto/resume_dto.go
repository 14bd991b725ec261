package dto

import "github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"

type ResumeRequest struct {
	Title    string                `json:"title" validate:"max=255"`
	Template string                `json:"template" validate:"omitempty,template_id"`
	Content  *models.ResumeContent `json:"content"`
}

type ImportRequest struct {
	Title string `json:"title" validate:"max=255"`
	Text  string `json:"text" validate:"required,max=8000"`
}

type EnhanceRequest struct {
	Text    string `json:"text" validate:"required,max=8000"`
	Section string `json:"section" validate:"omitempty,oneof=summary experience education skills"`
}

type SummaryRequest struct {
	ResumeID   string `json:"resume_id" validate:"required,uuid"`
	TargetRole string `json:"target_role" validate:"max=200"`
}

type ATSRequest struct {
	ResumeID       string `json:"resume_id" validate:"required,uuid"`
	JobDescription string `json:"job_description" validate:"required,max=8000"`
}

type TextResponse struct {
	Text string `json:"text"`
}
