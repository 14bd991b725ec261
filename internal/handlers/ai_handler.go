package handlers

import (
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AIHandler struct {
	ai       *services.AIService
	resumes  *services.ResumeService
	validate *validator.Validate
}

func NewAIHandler(ai *services.AIService, resumes *services.ResumeService, validate *validator.Validate) *AIHandler {
	return &AIHandler{ai: ai, resumes: resumes, validate: validate}
}

func (h *AIHandler) Enhance(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.EnhanceRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return badRequest(c, err.Error())
	}
	text, err := h.ai.Enhance(c.UserContext(), userID, services.EnhanceInput{Text: req.Text, Section: req.Section})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TextResponse{Text: text})
}

func (h *AIHandler) Summary(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.SummaryRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return badRequest(c, err.Error())
	}
	resume, err := h.resumes.Get(c.UserContext(), userID, uuid.MustParse(req.ResumeID))
	if err != nil {
		return respondError(c, err)
	}

	text, err := h.ai.Summary(c.UserContext(), userID, services.SummaryInput{
		Content: resume.Content.Data(), TargetRole: req.TargetRole,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TextResponse{Text: text})
}

func (h *AIHandler) ATS(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.ATSRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return badRequest(c, err.Error())
	}
	resume, err := h.resumes.Get(c.UserContext(), userID, uuid.MustParse(req.ResumeID))
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.ai.ATS(c.UserContext(), userID, services.ATSInput{
		Content: resume.Content.Data(), JobDescription: req.JobDescription,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
