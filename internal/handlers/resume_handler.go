package handlers

import (
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const maxPhotoSize = 5 << 20

type ResumeHandler struct {
	resumes  *services.ResumeService
	validate *validator.Validate
}

func NewResumeHandler(resumes *services.ResumeService, validate *validator.Validate) *ResumeHandler {
	return &ResumeHandler{resumes: resumes, validate: validate}
}

func (h *ResumeHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	resumes, err := h.resumes.List(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"resumes": resumes})
}

func (h *ResumeHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid resume id")
	}
	resume, err := h.resumes.Get(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resume)
}

func (h *ResumeHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.ResumeRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return badRequest(c, err.Error())
	}

	resume, err := h.resumes.Create(c.UserContext(), userID, services.ResumeInput{
		Title: req.Title, Template: req.Template, Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resume)
}

func (h *ResumeHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid resume id")
	}
	var req dto.ResumeRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return badRequest(c, err.Error())
	}

	resume, err := h.resumes.Update(c.UserContext(), userID, id, services.ResumeInput{
		Title: req.Title, Template: req.Template, Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resume)
}

func (h *ResumeHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid resume id")
	}
	if err := h.resumes.Delete(c.UserContext(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ResumeHandler) Preview(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid resume id")
	}
	preview, err := h.resumes.Preview(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(preview)
}

func (h *ResumeHandler) Export(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid resume id")
	}
	pdf, resume, err := h.resumes.Export(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.pdf"`, fileName(resume.Title)))
	return c.Send(pdf)
}

func (h *ResumeHandler) Import(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.ImportRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return badRequest(c, err.Error())
	}
	resume, err := h.resumes.Import(c.UserContext(), userID, services.ImportInput{Title: req.Title, Text: req.Text})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resume)
}

func (h *ResumeHandler) UploadPhoto(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid resume id")
	}

	header, err := c.FormFile("photo")
	if err != nil {
		return badRequest(c, "photo file is required")
	}
	if header.Size > maxPhotoSize {
		return badRequest(c, "photo must be at most 5 MB")
	}
	if ct := header.Header.Get(fiber.HeaderContentType); !strings.HasPrefix(ct, "image/") {
		return badRequest(c, "photo must be an image")
	}

	file, err := header.Open()
	if err != nil {
		return badRequest(c, "could not read photo")
	}
	defer file.Close()

	resume, err := h.resumes.UploadPhoto(c.UserContext(), userID, id, file)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resume)
}

func (h *ResumeHandler) DeletePhoto(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid resume id")
	}
	resume, err := h.resumes.DeletePhoto(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resume)
}

func fileName(title string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, strings.TrimSpace(title))
	if clean == "" {
		return "resume"
	}
	return clean
}
