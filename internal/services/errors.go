package services

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidPlan   = errors.New("invalid plan")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAIUnavailable = errors.New("AI service unavailable")
	ErrRenderFailed  = errors.New("PDF rendering failed")
	ErrPhotoStorage  = errors.New("photo storage failed")
)
