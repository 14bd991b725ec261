package entitlement

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrForbidden            = errors.New("forbidden")
	// ErrSettingsUnavailable is only ever logged; readers fall back to defaults.
	ErrSettingsUnavailable = errors.New("settings unavailable")
	ErrInvalidCounter      = errors.New("invalid usage counter")
	ErrInvalidSettings     = errors.New("invalid settings")
)

// DeniedError is returned when a permission check fails. It matches
// ErrForbidden through errors.Is and carries a message fit for the user.
type DeniedError struct {
	Plan     plans.PlanTier
	Counter  plans.Counter
	Template string
	Feature  string
	Message  string
}

func (e *DeniedError) Error() string {
	return e.Message
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrForbidden
}

func quotaDenied(plan plans.PlanTier, counter plans.Counter, limit int) *DeniedError {
	var what string
	switch counter {
	case plans.CounterResumes:
		what = "resumes"
	case plans.CounterAI:
		what = "AI requests"
	case plans.CounterExports:
		what = "PDF exports"
	case plans.CounterImports:
		what = "resume imports"
	default:
		what = string(counter)
	}

	msg := fmt.Sprintf("You have used all %d %s included in the %s plan. Upgrade your plan to continue.", limit, what, plan)
	if limit == 0 {
		msg = fmt.Sprintf("%s are not available on the %s plan. Upgrade your plan to unlock them.", capitalize(what), plan)
	}
	return &DeniedError{Plan: plan, Counter: counter, Message: msg}
}

func templateDenied(plan plans.PlanTier, template string) *DeniedError {
	return &DeniedError{
		Plan:     plan,
		Template: template,
		Message:  fmt.Sprintf("The %q template is not included in the %s plan. Upgrade your plan to use it.", template, plan),
	}
}

func photoDenied(plan plans.PlanTier) *DeniedError {
	return &DeniedError{
		Plan:    plan,
		Feature: "photo_upload",
		Message: fmt.Sprintf("Photo upload is not available on the %s plan. Upgrade your plan to add a photo.", plan),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
