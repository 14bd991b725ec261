package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/entitlement"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/google/uuid"
)

const maxAIInput = 8000

// AIService runs the AI writing features. Every call counts against the
// caller's AI quota.
type AIService struct {
	llm   Completer
	meter *entitlement.Meter
}

func NewAIService(llm Completer, meter *entitlement.Meter) *AIService {
	return &AIService{llm: llm, meter: meter}
}

type EnhanceInput struct {
	Text    string
	Section string
}

type SummaryInput struct {
	Content    models.ResumeContent
	TargetRole string
}

type ATSInput struct {
	Content        models.ResumeContent
	JobDescription string
}

type ATSResult struct {
	Score           int      `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Suggestions     []string `json:"suggestions"`
}

const enhancePrompt = `You are an expert resume writer.
Rewrite the given resume text so it is concise, specific and achievement oriented.
Use strong action verbs and keep every fact from the original. Do not invent numbers.
Return only the rewritten text, without commentary or markdown.`

const summaryPrompt = `You are an expert resume writer.
Write a professional summary of 2 to 4 sentences for the resume described in JSON.
Return only the summary text, without commentary or markdown.`

const atsPrompt = `You are an applicant tracking system analyst.
Compare the resume (JSON) with the job description and score how well it matches from 0 to 100.
Return ONLY valid JSON:
{"score": 0, "matched_keywords": [], "missing_keywords": [], "suggestions": []}`

const parsePrompt = `You extract structured data from resumes.
Convert the pasted resume text into JSON with exactly this shape:
{"personal_info": {"full_name": "", "email": "", "phone": "", "location": "", "website": "", "linkedin": ""},
 "summary": "",
 "experience": [{"company": "", "position": "", "start_date": "", "end_date": "", "description": ""}],
 "education": [{"institution": "", "degree": "", "field": "", "start_date": "", "end_date": ""}],
 "skills": []}
Use empty strings for unknown values. Return ONLY valid JSON.`

func (s *AIService) Enhance(ctx context.Context, userID uuid.UUID, in EnhanceInput) (string, error) {
	text := strings.TrimSpace(in.Text)
	if err := checkAIInput(text); err != nil {
		return "", err
	}

	return entitlement.Metered(ctx, s.meter, userID, plans.CounterAI,
		func(ctx context.Context, _ *entitlement.Decision) (string, error) {
			prompt := text
			if in.Section != "" {
				prompt = fmt.Sprintf("Section: %s\n\n%s", in.Section, text)
			}
			return s.llm.Complete(ctx, enhancePrompt, prompt)
		})
}

func (s *AIService) Summary(ctx context.Context, userID uuid.UUID, in SummaryInput) (string, error) {
	body, err := json.Marshal(in.Content)
	if err != nil {
		return "", err
	}

	return entitlement.Metered(ctx, s.meter, userID, plans.CounterAI,
		func(ctx context.Context, _ *entitlement.Decision) (string, error) {
			prompt := string(body)
			if in.TargetRole != "" {
				prompt = fmt.Sprintf("Target role: %s\n\nResume:\n%s", in.TargetRole, prompt)
			}
			return s.llm.Complete(ctx, summaryPrompt, prompt)
		})
}

func (s *AIService) ATS(ctx context.Context, userID uuid.UUID, in ATSInput) (*ATSResult, error) {
	jd := strings.TrimSpace(in.JobDescription)
	if err := checkAIInput(jd); err != nil {
		return nil, err
	}
	body, err := json.Marshal(in.Content)
	if err != nil {
		return nil, err
	}

	return entitlement.Metered(ctx, s.meter, userID, plans.CounterAI,
		func(ctx context.Context, _ *entitlement.Decision) (*ATSResult, error) {
			raw, err := s.llm.Complete(ctx, atsPrompt,
				fmt.Sprintf("Resume:\n%s\n\nJob description:\n%s", body, jd))
			if err != nil {
				return nil, err
			}
			var result ATSResult
			if err := json.Unmarshal([]byte(raw), &result); err != nil {
				return nil, fmt.Errorf("%w: failed to parse ATS analysis: %v", ErrAIUnavailable, err)
			}
			result.Score = min(max(result.Score, 0), 100)
			return &result, nil
		})
}

// ParseResume turns free text into structured content. It is not metered on
// its own; the import flow meters it.
func (s *AIService) ParseResume(ctx context.Context, text string) (models.ResumeContent, error) {
	var content models.ResumeContent
	raw, err := s.llm.Complete(ctx, parsePrompt, text)
	if err != nil {
		return content, err
	}
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return content, fmt.Errorf("%w: failed to parse resume: %v", ErrAIUnavailable, err)
	}
	return content, nil
}

func checkAIInput(text string) error {
	if text == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if len(text) > maxAIInput {
		return fmt.Errorf("%w: text too long (max %d characters)", ErrInvalidInput, maxAIInput)
	}
	return nil
}
