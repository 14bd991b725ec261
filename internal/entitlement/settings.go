package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/repository"
	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// Settings is the decoded, strongly typed form of the settings row.
type Settings struct {
	Limits           map[plans.PlanTier]plans.Limits `json:"limits"`
	Templates        map[plans.PlanTier][]string     `json:"templates"`
	PhotoUploadPlans []plans.PlanTier                `json:"photo_upload_plans"`
	BasicPrice       float64                         `json:"basic_price"`
	ProPrice         float64                         `json:"pro_price"`
	MaintenanceMode  bool                            `json:"maintenance_mode"`
}

// DefaultSettings returns the built-in configuration. Every call returns
// fresh maps and slices, so callers may mutate the result.
func DefaultSettings() Settings {
	return Settings{
		Limits: map[plans.PlanTier]plans.Limits{
			plans.Free:  {MaxResumes: 10, MaxAIUsage: 100, MaxExports: 20, MaxImports: 0},
			plans.Basic: {MaxResumes: 50, MaxAIUsage: 500, MaxExports: 100, MaxImports: 0},
			plans.Pro: {
				MaxResumes: plans.Unlimited,
				MaxAIUsage: plans.Unlimited,
				MaxExports: plans.Unlimited,
				MaxImports: plans.Unlimited,
			},
		},
		Templates: map[plans.PlanTier][]string{
			plans.Free:  {plans.TemplateModern},
			plans.Basic: {plans.TemplateModern, plans.TemplateCreative},
			plans.Pro:   slices.Clone(plans.AllTemplates),
		},
		PhotoUploadPlans: []plans.PlanTier{plans.Basic, plans.Pro},
		BasicPrice:       9.99,
		ProPrice:         19.99,
		MaintenanceMode:  false,
	}
}

// LimitsFor returns the quotas of a tier. Unknown tiers get the FREE quotas.
func (s Settings) LimitsFor(tier plans.PlanTier) plans.Limits {
	if l, ok := s.Limits[tier.Normalize()]; ok {
		return l
	}
	return DefaultSettings().Limits[plans.Free]
}

// TemplatesFor returns the template allow-list of a tier. Unknown tiers and
// empty lists resolve to the fallback list.
func (s Settings) TemplatesFor(tier plans.PlanTier) []string {
	if !tier.Valid() {
		return slices.Clone(plans.FallbackTemplates)
	}
	list := s.Templates[tier]
	if len(list) == 0 {
		return slices.Clone(plans.FallbackTemplates)
	}
	return slices.Clone(list)
}

func (s Settings) PhotoEligible(tier plans.PlanTier) bool {
	return slices.Contains(s.PhotoUploadPlans, tier)
}

// PriceFor returns the monthly price of a tier; FREE and unknown tiers cost nothing.
func (s Settings) PriceFor(tier plans.PlanTier) float64 {
	switch tier {
	case plans.Basic:
		return s.BasicPrice
	case plans.Pro:
		return s.ProPrice
	}
	return 0
}

// SettingsUpdate is a partial write; nil fields keep their current value.
type SettingsUpdate struct {
	FreeMaxResumes  *int `json:"free_max_resumes" validate:"omitempty,min=-1"`
	FreeMaxAIUsage  *int `json:"free_max_ai_usage" validate:"omitempty,min=-1"`
	FreeMaxExports  *int `json:"free_max_exports" validate:"omitempty,min=-1"`
	FreeMaxImports  *int `json:"free_max_imports" validate:"omitempty,min=-1"`
	BasicMaxResumes *int `json:"basic_max_resumes" validate:"omitempty,min=-1"`
	BasicMaxAIUsage *int `json:"basic_max_ai_usage" validate:"omitempty,min=-1"`
	BasicMaxExports *int `json:"basic_max_exports" validate:"omitempty,min=-1"`
	BasicMaxImports *int `json:"basic_max_imports" validate:"omitempty,min=-1"`
	ProMaxResumes   *int `json:"pro_max_resumes" validate:"omitempty,min=-1"`
	ProMaxAIUsage   *int `json:"pro_max_ai_usage" validate:"omitempty,min=-1"`
	ProMaxExports   *int `json:"pro_max_exports" validate:"omitempty,min=-1"`
	ProMaxImports   *int `json:"pro_max_imports" validate:"omitempty,min=-1"`

	FreeTemplates    *[]string `json:"free_templates" validate:"omitempty,dive,template_id"`
	BasicTemplates   *[]string `json:"basic_templates" validate:"omitempty,dive,template_id"`
	ProTemplates     *[]string `json:"pro_templates" validate:"omitempty,dive,template_id"`
	PhotoUploadPlans *[]string `json:"photo_upload_plans" validate:"omitempty,dive,plan_tier"`

	BasicPrice      *float64 `json:"basic_price" validate:"omitempty,min=0"`
	ProPrice        *float64 `json:"pro_price" validate:"omitempty,min=0"`
	MaintenanceMode *bool    `json:"maintenance_mode"`
}

func (s *Settings) apply(u SettingsUpdate) {
	setLimit := func(tier plans.PlanTier, field func(*plans.Limits) *int, v *int) {
		if v == nil {
			return
		}
		l := s.Limits[tier]
		*field(&l) = *v
		s.Limits[tier] = l
	}
	resumes := func(l *plans.Limits) *int { return &l.MaxResumes }
	ai := func(l *plans.Limits) *int { return &l.MaxAIUsage }
	exports := func(l *plans.Limits) *int { return &l.MaxExports }
	imports := func(l *plans.Limits) *int { return &l.MaxImports }

	setLimit(plans.Free, resumes, u.FreeMaxResumes)
	setLimit(plans.Free, ai, u.FreeMaxAIUsage)
	setLimit(plans.Free, exports, u.FreeMaxExports)
	setLimit(plans.Free, imports, u.FreeMaxImports)
	setLimit(plans.Basic, resumes, u.BasicMaxResumes)
	setLimit(plans.Basic, ai, u.BasicMaxAIUsage)
	setLimit(plans.Basic, exports, u.BasicMaxExports)
	setLimit(plans.Basic, imports, u.BasicMaxImports)
	setLimit(plans.Pro, resumes, u.ProMaxResumes)
	setLimit(plans.Pro, ai, u.ProMaxAIUsage)
	setLimit(plans.Pro, exports, u.ProMaxExports)
	setLimit(plans.Pro, imports, u.ProMaxImports)

	if u.FreeTemplates != nil {
		s.Templates[plans.Free] = slices.Clone(*u.FreeTemplates)
	}
	if u.BasicTemplates != nil {
		s.Templates[plans.Basic] = slices.Clone(*u.BasicTemplates)
	}
	if u.ProTemplates != nil {
		s.Templates[plans.Pro] = slices.Clone(*u.ProTemplates)
	}
	if u.PhotoUploadPlans != nil {
		tiers := make([]plans.PlanTier, 0, len(*u.PhotoUploadPlans))
		for _, raw := range *u.PhotoUploadPlans {
			if tier, ok := plans.ParsePlanTier(raw); ok && !slices.Contains(tiers, tier) {
				tiers = append(tiers, tier)
			}
		}
		s.PhotoUploadPlans = tiers
	}
	if u.BasicPrice != nil {
		s.BasicPrice = *u.BasicPrice
	}
	if u.ProPrice != nil {
		s.ProPrice = *u.ProPrice
	}
	if u.MaintenanceMode != nil {
		s.MaintenanceMode = *u.MaintenanceMode
	}
}

// SettingsRepository is the persistence the store needs.
type SettingsRepository interface {
	First(ctx context.Context) (*models.SystemSettings, error)
	Save(ctx context.Context, settings *models.SystemSettings) error
}

// SettingsStore is the single entry point for reading and writing settings.
type SettingsStore struct {
	repo     SettingsRepository
	validate *validator.Validate
}

func NewSettingsStore(repo SettingsRepository) *SettingsStore {
	return &SettingsStore{
		repo:     repo,
		validate: NewValidator(),
	}
}

// NewValidator returns a validator that also knows the template_id and
// plan_tier tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("template_id", func(fl validator.FieldLevel) bool {
		return plans.KnownTemplate(fl.Field().String())
	})
	_ = v.RegisterValidation("plan_tier", func(fl validator.FieldLevel) bool {
		_, ok := plans.ParsePlanTier(fl.Field().String())
		return ok
	})
	return v
}

// Load never fails. Any problem reading the row yields the defaults, and a
// column that cannot be decoded falls back to its own default only.
func (s *SettingsStore) Load(ctx context.Context) Settings {
	row, err := s.repo.First(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Debug("settings row missing, using defaults")
		} else {
			slog.Warn("settings read failed, using defaults", "error", errors.Join(ErrSettingsUnavailable, err))
		}
		return DefaultSettings()
	}
	return decodeSettings(row)
}

// Save applies a partial update and upserts the singleton row.
func (s *SettingsStore) Save(ctx context.Context, update SettingsUpdate) (Settings, error) {
	if err := s.validate.Struct(update); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	row, err := s.repo.First(ctx)
	var current Settings
	switch {
	case errors.Is(err, repository.ErrNotFound):
		row = &models.SystemSettings{}
		current = DefaultSettings()
	case err != nil:
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	default:
		current = decodeSettings(row)
	}

	current.apply(update)
	encodeSettings(row, current)

	if err := s.repo.Save(ctx, row); err != nil {
		return Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	return current, nil
}

// EnsureRow writes the default row if none exists yet.
func (s *SettingsStore) EnsureRow(ctx context.Context) error {
	_, err := s.repo.First(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	row := &models.SystemSettings{}
	encodeSettings(row, DefaultSettings())
	return s.repo.Save(ctx, row)
}

func decodeSettings(row *models.SystemSettings) Settings {
	def := DefaultSettings()
	out := Settings{
		Limits: map[plans.PlanTier]plans.Limits{
			plans.Free: {
				MaxResumes: row.FreeMaxResumes,
				MaxAIUsage: row.FreeMaxAIUsage,
				MaxExports: row.FreeMaxExports,
				MaxImports: row.FreeMaxImports,
			},
			plans.Basic: {
				MaxResumes: row.BasicMaxResumes,
				MaxAIUsage: row.BasicMaxAIUsage,
				MaxExports: row.BasicMaxExports,
				MaxImports: row.BasicMaxImports,
			},
			plans.Pro: {
				MaxResumes: row.ProMaxResumes,
				MaxAIUsage: row.ProMaxAIUsage,
				MaxExports: row.ProMaxExports,
				MaxImports: row.ProMaxImports,
			},
		},
		Templates: map[plans.PlanTier][]string{
			plans.Free:  decodeList(row.FreeTemplates, def.Templates[plans.Free], "free_templates"),
			plans.Basic: decodeList(row.BasicTemplates, def.Templates[plans.Basic], "basic_templates"),
			plans.Pro:   decodeList(row.ProTemplates, def.Templates[plans.Pro], "pro_templates"),
		},
		BasicPrice:      row.BasicPrice,
		ProPrice:        row.ProPrice,
		MaintenanceMode: row.MaintenanceMode,
	}

	rawTiers := decodeList(row.PhotoUploadPlans, nil, "photo_upload_plans")
	if rawTiers == nil {
		out.PhotoUploadPlans = def.PhotoUploadPlans
	} else {
		out.PhotoUploadPlans = make([]plans.PlanTier, 0, len(rawTiers))
		for _, raw := range rawTiers {
			if tier, ok := plans.ParsePlanTier(raw); ok {
				out.PhotoUploadPlans = append(out.PhotoUploadPlans, tier)
			}
		}
	}
	return out
}

// decodeList returns fallback when the column is empty or malformed.
func decodeList(raw datatypes.JSON, fallback []string, column string) []string {
	if len(raw) == 0 {
		return fallback
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		slog.Warn("malformed settings column, using default", "column", column, "error", err)
		return fallback
	}
	if list == nil {
		return fallback
	}
	return list
}

func encodeSettings(row *models.SystemSettings, s Settings) {
	free, basic, pro := s.Limits[plans.Free], s.Limits[plans.Basic], s.Limits[plans.Pro]

	row.FreeMaxResumes, row.FreeMaxAIUsage = free.MaxResumes, free.MaxAIUsage
	row.FreeMaxExports, row.FreeMaxImports = free.MaxExports, free.MaxImports
	row.BasicMaxResumes, row.BasicMaxAIUsage = basic.MaxResumes, basic.MaxAIUsage
	row.BasicMaxExports, row.BasicMaxImports = basic.MaxExports, basic.MaxImports
	row.ProMaxResumes, row.ProMaxAIUsage = pro.MaxResumes, pro.MaxAIUsage
	row.ProMaxExports, row.ProMaxImports = pro.MaxExports, pro.MaxImports

	row.FreeTemplates = encodeList(s.Templates[plans.Free])
	row.BasicTemplates = encodeList(s.Templates[plans.Basic])
	row.ProTemplates = encodeList(s.Templates[plans.Pro])

	tiers := make([]string, 0, len(s.PhotoUploadPlans))
	for _, t := range s.PhotoUploadPlans {
		tiers = append(tiers, string(t))
	}
	row.PhotoUploadPlans = encodeList(tiers)

	row.BasicPrice = s.BasicPrice
	row.ProPrice = s.ProPrice
	row.MaintenanceMode = s.MaintenanceMode
}

func encodeList(list []string) datatypes.JSON {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return datatypes.JSON(b)
}
