package plans

// Known resume templates.
const (
	TemplateModern       = "modern"
	TemplateCreative     = "creative"
	TemplateProfessional = "professional"
	TemplateMinimal      = "minimal"
	TemplateExecutive    = "executive"
	TemplateAcademic     = "academic"
)

// AllTemplates is the full template catalogue, in display order.
var AllTemplates = []string{
	TemplateModern,
	TemplateCreative,
	TemplateProfessional,
	TemplateMinimal,
	TemplateExecutive,
	TemplateAcademic,
}

// FallbackTemplates is what a tier gets when its allow-list is missing or empty.
var FallbackTemplates = []string{TemplateModern}

func KnownTemplate(id string) bool {
	for _, t := range AllTemplates {
		if t == id {
			return true
		}
	}
	return false
}
