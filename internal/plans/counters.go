package plans

// Counter names a metered usage counter. The value is the database column.
type Counter string

const (
	CounterResumes Counter = "resume_count"
	CounterAI      Counter = "ai_usage_count"
	CounterExports Counter = "export_count"
	CounterImports Counter = "import_count"
)

var AllCounters = []Counter{CounterResumes, CounterAI, CounterExports, CounterImports}

func (c Counter) Valid() bool {
	switch c {
	case CounterResumes, CounterAI, CounterExports, CounterImports:
		return true
	}
	return false
}

// Usage holds a snapshot of the four counters.
type Usage struct {
	Resumes int `json:"resume_count"`
	AI      int `json:"ai_usage_count"`
	Exports int `json:"export_count"`
	Imports int `json:"import_count"`
}

func (u Usage) For(c Counter) int {
	switch c {
	case CounterResumes:
		return u.Resumes
	case CounterAI:
		return u.AI
	case CounterExports:
		return u.Exports
	case CounterImports:
		return u.Imports
	}
	return 0
}
