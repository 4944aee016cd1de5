// Package router provides rule-based intent classification for the support assistant.
// The catalog of intents is data (intents.yaml); this package scores user input against it.
package router

// IntentClassifier defines the intent detection interface.
// Consumers: chatbot orchestrator, diagnostics CLI.
type IntentClassifier interface {
	// DetectIntent classifies input against the registry.
	// previousIntent is the last intent of the session ("" when none).
	// Returns nil when no intent clears the confidence floor.
	DetectIntent(input, previousIntent string) *MatchResult
}

// Category is one of the fixed portal topics an intent belongs to.
type Category string

const (
	CategoryGeneral      Category = "general"
	CategoryAccount      Category = "account"
	CategoryProfile      Category = "profile"
	CategoryEmployment   Category = "employment"
	CategorySurvey       Category = "survey"
	CategoryJobs         Category = "jobs"
	CategoryEvents       Category = "events"
	CategoryNotification Category = "notifications"
	CategoryResume       Category = "resume"
	CategoryAlumni       Category = "alumni"
	CategorySupport      Category = "support"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryGeneral,
	CategoryAccount,
	CategoryProfile,
	CategoryEmployment,
	CategorySurvey,
	CategoryJobs,
	CategoryEvents,
	CategoryNotification,
	CategoryResume,
	CategoryAlumni,
	CategorySupport,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Intent is a named user goal defined by keywords and canonical phrases.
type Intent struct {
	Name             string   `yaml:"name" json:"name"`
	Category         Category `yaml:"category" json:"category"`
	Keywords         []string `yaml:"keywords" json:"keywords"`
	RequiredKeywords []string `yaml:"required_keywords,omitempty" json:"required_keywords,omitempty"`
	Patterns         []string `yaml:"patterns" json:"patterns"`
	FollowUpOf       []string `yaml:"follow_up_of,omitempty" json:"follow_up_of,omitempty"`
}

// IsFollowUpOf reports whether previous is one of the intent's declared follow-up sources.
func (i *Intent) IsFollowUpOf(previous string) bool {
	if previous == "" {
		return false
	}
	for _, name := range i.FollowUpOf {
		if name == previous {
			return true
		}
	}
	return false
}

// Entities holds the structured values extracted from an utterance.
// Empty fields are unset.
type Entities struct {
	JobType          string `json:"job_type,omitempty"`
	Location         string `json:"location,omitempty"`
	EmploymentStatus string `json:"employment_status,omitempty"`
}

// IsEmpty reports whether no entity was extracted.
func (e Entities) IsEmpty() bool {
	return e.JobType == "" && e.Location == "" && e.EmploymentStatus == ""
}

// Merge returns e overlaid with the non-empty fields of other.
func (e Entities) Merge(other Entities) Entities {
	if other.JobType != "" {
		e.JobType = other.JobType
	}
	if other.Location != "" {
		e.Location = other.Location
	}
	if other.EmploymentStatus != "" {
		e.EmploymentStatus = other.EmploymentStatus
	}
	return e
}

// MatchResult is the outcome of a successful intent detection.
type MatchResult struct {
	Intent          *Intent  `json:"intent"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"matched_keywords"`
	Entities        Entities `json:"entities"`
}

// Ensure RuleMatcher implements IntentClassifier
var _ IntentClassifier = (*RuleMatcher)(nil)
