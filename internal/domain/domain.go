package domain

type SurveyStatus string

const (
	StatusDraft     SurveyStatus = "draft"
	StatusPublished SurveyStatus = "published"
)

// SurveySettings are the survey-wide options shown in the builder settings tab.
type SurveySettings struct {
	AllowAnonymous     bool   `json:"allow_anonymous"`
	CollectEmail       bool   `json:"collect_email"`
	ShowProgress       bool   `json:"show_progress"`
	RandomizeQuestions bool   `json:"randomize_questions"`
	RequireAll         bool   `json:"require_all"`
	Theme              string `json:"theme,omitempty"`
	BrandColor         string `json:"brand_color,omitempty"`
}

// DefaultSurveySettings returns the settings a new survey starts with.
func DefaultSurveySettings() SurveySettings {
	return SurveySettings{
		AllowAnonymous: true,
		ShowProgress:   true,
		Theme:          "modern",
		BrandColor:     "#3B82F6",
	}
}

type Survey struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      SurveyStatus   `json:"status" enum:"draft,published"`
	Questions   []Question     `json:"questions"`
	Settings    SurveySettings `json:"settings"`
	CreatedAt   string         `json:"created_at,omitempty" format:"date-time"`
	UpdatedAt   string         `json:"updated_at,omitempty" format:"date-time"`
	PublishedAt string         `json:"published_at,omitempty"`
}

// Clone returns a deep copy; questions and their settings are not shared.
func (s Survey) Clone() Survey {
	out := s
	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		out.Questions[i] = q.Clone()
	}
	return out
}

// SurveySummary is the list view of a stored survey.
type SurveySummary struct {
	ID            string       `json:"id"`
	OwnerID       string       `json:"owner_id"`
	Title         string       `json:"title"`
	Status        SurveyStatus `json:"status"`
	QuestionCount int          `json:"question_count"`
	UpdatedAt     string       `json:"updated_at" format:"date-time"`
}

type SurveyFilter struct {
	Status SurveyStatus
	Search string
}

// LibraryQuestion is a question saved independently of any survey.
type LibraryQuestion struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category"`
	Tags        []string     `json:"tags"`
	IsPublic    bool         `json:"is_public"`
	Question    QuestionData `json:"question_data"`
	UsageCount  int          `json:"usage_count"`
	CreatedAt   string       `json:"created_at" format:"date-time"`
	UpdatedAt   string       `json:"updated_at" format:"date-time"`
}

type LibraryFilter struct {
	Category string
	Search   string
}

type APIKey struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Name       string `json:"name,omitempty"`
	Prefix     string `json:"prefix"`
	KeyHash    string `json:"-"`
	UsageCount int    `json:"usage_count"`
	LastUsedAt string `json:"last_used_at,omitempty"`
	CreatedAt  string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	SurveyID   string `json:"survey_id,omitempty"`
	OwnerID    string `json:"owner_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// ValidationResult is derived from a question on demand and never stored.
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  map[string]string `json:"errors"`
}

type SurveyValidation struct {
	IsValid        bool                         `json:"is_valid"`
	Errors         map[string]string            `json:"errors"`
	QuestionErrors map[string]map[string]string `json:"question_errors,omitempty"`
}
