package server

import (
	"time"

	"surveyline/internal/domain"
	"surveyline/internal/question"
	"surveyline/internal/survey"
)

type QuestionTypeResponse struct {
	Type         domain.QuestionType `json:"type"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Category     string              `json:"category"`
	Icon         string              `json:"icon"`
	PlanRequired string              `json:"plan_required,omitempty"`
	Available    bool                `json:"available"`
}

type QuestionTypeDetail struct {
	QuestionTypeResponse
	DefaultSettings domain.Settings `json:"default_settings"`
}

type ValidateQuestionResponse struct {
	IsValid    bool              `json:"is_valid"`
	Errors     map[string]string `json:"errors"`
	Completion int               `json:"completion"`
	Preview    string            `json:"preview"`
}

type CreateSurveyRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	TemplateID  string `json:"template_id,omitempty"`
}

// ImportSurveyRequest is an exported survey document. Importing always
// creates a new draft.
type ImportSurveyRequest struct {
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Settings    *domain.SurveySettings `json:"settings,omitempty"`
	Questions   []domain.Question      `json:"questions"`
}

func (r ImportSurveyRequest) survey() domain.Survey {
	s := domain.Survey{
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.StatusDraft,
		Questions:   r.Questions,
		Settings:    domain.DefaultSurveySettings(),
	}
	if r.Settings != nil {
		s.Settings = *r.Settings
	}
	return s.Clone()
}

type AddQuestionRequest struct {
	Type        string         `json:"type,omitempty" example:"multiple_choice"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Options     []string       `json:"options,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	LibraryID   string         `json:"library_id,omitempty" doc:"Insert a copy of this library question instead"`
}

func (r AddQuestionRequest) partial() question.Partial {
	return question.Partial{
		Type:        r.Type,
		Title:       r.Title,
		Description: r.Description,
		Required:    r.Required,
		Options:     r.Options,
		Settings:    r.Settings,
	}
}

// MutationResponse reports whether an edit changed the document, plus the
// resulting session state.
type MutationResponse struct {
	Changed  bool             `json:"changed"`
	Question *domain.Question `json:"question,omitempty"`
	State    survey.State     `json:"state"`
}

type ReorderRequest struct {
	From int `json:"from" minimum:"0"`
	To   int `json:"to" minimum:"0"`
}

type SelectionRequest struct {
	IDs []string `json:"ids"`
}

type ToggleRequest struct {
	ID string `json:"id"`
}

type SelectionResponse struct {
	Selected []string `json:"selected"`
	Pending  string   `json:"pending_bulk_action,omitempty"`
}

type BulkRequest struct {
	Action string `json:"action" enum:"delete,duplicate,require,optional,hide,show,move_up,move_down"`
}

type BulkResponse struct {
	Result survey.BulkResult `json:"result"`
	State  survey.State      `json:"state"`
}

type AutosaveStatus struct {
	Enabled         bool   `json:"enabled"`
	IntervalSeconds int    `json:"interval_seconds"`
	Dirty           bool   `json:"dirty"`
	LastSavedAt     string `json:"last_saved_at,omitempty"`
}

type TemplateRequest struct {
	TemplateID string `json:"template_id"`
}

type LibraryMeta struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsPublic    bool     `json:"is_public,omitempty"`
}

type SaveLibraryRequest struct {
	LibraryMeta
	Question question.Partial `json:"question"`
}

type CreateAPIKeyRequest struct {
	Name string `json:"name,omitempty"`
}

type CreateAPIKeyResponse struct {
	Key    string        `json:"key" doc:"Shown once; only its hash is stored"`
	APIKey domain.APIKey `json:"api_key"`
}

type paginatedEvents struct {
	Items      []domain.Event `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type DevLoginRequest struct {
	OwnerID string `json:"owner_id"`
	Plan    string `json:"plan,omitempty" enum:"free,pro,enterprise"`
	Role    string `json:"role,omitempty"`
}

type DevLoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func typeResponse(t question.Type, available bool) QuestionTypeResponse {
	return QuestionTypeResponse{
		Type:         t.Key,
		Name:         t.Name,
		Description:  t.Description,
		Category:     t.Category,
		Icon:         t.Icon,
		PlanRequired: string(t.PlanRequired),
		Available:    available,
	}
}

// partialToData resolves a caller-supplied question onto its type's
// defaults without filling in a placeholder title.
func partialToData(reg *question.Registry, p question.Partial) (domain.QuestionData, error) {
	t, hint := question.NormalizeWithHint(p.Type)
	overrides := map[string]any{}
	for k, v := range p.Settings {
		overrides[k] = v
	}
	if len(p.Options) > 0 {
		overrides["options"] = p.Options
	}
	if _, ok := overrides["scaleType"]; hint != "" && !ok {
		overrides["scaleType"] = hint
	}
	settings, err := domain.MergeSettings(t, reg.DefaultSettingsFor(t), overrides)
	if err != nil {
		return domain.QuestionData{}, domain.ValidationError{Message: "invalid settings", Fields: map[string]string{"settings": err.Error()}}
	}
	return domain.QuestionData{
		Type:        t,
		Title:       p.Title,
		Description: p.Description,
		Required:    p.Required,
		Settings:    settings,
	}, nil
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
