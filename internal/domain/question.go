package domain

import (
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	TypeText           QuestionType = "text"
	TypeTextarea       QuestionType = "textarea"
	TypeEmail          QuestionType = "email"
	TypePhone          QuestionType = "phone"
	TypeNumber         QuestionType = "number"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeCheckbox       QuestionType = "checkbox"
	TypeDropdown       QuestionType = "dropdown"
	TypeRating         QuestionType = "rating"
	TypeEmojiScale     QuestionType = "emoji_scale"
	TypeScale          QuestionType = "scale"
	TypeNPS            QuestionType = "nps"
	TypeSlider         QuestionType = "slider"
	TypeMatrix         QuestionType = "matrix"
	TypeRanking        QuestionType = "ranking"
	TypeYesNo          QuestionType = "yes_no"
	TypeDate           QuestionType = "date"
	TypeTime           QuestionType = "time"
	TypeDateTime       QuestionType = "datetime"
	TypeFile           QuestionType = "file"
)

// Question is one prompt unit within a survey. Settings is a variant whose
// concrete type is selected by Type.
type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Hidden      bool         `json:"hidden"`
	Settings    Settings     `json:"settings"`
}

// Clone copies the question including its settings.
func (q Question) Clone() Question {
	out := q
	if q.Settings != nil {
		out.Settings = q.Settings.Clone()
	}
	return out
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string          `json:"id"`
		Type        QuestionType    `json:"type"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Required    bool            `json:"required"`
		Hidden      bool            `json:"hidden"`
		Settings    json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	settings, err := DecodeSettings(raw.Type, raw.Settings)
	if err != nil {
		return fmt.Errorf("question %s: %w", raw.ID, err)
	}
	*q = Question{
		ID:          raw.ID,
		Type:        raw.Type,
		Title:       raw.Title,
		Description: raw.Description,
		Required:    raw.Required,
		Hidden:      raw.Hidden,
		Settings:    settings,
	}
	return nil
}

// QuestionData is the persisted question blob of a library record.
type QuestionData struct {
	Type        QuestionType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Settings    Settings     `json:"settings"`
}

func (d *QuestionData) UnmarshalJSON(data []byte) error {
	var q Question
	if err := q.UnmarshalJSON(data); err != nil {
		return err
	}
	*d = DataOf(q)
	return nil
}

// DataOf strips the survey-scoped fields from q.
func DataOf(q Question) QuestionData {
	var settings Settings
	if q.Settings != nil {
		settings = q.Settings.Clone()
	}
	return QuestionData{
		Type:        q.Type,
		Title:       q.Title,
		Description: q.Description,
		Required:    q.Required,
		Settings:    settings,
	}
}

// QuestionPatch is a partial update. Settings keys are merged over the
// current settings, or over the new type's defaults when Type changes.
type QuestionPatch struct {
	Type        *QuestionType  `json:"type,omitempty"`
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Required    *bool          `json:"required,omitempty"`
	Hidden      *bool          `json:"hidden,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p QuestionPatch) Empty() bool {
	return p.Type == nil && p.Title == nil && p.Description == nil &&
		p.Required == nil && p.Hidden == nil && len(p.Settings) == 0
}
