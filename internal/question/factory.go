package question

import (
	"strings"

	"github.com/google/uuid"

	"surveyline/internal/domain"
)

// Partial is a caller-supplied question shape used for template and library
// insertion. Zero fields fall back to the type defaults.
type Partial struct {
	Type        string         `json:"type" yaml:"type"`
	Title       string         `json:"title,omitempty" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description"`
	Required    bool           `json:"required,omitempty" yaml:"required"`
	Options     []string       `json:"options,omitempty" yaml:"options"`
	Settings    map[string]any `json:"settings,omitempty" yaml:"settings"`
}

// PartialFromData turns a stored library blob back into a Partial.
func PartialFromData(d domain.QuestionData) Partial {
	return Partial{
		Type:        string(d.Type),
		Title:       d.Title,
		Description: d.Description,
		Required:    d.Required,
		Settings:    domain.SettingsMap(d.Settings),
	}
}

// Factory builds question records with fresh ids.
type Factory struct {
	Registry *Registry
	NewID    func() string
}

// NewFactory uses the default registry and random UUIDs.
func NewFactory() *Factory {
	return &Factory{Registry: Default(), NewID: uuid.NewString}
}

func (f *Factory) registry() *Registry {
	if f.Registry == nil {
		return Default()
	}
	return f.Registry
}

// ID returns a fresh question id.
func (f *Factory) ID() string {
	if f.NewID == nil {
		return uuid.NewString()
	}
	return f.NewID()
}

// Create returns a question of type t seeded with the type defaults.
func (f *Factory) Create(t domain.QuestionType) (domain.Question, error) {
	entry, err := f.registry().GetType(t)
	if err != nil {
		return domain.Question{}, err
	}
	return domain.Question{
		ID:       f.ID(),
		Type:     entry.Key,
		Title:    PlaceholderTitle(entry.Key),
		Settings: entry.Defaults(),
	}, nil
}

// CreateFromTemplate merges p over the defaults of its (normalized) type.
func (f *Factory) CreateFromTemplate(p Partial) (domain.Question, error) {
	t, hint := NormalizeWithHint(p.Type)
	entry, err := f.registry().GetType(t)
	if err != nil {
		return domain.Question{}, err
	}
	overrides := map[string]any{}
	for k, v := range p.Settings {
		overrides[k] = v
	}
	if p.Options != nil {
		overrides["options"] = append([]string(nil), p.Options...)
	}
	if hint != "" {
		if _, ok := overrides["scaleType"]; !ok {
			overrides["scaleType"] = hint
		}
	}
	settings, err := domain.MergeSettings(entry.Key, entry.Defaults(), overrides)
	if err != nil {
		return domain.Question{}, domain.ValidationError{
			Message: "invalid settings",
			Fields:  map[string]string{"settings": err.Error()},
		}
	}
	title := p.Title
	if strings.TrimSpace(title) == "" {
		title = PlaceholderTitle(entry.Key)
	}
	return domain.Question{
		ID:          f.ID(),
		Type:        entry.Key,
		Title:       title,
		Description: p.Description,
		Required:    p.Required,
		Settings:    settings,
	}, nil
}

// Duplicate deep-copies q under a new id with " (Copy)" appended to the title.
func (f *Factory) Duplicate(q domain.Question) domain.Question {
	out := q.Clone()
	out.ID = f.ID()
	out.Title = q.Title + " (Copy)"
	return out
}

// PlaceholderTitle is the title given to freshly created questions.
func PlaceholderTitle(t domain.QuestionType) string {
	return "Untitled " + strings.ReplaceAll(string(t), "_", " ") + " question"
}
