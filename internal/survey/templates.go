package survey

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"surveyline/internal/domain"
	"surveyline/internal/question"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// Template is a ready-made survey a new document can start from.
type Template struct {
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Category    string             `json:"category" yaml:"category"`
	Icon        string             `json:"icon,omitempty" yaml:"icon"`
	Title       string             `json:"title" yaml:"title"`
	Description string             `json:"description" yaml:"description"`
	Questions   []question.Partial `json:"questions" yaml:"questions"`
}

var (
	templatesOnce sync.Once
	templates     []Template
	templatesErr  error
)

// Templates returns the built-in catalog sorted by id.
func Templates() ([]Template, error) {
	templatesOnce.Do(func() {
		templates, templatesErr = loadTemplates()
	})
	return templates, templatesErr
}

func loadTemplates() ([]Template, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	var out []Template
	for _, e := range entries {
		data, err := templateFS.ReadFile(path.Join("templates", e.Name()))
		if err != nil {
			return nil, err
		}
		var t Template
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("template %s: %w", e.Name(), err)
		}
		if t.ID == "" {
			t.ID = strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func TemplateByID(id string) (Template, error) {
	all, err := Templates()
	if err != nil {
		return Template{}, err
	}
	for _, t := range all {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, domain.NotFoundError{Kind: "template", ID: id}
}

// ApplyTemplate replaces the document's title, description and questions
// with fresh questions built from t. Nothing changes if any question fails.
func ApplyTemplate(d *Document, t Template) error {
	qs := make([]domain.Question, 0, len(t.Questions))
	for _, p := range t.Questions {
		q, err := d.factory.CreateFromTemplate(p)
		if err != nil {
			return fmt.Errorf("template %s: %w", t.ID, err)
		}
		qs = append(qs, q)
	}
	d.Survey.Title = t.Title
	d.Survey.Description = t.Description
	d.Survey.Questions = qs
	d.ActiveID = ""
	return nil
}
