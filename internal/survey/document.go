package survey

import (
	"strings"

	"surveyline/internal/domain"
	"surveyline/internal/question"
)

// Document is the in-memory survey being edited. Every mutation goes through
// its methods; bulk methods build the new question list first and swap it in
// only when the whole operation succeeds.
type Document struct {
	Survey   domain.Survey
	ActiveID string

	factory *question.Factory
}

// NewDocument wraps s. A nil factory uses question.NewFactory.
func NewDocument(s domain.Survey, f *question.Factory) *Document {
	if f == nil {
		f = question.NewFactory()
	}
	if s.Status == "" {
		s.Status = domain.StatusDraft
	}
	if s.Questions == nil {
		s.Questions = []domain.Question{}
	}
	return &Document{Survey: s, factory: f}
}

// NewSurvey returns an empty draft owned by ownerID.
func NewSurvey(ownerID, title string) domain.Survey {
	return domain.Survey{
		OwnerID:   ownerID,
		Title:     title,
		Status:    domain.StatusDraft,
		Questions: []domain.Question{},
		Settings:  domain.DefaultSurveySettings(),
	}
}

func (d *Document) Factory() *question.Factory { return d.factory }

func (d *Document) indexOf(id string) int {
	for i, q := range d.Survey.Questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// Question returns a copy of the question with id.
func (d *Document) Question(id string) (domain.Question, bool) {
	i := d.indexOf(id)
	if i < 0 {
		return domain.Question{}, false
	}
	return d.Survey.Questions[i].Clone(), true
}

// AddQuestion appends q and makes it active. Missing ids are assigned and
// missing settings are seeded from the type defaults.
func (d *Document) AddQuestion(q domain.Question) (domain.Question, error) {
	if q.ID == "" {
		q.ID = d.factory.ID()
	}
	if d.indexOf(q.ID) >= 0 {
		return domain.Question{}, domain.ValidationError{
			Message: "duplicate question id",
			Fields:  map[string]string{"id": q.ID},
		}
	}
	if q.Settings == nil {
		q.Settings = question.Default().DefaultSettingsFor(q.Type)
	}
	d.Survey.Questions = append(d.Survey.Questions, q)
	d.ActiveID = q.ID
	return q.Clone(), nil
}

// AddQuestionOfType creates a question of type t and appends it.
func (d *Document) AddQuestionOfType(t domain.QuestionType) (domain.Question, error) {
	q, err := d.factory.Create(question.Normalize(string(t)))
	if err != nil {
		return domain.Question{}, err
	}
	return d.AddQuestion(q)
}

// UpdateQuestion applies p to the question with id. An unknown id is a
// no-op and reports false. A type change reseeds settings from the new
// type's defaults before the patch settings are merged.
func (d *Document) UpdateQuestion(id string, p domain.QuestionPatch) (bool, error) {
	i := d.indexOf(id)
	if i < 0 {
		return false, nil
	}
	q := d.Survey.Questions[i].Clone()
	switch {
	case p.Type != nil && question.Normalize(string(*p.Type)) != q.Type:
		t, hint := question.NormalizeWithHint(string(*p.Type))
		entry, err := question.Default().GetType(t)
		if err != nil {
			return false, err
		}
		overrides := copyMap(p.Settings)
		if hint != "" {
			if _, ok := overrides["scaleType"]; !ok {
				overrides["scaleType"] = hint
			}
		}
		settings, err := domain.MergeSettings(entry.Key, entry.Defaults(), overrides)
		if err != nil {
			return false, settingsError(err)
		}
		q.Type, q.Settings = entry.Key, settings
	case len(p.Settings) > 0:
		settings, err := domain.MergeSettings(q.Type, q.Settings, p.Settings)
		if err != nil {
			return false, settingsError(err)
		}
		q.Settings = settings
	}
	if p.Title != nil {
		q.Title = *p.Title
	}
	if p.Description != nil {
		q.Description = *p.Description
	}
	if p.Required != nil {
		q.Required = *p.Required
	}
	if p.Hidden != nil {
		q.Hidden = *p.Hidden
	}
	d.Survey.Questions[i] = q
	return true, nil
}

// DeleteQuestion removes the question with id and clears it as active.
func (d *Document) DeleteQuestion(id string) bool {
	i := d.indexOf(id)
	if i < 0 {
		return false
	}
	d.Survey.Questions = append(d.Survey.Questions[:i:i], d.Survey.Questions[i+1:]...)
	if d.ActiveID == id {
		d.ActiveID = ""
	}
	return true
}

// DuplicateQuestion appends a copy of the question with id.
func (d *Document) DuplicateQuestion(id string) (domain.Question, bool) {
	i := d.indexOf(id)
	if i < 0 {
		return domain.Question{}, false
	}
	dup := d.factory.Duplicate(d.Survey.Questions[i])
	d.Survey.Questions = append(d.Survey.Questions, dup)
	d.ActiveID = dup.ID
	return dup.Clone(), true
}

// Reorder moves the question at from to position to. Both must lie in
// [0, len); nothing is clamped.
func (d *Document) Reorder(from, to int) error {
	n := len(d.Survey.Questions)
	if from < 0 || from >= n {
		return domain.IndexError{Index: from, Len: n}
	}
	if to < 0 || to >= n {
		return domain.IndexError{Index: to, Len: n}
	}
	if from == to {
		return nil
	}
	qs := append([]domain.Question(nil), d.Survey.Questions...)
	moved := qs[from]
	qs = append(qs[:from], qs[from+1:]...)
	qs = append(qs[:to], append([]domain.Question{moved}, qs[to:]...)...)
	d.Survey.Questions = qs
	return nil
}

// Metadata is a partial update of the survey-level fields.
type Metadata struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	Settings    *domain.SurveySettings `json:"settings,omitempty"`
}

func (d *Document) SetMetadata(m Metadata) bool {
	changed := false
	if m.Title != nil {
		d.Survey.Title = *m.Title
		changed = true
	}
	if m.Description != nil {
		d.Survey.Description = *m.Description
		changed = true
	}
	if m.Settings != nil {
		d.Survey.Settings = *m.Settings
		changed = true
	}
	return changed
}

// Filter returns the questions whose title, description or type contains
// search (case-insensitive) and, when t is set, whose type is t.
func (d *Document) Filter(search string, t domain.QuestionType) []domain.Question {
	needle := strings.ToLower(strings.TrimSpace(search))
	var out []domain.Question
	for _, q := range d.Survey.Questions {
		if t != "" && q.Type != t {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(q.Title), needle) &&
			!strings.Contains(strings.ToLower(q.Description), needle) &&
			!strings.Contains(string(q.Type), needle) {
			continue
		}
		out = append(out, q.Clone())
	}
	return out
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func settingsError(err error) error {
	return domain.ValidationError{
		Message: "invalid settings",
		Fields:  map[string]string{"settings": err.Error()},
	}
}
