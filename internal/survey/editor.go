package survey

import (
	"context"
	"strings"
	"sync"
	"time"

	"surveyline/internal/domain"
	"surveyline/internal/logger"
	"surveyline/internal/question"
)

// Publish refusals, in the order they are checked.
const (
	msgPublishTitle     = "Please add a title before publishing"
	msgPublishQuestions = "Please add at least one question before publishing"
	msgPublishTitles    = "Please add titles to all questions before publishing"
)

// CheckPublishable returns a ValidationError when s cannot be published.
func CheckPublishable(s domain.Survey) error {
	switch {
	case strings.TrimSpace(s.Title) == "":
		return domain.ValidationError{Message: msgPublishTitle, Fields: map[string]string{"title": msgPublishTitle}}
	case len(s.Questions) == 0:
		return domain.ValidationError{Message: msgPublishQuestions, Fields: map[string]string{"questions": msgPublishQuestions}}
	}
	fields := map[string]string{}
	for _, q := range s.Questions {
		if strings.TrimSpace(q.Title) == "" {
			fields[q.ID] = "Question title is required"
		}
	}
	if len(fields) > 0 {
		return domain.ValidationError{Message: msgPublishTitles, Fields: fields}
	}
	return nil
}

type EditorOptions struct {
	Factory  *question.Factory
	Log      *logger.Logger
	Interval time.Duration
	Now      func() time.Time
}

// Editor owns one editing session: the document, the selection, the bulk
// controller and the autosave coordinator. All methods are safe for
// concurrent use; store calls are made without holding the editor lock.
// Saves run one at a time from snapshot to adopt, so they reach the store
// in the order their snapshots were taken.
type Editor struct {
	saving sync.Mutex

	mu   sync.Mutex
	doc  *Document
	sel  *Selection
	bulk *BulkController
	save *Coordinator
	now  func() time.Time
}

func NewEditor(s domain.Survey, store Store, opts EditorOptions) *Editor {
	question.NormalizeSurvey(&s)
	doc := NewDocument(s, opts.Factory)
	sel := NewSelection()
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Editor{
		doc:  doc,
		sel:  sel,
		bulk: NewBulkController(doc, sel),
		save: &Coordinator{Store: store, Log: opts.Log, Interval: opts.Interval, Now: now},
		now:  now,
	}
}

// State is a read-only view of the session.
type State struct {
	Survey      domain.Survey           `json:"survey"`
	ActiveID    string                  `json:"active_id,omitempty"`
	Selected    []string                `json:"selected"`
	Pending     BulkAction              `json:"pending_bulk_action,omitempty"`
	Dirty       bool                    `json:"dirty"`
	LastSavedAt string                  `json:"last_saved_at,omitempty"`
	Validation  domain.SurveyValidation `json:"validation"`
}

func (e *Editor) State() State {
	e.mu.Lock()
	s := e.doc.Survey.Clone()
	st := State{Survey: s, ActiveID: e.doc.ActiveID, Selected: e.sel.IDs()}
	st.Pending, _ = e.bulk.Pending()
	e.mu.Unlock()
	st.Dirty = e.save.Dirty()
	if at, ok := e.save.LastSavedAt(); ok {
		st.LastSavedAt = at.UTC().Format(time.RFC3339)
	}
	st.Validation = question.ValidateSurvey(s)
	return st
}

// Survey returns a copy of the current document.
func (e *Editor) Survey() domain.Survey {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Survey.Clone()
}

func (e *Editor) Autosave() *Coordinator { return e.save }

// mutate runs fn under the lock and marks the session dirty when fn
// reports a change.
func (e *Editor) mutate(fn func(d *Document) (bool, error)) error {
	e.mu.Lock()
	changed, err := fn(e.doc)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if changed {
		e.save.MarkDirty()
	}
	return nil
}

func (e *Editor) AddQuestion(q domain.Question) (domain.Question, error) {
	var out domain.Question
	err := e.mutate(func(d *Document) (bool, error) {
		var err error
		out, err = d.AddQuestion(q)
		return err == nil, err
	})
	return out, err
}

func (e *Editor) AddQuestionOfType(t domain.QuestionType) (domain.Question, error) {
	var out domain.Question
	err := e.mutate(func(d *Document) (bool, error) {
		var err error
		out, err = d.AddQuestionOfType(t)
		return err == nil, err
	})
	return out, err
}

// UpdateQuestion reports false for an unknown id.
func (e *Editor) UpdateQuestion(id string, p domain.QuestionPatch) (bool, error) {
	var found bool
	err := e.mutate(func(d *Document) (bool, error) {
		var err error
		found, err = d.UpdateQuestion(id, p)
		return found && !p.Empty(), err
	})
	return found, err
}

func (e *Editor) DeleteQuestion(id string) bool {
	var found bool
	_ = e.mutate(func(d *Document) (bool, error) {
		found = d.DeleteQuestion(id)
		if found {
			e.sel.Remove(id)
		}
		return found, nil
	})
	return found
}

func (e *Editor) DuplicateQuestion(id string) (domain.Question, bool) {
	var (
		out   domain.Question
		found bool
	)
	_ = e.mutate(func(d *Document) (bool, error) {
		out, found = d.DuplicateQuestion(id)
		return found, nil
	})
	return out, found
}

func (e *Editor) Reorder(from, to int) error {
	return e.mutate(func(d *Document) (bool, error) {
		if err := d.Reorder(from, to); err != nil {
			return false, err
		}
		return from != to, nil
	})
}

func (e *Editor) SetMetadata(m Metadata) {
	_ = e.mutate(func(d *Document) (bool, error) {
		return d.SetMetadata(m), nil
	})
}

// ApplyTemplate replaces title, description and questions with t.
func (e *Editor) ApplyTemplate(t Template) error {
	return e.mutate(func(d *Document) (bool, error) {
		if err := ApplyTemplate(d, t); err != nil {
			return false, err
		}
		e.sel.Clear()
		return true, nil
	})
}

func (e *Editor) Filter(search string, t domain.QuestionType) []domain.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Filter(search, t)
}

func (e *Editor) Toggle(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.Toggle(id)
}

// SelectAll toggles between every question selected and none.
func (e *Editor) SelectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, len(e.doc.Survey.Questions))
	for i, q := range e.doc.Survey.Questions {
		ids[i] = q.ID
	}
	e.sel.SelectAll(ids)
}

// Select replaces the selection with the known ids among ids.
func (e *Editor) Select(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel.Clear()
	for _, id := range ids {
		if e.doc.indexOf(id) >= 0 {
			e.sel.ids[id] = struct{}{}
		}
	}
}

func (e *Editor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel.Clear()
}

func (e *Editor) Selected() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.IDs()
}

func (e *Editor) RequestBulk(action BulkAction) (BulkResult, error) {
	var res BulkResult
	err := e.mutate(func(d *Document) (bool, error) {
		var err error
		res, err = e.bulk.Request(action)
		return err == nil && res.Affected > 0, err
	})
	return res, err
}

func (e *Editor) ConfirmBulk() (BulkResult, error) {
	var res BulkResult
	err := e.mutate(func(d *Document) (bool, error) {
		var err error
		res, err = e.bulk.Confirm()
		return err == nil && res.Affected > 0, err
	})
	return res, err
}

func (e *Editor) CancelBulk() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bulk.Cancel()
}

func (e *Editor) snapshot(edit func(*domain.Survey)) (domain.Survey, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.doc.Survey.Clone()
	if edit != nil {
		edit(&s)
	}
	return s, e.save.Version()
}

// adopt copies the store-assigned identity and timestamps back into the
// document without touching its questions.
func (e *Editor) adopt(saved domain.Survey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc.Survey.ID = saved.ID
	e.doc.Survey.CreatedAt = saved.CreatedAt
	e.doc.Survey.UpdatedAt = saved.UpdatedAt
}

// Save writes the document as it is now.
func (e *Editor) Save(ctx context.Context) (domain.Survey, error) {
	e.saving.Lock()
	defer e.saving.Unlock()
	snap, v := e.snapshot(nil)
	saved, err := e.save.SaveNow(ctx, snap, v)
	if err != nil {
		return domain.Survey{}, err
	}
	e.adopt(saved)
	return saved, nil
}

// Publish refuses with a ValidationError when the survey is incomplete,
// otherwise saves it as published.
func (e *Editor) Publish(ctx context.Context) (domain.Survey, error) {
	return e.saveWithStatus(ctx, domain.StatusPublished)
}

// Unpublish saves the survey back as a draft.
func (e *Editor) Unpublish(ctx context.Context) (domain.Survey, error) {
	return e.saveWithStatus(ctx, domain.StatusDraft)
}

func (e *Editor) saveWithStatus(ctx context.Context, status domain.SurveyStatus) (domain.Survey, error) {
	e.saving.Lock()
	defer e.saving.Unlock()
	publishedAt := e.now().UTC().Format(time.RFC3339)
	snap, v := e.snapshot(func(s *domain.Survey) {
		s.Status = status
		if status == domain.StatusPublished {
			s.PublishedAt = publishedAt
		} else {
			s.PublishedAt = ""
		}
	})
	if status == domain.StatusPublished {
		if err := CheckPublishable(snap); err != nil {
			return domain.Survey{}, err
		}
	}
	saved, err := e.save.SaveNow(ctx, snap, v)
	if err != nil {
		return domain.Survey{}, err
	}
	e.mu.Lock()
	e.doc.Survey.Status = snap.Status
	e.doc.Survey.PublishedAt = snap.PublishedAt
	e.mu.Unlock()
	e.adopt(saved)
	return saved, nil
}

// AutosaveOnce performs one silent background save.
func (e *Editor) AutosaveOnce(ctx context.Context) bool {
	e.saving.Lock()
	defer e.saving.Unlock()
	snap, v := e.snapshot(nil)
	saved, ok := e.save.AutosaveOnce(ctx, snap, v)
	if ok {
		e.adopt(saved)
	}
	return ok
}

// RunAutosave saves in the background every interval until ctx is done.
func (e *Editor) RunAutosave(ctx context.Context) {
	e.save.Run(ctx, func(ctx context.Context) { e.AutosaveOnce(ctx) })
}
