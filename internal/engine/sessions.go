package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"surveyline/internal/domain"
	"surveyline/internal/logger"
	"surveyline/internal/survey"
)

type session struct {
	ownerID string
	editor  *survey.Editor
	cancel  context.CancelFunc
	done    chan struct{}
}

// Sessions keeps one editor per open survey and runs its background
// autosave until the session is closed.
type Sessions struct {
	Engine   Engine
	Log      *logger.Logger
	Interval time.Duration
	Autosave bool

	mu     sync.Mutex
	open   map[string]*session
	base   context.Context
	stopFn context.CancelFunc
}

// NewSessions reads the autosave settings from the engine config.
func NewSessions(eng Engine) *Sessions {
	base, cancel := context.WithCancel(context.Background())
	m := &Sessions{
		Engine:   eng,
		Log:      eng.log().With("component", "sessions"),
		Interval: survey.DefaultAutosaveInterval,
		Autosave: true,
		open:     map[string]*session{},
		base:     base,
		stopFn:   cancel,
	}
	if eng.Config != nil {
		m.Interval = eng.Config.AutosaveInterval()
		m.Autosave = eng.Config.AutosaveEnabled()
	}
	return m
}

// Open returns the editor of surveyID, loading it on first use. A survey
// open for another owner is reported as not found.
func (m *Sessions) Open(ctx context.Context, surveyID, ownerID string) (*survey.Editor, error) {
	m.mu.Lock()
	if s, ok := m.open[surveyID]; ok {
		m.mu.Unlock()
		if s.ownerID != ownerID {
			return nil, domain.NotFoundError{Kind: "survey", ID: surveyID}
		}
		return s.editor, nil
	}
	m.mu.Unlock()

	stored, err := m.Engine.LoadSurvey(ctx, surveyID, ownerID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have opened it while we were loading.
	if s, ok := m.open[surveyID]; ok {
		return s.editor, nil
	}
	ed := survey.NewEditor(stored, m.Engine, survey.EditorOptions{
		Factory:  m.Engine.Factory,
		Log:      logger.OrNop(m.Log).With("survey_id", surveyID),
		Interval: m.Interval,
		Now:      m.Engine.Now,
	})
	s := &session{ownerID: ownerID, editor: ed, done: make(chan struct{})}
	if m.Autosave {
		runCtx, cancel := context.WithCancel(m.base)
		s.cancel = cancel
		go func() {
			defer close(s.done)
			ed.RunAutosave(runCtx)
		}()
	} else {
		close(s.done)
	}
	m.open[surveyID] = s
	logger.OrNop(m.Log).Debug("session opened", "survey_id", surveyID, "owner_id", ownerID)
	return ed, nil
}

// Lookup returns an already open editor without loading.
func (m *Sessions) Lookup(surveyID, ownerID string) (*survey.Editor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.open[surveyID]
	if !ok || s.ownerID != ownerID {
		return nil, false
	}
	return s.editor, true
}

// Close saves pending changes and ends the session. When the save fails the
// session stays open so the caller can retry.
func (m *Sessions) Close(ctx context.Context, surveyID, ownerID string) error {
	m.mu.Lock()
	s, ok := m.open[surveyID]
	m.mu.Unlock()
	if !ok || s.ownerID != ownerID {
		return domain.NotFoundError{Kind: "session", ID: surveyID}
	}
	if s.editor.Autosave().Dirty() {
		if _, err := s.editor.Save(ctx); err != nil {
			return err
		}
	}
	m.Discard(surveyID)
	return nil
}

// Discard ends a session without saving.
func (m *Sessions) Discard(surveyID string) {
	m.mu.Lock()
	s, ok := m.open[surveyID]
	delete(m.open, surveyID)
	m.mu.Unlock()
	if !ok {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
	logger.OrNop(m.Log).Debug("session closed", "survey_id", surveyID)
}

// IDs lists open survey ids.
func (m *Sessions) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.open))
	for id := range m.open {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CloseAll stops every autosave loop and flushes dirty documents. Failures
// are logged and joined into the returned error.
func (m *Sessions) CloseAll(ctx context.Context) error {
	m.stopFn()
	var errs []error
	for _, id := range m.IDs() {
		m.mu.Lock()
		s, ok := m.open[id]
		m.mu.Unlock()
		if !ok {
			continue
		}
		if s.editor.Autosave().Dirty() {
			if _, err := s.editor.Save(ctx); err != nil {
				logger.OrNop(m.Log).Error("flush on shutdown failed", "survey_id", id, "error", err)
				errs = append(errs, err)
			}
		}
		m.Discard(id)
	}
	return errors.Join(errs...)
}

// Run blocks until ctx is done and then flushes every session.
func (m *Sessions) Run(ctx context.Context) error {
	<-ctx.Done()
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.CloseAll(flushCtx)
}
