package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"surveyline/internal/config"
	"surveyline/internal/db"
	"surveyline/internal/domain"
	"surveyline/internal/engine/auth"
	"surveyline/internal/events"
	"surveyline/internal/logger"
	"surveyline/internal/observability"
	"surveyline/internal/question"
	"surveyline/internal/repo"
	"surveyline/internal/survey"
)

// Engine implements survey persistence on top of the repo and the event log.
type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Bus      events.Bus
	Config   *config.Config
	Registry *question.Registry
	Factory  *question.Factory
	Log      *logger.Logger
	Now      func() time.Time
}

func New(conn *sql.DB, dialect db.Dialect, cfg *config.Config, log *logger.Logger) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:       conn,
		Repo:     repo.Repo{DB: conn, Dialect: dialect},
		Events:   events.Writer{DB: conn, Dialect: dialect},
		Bus:      events.NopBus{},
		Config:   cfg,
		Registry: question.Default(),
		Factory:  question.NewFactory(),
		Log:      logger.OrNop(log),
		Now:      time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) log() *logger.Logger {
	return logger.OrNop(e.Log)
}

func (e Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return observability.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (e Engine) appendEvent(ctx context.Context, tx *sql.Tx, evtType, surveyID, ownerID, entityKind, entityID, actorID string, payload events.EventPayload) (domain.Event, error) {
	w := e.Events
	w.Now = e.now
	if actorID == "" {
		actorID = ownerID
	}
	return w.Append(ctx, tx, evtType, surveyID, ownerID, entityKind, entityID, actorID, payload)
}

// publish forwards committed events to the bus. Failures are logged only.
func (e Engine) publish(ctx context.Context, evts ...domain.Event) {
	if e.Bus == nil {
		return
	}
	for _, evt := range evts {
		if err := e.Bus.Publish(ctx, evt); err != nil {
			e.log().Warn("event bus publish failed", "event_id", evt.ID, "type", evt.Type, "error", err)
		}
	}
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return domain.NotFoundError{Kind: kind, ID: id}
	}
	return err
}

// LoadSurvey returns the owner's survey with normalized question types.
// Surveys of other owners are reported as not found. An empty ownerID skips
// the ownership check.
func (e Engine) LoadSurvey(ctx context.Context, id, ownerID string) (s domain.Survey, err error) {
	ctx, span := e.startSpan(ctx, "engine.LoadSurvey", attribute.String("survey.id", id))
	defer func() { endSpan(span, err) }()
	s, err = e.Repo.GetSurvey(ctx, id)
	if err != nil {
		return domain.Survey{}, notFound("survey", id, err)
	}
	if ownerID != "" && s.OwnerID != ownerID {
		return domain.Survey{}, domain.NotFoundError{Kind: "survey", ID: id}
	}
	question.NormalizeSurvey(&s)
	return s, nil
}

// SaveSurvey inserts s when it has no id or is not stored yet, otherwise
// overwrites the stored document. The returned survey carries the assigned
// id and timestamps.
func (e Engine) SaveSurvey(ctx context.Context, s domain.Survey) (saved domain.Survey, err error) {
	ctx, span := e.startSpan(ctx, "engine.SaveSurvey", attribute.String("survey.id", s.ID), attribute.Int("survey.questions", len(s.Questions)))
	defer func() { endSpan(span, err) }()

	s = s.Clone()
	if strings.TrimSpace(s.OwnerID) == "" {
		return domain.Survey{}, domain.ValidationError{Message: "owner is required", Fields: map[string]string{"owner_id": "Owner is required"}}
	}
	switch s.Status {
	case "":
		s.Status = domain.StatusDraft
	case domain.StatusDraft, domain.StatusPublished:
	default:
		return domain.Survey{}, domain.ValidationError{Message: "invalid status", Fields: map[string]string{"status": fmt.Sprintf("Unknown status: %s", s.Status)}}
	}
	if err := checkQuestionIDs(s.Questions); err != nil {
		return domain.Survey{}, err
	}
	question.NormalizeSurvey(&s)
	now := e.timestamp()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Survey{}, err
	}
	defer tx.Rollback()

	var existing domain.Survey
	found := false
	if s.ID != "" {
		existing, err = e.Repo.GetSurveyTx(ctx, tx, s.ID)
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, repo.ErrNotFound):
			return domain.Survey{}, err
		}
	}
	if s.Status == domain.StatusPublished && s.PublishedAt == "" {
		s.PublishedAt = now
	}
	if s.Status == domain.StatusDraft {
		s.PublishedAt = ""
	}
	evtType := events.SurveyCreated
	if found {
		if existing.OwnerID != s.OwnerID {
			return domain.Survey{}, auth.ForbiddenError{Kind: "survey", ID: s.ID}
		}
		s.CreatedAt = existing.CreatedAt
		s.UpdatedAt = now
		if err := e.Repo.UpdateSurvey(ctx, tx, s); err != nil {
			return domain.Survey{}, fmt.Errorf("update survey: %w", err)
		}
		evtType = events.SurveyUpdated
		if existing.Status != s.Status {
			evtType = events.SurveyUnpublished
			if s.Status == domain.StatusPublished {
				evtType = events.SurveyPublished
			}
		}
	} else {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.CreatedAt = now
		s.UpdatedAt = now
		if err := e.Repo.InsertSurvey(ctx, tx, s); err != nil {
			return domain.Survey{}, fmt.Errorf("insert survey: %w", err)
		}
	}
	evt, err := e.appendEvent(ctx, tx, evtType, s.ID, s.OwnerID, "survey", s.ID, actorFrom(ctx, s.OwnerID), events.EventPayload{
		"title":          s.Title,
		"status":         s.Status,
		"question_count": len(s.Questions),
	})
	if err != nil {
		return domain.Survey{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Survey{}, err
	}
	e.publish(ctx, evt)
	return s, nil
}

func checkQuestionIDs(qs []domain.Question) error {
	seen := map[string]bool{}
	for i, q := range qs {
		if strings.TrimSpace(q.ID) == "" {
			return domain.ValidationError{Message: "question id is required", Fields: map[string]string{fmt.Sprintf("questions[%d].id", i): "Question id is required"}}
		}
		if seen[q.ID] {
			return domain.ValidationError{Message: "duplicate question id", Fields: map[string]string{q.ID: "Duplicate question id"}}
		}
		seen[q.ID] = true
	}
	return nil
}

// actorFrom prefers the authenticated principal over the fallback.
func actorFrom(ctx context.Context, fallback string) string {
	if p, ok := auth.PrincipalFrom(ctx); ok {
		return p.OwnerID
	}
	return fallback
}

// CreateSurvey stores a new draft with default settings.
func (e Engine) CreateSurvey(ctx context.Context, ownerID, title, description string) (domain.Survey, error) {
	s := survey.NewSurvey(ownerID, title)
	s.Description = description
	return e.SaveSurvey(ctx, s)
}

// CreateFromTemplate stores a new draft seeded from a built-in template.
func (e Engine) CreateFromTemplate(ctx context.Context, ownerID, templateID string) (domain.Survey, error) {
	t, err := survey.TemplateByID(templateID)
	if err != nil {
		return domain.Survey{}, err
	}
	doc := survey.NewDocument(survey.NewSurvey(ownerID, ""), e.Factory)
	if err := survey.ApplyTemplate(doc, t); err != nil {
		return domain.Survey{}, err
	}
	return e.SaveSurvey(ctx, doc.Survey)
}

// ImportSurvey stores a full document under ownerID. Questions without an
// id get a fresh one; a missing survey id creates a new survey.
func (e Engine) ImportSurvey(ctx context.Context, ownerID string, s domain.Survey) (domain.Survey, error) {
	s = s.Clone()
	s.OwnerID = ownerID
	for i := range s.Questions {
		if strings.TrimSpace(s.Questions[i].ID) == "" {
			s.Questions[i].ID = e.Factory.ID()
		}
		if s.Questions[i].Settings == nil {
			s.Questions[i].Type = question.Normalize(string(s.Questions[i].Type))
			s.Questions[i].Settings = e.Registry.DefaultSettingsFor(s.Questions[i].Type)
		}
	}
	return e.SaveSurvey(ctx, s)
}

func (e Engine) ListSurveys(ctx context.Context, ownerID string, f domain.SurveyFilter) ([]domain.SurveySummary, error) {
	return e.Repo.ListSurveys(ctx, ownerID, f)
}

// ValidateSurvey loads a stored survey and validates it.
func (e Engine) ValidateSurvey(ctx context.Context, id, ownerID string) (domain.SurveyValidation, error) {
	s, err := e.LoadSurvey(ctx, id, ownerID)
	if err != nil {
		return domain.SurveyValidation{}, err
	}
	return question.ValidateSurvey(s), nil
}

func (e Engine) DeleteSurvey(ctx context.Context, id, ownerID string) (err error) {
	ctx, span := e.startSpan(ctx, "engine.DeleteSurvey", attribute.String("survey.id", id))
	defer func() { endSpan(span, err) }()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteSurvey(ctx, tx, id, ownerID); err != nil {
		return notFound("survey", id, err)
	}
	evt, err := e.appendEvent(ctx, tx, events.SurveyDeleted, id, ownerID, "survey", id, actorFrom(ctx, ownerID), nil)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.publish(ctx, evt)
	return nil
}

// ListEvents lists the owner's events newest first.
func (e Engine) ListEvents(ctx context.Context, limit int, cursor int64, f repo.EventFilter) ([]domain.Event, error) {
	return e.Repo.LatestEvents(ctx, limit, cursor, f)
}
