package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"surveyline/internal/domain"
	"surveyline/internal/engine/auth"
	"surveyline/internal/events"
	"surveyline/internal/question"
)

// DefaultLibraryCategory is used when a saved question names no category.
const DefaultLibraryCategory = "general"

// LibraryInput is the caller-supplied part of a library record.
type LibraryInput struct {
	Name        string              `json:"name,omitempty"`
	Description string              `json:"description,omitempty"`
	Category    string              `json:"category,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	IsPublic    bool                `json:"is_public,omitempty"`
	Question    domain.QuestionData `json:"question_data"`
}

// SaveQuestionToLibrary stores a reusable question. An invalid question is
// refused with a ValidationError.
func (e Engine) SaveQuestionToLibrary(ctx context.Context, ownerID string, in LibraryInput) (saved domain.LibraryQuestion, err error) {
	ctx, span := e.startSpan(ctx, "engine.SaveQuestionToLibrary", attribute.String("owner.id", ownerID))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(ownerID) == "" {
		return domain.LibraryQuestion{}, domain.ValidationError{Message: "owner is required", Fields: map[string]string{"owner_id": "Owner is required"}}
	}
	data := in.Question
	raw := data.Type
	data.Type = question.Normalize(string(raw))
	switch {
	case data.Settings == nil:
		data.Settings = e.Registry.DefaultSettingsFor(data.Type)
	case data.Type != raw:
		merged, err := domain.MergeSettings(data.Type, e.Registry.DefaultSettingsFor(data.Type), domain.SettingsMap(data.Settings))
		if err != nil {
			return domain.LibraryQuestion{}, domain.ValidationError{Message: "invalid settings", Fields: map[string]string{"settings": err.Error()}}
		}
		data.Settings = merged
	}
	q := domain.Question{Type: data.Type, Title: data.Title, Description: data.Description, Required: data.Required, Settings: data.Settings}
	if res := question.Validate(q); !res.IsValid {
		return domain.LibraryQuestion{}, domain.ValidationError{Message: "question is invalid", Fields: res.Errors}
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSpace(data.Title)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = DefaultLibraryCategory
	}
	now := e.timestamp()
	rec := domain.LibraryQuestion{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		Description: in.Description,
		Category:    category,
		Tags:        cleanTags(in.Tags),
		IsPublic:    in.IsPublic,
		Question:    data,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.LibraryQuestion{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertLibraryQuestion(ctx, tx, rec); err != nil {
		return domain.LibraryQuestion{}, fmt.Errorf("insert library question: %w", err)
	}
	evt, err := e.appendEvent(ctx, tx, events.LibrarySaved, "", ownerID, "library_question", rec.ID, actorFrom(ctx, ownerID), events.EventPayload{
		"name":     rec.Name,
		"type":     data.Type,
		"category": rec.Category,
	})
	if err != nil {
		return domain.LibraryQuestion{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.LibraryQuestion{}, err
	}
	e.publish(ctx, evt)
	return rec, nil
}

// SaveSurveyQuestionToLibrary copies one question of a stored survey into
// the library. Name and description default to the question's own.
func (e Engine) SaveSurveyQuestionToLibrary(ctx context.Context, ownerID, surveyID, questionID string, in LibraryInput) (domain.LibraryQuestion, error) {
	s, err := e.LoadSurvey(ctx, surveyID, ownerID)
	if err != nil {
		return domain.LibraryQuestion{}, err
	}
	for _, q := range s.Questions {
		if q.ID == questionID {
			in.Question = domain.DataOf(q)
			if in.Description == "" {
				in.Description = q.Description
			}
			return e.SaveQuestionToLibrary(ctx, ownerID, in)
		}
	}
	return domain.LibraryQuestion{}, domain.NotFoundError{Kind: "question", ID: questionID}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ListLibraryQuestions returns the owner's questions and every public one.
func (e Engine) ListLibraryQuestions(ctx context.Context, ownerID string, f domain.LibraryFilter) ([]domain.LibraryQuestion, error) {
	return e.Repo.ListLibraryQuestions(ctx, ownerID, f)
}

func (e Engine) DeleteLibraryQuestion(ctx context.Context, id, ownerID string) (err error) {
	ctx, span := e.startSpan(ctx, "engine.DeleteLibraryQuestion", attribute.String("library.id", id))
	defer func() { endSpan(span, err) }()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteLibraryQuestion(ctx, tx, id, ownerID); err != nil {
		return notFound("library question", id, err)
	}
	evt, err := e.appendEvent(ctx, tx, events.LibraryDeleted, "", ownerID, "library_question", id, actorFrom(ctx, ownerID), nil)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.publish(ctx, evt)
	return nil
}

// IncrementQuestionUsage bumps the usage counter of a library question.
func (e Engine) IncrementQuestionUsage(ctx context.Context, id string) (err error) {
	ctx, span := e.startSpan(ctx, "engine.IncrementQuestionUsage", attribute.String("library.id", id))
	defer func() { endSpan(span, err) }()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	now := e.timestamp()
	if err := e.Repo.IncrementLibraryUsage(ctx, tx, id, now); err != nil {
		return notFound("library question", id, err)
	}
	evt, err := e.appendEvent(ctx, tx, events.LibraryUsed, "", "", "library_question", id, actorFrom(ctx, "system"), nil)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.publish(ctx, evt)
	return nil
}

// BuildFromLibrary returns a fresh question built from a library record p
// can see. A type outside p's plan is refused before the record counts as
// used. The usage counter is bumped best-effort; a failure is logged and
// does not fail the call.
func (e Engine) BuildFromLibrary(ctx context.Context, p auth.Principal, id string) (domain.Question, error) {
	rec, err := e.Repo.GetLibraryQuestion(ctx, id)
	if err != nil {
		return domain.Question{}, notFound("library question", id, err)
	}
	if rec.OwnerID != p.OwnerID && !rec.IsPublic {
		return domain.Question{}, domain.NotFoundError{Kind: "library question", ID: id}
	}
	q, err := e.Factory.CreateFromTemplate(question.PartialFromData(rec.Question))
	if err != nil {
		return domain.Question{}, err
	}
	if err := p.RequireType(e.Registry, q.Type); err != nil {
		return domain.Question{}, err
	}
	if err := e.IncrementQuestionUsage(ctx, id); err != nil {
		e.log().Warn("library usage increment failed", "library_id", id, "error", err)
	}
	return q, nil
}
