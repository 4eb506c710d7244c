package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"surveyline/internal/domain"
	"surveyline/internal/engine"
)

type libraryBody struct {
	Body domain.LibraryQuestion `json:"body"`
}

func (m LibraryMeta) input(q domain.QuestionData) engine.LibraryInput {
	return engine.LibraryInput{
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		Tags:        m.Tags,
		IsPublic:    m.IsPublic,
		Question:    q,
	}
}

func (h handlers) registerLibrary(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-library",
		Method:      http.MethodGet,
		Path:        "/library",
		Summary:     "List library questions",
		Description: "Returns the caller's saved questions plus every public one.",
	}, func(ctx context.Context, input *struct {
		Category string `query:"category"`
		Search   string `query:"search"`
	}) (*struct {
		Body []domain.LibraryQuestion `json:"body"`
	}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		items, err := h.engine.ListLibraryQuestions(ctx, p.OwnerID, domain.LibraryFilter{Category: input.Category, Search: input.Search})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body []domain.LibraryQuestion `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "save-library-question",
		Method:        http.MethodPost,
		Path:          "/library",
		Summary:       "Save question to library",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body SaveLibraryRequest `json:"body"`
	}) (*libraryBody, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		data, err := partialToData(h.engine.Registry, input.Body.Question)
		if err != nil {
			return nil, h.handleError(err)
		}
		if err := p.RequireType(h.engine.Registry, data.Type); err != nil {
			return nil, h.handleError(err)
		}
		rec, err := h.engine.SaveQuestionToLibrary(ctx, p.OwnerID, input.Body.LibraryMeta.input(data))
		if err != nil {
			return nil, h.handleError(err)
		}
		return &libraryBody{Body: rec}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "save-survey-question-to-library",
		Method:        http.MethodPost,
		Path:          "/surveys/{survey_id}/questions/{question_id}/library",
		Summary:       "Save survey question to library",
		Description:   "Copies the question as it stands in the open session, or in the stored survey when no session is open.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		SurveyID   string      `path:"survey_id"`
		QuestionID string      `path:"question_id"`
		Body       LibraryMeta `json:"body"`
	}) (*libraryBody, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		if ed, ok := h.sessions.Lookup(input.SurveyID, p.OwnerID); ok {
			q, found := findQuestion(ed.Survey(), input.QuestionID)
			if !found {
				return nil, h.handleError(domain.NotFoundError{Kind: "question", ID: input.QuestionID})
			}
			in := input.Body.input(domain.DataOf(q))
			if in.Description == "" {
				in.Description = q.Description
			}
			rec, err := h.engine.SaveQuestionToLibrary(ctx, p.OwnerID, in)
			if err != nil {
				return nil, h.handleError(err)
			}
			return &libraryBody{Body: rec}, nil
		}
		rec, err := h.engine.SaveSurveyQuestionToLibrary(ctx, p.OwnerID, input.SurveyID, input.QuestionID, input.Body.input(domain.QuestionData{}))
		if err != nil {
			return nil, h.handleError(err)
		}
		return &libraryBody{Body: rec}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-library-question",
		Method:        http.MethodDelete,
		Path:          "/library/{library_id}",
		Summary:       "Delete library question",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		LibraryID string `path:"library_id"`
	}) (*struct{}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		if err := h.engine.DeleteLibraryQuestion(ctx, input.LibraryID, p.OwnerID); err != nil {
			return nil, h.handleError(err)
		}
		return &struct{}{}, nil
	})
}
