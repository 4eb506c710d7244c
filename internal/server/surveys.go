package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"surveyline/internal/domain"
	"surveyline/internal/engine/auth"
	"surveyline/internal/question"
	"surveyline/internal/survey"
)

type surveyPath struct {
	SurveyID string `path:"survey_id"`
}

type surveyBody struct {
	Body domain.Survey `json:"body"`
}

// requireTemplate checks every question type of a template against the
// caller's plan before anything is created.
func (h handlers) requireTemplate(p auth.Principal, t survey.Template) error {
	for _, q := range t.Questions {
		if err := p.RequireType(h.engine.Registry, question.Normalize(q.Type)); err != nil {
			return err
		}
	}
	return nil
}

func (h handlers) registerSurveys(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-surveys",
		Method:      http.MethodGet,
		Path:        "/surveys",
		Summary:     "List surveys",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"draft,published"`
		Search string `query:"search"`
	}) (*struct {
		Body []domain.SurveySummary `json:"body"`
	}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		items, err := h.engine.ListSurveys(ctx, p.OwnerID, domain.SurveyFilter{
			Status: domain.SurveyStatus(input.Status),
			Search: strings.TrimSpace(input.Search),
		})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body []domain.SurveySummary `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-survey",
		Method:        http.MethodPost,
		Path:          "/surveys",
		Summary:       "Create survey",
		Description:   "Creates an empty draft, or a draft seeded from template_id.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body CreateSurveyRequest `json:"body"`
	}) (*surveyBody, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		in := input.Body
		if in.TemplateID == "" {
			s, err := h.engine.CreateSurvey(ctx, p.OwnerID, in.Title, in.Description)
			if err != nil {
				return nil, h.handleError(err)
			}
			return &surveyBody{Body: s}, nil
		}
		tmpl, err := survey.TemplateByID(in.TemplateID)
		if err != nil {
			return nil, h.handleError(err)
		}
		if err := h.requireTemplate(p, tmpl); err != nil {
			return nil, h.handleError(err)
		}
		s, err := h.engine.CreateFromTemplate(ctx, p.OwnerID, tmpl.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		if in.Title != "" || in.Description != "" {
			if in.Title != "" {
				s.Title = in.Title
			}
			if in.Description != "" {
				s.Description = in.Description
			}
			if s, err = h.engine.SaveSurvey(ctx, s); err != nil {
				return nil, h.handleError(err)
			}
		}
		return &surveyBody{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "import-survey",
		Method:        http.MethodPost,
		Path:          "/surveys/import",
		Summary:       "Import survey",
		Description:   "Stores a survey document as a new draft. Missing question ids are assigned and legacy types normalized.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body ImportSurveyRequest `json:"body"`
	}) (*surveyBody, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		in := input.Body.survey()
		question.NormalizeSurvey(&in)
		if err := p.RequireTypes(h.engine.Registry, in.Questions); err != nil {
			return nil, h.handleError(err)
		}
		s, err := h.engine.ImportSurvey(ctx, p.OwnerID, in)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &surveyBody{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-survey",
		Method:      http.MethodGet,
		Path:        "/surveys/{survey_id}",
		Summary:     "Get stored survey",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *surveyPath) (*surveyBody, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		s, err := h.engine.LoadSurvey(ctx, input.SurveyID, p.OwnerID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &surveyBody{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-survey",
		Method:      http.MethodPatch,
		Path:        "/surveys/{survey_id}",
		Summary:     "Update survey metadata",
		Description: "Applies title, description or settings through the editing session and saves immediately.",
		Errors:      []int{http.StatusNotFound, http.StatusForbidden, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *struct {
		SurveyID string          `path:"survey_id"`
		Body     survey.Metadata `json:"body"`
	}) (*surveyBody, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		ed, err := h.sessions.Open(ctx, input.SurveyID, p.OwnerID)
		if err != nil {
			return nil, h.handleError(err)
		}
		ed.SetMetadata(input.Body)
		s, err := ed.Save(ctx)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &surveyBody{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-survey",
		Method:        http.MethodDelete,
		Path:          "/surveys/{survey_id}",
		Summary:       "Delete survey",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *surveyPath) (*struct{}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := h.sessions.Lookup(input.SurveyID, p.OwnerID); ok {
			h.sessions.Discard(input.SurveyID)
		}
		if err := h.engine.DeleteSurvey(ctx, input.SurveyID, p.OwnerID); err != nil {
			return nil, h.handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "validate-survey",
		Method:      http.MethodGet,
		Path:        "/surveys/{survey_id}/validation",
		Summary:     "Validate stored survey",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *surveyPath) (*struct {
		Body domain.SurveyValidation `json:"body"`
	}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		v, err := h.engine.ValidateSurvey(ctx, input.SurveyID, p.OwnerID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body domain.SurveyValidation `json:"body"`
		}{Body: v}, nil
	})
}
