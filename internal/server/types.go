package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"surveyline/internal/domain"
	"surveyline/internal/question"
	"surveyline/internal/survey"
)

func (h handlers) registerTypes(api huma.API) {
	reg := h.engine.Registry

	huma.Register(api, huma.Operation{
		OperationID: "list-question-types",
		Method:      http.MethodGet,
		Path:        "/question-types",
		Summary:     "List question types",
		Description: "Types are grouped by category. available reflects the caller's plan.",
	}, func(ctx context.Context, input *struct {
		Category string `query:"category"`
	}) (*struct {
		Body []QuestionTypeResponse `json:"body"`
	}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		types := reg.ListTypes()
		if input.Category != "" {
			types = reg.ByCategory(input.Category)
		}
		out := make([]QuestionTypeResponse, 0, len(types))
		for _, t := range types {
			out = append(out, typeResponse(t, reg.HasAccess(t.Key, p.Plan, p.Role)))
		}
		return &struct {
			Body []QuestionTypeResponse `json:"body"`
		}{Body: out}, nil
	})

	type typePath struct {
		Type string `path:"type"`
	}
	lookup := func(ctx context.Context, raw string) (question.Type, bool, error) {
		p, err := principal(ctx)
		if err != nil {
			return question.Type{}, false, err
		}
		t, err := reg.GetType(question.Normalize(raw))
		if err != nil {
			return question.Type{}, false, h.handleError(err)
		}
		return t, reg.HasAccess(t.Key, p.Plan, p.Role), nil
	}

	huma.Register(api, huma.Operation{
		OperationID: "get-question-type",
		Method:      http.MethodGet,
		Path:        "/question-types/{type}",
		Summary:     "Get question type",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *typePath) (*struct {
		Body QuestionTypeDetail `json:"body"`
	}, error) {
		t, available, err := lookup(ctx, input.Type)
		if err != nil {
			return nil, err
		}
		return &struct {
			Body QuestionTypeDetail `json:"body"`
		}{Body: QuestionTypeDetail{QuestionTypeResponse: typeResponse(t, available), DefaultSettings: t.Defaults()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-question-type-defaults",
		Method:      http.MethodGet,
		Path:        "/question-types/{type}/defaults",
		Summary:     "Default settings of a type",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *typePath) (*struct {
		Body domain.Settings `json:"body"`
	}, error) {
		t, _, err := lookup(ctx, input.Type)
		if err != nil {
			return nil, err
		}
		return &struct {
			Body domain.Settings `json:"body"`
		}{Body: t.Defaults()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "validate-question",
		Method:      http.MethodPost,
		Path:        "/questions/validate",
		Summary:     "Validate a question",
		Description: "Validates a question without storing it and reports completion and a one-line preview.",
		Errors:      []int{http.StatusBadRequest, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body question.Partial `json:"body"`
	}) (*struct {
		Body ValidateQuestionResponse `json:"body"`
	}, error) {
		if _, err := principal(ctx); err != nil {
			return nil, err
		}
		data, err := partialToData(reg, input.Body)
		if err != nil {
			return nil, h.handleError(err)
		}
		q := domain.Question{Type: data.Type, Title: data.Title, Description: data.Description, Required: data.Required, Settings: data.Settings}
		res := question.Validate(q)
		return &struct {
			Body ValidateQuestionResponse `json:"body"`
		}{Body: ValidateQuestionResponse{
			IsValid:    res.IsValid,
			Errors:     res.Errors,
			Completion: question.CompletionPercentage(q),
			Preview:    question.Preview(q),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-templates",
		Method:      http.MethodGet,
		Path:        "/templates",
		Summary:     "List survey templates",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []survey.Template `json:"body"`
	}, error) {
		items, err := survey.Templates()
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body []survey.Template `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-template",
		Method:      http.MethodGet,
		Path:        "/templates/{template_id}",
		Summary:     "Get survey template",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TemplateID string `path:"template_id"`
	}) (*struct {
		Body survey.Template `json:"body"`
	}, error) {
		t, err := survey.TemplateByID(input.TemplateID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body survey.Template `json:"body"`
		}{Body: t}, nil
	})
}
