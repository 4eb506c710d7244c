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

type questionPath struct {
	SurveyID   string `path:"survey_id"`
	QuestionID string `path:"question_id"`
}

type stateBody struct {
	Body survey.State `json:"body"`
}

type mutationBody struct {
	Body MutationResponse `json:"body"`
}

// editor opens, or reuses, the caller's editing session of surveyID.
func (h handlers) editor(ctx context.Context, surveyID string) (*survey.Editor, auth.Principal, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, p, err
	}
	ed, err := h.sessions.Open(ctx, surveyID, p.OwnerID)
	if err != nil {
		return nil, p, h.handleError(err)
	}
	return ed, p, nil
}

// newQuestion builds the question an add request describes, enforcing the
// caller's plan on its type.
func (h handlers) newQuestion(ctx context.Context, p auth.Principal, in AddQuestionRequest) (domain.Question, error) {
	reg := h.engine.Registry
	if in.LibraryID != "" {
		return h.engine.BuildFromLibrary(ctx, p, in.LibraryID)
	}
	t := question.Normalize(in.Type)
	if !reg.Has(t) {
		return domain.Question{}, domain.UnknownTypeError{Type: t}
	}
	if err := p.RequireType(reg, t); err != nil {
		return domain.Question{}, err
	}
	return h.engine.Factory.CreateFromTemplate(in.partial())
}

func (h handlers) registerSession(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "open-session",
		Method:      http.MethodPost,
		Path:        "/surveys/{survey_id}/session",
		Summary:     "Open editing session",
		Description: "Loads the stored survey into an editor. Opening an already open session returns its current state.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *surveyPath) (*stateBody, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		return &stateBody{Body: ed.State()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/surveys/{survey_id}/session",
		Summary:     "Session state",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *surveyPath) (*stateBody, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		ed, ok := h.sessions.Lookup(input.SurveyID, p.OwnerID)
		if !ok {
			return nil, h.handleError(domain.NotFoundError{Kind: "session", ID: input.SurveyID})
		}
		return &stateBody{Body: ed.State()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "close-session",
		Method:        http.MethodDelete,
		Path:          "/surveys/{survey_id}/session",
		Summary:       "Close editing session",
		Description:   "Saves pending changes and closes the session. A failed save leaves it open.",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *surveyPath) (*struct{}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		if err := h.sessions.Close(ctx, input.SurveyID, p.OwnerID); err != nil {
			return nil, h.handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-question",
		Method:        http.MethodPost,
		Path:          "/surveys/{survey_id}/session/questions",
		Summary:       "Add question",
		Description:   "Adds a question of type, seeded from the supplied fields, or copied from library_id.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		SurveyID string             `path:"survey_id"`
		Body     AddQuestionRequest `json:"body"`
	}) (*mutationBody, error) {
		ed, p, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		if input.Body.LibraryID == "" && strings.TrimSpace(input.Body.Type) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "type or library_id is required", nil)
		}
		q, err := h.newQuestion(ctx, p, input.Body)
		if err != nil {
			return nil, h.handleError(err)
		}
		added, err := ed.AddQuestion(q)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &mutationBody{Body: MutationResponse{Changed: true, Question: &added, State: ed.State()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "filter-questions",
		Method:      http.MethodGet,
		Path:        "/surveys/{survey_id}/session/questions",
		Summary:     "Filter questions",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SurveyID string `path:"survey_id"`
		Search   string `query:"search"`
		Type     string `query:"type"`
	}) (*struct {
		Body []domain.Question `json:"body"`
	}, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		var t domain.QuestionType
		if input.Type != "" {
			t = question.Normalize(input.Type)
		}
		return &struct {
			Body []domain.Question `json:"body"`
		}{Body: nonNilSlice(ed.Filter(input.Search, t))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-question",
		Method:      http.MethodPatch,
		Path:        "/surveys/{survey_id}/session/questions/{question_id}",
		Summary:     "Update question",
		Description: "Applies a partial update. An unknown question id changes nothing and reports changed=false.",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		SurveyID   string               `path:"survey_id"`
		QuestionID string               `path:"question_id"`
		Body       domain.QuestionPatch `json:"body"`
	}) (*mutationBody, error) {
		ed, p, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		if input.Body.Type != nil {
			if err := p.RequireType(h.engine.Registry, question.Normalize(string(*input.Body.Type))); err != nil {
				return nil, h.handleError(err)
			}
		}
		changed, err := ed.UpdateQuestion(input.QuestionID, input.Body)
		if err != nil {
			return nil, h.handleError(err)
		}
		out := MutationResponse{Changed: changed, State: ed.State()}
		if q, ok := findQuestion(out.State.Survey, input.QuestionID); ok {
			out.Question = &q
		}
		return &mutationBody{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-question",
		Method:      http.MethodDelete,
		Path:        "/surveys/{survey_id}/session/questions/{question_id}",
		Summary:     "Delete question",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *questionPath) (*mutationBody, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		if !ed.DeleteQuestion(input.QuestionID) {
			return nil, h.handleError(domain.NotFoundError{Kind: "question", ID: input.QuestionID})
		}
		return &mutationBody{Body: MutationResponse{Changed: true, State: ed.State()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "duplicate-question",
		Method:        http.MethodPost,
		Path:          "/surveys/{survey_id}/session/questions/{question_id}/duplicate",
		Summary:       "Duplicate question",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *questionPath) (*mutationBody, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		dup, ok := ed.DuplicateQuestion(input.QuestionID)
		if !ok {
			return nil, h.handleError(domain.NotFoundError{Kind: "question", ID: input.QuestionID})
		}
		return &mutationBody{Body: MutationResponse{Changed: true, Question: &dup, State: ed.State()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reorder-questions",
		Method:      http.MethodPost,
		Path:        "/surveys/{survey_id}/session/reorder",
		Summary:     "Move a question",
		Description: "Moves the question at index from to index to.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SurveyID string         `path:"survey_id"`
		Body     ReorderRequest `json:"body"`
	}) (*mutationBody, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		if err := ed.Reorder(input.Body.From, input.Body.To); err != nil {
			return nil, h.handleError(err)
		}
		return &mutationBody{Body: MutationResponse{Changed: input.Body.From != input.Body.To, State: ed.State()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "apply-template",
		Method:      http.MethodPost,
		Path:        "/surveys/{survey_id}/session/template",
		Summary:     "Apply template",
		Description: "Replaces title, description and questions with the template's.",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SurveyID string          `path:"survey_id"`
		Body     TemplateRequest `json:"body"`
	}) (*mutationBody, error) {
		ed, p, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		tmpl, err := survey.TemplateByID(input.Body.TemplateID)
		if err != nil {
			return nil, h.handleError(err)
		}
		if err := h.requireTemplate(p, tmpl); err != nil {
			return nil, h.handleError(err)
		}
		if err := ed.ApplyTemplate(tmpl); err != nil {
			return nil, h.handleError(err)
		}
		return &mutationBody{Body: MutationResponse{Changed: true, State: ed.State()}}, nil
	})

	saveOp := func(id, path, summary string, run func(*survey.Editor, context.Context) (domain.Survey, error)) {
		huma.Register(api, huma.Operation{
			OperationID: id,
			Method:      http.MethodPost,
			Path:        path,
			Summary:     summary,
			Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusServiceUnavailable},
		}, func(ctx context.Context, input *surveyPath) (*surveyBody, error) {
			ed, _, err := h.editor(ctx, input.SurveyID)
			if err != nil {
				return nil, err
			}
			s, err := run(ed, ctx)
			if err != nil {
				return nil, h.handleError(err)
			}
			return &surveyBody{Body: s}, nil
		})
	}
	saveOp("save-survey", "/surveys/{survey_id}/session/save", "Save now", (*survey.Editor).Save)
	saveOp("publish-survey", "/surveys/{survey_id}/session/publish", "Publish survey", (*survey.Editor).Publish)
	saveOp("unpublish-survey", "/surveys/{survey_id}/session/unpublish", "Unpublish survey", (*survey.Editor).Unpublish)

	huma.Register(api, huma.Operation{
		OperationID: "autosave-status",
		Method:      http.MethodGet,
		Path:        "/surveys/{survey_id}/session/autosave",
		Summary:     "Autosave status",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *surveyPath) (*struct {
		Body AutosaveStatus `json:"body"`
	}, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		c := ed.Autosave()
		status := AutosaveStatus{
			Enabled:         h.sessions.Autosave,
			IntervalSeconds: int(h.sessions.Interval.Seconds()),
			Dirty:           c.Dirty(),
		}
		if at, ok := c.LastSavedAt(); ok {
			status.LastSavedAt = formatTime(at)
		}
		return &struct {
			Body AutosaveStatus `json:"body"`
		}{Body: status}, nil
	})
}

func (h handlers) registerSelection(api huma.API) {
	selection := func(ed *survey.Editor) *struct {
		Body SelectionResponse `json:"body"`
	} {
		st := ed.State()
		return &struct {
			Body SelectionResponse `json:"body"`
		}{Body: SelectionResponse{Selected: nonNilSlice(st.Selected), Pending: string(st.Pending)}}
	}

	huma.Register(api, huma.Operation{
		OperationID: "set-selection",
		Method:      http.MethodPut,
		Path:        "/surveys/{survey_id}/session/selection",
		Summary:     "Replace selection",
		Description: "Unknown ids are ignored.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SurveyID string           `path:"survey_id"`
		Body     SelectionRequest `json:"body"`
	}) (*struct {
		Body SelectionResponse `json:"body"`
	}, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		ed.Select(input.Body.IDs)
		return selection(ed), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-selection",
		Method:      http.MethodPost,
		Path:        "/surveys/{survey_id}/session/selection/toggle",
		Summary:     "Toggle one question",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SurveyID string        `path:"survey_id"`
		Body     ToggleRequest `json:"body"`
	}) (*struct {
		Body SelectionResponse `json:"body"`
	}, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		if _, ok := findQuestion(ed.Survey(), input.Body.ID); !ok {
			return nil, h.handleError(domain.NotFoundError{Kind: "question", ID: input.Body.ID})
		}
		ed.Toggle(input.Body.ID)
		return selection(ed), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "select-all",
		Method:      http.MethodPost,
		Path:        "/surveys/{survey_id}/session/selection/all",
		Summary:     "Select all or none",
		Description: "Selects every question, or clears the selection when all are already selected.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *surveyPath) (*struct {
		Body SelectionResponse `json:"body"`
	}, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		ed.SelectAll()
		return selection(ed), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "clear-selection",
		Method:      http.MethodDelete,
		Path:        "/surveys/{survey_id}/session/selection",
		Summary:     "Clear selection",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *surveyPath) (*struct {
		Body SelectionResponse `json:"body"`
	}, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		ed.ClearSelection()
		return selection(ed), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bulk-action",
		Method:      http.MethodPost,
		Path:        "/surveys/{survey_id}/session/bulk",
		Summary:     "Run bulk action",
		Description: "delete and duplicate are held until confirmed and answer 409 confirmation_required.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		SurveyID string      `path:"survey_id"`
		Body     BulkRequest `json:"body"`
	}) (*struct {
		Body BulkResponse `json:"body"`
	}, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		action, err := survey.ParseBulkAction(input.Body.Action)
		if err != nil {
			return nil, h.handleError(err)
		}
		res, err := ed.RequestBulk(action)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body BulkResponse `json:"body"`
		}{Body: BulkResponse{Result: res, State: ed.State()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "confirm-bulk",
		Method:      http.MethodPost,
		Path:        "/surveys/{survey_id}/session/bulk/confirm",
		Summary:     "Confirm pending bulk action",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *surveyPath) (*struct {
		Body BulkResponse `json:"body"`
	}, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		res, err := ed.ConfirmBulk()
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body BulkResponse `json:"body"`
		}{Body: BulkResponse{Result: res, State: ed.State()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-bulk",
		Method:      http.MethodDelete,
		Path:        "/surveys/{survey_id}/session/bulk",
		Summary:     "Cancel pending bulk action",
		Description: "The selection is kept.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *surveyPath) (*struct {
		Body SelectionResponse `json:"body"`
	}, error) {
		ed, _, err := h.editor(ctx, input.SurveyID)
		if err != nil {
			return nil, err
		}
		ed.CancelBulk()
		return selection(ed), nil
	})
}

func findQuestion(s domain.Survey, id string) (domain.Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Question{}, false
}
