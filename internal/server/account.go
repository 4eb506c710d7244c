package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"surveyline/internal/domain"
	"surveyline/internal/engine/auth"
	"surveyline/internal/question"
	"surveyline/internal/repo"
)

func (h handlers) registerAccount(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current principal",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body auth.Principal `json:"body"`
	}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		return &struct {
			Body auth.Principal `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "Mint a development token",
		Description: "Only available when auth.dev_login is enabled.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		if !h.auth.DevLogin {
			return nil, newAPIError(http.StatusNotFound, "not_found", "dev login disabled", nil)
		}
		owner := strings.TrimSpace(input.Body.OwnerID)
		if owner == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "owner_id is required", nil)
		}
		plan := h.auth.defaultPlan()
		if input.Body.Plan != "" {
			plan = question.ParsePlan(input.Body.Plan)
		}
		now := time.Now()
		if h.engine.Now != nil {
			now = h.engine.Now()
		}
		ttl := h.auth.TokenTTL
		token, err := signDevToken(h.auth.JWTSecret, owner, plan, input.Body.Role, ttl, now)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		if ttl <= 0 {
			ttl = defaultTokenTTL
		}
		h.log.Info("dev token issued", "owner_id", owner, "plan", plan)
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: token, ExpiresAt: formatTime(now.Add(ttl))}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/api-keys",
		Summary:     "List API keys",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.APIKey `json:"body"`
	}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		keys, err := h.engine.ListAPIKeys(ctx, p.OwnerID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body []domain.APIKey `json:"body"`
		}{Body: nonNilSlice(keys)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/api-keys",
		Summary:       "Create API key",
		Description:   "The raw key is returned once.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body CreateAPIKeyRequest `json:"body"`
	}) (*struct {
		Body CreateAPIKeyResponse `json:"body"`
	}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		key, raw, err := h.engine.CreateAPIKey(ctx, p.OwnerID, input.Body.Name)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body CreateAPIKeyResponse `json:"body"`
		}{Body: CreateAPIKeyResponse{Key: raw, APIKey: key}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-api-key",
		Method:        http.MethodDelete,
		Path:          "/api-keys/{key_id}",
		Summary:       "Revoke API key",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		KeyID string `path:"key_id"`
	}) (*struct{}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		if err := h.engine.DeleteAPIKey(ctx, input.KeyID, p.OwnerID); err != nil {
			return nil, h.handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List events",
		Description: "Newest first. Pass next_cursor back as cursor to page further.",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Limit    int    `query:"limit" minimum:"0" maximum:"200"`
		Cursor   string `query:"cursor"`
		SurveyID string `query:"survey_id"`
		Type     string `query:"type"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		var cursor int64
		if input.Cursor != "" {
			cursor, err = strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil || cursor < 0 {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", nil)
			}
		}
		limit := normalizeLimit(input.Limit)
		items, err := h.engine.ListEvents(ctx, limit, cursor, repo.EventFilter{
			OwnerID:  p.OwnerID,
			SurveyID: input.SurveyID,
			Type:     input.Type,
		})
		if err != nil {
			return nil, h.handleError(err)
		}
		out := paginatedEvents{Items: nonNilSlice(items)}
		if len(items) == limit {
			out.NextCursor = strconv.FormatInt(items[len(items)-1].ID, 10)
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: out}, nil
	})
}
