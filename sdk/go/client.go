package surveylinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Surveyline HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v1",
		Timeout:  10 * time.Second,
	}
}

// Question mirrors the API question model. Settings stay untyped.
type Question struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required"`
	Hidden      bool           `json:"hidden"`
	Settings    map[string]any `json:"settings"`
}

type Survey struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      string         `json:"status"`
	Questions   []Question     `json:"questions"`
	Settings    map[string]any `json:"settings"`
	CreatedAt   string         `json:"created_at,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
	PublishedAt string         `json:"published_at,omitempty"`
}

type SurveySummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	QuestionCount int    `json:"question_count"`
	UpdatedAt     string `json:"updated_at"`
}

// SessionState is the editing session view returned by session calls.
type SessionState struct {
	Survey      Survey   `json:"survey"`
	ActiveID    string   `json:"active_id,omitempty"`
	Selected    []string `json:"selected"`
	Pending     string   `json:"pending_bulk_action,omitempty"`
	Dirty       bool     `json:"dirty"`
	LastSavedAt string   `json:"last_saved_at,omitempty"`
}

type Mutation struct {
	Changed  bool         `json:"changed"`
	Question *Question    `json:"question,omitempty"`
	State    SessionState `json:"state"`
}

type BulkResult struct {
	Result struct {
		Action   string     `json:"action"`
		Affected int        `json:"affected"`
		Created  []Question `json:"created,omitempty"`
	} `json:"result"`
	State SessionState `json:"state"`
}

type QuestionType struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	PlanRequired string `json:"plan_required,omitempty"`
	Available    bool   `json:"available"`
}

type LibraryQuestion struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	Tags       []string       `json:"tags"`
	IsPublic   bool           `json:"is_public"`
	Question   map[string]any `json:"question_data"`
	UsageCount int            `json:"usage_count"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	SurveyID   string `json:"survey_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// IsConfirmationRequired reports whether err asks for a bulk confirmation.
func IsConfirmationRequired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "confirmation_required"
}

// QuestionInput describes a question to add. Zero fields take the type
// defaults; LibraryID copies a library question instead.
type QuestionInput struct {
	Type        string         `json:"type,omitempty"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Options     []string       `json:"options,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	LibraryID   string         `json:"library_id,omitempty"`
}

// QuestionPatch is a partial question update; nil fields are left alone.
type QuestionPatch struct {
	Type        *string        `json:"type,omitempty"`
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Required    *bool          `json:"required,omitempty"`
	Hidden      *bool          `json:"hidden,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

func (c *Client) QuestionTypes(ctx context.Context) ([]QuestionType, error) {
	var resp []QuestionType
	err := c.do(ctx, http.MethodGet, "question-types", nil, &resp)
	return resp, err
}

// CreateSurvey creates a draft, optionally seeded from a template.
func (c *Client) CreateSurvey(ctx context.Context, title, templateID string) (Survey, error) {
	body := map[string]any{}
	if title != "" {
		body["title"] = title
	}
	if templateID != "" {
		body["template_id"] = templateID
	}
	var resp Survey
	err := c.do(ctx, http.MethodPost, "surveys", body, &resp)
	return resp, err
}

func (c *Client) ListSurveys(ctx context.Context, status string) ([]SurveySummary, error) {
	endpoint := "surveys"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp []SurveySummary
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) GetSurvey(ctx context.Context, id string) (Survey, error) {
	var resp Survey
	err := c.do(ctx, http.MethodGet, c.surveyPath(id, ""), nil, &resp)
	return resp, err
}

func (c *Client) DeleteSurvey(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.surveyPath(id, ""), nil, nil)
}

// OpenSession starts (or resumes) editing a survey.
func (c *Client) OpenSession(ctx context.Context, surveyID string) (SessionState, error) {
	var resp SessionState
	err := c.do(ctx, http.MethodPost, c.surveyPath(surveyID, "session"), nil, &resp)
	return resp, err
}

// CloseSession saves pending edits and ends the session.
func (c *Client) CloseSession(ctx context.Context, surveyID string) error {
	return c.do(ctx, http.MethodDelete, c.surveyPath(surveyID, "session"), nil, nil)
}

func (c *Client) AddQuestion(ctx context.Context, surveyID string, in QuestionInput) (Mutation, error) {
	var resp Mutation
	err := c.do(ctx, http.MethodPost, c.surveyPath(surveyID, "session/questions"), in, &resp)
	return resp, err
}

func (c *Client) UpdateQuestion(ctx context.Context, surveyID, questionID string, patch QuestionPatch) (Mutation, error) {
	var resp Mutation
	err := c.do(ctx, http.MethodPatch, c.surveyPath(surveyID, "session/questions/"+url.PathEscape(questionID)), patch, &resp)
	return resp, err
}

func (c *Client) DeleteQuestion(ctx context.Context, surveyID, questionID string) (Mutation, error) {
	var resp Mutation
	err := c.do(ctx, http.MethodDelete, c.surveyPath(surveyID, "session/questions/"+url.PathEscape(questionID)), nil, &resp)
	return resp, err
}

func (c *Client) Reorder(ctx context.Context, surveyID string, from, to int) (Mutation, error) {
	var resp Mutation
	err := c.do(ctx, http.MethodPost, c.surveyPath(surveyID, "session/reorder"), map[string]int{"from": from, "to": to}, &resp)
	return resp, err
}

// Select replaces the session selection.
func (c *Client) Select(ctx context.Context, surveyID string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return c.do(ctx, http.MethodPut, c.surveyPath(surveyID, "session/selection"), map[string]any{"ids": ids}, nil)
}

// Bulk runs action on the selection. delete and duplicate fail with a
// confirmation_required error until ConfirmBulk is called.
func (c *Client) Bulk(ctx context.Context, surveyID, action string) (BulkResult, error) {
	var resp BulkResult
	err := c.do(ctx, http.MethodPost, c.surveyPath(surveyID, "session/bulk"), map[string]string{"action": action}, &resp)
	return resp, err
}

func (c *Client) ConfirmBulk(ctx context.Context, surveyID string) (BulkResult, error) {
	var resp BulkResult
	err := c.do(ctx, http.MethodPost, c.surveyPath(surveyID, "session/bulk/confirm"), nil, &resp)
	return resp, err
}

func (c *Client) Save(ctx context.Context, surveyID string) (Survey, error) {
	var resp Survey
	err := c.do(ctx, http.MethodPost, c.surveyPath(surveyID, "session/save"), nil, &resp)
	return resp, err
}

func (c *Client) Publish(ctx context.Context, surveyID string) (Survey, error) {
	var resp Survey
	err := c.do(ctx, http.MethodPost, c.surveyPath(surveyID, "session/publish"), nil, &resp)
	return resp, err
}

func (c *Client) Unpublish(ctx context.Context, surveyID string) (Survey, error) {
	var resp Survey
	err := c.do(ctx, http.MethodPost, c.surveyPath(surveyID, "session/unpublish"), nil, &resp)
	return resp, err
}

func (c *Client) Library(ctx context.Context, search string) ([]LibraryQuestion, error) {
	endpoint := "library"
	if search != "" {
		endpoint += "?search=" + url.QueryEscape(search)
	}
	var resp []LibraryQuestion
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// SaveToLibrary copies a survey question into the library.
func (c *Client) SaveToLibrary(ctx context.Context, surveyID, questionID, name string, public bool) (LibraryQuestion, error) {
	body := map[string]any{"name": name, "is_public": public}
	var resp LibraryQuestion
	err := c.do(ctx, http.MethodPost, c.surveyPath(surveyID, "questions/"+url.PathEscape(questionID)+"/library"), body, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := "events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &envelope) == nil {
			apiErr.Code, apiErr.Message = envelope.Error.Code, envelope.Error.Message
		}
		return apiErr
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) surveyPath(id, rest string) string {
	p := "surveys/" + url.PathEscape(id)
	if rest != "" {
		p += "/" + strings.TrimLeft(rest, "/")
	}
	return p
}

func (c *Client) base() string {
	basePath := c.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.Trim(basePath, "/")
}
