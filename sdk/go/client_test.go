package surveylinesdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"surveyline/internal/config"
	"surveyline/internal/db"
	"surveyline/internal/engine"
	"surveyline/internal/migrate"
	"surveyline/internal/server"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	conn, dialect, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn, dialect); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, dialect, config.Default(), nil)
	sessions := engine.NewSessions(e)
	sessions.Autosave = false
	handler, err := server.New(server.Config{
		Engine:   e,
		Sessions: sessions,
		Auth:     server.AuthConfig{JWTSecret: "sdk-secret", DevLogin: true},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	var login struct {
		Token string `json:"token"`
	}
	if err := c.do(context.Background(), http.MethodPost, "auth/dev/login", map[string]string{"owner_id": "sdk-owner", "plan": "pro"}, &login); err != nil {
		t.Fatalf("dev login: %v", err)
	}
	c.BearerToken = login.Token
	return c
}

func TestClientSurveyLifecycle(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	s, err := c.CreateSurvey(ctx, "Onboarding feedback", "")
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	if s.Status != "draft" {
		t.Fatalf("expected draft, got %s", s.Status)
	}
	if _, err := c.OpenSession(ctx, s.ID); err != nil {
		t.Fatalf("open session: %v", err)
	}
	m, err := c.AddQuestion(ctx, s.ID, QuestionInput{Type: "radio", Title: "Pick one", Options: []string{"A", "B"}})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if m.Question == nil || m.Question.Type != "multiple_choice" {
		t.Fatalf("expected normalized multiple_choice, got %+v", m.Question)
	}
	if _, err := c.AddQuestion(ctx, s.ID, QuestionInput{Type: "text", Title: "Anything else?"}); err != nil {
		t.Fatalf("add second question: %v", err)
	}
	m, err = c.Reorder(ctx, s.ID, 1, 0)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got := m.State.Survey.Questions[0].Title; got != "Anything else?" {
		t.Fatalf("unexpected first question after reorder: %s", got)
	}

	published, err := c.Publish(ctx, s.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.Status != "published" || published.PublishedAt == "" {
		t.Fatalf("unexpected publish result: %+v", published)
	}
	if err := c.CloseSession(ctx, s.ID); err != nil {
		t.Fatalf("close session: %v", err)
	}

	list, err := c.ListSurveys(ctx, "published")
	if err != nil {
		t.Fatalf("list surveys: %v", err)
	}
	if len(list) != 1 || list[0].QuestionCount != 2 {
		t.Fatalf("unexpected listing: %+v", list)
	}

	page, err := c.EventsPage(ctx, 100, "")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(page.Items) == 0 {
		t.Fatalf("expected events to be recorded")
	}
}

func TestClientBulkDeleteNeedsConfirmation(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	s, err := c.CreateSurvey(ctx, "Bulk", "")
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	m, err := c.AddQuestion(ctx, s.ID, QuestionInput{Type: "text", Title: "One"})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if err := c.Select(ctx, s.ID, []string{m.Question.ID}); err != nil {
		t.Fatalf("select: %v", err)
	}
	_, err = c.Bulk(ctx, s.ID, "delete")
	if !IsConfirmationRequired(err) {
		t.Fatalf("expected confirmation_required, got %v", err)
	}
	res, err := c.ConfirmBulk(ctx, s.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Result.Affected != 1 || len(res.State.Survey.Questions) != 0 {
		t.Fatalf("unexpected bulk result: %+v", res)
	}
}

func TestClientReportsAPIErrors(t *testing.T) {
	c := newTestClient(t)
	_, err := c.GetSurvey(context.Background(), "missing")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "not_found" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}

	c.BearerToken = ""
	if _, err := c.ListSurveys(context.Background(), ""); err == nil {
		t.Fatalf("expected unauthorized without credentials")
	}
}
