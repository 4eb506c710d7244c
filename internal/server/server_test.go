package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"surveyline/internal/config"
	"surveyline/internal/db"
	"surveyline/internal/domain"
	"surveyline/internal/engine"
	"surveyline/internal/migrate"
	"surveyline/internal/survey"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestEngine(t *testing.T) engine.Engine {
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
	e.Now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	e := newTestEngine(t)
	sessions := engine.NewSessions(e)
	sessions.Autosave = false
	handler, err := New(Config{
		Engine:   e,
		Sessions: sessions,
		BasePath: "/v1",
		Auth:     AuthConfig{JWTSecret: testSecret, DevLogin: true, AllowOwnerHeader: true},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			sessions.CloseAll(context.Background())
			srv.Shutdown(context.Background())
			ln.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func owner(id string) map[string]string {
	return map[string]string{"X-Owner-Id": id}
}

func ownerWithPlan(id, plan string) map[string]string {
	return map[string]string{"X-Owner-Id": id, "X-Plan": plan}
}

func expectStatus(t *testing.T, res *http.Response, data []byte, want int) {
	t.Helper()
	if res.StatusCode != want {
		t.Fatalf("status %d, want %d: %s", res.StatusCode, want, string(data))
	}
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal error: %v: %s", err, string(data))
	}
	return body.Error.Code
}

func createSurvey(t *testing.T, srv *testServer, headers map[string]string, body map[string]any) domain.Survey {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/surveys", body, headers)
	expectStatus(t, res, data, http.StatusCreated)
	var s domain.Survey
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal survey: %v", err)
	}
	return s
}

func addQuestion(t *testing.T, srv *testServer, headers map[string]string, surveyID string, body map[string]any) MutationResponse {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/surveys/"+surveyID+"/session/questions", body, headers)
	expectStatus(t, res, data, http.StatusCreated)
	var out MutationResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal mutation: %v", err)
	}
	return out
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/surveys", nil, nil)
	expectStatus(t, res, data, http.StatusUnauthorized)

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	expectStatus(t, res, data, http.StatusOK)
}

func TestPublishFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	h := owner("alice")
	client := srv.Client()

	s := createSurvey(t, srv, h, map[string]any{})
	if s.Status != domain.StatusDraft {
		t.Fatalf("expected draft, got %s", s.Status)
	}

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/surveys/"+s.ID+"/session/publish", nil, h)
	expectStatus(t, res, data, http.StatusUnprocessableEntity)
	if code := errorCode(t, data); code != "validation_failed" {
		t.Fatalf("expected validation_failed, got %s", code)
	}
	if !bytes.Contains(data, []byte("Please add a title before publishing")) {
		t.Fatalf("expected title refusal, got %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v1/surveys/"+s.ID, map[string]any{"title": "Team pulse"}, h)
	expectStatus(t, res, data, http.StatusOK)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/surveys/"+s.ID+"/session/publish", nil, h)
	expectStatus(t, res, data, http.StatusUnprocessableEntity)
	if !bytes.Contains(data, []byte("at least one question")) {
		t.Fatalf("expected question refusal, got %s", string(data))
	}

	added := addQuestion(t, srv, h, s.ID, map[string]any{"type": "text", "title": "What went well?"})
	if added.Question == nil || added.Question.Title != "What went well?" {
		t.Fatalf("unexpected added question %+v", added.Question)
	}
	if !added.State.Dirty {
		t.Fatalf("expected dirty session after add")
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/surveys/"+s.ID+"/session/publish", nil, h)
	expectStatus(t, res, data, http.StatusOK)
	var published domain.Survey
	if err := json.Unmarshal(data, &published); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if published.Status != domain.StatusPublished || published.PublishedAt == "" {
		t.Fatalf("expected published survey, got %+v", published)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/surveys?status=published", nil, h)
	expectStatus(t, res, data, http.StatusOK)
	var list []domain.SurveySummary
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list) != 1 || list[0].QuestionCount != 1 {
		t.Fatalf("unexpected list %+v", list)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/events?type=survey.published", nil, h)
	expectStatus(t, res, data, http.StatusOK)
	var evts paginatedEvents
	if err := json.Unmarshal(data, &evts); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(evts.Items) != 1 || evts.Items[0].SurveyID != s.ID {
		t.Fatalf("unexpected events %+v", evts.Items)
	}
}

func TestOtherOwnerCannotSeeSurvey(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	s := createSurvey(t, srv, owner("alice"), map[string]any{"title": "Private"})
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/surveys/"+s.ID, nil, owner("bob"))
	expectStatus(t, res, data, http.StatusNotFound)
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/surveys/"+s.ID+"/session", nil, owner("bob"))
	expectStatus(t, res, data, http.StatusNotFound)
}

func TestPlanGating(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	free := owner("alice")
	s := createSurvey(t, srv, free, map[string]any{"title": "Gated"})

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/surveys/"+s.ID+"/session/questions", map[string]any{"type": "nps"}, free)
	expectStatus(t, res, data, http.StatusForbidden)
	if code := errorCode(t, data); code != "plan_required" {
		t.Fatalf("expected plan_required, got %s", code)
	}

	pro := ownerWithPlan("alice", "pro")
	added := addQuestion(t, srv, pro, s.ID, map[string]any{"type": "nps"})
	if added.Question.Type != domain.TypeNPS {
		t.Fatalf("expected nps question, got %s", added.Question.Type)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/surveys/"+s.ID+"/session/questions", map[string]any{"type": "matrix"}, pro)
	expectStatus(t, res, data, http.StatusForbidden)

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/question-types", nil, free)
	expectStatus(t, res, data, http.StatusOK)
	var types []QuestionTypeResponse
	if err := json.Unmarshal(data, &types); err != nil {
		t.Fatalf("unmarshal types: %v", err)
	}
	for _, qt := range types {
		if qt.Type == domain.TypeText && !qt.Available {
			t.Fatalf("text must be available on free")
		}
		if qt.Type == domain.TypeMatrix && qt.Available {
			t.Fatalf("matrix must not be available on free")
		}
	}
}

func TestUnknownQuestionType(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	h := owner("alice")
	s := createSurvey(t, srv, h, map[string]any{"title": "Types"})

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/surveys/"+s.ID+"/session/questions", map[string]any{"type": "hologram"}, h)
	expectStatus(t, res, data, http.StatusBadRequest)
	if code := errorCode(t, data); code != "unknown_question_type" {
		t.Fatalf("expected unknown_question_type, got %s", code)
	}

	added := addQuestion(t, srv, h, s.ID, map[string]any{"type": "radio", "title": "Pick one"})
	if added.Question.Type != domain.TypeMultipleChoice {
		t.Fatalf("legacy radio should normalize, got %s", added.Question.Type)
	}
}

func TestUpdateAndReorder(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	h := owner("alice")
	client := srv.Client()
	s := createSurvey(t, srv, h, map[string]any{"title": "Order"})
	first := addQuestion(t, srv, h, s.ID, map[string]any{"type": "text", "title": "First"})
	addQuestion(t, srv, h, s.ID, map[string]any{"type": "text", "title": "Second"})

	base := srv.URL + "/v1/surveys/" + s.ID + "/session"
	res, data := doJSON(t, client, http.MethodPatch, base+"/questions/"+first.Question.ID, map[string]any{"required": true, "title": "Renamed"}, h)
	expectStatus(t, res, data, http.StatusOK)
	var upd MutationResponse
	if err := json.Unmarshal(data, &upd); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !upd.Changed || upd.Question == nil || !upd.Question.Required || upd.Question.Title != "Renamed" {
		t.Fatalf("unexpected update %+v", upd)
	}

	res, data = doJSON(t, client, http.MethodPatch, base+"/questions/missing", map[string]any{"title": "x"}, h)
	expectStatus(t, res, data, http.StatusOK)
	if err := json.Unmarshal(data, &upd); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if upd.Changed {
		t.Fatalf("unknown id must not report a change")
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/reorder", map[string]any{"from": 0, "to": 5}, h)
	expectStatus(t, res, data, http.StatusBadRequest)

	res, data = doJSON(t, client, http.MethodPost, base+"/reorder", map[string]any{"from": 0, "to": 1}, h)
	expectStatus(t, res, data, http.StatusOK)
	var moved MutationResponse
	if err := json.Unmarshal(data, &moved); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := moved.State.Survey.Questions[1].ID; got != first.Question.ID {
		t.Fatalf("expected first question at index 1, got %s", got)
	}

	res, data = doJSON(t, client, http.MethodPatch, base+"/questions/"+first.Question.ID, map[string]any{"settings": map[string]any{"maxLength": "long"}}, h)
	expectStatus(t, res, data, http.StatusUnprocessableEntity)
}

func TestBulkDeleteNeedsConfirmation(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	h := owner("alice")
	client := srv.Client()
	s := createSurvey(t, srv, h, map[string]any{"title": "Bulk"})
	a := addQuestion(t, srv, h, s.ID, map[string]any{"type": "text", "title": "A"})
	b := addQuestion(t, srv, h, s.ID, map[string]any{"type": "text", "title": "B"})
	addQuestion(t, srv, h, s.ID, map[string]any{"type": "text", "title": "C"})

	base := srv.URL + "/v1/surveys/" + s.ID + "/session"
	res, data := doJSON(t, client, http.MethodPost, base+"/bulk", map[string]any{"action": "delete"}, h)
	expectStatus(t, res, data, http.StatusBadRequest)

	res, data = doJSON(t, client, http.MethodPut, base+"/selection", map[string]any{"ids": []string{a.Question.ID, b.Question.ID, "ghost"}}, h)
	expectStatus(t, res, data, http.StatusOK)
	var sel SelectionResponse
	if err := json.Unmarshal(data, &sel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(sel.Selected) != 2 {
		t.Fatalf("expected 2 selected, got %v", sel.Selected)
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/bulk", map[string]any{"action": "require"}, h)
	expectStatus(t, res, data, http.StatusOK)
	var bulk BulkResponse
	if err := json.Unmarshal(data, &bulk); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if bulk.Result.Affected != 2 {
		t.Fatalf("expected 2 affected, got %d", bulk.Result.Affected)
	}

	res, data = doJSON(t, client, http.MethodPut, base+"/selection", map[string]any{"ids": []string{a.Question.ID, b.Question.ID}}, h)
	expectStatus(t, res, data, http.StatusOK)
	res, data = doJSON(t, client, http.MethodPost, base+"/bulk", map[string]any{"action": "delete"}, h)
	expectStatus(t, res, data, http.StatusConflict)
	if code := errorCode(t, data); code != "confirmation_required" {
		t.Fatalf("expected confirmation_required, got %s", code)
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/bulk/confirm", nil, h)
	expectStatus(t, res, data, http.StatusOK)
	if err := json.Unmarshal(data, &bulk); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if bulk.Result.Action != survey.ActionDelete || bulk.Result.Affected != 2 {
		t.Fatalf("unexpected result %+v", bulk.Result)
	}
	if n := len(bulk.State.Survey.Questions); n != 1 {
		t.Fatalf("expected 1 question left, got %d", n)
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/bulk/confirm", nil, h)
	expectStatus(t, res, data, http.StatusConflict)
}

func TestSessionCloseFlushes(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	h := owner("alice")
	client := srv.Client()
	s := createSurvey(t, srv, h, map[string]any{"title": "Flush"})
	addQuestion(t, srv, h, s.ID, map[string]any{"type": "email", "title": "Contact"})

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v1/surveys/"+s.ID+"/session/autosave", nil, h)
	expectStatus(t, res, data, http.StatusOK)
	var status AutosaveStatus
	if err := json.Unmarshal(data, &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !status.Dirty {
		t.Fatalf("expected dirty before close")
	}

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/v1/surveys/"+s.ID+"/session", nil, h)
	expectStatus(t, res, data, http.StatusNoContent)

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/surveys/"+s.ID, nil, h)
	expectStatus(t, res, data, http.StatusOK)
	var stored domain.Survey
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(stored.Questions) != 1 || stored.Questions[0].Type != domain.TypeEmail {
		t.Fatalf("expected flushed email question, got %+v", stored.Questions)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/surveys/"+s.ID+"/session", nil, h)
	expectStatus(t, res, data, http.StatusNotFound)
}

func TestLibraryRoundTrip(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	h := owner("alice")
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/library", map[string]any{
		"question": map[string]any{"type": "multiple_choice", "title": "Favourite colour", "options": []string{"Red", "Blue"}},
		"tags":     []string{"colour", "colour", " "},
	}, h)
	expectStatus(t, res, data, http.StatusCreated)
	var rec domain.LibraryQuestion
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Name != "Favourite colour" || rec.Category != engine.DefaultLibraryCategory || len(rec.Tags) != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/library", map[string]any{
		"question": map[string]any{"type": "multiple_choice", "title": "Broken", "options": []string{"Same", "Same"}},
	}, h)
	expectStatus(t, res, data, http.StatusUnprocessableEntity)

	s := createSurvey(t, srv, h, map[string]any{"title": "Reuse"})
	added := addQuestion(t, srv, h, s.ID, map[string]any{"library_id": rec.ID})
	if added.Question.Title != "Favourite colour" || added.Question.ID == "" {
		t.Fatalf("unexpected library question %+v", added.Question)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/library?search=colour", nil, h)
	expectStatus(t, res, data, http.StatusOK)
	var items []domain.LibraryQuestion
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 1 || items[0].UsageCount != 1 {
		t.Fatalf("expected usage count 1, got %+v", items)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/surveys/"+s.ID+"/questions/"+added.Question.ID+"/library", map[string]any{"name": "Colour again"}, h)
	expectStatus(t, res, data, http.StatusCreated)

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/v1/library/"+rec.ID, nil, owner("bob"))
	expectStatus(t, res, data, http.StatusNotFound)
	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/v1/library/"+rec.ID, nil, h)
	expectStatus(t, res, data, http.StatusNoContent)
}

func TestValidateQuestionEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/questions/validate", map[string]any{
		"type":     "slider",
		"title":    "Budget",
		"settings": map[string]any{"min": 10, "max": 5},
	}, owner("alice"))
	expectStatus(t, res, data, http.StatusOK)
	var out ValidateQuestionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.IsValid || out.Errors["min"] == "" {
		t.Fatalf("expected min error, got %+v", out)
	}
}

func TestAPIKeyAuthentication(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/api-keys", map[string]any{"name": "ci"}, owner("alice"))
	expectStatus(t, res, data, http.StatusCreated)
	var created CreateAPIKeyResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.Key == "" || bytes.Contains(data, []byte("key_hash")) {
		t.Fatalf("unexpected create response %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/me", nil, map[string]string{"X-Api-Key": created.Key})
	expectStatus(t, res, data, http.StatusOK)
	var me struct {
		OwnerID string `json:"owner_id"`
		Source  string `json:"source"`
	}
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if me.OwnerID != "alice" || me.Source != "api_key" {
		t.Fatalf("unexpected principal %+v", me)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/me", nil, map[string]string{"X-Api-Key": "svk_wrong"})
	expectStatus(t, res, data, http.StatusUnauthorized)

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/v1/api-keys/"+created.APIKey.ID, nil, owner("alice"))
	expectStatus(t, res, data, http.StatusNoContent)
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/me", nil, map[string]string{"X-Api-Key": created.Key})
	expectStatus(t, res, data, http.StatusUnauthorized)
}

func TestDevLoginToken(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/auth/dev/login", map[string]any{"owner_id": "carol", "plan": "enterprise"}, nil)
	expectStatus(t, res, data, http.StatusOK)
	var login DevLoginResponse
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	bearer := map[string]string{"Authorization": "Bearer " + login.Token}

	s := createSurvey(t, srv, bearer, map[string]any{"title": "Enterprise"})
	if s.OwnerID != "carol" {
		t.Fatalf("expected owner carol, got %s", s.OwnerID)
	}
	addQuestion(t, srv, bearer, s.ID, map[string]any{"type": "matrix"})

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/me", nil, map[string]string{"Authorization": "Bearer nope"})
	expectStatus(t, res, data, http.StatusUnauthorized)
}

func TestCreateFromTemplateRespectsPlan(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/surveys", map[string]any{"template_id": "nps"}, owner("alice"))
	expectStatus(t, res, data, http.StatusForbidden)

	s := createSurvey(t, srv, ownerWithPlan("alice", "pro"), map[string]any{"template_id": "nps", "title": "Quarterly NPS"})
	if s.Title != "Quarterly NPS" || len(s.Questions) == 0 {
		t.Fatalf("unexpected survey %+v", s)
	}
}

func TestOpenAPIServedConcurrently(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	const n = 8
	bodies := make([][]byte, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := srv.Client().Get(srv.URL + "/v1/openapi.json")
			if err != nil {
				t.Errorf("get openapi: %v", err)
				return
			}
			defer res.Body.Close()
			bodies[i], _ = io.ReadAll(res.Body)
		}(i)
	}
	wg.Wait()
	var doc struct {
		Components struct {
			SecuritySchemes map[string]any `json:"securitySchemes"`
		} `json:"components"`
	}
	if err := json.Unmarshal(bodies[0], &doc); err != nil {
		t.Fatalf("decode openapi: %v", err)
	}
	if _, ok := doc.Components.SecuritySchemes["bearerAuth"]; !ok {
		t.Fatalf("security schemes missing: %v", doc.Components.SecuritySchemes)
	}
	for i := 1; i < n; i++ {
		if !bytes.Equal(bodies[i], bodies[0]) {
			t.Fatalf("response %d differs from the first", i)
		}
	}
}
