package survey_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"surveyline/internal/domain"
	"surveyline/internal/question"
	"surveyline/internal/survey"
)

type fakeStore struct {
	mu    sync.Mutex
	saves []domain.Survey
	err   error
}

func (s *fakeStore) SaveSurvey(_ context.Context, sv domain.Survey) (domain.Survey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.Survey{}, s.err
	}
	if sv.ID == "" {
		sv.ID = "survey-1"
		sv.CreatedAt = "2024-01-01T00:00:00Z"
	}
	sv.UpdatedAt = "2024-01-01T00:00:00Z"
	s.saves = append(s.saves, sv.Clone())
	return sv, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *fakeStore) last() domain.Survey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[len(s.saves)-1]
}

func seqFactory() *question.Factory {
	n := 0
	return &question.Factory{Registry: question.Default(), NewID: func() string {
		n++
		return fmt.Sprintf("q%d", n)
	}}
}

var fixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newDoc(t *testing.T, titles ...string) *survey.Document {
	t.Helper()
	d := survey.NewDocument(survey.NewSurvey("owner-1", "Feedback"), seqFactory())
	for _, title := range titles {
		q, err := d.AddQuestionOfType(domain.TypeText)
		if err != nil {
			t.Fatalf("add question: %v", err)
		}
		if _, err := d.UpdateQuestion(q.ID, domain.QuestionPatch{Title: &title}); err != nil {
			t.Fatalf("set title: %v", err)
		}
	}
	return d
}

func order(d *survey.Document) []string {
	out := make([]string, len(d.Survey.Questions))
	for i, q := range d.Survey.Questions {
		out[i] = q.ID
	}
	return out
}

func titles(qs []domain.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Title
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
