package survey_test

import (
	"errors"
	"testing"

	"surveyline/internal/domain"
	"surveyline/internal/survey"
)

func TestAddQuestionAppendsAndActivates(t *testing.T) {
	d := newDoc(t, "a", "b")
	q, err := d.AddQuestionOfType(domain.TypeRating)
	if err != nil {
		t.Fatal(err)
	}
	if d.ActiveID != q.ID || !equal(order(d), []string{"q1", "q2", "q3"}) {
		t.Fatalf("unexpected state: active=%s order=%v", d.ActiveID, order(d))
	}
	if _, err := d.AddQuestion(domain.Question{ID: "q1", Type: domain.TypeText}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	added, err := d.AddQuestion(domain.Question{Type: domain.TypeMultipleChoice, Title: "Pick"})
	if err != nil {
		t.Fatal(err)
	}
	if added.ID == "" || added.Settings == nil {
		t.Fatalf("id and settings should be assigned: %+v", added)
	}
	if _, err := d.AddQuestionOfType("hologram"); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestUpdateQuestion(t *testing.T) {
	d := newDoc(t, "a")
	found, err := d.UpdateQuestion("missing", domain.QuestionPatch{})
	if found || err != nil {
		t.Fatalf("missing id should be a silent no-op: %v %v", found, err)
	}

	required := true
	found, err = d.UpdateQuestion("q1", domain.QuestionPatch{
		Required: &required,
		Settings: map[string]any{"placeholder": "Your name"},
	})
	if !found || err != nil {
		t.Fatalf("update: %v %v", found, err)
	}
	q, _ := d.Question("q1")
	if !q.Required || q.Settings.(domain.TextSettings).Placeholder != "Your name" || *q.Settings.(domain.TextSettings).MaxLength != 255 {
		t.Fatalf("merge lost fields: %+v", q)
	}

	newType := domain.QuestionType("checkboxes")
	if _, err := d.UpdateQuestion("q1", domain.QuestionPatch{Type: &newType, Settings: map[string]any{"options": []string{"x", "y"}}}); err != nil {
		t.Fatal(err)
	}
	q, _ = d.Question("q1")
	cb, ok := q.Settings.(domain.CheckboxSettings)
	if q.Type != domain.TypeCheckbox || !ok || !equal(cb.Options, []string{"x", "y"}) || *cb.MinSelections != 1 {
		t.Fatalf("type change did not reseed: %+v", q)
	}
	if q.Title != "a" {
		t.Fatalf("title changed by type switch: %q", q.Title)
	}

	bad := map[string]any{"minSelections": "many"}
	if _, err := d.UpdateQuestion("q1", domain.QuestionPatch{Settings: bad}); err == nil {
		t.Fatalf("expected settings error")
	}
	q, _ = d.Question("q1")
	if *q.Settings.(domain.CheckboxSettings).MinSelections != 1 {
		t.Fatalf("failed update modified question")
	}
}

func TestDeleteAndDuplicate(t *testing.T) {
	d := newDoc(t, "a", "b", "c")
	d.ActiveID = "q2"
	if !d.DeleteQuestion("q2") || d.ActiveID != "" {
		t.Fatalf("delete should clear active id")
	}
	if d.DeleteQuestion("q2") {
		t.Fatalf("second delete should report not found")
	}
	dup, ok := d.DuplicateQuestion("q1")
	if !ok || dup.Title != "a (Copy)" || !equal(order(d), []string{"q1", "q3", dup.ID}) {
		t.Fatalf("unexpected duplicate: %+v order=%v", dup, order(d))
	}
	if _, ok := d.DuplicateQuestion("nope"); ok {
		t.Fatalf("duplicate of missing id should fail")
	}
}

func TestReorder(t *testing.T) {
	d := newDoc(t, "a", "b", "c", "d")
	if err := d.Reorder(0, 2); err != nil {
		t.Fatal(err)
	}
	if got := titles(d.Survey.Questions); !equal(got, []string{"b", "c", "a", "d"}) {
		t.Fatalf("reorder 0->2: %v", got)
	}
	if err := d.Reorder(3, 0); err != nil {
		t.Fatal(err)
	}
	if got := titles(d.Survey.Questions); !equal(got, []string{"d", "b", "c", "a"}) {
		t.Fatalf("reorder 3->0: %v", got)
	}
	for _, tc := range [][2]int{{-1, 0}, {0, 4}, {4, 0}} {
		err := d.Reorder(tc[0], tc[1])
		var idx domain.IndexError
		if !errors.As(err, &idx) {
			t.Fatalf("Reorder(%d,%d): expected IndexError, got %v", tc[0], tc[1], err)
		}
	}
	if got := titles(d.Survey.Questions); !equal(got, []string{"d", "b", "c", "a"}) {
		t.Fatalf("rejected reorder changed order: %v", got)
	}
}

func TestFilterAndMetadata(t *testing.T) {
	d := newDoc(t, "Your name", "Your email")
	if _, err := d.AddQuestionOfType(domain.TypeRating); err != nil {
		t.Fatal(err)
	}
	if got := d.Filter("EMAIL", ""); len(got) != 1 || got[0].Title != "Your email" {
		t.Fatalf("search: %v", titles(got))
	}
	if got := d.Filter("", domain.TypeRating); len(got) != 1 {
		t.Fatalf("type filter: %v", titles(got))
	}
	if got := d.Filter("rating", ""); len(got) != 1 {
		t.Fatalf("type text search: %v", titles(got))
	}
	title := "Q1 Feedback"
	if !d.SetMetadata(survey.Metadata{Title: &title}) || d.Survey.Title != title {
		t.Fatalf("metadata not applied")
	}
}
