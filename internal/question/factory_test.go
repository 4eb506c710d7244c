package question_test

import (
	"errors"
	"fmt"
	"testing"

	"surveyline/internal/domain"
	"surveyline/internal/question"
)

func seqFactory() *question.Factory {
	n := 0
	return &question.Factory{Registry: question.Default(), NewID: func() string {
		n++
		return fmt.Sprintf("q-%d", n)
	}}
}

func TestCreateSeedsDefaults(t *testing.T) {
	f := seqFactory()
	q, err := f.Create(domain.TypeMultipleChoice)
	if err != nil {
		t.Fatal(err)
	}
	if q.ID != "q-1" || q.Title != "Untitled multiple choice question" || q.Required || q.Hidden {
		t.Fatalf("unexpected question: %+v", q)
	}
	if opts := q.Settings.(domain.ChoiceSettings).Options; len(opts) != 3 || opts[0] != "Option 1" {
		t.Fatalf("unexpected options: %v", opts)
	}
	emoji, err := f.Create(domain.TypeEmojiScale)
	if err != nil {
		t.Fatal(err)
	}
	if opts := emoji.Settings.(domain.EmojiScaleSettings).Options; len(opts) != 5 || opts[4].Value != 5 {
		t.Fatalf("unexpected emoji options: %+v", opts)
	}
	_, err = f.Create("hologram")
	var unknown domain.UnknownTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
}

func TestCreateFromTemplateMergesOverrides(t *testing.T) {
	f := seqFactory()
	q, err := f.CreateFromTemplate(question.Partial{
		Type:     "radio",
		Title:    "Favourite colour?",
		Required: true,
		Options:  []string{"Red", "Blue"},
		Settings: map[string]any{"allowOther": true},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := q.Settings.(domain.ChoiceSettings)
	if q.Type != domain.TypeMultipleChoice || !q.Required || len(s.Options) != 2 || !s.AllowOther {
		t.Fatalf("unexpected question: %+v", q)
	}

	rating, err := f.CreateFromTemplate(question.Partial{Type: "rating", Settings: map[string]any{"maxRating": 10}})
	if err != nil {
		t.Fatal(err)
	}
	rs := rating.Settings.(domain.RatingSettings)
	if *rs.MaxRating != 10 || len(rs.Labels) != 5 || rating.Title != "Untitled rating question" {
		t.Fatalf("unexpected rating: %+v", rating)
	}

	mood, err := f.CreateFromTemplate(question.Partial{Type: "emoji_mood", Title: "Mood"})
	if err != nil {
		t.Fatal(err)
	}
	if mood.Settings.(domain.EmojiScaleSettings).ScaleType != "mood" {
		t.Fatalf("scale hint lost: %+v", mood.Settings)
	}
}

func TestDuplicateIsIndependent(t *testing.T) {
	f := seqFactory()
	orig, _ := f.Create(domain.TypeCheckbox)
	orig.Title = "Pick some"
	dup := f.Duplicate(orig)
	if dup.ID == orig.ID || dup.Title != "Pick some (Copy)" {
		t.Fatalf("unexpected duplicate: %+v", dup)
	}
	dupSettings := dup.Settings.(domain.CheckboxSettings)
	dupSettings.Options[0] = "changed"
	*dupSettings.MinSelections = 2
	origSettings := orig.Settings.(domain.CheckboxSettings)
	if origSettings.Options[0] != "Option 1" || *origSettings.MinSelections != 1 {
		t.Fatalf("duplicate shares state with original: %+v", origSettings)
	}
}

func TestDuplicateManyUniqueIDs(t *testing.T) {
	f := question.NewFactory()
	q, _ := f.Create(domain.TypeText)
	seen := map[string]bool{q.ID: true}
	for i := 0; i < 1000; i++ {
		d := f.Duplicate(q)
		if seen[d.ID] {
			t.Fatalf("duplicate id %s", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestPreview(t *testing.T) {
	f := seqFactory()
	cases := map[domain.QuestionType]string{
		domain.TypeMultipleChoice: "Single Choice (3 options)",
		domain.TypeRating:         "Star Rating (1-5)",
		domain.TypeScale:          "Likert Scale (1-10)",
		domain.TypeMatrix:         "Matrix Question (3×5)",
		domain.TypeEmail:          "Email Address",
	}
	for typ, want := range cases {
		q, err := f.Create(typ)
		if err != nil {
			t.Fatal(err)
		}
		if got := question.Preview(q); got != want {
			t.Fatalf("Preview(%s) = %q, want %q", typ, got, want)
		}
	}
	if got := question.Preview(domain.Question{Type: "hologram"}); got != "Invalid question type" {
		t.Fatalf("unknown preview: %q", got)
	}
}
