package question_test

import (
	"errors"
	"testing"

	"surveyline/internal/domain"
	"surveyline/internal/question"
)

func TestDefaultSettingsNonEmpty(t *testing.T) {
	reg := question.Default()
	for _, typ := range reg.ListTypes() {
		settings := reg.DefaultSettingsFor(typ.Key)
		if len(domain.SettingsMap(settings)) == 0 {
			t.Fatalf("%s: empty default settings", typ.Key)
		}
		if lister, ok := settings.(domain.OptionLister); ok && len(lister.OptionList()) < 2 {
			t.Fatalf("%s: expected at least 2 default options, got %v", typ.Key, lister.OptionList())
		}
	}
}

func TestDefaultSettingsAreFreshCopies(t *testing.T) {
	reg := question.Default()
	a := reg.DefaultSettingsFor(domain.TypeMultipleChoice).(domain.ChoiceSettings)
	a.Options[0] = "mutated"
	b := reg.DefaultSettingsFor(domain.TypeMultipleChoice).(domain.ChoiceSettings)
	if b.Options[0] != "Option 1" {
		t.Fatalf("defaults shared between calls: %v", b.Options)
	}
}

func TestListTypesGroupedByCategory(t *testing.T) {
	reg := question.Default()
	rank := map[string]int{}
	for i, c := range reg.Categories() {
		rank[c] = i
	}
	types := reg.ListTypes()
	if len(types) != 20 {
		t.Fatalf("expected 20 types, got %d", len(types))
	}
	for i := 1; i < len(types); i++ {
		if rank[types[i-1].Category] > rank[types[i].Category] {
			t.Fatalf("category order broken at %s -> %s", types[i-1].Key, types[i].Key)
		}
	}
	if got := reg.ByCategory(question.CategoryEmoji); len(got) != 1 || got[0].Key != domain.TypeEmojiScale {
		t.Fatalf("unexpected emoji category: %+v", got)
	}
}

func TestGetTypeUnknown(t *testing.T) {
	reg := question.Default()
	_, err := reg.GetType("hologram")
	var unknown domain.UnknownTypeError
	if !errors.As(err, &unknown) || unknown.Type != "hologram" {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
	if reg.Label("hologram") != "Question" {
		t.Fatalf("expected generic label")
	}
	if _, ok := reg.DefaultSettingsFor("hologram").(domain.GenericSettings); !ok {
		t.Fatalf("expected generic settings for unknown type")
	}
}

func TestPlanGating(t *testing.T) {
	reg := question.Default()
	cases := []struct {
		typ  domain.QuestionType
		plan question.Plan
		role string
		want bool
	}{
		{domain.TypeText, question.PlanFree, "", true},
		{domain.TypeScale, question.PlanFree, "", false},
		{domain.TypeScale, question.PlanPro, "", true},
		{domain.TypeMatrix, question.PlanPro, "", false},
		{domain.TypeMatrix, question.PlanEnterprise, "", true},
		{domain.TypeMatrix, question.PlanFree, question.RoleSuperAdmin, true},
		{"hologram", question.PlanFree, "", true},
	}
	for _, tc := range cases {
		if got := reg.HasAccess(tc.typ, tc.plan, tc.role); got != tc.want {
			t.Fatalf("HasAccess(%s, %s, %q) = %v, want %v", tc.typ, tc.plan, tc.role, got, tc.want)
		}
	}
	for _, typ := range reg.TypesForPlan(question.PlanFree, "") {
		if typ.PlanRequired != "" {
			t.Fatalf("free plan listed gated type %s", typ.Key)
		}
	}
	if len(reg.TypesForPlan(question.PlanFree, question.RoleSuperAdmin)) != len(reg.ListTypes()) {
		t.Fatalf("super admin should see every type")
	}
	if question.ParsePlan("platinum") != question.PlanFree {
		t.Fatalf("unknown plan should map to free")
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]domain.QuestionType{
		"":                domain.TypeText,
		"Likert":          domain.TypeScale,
		"radio":           domain.TypeMultipleChoice,
		"multiple_choice": domain.TypeMultipleChoice,
		"boolean":         domain.TypeYesNo,
		"grid":            domain.TypeMatrix,
		"Hologram":        "hologram",
	}
	for in, want := range cases {
		if got := question.Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
	typ, hint := question.NormalizeWithHint("emoji-mood")
	if typ != domain.TypeEmojiScale || hint != "mood" {
		t.Fatalf("emoji variant: got %s/%s", typ, hint)
	}
	if !question.SameType("yes-no", "boolean") {
		t.Fatalf("expected yes-no and boolean to match")
	}
}

func TestNormalizeSurveyRewritesLegacyQuestions(t *testing.T) {
	s := domain.Survey{Questions: []domain.Question{
		{ID: "q1", Type: "radio", Title: "Pick", Settings: domain.GenericSettings{"options": []any{"x", "y"}}},
		{ID: "q2", Type: "emoji_mood", Title: "Feel", Settings: domain.GenericSettings{}},
		{ID: "q3", Type: domain.TypeText, Title: "Name", Settings: domain.TextSettings{}},
	}}
	question.NormalizeSurvey(&s)
	choice, ok := s.Questions[0].Settings.(domain.ChoiceSettings)
	if s.Questions[0].Type != domain.TypeMultipleChoice || !ok || len(choice.Options) != 2 || choice.Options[0] != "x" {
		t.Fatalf("radio not normalized: %+v", s.Questions[0])
	}
	emoji, ok := s.Questions[1].Settings.(domain.EmojiScaleSettings)
	if s.Questions[1].Type != domain.TypeEmojiScale || !ok || emoji.ScaleType != "mood" || len(emoji.Options) != 5 {
		t.Fatalf("emoji variant not normalized: %+v", s.Questions[1])
	}
	if _, ok := s.Questions[2].Settings.(domain.TextSettings); !ok {
		t.Fatalf("canonical question changed: %+v", s.Questions[2])
	}
}
