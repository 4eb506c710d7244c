package question

import (
	"sort"

	"surveyline/internal/domain"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// RoleSuperAdmin sees every question type regardless of plan.
const RoleSuperAdmin = "super_admin"

var planLevel = map[Plan]int{PlanFree: 0, PlanPro: 1, PlanEnterprise: 2}

const (
	CategoryText   = "Text Input"
	CategoryChoice = "Choice"
	CategoryRating = "Rating & Scale"
	CategoryEmoji  = "Emoji & Visual"
	CategoryAdv    = "Advanced"
)

var categoryOrder = []string{CategoryText, CategoryChoice, CategoryRating, CategoryEmoji, CategoryAdv}

// Type is one registry entry.
type Type struct {
	Key          domain.QuestionType `json:"type"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Category     string              `json:"category"`
	Icon         string              `json:"icon"`
	PlanRequired Plan                `json:"plan_required,omitempty"`
	defaults     func() domain.Settings
}

// Defaults returns a fresh copy of the type's default settings.
func (t Type) Defaults() domain.Settings {
	if t.defaults == nil {
		return domain.NewSettings(t.Key)
	}
	return t.defaults()
}

// Registry is the immutable catalog of question kinds.
type Registry struct {
	types map[domain.QuestionType]Type
	order []domain.QuestionType
}

var defaultRegistry = newDefaultRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

func newDefaultRegistry() *Registry {
	r := &Registry{types: map[domain.QuestionType]Type{}}
	for _, t := range catalog() {
		r.types[t.Key] = t
		r.order = append(r.order, t.Key)
	}
	return r
}

// ListTypes returns every type grouped by category, catalog order within a group.
func (r *Registry) ListTypes() []Type {
	out := make([]Type, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.types[key])
	}
	rank := map[string]int{}
	for i, c := range categoryOrder {
		rank[c] = i
	}
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i].Category] < rank[out[j].Category] })
	return out
}

// Categories lists category labels in display order.
func (r *Registry) Categories() []string {
	return append([]string(nil), categoryOrder...)
}

func (r *Registry) ByCategory(category string) []Type {
	var out []Type
	for _, t := range r.ListTypes() {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) GetType(t domain.QuestionType) (Type, error) {
	entry, ok := r.types[t]
	if !ok {
		return Type{}, domain.UnknownTypeError{Type: t}
	}
	return entry, nil
}

func (r *Registry) Has(t domain.QuestionType) bool {
	_, ok := r.types[t]
	return ok
}

// Label is the display name of t, falling back to a generic label.
func (r *Registry) Label(t domain.QuestionType) string {
	if entry, ok := r.types[t]; ok {
		return entry.Name
	}
	return "Question"
}

// DefaultSettingsFor returns the canonical default settings of t. Unknown
// types get an empty generic map.
func (r *Registry) DefaultSettingsFor(t domain.QuestionType) domain.Settings {
	if entry, ok := r.types[t]; ok {
		return entry.Defaults()
	}
	return domain.GenericSettings{}
}

// TypesForPlan lists the types available to plan.
func (r *Registry) TypesForPlan(plan Plan, role string) []Type {
	var out []Type
	for _, t := range r.ListTypes() {
		if r.HasAccess(t.Key, plan, role) {
			out = append(out, t)
		}
	}
	return out
}

// HasAccess reports whether plan may use t. Unknown types are not gated.
func (r *Registry) HasAccess(t domain.QuestionType, plan Plan, role string) bool {
	if role == RoleSuperAdmin {
		return true
	}
	entry, ok := r.types[t]
	if !ok || entry.PlanRequired == "" {
		return true
	}
	return planLevel[plan] >= planLevel[entry.PlanRequired]
}

// ParsePlan maps unknown or empty plans to free.
func ParsePlan(s string) Plan {
	p := Plan(s)
	if _, ok := planLevel[p]; ok {
		return p
	}
	return PlanFree
}

// DefaultOptions returns the placeholder option list seeded into choice-like types.
func DefaultOptions(t domain.QuestionType) []string {
	switch t {
	case domain.TypeMultipleChoice, domain.TypeCheckbox, domain.TypeDropdown:
		return []string{"Option 1", "Option 2", "Option 3"}
	case domain.TypeRanking:
		return []string{"Option 1", "Option 2", "Option 3", "Option 4"}
	case domain.TypeRating:
		return []string{"1", "2", "3", "4", "5"}
	case domain.TypeYesNo:
		return []string{"Yes", "No"}
	default:
		return nil
	}
}

// DefaultEmojiOptions is the five-point satisfaction scale.
func DefaultEmojiOptions() []domain.EmojiOption {
	return []domain.EmojiOption{
		{Emoji: "😠", Label: "Very Unsatisfied", Value: 1},
		{Emoji: "😞", Label: "Unsatisfied", Value: 2},
		{Emoji: "😐", Label: "Neutral", Value: 3},
		{Emoji: "🙂", Label: "Satisfied", Value: 4},
		{Emoji: "😊", Label: "Very Satisfied", Value: 5},
	}
}

// EmojiScaleTypes are the accepted emoji_scale scaleType values.
var EmojiScaleTypes = []string{"satisfaction", "mood", "agreement", "experience", "quality", "difficulty", "likelihood"}

func catalog() []Type {
	i, f := domain.IntPtr, domain.FloatPtr
	return []Type{
		{Key: domain.TypeText, Name: "Short Text", Description: "Single line text input", Category: CategoryText, Icon: "📝",
			defaults: func() domain.Settings {
				return domain.TextSettings{Placeholder: "Enter your answer...", MaxLength: i(255)}
			}},
		{Key: domain.TypeTextarea, Name: "Long Text", Description: "Multi-line text input", Category: CategoryText, Icon: "📄",
			defaults: func() domain.Settings {
				return domain.TextareaSettings{Placeholder: "Enter your detailed answer...", Rows: i(4), MaxLength: i(2000)}
			}},
		{Key: domain.TypeEmail, Name: "Email Address", Description: "Email input with validation", Category: CategoryText, Icon: "📧",
			defaults: func() domain.Settings {
				return domain.EmailSettings{Placeholder: "example@email.com"}
			}},
		{Key: domain.TypePhone, Name: "Phone Number", Description: "Phone number input", Category: CategoryText, Icon: "📞",
			defaults: func() domain.Settings {
				return domain.PhoneSettings{Placeholder: "+1 (555) 000-0000", Format: "international"}
			}},
		{Key: domain.TypeNumber, Name: "Number", Description: "Numeric input", Category: CategoryText, Icon: "🔢",
			defaults: func() domain.Settings {
				return domain.NumberSettings{Placeholder: "Enter a number...", Step: f(1)}
			}},
		{Key: domain.TypeMultipleChoice, Name: "Single Choice", Description: "Select one option from multiple choices", Category: CategoryChoice, Icon: "🔘",
			defaults: func() domain.Settings {
				return domain.ChoiceSettings{Options: DefaultOptions(domain.TypeMultipleChoice)}
			}},
		{Key: domain.TypeCheckbox, Name: "Multiple Choice", Description: "Select multiple options", Category: CategoryChoice, Icon: "☑️",
			defaults: func() domain.Settings {
				return domain.CheckboxSettings{Options: DefaultOptions(domain.TypeCheckbox), MinSelections: i(1)}
			}},
		{Key: domain.TypeDropdown, Name: "Dropdown", Description: "Select from dropdown menu", Category: CategoryChoice, Icon: "📋",
			defaults: func() domain.Settings {
				return domain.ChoiceSettings{Options: DefaultOptions(domain.TypeDropdown)}
			}},
		{Key: domain.TypeYesNo, Name: "Yes / No", Description: "Binary yes or no answer", Category: CategoryChoice, Icon: "👍",
			defaults: func() domain.Settings {
				return domain.YesNoSettings{YesLabel: "Yes", NoLabel: "No", NALabel: "N/A"}
			}},
		{Key: domain.TypeRating, Name: "Star Rating", Description: "Rate using stars (1-5)", Category: CategoryRating, Icon: "⭐",
			defaults: func() domain.Settings {
				return domain.RatingSettings{MaxRating: i(5), Labels: []string{"Poor", "Fair", "Good", "Very Good", "Excellent"}}
			}},
		{Key: domain.TypeScale, Name: "Likert Scale", Description: "Rate on a scale (1-10)", Category: CategoryRating, Icon: "📊", PlanRequired: PlanPro,
			defaults: func() domain.Settings {
				return domain.ScaleSettings{Min: f(1), Max: f(10), Step: f(1), MinLabel: "Strongly Disagree", MaxLabel: "Strongly Agree"}
			}},
		{Key: domain.TypeNPS, Name: "NPS Score", Description: "Net Promoter Score (0-10)", Category: CategoryRating, Icon: "📈", PlanRequired: PlanPro,
			defaults: func() domain.Settings {
				return domain.NPSSettings{
					MinLabel: "Not at all likely",
					MaxLabel: "Extremely likely",
					Question: "How likely are you to recommend this to a friend?",
				}
			}},
		{Key: domain.TypeEmojiScale, Name: "Emoji Scale", Description: "Rate using emoji expressions", Category: CategoryEmoji, Icon: "😊",
			defaults: func() domain.Settings {
				return domain.EmojiScaleSettings{ScaleType: "satisfaction", ShowLabels: true, Options: DefaultEmojiOptions()}
			}},
		{Key: domain.TypeMatrix, Name: "Matrix Question", Description: "Rate multiple items on the same scale", Category: CategoryAdv, Icon: "📋", PlanRequired: PlanEnterprise,
			defaults: func() domain.Settings {
				return domain.MatrixSettings{
					Rows:      []string{"Item 1", "Item 2", "Item 3"},
					Columns:   []string{"Poor", "Fair", "Good", "Very Good", "Excellent"},
					ScaleType: "radio",
				}
			}},
		{Key: domain.TypeRanking, Name: "Ranking", Description: "Rank items in order of preference", Category: CategoryAdv, Icon: "🏆", PlanRequired: PlanEnterprise,
			defaults: func() domain.Settings {
				return domain.RankingSettings{Options: DefaultOptions(domain.TypeRanking)}
			}},
		{Key: domain.TypeSlider, Name: "Slider", Description: "Select value using a slider", Category: CategoryAdv, Icon: "🎚️", PlanRequired: PlanEnterprise,
			defaults: func() domain.Settings {
				return domain.SliderSettings{Min: f(0), Max: f(100), Step: f(1), MinLabel: "Minimum", MaxLabel: "Maximum", ShowValue: true}
			}},
		{Key: domain.TypeFile, Name: "File Upload", Description: "Upload files or images", Category: CategoryAdv, Icon: "📎", PlanRequired: PlanEnterprise,
			defaults: func() domain.Settings {
				return domain.FileSettings{AcceptedTypes: []string{"image/*", ".pdf", ".doc", ".docx"}, MaxFileSize: i(10), MaxFiles: i(1)}
			}},
		{Key: domain.TypeDate, Name: "Date", Description: "Select a date", Category: CategoryAdv, Icon: "📅", PlanRequired: PlanEnterprise,
			defaults: func() domain.Settings {
				return domain.DateSettings{Format: "YYYY-MM-DD"}
			}},
		{Key: domain.TypeTime, Name: "Time", Description: "Select a time", Category: CategoryAdv, Icon: "⏰", PlanRequired: PlanEnterprise,
			defaults: func() domain.Settings {
				return domain.TimeSettings{Format: "24h", Step: i(15)}
			}},
		{Key: domain.TypeDateTime, Name: "Date & Time", Description: "Select date and time", Category: CategoryAdv, Icon: "📅", PlanRequired: PlanEnterprise,
			defaults: func() domain.Settings {
				return domain.DateSettings{Format: "YYYY-MM-DD HH:mm"}
			}},
	}
}
