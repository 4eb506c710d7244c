package question

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"surveyline/internal/domain"
)

type rule struct {
	required []string
	optional []string
	check    func(s domain.Settings, errs map[string]string)
}

var rules = map[domain.QuestionType]rule{
	domain.TypeText: {
		required: []string{"title"},
		optional: []string{"description", "placeholder", "minLength", "maxLength"},
		check: func(s domain.Settings, errs map[string]string) {
			st := s.(domain.TextSettings)
			checkLengths(st.MinLength, st.MaxLength, errs)
		},
	},
	domain.TypeTextarea: {
		required: []string{"title"},
		optional: []string{"description", "placeholder", "minLength", "maxLength", "rows"},
		check: func(s domain.Settings, errs map[string]string) {
			st := s.(domain.TextareaSettings)
			checkLengths(st.MinLength, st.MaxLength, errs)
			if st.Rows != nil && (*st.Rows < 2 || *st.Rows > 20) {
				errs["rows"] = "Rows must be between 2 and 20"
			}
		},
	},
	domain.TypeMultipleChoice: {
		required: []string{"title", "options"},
		optional: []string{"description", "allowOther", "randomizeOptions"},
		check: func(s domain.Settings, errs map[string]string) {
			checkOptions(s.(domain.ChoiceSettings).Options, true, "At least 2 options are required", errs)
		},
	},
	domain.TypeDropdown: {
		required: []string{"title", "options"},
		optional: []string{"description", "allowOther"},
		check: func(s domain.Settings, errs map[string]string) {
			checkOptions(s.(domain.ChoiceSettings).Options, true, "At least 2 options are required", errs)
		},
	},
	domain.TypeCheckbox: {
		required: []string{"title", "options"},
		optional: []string{"description", "allowOther", "minSelections", "maxSelections"},
		check: func(s domain.Settings, errs map[string]string) {
			st := s.(domain.CheckboxSettings)
			checkOptions(st.Options, true, "At least 2 options are required", errs)
			if st.MinSelections != nil && st.MaxSelections != nil && *st.MinSelections > *st.MaxSelections {
				errs["minSelections"] = "Minimum selections cannot be greater than maximum"
			}
			if st.MaxSelections != nil && *st.MaxSelections > len(st.Options) {
				errs["maxSelections"] = "Maximum selections cannot exceed number of options"
			}
		},
	},
	domain.TypeRanking: {
		required: []string{"title", "options"},
		optional: []string{"description", "maxRank"},
		check: func(s domain.Settings, errs map[string]string) {
			st := s.(domain.RankingSettings)
			checkOptions(st.Options, false, "At least 2 options required for ranking", errs)
			if st.MaxRank != nil && *st.MaxRank > len(st.Options) {
				errs["maxRank"] = "Max rank cannot exceed number of options"
			}
		},
	},
	domain.TypeRating: {
		required: []string{"title", "maxRating"},
		optional: []string{"description", "allowHalf", "labels"},
		check: func(s domain.Settings, errs map[string]string) {
			st := s.(domain.RatingSettings)
			switch {
			case st.MaxRating == nil || *st.MaxRating < 2:
				errs["maxRating"] = "Maximum rating must be at least 2"
			case *st.MaxRating > 10:
				errs["maxRating"] = "Maximum rating cannot exceed 10"
			}
		},
	},
	domain.TypeEmojiScale: {
		required: []string{"title", "scaleType"},
		optional: []string{"description", "showLabels"},
		check: func(s domain.Settings, errs map[string]string) {
			st := s.(domain.EmojiScaleSettings)
			for _, v := range EmojiScaleTypes {
				if st.ScaleType == v {
					return
				}
			}
			errs["scaleType"] = "Valid scale type is required"
		},
	},
	domain.TypeMatrix: {
		required: []string{"title", "rows", "columns"},
		optional: []string{"description", "scaleType", "allowNA"},
		check: func(s domain.Settings, errs map[string]string) {
			st := s.(domain.MatrixSettings)
			checkAxis(st.Rows, "rows", "At least 1 row is required", "All rows must have text", errs)
			checkAxis(st.Columns, "columns", "At least 1 column is required", "All columns must have text", errs)
		},
	},
	domain.TypeSlider: {
		required: []string{"title", "min", "max"},
		optional: []string{"description", "step", "showValue"},
		check: func(s domain.Settings, errs map[string]string) {
			st := s.(domain.SliderSettings)
			checkRange(st.Min, st.Max, st.Step, true, errs)
		},
	},
	domain.TypeNumber: {
		required: []string{"title"},
		optional: []string{"description", "min", "max", "step", "placeholder"},
		check: func(s domain.Settings, errs map[string]string) {
			st := s.(domain.NumberSettings)
			checkRange(st.Min, st.Max, st.Step, false, errs)
		},
	},
	domain.TypeScale: {
		required: []string{"title", "min", "max"},
		optional: []string{"description", "step", "minLabel", "maxLabel", "labels"},
		check: func(s domain.Settings, errs map[string]string) {
			st := s.(domain.ScaleSettings)
			checkRange(st.Min, st.Max, st.Step, true, errs)
		},
	},
	domain.TypeEmail: {
		required: []string{"title"},
		optional: []string{"description", "placeholder"},
	},
	domain.TypePhone: {
		required: []string{"title"},
		optional: []string{"description", "placeholder", "format"},
	},
	domain.TypeDate: {
		required: []string{"title"},
		optional: []string{"description", "minDate", "maxDate", "format"},
		check:    checkDates,
	},
	domain.TypeDateTime: {
		required: []string{"title"},
		optional: []string{"description", "minDate", "maxDate", "format"},
		check:    checkDates,
	},
	domain.TypeYesNo: {
		required: []string{"title"},
		optional: []string{"description", "yesLabel", "noLabel", "allowNA", "naLabel"},
	},
	domain.TypeNPS: {
		required: []string{"title"},
		optional: []string{"description", "minLabel", "maxLabel", "question"},
	},
}

// Validate returns the field-level errors of q. Types registered without
// rules validate successfully; a missing or unknown type does not.
func Validate(q domain.Question) domain.ValidationResult {
	errs := map[string]string{}
	if strings.TrimSpace(string(q.Type)) == "" {
		errs["type"] = "Question type is required"
		return domain.ValidationResult{IsValid: false, Errors: errs}
	}
	r, ok := rules[q.Type]
	if !ok {
		if !Default().Has(q.Type) {
			errs["type"] = fmt.Sprintf("Unknown question type: %s", q.Type)
			return domain.ValidationResult{IsValid: false, Errors: errs}
		}
		return domain.ValidationResult{IsValid: true, Errors: errs}
	}
	for _, field := range r.required {
		if field == "title" && strings.TrimSpace(q.Title) == "" {
			errs["title"] = "Question title is required"
		}
	}
	if r.check != nil {
		r.check(coerce(q.Type, q.Settings), errs)
	}
	return domain.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateField validates q as if field were set to value and returns the
// message for that field, or "" when it is valid.
func ValidateField(q domain.Question, field string, value any) string {
	tmp := q.Clone()
	switch field {
	case "title":
		s, _ := value.(string)
		tmp.Title = s
	case "description":
		s, _ := value.(string)
		tmp.Description = s
	default:
		merged, err := domain.MergeSettings(tmp.Type, tmp.Settings, map[string]any{field: value})
		if err != nil {
			return fmt.Sprintf("Invalid value for %s", field)
		}
		tmp.Settings = merged
	}
	return Validate(tmp).Errors[field]
}

// FieldError returns the current message for field, or "".
func FieldError(q domain.Question, field string) string {
	return Validate(q).Errors[field]
}

// IsComplete reports whether q is ready to save.
func IsComplete(q domain.Question) bool {
	return Validate(q).IsValid
}

// CompletionPercentage is a UX heuristic: the share of the type's declared
// fields that carry a value. It is not a validity gate.
func CompletionPercentage(q domain.Question) int {
	r, ok := rules[q.Type]
	if !ok {
		return 100
	}
	fields := append(append([]string(nil), r.required...), r.optional...)
	if len(fields) == 0 {
		return 100
	}
	values := domain.SettingsMap(q.Settings)
	filled := 0
	for _, field := range fields {
		switch field {
		case "title":
			if strings.TrimSpace(q.Title) != "" {
				filled++
			}
		case "description":
			if strings.TrimSpace(q.Description) != "" {
				filled++
			}
		default:
			if isFilled(values[field]) {
				filled++
			}
		}
	}
	return int(math.Round(float64(filled) / float64(len(fields)) * 100))
}

// ValidateSurvey is valid iff the title is set, there is at least one
// question, and every question validates. Question errors are keyed by id.
func ValidateSurvey(s domain.Survey) domain.SurveyValidation {
	res := domain.SurveyValidation{IsValid: true, Errors: map[string]string{}}
	if strings.TrimSpace(s.Title) == "" {
		res.Errors["title"] = "Survey title is required"
		res.IsValid = false
	}
	if len(s.Questions) == 0 {
		res.Errors["questions"] = "At least one question is required"
		res.IsValid = false
	}
	for i, q := range s.Questions {
		v := Validate(q)
		if v.IsValid {
			continue
		}
		if res.QuestionErrors == nil {
			res.QuestionErrors = map[string]map[string]string{}
		}
		key := q.ID
		if key == "" {
			key = strconv.Itoa(i)
		}
		res.QuestionErrors[key] = v.Errors
		res.IsValid = false
	}
	return res
}

// coerce returns s as the variant expected for t, converting through the
// JSON form when a caller stored a mismatched variant.
func coerce(t domain.QuestionType, s domain.Settings) domain.Settings {
	want := domain.NewSettings(t)
	if s != nil && reflect.TypeOf(s) == reflect.TypeOf(want) {
		return s
	}
	merged, err := domain.MergeSettings(t, want, domain.SettingsMap(s))
	if err != nil {
		return want
	}
	return merged
}

func isFilled(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case bool:
		return val
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

func checkLengths(minLen, maxLen *int, errs map[string]string) {
	if minLen != nil && maxLen != nil && *minLen > *maxLen {
		errs["minLength"] = "Minimum length cannot be greater than maximum length"
	}
}

// checkOptions folds every options problem into one aggregated message.
func checkOptions(options []string, unique bool, tooFew string, errs map[string]string) {
	var problems []string
	if len(options) < 2 {
		problems = append(problems, tooFew)
	}
	seen := map[string]bool{}
	empty, dup := false, false
	for _, opt := range options {
		if strings.TrimSpace(opt) == "" {
			empty = true
		}
		if seen[opt] {
			dup = true
		}
		seen[opt] = true
	}
	if empty {
		problems = append(problems, "All options must have text")
	}
	if unique && dup {
		problems = append(problems, "Options must be unique")
	}
	if len(problems) > 0 {
		errs["options"] = strings.Join(problems, "; ")
	}
}

func checkAxis(items []string, field, tooFew, blank string, errs map[string]string) {
	if len(items) < 1 {
		errs[field] = tooFew
		return
	}
	for _, it := range items {
		if strings.TrimSpace(it) == "" {
			errs[field] = blank
			return
		}
	}
}

func checkRange(minV, maxV, step *float64, boundsRequired bool, errs map[string]string) {
	if boundsRequired && (minV == nil || maxV == nil) {
		errs["range"] = "Min and max values are required"
	}
	if minV != nil && maxV != nil && *minV >= *maxV {
		errs["min"] = "Minimum value must be less than maximum value"
	}
	if step != nil && *step <= 0 {
		errs["step"] = "Step value must be positive"
	}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func checkDates(s domain.Settings, errs map[string]string) {
	st := s.(domain.DateSettings)
	var minT, maxT time.Time
	var minOK, maxOK bool
	if st.MinDate != "" {
		if minT, minOK = parseDate(st.MinDate); !minOK {
			errs["minDate"] = "Minimum date is not a valid date"
		}
	}
	if st.MaxDate != "" {
		if maxT, maxOK = parseDate(st.MaxDate); !maxOK {
			errs["maxDate"] = "Maximum date is not a valid date"
		}
	}
	if minOK && maxOK && !minT.Before(maxT) {
		errs["minDate"] = "Minimum date must be before maximum date"
	}
}
