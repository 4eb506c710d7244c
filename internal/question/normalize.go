package question

import (
	"strings"

	"surveyline/internal/domain"
)

var aliases = map[string]domain.QuestionType{
	"short-text": domain.TypeText, "short_text": domain.TypeText,
	"long-text": domain.TypeTextarea, "long_text": domain.TypeTextarea, "longtext": domain.TypeTextarea,
	"email-address": domain.TypeEmail,
	"tel":           domain.TypePhone, "telephone": domain.TypePhone,
	"numeric": domain.TypeNumber,
	"radio":   domain.TypeMultipleChoice, "single-choice": domain.TypeMultipleChoice, "single_choice": domain.TypeMultipleChoice,
	"singlechoice": domain.TypeMultipleChoice, "multiple-choice": domain.TypeMultipleChoice, "multiplechoice": domain.TypeMultipleChoice,
	"checkboxes": domain.TypeCheckbox,
	"select":     domain.TypeDropdown, "pulldown": domain.TypeDropdown,
	"star-rating": domain.TypeRating, "star_rating": domain.TypeRating, "stars": domain.TypeRating,
	"likert": domain.TypeScale, "likert-scale": domain.TypeScale, "likert_scale": domain.TypeScale,
	"net-promoter-score": domain.TypeNPS, "net_promoter_score": domain.TypeNPS,
	"emoji-scale": domain.TypeEmojiScale, "emojiscale": domain.TypeEmojiScale,
	"yes-no": domain.TypeYesNo, "yes/no": domain.TypeYesNo, "yesno": domain.TypeYesNo, "boolean": domain.TypeYesNo,
	"true-false": domain.TypeYesNo, "true_false": domain.TypeYesNo, "thumbs": domain.TypeYesNo,
	"grid": domain.TypeMatrix, "table": domain.TypeMatrix,
	"rank": domain.TypeRanking, "order": domain.TypeRanking,
	"range":  domain.TypeSlider,
	"upload": domain.TypeFile, "file-upload": domain.TypeFile, "file_upload": domain.TypeFile, "image": domain.TypeFile,
	"datepicker": domain.TypeDate,
	"timepicker": domain.TypeTime,
	"date-time":  domain.TypeDateTime, "date_time": domain.TypeDateTime,
}

// emojiVariants are legacy per-scale emoji types folded into emoji_scale.
var emojiVariants = map[string]string{
	"emoji_satisfaction": "satisfaction", "svg_emoji_satisfaction": "satisfaction",
	"emoji_agreement": "agreement",
	"emoji_quality":   "quality",
	"emoji_mood":      "mood", "svg_emoji_mood": "mood",
	"emoji_difficulty": "difficulty",
	"emoji_likelihood": "likelihood",
	"emoji_custom":     "satisfaction",
}

// Normalize maps any legacy spelling of a type to its canonical key. An
// empty type becomes text; unrecognized keys are lowercased and returned.
func Normalize(raw string) domain.QuestionType {
	t, _ := NormalizeWithHint(raw)
	return t
}

// NormalizeWithHint also returns the scaleType implied by legacy emoji
// variants such as emoji_mood.
func NormalizeWithHint(raw string) (domain.QuestionType, string) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return domain.TypeText, ""
	}
	dashed := strings.ReplaceAll(key, "-", "_")
	if scale, ok := emojiVariants[dashed]; ok {
		return domain.TypeEmojiScale, scale
	}
	if t, ok := aliases[key]; ok {
		return t, ""
	}
	return domain.QuestionType(key), ""
}

// SameType reports whether two spellings name the same type.
func SameType(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// NormalizeSurvey rewrites every question type in place and re-decodes
// settings that were parsed under a legacy key.
func NormalizeSurvey(s *domain.Survey) {
	for i := range s.Questions {
		q := &s.Questions[i]
		canonical, hint := NormalizeWithHint(string(q.Type))
		if canonical == q.Type {
			continue
		}
		base := q.Settings
		q.Type = canonical
		overrides := domain.SettingsMap(base)
		if hint != "" {
			if _, ok := overrides["scaleType"]; !ok {
				overrides["scaleType"] = hint
			}
		}
		merged, err := domain.MergeSettings(canonical, Default().DefaultSettingsFor(canonical), overrides)
		if err != nil {
			q.Settings = Default().DefaultSettingsFor(canonical)
			continue
		}
		q.Settings = merged
	}
}
