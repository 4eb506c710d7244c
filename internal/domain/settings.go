package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Settings is the type-dependent configuration of a question. Each question
// type maps to exactly one concrete variant; see NewSettings.
type Settings interface {
	Clone() Settings
}

// OptionLister is implemented by the choice-family variants.
type OptionLister interface {
	OptionList() []string
}

type TextSettings struct {
	Placeholder string `json:"placeholder,omitempty"`
	MinLength   *int   `json:"minLength,omitempty"`
	MaxLength   *int   `json:"maxLength,omitempty"`
}

type TextareaSettings struct {
	Placeholder string `json:"placeholder,omitempty"`
	MinLength   *int   `json:"minLength,omitempty"`
	MaxLength   *int   `json:"maxLength,omitempty"`
	Rows        *int   `json:"rows,omitempty"`
}

type EmailSettings struct {
	Placeholder string `json:"placeholder,omitempty"`
}

type PhoneSettings struct {
	Placeholder string `json:"placeholder,omitempty"`
	Format      string `json:"format,omitempty"`
}

// ChoiceSettings backs multiple_choice and dropdown.
type ChoiceSettings struct {
	Options          []string `json:"options,omitempty"`
	AllowOther       bool     `json:"allowOther,omitempty"`
	RandomizeOptions bool     `json:"randomizeOptions,omitempty"`
}

type CheckboxSettings struct {
	Options       []string `json:"options,omitempty"`
	AllowOther    bool     `json:"allowOther,omitempty"`
	MinSelections *int     `json:"minSelections,omitempty"`
	MaxSelections *int     `json:"maxSelections,omitempty"`
}

type RankingSettings struct {
	Options []string `json:"options,omitempty"`
	MaxRank *int     `json:"maxRank,omitempty"`
}

type RatingSettings struct {
	MaxRating *int     `json:"maxRating,omitempty"`
	AllowHalf bool     `json:"allowHalf,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

type EmojiOption struct {
	Emoji string `json:"emoji"`
	Label string `json:"label"`
	Value int    `json:"value"`
}

type EmojiScaleSettings struct {
	ScaleType  string        `json:"scaleType,omitempty"`
	ShowLabels bool          `json:"showLabels,omitempty"`
	Options    []EmojiOption `json:"options,omitempty"`
}

type MatrixSettings struct {
	Rows      []string `json:"rows,omitempty"`
	Columns   []string `json:"columns,omitempty"`
	ScaleType string   `json:"scaleType,omitempty"`
	AllowNA   bool     `json:"allowNA,omitempty"`
}

type SliderSettings struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Step      *float64 `json:"step,omitempty"`
	ShowValue bool     `json:"showValue,omitempty"`
	MinLabel  string   `json:"minLabel,omitempty"`
	MaxLabel  string   `json:"maxLabel,omitempty"`
}

type NumberSettings struct {
	Placeholder string   `json:"placeholder,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Step        *float64 `json:"step,omitempty"`
}

type ScaleSettings struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Step     *float64 `json:"step,omitempty"`
	MinLabel string   `json:"minLabel,omitempty"`
	MaxLabel string   `json:"maxLabel,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

type NPSSettings struct {
	MinLabel string `json:"minLabel,omitempty"`
	MaxLabel string `json:"maxLabel,omitempty"`
	Question string `json:"question,omitempty"`
}

type YesNoSettings struct {
	YesLabel string `json:"yesLabel,omitempty"`
	NoLabel  string `json:"noLabel,omitempty"`
	AllowNA  bool   `json:"allowNA,omitempty"`
	NALabel  string `json:"naLabel,omitempty"`
}

// DateSettings backs date and datetime. Bounds are ISO dates.
type DateSettings struct {
	MinDate string `json:"minDate,omitempty"`
	MaxDate string `json:"maxDate,omitempty"`
	Format  string `json:"format,omitempty"`
}

type TimeSettings struct {
	Format string `json:"format,omitempty"`
	Step   *int   `json:"step,omitempty"`
}

type FileSettings struct {
	AcceptedTypes []string `json:"acceptedTypes,omitempty"`
	MaxFileSize   *int     `json:"maxFileSize,omitempty"`
	MaxFiles      *int     `json:"maxFiles,omitempty"`
}

// GenericSettings holds the settings of a type this build does not know.
// Keys are kept verbatim so unknown types survive a load/save cycle.
type GenericSettings map[string]any

func (s TextSettings) Clone() Settings {
	s.MinLength, s.MaxLength = cloneInt(s.MinLength), cloneInt(s.MaxLength)
	return s
}

func (s TextareaSettings) Clone() Settings {
	s.MinLength, s.MaxLength, s.Rows = cloneInt(s.MinLength), cloneInt(s.MaxLength), cloneInt(s.Rows)
	return s
}

func (s EmailSettings) Clone() Settings { return s }
func (s PhoneSettings) Clone() Settings { return s }

func (s ChoiceSettings) Clone() Settings {
	s.Options = cloneStrings(s.Options)
	return s
}

func (s CheckboxSettings) Clone() Settings {
	s.Options = cloneStrings(s.Options)
	s.MinSelections, s.MaxSelections = cloneInt(s.MinSelections), cloneInt(s.MaxSelections)
	return s
}

func (s RankingSettings) Clone() Settings {
	s.Options = cloneStrings(s.Options)
	s.MaxRank = cloneInt(s.MaxRank)
	return s
}

func (s RatingSettings) Clone() Settings {
	s.MaxRating = cloneInt(s.MaxRating)
	s.Labels = cloneStrings(s.Labels)
	return s
}

func (s EmojiScaleSettings) Clone() Settings {
	if s.Options != nil {
		s.Options = append([]EmojiOption(nil), s.Options...)
	}
	return s
}

func (s MatrixSettings) Clone() Settings {
	s.Rows, s.Columns = cloneStrings(s.Rows), cloneStrings(s.Columns)
	return s
}

func (s SliderSettings) Clone() Settings {
	s.Min, s.Max, s.Step = cloneFloat(s.Min), cloneFloat(s.Max), cloneFloat(s.Step)
	return s
}

func (s NumberSettings) Clone() Settings {
	s.Min, s.Max, s.Step = cloneFloat(s.Min), cloneFloat(s.Max), cloneFloat(s.Step)
	return s
}

func (s ScaleSettings) Clone() Settings {
	s.Min, s.Max, s.Step = cloneFloat(s.Min), cloneFloat(s.Max), cloneFloat(s.Step)
	s.Labels = cloneStrings(s.Labels)
	return s
}

func (s NPSSettings) Clone() Settings   { return s }
func (s YesNoSettings) Clone() Settings { return s }
func (s DateSettings) Clone() Settings  { return s }

func (s TimeSettings) Clone() Settings {
	s.Step = cloneInt(s.Step)
	return s
}

func (s FileSettings) Clone() Settings {
	s.AcceptedTypes = cloneStrings(s.AcceptedTypes)
	s.MaxFileSize, s.MaxFiles = cloneInt(s.MaxFileSize), cloneInt(s.MaxFiles)
	return s
}

func (s GenericSettings) Clone() Settings {
	if s == nil {
		return GenericSettings{}
	}
	// Round-trip through JSON so nested slices and maps are copied too.
	data, err := json.Marshal(map[string]any(s))
	if err != nil {
		out := make(GenericSettings, len(s))
		for k, v := range s {
			out[k] = v
		}
		return out
	}
	out := GenericSettings{}
	_ = json.Unmarshal(data, &out)
	return out
}

func (s ChoiceSettings) OptionList() []string   { return s.Options }
func (s CheckboxSettings) OptionList() []string { return s.Options }
func (s RankingSettings) OptionList() []string  { return s.Options }

// NewSettings returns the empty variant for t. Unknown types get GenericSettings.
func NewSettings(t QuestionType) Settings {
	switch t {
	case TypeText:
		return TextSettings{}
	case TypeTextarea:
		return TextareaSettings{}
	case TypeEmail:
		return EmailSettings{}
	case TypePhone:
		return PhoneSettings{}
	case TypeNumber:
		return NumberSettings{}
	case TypeMultipleChoice, TypeDropdown:
		return ChoiceSettings{}
	case TypeCheckbox:
		return CheckboxSettings{}
	case TypeRanking:
		return RankingSettings{}
	case TypeRating:
		return RatingSettings{}
	case TypeEmojiScale:
		return EmojiScaleSettings{}
	case TypeMatrix:
		return MatrixSettings{}
	case TypeSlider:
		return SliderSettings{}
	case TypeScale:
		return ScaleSettings{}
	case TypeNPS:
		return NPSSettings{}
	case TypeYesNo:
		return YesNoSettings{}
	case TypeDate, TypeDateTime:
		return DateSettings{}
	case TypeTime:
		return TimeSettings{}
	case TypeFile:
		return FileSettings{}
	default:
		return GenericSettings{}
	}
}

// DecodeSettings parses raw JSON into the variant selected by t.
func DecodeSettings(t QuestionType, raw json.RawMessage) (Settings, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NewSettings(t), nil
	}
	switch NewSettings(t).(type) {
	case TextSettings:
		return decodeInto[TextSettings](trimmed)
	case TextareaSettings:
		return decodeInto[TextareaSettings](trimmed)
	case EmailSettings:
		return decodeInto[EmailSettings](trimmed)
	case PhoneSettings:
		return decodeInto[PhoneSettings](trimmed)
	case NumberSettings:
		return decodeInto[NumberSettings](trimmed)
	case ChoiceSettings:
		return decodeInto[ChoiceSettings](trimmed)
	case CheckboxSettings:
		return decodeInto[CheckboxSettings](trimmed)
	case RankingSettings:
		return decodeInto[RankingSettings](trimmed)
	case RatingSettings:
		return decodeInto[RatingSettings](trimmed)
	case EmojiScaleSettings:
		return decodeInto[EmojiScaleSettings](trimmed)
	case MatrixSettings:
		return decodeInto[MatrixSettings](trimmed)
	case SliderSettings:
		return decodeInto[SliderSettings](trimmed)
	case ScaleSettings:
		return decodeInto[ScaleSettings](trimmed)
	case NPSSettings:
		return decodeInto[NPSSettings](trimmed)
	case YesNoSettings:
		return decodeInto[YesNoSettings](trimmed)
	case DateSettings:
		return decodeInto[DateSettings](trimmed)
	case TimeSettings:
		return decodeInto[TimeSettings](trimmed)
	case FileSettings:
		return decodeInto[FileSettings](trimmed)
	default:
		return decodeInto[GenericSettings](trimmed)
	}
}

func decodeInto[T Settings](raw []byte) (Settings, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return v, nil
}

// SettingsMap flattens s into its JSON key/value form. Unset optional
// fields are absent.
func SettingsMap(s Settings) map[string]any {
	out := map[string]any{}
	if s == nil {
		return out
	}
	data, err := json.Marshal(s)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(data, &out)
	return out
}

// MergeSettings overlays overrides on base and decodes the result as the
// variant for t. A nil override value removes the key.
func MergeSettings(t QuestionType, base Settings, overrides map[string]any) (Settings, error) {
	merged := SettingsMap(base)
	for k, v := range overrides {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return DecodeSettings(t, data)
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

// IntPtr and FloatPtr build optional settings fields.
func IntPtr(v int) *int { return &v }

func FloatPtr(v float64) *float64 { return &v }
