package question

import (
	"fmt"
	"strconv"

	"surveyline/internal/domain"
)

// Preview is a one-line summary of q for list views.
func Preview(q domain.Question) string {
	entry, err := Default().GetType(q.Type)
	if err != nil {
		return "Invalid question type"
	}
	out := entry.Name
	switch s := q.Settings.(type) {
	case domain.OptionLister:
		if opts := s.OptionList(); len(opts) > 0 {
			out += fmt.Sprintf(" (%d options)", len(opts))
		}
	case domain.RatingSettings:
		if s.MaxRating != nil {
			out += fmt.Sprintf(" (1-%d)", *s.MaxRating)
		}
	case domain.ScaleSettings:
		if s.Min != nil && s.Max != nil {
			out += fmt.Sprintf(" (%s-%s)", formatNumber(*s.Min), formatNumber(*s.Max))
		}
	case domain.SliderSettings:
		if s.Min != nil && s.Max != nil {
			out += fmt.Sprintf(" (%s-%s)", formatNumber(*s.Min), formatNumber(*s.Max))
		}
	case domain.MatrixSettings:
		if len(s.Rows) > 0 && len(s.Columns) > 0 {
			out += fmt.Sprintf(" (%d×%d)", len(s.Rows), len(s.Columns))
		}
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
