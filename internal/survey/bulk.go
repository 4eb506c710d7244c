package survey

import (
	"sort"

	"surveyline/internal/domain"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// BulkDelete removes every question in ids. Unknown ids are ignored.
func (d *Document) BulkDelete(ids []string) int {
	set := idSet(ids)
	kept := make([]domain.Question, 0, len(d.Survey.Questions))
	for _, q := range d.Survey.Questions {
		if !set[q.ID] {
			kept = append(kept, q)
		}
	}
	removed := len(d.Survey.Questions) - len(kept)
	d.Survey.Questions = kept
	if set[d.ActiveID] {
		d.ActiveID = ""
	}
	return removed
}

// BulkDuplicate appends a copy of every question in ids, in document order.
func (d *Document) BulkDuplicate(ids []string) []domain.Question {
	set := idSet(ids)
	var clones []domain.Question
	for _, q := range d.Survey.Questions {
		if set[q.ID] {
			clones = append(clones, d.factory.Duplicate(q))
		}
	}
	if len(clones) == 0 {
		return nil
	}
	qs := make([]domain.Question, 0, len(d.Survey.Questions)+len(clones))
	qs = append(qs, d.Survey.Questions...)
	qs = append(qs, clones...)
	d.Survey.Questions = qs
	out := make([]domain.Question, len(clones))
	for i, c := range clones {
		out[i] = c.Clone()
	}
	return out
}

func (d *Document) BulkSetRequired(ids []string, required bool) int {
	return d.bulkSet(ids, func(q *domain.Question) { q.Required = required })
}

func (d *Document) BulkSetHidden(ids []string, hidden bool) int {
	return d.bulkSet(ids, func(q *domain.Question) { q.Hidden = hidden })
}

func (d *Document) bulkSet(ids []string, apply func(*domain.Question)) int {
	set := idSet(ids)
	qs := append([]domain.Question(nil), d.Survey.Questions...)
	n := 0
	for i := range qs {
		if set[qs[i].ID] {
			apply(&qs[i])
			n++
		}
	}
	d.Survey.Questions = qs
	return n
}

// BulkMove shifts the selected questions one slot in dir as a unit. When
// the leading selected question already sits at the boundary nothing moves.
func (d *Document) BulkMove(ids []string, dir Direction) (bool, error) {
	set := idSet(ids)
	var idx []int
	for i, q := range d.Survey.Questions {
		if set[q.ID] {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return false, nil
	}
	qs := append([]domain.Question(nil), d.Survey.Questions...)
	switch dir {
	case Up:
		if idx[0] == 0 {
			return false, nil
		}
		for _, i := range idx {
			qs[i-1], qs[i] = qs[i], qs[i-1]
		}
	case Down:
		if idx[len(idx)-1] == len(qs)-1 {
			return false, nil
		}
		sort.Sort(sort.Reverse(sort.IntSlice(idx)))
		for _, i := range idx {
			qs[i+1], qs[i] = qs[i], qs[i+1]
		}
	default:
		return false, domain.ValidationError{
			Message: "invalid direction",
			Fields:  map[string]string{"direction": string(dir)},
		}
	}
	d.Survey.Questions = qs
	return true, nil
}
