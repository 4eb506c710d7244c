package survey_test

import (
	"testing"

	"surveyline/internal/survey"
)

func TestBulkDeleteIdempotent(t *testing.T) {
	once := newDoc(t, "a", "b", "c", "d")
	twice := newDoc(t, "a", "b", "c", "d")
	ids := []string{"q2", "q4", "ghost"}
	if n := once.BulkDelete(ids); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	twice.BulkDelete(ids)
	if n := twice.BulkDelete(ids); n != 0 {
		t.Fatalf("second delete removed %d", n)
	}
	if !equal(order(once), order(twice)) || !equal(order(once), []string{"q1", "q3"}) {
		t.Fatalf("once=%v twice=%v", order(once), order(twice))
	}
}

func TestBulkDuplicateAppendsInDocumentOrder(t *testing.T) {
	d := newDoc(t, "a", "b", "c")
	clones := d.BulkDuplicate([]string{"q3", "q1"})
	if got := titles(clones); !equal(got, []string{"a (Copy)", "c (Copy)"}) {
		t.Fatalf("clone order: %v", got)
	}
	if got := titles(d.Survey.Questions); !equal(got, []string{"a", "b", "c", "a (Copy)", "c (Copy)"}) {
		t.Fatalf("document after duplicate: %v", got)
	}
	if d.BulkDuplicate([]string{"ghost"}) != nil {
		t.Fatalf("unknown ids should duplicate nothing")
	}
}

func TestBulkSetFlagsLeavesOthersUntouched(t *testing.T) {
	d := newDoc(t, "a", "b", "c", "d", "e")
	if n := d.BulkSetRequired([]string{"q1", "q3", "q5"}, true); n != 3 {
		t.Fatalf("affected %d", n)
	}
	if n := d.BulkSetHidden([]string{"q2", "ghost"}, true); n != 1 {
		t.Fatalf("affected %d", n)
	}
	for _, q := range d.Survey.Questions {
		wantReq := q.ID == "q1" || q.ID == "q3" || q.ID == "q5"
		if q.Required != wantReq || q.Hidden != (q.ID == "q2") {
			t.Fatalf("%s: required=%v hidden=%v", q.ID, q.Required, q.Hidden)
		}
	}
	if !equal(order(d), []string{"q1", "q2", "q3", "q4", "q5"}) {
		t.Fatalf("order changed: %v", order(d))
	}
}

func TestBulkMove(t *testing.T) {
	cases := []struct {
		name  string
		ids   []string
		dir   survey.Direction
		moved bool
		want  []string
	}{
		{"up at top is noop", []string{"q1", "q3"}, survey.Up, false, []string{"a", "b", "c", "d", "e"}},
		{"down at bottom is noop", []string{"q2", "q5"}, survey.Down, false, []string{"a", "b", "c", "d", "e"}},
		{"contiguous up", []string{"q3", "q4"}, survey.Up, true, []string{"a", "c", "d", "b", "e"}},
		{"scattered up", []string{"q2", "q4"}, survey.Up, true, []string{"b", "a", "d", "c", "e"}},
		{"contiguous down", []string{"q2", "q3"}, survey.Down, true, []string{"a", "d", "b", "c", "e"}},
		{"scattered down", []string{"q1", "q3"}, survey.Down, true, []string{"b", "a", "d", "c", "e"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newDoc(t, "a", "b", "c", "d", "e")
			moved, err := d.BulkMove(tc.ids, tc.dir)
			if err != nil {
				t.Fatal(err)
			}
			if moved != tc.moved {
				t.Fatalf("moved=%v", moved)
			}
			if got := titles(d.Survey.Questions); !equal(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
	d := newDoc(t, "a")
	if _, err := d.BulkMove([]string{"q1"}, "sideways"); err == nil {
		t.Fatalf("expected invalid direction error")
	}
}
