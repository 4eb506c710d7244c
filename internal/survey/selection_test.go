package survey_test

import (
	"errors"
	"testing"

	"surveyline/internal/domain"
	"surveyline/internal/survey"
)

func TestSelectionToggleAndSelectAll(t *testing.T) {
	s := survey.NewSelection()
	if !s.Toggle("a") || !s.IsSelected("a") {
		t.Fatalf("toggle on failed")
	}
	if s.Toggle("a") || s.IsSelected("a") {
		t.Fatalf("toggle off failed")
	}
	s.Toggle("b")
	s.SelectAll([]string{"a", "b", "c"})
	if !equal(s.IDs(), []string{"a", "b", "c"}) {
		t.Fatalf("select all: %v", s.IDs())
	}
	s.SelectAll([]string{"a", "b", "c"})
	if s.Len() != 0 {
		t.Fatalf("select all twice should clear: %v", s.IDs())
	}
}

func TestBulkControllerConfirmationGate(t *testing.T) {
	d := newDoc(t, "a", "b", "c")
	sel := survey.NewSelection()
	ctl := survey.NewBulkController(d, sel)

	if _, err := ctl.Request(survey.ActionDelete); !errors.Is(err, survey.ErrEmptySelection) {
		t.Fatalf("expected empty selection error, got %v", err)
	}
	sel.Toggle("q1")
	sel.Toggle("q2")
	if _, err := ctl.Request(survey.ActionDelete); !errors.Is(err, domain.ErrConfirmationRequired) {
		t.Fatalf("expected confirmation gate, got %v", err)
	}
	if len(d.Survey.Questions) != 3 {
		t.Fatalf("delete ran before confirmation")
	}
	ctl.Cancel()
	if _, ok := ctl.Pending(); ok || sel.Len() != 2 {
		t.Fatalf("cancel should drop the action and keep the selection")
	}
	if _, err := ctl.Confirm(); !errors.Is(err, survey.ErrNothingPending) {
		t.Fatalf("expected nothing pending, got %v", err)
	}

	_, _ = ctl.Request(survey.ActionDelete)
	res, err := ctl.Confirm()
	if err != nil || res.Affected != 2 {
		t.Fatalf("confirm: %+v %v", res, err)
	}
	if !equal(order(d), []string{"q3"}) || sel.Len() != 0 {
		t.Fatalf("after delete: order=%v selected=%v", order(d), sel.IDs())
	}
}

func TestBulkControllerImmediateActions(t *testing.T) {
	d := newDoc(t, "a", "b", "c")
	sel := survey.NewSelection()
	ctl := survey.NewBulkController(d, sel)
	sel.Toggle("q2")
	res, err := ctl.Request(survey.ActionHide)
	if err != nil || res.Affected != 1 {
		t.Fatalf("hide: %+v %v", res, err)
	}
	if sel.Len() != 0 {
		t.Fatalf("selection should clear after a bulk action")
	}
	q, _ := d.Question("q2")
	if !q.Hidden {
		t.Fatalf("q2 not hidden")
	}
	sel.Toggle("q3")
	if _, err := ctl.Request(survey.ActionMoveUp); err != nil {
		t.Fatal(err)
	}
	if got := titles(d.Survey.Questions); !equal(got, []string{"a", "c", "b"}) {
		t.Fatalf("move up: %v", got)
	}
	if _, err := survey.ParseBulkAction("explode"); err == nil {
		t.Fatalf("expected unknown action error")
	}
}

func TestBulkConfirmKeepsRequestedSelection(t *testing.T) {
	d := newDoc(t, "a", "b", "c", "d")
	sel := survey.NewSelection()
	ctl := survey.NewBulkController(d, sel)

	sel.Toggle("q1")
	if _, err := ctl.Request(survey.ActionDelete); !errors.Is(err, domain.ErrConfirmationRequired) {
		t.Fatalf("expected confirmation gate, got %v", err)
	}
	sel.Toggle("q2")
	sel.Toggle("q3")
	res, err := ctl.Confirm()
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Affected != 1 {
		t.Fatalf("confirm widened the delete to %d questions", res.Affected)
	}
	if !equal(order(d), []string{"q2", "q3", "q4"}) {
		t.Fatalf("after delete: %v", order(d))
	}
}

func TestBulkConfirmAfterSelectionCleared(t *testing.T) {
	d := newDoc(t, "a", "b")
	sel := survey.NewSelection()
	ctl := survey.NewBulkController(d, sel)

	sel.Toggle("q2")
	_, _ = ctl.Request(survey.ActionDuplicate)
	sel.Clear()
	res, err := ctl.Confirm()
	if err != nil || res.Affected != 1 {
		t.Fatalf("confirm: %+v %v", res, err)
	}
	if got := titles(d.Survey.Questions); !equal(got, []string{"a", "b", "b (Copy)"}) {
		t.Fatalf("titles after duplicate: %v", got)
	}
}
