package survey

import (
	"errors"
	"sort"

	"surveyline/internal/domain"
)

// Selection is the set of question ids picked for a bulk action. It lives
// only as long as the editing session.
type Selection struct {
	ids map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: map[string]struct{}{}}
}

// Toggle flips id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll selects every id, or clears the selection when all of them
// were already selected.
func (s *Selection) SelectAll(ids []string) {
	if len(ids) > 0 && len(s.ids) == len(ids) {
		all := true
		for _, id := range ids {
			if _, ok := s.ids[id]; !ok {
				all = false
				break
			}
		}
		if all {
			s.Clear()
			return
		}
	}
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Clear() {
	s.ids = map[string]struct{}{}
}

func (s *Selection) Remove(id string) {
	delete(s.ids, id)
}

func (s *Selection) IsSelected(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int { return len(s.ids) }

// IDs returns the selected ids sorted.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type BulkAction string

const (
	ActionDelete    BulkAction = "delete"
	ActionDuplicate BulkAction = "duplicate"
	ActionRequire   BulkAction = "require"
	ActionOptional  BulkAction = "optional"
	ActionHide      BulkAction = "hide"
	ActionShow      BulkAction = "show"
	ActionMoveUp    BulkAction = "move_up"
	ActionMoveDown  BulkAction = "move_down"
)

// Destructive actions need Confirm before they touch the document.
func (a BulkAction) Destructive() bool {
	return a == ActionDelete || a == ActionDuplicate
}

func ParseBulkAction(s string) (BulkAction, error) {
	switch a := BulkAction(s); a {
	case ActionDelete, ActionDuplicate, ActionRequire, ActionOptional,
		ActionHide, ActionShow, ActionMoveUp, ActionMoveDown:
		return a, nil
	default:
		return "", domain.ValidationError{
			Message: "unknown bulk action",
			Fields:  map[string]string{"action": s},
		}
	}
}

var (
	ErrEmptySelection = errors.New("no questions selected")
	ErrNothingPending = errors.New("no bulk action awaiting confirmation")
)

// BulkResult describes what a completed bulk action did.
type BulkResult struct {
	Action   BulkAction        `json:"action"`
	Affected int               `json:"affected"`
	Created  []domain.Question `json:"created,omitempty"`
}

// BulkController turns bulk requests into document calls, holding
// destructive ones until they are confirmed.
type BulkController struct {
	doc     *Document
	sel     *Selection
	pending BulkAction
	// pendingIDs is the selection the pending action was requested for.
	pendingIDs []string
}

func NewBulkController(doc *Document, sel *Selection) *BulkController {
	return &BulkController{doc: doc, sel: sel}
}

// Request applies a non-destructive action at once. Destructive actions
// are parked with the current selection and ErrConfirmationRequired is
// returned.
func (c *BulkController) Request(action BulkAction) (BulkResult, error) {
	if c.sel.Len() == 0 {
		return BulkResult{}, ErrEmptySelection
	}
	if action.Destructive() {
		c.pending = action
		c.pendingIDs = c.sel.IDs()
		return BulkResult{Action: action}, domain.ErrConfirmationRequired
	}
	return c.apply(action, c.sel.IDs())
}

// Confirm runs the parked destructive action on the questions selected when
// it was requested. Selection changes made in between do not widen it.
func (c *BulkController) Confirm() (BulkResult, error) {
	if c.pending == "" {
		return BulkResult{}, ErrNothingPending
	}
	action, ids := c.pending, c.pendingIDs
	c.Cancel()
	return c.apply(action, ids)
}

// Cancel drops the parked action. The selection is kept.
func (c *BulkController) Cancel() {
	c.pending = ""
	c.pendingIDs = nil
}

func (c *BulkController) Pending() (BulkAction, bool) {
	return c.pending, c.pending != ""
}

func (c *BulkController) apply(action BulkAction, ids []string) (BulkResult, error) {
	res := BulkResult{Action: action}
	switch action {
	case ActionDelete:
		res.Affected = c.doc.BulkDelete(ids)
	case ActionDuplicate:
		res.Created = c.doc.BulkDuplicate(ids)
		res.Affected = len(res.Created)
	case ActionRequire, ActionOptional:
		res.Affected = c.doc.BulkSetRequired(ids, action == ActionRequire)
	case ActionHide, ActionShow:
		res.Affected = c.doc.BulkSetHidden(ids, action == ActionHide)
	case ActionMoveUp, ActionMoveDown:
		dir := Up
		if action == ActionMoveDown {
			dir = Down
		}
		moved, err := c.doc.BulkMove(ids, dir)
		if err != nil {
			return BulkResult{}, err
		}
		if moved {
			res.Affected = len(ids)
		}
	default:
		return BulkResult{}, domain.ValidationError{
			Message: "unknown bulk action",
			Fields:  map[string]string{"action": string(action)},
		}
	}
	c.sel.Clear()
	return res, nil
}
