package auth

import (
	"context"
	"fmt"
	"strings"

	"surveyline/internal/domain"
	"surveyline/internal/question"
)

// ForbiddenError indicates the caller does not own the resource.
type ForbiddenError struct {
	Kind string
	ID   string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("%s %s belongs to another owner", e.Kind, e.ID)
}

// PlanRequiredError indicates a question type gated behind a higher plan.
type PlanRequiredError struct {
	Type     domain.QuestionType
	Required question.Plan
	Current  question.Plan
}

func (e PlanRequiredError) Error() string {
	return fmt.Sprintf("question type %s requires the %s plan (current: %s)", e.Type, e.Required, e.Current)
}

// Principal is the authenticated caller.
type Principal struct {
	OwnerID string        `json:"owner_id"`
	Plan    question.Plan `json:"plan"`
	Role    string        `json:"role,omitempty"`
	Source  string        `json:"source"`
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || strings.TrimSpace(p.OwnerID) == "" {
		return Principal{}, false
	}
	return p, true
}

// RequireOwner rejects access to a resource owned by someone else. Super
// admins may act on any owner's resources.
func (p Principal) RequireOwner(kind, id, ownerID string) error {
	if p.Role == question.RoleSuperAdmin || ownerID == "" || ownerID == p.OwnerID {
		return nil
	}
	return ForbiddenError{Kind: kind, ID: id}
}

// RequireType rejects types the principal's plan does not include.
func (p Principal) RequireType(reg *question.Registry, t domain.QuestionType) error {
	if reg == nil {
		reg = question.Default()
	}
	if reg.HasAccess(t, p.Plan, p.Role) {
		return nil
	}
	entry, err := reg.GetType(t)
	if err != nil {
		return err
	}
	return PlanRequiredError{Type: t, Required: entry.PlanRequired, Current: p.Plan}
}

// RequireTypes checks every question of s.
func (p Principal) RequireTypes(reg *question.Registry, qs []domain.Question) error {
	for _, q := range qs {
		if err := p.RequireType(reg, q.Type); err != nil {
			return err
		}
	}
	return nil
}
