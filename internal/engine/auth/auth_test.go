package auth

import (
	"context"
	"errors"
	"testing"

	"surveyline/internal/domain"
	"surveyline/internal/question"
)

func TestRequireOwner(t *testing.T) {
	p := Principal{OwnerID: "alice", Plan: question.PlanFree}
	if err := p.RequireOwner("survey", "s1", "alice"); err != nil {
		t.Fatalf("own survey: %v", err)
	}
	var forbidden ForbiddenError
	if err := p.RequireOwner("survey", "s1", "bob"); !errors.As(err, &forbidden) || forbidden.ID != "s1" {
		t.Fatalf("expected forbidden, got %v", err)
	}
	admin := Principal{OwnerID: "root", Role: question.RoleSuperAdmin}
	if err := admin.RequireOwner("survey", "s1", "bob"); err != nil {
		t.Fatalf("super admin should pass: %v", err)
	}
}

func TestRequireTypePlanGating(t *testing.T) {
	free := Principal{OwnerID: "alice", Plan: question.PlanFree}
	if err := free.RequireType(nil, domain.TypeText); err != nil {
		t.Fatalf("text is free: %v", err)
	}
	var plan PlanRequiredError
	if err := free.RequireType(nil, domain.TypeNPS); !errors.As(err, &plan) || plan.Required != question.PlanPro {
		t.Fatalf("expected pro requirement, got %v", err)
	}
	pro := Principal{OwnerID: "alice", Plan: question.PlanPro}
	if err := pro.RequireTypes(nil, []domain.Question{{Type: domain.TypeNPS}, {Type: domain.TypeMatrix}}); !errors.As(err, &plan) || plan.Required != question.PlanEnterprise {
		t.Fatalf("expected enterprise requirement, got %v", err)
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := PrincipalFrom(context.Background()); ok {
		t.Fatalf("empty context has no principal")
	}
	ctx := WithPrincipal(context.Background(), Principal{OwnerID: "alice"})
	if p, ok := PrincipalFrom(ctx); !ok || p.OwnerID != "alice" {
		t.Fatalf("principal lost: %+v", p)
	}
}
