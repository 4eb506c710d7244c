package app

import (
	"context"
	"os"
	"testing"

	"surveyline/internal/config"
)

func TestResolveConfigFallsBackToDefaults(t *testing.T) {
	cfg, err := ResolveConfig(t.TempDir())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Fatalf("unexpected driver %q", cfg.Storage.Driver)
	}
}

func TestResolveConfigReadsWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(config.Path(dir), []byte("plans:\n  default: pro\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ResolveConfig(dir)
	if err != nil || cfg.Plans.Default != "pro" {
		t.Fatalf("workspace config ignored: %+v (%v)", cfg, err)
	}
}

func TestOpenMigratesWorkspace(t *testing.T) {
	ctx := context.Background()
	rt, err := Open(ctx, t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close(ctx)
	s, err := rt.Engine.CreateSurvey(ctx, "alice", "Smoke", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := rt.Engine.LoadSurvey(ctx, s.ID, "alice"); err != nil {
		t.Fatalf("load: %v", err)
	}
}
