package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"surveyline/internal/config"
	"surveyline/internal/db"
	"surveyline/internal/engine"
	"surveyline/internal/events"
	"surveyline/internal/logger"
	"surveyline/internal/migrate"
	"surveyline/internal/observability"
)

// Version is stamped into traces and the OpenAPI document.
var Version = "0.1.0"

// Runtime bundles the opened workspace: config, database, engine and the
// optional event bus and tracer.
type Runtime struct {
	Workspace string
	Config    *config.Config
	DB        *sql.DB
	Dialect   db.Dialect
	Engine    engine.Engine
	Log       *logger.Logger

	shutdownTracing func(context.Context) error
}

// ResolveConfig loads surveyline.yml from workspace, falling back to the
// defaults when the file does not exist.
func ResolveConfig(workspace string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

// Open connects to storage, applies migrations and builds the engine.
func Open(ctx context.Context, workspace string, cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	if cfg == nil {
		var err error
		if cfg, err = ResolveConfig(workspace); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = logger.OrNop(log)
	conn, dialect, err := db.Open(db.Config{Workspace: workspace, Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := migrate.Migrate(conn, dialect); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	eng := engine.New(conn, dialect, cfg, log)
	if addr := cfg.Events.RedisAddr; addr != "" {
		bus, err := events.NewRedisBus(log, addr, cfg.Events.RedisChannel)
		if err != nil {
			log.Warn("redis event bus unavailable, continuing without it", "addr", addr, "error", err)
		} else {
			eng.Bus = bus
		}
	}
	rt := &Runtime{
		Workspace: workspace,
		Config:    cfg,
		DB:        conn,
		Dialect:   dialect,
		Engine:    eng,
		Log:       log,
	}
	rt.shutdownTracing = observability.InitOTel(ctx, log, cfg.Tracing, Version)
	return rt, nil
}

// Close releases the bus, flushes traces and closes the database.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.Engine.Bus != nil {
		errs = append(errs, r.Engine.Bus.Close())
	}
	if r.shutdownTracing != nil {
		errs = append(errs, r.shutdownTracing(ctx))
	}
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	return errors.Join(errs...)
}
