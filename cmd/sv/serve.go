package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"surveyline/internal/app"
	"surveyline/internal/engine"
	"surveyline/internal/logger"
	"surveyline/internal/question"
	"surveyline/internal/server"
)

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		Long:  "Serves the REST API, delivers webhooks and autosaves open editing sessions until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := app.ResolveConfig(workspace)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Logging.Mode)
			if err != nil {
				return err
			}
			defer log.Sync()
			rt, err := app.Open(cmd.Context(), workspace, cfg, log)
			if err != nil {
				return err
			}
			defer rt.Close(context.Background())

			if addr == "" {
				addr = cfg.Server.Addr
			}
			if basePath == "" {
				basePath = cfg.Server.BasePath
			}
			authCfg := server.AuthConfig{
				JWTSecret:        cfg.Auth.JWTSecret,
				DevLogin:         cfg.Auth.DevLogin,
				AllowOwnerHeader: cfg.Auth.AllowOwnerHeader,
				DefaultPlan:      question.ParsePlan(cfg.Plans.Default),
				Log:              log.With("component", "auth"),
			}
			if secret := viper.GetString("jwt-secret"); secret != "" {
				authCfg.JWTSecret = secret
			}
			if authCfg.JWTSecret == "" && !authCfg.AllowOwnerHeader {
				log.Warn("no jwt secret configured; only API keys will authenticate")
			}

			sessions := engine.NewSessions(rt.Engine)
			handler, err := server.New(server.Config{
				Engine:   rt.Engine,
				Sessions: sessions,
				BasePath: basePath,
				Auth:     authCfg,
				Log:      log.With("component", "http"),
				Version:  app.Version,
			})
			if err != nil {
				return err
			}
			hooks := server.NewWebhookDispatcher(rt.Engine, cfg.Webhooks, log)
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				fmt.Printf("Serving Surveyline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			g.Go(func() error { return hooks.Run(ctx) })
			g.Go(func() error { return sessions.Run(ctx) })
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default server.base_path)")
	cmd.Flags().String("jwt-secret", "", "HS256 secret for bearer tokens (env SURVEYLINE_JWT_SECRET)")
	_ = viper.BindPFlag("jwt-secret", cmd.Flags().Lookup("jwt-secret"))
	return cmd
}
