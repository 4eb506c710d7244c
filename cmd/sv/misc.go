package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"surveyline/internal/app"
	"surveyline/internal/config"
	"surveyline/internal/domain"
	"surveyline/internal/events"
	"surveyline/internal/question"
	"surveyline/internal/repo"
	"surveyline/internal/survey"
)

func typesCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List question types",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := question.Default()
			plan := question.ParsePlan(viper.GetString("plan"))
			types := reg.ListTypes()
			if category != "" {
				types = reg.ByCategory(category)
			}
			rows := make([]table.Row, 0, len(types))
			for _, t := range types {
				avail := "yes"
				if !reg.HasAccess(t.Key, plan, "") {
					avail = "needs " + string(t.PlanRequired)
				}
				rows = append(rows, table.Row{t.Icon, t.Key, t.Name, t.Category, avail})
			}
			return printTable(types, table.Row{"", "Type", "Name", "Category", "Available"}, rows)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	return cmd
}

func templateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "template", Short: "Built-in survey templates"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := survey.Templates()
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(items))
			for _, t := range items {
				rows = append(rows, table.Row{t.ID, t.Name, t.Category, len(t.Questions)})
			}
			return printTable(items, table.Row{"ID", "Name", "Category", "Questions"}, rows)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <template-id>",
		Short: "Show a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := survey.TemplateByID(args[0])
			if err != nil {
				return err
			}
			return printJSONOrTable(t)
		},
	})
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "Every stored change: surveys created, published or deleted, library use, API keys.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, surveyID, entityKind string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				items, err := rt.Engine.ListEvents(ctx, n, 0, repo.EventFilter{
					OwnerID:    currentPrincipal(rt).OwnerID,
					SurveyID:   surveyID,
					Type:       evtType,
					EntityKind: entityKind,
				})
				if err != nil {
					return err
				}
				return printEvents(items)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&surveyID, "survey", "", "survey id filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind filter")
	return cmd
}

func printEvents(items []domain.Event) error {
	rows := make([]table.Row, 0, len(items))
	for _, e := range items {
		rows = append(rows, table.Row{e.ID, e.TS, e.Type, e.EntityKind, e.EntityID, e.ActorID, truncate(e.Payload, 60)})
	}
	return printTable(items, table.Row{"ID", "TS", "Type", "Kind", "Entity", "Actor", "Payload"}, rows)
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "events", Short: "Live event stream"}
	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Print events published on the Redis channel until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				sub, ok := rt.Engine.Bus.(events.Subscriber)
				if !ok {
					return fmt.Errorf("events.redis_addr is not configured or unreachable")
				}
				if err := sub.Subscribe(ctx, func(evt domain.Event) {
					if jsonOutput() {
						_ = printJSON(evt)
						return
					}
					fmt.Printf("%d %s %s %s/%s by %s\n", evt.ID, evt.TS, evt.Type, evt.EntityKind, evt.EntityID, evt.ActorID)
				}); err != nil {
					return err
				}
				<-ctx.Done()
				return nil
			})
		},
	})
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Workspace configuration"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ResolveConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if jsonOutput() {
				return printJSON(cfg)
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate surveyline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(viper.GetString("workspace")); err != nil {
				return err
			}
			fmt.Println("config ok")
			return nil
		},
	})
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default surveyline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if err := os.MkdirAll(workspace, 0o755); err != nil {
				return err
			}
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
