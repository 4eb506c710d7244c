package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"surveyline/internal/app"
	"surveyline/internal/domain"
	"surveyline/internal/engine"
	"surveyline/internal/survey"
)

func libraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Reusable questions",
	}
	cmd.AddCommand(libraryListCmd())
	cmd.AddCommand(librarySaveCmd())
	cmd.AddCommand(libraryUseCmd())
	cmd.AddCommand(libraryDeleteCmd())
	return cmd
}

func libraryListCmd() *cobra.Command {
	var category, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your library questions and public ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				items, err := rt.Engine.ListLibraryQuestions(ctx, currentPrincipal(rt).OwnerID, domain.LibraryFilter{Category: category, Search: search})
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(items))
				for _, q := range items {
					vis := "private"
					if q.IsPublic {
						vis = "public"
					}
					rows = append(rows, table.Row{q.ID, truncate(q.Name, 36), q.Question.Type, q.Category, strings.Join(q.Tags, ","), vis, q.UsageCount})
				}
				return printTable(items, table.Row{"ID", "Name", "Type", "Category", "Tags", "Visibility", "Used"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category filter")
	cmd.Flags().StringVar(&search, "search", "", "match name or description")
	return cmd
}

func librarySaveCmd() *cobra.Command {
	var surveyID, questionID string
	var in engine.LibraryInput
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a survey question to the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			if surveyID == "" || questionID == "" {
				return fmt.Errorf("--survey and --question required")
			}
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				p := currentPrincipal(rt)
				rec, err := rt.Engine.SaveSurveyQuestionToLibrary(ownerContext(ctx, p), p.OwnerID, surveyID, questionID, in)
				if err != nil {
					return err
				}
				return printJSONOrTable(rec)
			})
		},
	}
	cmd.Flags().StringVar(&surveyID, "survey", "", "survey id")
	cmd.Flags().StringVar(&questionID, "question", "", "question id")
	cmd.Flags().StringVar(&in.Name, "name", "", "library name (default question title)")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.Category, "category", "", "category (default general)")
	cmd.Flags().StringSliceVar(&in.Tags, "tags", nil, "tags")
	cmd.Flags().BoolVar(&in.IsPublic, "public", false, "share with every owner")
	return cmd
}

func libraryUseCmd() *cobra.Command {
	var surveyID string
	cmd := &cobra.Command{
		Use:   "use <library-id>",
		Short: "Append a copy of a library question to a survey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if surveyID == "" {
				return fmt.Errorf("--survey required")
			}
			return withEditor(cmd.Context(), surveyID, func(ctx context.Context, rt *app.Runtime, ed *survey.Editor) error {
				p := currentPrincipal(rt)
				q, err := rt.Engine.BuildFromLibrary(ctx, p, args[0])
				if err != nil {
					return err
				}
				added, err := ed.AddQuestion(q)
				if err != nil {
					return err
				}
				return printJSONOrTable(added)
			})
		},
	}
	cmd.Flags().StringVar(&surveyID, "survey", "", "survey id")
	return cmd
}

func libraryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <library-id>",
		Short: "Delete one of your library questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				p := currentPrincipal(rt)
				return rt.Engine.DeleteLibraryQuestion(ownerContext(ctx, p), args[0], p.OwnerID)
			})
		},
	}
}

func apiKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "API keys for the HTTP API",
	}
	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key; the key is printed once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				p := currentPrincipal(rt)
				key, raw, err := rt.Engine.CreateAPIKey(ownerContext(ctx, p), p.OwnerID, name)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printJSON(map[string]any{"key": raw, "api_key": key})
				}
				fmt.Printf("Key %s created. Store it now, it will not be shown again:\n%s\n", key.ID, raw)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "label")
	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				keys, err := rt.Engine.ListAPIKeys(ctx, currentPrincipal(rt).OwnerID)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(keys))
				for _, k := range keys {
					rows = append(rows, table.Row{k.ID, k.Name, k.Prefix + "…", k.UsageCount, k.LastUsedAt, k.CreatedAt})
				}
				return printTable(keys, table.Row{"ID", "Name", "Prefix", "Uses", "Last used", "Created"}, rows)
			})
		},
	}
	del := &cobra.Command{
		Use:   "delete <key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				p := currentPrincipal(rt)
				return rt.Engine.DeleteAPIKey(ownerContext(ctx, p), args[0], p.OwnerID)
			})
		},
	}
	cmd.AddCommand(create, list, del)
	return cmd
}
