package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"surveyline/internal/app"
	"surveyline/internal/domain"
	"surveyline/internal/question"
	"surveyline/internal/survey"
)

func surveyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "survey", Short: "Manage surveys"}
	cmd.AddCommand(surveyCreateCmd())
	cmd.AddCommand(surveyListCmd())
	cmd.AddCommand(surveyShowCmd())
	cmd.AddCommand(surveyDeleteCmd())
	cmd.AddCommand(surveyValidateCmd())
	cmd.AddCommand(surveyPublishCmd(true))
	cmd.AddCommand(surveyPublishCmd(false))
	cmd.AddCommand(surveyExportCmd())
	cmd.AddCommand(surveyImportCmd())
	return cmd
}

func surveyCreateCmd() *cobra.Command {
	var title, desc, templateID string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft survey",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				p := currentPrincipal(rt)
				ctx = ownerContext(ctx, p)
				if templateID == "" {
					s, err := rt.Engine.CreateSurvey(ctx, p.OwnerID, title, desc)
					if err != nil {
						return err
					}
					return printJSONOrTable(s)
				}
				tmpl, err := survey.TemplateByID(templateID)
				if err != nil {
					return err
				}
				for _, q := range tmpl.Questions {
					if err := p.RequireType(rt.Engine.Registry, question.Normalize(q.Type)); err != nil {
						return err
					}
				}
				s, err := rt.Engine.CreateFromTemplate(ctx, p.OwnerID, tmpl.ID)
				if err != nil {
					return err
				}
				if title != "" || desc != "" {
					if title != "" {
						s.Title = title
					}
					if desc != "" {
						s.Description = desc
					}
					if s, err = rt.Engine.SaveSurvey(ctx, s); err != nil {
						return err
					}
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "survey title")
	cmd.Flags().StringVar(&desc, "description", "", "survey description")
	cmd.Flags().StringVar(&templateID, "template", "", "start from a built-in template (see sv template list)")
	return cmd
}

func surveyListCmd() *cobra.Command {
	var status, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List surveys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				p := currentPrincipal(rt)
				items, err := rt.Engine.ListSurveys(ctx, p.OwnerID, domain.SurveyFilter{Status: domain.SurveyStatus(status), Search: search})
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(items))
				for _, s := range items {
					rows = append(rows, table.Row{s.ID, truncate(s.Title, 40), s.Status, s.QuestionCount, s.UpdatedAt})
				}
				return printTable(items, table.Row{"ID", "Title", "Status", "Questions", "Updated"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "draft or published")
	cmd.Flags().StringVar(&search, "search", "", "match title or description")
	return cmd
}

func surveyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <survey-id>",
		Short: "Show a survey and its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				s, err := rt.Engine.LoadSurvey(ctx, args[0], currentPrincipal(rt).OwnerID)
				if err != nil {
					return err
				}
				return printSurvey(s)
			})
		},
	}
}

func printSurvey(s domain.Survey) error {
	rows := make([]table.Row, 0, len(s.Questions))
	for i, q := range s.Questions {
		flags := []string{}
		if q.Required {
			flags = append(flags, "required")
		}
		if q.Hidden {
			flags = append(flags, "hidden")
		}
		rows = append(rows, table.Row{i, q.ID, q.Type, truncate(q.Title, 40), strings.Join(flags, ","), truncate(question.Preview(q), 40)})
	}
	if !jsonOutput() {
		fmt.Printf("%s  [%s]  %s\n", s.ID, s.Status, s.Title)
	}
	return printTable(s, table.Row{"#", "ID", "Type", "Title", "Flags", "Preview"}, rows)
}

func surveyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <survey-id>",
		Short: "Delete a survey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				p := currentPrincipal(rt)
				return rt.Engine.DeleteSurvey(ownerContext(ctx, p), args[0], p.OwnerID)
			})
		},
	}
}

func surveyValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <survey-id>",
		Short: "Validate every question of a survey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				v, err := rt.Engine.ValidateSurvey(ctx, args[0], currentPrincipal(rt).OwnerID)
				if err != nil {
					return err
				}
				rows := []table.Row{}
				for field, msg := range v.Errors {
					rows = append(rows, table.Row{"survey", field, msg})
				}
				for qid, errs := range v.QuestionErrors {
					for field, msg := range errs {
						rows = append(rows, table.Row{qid, field, msg})
					}
				}
				if !jsonOutput() && v.IsValid {
					fmt.Println("valid")
					return nil
				}
				return printTable(v, table.Row{"Scope", "Field", "Error"}, rows)
			})
		},
	}
}

func surveyPublishCmd(publish bool) *cobra.Command {
	use, short := "publish", "Publish a survey"
	if !publish {
		use, short = "unpublish", "Return a survey to draft"
	}
	return &cobra.Command{
		Use:   use + " <survey-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], func(ctx context.Context, rt *app.Runtime, ed *survey.Editor) error {
				var (
					s   domain.Survey
					err error
				)
				if publish {
					s, err = ed.Publish(ctx)
				} else {
					s, err = ed.Unpublish(ctx)
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"id": s.ID, "status": s.Status, "published_at": s.PublishedAt})
			})
		},
	}
}

func surveyExportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export <survey-id>",
		Short: "Export a survey document as YAML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				s, err := rt.Engine.LoadSurvey(ctx, args[0], currentPrincipal(rt).OwnerID)
				if err != nil {
					return err
				}
				data, err := encodeSurvey(s, format)
				if err != nil {
					return err
				}
				if out == "" {
					_, err = os.Stdout.Write(data)
					return err
				}
				return os.WriteFile(out, data, 0o644)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "yaml or json")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func surveyImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a survey document as a new draft",
		Long:  "Reads a YAML or JSON survey document (as written by sv survey export). Legacy question types are normalized.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			s, err := decodeSurvey(data, filepath.Ext(args[0]))
			if err != nil {
				return err
			}
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				p := currentPrincipal(rt)
				question.NormalizeSurvey(&s)
				if err := p.RequireTypes(rt.Engine.Registry, s.Questions); err != nil {
					return err
				}
				s.ID = ""
				s.Status = domain.StatusDraft
				saved, err := rt.Engine.ImportSurvey(ownerContext(ctx, p), p.OwnerID, s)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"id": saved.ID, "title": saved.Title, "questions": len(saved.Questions)})
			})
		},
	}
}

// encodeSurvey goes through JSON so YAML output keeps the API field names.
func encodeSurvey(s domain.Survey, format string) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "json":
		return append(data, '\n'), nil
	case "yaml", "yml":
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func decodeSurvey(data []byte, ext string) (domain.Survey, error) {
	var s domain.Survey
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("invalid survey json: %w", err)
		}
		return s, nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return s, fmt.Errorf("invalid survey yaml: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("invalid survey document: %w", err)
	}
	return s, nil
}
