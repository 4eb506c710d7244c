package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"surveyline/internal/app"
	"surveyline/internal/domain"
	"surveyline/internal/question"
	"surveyline/internal/survey"
)

func questionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Edit the questions of a survey",
		Long:  "Each command loads the survey, applies one edit and saves it.",
	}
	cmd.AddCommand(questionAddCmd())
	cmd.AddCommand(questionUpdateCmd())
	cmd.AddCommand(questionRemoveCmd())
	cmd.AddCommand(questionDuplicateCmd())
	cmd.AddCommand(questionMoveCmd())
	cmd.AddCommand(questionBulkCmd())
	return cmd
}

func questionAddCmd() *cobra.Command {
	var typ, title, desc, libraryID string
	var required bool
	var options, sets []string
	cmd := &cobra.Command{
		Use:   "add <survey-id>",
		Short: "Add a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if typ == "" && libraryID == "" {
				return fmt.Errorf("--type or --library required")
			}
			settings, err := parseSettings(sets)
			if err != nil {
				return err
			}
			return withEditor(cmd.Context(), args[0], func(ctx context.Context, rt *app.Runtime, ed *survey.Editor) error {
				p := currentPrincipal(rt)
				var q domain.Question
				if libraryID != "" {
					if q, err = rt.Engine.BuildFromLibrary(ctx, p, libraryID); err != nil {
						return err
					}
				} else {
					t := question.Normalize(typ)
					if !rt.Engine.Registry.Has(t) {
						return domain.UnknownTypeError{Type: t}
					}
					q, err = rt.Engine.Factory.CreateFromTemplate(question.Partial{
						Type: typ, Title: title, Description: desc, Required: required, Options: options, Settings: settings,
					})
					if err != nil {
						return err
					}
				}
				if err := p.RequireType(rt.Engine.Registry, q.Type); err != nil {
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
	cmd.Flags().StringVar(&typ, "type", "", "question type (see sv types)")
	cmd.Flags().StringVar(&title, "title", "", "question title")
	cmd.Flags().StringVar(&desc, "description", "", "question description")
	cmd.Flags().BoolVar(&required, "required", false, "answer required")
	cmd.Flags().StringArrayVar(&options, "option", nil, "choice option (repeatable)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "setting as key=value; value parsed as JSON when possible (repeatable)")
	cmd.Flags().StringVar(&libraryID, "library", "", "copy a library question instead")
	return cmd
}

func questionUpdateCmd() *cobra.Command {
	var typ, title, desc string
	var required, hidden bool
	var sets []string
	cmd := &cobra.Command{
		Use:   "update <survey-id> <question-id>",
		Short: "Update a question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := parseSettings(sets)
			if err != nil {
				return err
			}
			var patch domain.QuestionPatch
			if cmd.Flags().Changed("type") {
				t := domain.QuestionType(typ)
				patch.Type = &t
			}
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &desc
			}
			if cmd.Flags().Changed("required") {
				patch.Required = &required
			}
			if cmd.Flags().Changed("hidden") {
				patch.Hidden = &hidden
			}
			patch.Settings = settings
			if patch.Empty() {
				return fmt.Errorf("nothing to update")
			}
			return withEditor(cmd.Context(), args[0], func(ctx context.Context, rt *app.Runtime, ed *survey.Editor) error {
				if patch.Type != nil {
					if err := currentPrincipal(rt).RequireType(rt.Engine.Registry, question.Normalize(typ)); err != nil {
						return err
					}
				}
				changed, err := ed.UpdateQuestion(args[1], patch)
				if err != nil {
					return err
				}
				if !changed {
					return domain.NotFoundError{Kind: "question", ID: args[1]}
				}
				for _, q := range ed.Survey().Questions {
					if q.ID == args[1] {
						if res := question.Validate(q); !res.IsValid && !jsonOutput() {
							fmt.Printf("warning: question is incomplete: %v\n", res.Errors)
						}
						return printJSONOrTable(q)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "change type; settings reset to the new type's defaults")
	cmd.Flags().StringVar(&title, "title", "", "question title")
	cmd.Flags().StringVar(&desc, "description", "", "question description")
	cmd.Flags().BoolVar(&required, "required", false, "answer required")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "hide from respondents")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "setting as key=value; value parsed as JSON when possible (repeatable)")
	return cmd
}

func questionRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <survey-id> <question-id>",
		Short: "Remove a question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], func(ctx context.Context, rt *app.Runtime, ed *survey.Editor) error {
				if !ed.DeleteQuestion(args[1]) {
					return domain.NotFoundError{Kind: "question", ID: args[1]}
				}
				return nil
			})
		},
	}
}

func questionDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <survey-id> <question-id>",
		Short: "Duplicate a question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], func(ctx context.Context, rt *app.Runtime, ed *survey.Editor) error {
				dup, ok := ed.DuplicateQuestion(args[1])
				if !ok {
					return domain.NotFoundError{Kind: "question", ID: args[1]}
				}
				return printJSONOrTable(dup)
			})
		},
	}
}

func questionMoveCmd() *cobra.Command {
	var from, to int
	cmd := &cobra.Command{
		Use:   "move <survey-id>",
		Short: "Move the question at --from to --to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], func(ctx context.Context, rt *app.Runtime, ed *survey.Editor) error {
				if err := ed.Reorder(from, to); err != nil {
					return err
				}
				return printSurvey(ed.Survey())
			})
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "current index")
	cmd.Flags().IntVar(&to, "to", 0, "target index")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func questionBulkCmd() *cobra.Command {
	var action string
	var ids []string
	var all, yes bool
	cmd := &cobra.Command{
		Use:   "bulk <survey-id>",
		Short: "Apply one action to several questions",
		Long:  "Actions: delete, duplicate, require, optional, hide, show, move_up, move_down. delete and duplicate need --yes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			act, err := survey.ParseBulkAction(action)
			if err != nil {
				return err
			}
			return withEditor(cmd.Context(), args[0], func(ctx context.Context, rt *app.Runtime, ed *survey.Editor) error {
				if all {
					ed.SelectAll()
				} else {
					ed.Select(ids)
				}
				res, err := ed.RequestBulk(act)
				if errors.Is(err, domain.ErrConfirmationRequired) {
					if !yes {
						ed.CancelBulk()
						return fmt.Errorf("%s changes %d questions; rerun with --yes", act, len(ed.Selected()))
					}
					res, err = ed.ConfirmBulk()
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "bulk action")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "question ids")
	cmd.Flags().BoolVar(&all, "all", false, "select every question")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm destructive actions")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

// parseSettings turns key=value pairs into a settings override map.
func parseSettings(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}
