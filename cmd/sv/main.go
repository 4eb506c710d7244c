package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"surveyline/internal/app"
	"surveyline/internal/engine/auth"
	"surveyline/internal/logger"
	"surveyline/internal/question"
	"surveyline/internal/survey"
)

var rootCmd = &cobra.Command{
	Use:   "sv",
	Short: "Surveyline CLI",
	Long: `Surveyline builds surveys out of typed questions.
- Question types: a catalog of twenty kinds (text, choice, rating, emoji, matrix, ...). Some need the pro or enterprise plan.
- Surveys: a title, settings and an ordered list of questions. Drafts can be published once every question has a title.
- Library: questions saved on their own so they can be dropped into any survey.
- Event log: every stored change, view with 'sv log tail'.
- Workspace: the directory holding surveyline.yml and the SQLite database.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SURVEYLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("owner", "local-user", "owner id the command acts for")
	rootCmd.PersistentFlags().String("plan", "", "plan of the owner (free, pro, enterprise); defaults to plans.default")
	rootCmd.PersistentFlags().Bool("verbose", false, "log to stderr")
	for _, name := range []string{"workspace", "json", "owner", "plan", "verbose"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(typesCmd())
	rootCmd.AddCommand(templateCmd())
	rootCmd.AddCommand(surveyCmd())
	rootCmd.AddCommand(questionCmd())
	rootCmd.AddCommand(libraryCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(configCmd())
}

// --- helpers ---

func cliLogger(mode string) *logger.Logger {
	if !viper.GetBool("verbose") {
		return logger.Nop()
	}
	log, err := logger.New(mode)
	if err != nil {
		return logger.Nop()
	}
	return log
}

func withRuntime(ctx context.Context, fn func(context.Context, *app.Runtime) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := app.ResolveConfig(workspace)
	if err != nil {
		return err
	}
	log := cliLogger(cfg.Logging.Mode)
	defer log.Sync()
	rt, err := app.Open(ctx, workspace, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())
	return fn(ctx, rt)
}

func currentPrincipal(rt *app.Runtime) auth.Principal {
	plan := viper.GetString("plan")
	if plan == "" {
		plan = rt.Config.Plans.Default
	}
	return auth.Principal{
		OwnerID: viper.GetString("owner"),
		Plan:    question.ParsePlan(plan),
		Source:  "cli",
	}
}

func ownerContext(ctx context.Context, p auth.Principal) context.Context {
	return auth.WithPrincipal(ctx, p)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

// printTable renders rows unless --json is set, in which case v is
// printed instead.
func printTable(v any, header table.Row, rows []table.Row) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.SetStyle(table.StyleLight)
	tw.Render()
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func jsonOutput() bool { return viper.GetBool("json") }

// withEditor loads surveyID into a one-shot editor, runs fn and saves
// whatever fn left unsaved.
func withEditor(ctx context.Context, surveyID string, fn func(context.Context, *app.Runtime, *survey.Editor) error) error {
	return withRuntime(ctx, func(ctx context.Context, rt *app.Runtime) error {
		p := currentPrincipal(rt)
		ctx = ownerContext(ctx, p)
		stored, err := rt.Engine.LoadSurvey(ctx, surveyID, p.OwnerID)
		if err != nil {
			return err
		}
		ed := survey.NewEditor(stored, rt.Engine, survey.EditorOptions{
			Factory: rt.Engine.Factory,
			Log:     rt.Log,
			Now:     rt.Engine.Now,
		})
		if err := fn(ctx, rt, ed); err != nil {
			return err
		}
		if ed.Autosave().Dirty() {
			_, err := ed.Save(ctx)
			return err
		}
		return nil
	})
}
