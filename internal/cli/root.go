package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"annotate-cli/internal/api"
	"annotate-cli/internal/catalog"
	"annotate-cli/internal/format"
	"annotate-cli/internal/gateway"
	"annotate-cli/internal/logging"
	"annotate-cli/internal/model"
	"annotate-cli/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	API         string
	Token       string
	AnnotatorID string
	WorkspaceDB string
	PrettyJSON  bool
	Format      string

	cfg      *store.Config
	log      *slog.Logger
	closeLog func() error
}

// backend is what every command needs from either the REST API or the
// offline workspace.
type backend interface {
	gateway.Gateway
	catalog.Fetcher
	Annotations(ctx context.Context, textID string) ([]model.Span, error)
	TextWithAnnotations(ctx context.Context, textID string) (model.Text, []model.Span, error)
	Reviews(ctx context.Context, spanID string) ([]model.Review, error)
}

var (
	_ backend = (*api.Client)(nil)
	_ backend = (*store.Workspace)(nil)
)

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "annotate",
		Short:        "Span annotation CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Annotate a text interactively (shortcut for: annotate open <text-id>)
  annotate 42

  # Reopen the last text
  annotate

  # Work offline against a local SQLite workspace
  annotate texts import --title "Sample" --file sample.txt
  annotate spans add text-abc --start 4 --end 7 --type person
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _ := loadTUIState(app)
			if st == nil || strings.TrimSpace(st.TextID) == "" {
				return cmd.Help()
			}
			return runOpen(cmd, app, st.TextID)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init()
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.closeLog != nil {
			return app.closeLog()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.API, "api", envOr("ANNOTATE_API", ""), "Backend base URL including the version prefix (empty: use the offline workspace)")
	cmd.PersistentFlags().StringVar(&app.Token, "token", envOr("ANNOTATE_TOKEN", ""), "Bearer token for the backend")
	cmd.PersistentFlags().StringVar(&app.AnnotatorID, "annotator", envOr("ANNOTATE_ANNOTATOR", ""), "Annotator id (overrides annotatorId in config.json)")
	cmd.PersistentFlags().StringVar(&app.WorkspaceDB, "workspace-db", envOr("ANNOTATE_WORKSPACE_DB", ""), "Path to the offline workspace SQLite file (default: discovered .annotate dir)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("ANNOTATE_FORMAT", "json"), "Output format (json|text)")

	cmd.AddCommand(newOpenCmd(app))
	cmd.AddCommand(newSpansCmd(app))
	cmd.AddCommand(newCatalogCmd(app))
	cmd.AddCommand(newTextsCmd(app))
	cmd.AddCommand(newReviewCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// init merges config.json under the flags and opens the log.
func (app *App) init() error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return err
	}
	app.cfg = cfg
	if app.API == "" {
		app.API = cfg.APIURL
	}
	if app.Token == "" {
		app.Token = cfg.Token
	}
	if app.AnnotatorID == "" {
		app.AnnotatorID = cfg.AnnotatorID
	}

	lc := logging.LogConfig{}
	if cfg.Log != nil {
		lc.Level, lc.Format, lc.Path = cfg.Log.Level, cfg.Log.Format, cfg.Log.Path
	}
	if v := os.Getenv("ANNOTATE_LOG"); v != "" {
		lc.Path = v
	}
	log, closeLog, err := logging.Open(lc)
	if err != nil {
		return err
	}
	app.log, app.closeLog = log, closeLog
	return nil
}

func (app *App) config() *store.Config {
	if app.cfg == nil {
		return &store.Config{}
	}
	return app.cfg
}

func (app *App) logger() *slog.Logger {
	return logging.OrDiscard(app.log)
}

func (app *App) offline() bool {
	return strings.TrimSpace(app.API) == ""
}

func openBackend(app *App) (backend, error) {
	if !app.offline() {
		return api.New(api.Config{BaseURL: app.API, Token: app.Token, AnnotatorID: app.AnnotatorID, Logger: app.logger()})
	}
	return openWorkspace(app)
}

// openWorkspace is the offline backend; some commands only make sense there.
func openWorkspace(app *App) (*store.Workspace, error) {
	s, err := store.Open(app.WorkspaceDB)
	if err != nil {
		return nil, err
	}
	return store.NewWorkspace(s, app.AnnotatorID, app.config().Admin), nil
}

func requireOffline(app *App, what string) error {
	if app.offline() {
		return nil
	}
	return fmt.Errorf("%s is only available for the offline workspace (unset --api)", what)
}

func loadTUIState(app *App) (*store.TUIState, store.Store) {
	s, err := store.Open(app.WorkspaceDB)
	if err != nil {
		return &store.TUIState{Version: 1}, s
	}
	st, err := s.LoadTUIState()
	if err != nil || st == nil {
		return &store.TUIState{Version: 1}, s
	}
	return st, s
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut wraps v in the {"data": ...} envelope for JSON; text output renders
// tables directly.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	if strings.EqualFold(strings.TrimSpace(app.Format), "text") {
		return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
	}
	return format.Write(cmd.OutOrStdout(), map[string]any{"data": v}, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
