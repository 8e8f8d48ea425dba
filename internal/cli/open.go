package cli

import (
	"strings"
	"time"

	"annotate-cli/internal/catalog"
	"annotate-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newOpenCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <text-id>",
		Short: "Annotate a text in the terminal UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd, app, args[0])
		},
	}
	return cmd
}

func runOpen(cmd *cobra.Command, app *App, textID string) error {
	ctx := cmd.Context()
	b, err := openBackend(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	text, spans, err := b.TextWithAnnotations(ctx, strings.TrimSpace(textID))
	if err != nil {
		return writeErr(cmd, err)
	}
	cache, err := catalog.NewCache(b, catalog.DefaultCacheSize)
	if err != nil {
		return writeErr(cmd, err)
	}

	cfg := app.config()
	st, s := loadTUIState(app)
	taxonomy := cfg.Taxonomy
	if taxonomy == "" && st.PickerMode != "structural" {
		taxonomy = st.Taxonomy
	}
	opts := tui.Options{
		Text:             text,
		Spans:            spans,
		Gateway:          b,
		Catalogs:         cache,
		Taxonomy:         taxonomy,
		Structural:       cfg.StructuralTypes,
		Reviews:          b.Reviews,
		AnnotatorID:      app.AnnotatorID,
		OptimisticPrefix: cfg.OptimisticPrefix,
		State:            st,
		Logger:           app.logger(),
	}
	if cfg.TUI != nil {
		opts.Profile = cfg.TUI.Profile
		if cfg.TUI.FlashMillis > 0 {
			opts.Flash = time.Duration(cfg.TUI.FlashMillis) * time.Millisecond
		}
	}

	app.logger().Info("tui start", "text_id", text.ID, "spans", len(spans), "offline", app.offline())
	if err := tui.Run(ctx, opts); err != nil {
		return writeErr(cmd, err)
	}
	if err := s.SaveTUIState(st); err != nil {
		app.logger().Warn("save tui state failed", "err", err)
	}
	return nil
}
