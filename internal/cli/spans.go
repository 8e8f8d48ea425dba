package cli

import (
	"context"
	"errors"
	"strings"

	"annotate-cli/internal/model"
	"annotate-cli/internal/mutate"
	"annotate-cli/internal/spanutil"

	"github.com/spf13/cobra"
)

func newSpansCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "spans",
		Aliases: []string{"annotations"},
		Short:   "Annotation span commands",
	}
	cmd.AddCommand(newSpansListCmd(app))
	cmd.AddCommand(newSpansAddCmd(app))
	cmd.AddCommand(newSpansUpdateCmd(app))
	cmd.AddCommand(newSpansRemoveCmd(app))
	cmd.AddCommand(newSpansMoveCmd(app))
	cmd.AddCommand(newSpansUndoMineCmd(app))
	return cmd
}

// ensureUnlocked refuses spans a reviewer has agreed to before anything is sent.
func ensureUnlocked(ctx context.Context, b backend, spanID string) error {
	reviews, err := b.Reviews(ctx, spanID)
	if err != nil {
		return err
	}
	for _, r := range reviews {
		if r.Decision == model.DecisionAgree {
			return mutate.LockedError{SpanID: spanID}
		}
	}
	return nil
}

func newSpansListCmd(app *App) *cobra.Command {
	var (
		mine bool
		at   int
	)

	cmd := &cobra.Command{
		Use:   "list <text-id>",
		Short: "List the annotations of a text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			spans, err := b.Annotations(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if mine {
				if strings.TrimSpace(app.AnnotatorID) == "" {
					return writeErr(cmd, errors.New("--mine needs an annotator id (--annotator or config annotator-id)"))
				}
				spans = spanutil.ByAnnotator(spans, app.AnnotatorID)
			}
			if cmd.Flags().Changed("at") {
				spans = spanutil.At(spans, at)
			}
			return writeOut(cmd, app, spanTable(spanutil.SortByPosition(spans)))
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "Only spans created by the current annotator")
	cmd.Flags().IntVar(&at, "at", 0, "Only spans covering this offset")
	return cmd
}

func newSpansAddCmd(app *App) *cobra.Command {
	var (
		start, end int
		typ        string
		level      string
		name       string
		confidence int
	)

	cmd := &cobra.Command{
		Use:   "add <text-id>",
		Short: "Annotate [start, end) of a text (code point offsets)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			lvl, err := model.ParseLevel(level)
			if err != nil {
				return writeErr(cmd, err)
			}
			text, _, err := b.TextWithAnnotations(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			runes := []rune(text.Content)
			d := model.Draft{
				Type:       typ,
				Level:      lvl,
				Start:      start,
				End:        end,
				Confidence: confidence,
			}
			if strings.TrimSpace(name) != "" {
				n := name
				d.Name = &n
			}
			if spanutil.ValidateOffsets(start, end, len(runes)) == nil {
				d.Text = spanutil.Slice(runes, start, end)
			}
			d, err = mutate.ValidateDraft(d, len(runes))
			if err != nil {
				return writeErr(cmd, err)
			}

			s, err := b.Create(ctx, text.ID, d)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Info("span created", "text_id", text.ID, "span_id", s.ID, "type", s.Type)
			return writeOut(cmd, app, s)
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "Start offset (inclusive)")
	cmd.Flags().IntVar(&end, "end", 0, "End offset (exclusive)")
	cmd.Flags().StringVar(&typ, "type", "", "Annotation type")
	cmd.Flags().StringVar(&level, "level", "", "Level (minor|major|critical)")
	cmd.Flags().StringVar(&name, "name", "", "Optional note")
	cmd.Flags().IntVar(&confidence, "confidence", 0, "Confidence (0-100)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newSpansUpdateCmd(app *App) *cobra.Command {
	var typ, level, name string

	cmd := &cobra.Command{
		Use:   "update <span-id>",
		Short: "Change type, level or note of a span",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var p model.Patch
			if cmd.Flags().Changed("type") {
				t := strings.TrimSpace(typ)
				if t == "" {
					return writeErr(cmd, mutate.ValidationError{Field: "type", Msg: "annotation type is empty"})
				}
				p.Type = &t
			}
			if cmd.Flags().Changed("level") {
				lvl, err := model.ParseLevel(level)
				if err != nil {
					return writeErr(cmd, err)
				}
				p.Level = &lvl
			}
			if cmd.Flags().Changed("name") {
				n := strings.TrimSpace(name)
				p.Name = &n
			}
			if p.Empty() {
				return writeErr(cmd, errors.New("nothing to update (use --type, --level or --name)"))
			}

			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ensureUnlocked(ctx, b, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			s, err := b.Update(ctx, args[0], p)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, s)
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "New annotation type")
	cmd.Flags().StringVar(&level, "level", "", "New level (empty resets to default)")
	cmd.Flags().StringVar(&name, "name", "", "New note (empty clears it)")
	return cmd
}

func newSpansRemoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <span-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a span",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ensureUnlocked(ctx, b, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			if err := b.Remove(ctx, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"id": args[0], "deleted": true})
		},
	}
	return cmd
}

func newSpansMoveCmd(app *App) *cobra.Command {
	var start, end int

	cmd := &cobra.Command{
		Use:   "move <span-id>",
		Short: "Move a structural (header) span to [start, end)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := spanutil.ValidateOffsets(start, end, end); err != nil {
				return writeErr(cmd, err)
			}
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ensureUnlocked(ctx, b, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			s, err := b.UpdateHeaderSpan(ctx, args[0], start, end)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, s)
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "New start offset (inclusive)")
	cmd.Flags().IntVar(&end, "end", 0, "New end offset (exclusive)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newSpansUndoMineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo-mine <text-id>",
		Short: "Delete every span of the current annotator on a text (agreed spans stay)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(app.AnnotatorID) == "" {
				return writeErr(cmd, errors.New("no annotator id; pass --annotator or run `annotate config set annotator-id <id>`"))
			}
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := b.RemoveMine(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"text_id": args[0], "deleted_count": n})
		},
	}
	return cmd
}
