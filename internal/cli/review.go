package cli

import (
	"strings"

	"annotate-cli/internal/model"

	"github.com/spf13/cobra"
)

func newReviewCmd(app *App) *cobra.Command {
	var (
		decision string
		comment  string
		reviewer string
		list     bool
	)

	cmd := &cobra.Command{
		Use:   "review <span-id>",
		Short: "Record a reviewer decision (offline) or list a span's reviews",
		Long: strings.TrimSpace(`
Record an agree/disagree decision on a span in the offline workspace. A single
agree decision locks the span: it can no longer be edited, moved or deleted.

With --list the span's reviews are printed instead (works against the API too).
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if list {
				b, err := openBackend(app)
				if err != nil {
					return writeErr(cmd, err)
				}
				rs, err := b.Reviews(ctx, args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, reviewTable(rs))
			}

			if err := requireOffline(app, "recording reviews"); err != nil {
				return writeErr(cmd, err)
			}
			w, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var c *string
			if strings.TrimSpace(comment) != "" {
				c = &comment
			}
			r, err := w.AddReview(ctx, args[0], reviewer, model.Decision(strings.ToLower(strings.TrimSpace(decision))), c)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, r)
		},
	}

	cmd.Flags().StringVar(&decision, "decision", "agree", "agree|disagree")
	cmd.Flags().StringVar(&comment, "comment", "", "Optional comment")
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "Reviewer id (default: current annotator)")
	cmd.Flags().BoolVar(&list, "list", false, "List the span's reviews instead of adding one")
	return cmd
}
