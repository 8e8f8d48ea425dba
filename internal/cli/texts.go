package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"annotate-cli/internal/model"

	"github.com/spf13/cobra"
)

func newTextsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "texts",
		Short: "Text commands",
	}
	cmd.AddCommand(newTextsImportCmd(app))
	cmd.AddCommand(newTextsListCmd(app))
	cmd.AddCommand(newTextsShowCmd(app))
	return cmd
}

func newTextsImportCmd(app *App) *cobra.Command {
	var id, title, file, language string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a UTF-8 text file into the offline workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOffline(app, "texts import"); err != nil {
				return writeErr(cmd, err)
			}
			var (
				b   []byte
				err error
			)
			if file == "-" {
				b, err = io.ReadAll(cmd.InOrStdin())
			} else {
				b, err = os.ReadFile(file)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(title) == "" && file != "-" {
				title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			}

			w, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := w.ImportText(cmd.Context(), model.Text{
				ID:       id,
				Title:    strings.TrimSpace(title),
				Content:  string(b),
				Language: strings.TrimSpace(language),
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Info("text imported", "text_id", t.ID, "runes", len([]rune(t.Content)))
			return writeOut(cmd, app, t)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Text id (default: generated)")
	cmd.Flags().StringVar(&title, "title", "", "Title (default: file name)")
	cmd.Flags().StringVar(&file, "file", "", "Path to the text file, or - for stdin")
	cmd.Flags().StringVar(&language, "language", "", "Language tag, e.g. bo")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTextsListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List texts in the offline workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOffline(app, "texts list"); err != nil {
				return writeErr(cmd, err)
			}
			w, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			texts, err := w.Texts(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, textTable(texts))
		},
	}
	return cmd
}

type textWithSpans struct {
	Text        model.Text   `json:"text"`
	Annotations []model.Span `json:"annotations"`
}

func newTextsShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <text-id>",
		Short: "Show a text with its annotations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, spans, err := b.TextWithAnnotations(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if strings.EqualFold(strings.TrimSpace(app.Format), "text") {
				return writeOut(cmd, app, spanTable(spans))
			}
			return writeOut(cmd, app, textWithSpans{Text: t, Annotations: spans})
		},
	}
	return cmd
}
