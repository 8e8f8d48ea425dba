package cli

import (
	"strconv"
	"strings"

	"annotate-cli/internal/catalog"
	"annotate-cli/internal/model"
)

type spanTable []model.Span

func (t spanTable) Header() []string {
	return []string{"ID", "TYPE", "LEVEL", "START", "END", "TEXT", "AGREED", "NOTE"}
}

func (t spanTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, s := range t {
		level := string(s.Level)
		if level == "" {
			level = "-"
		}
		agreed := ""
		if s.IsAgreed {
			agreed = "yes"
		}
		rows = append(rows, []string{
			s.ID, s.Type, level, strconv.Itoa(s.Start), strconv.Itoa(s.End), s.Text, agreed, s.NameOrEmpty(),
		})
	}
	return rows
}

type textTable []model.Text

func (t textTable) Header() []string { return []string{"ID", "TITLE", "STATUS", "LENGTH"} }

func (t textTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, x := range t {
		rows = append(rows, []string{x.ID, x.Title, x.Status, strconv.Itoa(len([]rune(x.Content)))})
	}
	return rows
}

type reviewTable []model.Review

func (t reviewTable) Header() []string { return []string{"ID", "DECISION", "REVIEWER", "CREATED", "COMMENT"} }

func (t reviewTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Format("2006-01-02 15:04")
		}
		comment := ""
		if r.Comment != nil {
			comment = *r.Comment
		}
		rows = append(rows, []string{r.ID, string(r.Decision), r.ReviewerID, created, comment})
	}
	return rows
}

// categoryRow is a category with its breadcrumb path, as listed by the
// catalog commands.
type categoryRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Mnemonic    string `json:"mnemonic,omitempty"`
	Description string `json:"description,omitempty"`
}

type categoryTable []categoryRow

func (t categoryTable) Header() []string { return []string{"ID", "NAME", "PATH", "DESCRIPTION"} }

func (t categoryTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, c := range t {
		rows = append(rows, []string{c.ID, c.Name, c.Path, c.Description})
	}
	return rows
}

func categoryRows(c *catalog.Catalog, cats []model.Category) categoryTable {
	out := make(categoryTable, 0, len(cats))
	for _, x := range cats {
		out = append(out, categoryRow{
			ID:          x.ID,
			Name:        x.Name,
			Path:        c.Path(x.ID),
			Mnemonic:    x.Mnemonic,
			Description: strings.TrimSpace(x.Description),
		})
	}
	return out
}
