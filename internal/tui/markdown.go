package tui

import (
	"fmt"
	"strings"

	"annotate-cli/internal/model"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Building a glamour renderer parses a full style sheet, and the picker
// redraws on every keystroke.
var descRenderers, _ = lru.New[string, *glamour.TermRenderer](8)

// categoryMarkdown is the picker's description block for c.
func categoryMarkdown(c model.Category) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(c.Description))
	if n := strings.TrimSpace(c.Notes); n != "" {
		b.WriteString("\n\n> " + n)
	}
	if len(c.Examples) > 0 {
		b.WriteString("\n\n*e.g.* " + strings.Join(c.Examples, "; "))
	}
	return strings.TrimSpace(b.String())
}

// renderMarkdown renders md wrapped at width for a popup; on any renderer
// error the source text is returned.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	width = max(width, 10)

	dark := isDarkTheme()
	key := fmt.Sprintf("%t/%d", dark, width)
	r, ok := descRenderers.Get(key)
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStyles(popupStyle(dark)),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		descRenderers.Add(key, r)
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// popupStyle strips block margins; the popup border already pads.
func popupStyle(dark bool) ansi.StyleConfig {
	cfg := styles.LightStyleConfig
	if dark {
		cfg = styles.DarkStyleConfig
	}
	var zero uint
	cfg.Document.Margin = &zero
	cfg.Paragraph.Margin = &zero
	cfg.List.Margin = &zero
	cfg.CodeBlock.Margin = &zero
	return cfg
}

func isDarkTheme() bool {
	switch themePreference() {
	case "light":
		return false
	case "dark":
		return true
	}
	return lipgloss.HasDarkBackground()
}
