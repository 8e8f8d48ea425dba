package tui

import (
	"strings"
	"testing"

	"annotate-cli/internal/model"
)

func TestCategoryMarkdown(t *testing.T) {
	t.Parallel()

	got := categoryMarkdown(model.Category{
		Name:        "Person",
		Description: " A human being ",
		Notes:       "Not deities.",
		Examples:    model.Examples{"Tenzin", "Dolma"},
	})
	want := "A human being\n\n> Not deities.\n\n*e.g.* Tenzin; Dolma"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := categoryMarkdown(model.Category{Name: "Bare"}); got != "" {
		t.Fatalf("expected empty description, got %q", got)
	}
}

func TestRenderMarkdown_FallsBackAndWraps(t *testing.T) {
	t.Setenv("ANNOTATE_TUI_THEME", "dark")

	if got := renderMarkdown("   ", 40); got != "" {
		t.Fatalf("expected empty output for blank input, got %q", got)
	}
	out := renderMarkdown("plain words here", 40)
	if !strings.Contains(out, "plain") {
		t.Fatalf("expected rendered text to keep its words, got %q", out)
	}
}
