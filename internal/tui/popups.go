package tui

import (
	"fmt"
	"strings"

	"annotate-cli/internal/catalog"
	"annotate-cli/internal/model"
	"annotate-cli/internal/perm"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// editModel holds the unsaved fields of the edit popup.
type editModel struct {
	spanID    string
	typ       string
	level     model.Level
	note      textinput.Model
	noteFocus bool
}

func newEdit(s model.Span) editModel {
	e := editModel{
		spanID: s.ID,
		typ:    s.Type,
		level:  s.Level,
		note:   newTextInput("note"),
	}
	e.note.SetValue(s.NameOrEmpty())
	return e
}

func (e editModel) nameValue() *string {
	v := strings.TrimSpace(e.note.Value())
	return &v
}

func field(label, value string) string {
	return styleMuted().Render(fmt.Sprintf("%-7s", label)) + value
}

func quote(s model.Span, w int) string {
	return "“" + clip(s.Text, max(1, w-2)) + "”"
}

func renderEditPopup(w, h int, s model.Span, e editModel, aff perm.Affordances, cat *catalog.Catalog) string {
	inner := max(10, w-2)
	typ := e.typ
	if cat != nil {
		if c, ok := cat.FindByName(typ); ok {
			if p := cat.Path(c.ID); p != "" {
				typ = p
			}
		}
	}
	note := clip(e.note.Value(), inner-7)
	if e.noteFocus {
		note = renderInputLine(inner-7, e.note.View())
	}
	keys := defaultKeyMap()
	bindings := []string{helpLine(keys.Retype, keys.CycleLevel, keys.Note)}
	var extra []string
	if aff.Delete {
		extra = append(extra, helpLine(keys.Delete))
	}
	if aff.Move {
		extra = append(extra, helpLine(keys.Move))
	}
	extra = append(extra, "enter: save", "esc: close")
	bindings = append(bindings, strings.Join(extra, "  "))

	lines := []string{
		quote(s, inner),
		field("type", clip(typ, inner-7)),
		field("level", levelLabel(e.level)),
		field("note", note),
		fmt.Sprintf("%s [%d,%d)", styleMuted().Render("offsets"), s.Start, s.End),
	}
	for _, b := range bindings {
		lines = append(lines, styleMuted().Render(clip(b, inner)))
	}
	return renderBox(w, h, "Annotation "+s.ID, strings.Join(lines, "\n"))
}

type confirmFocus int

const (
	confirmFocusConfirm confirmFocus = iota
	confirmFocusCancel
)

func renderConfirm(w, h int, title, body, confirmLabel, cancelLabel string, focus confirmFocus) string {
	btnBase := lipgloss.NewStyle().Padding(0, 1).Foreground(colorSurfaceFg).Background(colorControlBg)
	btnActive := btnBase.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)

	confirm := btnBase.Render(confirmLabel)
	cancel := btnBase.Render(cancelLabel)
	if focus == confirmFocusConfirm {
		confirm = btnActive.Render(confirmLabel)
	} else {
		cancel = btnActive.Render(cancelLabel)
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)
	help := styleMuted().Render("y/enter: confirm  n/esc: cancel")
	return renderBox(w, h, title, strings.Join([]string{body, "", controls, help}, "\n"))
}

func renderDeletePopup(w, h int, s model.Span) string {
	body := fmt.Sprintf("Delete [%s] %s?", s.Type, quote(s, max(10, w-2)-len(s.Type)-12))
	return renderConfirm(w, h, "Delete annotation", body, "Delete", "Cancel", confirmFocusConfirm)
}

// renderReviewPopup is the read-only view of an agreed span.
func renderReviewPopup(w, h int, s model.Span, reviews []model.Review) string {
	inner := max(10, w-2)
	lines := []string{
		quote(s, inner),
		field("type", clip(s.Type, inner-7)),
		field("level", levelLabel(s.Level)),
	}
	if n := s.NameOrEmpty(); n != "" {
		lines = append(lines, field("note", clip(n, inner-7)))
	}
	lines = append(lines, styleMuted().Render("agreed by a reviewer; read-only"))
	if len(reviews) == 0 {
		lines = append(lines, styleMuted().Render("no reviews loaded"))
	}
	for _, r := range reviews {
		line := fmt.Sprintf("%s %s", r.Decision, r.ReviewerID)
		if !r.CreatedAt.IsZero() {
			line += " " + r.CreatedAt.Format("2006-01-02")
		}
		if r.Comment != nil && strings.TrimSpace(*r.Comment) != "" {
			line += ": " + *r.Comment
		}
		lines = append(lines, clip(line, inner))
	}
	return renderBox(w, h, "Annotation "+s.ID, strings.Join(lines, "\n"))
}
