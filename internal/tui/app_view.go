package tui

import (
	"fmt"
	"strings"

	"annotate-cli/internal/decor"
	"annotate-cli/internal/overlay"
	"annotate-cli/internal/surface"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "loading…"
	}
	decorations := m.engine.Decorations()

	lines := make([]string, 0, m.height)
	lines = append(lines, m.renderHeader())

	l := m.tr.Layout()
	vh := m.viewportHeight()
	for row := 0; row < vh; row++ {
		i := m.tr.Scroll() + row
		if l == nil || i >= len(l.Lines) {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, m.renderLine(l.Lines[i], decorations))
	}
	lines = append(lines, m.renderFooter())

	out := normalizePane(strings.Join(lines, "\n"), m.width, m.height)
	if box, pos, ok := m.renderPopup(); ok {
		out = overlayAt(out, box, pos.X, pos.Y)
	}
	return out
}

func (m appModel) renderHeader() string {
	title := m.opts.Text.Title
	if strings.TrimSpace(title) == "" {
		title = m.opts.Text.ID
	}
	right := fmt.Sprintf("%s  %d spans", m.engine.State(), len(m.engine.Spans()))
	if n := m.engine.InFlight(); n > 0 {
		right += fmt.Sprintf("  %d saving", n)
	}
	if m.moving != "" {
		right += "  moving " + m.moving
	}
	left := lipgloss.NewStyle().Bold(true).Render(clip(title, max(10, m.width-lipgloss.Width(right)-2)))
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + styleMuted().Render(right)
}

func (m appModel) renderFooter() string {
	if m.minibuffer != "" {
		if m.minibufferErr {
			return styleError().Render(clip(m.minibuffer, m.width))
		}
		return clip(m.minibuffer, m.width)
	}
	k := m.keys
	return styleMuted().Render(clip(helpLine(k.Select, k.Confirm, k.NextSpan, k.UndoMine, k.Escape, k.Quit), m.width))
}

type segment struct {
	key   string
	style lipgloss.Style
	text  strings.Builder
}

// renderLine paints one layout row, grouping consecutive cells that share a
// style.
func (m appModel) renderLine(ln surface.Line, decorations decor.Set) string {
	sel := m.engine.Selection()
	showCaret := m.engine.Popup().Kind == overlay.PopupNone

	var segs []*segment
	add := func(key string, st lipgloss.Style, text string) {
		if n := len(segs); n > 0 && segs[n-1].key == key {
			segs[n-1].text.WriteString(text)
			return
		}
		s := &segment{key: key, style: st}
		s.text.WriteString(text)
		segs = append(segs, s)
	}

	for _, it := range ln.Items {
		switch {
		case it.IsWidget():
			if d, ok := decorations.Widget(it.WidgetID); ok {
				add("w:"+d.String(), widgetStyle(d), it.Text)
			} else {
				add("", lipgloss.NewStyle(), it.Text)
			}
		case it.Newline:
			if showCaret && it.Offset == m.caret {
				add("caret", caretStyle(), " ")
			}
		case showCaret && it.Offset == m.caret:
			add("caret", caretStyle(), it.Text)
		case sel != nil && sel.Contains(it.Offset):
			add("sel", selectionStyle(), it.Text)
		default:
			if d, ok := decorations.Top(it.Offset); ok {
				add("m:"+d.String(), markStyle(d), it.Text)
			} else {
				add("", lipgloss.NewStyle(), it.Text)
			}
		}
	}

	var b strings.Builder
	for _, s := range segs {
		if s.key == "" {
			b.WriteString(s.text.String())
			continue
		}
		b.WriteString(s.style.Render(s.text.String()))
	}
	return b.String()
}

func (m appModel) renderPopup() (string, overlay.Position, bool) {
	p := m.engine.Popup()
	pos := p.Position
	switch p.Kind {
	case overlay.PopupTypePicker:
		return m.picker.view(pos.W, pos.H), pos, true
	case overlay.PopupEdit:
		s, ok := m.engine.ContextSpan()
		if !ok {
			return "", pos, false
		}
		if m.retype {
			return m.picker.view(pos.W, max(pos.H, 12)), pos, true
		}
		return renderEditPopup(pos.W, pos.H, s, m.edit, m.engine.Affordances(s), m.cat), pos, true
	case overlay.PopupDelete:
		s, ok := m.engine.ContextSpan()
		if !ok {
			return "", pos, false
		}
		return renderDeletePopup(pos.W, pos.H, s), pos, true
	case overlay.PopupReview:
		s, ok := m.engine.ContextSpan()
		if !ok {
			return "", pos, false
		}
		return renderReviewPopup(pos.W, pos.H, s, m.reviews), pos, true
	}
	return "", pos, false
}
