package tui

import (
	"fmt"
	"io"
	"strings"

	"annotate-cli/internal/catalog"
	"annotate-cli/internal/model"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type categoryItem struct {
	cat  model.Category
	path string
}

func (i categoryItem) FilterValue() string { return i.cat.Name }
func (i categoryItem) Title() string       { return i.cat.Name }

type pickerDelegate struct {
	normal   lipgloss.Style
	selected lipgloss.Style
}

func newPickerDelegate() pickerDelegate {
	return pickerDelegate{
		normal:   lipgloss.NewStyle(),
		selected: lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true),
	}
}

func (d pickerDelegate) Height() int                             { return 1 }
func (d pickerDelegate) Spacing() int                            { return 0 }
func (d pickerDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d pickerDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(categoryItem)
	contentW := m.Width()
	if !ok || contentW < 4 {
		return
	}
	style := d.normal
	if index == m.Index() {
		style = d.selected
	}
	line := it.cat.Name
	if it.path != "" && it.path != it.cat.Name {
		if parent := strings.TrimSuffix(it.path, it.cat.Name); parent != "" {
			line += "  " + styleMuted().Render(strings.TrimSpace(parent))
		}
	}
	fmt.Fprint(w, style.Render(fitLine(line, contentW)))
}

type pickerMode int

const (
	pickCreate pickerMode = iota
	pickRetype
)

// pickerModel is the type picker: a search box over the catalog leaves, a
// level and an optional note. Without a catalog the search text is the type.
type pickerModel struct {
	mode   pickerMode
	spanID string

	cat    *catalog.Catalog
	search textinput.Model
	note   textinput.Model
	list   list.Model

	noteFocus bool
	level     model.Level
}

func newTextInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = 200
	_ = ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newPicker(cat *catalog.Catalog, mode pickerMode) pickerModel {
	p := pickerModel{
		mode:   mode,
		cat:    cat,
		search: newTextInput("search types…"),
		note:   newTextInput("note (optional)"),
	}
	l := list.New(nil, newPickerDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	p.list = l
	_ = p.search.Focus()
	p.refresh()
	return p
}

// refresh lists the selectable categories matching the search text.
func (p *pickerModel) refresh() {
	if p.cat == nil {
		p.list.SetItems(nil)
		return
	}
	q := strings.TrimSpace(p.search.Value())
	var cats []model.Category
	if q == "" {
		cats = p.cat.Leaves()
	} else {
		for _, c := range p.cat.Search(q) {
			if c.IsLeaf() {
				cats = append(cats, c)
			}
		}
	}
	items := make([]list.Item, 0, len(cats))
	for _, c := range cats {
		items = append(items, categoryItem{cat: c, path: p.cat.Path(c.ID)})
	}
	p.list.SetItems(items)
	p.list.Select(0)
}

func (p pickerModel) selected() (model.Category, bool) {
	it, ok := p.list.SelectedItem().(categoryItem)
	if !ok {
		return model.Category{}, false
	}
	return it.cat, true
}

// choice is the type that enter would apply.
func (p pickerModel) choice() string {
	if c, ok := p.selected(); ok {
		return c.Name
	}
	return strings.TrimSpace(p.search.Value())
}

func (p pickerModel) noteValue() *string {
	v := strings.TrimSpace(p.note.Value())
	if v == "" {
		return nil
	}
	return &v
}

func nextLevel(l model.Level) model.Level {
	switch l {
	case model.LevelDefault:
		return model.LevelMinor
	case model.LevelMinor:
		return model.LevelMajor
	case model.LevelMajor:
		return model.LevelCritical
	default:
		return model.LevelDefault
	}
}

func levelLabel(l model.Level) string {
	if l == model.LevelDefault {
		return "default"
	}
	return string(l)
}

func (p *pickerModel) toggleNote() {
	p.noteFocus = !p.noteFocus
	if p.noteFocus {
		p.search.Blur()
		_ = p.note.Focus()
		return
	}
	p.note.Blur()
	_ = p.search.Focus()
}

// update handles keys that are not picker commands: list movement and typing.
func (p pickerModel) update(msg tea.KeyMsg) pickerModel {
	switch msg.String() {
	case "up", "ctrl+p":
		p.list.CursorUp()
		return p
	case "down":
		p.list.CursorDown()
		return p
	}
	if p.noteFocus {
		p.note, _ = p.note.Update(msg)
		return p
	}
	prev := p.search.Value()
	p.search, _ = p.search.Update(msg)
	if p.search.Value() != prev {
		p.refresh()
	}
	return p
}

func (p pickerModel) view(w, h int) string {
	inner := max(10, w-2)
	title := "Annotate selection"
	if p.mode == pickRetype {
		title = "Change type"
	}

	searchLine := renderInputLine(inner, p.search.View())
	var descLines []string
	if c, ok := p.selected(); ok {
		if d := renderMarkdown(categoryMarkdown(c), inner); d != "" {
			descLines = strings.Split(d, "\n")
		}
	}
	const maxDesc = 3
	if len(descLines) > maxDesc {
		descLines = descLines[:maxDesc]
	}

	lvl := "level: " + levelLabel(p.level)
	if p.mode == pickRetype {
		lvl = ""
	}
	var noteLine string
	if p.mode == pickCreate {
		noteLine = renderInputLine(inner, p.note.View())
	}
	help := styleMuted().Render(helpLine(defaultKeyMap().CycleLevel, defaultKeyMap().Note, defaultKeyMap().Confirm, defaultKeyMap().Escape))

	fixed := 1 + 1 + 1 + 1 + len(descLines) + 1
	listH := max(1, h-2-fixed)
	p.list.SetSize(inner, listH)
	body := p.list.View()
	if p.cat == nil {
		body = styleMuted().Render("no catalog loaded; the search text is the type")
	} else if len(p.list.Items()) == 0 {
		body = styleMuted().Render("no matching types")
	}
	body = normalizePane(body, inner, listH)

	parts := []string{searchLine, body, lvl, noteLine}
	parts = append(parts, descLines...)
	parts = append(parts, help)
	return renderBox(w, h, title, strings.Join(parts, "\n"))
}

// clip shortens s to w cells for one-line display.
func clip(s string, w int) string {
	s = strings.Join(strings.Fields(s), " ")
	if xansi.StringWidth(s) <= w {
		return s
	}
	return xansi.Truncate(s, w, "…")
}
