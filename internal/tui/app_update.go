package tui

import (
	"time"

	"annotate-cli/internal/model"
	"annotate-cli/internal/overlay"
	"annotate-cli/internal/spanutil"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	before := m.popupKey()
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		anchor := m.tr.FirstVisibleOffset()
		if !m.sized {
			m.sized = true
			if st := m.opts.State; st != nil && st.FirstVisible != nil {
				anchor = st.FirstVisible[m.opts.Text.ID]
			}
		}
		m.relayout(anchor)
		return m, nil

	case catalogLoadedMsg:
		if msg.err != nil {
			m.log.Warn("catalog load failed", "taxonomy", m.opts.Taxonomy, "err", msg.err)
			m.fail(msg.err)
			return m, nil
		}
		m.cat = msg.cat
		if m.engine.Popup().Kind == overlay.PopupTypePicker {
			m.picker.cat = msg.cat
			m.picker.refresh()
		}
		return m, nil

	case reviewsLoadedMsg:
		if msg.err != nil {
			m.log.Warn("reviews load failed", "span_id", msg.spanID, "err", msg.err)
			return m, nil
		}
		if s, ok := m.engine.ContextSpan(); ok && s.ID == msg.spanID {
			m.reviews = msg.reviews
		}
		return m, nil

	case opResultMsg:
		cmd = m.complete(msg.res)

	case highlightTickMsg:
		if !m.engine.Tick(time.Time(msg)) && m.engine.HighlightedID() != "" {
			cmd = m.scheduleHighlight()
		}
		return m, cmd

	case tea.KeyMsg:
		var quit bool
		cmd, quit = m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}

	case tea.MouseMsg:
		cmd = m.handleMouse(msg)
	}

	if m.popupKey() != before {
		cmd = tea.Batch(cmd, m.initPopup())
	}
	return m, cmd
}

func (m *appModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.confirmUndo {
		m.confirmUndo = false
		if key.Matches(msg, m.keys.Yes) {
			m.note("")
			return m.issue(m.engine.UndoMine()), false
		}
		m.note("cancelled")
		return nil, false
	}

	switch m.engine.Popup().Kind {
	case overlay.PopupTypePicker:
		return m.pickerKey(msg), false
	case overlay.PopupEdit:
		return m.editKey(msg), false
	case overlay.PopupDelete:
		switch {
		case key.Matches(msg, m.keys.Yes):
			return m.issue(m.engine.ConfirmDelete()), false
		case key.Matches(msg, m.keys.No):
			m.engine.Cancel()
		}
		return nil, false
	case overlay.PopupReview:
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Confirm) {
			m.engine.Escape()
		}
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return nil, true
	case key.Matches(msg, m.keys.Left):
		m.moveCaret(m.prevCluster(m.caret))
	case key.Matches(msg, m.keys.Right):
		m.moveCaret(m.tr.Layout().ClusterEnd(m.caret))
	case key.Matches(msg, m.keys.Up):
		m.moveCaretLines(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCaretLines(1)
	case key.Matches(msg, m.keys.Select):
		if m.anchor < 0 {
			m.anchor = m.caret
			m.engine.SelectionChanged(m.rangeSelection(m.anchor, m.caret))
		} else {
			m.anchor = -1
			m.engine.SelectionChanged(nil)
		}
	case key.Matches(msg, m.keys.Confirm):
		if m.anchor >= 0 {
			sel := m.rangeSelection(m.anchor, m.caret)
			m.anchor = -1
			if sel != nil {
				return m.selectionMade(*sel), false
			}
			return nil, false
		}
		m.engine.Click(m.caret, m.engine.Decorations().SpansAt(m.caret))
	case key.Matches(msg, m.keys.Escape):
		if m.moving != "" {
			m.moving = ""
			m.note("move cancelled")
		}
		m.anchor = -1
		m.engine.SelectionChanged(nil)
	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(-m.viewportHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(m.viewportHeight())
	case key.Matches(msg, m.keys.NextSpan):
		return m.jump(spanutil.Next), false
	case key.Matches(msg, m.keys.PrevSpan):
		return m.jump(spanutil.Prev), false
	case key.Matches(msg, m.keys.UndoMine):
		m.confirmUndo = true
		m.note("remove all your annotations on this text? y/n")
	}
	return nil, false
}

func (m *appModel) pickerKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.anchor = -1
		m.engine.Escape()
	case key.Matches(msg, m.keys.Confirm):
		m.anchor = -1
		return m.issue(m.engine.AddAnnotation(m.picker.choice(), m.picker.noteValue(), m.picker.level))
	case key.Matches(msg, m.keys.CycleLevel):
		m.picker.level = nextLevel(m.picker.level)
	case key.Matches(msg, m.keys.Note):
		m.picker.toggleNote()
	default:
		m.picker = m.picker.update(msg)
	}
	return nil
}

func (m *appModel) editKey(msg tea.KeyMsg) tea.Cmd {
	s, ok := m.engine.ContextSpan()
	if !ok {
		return nil
	}
	if m.retype {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.retype = false
		case key.Matches(msg, m.keys.Confirm):
			if c := m.picker.choice(); c != "" {
				m.edit.typ = c
			}
			m.retype = false
		default:
			m.picker = m.picker.update(msg)
		}
		return nil
	}
	if m.edit.noteFocus {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.edit.note.SetValue(s.NameOrEmpty())
			m.edit.noteFocus = false
			m.edit.note.Blur()
		case key.Matches(msg, m.keys.Confirm):
			m.edit.noteFocus = false
			m.edit.note.Blur()
		default:
			m.edit.note, _ = m.edit.note.Update(msg)
		}
		return nil
	}

	aff := m.engine.Affordances(s)
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.engine.Escape()
	case key.Matches(msg, m.keys.Confirm):
		lvl := m.edit.level
		return m.issue(m.engine.UpdateAnnotation(s.ID, m.edit.typ, m.edit.nameValue(), &lvl))
	case key.Matches(msg, m.keys.CycleLevel):
		m.edit.level = nextLevel(m.edit.level)
	case key.Matches(msg, m.keys.Note):
		m.edit.noteFocus = true
		_ = m.edit.note.Focus()
	case key.Matches(msg, m.keys.Retype):
		m.picker = newPicker(m.cat, pickRetype)
		m.picker.spanID = s.ID
		m.retype = true
	case key.Matches(msg, m.keys.Delete):
		if err := m.engine.RequestDelete(); err != nil {
			m.fail(err)
		}
	case key.Matches(msg, m.keys.Move):
		if !aff.Move {
			m.note("only structural annotations can be moved")
			return nil
		}
		m.moving = s.ID
		m.engine.Escape()
		m.note("select the new range, then press enter (esc cancels)")
	}
	return nil
}

// selectionMade finishes a selection gesture. A pending header move consumes
// it instead of opening the type picker.
func (m *appModel) selectionMade(sel model.Selection) tea.Cmd {
	if m.moving != "" {
		id := m.moving
		m.moving = ""
		cmd := m.issue(m.engine.UpdateHeaderSpan(id, sel.StartIndex, sel.EndIndex))
		m.engine.SelectionChanged(nil)
		return cmd
	}
	m.engine.SelectionMade(sel)
	return nil
}

func (m *appModel) moveCaret(offset int) {
	n := m.textLen()
	if n == 0 {
		return
	}
	m.caret = max(0, min(offset, n-1))
	if m.anchor >= 0 {
		m.engine.SelectionChanged(m.rangeSelection(m.anchor, m.caret))
	}
	if !m.tr.Visible(m.caret) {
		m.tr.ScrollIntoView(m.caret)
		m.engine.Reposition()
	}
}

func (m *appModel) moveCaretLines(delta int) {
	l := m.tr.Layout()
	p, ok := l.PosOf(m.caret)
	if !ok {
		return
	}
	if off, ok := l.OffsetAt(p.Line+delta, p.Col); ok {
		m.moveCaret(off)
	}
}

// prevCluster is the start of the grapheme cluster before offset.
func (m *appModel) prevCluster(offset int) int {
	if offset <= 0 {
		return 0
	}
	l := m.tr.Layout()
	s := offset - 1
	end := l.ClusterEnd(s)
	for s > 0 && l.ClusterEnd(s-1) == end {
		s--
	}
	return s
}

func (m *appModel) scrollBy(n int) {
	m.tr.ScrollBy(n)
	m.engine.Reposition()
}

func (m *appModel) jump(pick func([]model.Span, int) (model.Span, bool)) tea.Cmd {
	s, ok := pick(m.engine.Spans(), m.caret)
	if !ok {
		m.note("no annotations")
		return nil
	}
	m.caret = s.Start
	m.tr.ScrollIntoView(s.Start)
	m.engine.Highlight(s.ID, m.engine.Config().Flash)
	m.engine.Reposition()
	m.note("[" + s.Type + "] " + clip(s.Text, 40))
	return m.scheduleHighlight()
}

func (m *appModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scrollBy(-3)
		return nil
	case msg.Button == tea.MouseButtonWheelDown:
		m.scrollBy(3)
		return nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		if p := m.engine.Popup(); p.Kind != overlay.PopupNone && p.Position.Rect().Contains(msg.X, msg.Y) {
			return nil
		}
		hit, ok := m.tr.HitTest(msg.X, msg.Y)
		if !ok {
			m.engine.OutsideClick()
			return nil
		}
		if hit.WidgetID != "" {
			if ev, ok := m.engine.Decorations().Activate(hit.WidgetID); ok {
				m.engine.Activate(ev)
			} else {
				m.engine.Inspect(hit.WidgetID)
			}
			return nil
		}
		m.dragging = true
		m.dragMoved = false
		m.dragFrom, m.dragTo = hit.Offset, hit.Offset

	case tea.MouseActionMotion:
		if !m.dragging {
			return nil
		}
		hit, ok := m.tr.HitTest(msg.X, msg.Y)
		if !ok || hit.WidgetID != "" || hit.Offset == m.dragTo {
			return nil
		}
		m.dragTo = hit.Offset
		m.dragMoved = true
		m.engine.SelectionChanged(m.rangeSelection(m.dragFrom, m.dragTo))

	case tea.MouseActionRelease:
		if !m.dragging {
			return nil
		}
		m.dragging = false
		m.anchor = -1
		if m.dragMoved {
			if sel := m.rangeSelection(m.dragFrom, m.dragTo); sel != nil {
				return m.selectionMade(*sel)
			}
			return nil
		}
		m.moveCaret(m.dragFrom)
		m.engine.Click(m.dragFrom, m.engine.Decorations().SpansAt(m.dragFrom))
	}
	return nil
}
