package surface

// Rect is a screen rectangle in cells; Right and Bottom are exclusive.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Range is a resolved pair of layout positions for [Start, End).
type Range struct {
	Start int
	End   int
	From  Pos
	To    Pos
}

// Hit is what lies under a screen cell.
type Hit struct {
	Offset int
	// Runes is the size of the cluster under the cell, 0 past the end of a line.
	Runes    int
	WidgetID string
	EOL      bool
}

// Translator maps between text offsets, layout positions and the screen. It
// owns the vertical scroll of the text viewport.
type Translator struct {
	layout *Layout
	x, y   int
	width  int
	height int
	scroll int
}

func NewTranslator(l *Layout) *Translator {
	return &Translator{layout: l}
}

func (t *Translator) Layout() *Layout { return t.layout }

// SetLayout swaps in a rebuilt layout. The scroll row is clamped; callers that
// need to keep the reading position use FirstVisibleOffset/RestoreFirstVisible.
func (t *Translator) SetLayout(l *Layout) {
	t.layout = l
	t.clampScroll()
}

// SetViewport places the text area on screen.
func (t *Translator) SetViewport(x, y, width, height int) {
	t.x, t.y = x, y
	t.width = max(0, width)
	t.height = max(0, height)
	t.clampScroll()
}

func (t *Translator) Viewport() Rect {
	return Rect{Left: t.x, Top: t.y, Right: t.x + t.width, Bottom: t.y + t.height}
}

func (t *Translator) Scroll() int { return t.scroll }

func (t *Translator) ScrollTo(line int) {
	t.scroll = line
	t.clampScroll()
}

func (t *Translator) ScrollBy(n int) { t.ScrollTo(t.scroll + n) }

func (t *Translator) maxScroll() int {
	if t.layout == nil {
		return 0
	}
	return max(0, len(t.layout.Lines)-max(1, t.height))
}

func (t *Translator) clampScroll() {
	t.scroll = min(max(0, t.scroll), t.maxScroll())
}

// OffsetsToRange resolves [start, end) against the current layout.
func (t *Translator) OffsetsToRange(start, end int) (Range, bool) {
	if t.layout == nil || start < 0 || start >= end || end > t.layout.TextLen() {
		return Range{}, false
	}
	from, ok := t.layout.PosOf(start)
	if !ok {
		return Range{}, false
	}
	to, ok := t.layout.endPos(end)
	if !ok {
		return Range{}, false
	}
	return Range{Start: start, End: end, From: from, To: to}, true
}

// RangeToViewportRect returns the screen box spanning the range's first and
// last cells. It is false when the range is collapsed or none of its rows are
// inside the viewport; rows partially scrolled away are clamped.
func (t *Translator) RangeToViewportRect(r Range) (Rect, bool) {
	if r.End <= r.Start || t.height == 0 {
		return Rect{}, false
	}
	top := r.From.Line - t.scroll
	bottom := r.To.Line - t.scroll + 1
	if bottom <= 0 || top >= t.height {
		return Rect{}, false
	}
	left, right := r.From.Col, r.To.Col
	if r.From.Line != r.To.Line {
		// Multi-row ranges: cover the full text width like a selection box.
		left, right = 0, t.width
	}
	if right <= left {
		right = left + 1
	}
	return Rect{
		Left:   t.x + left,
		Top:    t.y + max(0, top),
		Right:  t.x + min(right, t.width),
		Bottom: t.y + min(bottom, t.height),
	}, true
}

// SelectionRect is OffsetsToRange followed by RangeToViewportRect.
func (t *Translator) SelectionRect(start, end int) (Rect, bool) {
	r, ok := t.OffsetsToRange(start, end)
	if !ok {
		return Rect{}, false
	}
	return t.RangeToViewportRect(r)
}

// ScrollIntoView scrolls so offset's row is visible, centred when the text is
// long enough.
func (t *Translator) ScrollIntoView(offset int) bool {
	if t.layout == nil {
		return false
	}
	line, ok := t.layout.LineOf(offset)
	if !ok {
		return false
	}
	t.ScrollTo(line - t.height/2)
	return true
}

// Visible reports whether offset's row is on screen.
func (t *Translator) Visible(offset int) bool {
	if t.layout == nil {
		return false
	}
	line, ok := t.layout.LineOf(offset)
	return ok && line >= t.scroll && line < t.scroll+t.height
}

// HitTest resolves a screen cell.
func (t *Translator) HitTest(x, y int) (Hit, bool) {
	if t.layout == nil || !t.Viewport().Contains(x, y) {
		return Hit{}, false
	}
	line := t.scroll + (y - t.y)
	if line >= len(t.layout.Lines) {
		return Hit{}, false
	}
	col := x - t.x
	ln := t.layout.Lines[line]
	for _, it := range ln.Items {
		if it.Newline {
			break
		}
		if col >= it.Col && col < it.Col+it.Width {
			if it.IsWidget() {
				return Hit{Offset: it.Offset, WidgetID: it.WidgetID}, true
			}
			return Hit{Offset: it.Offset, Runes: it.Runes}, true
		}
	}
	return Hit{Offset: ln.End, EOL: true}, true
}

// FirstVisibleOffset is the first code point on the top visible row.
func (t *Translator) FirstVisibleOffset() int {
	if t.layout == nil || len(t.layout.Lines) == 0 {
		return 0
	}
	return t.layout.Lines[min(t.scroll, len(t.layout.Lines)-1)].Start
}

// RestoreFirstVisible scrolls so the row holding offset is on top again.
func (t *Translator) RestoreFirstVisible(offset int) {
	if t.layout == nil {
		return
	}
	if line, ok := t.layout.LineOf(offset); ok {
		t.ScrollTo(line)
	}
}
