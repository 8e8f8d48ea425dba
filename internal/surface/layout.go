package surface

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/rivo/uniseg"
)

const tabWidth = 4

// Widget is a zero-offset inline element painted before the character at Offset.
type Widget struct {
	SpanID string
	Offset int
	Label  string
}

// Item is one painted unit: a grapheme cluster of the text or a widget.
type Item struct {
	// Offset is the code-point offset of the cluster, or of the character the
	// widget precedes.
	Offset   int
	Runes    int
	Text     string
	Col      int
	Width    int
	WidgetID string
	Newline  bool
}

func (it Item) IsWidget() bool { return it.WidgetID != "" }

type Line struct {
	Items []Item
	// Start and End bound the code points on the line; a trailing newline is
	// not counted in End.
	Start int
	End   int
	// Cols is the painted width of the line.
	Cols int
}

type Pos struct {
	Line int
	Col  int
}

type loc struct {
	line  int
	col   int
	width int
}

// Layout is the wrapped terminal representation of a text and its widgets.
// It is rebuilt from scratch whenever any input changes.
type Layout struct {
	Width   int
	Lines   []Line
	textLen int
	locs    []loc
}

// Build lays text out in rows of at most width cells. Widgets are inserted in
// the order given, before the first cluster at their offset; widgets anchored
// outside the text are dropped.
func Build(text string, widgets []Widget, width int) *Layout {
	if width <= 0 {
		width = 1 << 30
	}
	l := &Layout{Width: width}

	byOffset := map[int][]Widget{}
	for _, w := range widgets {
		byOffset[w.Offset] = append(byOffset[w.Offset], w)
	}

	cur := Line{}
	offset := 0
	col := 0

	breakLine := func() {
		cur.Cols = col
		l.Lines = append(l.Lines, cur)
		cur = Line{Start: offset, End: offset}
		col = 0
	}
	place := func(it Item) Item {
		if it.Width > 0 && col > 0 && col+it.Width > width {
			breakLine()
		}
		it.Col = col
		cur.Items = append(cur.Items, it)
		col += it.Width
		return it
	}

	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		cluster := gr.Str()
		n := len(gr.Runes())

		for _, w := range byOffset[offset] {
			label := w.Label
			if uniseg.StringWidth(label) > width {
				label = xansi.Truncate(label, width, "…")
			}
			place(Item{Offset: offset, Text: label, Width: uniseg.StringWidth(label), WidgetID: w.SpanID})
		}
		delete(byOffset, offset)

		if isNewline(cluster) {
			cur.Items = append(cur.Items, Item{Offset: offset, Runes: n, Col: col, Newline: true})
			for i := 0; i < n; i++ {
				l.locs = append(l.locs, loc{line: len(l.Lines), col: col})
			}
			cur.End = offset
			offset += n
			breakLine()
			continue
		}

		it := Item{Offset: offset, Runes: n, Text: cluster, Width: gr.Width()}
		if cluster == "\t" {
			it.Text = strings.Repeat(" ", tabWidth)
			it.Width = tabWidth
		}
		it = place(it)
		for i := 0; i < n; i++ {
			l.locs = append(l.locs, loc{line: len(l.Lines), col: it.Col, width: it.Width})
		}
		offset += n
		cur.End = offset
	}
	cur.Cols = col
	l.Lines = append(l.Lines, cur)
	l.textLen = offset
	l.locs = append(l.locs, loc{line: len(l.Lines) - 1, col: col})
	return l
}

func isNewline(cluster string) bool {
	return cluster == "\n" || cluster == "\r\n" || cluster == "\r"
}

// TextLen is the number of code points laid out.
func (l *Layout) TextLen() int { return l.textLen }

// PosOf returns the cell where the character at offset starts. offset may be
// TextLen(), which maps to the end of the last line.
func (l *Layout) PosOf(offset int) (Pos, bool) {
	if l == nil || offset < 0 || offset >= len(l.locs) {
		return Pos{}, false
	}
	lc := l.locs[offset]
	return Pos{Line: lc.line, Col: lc.col}, true
}

// endPos is the cell just after the character at offset-1.
func (l *Layout) endPos(offset int) (Pos, bool) {
	if l == nil || offset <= 0 || offset > l.textLen {
		return Pos{}, false
	}
	lc := l.locs[offset-1]
	return Pos{Line: lc.line, Col: lc.col + lc.width}, true
}

// LineOf returns the row index holding offset.
func (l *Layout) LineOf(offset int) (int, bool) {
	p, ok := l.PosOf(offset)
	return p.Line, ok
}

// OffsetAt resolves a cell to the text offset under it. Cells past the end of
// a line resolve to the line end; widget cells resolve to the offset they precede.
func (l *Layout) OffsetAt(line, col int) (int, bool) {
	if l == nil || line < 0 || line >= len(l.Lines) {
		return 0, false
	}
	ln := l.Lines[line]
	for _, it := range ln.Items {
		if it.Newline {
			break
		}
		if col < it.Col+it.Width {
			return it.Offset, true
		}
	}
	return ln.End, true
}

// ClusterEnd returns the offset just past the grapheme cluster that starts at
// or contains offset.
func (l *Layout) ClusterEnd(offset int) int {
	p, ok := l.PosOf(offset)
	if !ok || offset >= l.textLen {
		return l.textLen
	}
	for _, it := range l.Lines[p.Line].Items {
		if it.IsWidget() {
			continue
		}
		if offset >= it.Offset && offset < it.Offset+it.Runes {
			return it.Offset + it.Runes
		}
	}
	return offset + 1
}
