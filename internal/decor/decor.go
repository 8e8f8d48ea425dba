package decor

import (
	"sort"
	"strings"

	"annotate-cli/internal/model"
	"annotate-cli/internal/spanutil"
	"annotate-cli/internal/surface"
)

// EventLabelClick is the activation signal emitted by interactive label widgets.
const EventLabelClick = "annotation-label-click"

type Kind int

const (
	KindWidget Kind = iota
	KindMark
)

// Side orders fragments that share a position: widgets render before the
// character, marks cover it.
type Side int

const (
	SideBefore Side = -1
	SideInline Side = 0
)

type Decoration struct {
	Kind Kind
	Side Side
	// From and To are the covered offsets; widgets have From == To == span start.
	From int
	To   int

	SpanID string
	Label  string
	Class  string

	Optimistic  bool
	Agreed      bool
	Highlighted bool
	// Interactive is false for widgets of agreed spans.
	Interactive bool

	span model.Span
}

// Classes is the full class list of a mark, class first then modifiers.
func (d Decoration) Classes() []string {
	out := []string{d.Class}
	if d.Optimistic {
		out = append(out, "optimistic")
	}
	if d.Agreed {
		out = append(out, "agreed")
	}
	if d.Highlighted {
		out = append(out, "highlighted")
	}
	return out
}

func (d Decoration) String() string {
	k := "mark"
	if d.Kind == KindWidget {
		k = "widget"
	}
	return k + "(" + d.SpanID + ") " + strings.Join(d.Classes(), " ")
}

type ActivationEvent struct {
	Name string
	Span model.Span
}

// Set is an ordered, immutable decoration list.
type Set struct {
	items []Decoration
}

// LevelClass maps a level to its mark class.
func LevelClass(l model.Level) string {
	switch l {
	case model.LevelMinor, model.LevelMajor, model.LevelCritical:
		return "level-" + string(l)
	default:
		return "level-default"
	}
}

// Label is the text painted in a span's label widget.
func Label(s model.Span) string {
	t := strings.TrimSpace(s.Type)
	if t == "" {
		t = "?"
	}
	return "[" + t + "]"
}

// Render projects spans into decorations. The output order depends only on
// the span set, never on the order spans were given in.
func Render(spans []model.Span, highlightedID, optimisticPrefix string) Set {
	items := make([]Decoration, 0, len(spans)*2)
	for _, s := range spans {
		base := Decoration{
			SpanID:      s.ID,
			Class:       LevelClass(s.Level),
			Optimistic:  spanutil.IsOptimistic(s.ID, optimisticPrefix),
			Agreed:      s.IsAgreed,
			Highlighted: highlightedID != "" && s.ID == highlightedID,
			span:        s,
		}

		w := base
		w.Kind = KindWidget
		w.Side = SideBefore
		w.From, w.To = s.Start, s.Start
		w.Label = Label(s)
		w.Interactive = !s.IsAgreed
		items = append(items, w)

		m := base
		m.Kind = KindMark
		m.Side = SideInline
		m.From, m.To = s.Start, s.End
		items = append(items, m)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		// Longer spans open first so shorter ones nest inside them.
		ae, be := a.span.End, b.span.End
		if ae != be {
			return ae > be
		}
		if a.SpanID != b.SpanID {
			return a.SpanID < b.SpanID
		}
		return a.Kind < b.Kind
	})
	return Set{items: items}
}

func (s Set) Items() []Decoration {
	out := make([]Decoration, len(s.items))
	copy(out, s.items)
	return out
}

func (s Set) Len() int { return len(s.items) }

// Widgets returns the label widgets in decoration order, ready for layout.
func (s Set) Widgets() []surface.Widget {
	var out []surface.Widget
	for _, d := range s.items {
		if d.Kind == KindWidget {
			out = append(out, surface.Widget{SpanID: d.SpanID, Offset: d.From, Label: d.Label})
		}
	}
	return out
}

// MarksAt returns the marks covering offset, outermost first.
func (s Set) MarksAt(offset int) []Decoration {
	var out []Decoration
	for _, d := range s.items {
		if d.From > offset {
			break
		}
		if d.Kind == KindMark && offset < d.To {
			out = append(out, d)
		}
	}
	return out
}

// Top picks the mark that paints offset: a highlighted mark wins, otherwise the
// innermost (last opened) one.
func (s Set) Top(offset int) (Decoration, bool) {
	marks := s.MarksAt(offset)
	if len(marks) == 0 {
		return Decoration{}, false
	}
	for _, d := range marks {
		if d.Highlighted {
			return d, true
		}
	}
	return marks[len(marks)-1], true
}

// SpansAt returns the ids of spans whose marks cover offset.
func (s Set) SpansAt(offset int) []string {
	marks := s.MarksAt(offset)
	out := make([]string, 0, len(marks))
	for _, d := range marks {
		out = append(out, d.SpanID)
	}
	return out
}

// Widget returns the label widget of a span.
func (s Set) Widget(spanID string) (Decoration, bool) {
	for _, d := range s.items {
		if d.Kind == KindWidget && d.SpanID == spanID {
			return d, true
		}
	}
	return Decoration{}, false
}

// Activate is the click handler of a label widget. Inert widgets produce nothing.
func (s Set) Activate(spanID string) (ActivationEvent, bool) {
	d, ok := s.Widget(spanID)
	if !ok || !d.Interactive {
		return ActivationEvent{}, false
	}
	return ActivationEvent{Name: EventLabelClick, Span: d.span.Clone()}, true
}
