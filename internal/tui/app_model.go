package tui

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"annotate-cli/internal/catalog"
	"annotate-cli/internal/gateway"
	"annotate-cli/internal/logging"
	"annotate-cli/internal/model"
	"annotate-cli/internal/mutate"
	"annotate-cli/internal/overlay"
	"annotate-cli/internal/store"
	"annotate-cli/internal/surface"

	tea "github.com/charmbracelet/bubbletea"
)

// Rows above and below the text viewport.
const (
	headerRows = 1
	footerRows = 1
)

type Options struct {
	Text  model.Text
	Spans []model.Span

	Gateway gateway.Gateway
	// Catalogs and Taxonomy feed the type picker; Structural replaces both
	// with a flat list of header types.
	Catalogs   *catalog.Cache
	Taxonomy   string
	Structural []string
	// Reviews loads the review history shown for agreed spans. Optional.
	Reviews func(ctx context.Context, spanID string) ([]model.Review, error)

	AnnotatorID      string
	OptimisticPrefix string
	Flash            time.Duration
	Profile          string

	// State is restored on start and updated on exit.
	State  *store.TUIState
	Logger *slog.Logger
}

type opResultMsg struct{ res gateway.Result }

type catalogLoadedMsg struct {
	cat *catalog.Catalog
	err error
}

type reviewsLoadedMsg struct {
	spanID  string
	reviews []model.Review
	err     error
}

type highlightTickMsg time.Time

// errSink collects errors the engine reports from inside Complete.
type errSink struct {
	errs []error
}

type appModel struct {
	ctx  context.Context
	opts Options
	log  *slog.Logger
	keys keyMap

	text   string
	engine *overlay.Engine
	tr     *surface.Translator
	sink   *errSink

	width  int
	height int
	sized  bool

	caret  int
	anchor int

	dragging  bool
	dragFrom  int
	dragTo    int
	dragMoved bool

	cat     *catalog.Catalog
	picker  pickerModel
	edit    editModel
	retype  bool
	reviews []model.Review

	// moving is the structural span waiting for its new range.
	moving      string
	confirmUndo bool

	// scrollAnchors holds the first visible offset captured when an op was issued.
	scrollAnchors map[string]int

	minibuffer    string
	minibufferErr bool

	schedule func(time.Duration, func(time.Time) tea.Msg) tea.Cmd
}

func newAppModel(ctx context.Context, opts Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	sink := &errSink{}
	cfg := overlay.Config{
		TextID:           opts.Text.ID,
		AnnotatorID:      opts.AnnotatorID,
		OptimisticPrefix: opts.OptimisticPrefix,
		Structural:       len(opts.Structural) > 0,
		Flash:            opts.Flash,
		Margin:           1,
		OnError:          func(err error) { sink.errs = append(sink.errs, err) },
	}
	tr := surface.NewTranslator(surface.Build(opts.Text.Content, nil, 80))
	m := appModel{
		ctx:           ctx,
		opts:          opts,
		log:           logging.OrDiscard(opts.Logger).With("text_id", opts.Text.ID),
		keys:          defaultKeyMap(),
		text:          opts.Text.Content,
		engine:        overlay.New(cfg, opts.Text.Content, opts.Spans, tr),
		tr:            tr,
		sink:          sink,
		anchor:        -1,
		scrollAnchors: map[string]int{},
		schedule:      tea.Tick,
	}
	if len(opts.Structural) > 0 {
		m.cat = catalog.Structural(opts.Structural)
	}
	m.relayout(0)
	return m
}

func (m appModel) Init() tea.Cmd {
	if m.cat != nil || m.opts.Catalogs == nil || m.opts.Taxonomy == "" {
		return nil
	}
	ctx, cache, typeID := m.ctx, m.opts.Catalogs, m.opts.Taxonomy
	return func() tea.Msg {
		cat, err := cache.Get(ctx, typeID)
		return catalogLoadedMsg{cat: cat, err: err}
	}
}

func (m *appModel) viewportHeight() int {
	return max(1, m.height-headerRows-footerRows)
}

// relayout rebuilds the surface from the current decorations and puts the row
// holding anchor back on top.
func (m *appModel) relayout(anchor int) {
	w := m.width
	if w <= 0 {
		w = 80
	}
	m.tr.SetLayout(surface.Build(m.text, m.engine.Decorations().Widgets(), w))
	m.tr.SetViewport(0, headerRows, w, m.viewportHeight())
	m.tr.RestoreFirstVisible(anchor)
	m.engine.Reposition()
}

func (m *appModel) textLen() int { return m.engine.TextLen() }

// issue runs an op returned by the engine. The scroll position is captured
// before the optimistic change is laid out.
func (m *appModel) issue(op *gateway.Op, err error) tea.Cmd {
	if err != nil {
		m.fail(err)
		return nil
	}
	if op == nil {
		return nil
	}
	anchor := m.tr.FirstVisibleOffset()
	if op.PreserveScroll {
		m.scrollAnchors[op.Key()] = anchor
	}
	m.relayout(anchor)
	m.log.Info("gateway op issued", "kind", string(op.Kind), "key", op.Key())

	if m.opts.Gateway == nil {
		res := gateway.Result{Op: *op, Err: errors.New("no backend configured")}
		return func() tea.Msg { return opResultMsg{res: res} }
	}
	ctx, g, o := m.ctx, m.opts.Gateway, *op
	return func() tea.Msg { return opResultMsg{res: gateway.Execute(ctx, g, o)} }
}

func (m *appModel) complete(res gateway.Result) tea.Cmd {
	key := res.Op.Key()
	if res.OK() {
		m.log.Info("gateway op done", "kind", string(res.Op.Kind), "key", key, "span_id", res.Span.ID)
	} else {
		m.log.Warn("gateway op failed", "kind", string(res.Op.Kind), "key", key, "err", res.Err)
	}
	anchor := m.tr.FirstVisibleOffset()
	if a, ok := m.scrollAnchors[key]; ok {
		anchor = a
		delete(m.scrollAnchors, key)
	}
	m.engine.Complete(res)
	m.relayout(anchor)
	m.flushErrors()
	if res.OK() {
		switch res.Op.Kind {
		case gateway.KindCreate:
			m.note("annotation saved")
		case gateway.KindRemoveMine:
			m.note("removed your annotations")
		}
	}
	return m.scheduleHighlight()
}

func (m *appModel) scheduleHighlight() tea.Cmd {
	until := m.engine.HighlightExpiry()
	if m.engine.HighlightedID() == "" || until.IsZero() {
		return nil
	}
	return m.schedule(max(0, time.Until(until)), func(t time.Time) tea.Msg { return highlightTickMsg(t) })
}

func (m *appModel) flushErrors() {
	for _, err := range m.sink.errs {
		m.fail(err)
	}
	m.sink.errs = nil
}

func (m *appModel) note(s string) {
	m.minibuffer = s
	m.minibufferErr = false
}

// fail shows err in the minibuffer.
func (m *appModel) fail(err error) {
	m.minibuffer = describeError(err)
	m.minibufferErr = true
	m.log.Debug("minibuffer error", "err", err)
}

func describeError(err error) string {
	var le mutate.LockedError
	var be overlay.BusyError
	switch {
	case errors.As(err, &le), errors.Is(err, gateway.ErrLocked):
		return "locked: " + (mutate.LockedError{}).Error()
	case errors.As(err, &be):
		return be.Error()
	case gateway.IsNetwork(err):
		return "network error: " + err.Error()
	default:
		return err.Error()
	}
}

// rangeSelection covers a..b including the cluster at the later end.
func (m *appModel) rangeSelection(a, b int) *model.Selection {
	n := m.textLen()
	if n == 0 {
		return nil
	}
	start, end := min(a, b), max(a, b)
	start = max(0, min(start, n-1))
	end = min(n, m.tr.Layout().ClusterEnd(max(0, min(end, n-1))))
	return &model.Selection{StartIndex: start, EndIndex: end}
}

func (m *appModel) popupKey() string {
	p := m.engine.Popup()
	id := ""
	if s, ok := m.engine.ContextSpan(); ok {
		id = s.ID
	}
	return strconv.Itoa(int(p.Kind)) + ":" + id
}

// initPopup resets the host-side state of a popup the engine just opened.
func (m *appModel) initPopup() tea.Cmd {
	m.retype = false
	switch m.engine.Popup().Kind {
	case overlay.PopupTypePicker:
		m.picker = newPicker(m.cat, pickCreate)
	case overlay.PopupEdit:
		if s, ok := m.engine.ContextSpan(); ok {
			m.edit = newEdit(s)
		}
	case overlay.PopupReview:
		s, ok := m.engine.ContextSpan()
		if !ok {
			return nil
		}
		m.reviews = s.Reviews
		if m.opts.Reviews == nil {
			return nil
		}
		ctx, load, id := m.ctx, m.opts.Reviews, s.ID
		return func() tea.Msg {
			rs, err := load(ctx, id)
			return reviewsLoadedMsg{spanID: id, reviews: rs, err: err}
		}
	}
	return nil
}

// finalState records where the user was for the next launch.
func (m appModel) finalState() *store.TUIState {
	st := m.opts.State
	if st == nil {
		st = &store.TUIState{Version: 1}
	}
	st.Visit(m.opts.Text.ID)
	st.SetFirstVisible(m.opts.Text.ID, m.tr.FirstVisibleOffset())
	if m.engine.Structural() {
		st.PickerMode = "structural"
	} else {
		st.PickerMode = "catalog"
		st.Taxonomy = m.opts.Taxonomy
	}
	return st
}
