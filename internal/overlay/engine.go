package overlay

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"annotate-cli/internal/decor"
	"annotate-cli/internal/gateway"
	"annotate-cli/internal/model"
	"annotate-cli/internal/mutate"
	"annotate-cli/internal/perm"
	"annotate-cli/internal/spanutil"
	"annotate-cli/internal/surface"
)

type State int

const (
	Idle State = iota
	Selecting
	TypePickerOpen
	CreatingAnnotation
	EditPopupOpen
	DeletePopupOpen
	Deleting
	Updating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case TypePickerOpen:
		return "type-picker"
	case CreatingAnnotation:
		return "creating"
	case EditPopupOpen:
		return "edit"
	case DeletePopupOpen:
		return "delete"
	case Deleting:
		return "deleting"
	case Updating:
		return "updating"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type PopupKind int

const (
	PopupNone PopupKind = iota
	PopupTypePicker
	PopupEdit
	PopupDelete
	// PopupReview is the read-only view of an agreed span. It offers no actions.
	PopupReview
)

type Popup struct {
	Kind     PopupKind
	Position Position
}

// Geometry is the part of the coordinate translator the engine needs.
type Geometry interface {
	SelectionRect(start, end int) (surface.Rect, bool)
	Viewport() surface.Rect
}

// BusyError rejects a mutation of a span that still has a gateway call in flight.
type BusyError struct {
	SpanID string
}

func (e BusyError) Error() string {
	return fmt.Sprintf("annotation %s is still being saved", e.SpanID)
}

const (
	DefaultOptimisticPrefix = "optimistic-"
	DefaultFlash            = time.Second
)

type Config struct {
	TextID           string
	AnnotatorID      string
	OptimisticPrefix string
	// Structural enables repositioning of spans (header/section markers).
	Structural bool

	PickerSize Size
	EditSize   Size
	DeleteSize Size
	ReviewSize Size
	Margin     int

	Flash time.Duration
	Now   func() time.Time
	NewID func() string

	// OnTextSelect receives every selection change, nil when cleared.
	OnTextSelect func(*model.Selection)
	// OnError receives each failure exactly once.
	OnError func(error)
}

type pending struct {
	op        gateway.Op
	prior     model.Span
	index     int
	selection *model.Selection
	removed   []removedSpan
}

type removedSpan struct {
	span  model.Span
	index int
}

// Engine is the selection and popup state machine. It is not safe for
// concurrent use; hosts call it from their event loop only.
type Engine struct {
	cfg  Config
	text []rune
	geom Geometry

	spans     []model.Span
	state     State
	selection *model.Selection
	popup     Popup
	context   *model.Span

	inflight map[string]pending
	// waitingOn is the op key the current async state waits for.
	waitingOn string

	highlightID    string
	highlightUntil time.Time
}

func New(cfg Config, text string, spans []model.Span, geom Geometry) *Engine {
	if cfg.OptimisticPrefix == "" {
		cfg.OptimisticPrefix = DefaultOptimisticPrefix
	}
	if cfg.Flash == 0 {
		cfg.Flash = DefaultFlash
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}
	if cfg.PickerSize == (Size{}) {
		cfg.PickerSize = Size{W: 48, H: 16}
	}
	if cfg.EditSize == (Size{}) {
		cfg.EditSize = Size{W: 44, H: 9}
	}
	if cfg.DeleteSize == (Size{}) {
		cfg.DeleteSize = Size{W: 44, H: 7}
	}
	if cfg.ReviewSize == (Size{}) {
		cfg.ReviewSize = Size{W: 52, H: 12}
	}
	e := &Engine{
		cfg:      cfg,
		text:     []rune(text),
		geom:     geom,
		inflight: map[string]pending{},
	}
	e.spans = append([]model.Span(nil), spans...)
	return e
}

func (e *Engine) State() State { return e.state }
func (e *Engine) Popup() Popup { return e.popup }
func (e *Engine) Config() Config { return e.cfg }
func (e *Engine) TextLen() int { return len(e.text) }
func (e *Engine) SetGeometry(g Geometry) { e.geom = g }
func (e *Engine) Selection() *model.Selection { return copySelection(e.selection) }
func (e *Engine) OptimisticPrefix() string { return e.cfg.OptimisticPrefix }
func (e *Engine) Structural() bool { return e.cfg.Structural }
func (e *Engine) InFlight() int { return len(e.inflight) }
func (e *Engine) Affordances(s model.Span) perm.Affordances {
	return perm.For(s, e.cfg.Structural)
}

// Spans returns the current collection. The slice is never written to again;
// every change produces a new one.
func (e *Engine) Spans() []model.Span { return e.spans }

// ContextSpan is the span the edit, delete or review popup is about.
func (e *Engine) ContextSpan() (model.Span, bool) {
	if e.context == nil {
		return model.Span{}, false
	}
	return *e.context, true
}

// Busy reports whether id has a gateway call in flight.
func (e *Engine) Busy(id string) bool {
	if _, ok := e.inflight[id]; ok {
		return true
	}
	for _, p := range e.inflight {
		for _, r := range p.removed {
			if r.span.ID == id {
				return true
			}
		}
	}
	return false
}

// Decorations projects the current spans for painting.
func (e *Engine) Decorations() decor.Set {
	return decor.Render(e.spans, e.HighlightedID(), e.cfg.OptimisticPrefix)
}

// SetSpans replaces the collection with a fresh load. Optimistic entries of
// creates still in flight are carried over so their results can land.
func (e *Engine) SetSpans(spans []model.Span) {
	next := append([]model.Span(nil), spans...)
	for key, p := range e.inflight {
		if p.op.Kind != gateway.KindCreate {
			continue
		}
		if s, _, ok := spanutil.FindByID(e.spans, key); ok {
			next = spanutil.Insert(next, s)
		}
	}
	e.spans = next
	if e.context != nil {
		if s, _, ok := spanutil.FindByID(next, e.context.ID); ok {
			e.context = &s
		} else {
			e.closePopup()
		}
	}
}

// SelectionChanged tracks the live selection. Any edit, delete or review popup
// is closed first.
func (e *Engine) SelectionChanged(sel *model.Selection) {
	switch e.popup.Kind {
	case PopupEdit, PopupDelete, PopupReview:
		e.closePopup()
	}
	if sel == nil || sel.Empty() {
		hadSelection := e.selection != nil
		e.selection = nil
		if e.popup.Kind == PopupTypePicker {
			e.closePopup()
		}
		if e.state == Selecting {
			e.state = Idle
		}
		if hadSelection || sel != nil {
			e.notifySelect(nil)
		}
		return
	}
	s := e.normalize(*sel)
	e.selection = &s
	if e.popup.Kind == PopupTypePicker {
		e.closePopup()
	}
	if !e.async() {
		e.state = Selecting
	}
	e.notifySelect(&s)
}

// SelectionMade finalizes a gesture. A non-empty selection opens the type picker.
func (e *Engine) SelectionMade(sel model.Selection) {
	switch e.popup.Kind {
	case PopupEdit, PopupDelete, PopupReview:
		e.closePopup()
	}
	s := e.normalize(sel)
	if s.Empty() {
		e.SelectionChanged(nil)
		return
	}
	e.selection = &s
	e.openTypePicker()
	e.notifySelect(&s)
}

// Click handles a pointer press on the text at offset; spanIDs are the spans
// covering it, outermost first.
func (e *Engine) Click(offset int, spanIDs []string) {
	if e.selectionWins(offset) {
		return
	}
	if len(spanIDs) == 0 {
		e.OutsideClick()
		return
	}

	var target, locked *model.Span
	for i := len(spanIDs) - 1; i >= 0; i-- {
		s, _, ok := spanutil.FindByID(e.spans, spanIDs[i])
		if !ok {
			continue
		}
		if s.IsAgreed {
			if locked == nil {
				locked = &s
			}
			continue
		}
		target = &s
		break
	}
	switch {
	case target != nil:
		e.openEdit(*target)
	case locked != nil:
		e.openReview(*locked)
	default:
		e.OutsideClick()
	}
}

// Activate consumes a label widget's activation event.
func (e *Engine) Activate(ev decor.ActivationEvent) bool {
	if ev.Name != decor.EventLabelClick {
		return false
	}
	s, _, ok := spanutil.FindByID(e.spans, ev.Span.ID)
	if !ok || s.IsAgreed {
		return false
	}
	if e.selectionWins(s.Start) {
		return true
	}
	e.openEdit(s)
	return true
}

// selectionWins keeps or opens the type picker when a multi-character
// selection covers offset.
func (e *Engine) selectionWins(offset int) bool {
	if e.selection == nil || e.selection.Empty() || !e.selection.Contains(offset) {
		return false
	}
	if e.popup.Kind != PopupTypePicker {
		e.openTypePicker()
	}
	return true
}

// Inspect opens the read-only review view for an agreed span.
func (e *Engine) Inspect(id string) bool {
	s, _, ok := spanutil.FindByID(e.spans, id)
	if !ok {
		return false
	}
	if e.selectionWins(s.Start) {
		return true
	}
	if !s.IsAgreed {
		e.openEdit(s)
		return true
	}
	e.openReview(s)
	return true
}

// Escape closes whichever popup is open. With none open it does nothing.
func (e *Engine) Escape() {
	if e.popup.Kind == PopupNone {
		return
	}
	e.closeAndClear()
}

// OutsideClick dismisses like Escape.
func (e *Engine) OutsideClick() {
	if e.popup.Kind == PopupNone {
		if e.selection != nil {
			e.SelectionChanged(nil)
		}
		return
	}
	e.closeAndClear()
}

// Cancel is the popup close button.
func (e *Engine) Cancel() { e.Escape() }

// RequestDelete moves from the edit popup to the delete confirmation.
func (e *Engine) RequestDelete() error {
	if e.popup.Kind != PopupEdit || e.context == nil {
		return nil
	}
	if !perm.CanDelete(*e.context) {
		return mutate.LockedError{SpanID: e.context.ID}
	}
	e.popup = Popup{Kind: PopupDelete, Position: e.place(e.context.Start, e.context.End, e.cfg.DeleteSize)}
	e.state = DeletePopupOpen
	return nil
}

// ConfirmDelete issues the removal of the context span.
func (e *Engine) ConfirmDelete() (*gateway.Op, error) {
	if e.popup.Kind != PopupDelete || e.context == nil {
		return nil, nil
	}
	return e.RemoveAnnotation(e.context.ID)
}

// AddAnnotation creates a span from the current selection. The optimistic
// entry is in the model when this returns.
func (e *Engine) AddAnnotation(typ string, name *string, level model.Level) (*gateway.Op, error) {
	if e.selection == nil || e.selection.Empty() {
		return nil, mutate.ValidationError{Field: "selection", Msg: "select some text first"}
	}
	sel := *e.selection
	d, err := mutate.ValidateDraft(model.Draft{
		Type:  typ,
		Level: level,
		Name:  trimmedName(name),
		Text:  spanutil.Slice(e.text, sel.StartIndex, sel.EndIndex),
		Start: sel.StartIndex,
		End:   sel.EndIndex,
	}, len(e.text))
	if err != nil {
		return nil, err
	}

	tempID := e.cfg.OptimisticPrefix + e.cfg.NewID()
	e.spans = spanutil.Insert(e.spans, model.Span{
		ID:          tempID,
		Type:        d.Type,
		Level:       d.Level,
		Text:        d.Text,
		Start:       d.Start,
		End:         d.End,
		Name:        d.Name,
		Reviews:     []model.Review{},
		AnnotatorID: e.cfg.AnnotatorID,
		Confidence:  d.Confidence,
	})
	op := gateway.Op{
		Kind:           gateway.KindCreate,
		TextID:         e.cfg.TextID,
		TempID:         tempID,
		Draft:          d,
		PreserveScroll: true,
	}
	e.inflight[tempID] = pending{op: op, selection: &sel}

	e.popup = Popup{}
	e.context = nil
	e.selection = nil
	e.notifySelect(nil)
	e.enterAsync(CreatingAnnotation, tempID)
	return &op, nil
}

// UpdateAnnotation changes type, name and level of a span. A nil op with a nil
// error means nothing changed.
func (e *Engine) UpdateAnnotation(id, typ string, name *string, level *model.Level) (*gateway.Op, error) {
	s, idx, err := e.mutable(id)
	if err != nil {
		return nil, err
	}
	patch := model.Patch{Type: &typ, Level: level, Name: name}
	res, err := mutate.ApplyPatch(s, patch)
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		e.closePopupIfAbout(id)
		return nil, nil
	}

	e.spans = spanutil.Replace(e.spans, id, res.Span)
	op := gateway.Op{Kind: gateway.KindUpdate, TextID: e.cfg.TextID, SpanID: id, Patch: patch}
	e.inflight[id] = pending{op: op, prior: s, index: idx}
	e.closePopupIfAbout(id)
	e.enterAsync(Updating, id)
	return &op, nil
}

// UpdateHeaderSpan moves a structural span to [start, end).
func (e *Engine) UpdateHeaderSpan(id string, start, end int) (*gateway.Op, error) {
	s, idx, err := e.mutable(id)
	if err != nil {
		return nil, err
	}
	res, err := mutate.Reposition(s, start, end, e.text)
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		e.closePopupIfAbout(id)
		return nil, nil
	}

	e.spans = spanutil.Replace(e.spans, id, res.Span)
	op := gateway.Op{Kind: gateway.KindUpdateHeaderSpan, TextID: e.cfg.TextID, SpanID: id, Start: start, End: end}
	e.inflight[id] = pending{op: op, prior: s, index: idx}
	e.closePopupIfAbout(id)
	e.enterAsync(Updating, id)
	return &op, nil
}

// RemoveAnnotation deletes a span optimistically.
func (e *Engine) RemoveAnnotation(id string) (*gateway.Op, error) {
	s, idx, err := e.mutable(id)
	if err != nil {
		return nil, err
	}
	e.spans = spanutil.Remove(e.spans, id)
	op := gateway.Op{Kind: gateway.KindRemove, TextID: e.cfg.TextID, SpanID: id, PreserveScroll: true}
	e.inflight[id] = pending{op: op, prior: s, index: idx}
	e.closePopupIfAbout(id)
	e.enterAsync(Deleting, id)
	return &op, nil
}

// UndoMine removes every span of the configured annotator. Agreed spans and
// spans with calls in flight are left alone; the op names exactly the spans
// it removes so the gateway never touches the others.
func (e *Engine) UndoMine() (*gateway.Op, error) {
	if strings.TrimSpace(e.cfg.AnnotatorID) == "" {
		return nil, mutate.ValidationError{Field: "annotator", Msg: "no annotator configured"}
	}
	var (
		removed []removedSpan
		ids     []string
	)
	next := make([]model.Span, 0, len(e.spans))
	for i, s := range e.spans {
		if perm.OwnedBy(s, e.cfg.AnnotatorID) && perm.CanDelete(s) && !e.Busy(s.ID) {
			removed = append(removed, removedSpan{span: s, index: i})
			ids = append(ids, s.ID)
			continue
		}
		next = append(next, s)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	key := "remove-mine:" + e.cfg.NewID()
	op := gateway.Op{
		Kind:           gateway.KindRemoveMine,
		TextID:         e.cfg.TextID,
		SpanID:         key,
		SpanIDs:        ids,
		PreserveScroll: true,
	}
	e.spans = next
	e.inflight[key] = pending{op: op, removed: removed}
	if e.context != nil {
		if _, _, ok := spanutil.FindByID(next, e.context.ID); !ok {
			e.closePopup()
		}
	}
	e.enterAsync(Deleting, key)
	return &op, nil
}

// Complete applies a gateway result. Failures roll the model back to what it
// was before the optimistic change and are reported once.
func (e *Engine) Complete(res gateway.Result) {
	key := res.Op.Key()
	p, ok := e.inflight[key]
	if !ok {
		return
	}
	delete(e.inflight, key)
	if e.waitingOn == key {
		e.waitingOn = ""
		if e.async() {
			e.state = e.restingState()
		}
	}

	switch p.op.Kind {
	case gateway.KindCreate:
		if !res.OK() {
			e.spans = spanutil.Remove(e.spans, key)
			e.report(fmt.Errorf("create %q at [%d,%d): %w", p.op.Draft.Type, p.op.Draft.Start, p.op.Draft.End, res.Err))
			return
		}
		temp, _, found := spanutil.FindByID(e.spans, key)
		persisted := e.reconcile(res.Span, temp)
		if !found {
			return
		}
		e.spans = spanutil.Replace(e.spans, key, persisted)
		e.Highlight(persisted.ID, e.cfg.Flash)

	case gateway.KindUpdate, gateway.KindUpdateHeaderSpan:
		if !res.OK() {
			if _, _, found := spanutil.FindByID(e.spans, key); found {
				e.spans = spanutil.Replace(e.spans, key, p.prior)
			}
			e.report(fmt.Errorf("update %s: %w", key, res.Err))
			return
		}
		cur, _, found := spanutil.FindByID(e.spans, key)
		if !found {
			return
		}
		e.spans = spanutil.Replace(e.spans, key, e.reconcile(res.Span, cur))

	case gateway.KindRemove:
		if !res.OK() {
			if _, _, found := spanutil.FindByID(e.spans, key); !found {
				e.spans = spanutil.InsertAt(e.spans, p.index, p.prior)
			}
			e.report(fmt.Errorf("delete %s: %w", key, res.Err))
		}

	case gateway.KindRemoveMine:
		if !res.OK() {
			gone := make(map[string]bool, len(res.RemovedIDs))
			for _, id := range res.RemovedIDs {
				gone[id] = true
			}
			next := e.spans
			for _, r := range p.removed {
				if gone[r.span.ID] {
					continue
				}
				if _, _, found := spanutil.FindByID(next, r.span.ID); !found {
					next = spanutil.InsertAt(next, r.index, r.span)
				}
			}
			e.spans = next
			e.report(fmt.Errorf("undo my annotations: %w", res.Err))
		}
	}
}

// reconcile fills what the backend left out of a returned span from the local
// copy, keeps local offsets when the returned ones do not fit the text and
// refreshes the text snapshot from the buffer.
func (e *Engine) reconcile(server, local model.Span) model.Span {
	out := server
	if out.ID == "" {
		out.ID = local.ID
	}
	if spanutil.ValidateOffsets(out.Start, out.End, len(e.text)) != nil {
		out.Start, out.End = local.Start, local.End
	}
	if snap := spanutil.Slice(e.text, out.Start, out.End); snap != "" {
		out.Text = snap
	}
	if out.Type == "" {
		out.Type = local.Type
	}
	if out.AnnotatorID == "" {
		out.AnnotatorID = local.AnnotatorID
	}
	if out.Reviews == nil {
		out.Reviews = local.Reviews
	}
	return out
}

// Highlight marks id as highlighted for d.
func (e *Engine) Highlight(id string, d time.Duration) {
	e.highlightID = id
	e.highlightUntil = e.cfg.Now().Add(d)
}

// Tick expires the transient highlight. It reports whether anything changed.
func (e *Engine) Tick(now time.Time) bool {
	if e.highlightID == "" || now.Before(e.highlightUntil) {
		return false
	}
	e.highlightID = ""
	e.highlightUntil = time.Time{}
	return true
}

// HighlightedID is the currently highlighted span, if any.
func (e *Engine) HighlightedID() string { return e.highlightID }

// HighlightExpiry is when the current highlight ends; zero when none.
func (e *Engine) HighlightExpiry() time.Time { return e.highlightUntil }

// Reposition recomputes the open popup after scroll or resize.
func (e *Engine) Reposition() {
	switch e.popup.Kind {
	case PopupTypePicker:
		if e.selection != nil {
			e.popup.Position = e.place(e.selection.StartIndex, e.selection.EndIndex, e.cfg.PickerSize)
		}
	case PopupEdit:
		e.popup.Position = e.place(e.context.Start, e.context.End, e.cfg.EditSize)
	case PopupDelete:
		e.popup.Position = e.place(e.context.Start, e.context.End, e.cfg.DeleteSize)
	case PopupReview:
		e.popup.Position = e.place(e.context.Start, e.context.End, e.cfg.ReviewSize)
	}
}

func (e *Engine) mutable(id string) (model.Span, int, error) {
	s, idx, ok := spanutil.FindByID(e.spans, id)
	if !ok {
		return model.Span{}, -1, mutate.NotFoundError{Kind: "annotation", ID: id}
	}
	if s.IsAgreed {
		return model.Span{}, -1, mutate.LockedError{SpanID: id}
	}
	if e.Busy(id) || spanutil.IsOptimistic(id, e.cfg.OptimisticPrefix) {
		return model.Span{}, -1, BusyError{SpanID: id}
	}
	return s, idx, nil
}

func (e *Engine) openTypePicker() {
	e.context = nil
	e.popup = Popup{
		Kind:     PopupTypePicker,
		Position: e.place(e.selection.StartIndex, e.selection.EndIndex, e.cfg.PickerSize),
	}
	e.state = TypePickerOpen
}

func (e *Engine) openEdit(s model.Span) {
	e.dropSelection()
	c := s
	e.context = &c
	e.popup = Popup{Kind: PopupEdit, Position: e.place(s.Start, s.End, e.cfg.EditSize)}
	e.state = EditPopupOpen
}

func (e *Engine) openReview(s model.Span) {
	e.dropSelection()
	c := s
	e.context = &c
	e.popup = Popup{Kind: PopupReview, Position: e.place(s.Start, s.End, e.cfg.ReviewSize)}
	e.state = e.restingState()
}

func (e *Engine) dropSelection() {
	if e.selection != nil {
		e.selection = nil
		e.notifySelect(nil)
	}
}

func (e *Engine) closePopup() {
	e.popup = Popup{}
	e.context = nil
	e.state = e.restingState()
}

func (e *Engine) closePopupIfAbout(id string) {
	if e.context != nil && e.context.ID == id {
		e.closePopup()
	}
}

func (e *Engine) closeAndClear() {
	wasPicker := e.popup.Kind == PopupTypePicker
	e.closePopup()
	if wasPicker {
		e.selection = nil
		e.notifySelect(nil)
	}
	e.state = e.restingState()
}

func (e *Engine) enterAsync(s State, key string) {
	e.state = s
	e.waitingOn = key
}

func (e *Engine) async() bool {
	switch e.state {
	case CreatingAnnotation, Deleting, Updating:
		return true
	}
	return false
}

// restingState is the state with no popup open.
func (e *Engine) restingState() State {
	if e.waitingOn != "" {
		if p, ok := e.inflight[e.waitingOn]; ok {
			switch p.op.Kind {
			case gateway.KindCreate:
				return CreatingAnnotation
			case gateway.KindRemove, gateway.KindRemoveMine:
				return Deleting
			default:
				return Updating
			}
		}
	}
	if e.selection != nil && !e.selection.Empty() {
		return Selecting
	}
	return Idle
}

func (e *Engine) place(start, end int, size Size) Position {
	var vp surface.Rect
	if e.geom != nil {
		vp = e.geom.Viewport()
		if r, ok := e.geom.SelectionRect(start, end); ok {
			return Place(r, size, vp, e.cfg.Margin)
		}
	}
	return Place(DefaultAnchor(vp), size, vp, e.cfg.Margin)
}

// normalize clamps a selection to the text and refreshes its text from the buffer.
func (e *Engine) normalize(s model.Selection) model.Selection {
	if s.StartIndex > s.EndIndex {
		s.StartIndex, s.EndIndex = s.EndIndex, s.StartIndex
	}
	s.StartIndex = max(0, s.StartIndex)
	s.EndIndex = min(len(e.text), s.EndIndex)
	if s.EndIndex < s.StartIndex {
		s.EndIndex = s.StartIndex
	}
	s.Text = spanutil.Slice(e.text, s.StartIndex, s.EndIndex)
	return s
}

func (e *Engine) notifySelect(sel *model.Selection) {
	if e.cfg.OnTextSelect != nil {
		e.cfg.OnTextSelect(copySelection(sel))
	}
}

func (e *Engine) report(err error) {
	if e.cfg.OnError != nil && err != nil {
		e.cfg.OnError(err)
	}
}

func copySelection(s *model.Selection) *model.Selection {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func trimmedName(name *string) *string {
	if name == nil {
		return nil
	}
	n := strings.TrimSpace(*name)
	if n == "" {
		return nil
	}
	return &n
}
