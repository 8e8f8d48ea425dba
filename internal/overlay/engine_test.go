package overlay

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"annotate-cli/internal/decor"
	"annotate-cli/internal/gateway"
	"annotate-cli/internal/model"
	"annotate-cli/internal/mutate"
	"annotate-cli/internal/spanutil"
	"annotate-cli/internal/surface"
)

type fakeGeom struct {
	vp       surface.Rect
	noRanges bool
}

func (g fakeGeom) SelectionRect(start, end int) (surface.Rect, bool) {
	if g.noRanges {
		return surface.Rect{}, false
	}
	return surface.Rect{Left: start, Top: 2, Right: end, Bottom: 3}, true
}

func (g fakeGeom) Viewport() surface.Rect { return g.vp }

type harness struct {
	e       *Engine
	now     time.Time
	errs    []error
	selects []*model.Selection
	gw      *gateway.Recorder
}

func newHarness(t *testing.T, text string, spans ...model.Span) *harness {
	t.Helper()
	h := &harness{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), gw: gateway.NewRecorder()}
	seq := 0
	cfg := Config{
		TextID:      "t1",
		AnnotatorID: "ann-1",
		Margin:      1,
		Now:         func() time.Time { return h.now },
		NewID: func() string {
			seq++
			return "tmp" + strconv.Itoa(seq)
		},
		OnTextSelect: func(s *model.Selection) { h.selects = append(h.selects, s) },
		OnError:      func(err error) { h.errs = append(h.errs, err) },
	}
	h.e = New(cfg, text, spans, fakeGeom{vp: surface.Rect{Left: 0, Top: 0, Right: 80, Bottom: 24}})
	h.gw.Seed(spans...)
	return h
}

// run executes op against the recorder and feeds the result back.
func (h *harness) run(t *testing.T, op *gateway.Op) gateway.Result {
	t.Helper()
	if op == nil {
		t.Fatalf("expected an op")
	}
	res := gateway.Execute(context.Background(), h.gw, *op)
	h.e.Complete(res)
	return res
}

func (h *harness) checkInvariants(t *testing.T) {
	t.Helper()
	if err := spanutil.CheckInvariants(h.e.Spans(), h.e.TextLen()); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

func TestCreate_CatBecomesPersisted(t *testing.T) {
	h := newHarness(t, "The cat sat.")

	h.e.SelectionMade(model.Selection{StartIndex: 4, EndIndex: 7})
	if h.e.State() != TypePickerOpen || h.e.Popup().Kind != PopupTypePicker {
		t.Fatalf("expected type picker; got state=%v popup=%v", h.e.State(), h.e.Popup().Kind)
	}

	op, err := h.e.AddAnnotation("person", nil, "")
	if err != nil {
		t.Fatalf("AddAnnotation error: %v", err)
	}
	spans := h.e.Spans()
	if len(spans) != 1 {
		t.Fatalf("expected one optimistic span; got %d", len(spans))
	}
	s := spans[0]
	if !spanutil.IsOptimistic(s.ID, DefaultOptimisticPrefix) {
		t.Fatalf("expected optimistic id; got %q", s.ID)
	}
	if s.Type != "person" || s.Start != 4 || s.End != 7 || s.Text != "cat" {
		t.Fatalf("unexpected optimistic span: %+v", s)
	}
	if h.e.State() != CreatingAnnotation {
		t.Fatalf("expected creating state; got %v", h.e.State())
	}
	if !op.PreserveScroll {
		t.Fatalf("expected create to preserve scroll")
	}
	h.checkInvariants(t)

	h.gw.NextID = "42"
	h.run(t, op)

	spans = h.e.Spans()
	if len(spans) != 1 || spans[0].ID != "42" {
		t.Fatalf("expected persisted id 42; got %+v", spans)
	}
	if spans[0].Start != 4 || spans[0].End != 7 || spans[0].Text != "cat" {
		t.Fatalf("persisted span moved: %+v", spans[0])
	}
	if h.e.State() != Idle {
		t.Fatalf("expected idle; got %v", h.e.State())
	}
	if len(h.errs) != 0 {
		t.Fatalf("unexpected errors: %v", h.errs)
	}
	h.checkInvariants(t)

	if h.e.HighlightedID() != "42" {
		t.Fatalf("expected created span to flash; got %q", h.e.HighlightedID())
	}
	if h.e.Tick(h.now.Add(500 * time.Millisecond)) {
		t.Fatalf("highlight expired too early")
	}
	if !h.e.Tick(h.now.Add(time.Second)) || h.e.HighlightedID() != "" {
		t.Fatalf("expected highlight to expire after 1s")
	}
}

func TestCreate_FailureRollsBack(t *testing.T) {
	existing := model.Span{ID: "1", Type: "det", Text: "The", Start: 0, End: 3}
	h := newHarness(t, "The cat sat.", existing)
	h.gw.Fail[gateway.KindCreate] = &gateway.NetworkError{Op: "create", Err: errors.New("offline")}

	h.e.SelectionMade(model.Selection{StartIndex: 4, EndIndex: 7})
	op, err := h.e.AddAnnotation("person", nil, model.LevelMinor)
	if err != nil {
		t.Fatalf("AddAnnotation error: %v", err)
	}
	if len(h.e.Spans()) != 2 {
		t.Fatalf("expected optimistic insert")
	}
	h.run(t, op)

	spans := h.e.Spans()
	if len(spans) != 1 || spans[0].ID != "1" {
		t.Fatalf("expected model back to pre-create state; got %+v", spans)
	}
	if len(h.errs) != 1 || !gateway.IsNetwork(h.errs[0]) {
		t.Fatalf("expected one network error report; got %v", h.errs)
	}
	if h.e.State() != Idle || h.e.Popup().Kind != PopupNone {
		t.Fatalf("expected idle with no popup; got %v/%v", h.e.State(), h.e.Popup().Kind)
	}
}

func TestAddAnnotation_ValidationKeepsPickerOpen(t *testing.T) {
	h := newHarness(t, "The cat sat.")
	h.e.SelectionMade(model.Selection{StartIndex: 4, EndIndex: 7})

	op, err := h.e.AddAnnotation("  ", nil, "")
	if op != nil {
		t.Fatalf("expected no op")
	}
	var ve mutate.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError; got %v", err)
	}
	if h.e.State() != TypePickerOpen || len(h.e.Spans()) != 0 || len(h.gw.Calls) != 0 {
		t.Fatalf("expected picker to stay open with no side effects")
	}

	h.e.Escape()
	if _, err := h.e.AddAnnotation("person", nil, ""); err == nil {
		t.Fatalf("expected error without a selection")
	}
}

func TestClick_SelectionWinsOverSpan(t *testing.T) {
	h := newHarness(t, "The cat sat.", model.Span{ID: "1", Type: "animal", Text: "cat", Start: 4, End: 7})

	h.e.SelectionChanged(&model.Selection{StartIndex: 2, EndIndex: 9})
	if h.e.State() != Selecting {
		t.Fatalf("expected selecting; got %v", h.e.State())
	}
	h.e.Click(5, []string{"1"})

	if h.e.State() != TypePickerOpen || h.e.Popup().Kind != PopupTypePicker {
		t.Fatalf("expected type picker; got %v/%v", h.e.State(), h.e.Popup().Kind)
	}
	if _, ok := h.e.ContextSpan(); ok {
		t.Fatalf("expected no context span")
	}
}

func TestActivate_SelectionWinsOverLabel(t *testing.T) {
	span := model.Span{ID: "9", Type: "animal", Text: "cat", Start: 4, End: 7}
	h := newHarness(t, "The cat sat.", span)

	h.e.SelectionMade(model.Selection{Text: "The cat sat.", StartIndex: 0, EndIndex: 12})
	if !h.e.Activate(decor.ActivationEvent{Name: decor.EventLabelClick, Span: span}) {
		t.Fatalf("expected the label click to be consumed")
	}
	if h.e.State() != TypePickerOpen || h.e.Popup().Kind != PopupTypePicker {
		t.Fatalf("expected type picker to stay open; got %v/%v", h.e.State(), h.e.Popup().Kind)
	}
	if sel := h.e.Selection(); sel == nil || sel.StartIndex != 0 || sel.EndIndex != 12 {
		t.Fatalf("expected selection kept; got %+v", sel)
	}

	h.e.Inspect("9")
	if h.e.Popup().Kind != PopupTypePicker {
		t.Fatalf("expected inspect to keep the picker; got %v", h.e.Popup().Kind)
	}

	h.e.Escape()
	h.e.Activate(decor.ActivationEvent{Name: decor.EventLabelClick, Span: span})
	if h.e.State() != EditPopupOpen {
		t.Fatalf("expected edit popup without a selection; got %v", h.e.State())
	}
}

func TestClick_SpanOpensEditThenOutsideCloses(t *testing.T) {
	h := newHarness(t, "The cat sat.",
		model.Span{ID: "outer", Type: "clause", Start: 0, End: 11},
		model.Span{ID: "inner", Type: "animal", Start: 4, End: 7},
	)

	h.e.Click(5, []string{"outer", "inner"})
	if h.e.State() != EditPopupOpen {
		t.Fatalf("expected edit popup; got %v", h.e.State())
	}
	if s, _ := h.e.ContextSpan(); s.ID != "inner" {
		t.Fatalf("expected innermost span as context; got %q", s.ID)
	}

	h.e.Click(11, nil)
	if h.e.State() != Idle || h.e.Popup().Kind != PopupNone {
		t.Fatalf("expected outside click to close; got %v", h.e.State())
	}
}

func TestLockedSpan_NoEditAndNoCommands(t *testing.T) {
	locked := model.Span{ID: "5", Type: "person", Text: "cat", Start: 4, End: 7, IsAgreed: true}
	h := newHarness(t, "The cat sat.", locked)

	h.e.Click(5, []string{"5"})
	if h.e.State() == EditPopupOpen || h.e.Popup().Kind == PopupEdit {
		t.Fatalf("agreed span must not open the edit popup")
	}
	if h.e.Popup().Kind != PopupReview {
		t.Fatalf("expected read-only review view; got %v", h.e.Popup().Kind)
	}
	if a := h.e.Affordances(locked); a.Any() {
		t.Fatalf("expected no affordances; got %+v", a)
	}
	if err := h.e.RequestDelete(); err != nil {
		t.Fatalf("RequestDelete outside edit should be a no-op; got %v", err)
	}

	if ev, ok := h.e.Decorations().Activate("5"); ok || h.e.Activate(ev) {
		t.Fatalf("agreed label must be inert")
	}
	if h.e.Activate(decor.ActivationEvent{Name: decor.EventLabelClick, Span: locked}) {
		t.Fatalf("forged activation of an agreed span must be ignored")
	}

	typ := "animal"
	lvl := model.LevelMajor
	if op, err := h.e.UpdateAnnotation("5", typ, nil, &lvl); op != nil || !errors.As(err, &mutate.LockedError{}) {
		t.Fatalf("expected LockedError and no op; got %v %v", op, err)
	}
	if op, err := h.e.RemoveAnnotation("5"); op != nil || !errors.As(err, &mutate.LockedError{}) {
		t.Fatalf("expected LockedError and no op; got %v %v", op, err)
	}
	if op, err := h.e.UpdateHeaderSpan("5", 0, 3); op != nil || err == nil {
		t.Fatalf("expected move to be refused; got %v %v", op, err)
	}
	if op, err := h.e.UndoMine(); op != nil || err != nil {
		t.Fatalf("expected nothing to undo; got %v %v", op, err)
	}
	if calls := h.gw.CallsFor("5"); len(calls) != 0 {
		t.Fatalf("expected gateway never called for 5; got %+v", calls)
	}
	if len(h.e.Spans()) != 1 || !h.e.Spans()[0].IsAgreed {
		t.Fatalf("locked span changed: %+v", h.e.Spans())
	}
}

func TestUpdate_OptimisticThenRollback(t *testing.T) {
	s := model.Span{ID: "1", Type: "animal", Text: "cat", Start: 4, End: 7, Level: model.LevelMinor}
	h := newHarness(t, "The cat sat.", s)

	h.e.Click(4, []string{"1"})
	name := "the cat"
	lvl := model.LevelCritical
	op, err := h.e.UpdateAnnotation("1", "pet", &name, &lvl)
	if err != nil {
		t.Fatalf("UpdateAnnotation error: %v", err)
	}
	got := h.e.Spans()[0]
	if got.Type != "pet" || got.Level != model.LevelCritical || got.NameOrEmpty() != "the cat" {
		t.Fatalf("expected optimistic update; got %+v", got)
	}
	if h.e.State() != Updating || h.e.Popup().Kind != PopupNone {
		t.Fatalf("expected updating with popup closed; got %v", h.e.State())
	}
	if _, err := h.e.RemoveAnnotation("1"); !errors.As(err, &BusyError{}) {
		t.Fatalf("expected BusyError while update in flight; got %v", err)
	}

	h.gw.Fail[gateway.KindUpdate] = &gateway.ValidationError{Status: 400, Detail: "bad level"}
	h.run(t, op)

	got = h.e.Spans()[0]
	if got.Type != "animal" || got.Level != model.LevelMinor || got.Name != nil {
		t.Fatalf("expected prior fields restored; got %+v", got)
	}
	if len(h.errs) != 1 || !gateway.IsValidation(h.errs[0]) {
		t.Fatalf("expected one validation error; got %v", h.errs)
	}
	if h.e.State() != Idle {
		t.Fatalf("expected idle; got %v", h.e.State())
	}
}

func TestUpdate_NoChangeIssuesNothing(t *testing.T) {
	h := newHarness(t, "The cat sat.", model.Span{ID: "1", Type: "animal", Start: 4, End: 7})
	h.e.Click(4, []string{"1"})
	op, err := h.e.UpdateAnnotation("1", "animal", nil, nil)
	if op != nil || err != nil {
		t.Fatalf("expected no op; got %v %v", op, err)
	}
	if h.e.Popup().Kind != PopupNone {
		t.Fatalf("expected popup to close")
	}
}

func TestDelete_ConfirmFlowAndRollbackRestoresIndex(t *testing.T) {
	h := newHarness(t, "The cat sat.",
		model.Span{ID: "1", Type: "det", Start: 0, End: 3},
		model.Span{ID: "2", Type: "animal", Start: 4, End: 7},
		model.Span{ID: "3", Type: "verb", Start: 8, End: 11},
	)

	h.e.Click(5, []string{"2"})
	if err := h.e.RequestDelete(); err != nil {
		t.Fatalf("RequestDelete error: %v", err)
	}
	if h.e.State() != DeletePopupOpen {
		t.Fatalf("expected delete confirmation; got %v", h.e.State())
	}
	op, err := h.e.ConfirmDelete()
	if err != nil {
		t.Fatalf("ConfirmDelete error: %v", err)
	}
	if len(h.e.Spans()) != 2 || h.e.State() != Deleting {
		t.Fatalf("expected optimistic removal; got %d spans state %v", len(h.e.Spans()), h.e.State())
	}

	// A new selection is allowed while the delete is pending.
	h.e.SelectionMade(model.Selection{StartIndex: 8, EndIndex: 11})
	if h.e.State() != TypePickerOpen {
		t.Fatalf("expected picker while delete pending; got %v", h.e.State())
	}

	h.gw.Fail[gateway.KindRemove] = &gateway.NetworkError{Op: "remove", Status: 502}
	h.run(t, op)

	spans := h.e.Spans()
	if len(spans) != 3 || spans[1].ID != "2" {
		t.Fatalf("expected span restored at index 1; got %+v", spans)
	}
	if h.e.State() != TypePickerOpen {
		t.Fatalf("result must not close the unrelated picker; got %v", h.e.State())
	}
}

func TestSelectionChange_ClosesEditPopup(t *testing.T) {
	h := newHarness(t, "The cat sat.", model.Span{ID: "1", Type: "animal", Start: 4, End: 7})
	h.e.Click(4, []string{"1"})
	h.e.SelectionChanged(&model.Selection{StartIndex: 0, EndIndex: 2})

	if h.e.Popup().Kind != PopupNone {
		t.Fatalf("expected edit popup closed; got %v", h.e.Popup().Kind)
	}
	if sel := h.e.Selection(); sel == nil || sel.Text != "Th" {
		t.Fatalf("expected selection with buffer text; got %+v", sel)
	}
	last := h.selects[len(h.selects)-1]
	if last == nil || last.StartIndex != 0 || last.EndIndex != 2 {
		t.Fatalf("expected OnTextSelect with selection; got %+v", last)
	}
}

func TestEscape_ClosesPickerAndClearsSelection(t *testing.T) {
	h := newHarness(t, "The cat sat.")
	h.e.Escape()
	if len(h.selects) != 0 || h.e.State() != Idle {
		t.Fatalf("escape with nothing open must be a no-op")
	}

	h.e.SelectionMade(model.Selection{StartIndex: 4, EndIndex: 7})
	h.e.Escape()
	if h.e.State() != Idle || h.e.Popup().Kind != PopupNone || h.e.Selection() != nil {
		t.Fatalf("expected idle without selection; got %v", h.e.State())
	}
	if last := h.selects[len(h.selects)-1]; last != nil {
		t.Fatalf("expected OnTextSelect(nil); got %+v", last)
	}
}

func TestNoGeometry_PopupFallsBackInsideViewport(t *testing.T) {
	h := newHarness(t, "The cat sat.")
	vp := surface.Rect{Left: 0, Top: 0, Right: 60, Bottom: 20}
	h.e.SetGeometry(fakeGeom{vp: vp, noRanges: true})

	h.e.SelectionMade(model.Selection{StartIndex: 4, EndIndex: 7})
	if h.e.State() != TypePickerOpen {
		t.Fatalf("expected picker even without geometry")
	}
	r := h.e.Popup().Position.Rect()
	if r.Left < vp.Left || r.Top < vp.Top || r.Right > vp.Right || r.Bottom > vp.Bottom {
		t.Fatalf("popup outside viewport: %+v", r)
	}
}

func TestUndoMine_SkipsOthersAndLocked(t *testing.T) {
	h := newHarness(t, "The cat sat on the mat.",
		model.Span{ID: "1", Type: "a", Start: 0, End: 3, AnnotatorID: "ann-1"},
		model.Span{ID: "2", Type: "b", Start: 4, End: 7, AnnotatorID: "ann-2"},
		model.Span{ID: "3", Type: "c", Start: 8, End: 11, AnnotatorID: "ann-1", IsAgreed: true},
		model.Span{ID: "4", Type: "d", Start: 12, End: 14, AnnotatorID: "ann-1"},
	)
	op, err := h.e.UndoMine()
	if err != nil || op == nil {
		t.Fatalf("UndoMine: op=%v err=%v", op, err)
	}
	ids := func() []string {
		var out []string
		for _, s := range h.e.Spans() {
			out = append(out, s.ID)
		}
		return out
	}
	if got := ids(); len(got) != 2 || got[0] != "2" || got[1] != "3" {
		t.Fatalf("unexpected spans after undo: %v", got)
	}
	if !h.e.Busy("4") {
		t.Fatalf("expected removed spans to count as busy")
	}

	if len(op.SpanIDs) != 2 || op.SpanIDs[0] != "1" || op.SpanIDs[1] != "4" {
		t.Fatalf("expected op to name spans 1 and 4; got %v", op.SpanIDs)
	}

	h.gw.Fail[gateway.KindRemove] = errors.New("boom")
	h.run(t, op)
	if got := ids(); len(got) != 4 || got[0] != "1" || got[3] != "4" {
		t.Fatalf("expected all spans restored in order; got %v", got)
	}
	if len(h.errs) != 1 {
		t.Fatalf("expected one error; got %v", h.errs)
	}
	if got := h.gw.CallsFor("3"); len(got) != 0 {
		t.Fatalf("expected no call for the agreed span; got %#v", got)
	}
}

func TestUndoMine_PartialFailureRestoresOnlyUndeleted(t *testing.T) {
	h := newHarness(t, "The cat sat on the mat.",
		model.Span{ID: "1", Type: "a", Start: 0, End: 3, AnnotatorID: "ann-1"},
		model.Span{ID: "2", Type: "b", Start: 4, End: 7, AnnotatorID: "ann-1"},
		model.Span{ID: "3", Type: "c", Start: 8, End: 11, AnnotatorID: "ann-1"},
	)
	op, err := h.e.UndoMine()
	if err != nil {
		t.Fatalf("UndoMine: %v", err)
	}
	h.gw.FailSpan["2"] = errors.New("boom")
	res := h.run(t, op)
	if res.OK() || len(res.RemovedIDs) != 1 || res.RemovedIDs[0] != "1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	var got []string
	for _, s := range h.e.Spans() {
		got = append(got, s.ID)
	}
	if len(got) != 2 || got[0] != "2" || got[1] != "3" {
		t.Fatalf("expected spans 2 and 3 restored; got %v", got)
	}
	if len(h.errs) != 1 {
		t.Fatalf("expected one error; got %v", h.errs)
	}
	h.checkInvariants(t)
}

func TestUpdateHeaderSpan_Moves(t *testing.T) {
	h := newHarness(t, "Title\nBody text", model.Span{ID: "h1", Type: "header", Text: "Title", Start: 0, End: 5})
	op, err := h.e.UpdateHeaderSpan("h1", 6, 10)
	if err != nil {
		t.Fatalf("UpdateHeaderSpan error: %v", err)
	}
	if s := h.e.Spans()[0]; s.Start != 6 || s.End != 10 || s.Text != "Body" {
		t.Fatalf("expected optimistic move; got %+v", s)
	}
	h.run(t, op)
	if s := h.e.Spans()[0]; s.Start != 6 || s.End != 10 || s.Text != "Body" {
		t.Fatalf("unexpected persisted span: %+v", s)
	}
	h.checkInvariants(t)

	if _, err := h.e.UpdateHeaderSpan("h1", 10, 99); err == nil {
		t.Fatalf("expected out-of-range move to be rejected")
	}
}

func TestSetSpans_KeepsInFlightCreates(t *testing.T) {
	h := newHarness(t, "The cat sat.")
	h.e.SelectionMade(model.Selection{StartIndex: 4, EndIndex: 7})
	op, _ := h.e.AddAnnotation("person", nil, "")

	h.e.SetSpans([]model.Span{{ID: "9", Type: "det", Start: 0, End: 3}})
	if len(h.e.Spans()) != 2 {
		t.Fatalf("expected reload to keep optimistic entry; got %+v", h.e.Spans())
	}
	h.gw.NextID = "42"
	h.run(t, op)
	if _, _, ok := spanutil.FindByID(h.e.Spans(), "42"); !ok {
		t.Fatalf("expected persisted span after reload")
	}
}
