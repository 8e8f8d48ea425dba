package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"annotate-cli/internal/catalog"
	"annotate-cli/internal/gateway"
	"annotate-cli/internal/model"
)

func newTestWorkspace(t *testing.T, annotator string) (*Workspace, model.Text) {
	t.Helper()
	s := Store{Dir: t.TempDir()}
	w := NewWorkspace(s, annotator, false)
	txt, err := w.ImportText(context.Background(), model.Text{ID: "1", Title: "Cats", Content: "The cat sat."})
	if err != nil {
		t.Fatalf("ImportText: %v", err)
	}
	return w, txt
}

func TestWorkspace_CreateUpdateRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w, txt := newTestWorkspace(t, "u1")

	s, err := w.Create(ctx, txt.ID, model.Draft{Type: "person", Start: 4, End: 7, Text: "ignored"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == "" || s.Text != "cat" || s.AnnotatorID != "u1" || s.Confidence != 100 || s.IsAgreed {
		t.Fatalf("unexpected span: %+v", s)
	}
	got, err := w.Text(ctx, txt.ID)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got.Status != StatusProgress {
		t.Fatalf("expected status %q; got %q", StatusProgress, got.Status)
	}

	typ, note := "animal", "a pet"
	lvl := model.LevelMajor
	s, err = w.Update(ctx, s.ID, model.Patch{Type: &typ, Level: &lvl, Name: &note})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s.Type != "animal" || s.Level != model.LevelMajor || s.NameOrEmpty() != "a pet" || s.Start != 4 {
		t.Fatalf("unexpected updated span: %+v", s)
	}

	s, err = w.UpdateHeaderSpan(ctx, s.ID, 0, 3)
	if err != nil {
		t.Fatalf("UpdateHeaderSpan: %v", err)
	}
	if s.Text != "The" || s.Type != "animal" {
		t.Fatalf("unexpected moved span: %+v", s)
	}

	if err := w.Remove(ctx, s.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	spans, err := w.Annotations(ctx, txt.ID)
	if err != nil {
		t.Fatalf("Annotations: %v", err)
	}
	if len(spans) != 0 {
		t.Fatalf("expected no spans; got %+v", spans)
	}
	got, _ = w.Text(ctx, txt.ID)
	if got.Status != StatusInitialized {
		t.Fatalf("expected status reset; got %q", got.Status)
	}
}

func TestWorkspace_RejectsBadOffsets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w, txt := newTestWorkspace(t, "u1")

	for _, c := range [][2]int{{-1, 2}, {5, 5}, {7, 4}, {0, 13}} {
		_, err := w.Create(ctx, txt.ID, model.Draft{Type: "x", Start: c[0], End: c[1]})
		if !gateway.IsValidation(err) {
			t.Fatalf("expected validation error for %v; got %v", c, err)
		}
	}
	if _, err := w.Create(ctx, "missing", model.Draft{Type: "x", Start: 0, End: 1}); !gateway.IsValidation(err) {
		t.Fatalf("expected validation error for unknown text; got %v", err)
	}
}

func TestWorkspace_AgreedSpanIsLocked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w, txt := newTestWorkspace(t, "u1")

	s, err := w.Create(ctx, txt.ID, model.Draft{Type: "person", Start: 4, End: 7})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other, err := w.Create(ctx, txt.ID, model.Draft{Type: "verb", Start: 8, End: 11})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.AddReview(ctx, s.ID, "rev-1", model.DecisionAgree, nil); err != nil {
		t.Fatalf("AddReview: %v", err)
	}

	spans, err := w.Annotations(ctx, txt.ID)
	if err != nil {
		t.Fatalf("Annotations: %v", err)
	}
	if len(spans) != 2 || !spans[0].IsAgreed || len(spans[0].Reviews) != 1 || spans[1].IsAgreed {
		t.Fatalf("unexpected spans: %+v", spans)
	}

	typ := "animal"
	if _, err := w.Update(ctx, s.ID, model.Patch{Type: &typ}); !errors.Is(err, gateway.ErrLocked) {
		t.Fatalf("expected locked update; got %v", err)
	}
	if _, err := w.UpdateHeaderSpan(ctx, s.ID, 0, 3); !errors.Is(err, gateway.ErrLocked) {
		t.Fatalf("expected locked move; got %v", err)
	}
	if err := w.Remove(ctx, s.ID); !errors.Is(err, gateway.ErrLocked) {
		t.Fatalf("expected locked remove; got %v", err)
	}

	n, err := w.RemoveMine(ctx, txt.ID)
	if err != nil {
		t.Fatalf("RemoveMine: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 removed; got %d", n)
	}
	spans, _ = w.Annotations(ctx, txt.ID)
	if len(spans) != 1 || spans[0].ID != s.ID {
		t.Fatalf("expected only the agreed span to remain; got %+v", spans)
	}
	if _, err := w.Reviews(ctx, other.ID); !gateway.IsValidation(err) {
		t.Fatalf("expected removed span to be gone; got %v", err)
	}
}

func TestWorkspace_OwnershipIsEnforced(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w, txt := newTestWorkspace(t, "u1")

	s, err := w.Create(ctx, txt.ID, model.Draft{Type: "person", Start: 4, End: 7})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	intruder := NewWorkspace(w.store, "u2", false)
	if err := intruder.Remove(ctx, s.ID); !gateway.IsValidation(err) {
		t.Fatalf("expected permission error; got %v", err)
	}
	if n, err := intruder.RemoveMine(ctx, txt.ID); err != nil || n != 0 {
		t.Fatalf("expected nothing removed for another annotator; n=%d err=%v", n, err)
	}

	admin := NewWorkspace(w.store, "root", true)
	if err := admin.Remove(ctx, s.ID); err != nil {
		t.Fatalf("expected admin remove to succeed: %v", err)
	}
}

func TestWorkspace_Catalogs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w, _ := newTestWorkspace(t, "u1")

	cat, err := catalog.Parse(strings.NewReader(`{"title":"Errors","categories":[
		{"name":"Grammar","subcategories":[{"name":"Agreement","description":"subject/verb"}]}
	]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := w.SaveCatalog(ctx, "3", cat); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}
	got, err := w.FetchCatalog(ctx, "3")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	leaves := got.Leaves()
	if got.Title != "Errors" || len(leaves) != 1 || leaves[0].Name != "Agreement" {
		t.Fatalf("unexpected catalog: %+v", got)
	}
	if _, err := w.FetchCatalog(ctx, "9"); err == nil {
		t.Fatalf("expected missing catalog error")
	}
	types, err := w.CatalogTypes(ctx)
	if err != nil || len(types) != 1 || types[0] != "3" {
		t.Fatalf("unexpected catalog types: %v err=%v", types, err)
	}
}

func TestOpen_ExplicitDBPath(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "sub", "annot.sqlite")
	s, err := Open(p)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.sqlitePath() != p || s.Dir != filepath.Dir(p) {
		t.Fatalf("unexpected store: %+v", s)
	}
	w := NewWorkspace(s, "u1", false)
	if _, err := w.ImportText(context.Background(), model.Text{Title: "T", Content: "abc"}); err != nil {
		t.Fatalf("ImportText: %v", err)
	}
	texts, err := w.Texts(context.Background())
	if err != nil || len(texts) != 1 || !strings.HasPrefix(texts[0].ID, "text-") {
		t.Fatalf("unexpected texts: %+v err=%v", texts, err)
	}
}
