package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"annotate-cli/internal/gateway"
	"annotate-cli/internal/model"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization")}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.body)
		}
		reqs = append(reqs, rec)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/v1/", Token: "tok", AnnotatorID: "3"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return c, &reqs
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestCreate_SendsWireFieldsAndParsesNumericIDs(t *testing.T) {
	c, reqs := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"id": 42, "text_id": 7, "annotation_type": "person",
			"start_position": 4, "end_position": 7, "selected_text": "cat", "level": "MAJOR",
			"confidence": 100, "annotator_id": 3, "is_agreed": false, "created_at": "2026-01-01T00:00:00"}`)
	})

	name := "the cat"
	s, err := c.Create(context.Background(), "7", model.Draft{Type: "person", Level: model.LevelMajor, Name: &name, Text: "cat", Start: 4, End: 7})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if s.ID != "42" || s.AnnotatorID != "3" || s.Level != model.LevelMajor || s.Text != "cat" {
		t.Fatalf("unexpected span: %+v", s)
	}

	got := (*reqs)[0]
	if got.method != http.MethodPost || got.path != "/v1/annotations/" || got.auth != "Bearer tok" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.body["text_id"] != float64(7) || got.body["annotation_type"] != "person" ||
		got.body["start_position"] != float64(4) || got.body["name"] != "the cat" || got.body["confidence"] != float64(100) {
		t.Fatalf("unexpected body: %+v", got.body)
	}
}

func TestUpdate_PatchOnlySendsChangedFields(t *testing.T) {
	c, reqs := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id": "9", "annotation_type": "pet", "start_position": 0, "end_position": 3}`)
	})
	typ := "pet"
	lvl := model.LevelDefault
	if _, err := c.Update(context.Background(), "9", model.Patch{Type: &typ, Level: &lvl}); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	body := (*reqs)[0].body
	if len(body) != 2 || body["annotation_type"] != "pet" {
		t.Fatalf("unexpected patch body: %+v", body)
	}
	if v, ok := body["level"]; !ok || v != nil {
		t.Fatalf("expected level cleared with null; got %+v", body)
	}
	if (*reqs)[0].method != http.MethodPut || (*reqs)[0].path != "/v1/annotations/9" {
		t.Fatalf("unexpected request: %+v", (*reqs)[0])
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		check  func(error) bool
		what   string
	}{
		{400, `{"detail": "Cannot modify annotation that has been agreed upon by a reviewer"}`, func(err error) bool { return errors.Is(err, gateway.ErrLocked) }, "locked"},
		{404, `{"detail": "Annotation not found"}`, gateway.IsValidation, "validation"},
		{422, `{"detail": [{"loc": ["body", "level"], "msg": "Level must be one of: minor, major, critical"}]}`, func(err error) bool {
			return gateway.IsValidation(err) && strings.Contains(err.Error(), "level: Level must be one of")
		}, "validation detail"},
		{502, `bad gateway`, gateway.IsNetwork, "network"},
	}
	for _, tc := range cases {
		c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, tc.status, tc.body)
		})
		err := c.Remove(context.Background(), "1")
		if err == nil || !tc.check(err) {
			t.Fatalf("status %d: expected %s error; got %v", tc.status, tc.what, err)
		}
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	c, err := New(Config{BaseURL: "http://127.0.0.1:1/v1"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := c.Annotations(context.Background(), "1"); !gateway.IsNetwork(err) {
		t.Fatalf("expected network error; got %v", err)
	}
}

func TestTextWithAnnotationsAndCatalog(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/texts/7/with-annotations":
			writeJSON(w, http.StatusOK, `{"id": 7, "title": "T", "content": "The cat sat.", "status": "annotated",
				"annotations": [{"id": 1, "annotation_type": "person", "start_position": 4, "end_position": 7,
				"selected_text": "cat", "is_agreed": true, "level": "bogus"}]}`)
		case "/v1/annotation-lists/type/mqm":
			writeJSON(w, http.StatusOK, `{"title": "MQM", "categories": [{"name": "Accuracy", "subcategories": [{"name": "Omission"}]}]}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"detail": "nope"}`)
		}
	})
	ctx := context.Background()

	text, spans, err := c.TextWithAnnotations(ctx, "7")
	if err != nil {
		t.Fatalf("TextWithAnnotations error: %v", err)
	}
	if text.ID != "7" || text.Content != "The cat sat." || len(spans) != 1 {
		t.Fatalf("unexpected text: %+v %+v", text, spans)
	}
	if !spans[0].IsAgreed || spans[0].Level != model.LevelDefault || spans[0].Confidence != 100 {
		t.Fatalf("unexpected span: %+v", spans[0])
	}

	cat, err := c.FetchCatalog(ctx, "mqm")
	if err != nil {
		t.Fatalf("FetchCatalog error: %v", err)
	}
	if leaves := cat.Leaves(); len(leaves) != 1 || leaves[0].Name != "Omission" {
		t.Fatalf("unexpected leaves: %+v", leaves)
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "/v1"} {
		if _, err := New(Config{BaseURL: u}); err == nil {
			t.Fatalf("expected error for %q", u)
		}
	}
}

func TestRemoveMine_KeepsAgreedAndForeignSpans(t *testing.T) {
	var bulk bool
	c, reqs := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/annotations/text/7":
			writeJSON(w, http.StatusOK, `[
				{"id": 1, "annotation_type": "a", "start_position": 0, "end_position": 3, "annotator_id": 3},
				{"id": 2, "annotation_type": "b", "start_position": 4, "end_position": 7, "annotator_id": 5},
				{"id": 3, "annotation_type": "c", "start_position": 8, "end_position": 11, "annotator_id": 3, "is_agreed": true}]`)
		case r.Method == http.MethodDelete && r.URL.Path == "/v1/annotations/text/7/my-annotations":
			bulk = true
			writeJSON(w, http.StatusOK, `{"deleted_count": 2}`)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusNotFound, `{"detail": "nope"}`)
		}
	})

	n, err := c.RemoveMine(context.Background(), "7")
	if err != nil || n != 1 {
		t.Fatalf("RemoveMine: n=%d err=%v", n, err)
	}
	if bulk {
		t.Fatalf("expected no bulk my-annotations delete")
	}
	var deleted []string
	for _, r := range *reqs {
		if r.method == http.MethodDelete {
			deleted = append(deleted, r.path)
		}
	}
	if len(deleted) != 1 || deleted[0] != "/v1/annotations/1" {
		t.Fatalf("expected only span 1 deleted; got %v", deleted)
	}
}

func TestRemoveMine_NeedsAnnotator(t *testing.T) {
	c, err := New(Config{BaseURL: "http://127.0.0.1:1/v1"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := c.RemoveMine(context.Background(), "7"); !gateway.IsValidation(err) {
		t.Fatalf("expected validation error; got %v", err)
	}
}
