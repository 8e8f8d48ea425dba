package gateway

import (
	"context"
	"errors"
	"testing"

	"annotate-cli/internal/model"
)

func TestExecute_DispatchesByKind(t *testing.T) {
	r := NewRecorder()
	r.NextID = "42"
	ctx := context.Background()

	res := Execute(ctx, r, Op{Kind: KindCreate, TextID: "t1", TempID: "optimistic-x", Draft: model.Draft{Type: "person", Start: 4, End: 7, Text: "cat"}})
	if !res.OK() || res.Span.ID != "42" || res.Span.Type != "person" {
		t.Fatalf("unexpected create result: %+v", res)
	}
	if res.Op.Key() != "optimistic-x" {
		t.Fatalf("expected create to be keyed by temp id; got %q", res.Op.Key())
	}

	lvl := model.LevelCritical
	res = Execute(ctx, r, Op{Kind: KindUpdate, SpanID: "42", Patch: model.Patch{Level: &lvl}})
	if !res.OK() || res.Span.Level != model.LevelCritical || res.Span.Type != "person" {
		t.Fatalf("unexpected update result: %+v", res)
	}

	res = Execute(ctx, r, Op{Kind: KindUpdateHeaderSpan, SpanID: "42", Start: 0, End: 3})
	if !res.OK() || res.Span.Start != 0 || res.Span.End != 3 {
		t.Fatalf("unexpected move result: %+v", res)
	}

	r.Removed = 3
	res = Execute(ctx, r, Op{Kind: KindRemoveMine, TextID: "t1"})
	if !res.OK() || res.Removed != 3 {
		t.Fatalf("unexpected remove-mine result: %+v", res)
	}

	res = Execute(ctx, r, Op{Kind: KindRemoveMine, TextID: "t1", SpanID: "undo", SpanIDs: []string{"a", "b"}})
	if !res.OK() || res.Removed != 2 || len(res.RemovedIDs) != 2 {
		t.Fatalf("unexpected remove-mine by ids result: %+v", res)
	}
	if got := r.CallsFor("b"); len(got) != 1 || got[0].Kind != KindRemove {
		t.Fatalf("expected a remove call for b; got %#v", got)
	}

	if got := len(r.CallsFor("42")); got != 2 {
		t.Fatalf("expected 2 calls for 42; got %d", got)
	}
}

func TestExecute_SurfacesErrors(t *testing.T) {
	r := NewRecorder()
	r.Fail[KindRemove] = &NetworkError{Op: "remove", Err: errors.New("connection refused")}

	res := Execute(context.Background(), r, Op{Kind: KindRemove, SpanID: "1"})
	if res.OK() || !IsNetwork(res.Err) {
		t.Fatalf("expected network error; got %v", res.Err)
	}
	if IsValidation(res.Err) {
		t.Fatalf("network error must not be a validation error")
	}

	res = Execute(context.Background(), r, Op{Kind: "bogus"})
	if !IsValidation(res.Err) {
		t.Fatalf("expected validation error for unknown kind; got %v", res.Err)
	}
}

func TestRemoveEach_StopsAtFirstFailure(t *testing.T) {
	r := NewRecorder()
	r.FailSpan["b"] = &ValidationError{Status: 404, Detail: "gone"}

	done, err := RemoveEach(context.Background(), r, []string{"a", "b", "c"})
	if !IsValidation(err) {
		t.Fatalf("expected validation error; got %v", err)
	}
	if len(done) != 1 || done[0] != "a" {
		t.Fatalf("expected only a removed; got %v", done)
	}
	if got := r.CallsFor("c"); len(got) != 0 {
		t.Fatalf("expected no call after the failure; got %#v", got)
	}
}
