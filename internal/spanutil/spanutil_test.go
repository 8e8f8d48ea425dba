package spanutil

import (
	"errors"
	"testing"

	"annotate-cli/internal/model"
)

func TestValidateOffsets(t *testing.T) {
	cases := []struct {
		start, end, n int
		ok            bool
	}{
		{0, 1, 1, true},
		{4, 7, 12, true},
		{0, 12, 12, true},
		{-1, 2, 12, false},
		{3, 3, 12, false},
		{5, 4, 12, false},
		{12, 13, 12, false},
		{2, 13, 12, false},
		{0, 1, 0, false},
	}
	for _, tc := range cases {
		err := ValidateOffsets(tc.start, tc.end, tc.n)
		if tc.ok && err != nil {
			t.Fatalf("ValidateOffsets(%d,%d,%d): unexpected error: %v", tc.start, tc.end, tc.n, err)
		}
		if !tc.ok {
			var oe *OffsetError
			if !errors.As(err, &oe) {
				t.Fatalf("ValidateOffsets(%d,%d,%d): expected OffsetError, got %v", tc.start, tc.end, tc.n, err)
			}
		}
	}
}

func TestCheckInvariants_DuplicateIDs(t *testing.T) {
	spans := []model.Span{{ID: "a", Start: 0, End: 2}, {ID: "a", Start: 3, End: 4}}
	if err := CheckInvariants(spans, 10); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	spans[1].ID = "b"
	if err := CheckInvariants(spans, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteHelpers_DoNotAliasInput(t *testing.T) {
	in := []model.Span{{ID: "a", Type: "x", Start: 0, End: 1}, {ID: "b", Type: "y", Start: 1, End: 2}}

	replaced := Replace(in, "a", model.Span{ID: "a2", Type: "z", Start: 0, End: 1})
	if in[0].ID != "a" {
		t.Fatalf("Replace mutated input: %+v", in)
	}
	if replaced[0].ID != "a2" {
		t.Fatalf("expected replaced id a2, got %q", replaced[0].ID)
	}

	removed := Remove(in, "a")
	if len(in) != 2 || len(removed) != 1 || removed[0].ID != "b" {
		t.Fatalf("unexpected Remove result: in=%+v out=%+v", in, removed)
	}

	restored := InsertAt(removed, 0, in[0])
	if len(restored) != 2 || restored[0].ID != "a" || restored[1].ID != "b" {
		t.Fatalf("unexpected InsertAt result: %+v", restored)
	}
}

func TestOverlappingAndAt(t *testing.T) {
	spans := []model.Span{
		{ID: "a", Start: 0, End: 4},
		{ID: "b", Start: 4, End: 7},
		{ID: "c", Start: 2, End: 6},
	}
	got := Overlapping(spans, 4, 5, "")
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Fatalf("unexpected overlap: %+v", got)
	}
	if got := Overlapping(spans, 4, 5, "c"); len(got) != 1 {
		t.Fatalf("expected exclude to apply, got %+v", got)
	}
	if got := At(spans, 3); len(got) != 2 {
		t.Fatalf("expected 2 spans at offset 3, got %+v", got)
	}
	if Overlaps(spans[0], spans[1]) {
		t.Fatalf("adjacent spans must not overlap")
	}
}

func TestSlice_CodePoints(t *testing.T) {
	text := []rune("བཀྲ་ཤིས་བདེ་ལེགས།")
	if got := Slice(text, 0, 4); got != "བཀྲ་" {
		t.Fatalf("expected code-point slice, got %q", got)
	}
	if got := Slice(text, 10, 100); got == "" {
		t.Fatalf("expected clamped slice to be non-empty")
	}
	if got := Slice(text, 5, 5); got != "" {
		t.Fatalf("expected empty slice, got %q", got)
	}
}

func TestNextPrev_Wraps(t *testing.T) {
	spans := []model.Span{{ID: "b", Start: 10, End: 12}, {ID: "a", Start: 2, End: 3}}
	if s, ok := Next(spans, 2); !ok || s.ID != "b" {
		t.Fatalf("Next: got %+v ok=%v", s, ok)
	}
	if s, ok := Next(spans, 10); !ok || s.ID != "a" {
		t.Fatalf("Next should wrap: got %+v", s)
	}
	if s, ok := Prev(spans, 10); !ok || s.ID != "a" {
		t.Fatalf("Prev: got %+v", s)
	}
	if s, ok := Prev(spans, 0); !ok || s.ID != "b" {
		t.Fatalf("Prev should wrap: got %+v", s)
	}
	if _, ok := Next(nil, 0); ok {
		t.Fatalf("Next on empty must be false")
	}
}
