package spanutil

import (
	"fmt"
	"sort"
	"strings"

	"annotate-cli/internal/model"
)

// OffsetError reports a span range that violates 0 <= start < end <= textLen.
type OffsetError struct {
	Start   int
	End     int
	TextLen int
}

func (e *OffsetError) Error() string {
	switch {
	case e.Start < 0 || e.End < 0:
		return "positions cannot be negative"
	case e.Start >= e.End:
		return "start position must be less than end position"
	case e.Start >= e.TextLen:
		return fmt.Sprintf("start position (%d) exceeds text length (%d)", e.Start, e.TextLen)
	default:
		return fmt.Sprintf("end position (%d) exceeds text length (%d)", e.End, e.TextLen)
	}
}

func ValidateOffsets(start, end, textLen int) error {
	if start < 0 || end < 0 || start >= end || start >= textLen || end > textLen {
		return &OffsetError{Start: start, End: end, TextLen: textLen}
	}
	return nil
}

// CheckInvariants verifies every span's offsets and that ids are unique.
func CheckInvariants(spans []model.Span, textLen int) error {
	seen := make(map[string]struct{}, len(spans))
	for _, s := range spans {
		if err := ValidateOffsets(s.Start, s.End, textLen); err != nil {
			return fmt.Errorf("span %s: %w", s.ID, err)
		}
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("duplicate span id %s", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

func FindByID(spans []model.Span, id string) (model.Span, int, bool) {
	for i := range spans {
		if spans[i].ID == id {
			return spans[i], i, true
		}
	}
	return model.Span{}, -1, false
}

func ByAnnotator(spans []model.Span, annotatorID string) []model.Span {
	annotatorID = strings.TrimSpace(annotatorID)
	var out []model.Span
	for _, s := range spans {
		if annotatorID != "" && s.AnnotatorID == annotatorID {
			out = append(out, s)
		}
	}
	return out
}

func Overlaps(a, b model.Span) bool {
	return a.Start < b.End && b.Start < a.End
}

// Overlapping returns the spans intersecting [start, end), skipping excludeID.
func Overlapping(spans []model.Span, start, end int, excludeID string) []model.Span {
	var out []model.Span
	for _, s := range spans {
		if s.ID == excludeID {
			continue
		}
		if s.Start < end && start < s.End {
			out = append(out, s)
		}
	}
	return out
}

// At returns the spans covering offset, in collection order.
func At(spans []model.Span, offset int) []model.Span {
	return Overlapping(spans, offset, offset+1, "")
}

func IsOptimistic(id, prefix string) bool {
	return prefix != "" && strings.HasPrefix(id, prefix)
}

// Slice returns the code-point substring [start, end) of text, clamped to bounds.
func Slice(text []rune, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return ""
	}
	return string(text[start:end])
}

// The write helpers below never touch their input slice; the span model is
// replaced wholesale so renderers never observe a half-applied change.

func Insert(spans []model.Span, s model.Span) []model.Span {
	out := make([]model.Span, 0, len(spans)+1)
	out = append(out, spans...)
	return append(out, s)
}

// InsertAt puts s at index i (clamped), used to restore a deleted span where it was.
func InsertAt(spans []model.Span, i int, s model.Span) []model.Span {
	if i < 0 {
		i = 0
	}
	if i > len(spans) {
		i = len(spans)
	}
	out := make([]model.Span, 0, len(spans)+1)
	out = append(out, spans[:i]...)
	out = append(out, s)
	return append(out, spans[i:]...)
}

// Replace swaps the span with id for s. The collection is returned unchanged
// (but copied) when id is absent.
func Replace(spans []model.Span, id string, s model.Span) []model.Span {
	out := make([]model.Span, len(spans))
	copy(out, spans)
	for i := range out {
		if out[i].ID == id {
			out[i] = s
			break
		}
	}
	return out
}

func Remove(spans []model.Span, id string) []model.Span {
	out := make([]model.Span, 0, len(spans))
	for _, s := range spans {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

// SortByPosition orders by start, then longer spans first, then id.
func SortByPosition(spans []model.Span) []model.Span {
	out := make([]model.Span, len(spans))
	copy(out, spans)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		if out[i].End != out[j].End {
			return out[i].End > out[j].End
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Next returns the first span (by position) starting after offset, wrapping around.
func Next(spans []model.Span, offset int) (model.Span, bool) {
	sorted := SortByPosition(spans)
	if len(sorted) == 0 {
		return model.Span{}, false
	}
	for _, s := range sorted {
		if s.Start > offset {
			return s, true
		}
	}
	return sorted[0], true
}

// Prev returns the last span (by position) starting before offset, wrapping around.
func Prev(spans []model.Span, offset int) (model.Span, bool) {
	sorted := SortByPosition(spans)
	if len(sorted) == 0 {
		return model.Span{}, false
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Start < offset {
			return sorted[i], true
		}
	}
	return sorted[len(sorted)-1], true
}
