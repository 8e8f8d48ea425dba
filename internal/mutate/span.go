package mutate

import (
	"strings"

	"annotate-cli/internal/model"
	"annotate-cli/internal/perm"
	"annotate-cli/internal/spanutil"
)

type Result struct {
	Span    model.Span
	Changed bool
	Payload map[string]any
}

// ValidateDraft checks a draft before it is shown optimistically or sent anywhere.
func ValidateDraft(d model.Draft, textLen int) (model.Draft, error) {
	d.Type = strings.TrimSpace(d.Type)
	if d.Type == "" {
		return d, ValidationError{Field: "type", Msg: "choose an annotation type"}
	}
	lvl, err := model.ParseLevel(string(d.Level))
	if err != nil {
		return d, ValidationError{Field: "level", Msg: err.Error()}
	}
	d.Level = lvl
	if err := spanutil.ValidateOffsets(d.Start, d.End, textLen); err != nil {
		return d, ValidationError{Field: "offsets", Msg: err.Error()}
	}
	if d.Confidence == 0 {
		d.Confidence = 100
	}
	if d.Confidence < 0 || d.Confidence > 100 {
		return d, ValidationError{Field: "confidence", Msg: "must be between 0 and 100"}
	}
	return d, nil
}

// ApplyPatch returns s with the patch applied. Offsets are never touched.
// Callers are responsible for persisting the result.
func ApplyPatch(s model.Span, p model.Patch) (Result, error) {
	if !perm.CanEdit(s) {
		return Result{}, LockedError{SpanID: s.ID}
	}
	out := s.Clone()
	payload := map[string]any{}

	if p.Type != nil {
		t := strings.TrimSpace(*p.Type)
		if t == "" {
			return Result{}, ValidationError{Field: "type", Msg: "choose an annotation type"}
		}
		if t != out.Type {
			payload["type"] = map[string]any{"from": out.Type, "to": t}
			out.Type = t
		}
	}
	if p.Level != nil {
		lvl, err := model.ParseLevel(string(*p.Level))
		if err != nil {
			return Result{}, ValidationError{Field: "level", Msg: err.Error()}
		}
		if lvl != out.Level {
			payload["level"] = map[string]any{"from": string(out.Level), "to": string(lvl)}
			out.Level = lvl
		}
	}
	if p.Name != nil {
		prev := out.NameOrEmpty()
		next := strings.TrimSpace(*p.Name)
		if next != prev {
			payload["name"] = map[string]any{"from": prev, "to": next}
			if next == "" {
				out.Name = nil
			} else {
				out.Name = &next
			}
		}
	}

	if len(payload) == 0 {
		return Result{Span: out}, nil
	}
	return Result{Span: out, Changed: true, Payload: payload}, nil
}

// Reposition moves a span to [start, end) and refreshes its text snapshot from
// text. Only offsets and the snapshot change.
func Reposition(s model.Span, start, end int, text []rune) (Result, error) {
	if !perm.CanEdit(s) {
		return Result{}, LockedError{SpanID: s.ID}
	}
	if err := spanutil.ValidateOffsets(start, end, len(text)); err != nil {
		return Result{}, ValidationError{Field: "offsets", Msg: err.Error()}
	}
	out := s.Clone()
	if out.Start == start && out.End == end {
		return Result{Span: out}, nil
	}
	payload := map[string]any{
		"from": []int{out.Start, out.End},
		"to":   []int{start, end},
	}
	out.Start = start
	out.End = end
	out.Text = spanutil.Slice(text, start, end)
	return Result{Span: out, Changed: true, Payload: payload}, nil
}
