package perm

import (
	"strings"

	"annotate-cli/internal/model"
)

// CanEdit reports whether a span's type/level/name may be changed.
// Agreed spans are frozen once a reviewer accepts them.
func CanEdit(s model.Span) bool {
	return !s.IsAgreed
}

// CanDelete mirrors CanEdit; the two are kept separate so call sites read as
// the action they guard.
func CanDelete(s model.Span) bool {
	return !s.IsAgreed
}

// OwnedBy reports whether annotatorID created the span. Empty ids never match.
func OwnedBy(s model.Span, annotatorID string) bool {
	annotatorID = strings.TrimSpace(annotatorID)
	return annotatorID != "" && strings.TrimSpace(s.AnnotatorID) == annotatorID
}

// CanModifyAs applies the backend ownership rule on top of the lock:
// - agreed spans are never modifiable;
// - the creator can modify;
// - admins can modify anything not agreed;
// - spans without a recorded creator are open to everyone.
func CanModifyAs(s model.Span, actorID string, admin bool) bool {
	if s.IsAgreed {
		return false
	}
	if admin || strings.TrimSpace(s.AnnotatorID) == "" {
		return true
	}
	return OwnedBy(s, actorID)
}

// Affordances is the set of actions a popup may render for a span.
type Affordances struct {
	Edit     bool
	Delete   bool
	Move     bool
	ReadOnly bool
}

// For returns the affordances of s. Move is only offered for structural spans
// (header/section markers), which are the only ones repositioned after creation.
func For(s model.Span, structural bool) Affordances {
	if s.IsAgreed {
		return Affordances{ReadOnly: true}
	}
	return Affordances{
		Edit:   true,
		Delete: true,
		Move:   structural,
	}
}

// Any reports whether at least one mutating action is available.
func (a Affordances) Any() bool {
	return a.Edit || a.Delete || a.Move
}
