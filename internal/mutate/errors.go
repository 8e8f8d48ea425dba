package mutate

import "fmt"

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// LockedError is returned for any attempt to change an agreed span.
type LockedError struct {
	SpanID string
}

func (e LockedError) Error() string {
	return "cannot modify annotation that has been agreed upon by a reviewer"
}

// ValidationError is a client-side rejection; nothing should reach the gateway.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}
