package gateway

import (
	"context"
	"errors"
	"fmt"

	"annotate-cli/internal/model"
)

// Gateway is the boundary to whatever persists spans. Implementations do not
// retry; transports own timeouts.
type Gateway interface {
	Create(ctx context.Context, textID string, d model.Draft) (model.Span, error)
	Update(ctx context.Context, spanID string, p model.Patch) (model.Span, error)
	UpdateHeaderSpan(ctx context.Context, spanID string, start, end int) (model.Span, error)
	Remove(ctx context.Context, spanID string) error
	RemoveMine(ctx context.Context, textID string) (int, error)
}

// ErrLocked is returned when the backend refuses to touch an agreed span.
var ErrLocked = errors.New("annotation has been agreed upon by a reviewer")

// ValidationError is a request the backend understood and refused.
type ValidationError struct {
	Status int
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Status == 0 {
		return e.Detail
	}
	return fmt.Sprintf("rejected (%d): %s", e.Status, e.Detail)
}

// NetworkError is a transport failure or server-side fault.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s: server error %d: %v", e.Op, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: server error %d", e.Op, e.Status)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
