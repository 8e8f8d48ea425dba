package gateway

import (
	"context"

	"annotate-cli/internal/model"
)

type Kind string

const (
	KindCreate           Kind = "create"
	KindUpdate           Kind = "update"
	KindUpdateHeaderSpan Kind = "update_header_span"
	KindRemove           Kind = "remove"
	KindRemoveMine       Kind = "remove_mine"
)

// Op is one gateway call requested by the state machine. Hosts run it off the
// event loop and feed the Result back.
type Op struct {
	Kind   Kind
	TextID string
	// SpanID is the persisted target for update/remove. Remove-mine ops carry a
	// tracking key here instead.
	SpanID string
	// SpanIDs are the exact spans a remove-mine op deletes. Empty means the
	// gateway's own RemoveMine decides.
	SpanIDs []string
	// TempID is the optimistic id a create is tracked under.
	TempID string
	Draft  model.Draft
	Patch  model.Patch
	Start  int
	End    int
	// PreserveScroll asks the host to keep the first visible offset across the
	// re-render that follows the optimistic update and the result.
	PreserveScroll bool
}

// Key is the span id the op is tracked under while in flight.
func (o Op) Key() string {
	if o.Kind == KindCreate {
		return o.TempID
	}
	return o.SpanID
}

type Result struct {
	Op      Op
	Span    model.Span
	Removed int
	// RemovedIDs lists what a remove-mine op deleted before it stopped.
	RemovedIDs []string
	Err        error
}

func (r Result) OK() bool { return r.Err == nil }

// Execute runs op against g.
func Execute(ctx context.Context, g Gateway, op Op) Result {
	res := Result{Op: op}
	switch op.Kind {
	case KindCreate:
		res.Span, res.Err = g.Create(ctx, op.TextID, op.Draft)
	case KindUpdate:
		res.Span, res.Err = g.Update(ctx, op.SpanID, op.Patch)
	case KindUpdateHeaderSpan:
		res.Span, res.Err = g.UpdateHeaderSpan(ctx, op.SpanID, op.Start, op.End)
	case KindRemove:
		res.Err = g.Remove(ctx, op.SpanID)
	case KindRemoveMine:
		if len(op.SpanIDs) == 0 {
			res.Removed, res.Err = g.RemoveMine(ctx, op.TextID)
			break
		}
		res.RemovedIDs, res.Err = RemoveEach(ctx, g, op.SpanIDs)
		res.Removed = len(res.RemovedIDs)
	default:
		res.Err = &ValidationError{Detail: "unknown operation " + string(op.Kind)}
	}
	return res
}

// RemoveEach deletes ids one at a time and stops at the first failure. It
// returns the ids that were deleted.
func RemoveEach(ctx context.Context, g Gateway, ids []string) ([]string, error) {
	done := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := g.Remove(ctx, id); err != nil {
			return done, err
		}
		done = append(done, id)
	}
	return done, nil
}
