package gateway

import (
	"context"
	"strconv"
	"sync"

	"annotate-cli/internal/model"
)

// Call records one invocation of a Recorder.
type Call struct {
	Kind   Kind
	TextID string
	SpanID string
	Draft  model.Draft
	Patch  model.Patch
}

// Recorder is an in-memory Gateway that records calls. Errors can be forced per
// kind or per span id; created spans get sequential ids unless NextID is set.
type Recorder struct {
	mu       sync.Mutex
	Calls    []Call
	Fail     map[Kind]error
	FailSpan map[string]error
	NextID  string
	Removed int
	seq     int
	spans   map[string]model.Span
}

func NewRecorder() *Recorder {
	return &Recorder{Fail: map[Kind]error{}, FailSpan: map[string]error{}, spans: map[string]model.Span{}}
}

// Seed makes spans known to Update/UpdateHeaderSpan.
func (r *Recorder) Seed(spans ...model.Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range spans {
		r.spans[s.ID] = s
	}
}

// CallsFor returns the calls that targeted spanID.
func (r *Recorder) CallsFor(spanID string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.Calls {
		if c.SpanID == spanID {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, c)
	if err := r.FailSpan[c.SpanID]; err != nil && c.SpanID != "" {
		return err
	}
	return r.Fail[c.Kind]
}

func (r *Recorder) Create(_ context.Context, textID string, d model.Draft) (model.Span, error) {
	if err := r.record(Call{Kind: KindCreate, TextID: textID, Draft: d}); err != nil {
		return model.Span{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.NextID
	r.NextID = ""
	if id == "" {
		r.seq++
		id = strconv.Itoa(r.seq)
	}
	s := model.Span{
		ID:         id,
		Type:       d.Type,
		Level:      d.Level,
		Text:       d.Text,
		Start:      d.Start,
		End:        d.End,
		Name:       d.Name,
		Confidence: d.Confidence,
		Reviews:    []model.Review{},
	}
	r.spans[id] = s
	return s, nil
}

func (r *Recorder) Update(_ context.Context, spanID string, p model.Patch) (model.Span, error) {
	if err := r.record(Call{Kind: KindUpdate, SpanID: spanID, Patch: p}); err != nil {
		return model.Span{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.spans[spanID]
	s.ID = spanID
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Level != nil {
		s.Level = *p.Level
	}
	if p.Name != nil {
		if *p.Name == "" {
			s.Name = nil
		} else {
			n := *p.Name
			s.Name = &n
		}
	}
	r.spans[spanID] = s
	return s, nil
}

func (r *Recorder) UpdateHeaderSpan(_ context.Context, spanID string, start, end int) (model.Span, error) {
	if err := r.record(Call{Kind: KindUpdateHeaderSpan, SpanID: spanID}); err != nil {
		return model.Span{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.spans[spanID]
	s.ID = spanID
	s.Start, s.End = start, end
	r.spans[spanID] = s
	return s, nil
}

func (r *Recorder) Remove(_ context.Context, spanID string) error {
	if err := r.record(Call{Kind: KindRemove, SpanID: spanID}); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spans, spanID)
	return nil
}

func (r *Recorder) RemoveMine(_ context.Context, textID string) (int, error) {
	if err := r.record(Call{Kind: KindRemoveMine, TextID: textID}); err != nil {
		return 0, err
	}
	return r.Removed, nil
}
