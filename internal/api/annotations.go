package api

import (
	"context"
	"fmt"
	"net/http"

	"annotate-cli/internal/catalog"
	"annotate-cli/internal/gateway"
	"annotate-cli/internal/model"
	"annotate-cli/internal/perm"
)

func (c *Client) Create(ctx context.Context, textID string, d model.Draft) (model.Span, error) {
	var w wireAnnotation
	if err := c.do(ctx, http.MethodPost, "/annotations/", createBody(textID, d), &w); err != nil {
		return model.Span{}, err
	}
	return w.toModel(), nil
}

func (c *Client) Update(ctx context.Context, spanID string, p model.Patch) (model.Span, error) {
	var w wireAnnotation
	if err := c.do(ctx, http.MethodPut, "/annotations/"+pathID(spanID), patchBody(p), &w); err != nil {
		return model.Span{}, err
	}
	return w.toModel(), nil
}

func (c *Client) UpdateHeaderSpan(ctx context.Context, spanID string, start, end int) (model.Span, error) {
	body := map[string]any{"start_position": start, "end_position": end}
	var w wireAnnotation
	if err := c.do(ctx, http.MethodPut, "/annotations/"+pathID(spanID), body, &w); err != nil {
		return model.Span{}, err
	}
	return w.toModel(), nil
}

func (c *Client) Remove(ctx context.Context, spanID string) error {
	return c.do(ctx, http.MethodDelete, "/annotations/"+pathID(spanID), nil, nil)
}

// RemoveMine deletes the configured annotator's unlocked spans on a text, one
// DELETE per span. The backend's my-annotations route also drops agreed
// spans, so it is not used.
func (c *Client) RemoveMine(ctx context.Context, textID string) (int, error) {
	if c.annotatorID == "" {
		return 0, &gateway.ValidationError{Detail: "no annotator id configured"}
	}
	spans, err := c.Annotations(ctx, textID)
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, s := range spans {
		if perm.OwnedBy(s, c.annotatorID) && perm.CanDelete(s) {
			ids = append(ids, s.ID)
		}
	}
	done, err := gateway.RemoveEach(ctx, c, ids)
	c.log.Info("removed own annotations", "text_id", textID, "deleted", len(done), "kept_locked", len(spans)-len(ids))
	return len(done), err
}

// Annotations lists the spans of a text.
func (c *Client) Annotations(ctx context.Context, textID string) ([]model.Span, error) {
	var ws []wireAnnotation
	if err := c.do(ctx, http.MethodGet, "/annotations/text/"+pathID(textID), nil, &ws); err != nil {
		return nil, err
	}
	return spansFromWire(ws), nil
}

// TextWithAnnotations loads a text and its spans in one call.
func (c *Client) TextWithAnnotations(ctx context.Context, textID string) (model.Text, []model.Span, error) {
	var w wireText
	if err := c.do(ctx, http.MethodGet, "/texts/"+pathID(textID)+"/with-annotations", nil, &w); err != nil {
		return model.Text{}, nil, err
	}
	return w.toModel(), spansFromWire(w.Annotations), nil
}

type PositionCheck struct {
	Valid        bool   `json:"valid"`
	Error        string `json:"error,omitempty"`
	SelectedText string `json:"selected_text,omitempty"`
}

// ValidatePositions asks the backend whether [start, end) fits the stored text.
func (c *Client) ValidatePositions(ctx context.Context, textID string, start, end int) (PositionCheck, error) {
	body := map[string]any{
		"text_id":        numericOrString(textID),
		"start_position": start,
		"end_position":   end,
	}
	var out PositionCheck
	if err := c.do(ctx, http.MethodPost, "/annotations/validate-positions", body, &out); err != nil {
		return PositionCheck{}, err
	}
	return out, nil
}

// Reviews lists review decisions for one span.
func (c *Client) Reviews(ctx context.Context, spanID string) ([]model.Review, error) {
	var ws []wireReview
	if err := c.do(ctx, http.MethodGet, "/reviews/annotation/"+pathID(spanID), nil, &ws); err != nil {
		return nil, err
	}
	out := make([]model.Review, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toModel())
	}
	return out, nil
}

// FetchCatalog loads the category hierarchy of an annotation type.
func (c *Client) FetchCatalog(ctx context.Context, typeID string) (*catalog.Catalog, error) {
	var doc struct {
		Version     string           `json:"version"`
		Title       string           `json:"title"`
		Description string           `json:"description"`
		Copyright   string           `json:"copyright"`
		Categories  []model.Category `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/annotation-lists/type/"+pathID(typeID), nil, &doc); err != nil {
		return nil, fmt.Errorf("fetch catalog %s: %w", typeID, err)
	}
	return catalog.New(doc.Title, doc.Categories, func(cat *catalog.Catalog) {
		cat.Version = doc.Version
		cat.Description = doc.Description
		cat.Copyright = doc.Copyright
	}), nil
}
