package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"annotate-cli/internal/model"
)

// flexID accepts ids encoded as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// numericOrString encodes ids the way the backend expects them: integers when
// they look like integers.
func numericOrString(id string) any {
	if n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err == nil {
		return n
	}
	return id
}

type wireReview struct {
	ID         flexID    `json:"id"`
	Decision   string    `json:"decision"`
	Comment    *string   `json:"comment"`
	ReviewerID flexID    `json:"reviewer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (w wireReview) toModel() model.Review {
	return model.Review{
		ID:         string(w.ID),
		Decision:   model.Decision(strings.ToLower(w.Decision)),
		Comment:    w.Comment,
		ReviewerID: string(w.ReviewerID),
		CreatedAt:  w.CreatedAt,
	}
}

type wireAnnotation struct {
	ID             flexID       `json:"id"`
	TextID         flexID       `json:"text_id"`
	AnnotationType string       `json:"annotation_type"`
	StartPosition  int          `json:"start_position"`
	EndPosition    int          `json:"end_position"`
	SelectedText   *string      `json:"selected_text"`
	Name           *string      `json:"name"`
	Level          *string      `json:"level"`
	Confidence     *int         `json:"confidence"`
	AnnotatorID    flexID       `json:"annotator_id"`
	IsAgreed       *bool        `json:"is_agreed"`
	Reviews        []wireReview `json:"reviews"`
}

func (w wireAnnotation) toModel() model.Span {
	s := model.Span{
		ID:          string(w.ID),
		Type:        w.AnnotationType,
		Start:       w.StartPosition,
		End:         w.EndPosition,
		AnnotatorID: string(w.AnnotatorID),
		Confidence:  100,
		Reviews:     []model.Review{},
	}
	if w.SelectedText != nil {
		s.Text = *w.SelectedText
	}
	if w.Name != nil && strings.TrimSpace(*w.Name) != "" {
		n := *w.Name
		s.Name = &n
	}
	if w.Level != nil {
		// Unknown levels from older data render with the default class.
		if lvl, err := model.ParseLevel(*w.Level); err == nil {
			s.Level = lvl
		}
	}
	if w.Confidence != nil {
		s.Confidence = *w.Confidence
	}
	if w.IsAgreed != nil {
		s.IsAgreed = *w.IsAgreed
	}
	for _, r := range w.Reviews {
		s.Reviews = append(s.Reviews, r.toModel())
	}
	return s
}

func spansFromWire(ws []wireAnnotation) []model.Span {
	out := make([]model.Span, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toModel())
	}
	return out
}

type wireText struct {
	ID          flexID           `json:"id"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	Language    string           `json:"language"`
	Status      string           `json:"status"`
	Annotations []wireAnnotation `json:"annotations"`
}

func (w wireText) toModel() model.Text {
	return model.Text{
		ID:       string(w.ID),
		Title:    w.Title,
		Content:  w.Content,
		Language: w.Language,
		Status:   w.Status,
	}
}

func createBody(textID string, d model.Draft) map[string]any {
	body := map[string]any{
		"text_id":         numericOrString(textID),
		"annotation_type": d.Type,
		"start_position":  d.Start,
		"end_position":    d.End,
		"selected_text":   d.Text,
		"confidence":      d.Confidence,
	}
	if d.Level != model.LevelDefault {
		body["level"] = string(d.Level)
	}
	if d.Name != nil {
		body["name"] = *d.Name
	}
	if d.Confidence == 0 {
		body["confidence"] = 100
	}
	return body
}

func patchBody(p model.Patch) map[string]any {
	body := map[string]any{}
	if p.Type != nil {
		body["annotation_type"] = *p.Type
	}
	if p.Level != nil {
		if *p.Level == model.LevelDefault {
			body["level"] = nil
		} else {
			body["level"] = string(*p.Level)
		}
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			body["name"] = nil
		} else {
			body["name"] = *p.Name
		}
	}
	return body
}
