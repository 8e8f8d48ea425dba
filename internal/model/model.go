package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Level string

const (
	LevelDefault  Level = ""
	LevelMinor    Level = "minor"
	LevelMajor    Level = "major"
	LevelCritical Level = "critical"
)

// Levels lists the selectable levels in picker order. LevelDefault is not included.
var Levels = []Level{LevelMinor, LevelMajor, LevelCritical}

// ParseLevel normalizes a user/server supplied level. Empty input is LevelDefault.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch Level(s) {
	case LevelDefault, LevelMinor, LevelMajor, LevelCritical:
		return Level(s), nil
	default:
		return LevelDefault, fmt.Errorf("level must be one of: minor, major, critical (got %q)", s)
	}
}

type Decision string

const (
	DecisionAgree    Decision = "agree"
	DecisionDisagree Decision = "disagree"
)

type Review struct {
	ID         string    `json:"id"`
	Decision   Decision  `json:"decision"`
	Comment    *string   `json:"comment,omitempty"`
	ReviewerID string    `json:"reviewer_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Span is one annotation: a labeled half-open range [Start, End) of code points
// over an immutable text.
type Span struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Level       Level    `json:"level,omitempty"`
	Text        string   `json:"text"`
	Start       int      `json:"start"`
	End         int      `json:"end"`
	Name        *string  `json:"name,omitempty"`
	IsAgreed    bool     `json:"is_agreed"`
	Reviews     []Review `json:"reviews"`
	AnnotatorID string   `json:"annotator_id,omitempty"`
	Confidence  int      `json:"confidence,omitempty"`
}

func (s Span) Len() int { return s.End - s.Start }

// NameOrEmpty returns the note attached to the span, if any.
func (s Span) NameOrEmpty() string {
	if s.Name == nil {
		return ""
	}
	return *s.Name
}

// Clone returns a copy that shares no slices or pointers with s.
func (s Span) Clone() Span {
	out := s
	if s.Name != nil {
		n := *s.Name
		out.Name = &n
	}
	if s.Reviews != nil {
		out.Reviews = make([]Review, len(s.Reviews))
		copy(out.Reviews, s.Reviews)
	}
	return out
}

// Selection is the live text selection before it becomes a span.
type Selection struct {
	Text       string `json:"text"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

func (s Selection) Empty() bool { return s.EndIndex <= s.StartIndex }

func (s Selection) Contains(offset int) bool {
	return offset >= s.StartIndex && offset < s.EndIndex
}

type Text struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Category is one node of the hierarchical annotation taxonomy.
type Category struct {
	ID            string     `json:"id,omitempty"`
	Name          string     `json:"name"`
	Mnemonic      string     `json:"mnemonic,omitempty"`
	Description   string     `json:"description,omitempty"`
	Level         int        `json:"level,omitempty"`
	Parent        string     `json:"parent,omitempty"`
	Examples      Examples   `json:"examples,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Subcategories []Category `json:"subcategories,omitempty"`
}

func (c Category) IsLeaf() bool { return len(c.Subcategories) == 0 }

// Examples accepts any JSON values and keeps their textual form; catalogs in the
// wild mix plain strings with small objects.
type Examples []string

func (e *Examples) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Examples, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(r))
	}
	*e = out
	return nil
}

// Draft is a span about to be created; the server assigns the id.
type Draft struct {
	Type       string  `json:"type"`
	Level      Level   `json:"level,omitempty"`
	Name       *string `json:"name,omitempty"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence int     `json:"confidence,omitempty"`
}

// Patch changes descriptive fields only. Nil fields are left as they are; a Name
// pointing at "" clears the note.
type Patch struct {
	Type  *string `json:"type,omitempty"`
	Level *Level  `json:"level,omitempty"`
	Name  *string `json:"name,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Type == nil && p.Level == nil && p.Name == nil
}
