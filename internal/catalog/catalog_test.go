package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"annotate-cli/internal/model"
)

const mqm = `{
  "version": "1.0",
  "title": "MQM",
  "copyright": "CC-BY",
  "categories": [
    {"name": "Accuracy", "description": "Meaning is wrong", "subcategories": [
      {"id": "acc-mis", "name": "Mistranslation", "mnemonic": "MT", "examples": ["cat -> dog", {"src": "a"}]},
      {"name": "Omission", "description": "Content left out"}
    ]},
    {"id": "flu", "name": "Fluency", "subcategories": [
      {"name": "Grammar", "level": 2, "subcategories": [
        {"name": "Agreement", "parent": "Grammar"}
      ]},
      {"name": "Spelling", "notes": "tsheg errors count here"}
    ]},
    {"name": "Other"}
  ]
}`

func parse(t *testing.T) *Catalog {
	t.Helper()
	c, err := Parse(strings.NewReader(mqm))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return c
}

func names(cats []model.Category) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Name)
	}
	return out
}

func TestParse_IndexesTree(t *testing.T) {
	c := parse(t)
	if c.Title != "MQM" || c.Version != "1.0" || c.Copyright != "CC-BY" {
		t.Fatalf("unexpected header: %+v", c)
	}
	if c.Len() != 8 {
		t.Fatalf("expected 8 categories; got %d", c.Len())
	}
	mis, ok := c.Find("acc-mis")
	if !ok || mis.Parent != "1" {
		t.Fatalf("expected derived parent 1; got %+v", mis)
	}
	if len(mis.Examples) != 2 || mis.Examples[1] != `{"src": "a"}` {
		t.Fatalf("expected raw example kept; got %q", mis.Examples)
	}
}

func TestLeavesAndBreadcrumbs(t *testing.T) {
	c := parse(t)
	got := names(c.Leaves())
	want := []string{"Mistranslation", "Omission", "Agreement", "Spelling", "Other"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected leaves: %v", got)
	}

	agr, ok := c.FindByName("agreement")
	if !ok {
		t.Fatalf("expected Agreement by name")
	}
	if got := c.Path(agr.ID); got != "Fluency › Grammar › Agreement" {
		t.Fatalf("unexpected path: %q", got)
	}
	if got := c.Breadcrumbs("missing"); len(got) != 0 {
		t.Fatalf("expected no crumbs for unknown id; got %v", got)
	}
}

func TestSearch(t *testing.T) {
	c := parse(t)
	cases := map[string][]string{
		"":        {"Mistranslation", "Omission", "Agreement", "Spelling", "Other"},
		"MT":      {"Mistranslation"},
		"LEFT":    {"Omission"},
		"dog":     {"Mistranslation"},
		"fluency": nil,
		"zzz":     nil,
	}
	for q, want := range cases {
		got := names(c.Search(q))
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Fatalf("Search(%q) = %v; want %v", q, got, want)
		}
	}
}

func TestStructural(t *testing.T) {
	c := Structural([]string{"header", " section ", "", "Header"})
	if got := names(c.Leaves()); strings.Join(got, ",") != "header,section" {
		t.Fatalf("unexpected structural leaves: %v", got)
	}
}

func TestParse_Rejects(t *testing.T) {
	if _, err := Parse(strings.NewReader("{")); err == nil {
		t.Fatalf("expected syntax error")
	}
	if _, err := Parse(strings.NewReader("{}")); err == nil {
		t.Fatalf("expected empty document error")
	}
}

func TestCache_MemoisesSuccessOnly(t *testing.T) {
	calls := 0
	fail := true
	f := FetcherFunc(func(ctx context.Context, typeID string) (*Catalog, error) {
		calls++
		if fail {
			return nil, errors.New("offline")
		}
		return Structural([]string{typeID}), nil
	})
	cache, err := NewCache(f, 2)
	if err != nil {
		t.Fatalf("NewCache error: %v", err)
	}
	ctx := context.Background()

	if _, err := cache.Get(ctx, "a"); err == nil {
		t.Fatalf("expected fetch error")
	}
	fail = false
	first, err := cache.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	second, _ := cache.Get(ctx, "a")
	if first != second || calls != 2 {
		t.Fatalf("expected memoised catalog; calls=%d", calls)
	}

	cache.Invalidate("a")
	if _, err := cache.Get(ctx, "a"); err != nil || calls != 3 {
		t.Fatalf("expected refetch after invalidate; calls=%d err=%v", calls, err)
	}
}
