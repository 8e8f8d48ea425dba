package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"annotate-cli/internal/model"
)

// Catalog is an indexed category hierarchy. It is read-only once built.
type Catalog struct {
	Version     string           `json:"version,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Copyright   string           `json:"copyright,omitempty"`
	Categories  []model.Category `json:"categories"`

	byID  map[string]model.Category
	order []string
}

// Parse reads a hierarchical catalog document.
func Parse(r io.Reader) (*Catalog, error) {
	var doc Catalog
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if strings.TrimSpace(doc.Title) == "" && len(doc.Categories) == 0 {
		return nil, errors.New("parse catalog: empty document")
	}
	return New(doc.Title, doc.Categories, func(c *Catalog) {
		c.Version = doc.Version
		c.Description = doc.Description
		c.Copyright = doc.Copyright
	}), nil
}

// New indexes categories. Missing ids are derived from the position in the
// tree, missing parents from the nesting.
func New(title string, cats []model.Category, opts ...func(*Catalog)) *Catalog {
	c := &Catalog{Title: title, byID: map[string]model.Category{}}
	for _, opt := range opts {
		opt(c)
	}
	c.Categories = c.index(cats, "", "")
	return c
}

func (c *Catalog) index(cats []model.Category, parentID, path string) []model.Category {
	out := make([]model.Category, len(cats))
	for i, cat := range cats {
		p := strconv.Itoa(i + 1)
		if path != "" {
			p = path + "." + p
		}
		cat.ID = strings.TrimSpace(cat.ID)
		if cat.ID == "" {
			cat.ID = p
		}
		if _, dup := c.byID[cat.ID]; dup {
			cat.ID = cat.ID + "@" + p
		}
		if declared := c.resolveParent(cat.Parent); declared != "" {
			cat.Parent = declared
		} else {
			cat.Parent = parentID
		}
		c.byID[cat.ID] = cat
		c.order = append(c.order, cat.ID)
		cat.Subcategories = c.index(cat.Subcategories, cat.ID, p)
		c.byID[cat.ID] = cat
		out[i] = cat
	}
	return out
}

// resolveParent maps a declared parent (id or name) to an indexed id.
func (c *Catalog) resolveParent(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if _, ok := c.byID[ref]; ok {
		return ref
	}
	for _, id := range c.order {
		if strings.EqualFold(c.byID[id].Name, ref) {
			return id
		}
	}
	return ""
}

func (c *Catalog) Len() int { return len(c.order) }

func (c *Catalog) Find(id string) (model.Category, bool) {
	cat, ok := c.byID[id]
	return cat, ok
}

// FindByName resolves a span type back to its category. Leaves win over
// inner nodes with the same name.
func (c *Catalog) FindByName(name string) (model.Category, bool) {
	name = strings.TrimSpace(name)
	var fallback *model.Category
	for _, id := range c.order {
		cat := c.byID[id]
		if !strings.EqualFold(cat.Name, name) {
			continue
		}
		if cat.IsLeaf() {
			return cat, true
		}
		if fallback == nil {
			fallback = &cat
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return model.Category{}, false
}

// Leaves returns the selectable categories in document order.
func (c *Catalog) Leaves() []model.Category {
	var out []model.Category
	for _, id := range c.order {
		if cat := c.byID[id]; cat.IsLeaf() {
			out = append(out, cat)
		}
	}
	return out
}

// Breadcrumbs walks parent links from id up to the root and returns the path
// root first, ending with the category itself.
func (c *Catalog) Breadcrumbs(id string) []model.Category {
	var rev []model.Category
	seen := map[string]bool{}
	for id != "" && !seen[id] {
		seen[id] = true
		cat, ok := c.byID[id]
		if !ok {
			break
		}
		rev = append(rev, cat)
		id = cat.Parent
	}
	out := make([]model.Category, len(rev))
	for i := range rev {
		out[len(rev)-1-i] = rev[i]
	}
	return out
}

// Path renders breadcrumbs as "Root › Child › Leaf".
func (c *Catalog) Path(id string) string {
	crumbs := c.Breadcrumbs(id)
	names := make([]string, 0, len(crumbs))
	for _, cat := range crumbs {
		names = append(names, cat.Name)
	}
	return strings.Join(names, " › ")
}

// Search filters leaves by a case-insensitive substring over name,
// description, mnemonic and examples. An empty query returns every leaf.
func (c *Catalog) Search(q string) []model.Category {
	q = strings.ToLower(strings.TrimSpace(q))
	leaves := c.Leaves()
	if q == "" {
		return leaves
	}
	var out []model.Category
	for _, cat := range leaves {
		if matches(cat, q) {
			out = append(out, cat)
		}
	}
	return out
}

func matches(cat model.Category, q string) bool {
	for _, field := range []string{cat.Name, cat.Description, cat.Mnemonic} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, ex := range cat.Examples {
		if strings.Contains(strings.ToLower(ex), q) {
			return true
		}
	}
	return false
}

// Structural builds a flat catalog of structural span types (headers,
// sections, ...). Duplicates and blanks are dropped.
func Structural(types []string) *Catalog {
	seen := map[string]bool{}
	var cats []model.Category
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		cats = append(cats, model.Category{ID: t, Name: t})
	}
	return New("Structure", cats)
}
