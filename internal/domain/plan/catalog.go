package plan

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-yaml"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Item is one checkbox within a checklist category.
type Item struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// Category is a named group of checklist items.
type Category struct {
	Key   string `json:"key" yaml:"key"`
	Title string `json:"title" yaml:"title"`
	Items []Item `json:"items" yaml:"items"`
}

// Step is one phase of the certification implementation.
type Step struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	Description   string `json:"description" yaml:"description"`
	EstimatedTime string `json:"estimated_time" yaml:"estimated_time"`
	Deliverables  string `json:"deliverables" yaml:"deliverables"`
}

// Label returns the numbered heading shown for the step, e.g. "1. Samla ditt team".
func (s Step) Label() string {
	return fmt.Sprintf("%s. %s", s.ID, s.Title)
}

// Catalog holds the fixed categories and steps.
type Catalog struct {
	Categories []Category `json:"categories" yaml:"categories"`
	Steps      []Step     `json:"steps" yaml:"steps"`
}

var catalog = mustParseCatalog(catalogYAML)

func parseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(c.Categories) == 0 || len(c.Steps) == 0 {
		return nil, fmt.Errorf("catalog must define categories and steps")
	}

	seen := make(map[string]bool)
	for _, cat := range c.Categories {
		if cat.Key == "" || seen[cat.Key] {
			return nil, fmt.Errorf("invalid or duplicate category key %q", cat.Key)
		}
		seen[cat.Key] = true
	}
	for _, step := range c.Steps {
		if step.ID == "" || seen["step:"+step.ID] {
			return nil, fmt.Errorf("invalid or duplicate step id %q", step.ID)
		}
		seen["step:"+step.ID] = true
	}
	return &c, nil
}

func mustParseCatalog(data []byte) *Catalog {
	c, err := parseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the embedded catalog. Callers must not modify it.
func DefaultCatalog() *Catalog {
	return catalog
}

// CategoryKeys returns the fixed category keys in display order.
func CategoryKeys() []string {
	keys := make([]string, len(catalog.Categories))
	for i, c := range catalog.Categories {
		keys[i] = c.Key
	}
	return keys
}

// LookupCategory finds a category by key.
func LookupCategory(key string) (Category, bool) {
	for _, c := range catalog.Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// HasItem reports whether item belongs to the category.
func (c Category) HasItem(key string) bool {
	for _, it := range c.Items {
		if it.Key == key {
			return true
		}
	}
	return false
}

// Steps returns the fixed implementation steps in order.
func Steps() []Step {
	return catalog.Steps
}

// LookupStep finds a step by ID.
func LookupStep(id string) (Step, bool) {
	for _, s := range catalog.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}
