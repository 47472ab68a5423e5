// Package templates serves the generation option catalog: AI models, resume
// templates, output languages and emphasis areas.
package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrNotFound indicates an unknown template id.
var ErrNotFound = errors.New("template not found")

// Option is a selectable value with a human label.
type Option struct {
	Value       string `yaml:"value" json:"value"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Emphasis is a focus area the generator can weight.
type Emphasis struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Template describes a resume layout.
type Template struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Category    string   `yaml:"category" json:"category"`
	Features    []string `yaml:"features" json:"features"`
}

// Catalog is the full set of generation options.
type Catalog struct {
	AIModels  []Option   `yaml:"ai_models" json:"aiModels"`
	Templates []Template `yaml:"templates" json:"templates"`
	Languages []Option   `yaml:"languages" json:"languages"`
	Emphasis  []Emphasis `yaml:"emphasis" json:"emphasis"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load returns the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.AIModels) == 0 || len(c.Templates) == 0 || len(c.Languages) == 0 {
		return errors.New("catalog: ai_models, templates and languages must not be empty")
	}
	seen := make(map[string]struct{}, len(c.Templates))
	for _, t := range c.Templates {
		if t.ID == "" {
			return errors.New("catalog: template without id")
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("catalog: duplicate template %q", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	for _, l := range c.Languages {
		if _, err := language.Parse(l.Value); err != nil {
			return fmt.Errorf("catalog: language %q: %w", l.Value, err)
		}
	}
	return nil
}

// HasModel reports whether value names a known AI model.
func (c *Catalog) HasModel(value string) bool {
	for _, m := range c.AIModels {
		if m.Value == value {
			return true
		}
	}
	return false
}

// Template returns the template with the given id.
func (c *Catalog) Template(id string) (Template, error) {
	for _, t := range c.Templates {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, ErrNotFound
}

// TemplatesByCategory filters templates; an empty category returns all.
func (c *Catalog) TemplatesByCategory(category string) []Template {
	out := make([]Template, 0, len(c.Templates))
	for _, t := range c.Templates {
		if category == "" || strings.EqualFold(t.Category, category) {
			out = append(out, t)
		}
	}
	return out
}

// MatchLanguage resolves a requested locale (e.g. "en-US", "en_gb") to a catalog language value.
func (c *Catalog) MatchLanguage(raw string) (string, bool) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(raw), "_", "-"))
	if err != nil {
		return "", false
	}
	for _, l := range c.Languages {
		candidate, err := language.Parse(l.Value)
		if err != nil {
			continue
		}
		if candidate == tag {
			return l.Value, true
		}
	}
	return "", false
}

// HasEmphasis reports whether id names a known emphasis area.
func (c *Catalog) HasEmphasis(id string) bool {
	for _, e := range c.Emphasis {
		if e.ID == id {
			return true
		}
	}
	return false
}

// LanguageLabel returns the display label of a language value.
func (c *Catalog) LanguageLabel(value string) string {
	for _, l := range c.Languages {
		if l.Value == value {
			return l.Label
		}
	}
	return value
}
