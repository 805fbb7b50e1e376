package settings

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"ecomkit/pkg/shopify"
)

//go:embed schemas/*.yaml
var schemaFS embed.FS

// Field describes one setting: its metafield type, default and validation rules.
// Min, Max and Default are written as strings so YAML keeps decimals exact.
type Field struct {
	Key       string   `yaml:"key" json:"key"`
	Type      string   `yaml:"type" json:"type"`
	Default   string   `yaml:"default" json:"default"`
	Label     string   `yaml:"label" json:"label"`
	Help      string   `yaml:"help" json:"help,omitempty"`
	Group     string   `yaml:"group" json:"group,omitempty"`
	Options   []string `yaml:"options" json:"options,omitempty"`
	Min       string   `yaml:"min" json:"min,omitempty"`
	Max       string   `yaml:"max" json:"max,omitempty"`
	Pattern   string   `yaml:"pattern" json:"pattern,omitempty"`
	MaxLength int      `yaml:"max_length" json:"maxLength,omitempty"`

	min, max *decimal.Decimal
	re       *regexp.Regexp
}

// OrderRule requires Lower <= Upper when both are submitted together.
type OrderRule struct {
	Lower string `yaml:"lower" json:"lower"`
	Upper string `yaml:"upper" json:"upper"`
}

// Schema is the declarative description of one settings page / metafield namespace.
type Schema struct {
	Feature      string      `yaml:"feature" json:"feature"`
	Namespace    string      `yaml:"namespace" json:"namespace"`
	Title        string      `yaml:"title" json:"title"`
	SavedMessage string      `yaml:"saved_message" json:"-"`
	Fields       []Field     `yaml:"fields" json:"fields"`
	Ordering     []OrderRule `yaml:"ordering" json:"ordering,omitempty"`

	index map[string]int
}

func (s *Schema) Field(key string) (*Field, bool) {
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return &s.Fields[i], true
}

// ParseSchema decodes and compiles a schema, checking that every default is valid for its field.
func ParseSchema(raw []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if s.Feature == "" || s.Namespace == "" {
		return nil, fmt.Errorf("schema needs feature and namespace")
	}

	s.index = make(map[string]int, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Key == "" {
			return nil, fmt.Errorf("%s: field %d has no key", s.Feature, i)
		}
		if _, dup := s.index[f.Key]; dup {
			return nil, fmt.Errorf("%s: duplicate field %q", s.Feature, f.Key)
		}
		if err := f.compile(); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Feature, f.Key, err)
		}
		if f.Default != "" {
			if _, err := f.Coerce(f.Default); err != nil {
				return nil, fmt.Errorf("%s.%s: invalid default: %w", s.Feature, f.Key, err)
			}
		}
		s.index[f.Key] = i
	}

	for _, r := range s.Ordering {
		lo, okLo := s.Field(r.Lower)
		hi, okHi := s.Field(r.Upper)
		if !okLo || !okHi {
			return nil, fmt.Errorf("%s: ordering rule references unknown field", s.Feature)
		}
		if !isNumeric(lo.Type) || !isNumeric(hi.Type) {
			return nil, fmt.Errorf("%s: ordering rule needs numeric fields", s.Feature)
		}
	}
	return &s, nil
}

func (f *Field) compile() error {
	switch f.Type {
	case shopify.TypeBoolean, shopify.TypeDecimal, shopify.TypeInteger, shopify.TypeSingleLineTxt:
	default:
		return fmt.Errorf("unsupported type %q", f.Type)
	}
	if f.Min != "" {
		d, err := decimal.NewFromString(f.Min)
		if err != nil {
			return fmt.Errorf("min: %w", err)
		}
		f.min = &d
	}
	if f.Max != "" {
		d, err := decimal.NewFromString(f.Max)
		if err != nil {
			return fmt.Errorf("max: %w", err)
		}
		f.max = &d
	}
	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("pattern: %w", err)
		}
		f.re = re
	}
	return nil
}

func isNumeric(t string) bool {
	return t == shopify.TypeDecimal || t == shopify.TypeInteger
}

// Registry holds every settings schema keyed by feature slug.
type Registry struct {
	byFeature map[string]*Schema
}

// LoadRegistry compiles every schema embedded in the binary.
func LoadRegistry() (*Registry, error) {
	return loadRegistry(schemaFS, "schemas")
}

func loadRegistry(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	r := &Registry{byFeature: map[string]*Schema{}}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		s, err := ParseSchema(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if _, dup := r.byFeature[s.Feature]; dup {
			return nil, fmt.Errorf("duplicate feature %q", s.Feature)
		}
		r.byFeature[s.Feature] = s
	}
	return r, nil
}

// NewRegistry builds a registry from already parsed schemas.
func NewRegistry(schemas ...*Schema) *Registry {
	r := &Registry{byFeature: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		r.byFeature[s.Feature] = s
	}
	return r
}

func (r *Registry) Get(feature string) (*Schema, bool) {
	s, ok := r.byFeature[feature]
	return s, ok
}

// Features lists feature slugs in a stable order.
func (r *Registry) Features() []string {
	out := make([]string, 0, len(r.byFeature))
	for f := range r.byFeature {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
