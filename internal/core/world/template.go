package world

import (
	"fmt"
	"io"
	"math/rand"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/worldforge/internal/core/address"
	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/generator"
)

// FeatureSpec names one explicitly constructed feature of a template.
type FeatureSpec struct {
	Identifier string         `yaml:"identifier"`
	Params     map[string]any `yaml:"params,omitempty"`
}

// Template describes a hand-authored (static) world.
type Template struct {
	Designation string        `yaml:"designation"`
	Name        string        `yaml:"name"`
	Address     string        `yaml:"address"`
	Seed        int64         `yaml:"seed"`
	Features    []FeatureSpec `yaml:"features"`
}

type templateFile struct {
	Worlds []Template `yaml:"worlds"`
}

// LoadTemplates reads a YAML document with a top-level "worlds" list.
func LoadTemplates(r io.Reader) ([]Template, error) {
	var f templateFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	for i, t := range f.Worlds {
		if t.Designation == "" {
			return nil, fmt.Errorf("template %d: designation is required", i)
		}
		if err := generator.ValidateDesignation(t.Designation); err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}
	}
	return f.Worlds, nil
}

// FromTemplate builds the template's explicit features, fills every type to its
// minimum and validates the result.
func FromTemplate(t Template, gen *generator.Generator) (*Composition, error) {
	addr, err := address.Parse(t.Address)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", t.Designation, err)
	}

	c := New(Identity{
		Designation: t.Designation,
		Name:        t.Name,
		Address:     addr,
		Seed:        t.Seed,
	}, gen)

	for _, spec := range t.Features {
		p, err := c.registry.Resolve(spec.Identifier)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", t.Designation, err)
		}
		f, err := p.Construct(c, feature.Params(spec.Params))
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", t.Designation, err)
		}
		if err = c.AddFeature(f); err != nil {
			return nil, fmt.Errorf("template %s: %w", t.Designation, err)
		}
	}

	if err = Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Random builds a world whose features are all drawn at random, then validates it.
func Random(id Identity, gen *generator.Generator, rng *rand.Rand) (*Composition, error) {
	c := New(id, gen)
	if err := c.Generate(rng); err != nil {
		return nil, fmt.Errorf("generate %s: %w", id.Designation, err)
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}
