// Package world holds the composition of one generated world and the rules that
// make it valid.
//
// A Composition has a single owner: generation, mutation and time advancement
// are not synchronized internally.
package world

import (
	"fmt"
	"math/rand"
	"reflect"

	"github.com/zeusync/worldforge/internal/core/address"
	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/generator"
)

// Identity is the set of fields fixed when a composition is created.
type Identity struct {
	Designation string
	Name        string
	Address     address.Address
	Seed        int64
}

type Composition struct {
	designation string
	name        string
	address     address.Address
	seed        int64
	dimensionID int32
	worldTime   int64

	features map[*feature.Type][]feature.Feature
	// distinct instances in the order they were added
	ordered []feature.Feature

	dirty    bool
	revision uint64

	registry  *feature.Registry
	generator *generator.Generator
	rng       *rand.Rand
}

var _ generator.Composer = (*Composition)(nil)

// New creates an empty composition. It starts dirty, since nothing about it is persisted yet.
func New(id Identity, gen *generator.Generator) *Composition {
	c := &Composition{
		designation: id.Designation,
		name:        id.Name,
		address:     id.Address,
		seed:        id.Seed,
		features:    make(map[*feature.Type][]feature.Feature),
		registry:    gen.Registry(),
		generator:   gen,
		rng:         generator.DeriveRand(id.Seed, id.Designation),
	}
	c.markDirty()
	return c
}

func (c *Composition) Designation() string      { return c.designation }
func (c *Composition) Name() string             { return c.name }
func (c *Composition) Address() address.Address { return c.address }
func (c *Composition) Seed() int64              { return c.seed }
func (c *Composition) DimensionID() int32       { return c.dimensionID }
func (c *Composition) WorldTime() int64         { return c.worldTime }

// DisplayName is the name when set, otherwise the designation.
func (c *Composition) DisplayName() string {
	if c.name == "" {
		return c.designation
	}
	return c.name
}

// SaveFolderName names the dimension save folder of this world.
func (c *Composition) SaveFolderName() string {
	return fmt.Sprintf("SG_WORLD%d", c.dimensionID)
}

func (c *Composition) Registry() *feature.Registry {
	return c.registry
}

// Dirty reports whether the composition changed since it was last persisted.
func (c *Composition) Dirty() bool { return c.dirty }

// ClearDirty is called once the composition has been persisted.
func (c *Composition) ClearDirty() { c.dirty = false }

// Revision increases on every change. Observers compare it to detect updates.
func (c *Composition) Revision() uint64 { return c.revision }

func (c *Composition) markDirty() {
	c.dirty = true
	c.revision++
}

// SetDimensionID assigns the dimension once. Later calls are ignored.
func (c *Composition) SetDimensionID(id int32) {
	if c.dimensionID != 0 || id == 0 {
		return
	}
	c.dimensionID = id
	c.markDirty()
}

// AdvanceTime moves the world clock forward. Non-positive deltas are ignored.
func (c *Composition) AdvanceTime(delta int64) {
	if delta <= 0 {
		return
	}
	c.worldTime += delta
	c.markDirty()
}

func (c *Composition) SetWorldTime(t int64) {
	c.worldTime = t
	c.markDirty()
}

// Feature returns the first feature filed under t. Meant for singleton types.
func (c *Composition) Feature(t *feature.Type) (feature.Feature, bool) {
	list := c.Features(t)
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// Features returns a copy of the features filed under t. For feature.All it returns
// every (type, feature) filing in taxonomy order, so a feature with secondary types
// appears once per type it is filed under.
func (c *Composition) Features(t *feature.Type) []feature.Feature {
	if t == nil {
		return nil
	}
	if !t.IsAll() {
		return append([]feature.Feature(nil), c.features[t]...)
	}
	var all []feature.Feature
	for _, tt := range c.registry.Taxonomy().Types() {
		all = append(all, c.features[tt]...)
	}
	return all
}

// Distinct returns every feature instance once, in insertion order.
func (c *Composition) Distinct() []feature.Feature {
	return append([]feature.Feature(nil), c.ordered...)
}

// Count is the number of features filed under t.
func (c *Composition) Count(t *feature.Type) int {
	return len(c.features[t])
}

// HasFeatureIdentifier reports whether any feature came from the given provider.
func (c *Composition) HasFeatureIdentifier(identifier string) bool {
	for _, f := range c.ordered {
		if f.Provider().Identifier() == identifier {
			return true
		}
	}
	return false
}

// AddFeature files f under its primary type and every secondary type it declares.
// Either all filings happen or none do.
func (c *Composition) AddFeature(f feature.Feature) error {
	types, err := c.filingTypes(f)
	if err != nil {
		return err
	}
	for _, t := range types {
		c.features[t] = append(c.features[t], f)
	}
	c.ordered = append(c.ordered, f)
	c.markDirty()
	return nil
}

func (c *Composition) filingTypes(f feature.Feature) ([]*feature.Type, error) {
	if f == nil || f.Provider() == nil {
		return nil, fmt.Errorf("%w: feature without provider", feature.ErrStructuralViolation)
	}
	primary := feature.TypeOf(f)
	tax := c.registry.Taxonomy()
	if !tax.Contains(primary) {
		return nil, fmt.Errorf("%w: %s (provider %s)", feature.ErrUnknownType, primary, f.Provider().Identifier())
	}
	if !primary.Accepts(f) {
		return nil, fmt.Errorf("%w: %T from %s is not a %s", feature.ErrTypeMismatch, f, f.Provider().Identifier(), primary.Capability().Name())
	}
	for _, existing := range c.ordered {
		if sameFeature(existing, f) {
			return nil, fmt.Errorf("%w: feature from %s is already filed", feature.ErrStructuralViolation, f.Provider().Identifier())
		}
	}

	types := []*feature.Type{primary}
	for _, st := range f.SecondaryTypes() {
		if st == nil || st == primary || containsType(types, st) {
			continue
		}
		if st.IsAll() || !tax.Contains(st) {
			return nil, fmt.Errorf("%w: secondary type %v of %s", feature.ErrUnknownType, st, f.Provider().Identifier())
		}
		if st.IsSingleton() {
			return nil, fmt.Errorf("%w: %s declared by %s", feature.ErrSingletonSecondary, st, f.Provider().Identifier())
		}
		if !st.Accepts(f) {
			return nil, fmt.Errorf("%w: %T from %s declares %s but is not a %s",
				feature.ErrTypeMismatch, f, f.Provider().Identifier(), st, st.Capability().Name())
		}
		types = append(types, st)
	}
	return types, nil
}

// sameFeature compares identity. Features of a non-comparable dynamic type
// cannot be told apart and never match.
func sameFeature(a, b feature.Feature) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

func containsType(types []*feature.Type, t *feature.Type) bool {
	for _, tt := range types {
		if tt == t {
			return true
		}
	}
	return false
}

// FillToMinimum brings every type up to its minimum count. A type's default provider
// is preferred and constructed without parameters; otherwise the generator draws the
// deficit. It reports whether anything was added. A short generator result is not an
// error here; Validate reports it.
func (c *Composition) FillToMinimum() (bool, error) {
	added := false
	for _, t := range c.registry.Taxonomy().Types() {
		deficit := t.MinCount() - len(c.features[t])
		if deficit <= 0 {
			continue
		}

		var produced []feature.Feature
		if p, ok := c.registry.DefaultProviderOf(t); ok {
			for i := 0; i < deficit; i++ {
				f, err := p.Construct(c, nil)
				if err != nil {
					return added, fmt.Errorf("fill %s: %w", t, err)
				}
				produced = append(produced, f)
			}
		} else {
			generated, err := c.generator.Generate(c, t, deficit, c.rng)
			if err != nil {
				return added, fmt.Errorf("fill %s: %w", t, err)
			}
			produced = generated
		}

		for _, f := range produced {
			if err := c.AddFeature(f); err != nil {
				return added, fmt.Errorf("fill %s: %w", t, err)
			}
			added = true
		}
	}
	return added, nil
}

// Attach hands the host dimension to every feature that wants it and records its id.
func (c *Composition) Attach(host feature.Host) {
	c.SetDimensionID(host.DimensionID())
	for _, f := range c.ordered {
		if a, ok := f.(feature.Attachable); ok {
			a.OnAttach(host)
		}
	}
}

// Generate fills the composition with a random feature set.
func (c *Composition) Generate(rng *rand.Rand) error {
	return c.generator.GenerateWorld(c, rng)
}
