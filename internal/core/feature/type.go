package feature

import (
	"fmt"
	"math/rand"
)

// Unbounded marks a type without a maximum count.
const Unbounded = -1

// Type is one category of the feature taxonomy. Types are compared by identity.
type Type struct {
	name        string
	singleton   bool
	minCount    int
	maxCount    int
	independent bool
	capability  *Capability
	all         bool
}

// All is the query-only union of every type. It is never a storage key.
var All = &Type{name: "ALL", maxCount: Unbounded, all: true}

type TypeOption func(*Type)

func Singleton() TypeOption {
	return func(t *Type) { t.singleton = true }
}

func MinCount(n int) TypeOption {
	return func(t *Type) { t.minCount = n }
}

func MaxCount(n int) TypeOption {
	return func(t *Type) { t.maxCount = n }
}

// Independent makes selection use one Bernoulli trial per provider instead of a weighted draw.
func Independent() TypeOption {
	return func(t *Type) { t.independent = true }
}

// RequiresCapability restricts instances of the type to features satisfying c.
func RequiresCapability(c *Capability) TypeOption {
	return func(t *Type) { t.capability = c }
}

// NewType defines a taxonomy entry. It panics on contradictory cardinality rules,
// since taxonomies are declared once at init time.
//
// A maximum of one implies singleton, and a singleton always has exactly one instance.
func NewType(name string, opts ...TypeOption) *Type {
	t := &Type{name: name, maxCount: Unbounded}
	for _, opt := range opts {
		opt(t)
	}

	if t.maxCount == 1 {
		t.singleton = true
	}
	if t.singleton {
		t.minCount, t.maxCount = 1, 1
	}

	switch {
	case name == "" || name == All.name:
		panic(fmt.Sprintf("feature: invalid type name %q", name))
	case t.minCount < 0:
		panic(fmt.Sprintf("feature: type %s has negative minimum", name))
	case t.maxCount != Unbounded && t.maxCount < t.minCount:
		panic(fmt.Sprintf("feature: type %s has maximum %d below minimum %d", name, t.maxCount, t.minCount))
	case t.singleton && t.independent:
		panic(fmt.Sprintf("feature: type %s cannot be both singleton and independent", name))
	}
	return t
}

func (t *Type) Name() string            { return t.name }
func (t *Type) String() string          { return t.name }
func (t *Type) IsSingleton() bool       { return t.singleton }
func (t *Type) IsIndependent() bool     { return t.independent }
func (t *Type) IsAll() bool             { return t.all }
func (t *Type) MinCount() int           { return t.minCount }
func (t *Type) MaxCount() int           { return t.maxCount }
func (t *Type) IsUnbounded() bool       { return t.maxCount == Unbounded }
func (t *Type) Capability() *Capability { return t.capability }

// Accepts reports whether f satisfies the type's required capability.
func (t *Type) Accepts(f Feature) bool {
	return t.capability.SatisfiedBy(f)
}

// RandomCount picks how many features a freshly generated world gets for this type,
// given how many providers are available. Singletons always get one.
func (t *Type) RandomCount(rng *rand.Rand, available int) int {
	if t.singleton {
		return 1
	}
	upper := available
	if !t.IsUnbounded() && t.maxCount < upper {
		upper = t.maxCount
	}
	if upper <= t.minCount {
		return t.minCount
	}
	return t.minCount + rng.Intn(upper-t.minCount+1)
}

// Taxonomy is the ordered, closed set of types a registry works with.
type Taxonomy struct {
	types  []*Type
	byName map[string]*Type
}

func NewTaxonomy(types ...*Type) *Taxonomy {
	tax := &Taxonomy{
		types:  make([]*Type, 0, len(types)),
		byName: make(map[string]*Type, len(types)),
	}
	for _, t := range types {
		if t == nil || t.all {
			panic("feature: taxonomy cannot contain nil or ALL")
		}
		if _, dup := tax.byName[t.name]; dup {
			panic(fmt.Sprintf("feature: duplicate type %s in taxonomy", t.name))
		}
		tax.types = append(tax.types, t)
		tax.byName[t.name] = t
	}
	return tax
}

// Types returns the taxonomy in declaration order, without ALL.
func (tax *Taxonomy) Types() []*Type {
	out := make([]*Type, len(tax.types))
	copy(out, tax.types)
	return out
}

func (tax *Taxonomy) Contains(t *Type) bool {
	if t == nil {
		return false
	}
	found, ok := tax.byName[t.name]
	return ok && found == t
}

func (tax *Taxonomy) ByName(name string) (*Type, bool) {
	t, ok := tax.byName[name]
	return t, ok
}
