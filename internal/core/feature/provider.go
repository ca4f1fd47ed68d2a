package feature

import (
	"fmt"
	"math/rand"

	"github.com/zeusync/worldforge/internal/core/tree"
)

// DefaultWeight is the average draw weight of a provider.
const DefaultWeight = 100

type (
	// ConstructFunc builds a feature from explicit parameters.
	ConstructFunc func(w World, p *Provider, params Params) (Feature, error)
	// GenerateFunc builds a random feature.
	GenerateFunc func(w World, p *Provider, rng *rand.Rand) (Feature, error)
	// LoadFunc rebuilds a feature from the data its WriteData produced.
	LoadFunc func(w World, p *Provider, data tree.Compound) (Feature, error)
)

// Factories groups the three construction paths of a provider.
// Generate falls back to Construct with no parameters; Load has no fallback
// unless the feature is stateless, in which case Construct is used.
type Factories struct {
	Construct ConstructFunc
	Generate  GenerateFunc
	Load      LoadFunc
}

// Provider is the identity and factory of one feature kind.
// The identifier is the only thing persisted, so renaming a provider breaks saves.
type Provider struct {
	identifier   string
	typ          *Type
	weight       int
	isDefault    bool
	factories    Factories
	compatible   func(other *Provider) bool
	incompatible map[string]struct{}
}

type ProviderOption func(*Provider)

// WithWeight sets the draw weight. For independent types it is the "1 in weight" trial odds.
func WithWeight(w int) ProviderOption {
	return func(p *Provider) { p.weight = w }
}

// AsDefault marks the provider as the deterministic choice when filling its type to minimum.
func AsDefault() ProviderOption {
	return func(p *Provider) { p.isDefault = true }
}

// WithCompatibility installs a custom compatibility predicate.
func WithCompatibility(fn func(other *Provider) bool) ProviderOption {
	return func(p *Provider) { p.compatible = fn }
}

// IncompatibleWith declares identifiers this provider refuses to coexist with.
func IncompatibleWith(identifiers ...string) ProviderOption {
	return func(p *Provider) {
		if p.incompatible == nil {
			p.incompatible = make(map[string]struct{}, len(identifiers))
		}
		for _, id := range identifiers {
			p.incompatible[id] = struct{}{}
		}
	}
}

func NewProvider(identifier string, t *Type, f Factories, opts ...ProviderOption) *Provider {
	p := &Provider{
		identifier: identifier,
		typ:        t,
		weight:     DefaultWeight,
		factories:  f,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Identifier() string { return p.identifier }
func (p *Provider) Type() *Type        { return p.typ }
func (p *Provider) Weight() int        { return p.weight }
func (p *Provider) IsDefault() bool    { return p.isDefault }
func (p *Provider) String() string     { return p.identifier }

func (p *Provider) validate() error {
	switch {
	case p.identifier == "":
		return fmt.Errorf("%w: empty identifier", ErrInvalidProvider)
	case p.typ == nil || p.typ.IsAll():
		return fmt.Errorf("%w: %s has no concrete type", ErrInvalidProvider, p.identifier)
	case p.weight <= 0:
		return fmt.Errorf("%w: %s has non-positive weight %d", ErrInvalidProvider, p.identifier, p.weight)
	case p.factories.Construct == nil && p.factories.Generate == nil:
		return fmt.Errorf("%w: %s has neither construct nor generate factory", ErrInvalidProvider, p.identifier)
	case p.isDefault && p.factories.Construct == nil:
		return fmt.Errorf("%w: default provider %s has no construct factory", ErrInvalidProvider, p.identifier)
	}
	return nil
}

// CompatibleWith is this provider's half of the compatibility predicate.
func (p *Provider) CompatibleWith(other *Provider) bool {
	if _, ok := p.incompatible[other.identifier]; ok {
		return false
	}
	if p.compatible != nil {
		return p.compatible(other)
	}
	return true
}

// Compatible evaluates compatibility in both directions.
func Compatible(a, b *Provider) bool {
	return a.CompatibleWith(b) && b.CompatibleWith(a)
}

// Construct builds a feature from explicit parameters.
func (p *Provider) Construct(w World, params Params) (Feature, error) {
	if p.factories.Construct == nil {
		return nil, fmt.Errorf("%w: %s cannot construct from parameters", ErrMissingFactory, p.identifier)
	}
	return p.checked(p.factories.Construct(w, p, params))
}

// GenerateRandom builds a random feature.
func (p *Provider) GenerateRandom(w World, rng *rand.Rand) (Feature, error) {
	if p.factories.Generate == nil {
		return p.Construct(w, nil)
	}
	return p.checked(p.factories.Generate(w, p, rng))
}

// LoadFromData rebuilds a feature from persisted data.
func (p *Provider) LoadFromData(w World, data tree.Compound) (Feature, error) {
	if p.factories.Load == nil {
		if len(data) > 0 {
			return nil, fmt.Errorf("%w: %s cannot load saved data", ErrMissingFactory, p.identifier)
		}
		return p.Construct(w, nil)
	}
	return p.checked(p.factories.Load(w, p, data))
}

// checked verifies the instance satisfies the type's capability and points back at p.
func (p *Provider) checked(f Feature, err error) (Feature, error) {
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.identifier, err)
	}
	if f == nil || f.Provider() != p {
		return nil, fmt.Errorf("%w: %s produced a feature that does not reference it", ErrStructuralViolation, p.identifier)
	}
	if !p.typ.Accepts(f) {
		return nil, fmt.Errorf("%w: %s produced %T, type %s requires %s",
			ErrTypeMismatch, p.identifier, f, p.typ.Name(), p.typ.Capability().Name())
	}
	return f, nil
}
