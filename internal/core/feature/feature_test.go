package feature

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/worldforge/internal/core/tree"
)

type orbitStub struct {
	Base
}

func (o *orbitStub) CelestialAngle(int64) float64 { return 0 }
func (o *orbitStub) TimeUntilRise(int64) int64    { return 0 }

type plainStub struct {
	Base
}

func orbitFactories() Factories {
	return Factories{
		Construct: func(w World, p *Provider, _ Params) (Feature, error) {
			return &orbitStub{Base: NewBase(p, w)}, nil
		},
	}
}

func testTaxonomy() (*Taxonomy, *Type, *Type) {
	sun := NewType("SUN", Singleton(), RequiresCapability(OrbitalCapability))
	moon := NewType("MOON", MaxCount(3), RequiresCapability(OrbitalCapability))
	return NewTaxonomy(sun, moon), sun, moon
}

func TestNewTypeNormalizesCardinality(t *testing.T) {
	one := NewType("ONE", MaxCount(1))
	assert.True(t, one.IsSingleton())
	assert.Equal(t, 1, one.MinCount())
	assert.Equal(t, 1, one.MaxCount())

	many := NewType("MANY", MinCount(2))
	assert.False(t, many.IsSingleton())
	assert.True(t, many.IsUnbounded())

	assert.Panics(t, func() { NewType("BAD", Singleton(), Independent()) })
	assert.Panics(t, func() { NewType("BAD", MinCount(3), MaxCount(2)) })
	assert.Panics(t, func() { NewType("ALL") })
}

func TestRandomCountStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	moon := NewType("MOON", MinCount(1), MaxCount(3))
	for i := 0; i < 200; i++ {
		n := moon.RandomCount(rng, 10)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 3)
	}
	assert.Equal(t, 1, moon.RandomCount(rng, 0))
	assert.Equal(t, 1, NewType("S", Singleton()).RandomCount(rng, 5))
}

func TestTaxonomyOrderAndLookup(t *testing.T) {
	tax, sun, moon := testTaxonomy()
	assert.Equal(t, []*Type{sun, moon}, tax.Types())
	assert.True(t, tax.Contains(sun))
	assert.False(t, tax.Contains(All))
	assert.False(t, tax.Contains(NewType("SUN")))

	found, ok := tax.ByName("MOON")
	require.True(t, ok)
	assert.Same(t, moon, found)
}

func TestRegistryRegisterAndQuery(t *testing.T) {
	tax, sun, moon := testTaxonomy()
	reg := NewRegistry(tax)

	s := NewProvider("sun_normal", sun, orbitFactories(), AsDefault())
	m1 := NewProvider("moon_a", moon, orbitFactories())
	m2 := NewProvider("moon_b", moon, orbitFactories(), WithWeight(5))
	reg.MustRegister(s, m1, m2)

	p, ok := reg.Lookup("moon_b")
	require.True(t, ok)
	assert.Equal(t, 5, p.Weight())

	assert.Equal(t, []*Provider{m1, m2}, reg.ProvidersOf(moon))
	assert.Empty(t, reg.ProvidersOf(All))

	def, ok := reg.DefaultProviderOf(sun)
	require.True(t, ok)
	assert.Same(t, s, def)
	_, ok = reg.DefaultProviderOf(moon)
	assert.False(t, ok)

	assert.Equal(t, []string{"moon_a", "moon_b", "sun_normal"}, reg.Identifiers())
}

func TestRegistryRejections(t *testing.T) {
	tax, sun, moon := testTaxonomy()
	reg := NewRegistry(tax)
	require.NoError(t, reg.Register(NewProvider("sun_normal", sun, orbitFactories(), AsDefault())))

	err := reg.Register(NewProvider("sun_normal", sun, orbitFactories()))
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	err = reg.Register(NewProvider("sun_other", sun, orbitFactories(), AsDefault()))
	assert.ErrorIs(t, err, ErrDuplicateDefault)

	err = reg.Register(NewProvider("stray", NewType("STRAY"), orbitFactories()))
	assert.ErrorIs(t, err, ErrUnknownType)

	err = reg.Register(NewProvider("heavy", moon, orbitFactories(), WithWeight(0)))
	assert.ErrorIs(t, err, ErrInvalidProvider)

	err = reg.Register(NewProvider("empty", moon, Factories{}))
	assert.ErrorIs(t, err, ErrInvalidProvider)

	generateOnly := Factories{Generate: func(w World, p *Provider, _ *rand.Rand) (Feature, error) {
		return &orbitStub{Base: NewBase(p, w)}, nil
	}}
	err = reg.Register(NewProvider("moon_default", moon, generateOnly, AsDefault()))
	assert.ErrorIs(t, err, ErrInvalidProvider)
	_, ok := reg.DefaultProviderOf(moon)
	assert.False(t, ok)
	require.NoError(t, reg.Register(NewProvider("moon_random", moon, generateOnly)))

	reg.Freeze()
	err = reg.Register(NewProvider("late", moon, orbitFactories()))
	assert.ErrorIs(t, err, ErrRegistryFrozen)
}

func TestResolveSuggestsClosestIdentifier(t *testing.T) {
	tax, _, moon := testTaxonomy()
	reg := NewRegistry(tax)
	reg.MustRegister(NewProvider("moon_normal", moon, orbitFactories()))

	_, err := reg.Resolve("moon_normol")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedIdentifier)

	var unresolved *UnresolvedIdentifierError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "moon_normal", unresolved.Suggestion)

	_, err = reg.Resolve("completely_different_thing")
	require.True(t, errors.As(err, &unresolved))
	assert.Empty(t, unresolved.Suggestion)
}

func TestCompatibilityIsSymmetric(t *testing.T) {
	_, _, moon := testTaxonomy()
	a := NewProvider("a", moon, orbitFactories())
	b := NewProvider("b", moon, orbitFactories(), IncompatibleWith("a"))
	c := NewProvider("c", moon, orbitFactories(), WithCompatibility(func(o *Provider) bool { return o.Identifier() != "c" }))

	assert.True(t, a.CompatibleWith(b))
	assert.False(t, Compatible(a, b))
	assert.False(t, Compatible(b, a))
	assert.True(t, Compatible(a, c))
	assert.False(t, Compatible(c, c))
}

func TestFactoriesEnforceCapability(t *testing.T) {
	_, sun, _ := testTaxonomy()
	broken := NewProvider("broken", sun, Factories{
		Construct: func(w World, p *Provider, _ Params) (Feature, error) {
			return &plainStub{Base: NewBase(p, w)}, nil
		},
	})

	_, err := broken.Construct(nil, nil)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = broken.GenerateRandom(nil, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	stranger := NewProvider("stranger", sun, orbitFactories())
	impostor := NewProvider("impostor", sun, Factories{
		Construct: func(w World, _ *Provider, _ Params) (Feature, error) {
			return &orbitStub{Base: NewBase(stranger, w)}, nil
		},
	})
	_, err = impostor.Construct(nil, nil)
	assert.ErrorIs(t, err, ErrStructuralViolation)
}

func TestLoadFallsBackOnlyForStatelessFeatures(t *testing.T) {
	_, sun, _ := testTaxonomy()
	p := NewProvider("sun", sun, orbitFactories())

	f, err := p.LoadFromData(nil, tree.NewCompound())
	require.NoError(t, err)
	assert.Same(t, p, f.Provider())

	_, err = p.LoadFromData(nil, tree.Compound{"size": int32(3)})
	assert.ErrorIs(t, err, ErrMissingFactory)
}

func TestParams(t *testing.T) {
	p := Params{
		"size":   15,
		"period": int64(32000),
		"offset": -0.35,
		"name":   "x",
		"biomes": []any{"desert", 3, "plains"},
		"hex":    "#EFEDCB",
		"color":  0xCCBF8C,
	}
	assert.Equal(t, 15, p.Int("size", 0))
	assert.Equal(t, 7, p.Int("missing", 7))
	assert.Equal(t, int64(32000), p.Int64("period", 0))
	assert.InDelta(t, -0.35, p.Float("offset", 0), 1e-9)
	assert.Equal(t, 15.0, p.Float("size", 0))
	assert.Equal(t, "x", p.String("name", ""))
	assert.Equal(t, []string{"desert", "plains"}, p.Strings("biomes"))
	assert.Equal(t, RGB(0xEFEDCB), p.Color("hex", 0))
	assert.Equal(t, RGB(0xCCBF8C), p.Color("color", 0))
	assert.Equal(t, RGB(1), p.Color("missing", 1))
}

func TestRGBScale(t *testing.T) {
	c := RGB(0x80FF40)
	assert.Equal(t, uint8(0x80), c.R())
	assert.Equal(t, RGB(0x407F20), c.Scale(0.5))
	assert.Equal(t, c, c.Scale(2))
	assert.Equal(t, RGB(0), c.Scale(-1))
}

func TestBiomeNames(t *testing.T) {
	b, ok := ParseBiome("desert")
	require.True(t, ok)
	assert.Equal(t, BiomeDesert, b)
	assert.Equal(t, "desert", b.String())
	assert.Len(t, Biomes(), 10)
	_, ok = ParseBiome("lava")
	assert.False(t, ok)
}
