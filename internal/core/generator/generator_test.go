package generator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/observability/log"
)

type body struct {
	feature.Base
}

func (b *body) CelestialAngle(int64) float64 { return 0 }
func (b *body) TimeUntilRise(int64) int64    { return 0 }

type rock struct {
	feature.Base
}

func (r *rock) Populate(int, int, *rand.Rand) []feature.Placement { return nil }

type mismatched struct {
	feature.Base
}

var (
	sunType  = feature.NewType("SUN", feature.Singleton(), feature.RequiresCapability(feature.OrbitalCapability))
	moonType = feature.NewType("MOON", feature.RequiresCapability(feature.OrbitalCapability))
	oreType  = feature.NewType("ORE", feature.Independent(), feature.RequiresCapability(feature.PopulatorCapability))
)

func bodies() feature.Factories {
	return feature.Factories{
		Construct: func(w feature.World, p *feature.Provider, _ feature.Params) (feature.Feature, error) {
			return &body{Base: feature.NewBase(p, w)}, nil
		},
	}
}

func rocks() feature.Factories {
	return feature.Factories{
		Construct: func(w feature.World, p *feature.Provider, _ feature.Params) (feature.Feature, error) {
			return &rock{Base: feature.NewBase(p, w)}, nil
		},
	}
}

type stubWorld struct {
	features map[*feature.Type][]feature.Feature
}

func newStubWorld() *stubWorld {
	return &stubWorld{features: make(map[*feature.Type][]feature.Feature)}
}

func (s *stubWorld) Designation() string { return "P2X-333" }
func (s *stubWorld) Seed() int64         { return 1 }

func (s *stubWorld) Features(t *feature.Type) []feature.Feature {
	return append([]feature.Feature(nil), s.features[t]...)
}

func (s *stubWorld) AddFeature(f feature.Feature) error {
	s.features[feature.TypeOf(f)] = append(s.features[feature.TypeOf(f)], f)
	return nil
}

func newGenerator(providers ...*feature.Provider) *Generator {
	reg := feature.NewRegistry(feature.NewTaxonomy(sunType, moonType, oreType))
	reg.MustRegister(providers...)
	reg.Freeze()
	return New(reg, log.NewNop())
}

func identifiers(features []feature.Feature) []string {
	ids := make([]string, 0, len(features))
	for _, f := range features {
		ids = append(ids, f.Provider().Identifier())
	}
	return ids
}

func TestIncompatibleProviderIsNeverChosen(t *testing.T) {
	a := feature.NewProvider("A", moonType, bodies())
	b := feature.NewProvider("B", moonType, bodies(), feature.IncompatibleWith("A", "C"))
	c := feature.NewProvider("C", moonType, bodies())
	g := newGenerator(a, b, c)

	w := newStubWorld()
	existing, err := c.Construct(w, nil)
	require.NoError(t, err)
	require.NoError(t, w.AddFeature(existing))

	for seed := int64(0); seed < 50; seed++ {
		got, err := g.Generate(w, moonType, 3, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"A", "C"}, identifiers(got))
	}
}

func TestCompatibilityClosure(t *testing.T) {
	a := feature.NewProvider("A", moonType, bodies())
	b := feature.NewProvider("B", moonType, bodies(), feature.IncompatibleWith("A", "C"))
	c := feature.NewProvider("C", moonType, bodies())
	g := newGenerator(a, b, c)

	for seed := int64(0); seed < 200; seed++ {
		got, err := g.Generate(newStubWorld(), moonType, 3, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		assert.Less(t, len(got), 3)
		for i := range got {
			for j := range got {
				if i == j {
					continue
				}
				assert.True(t, feature.Compatible(got[i].Provider(), got[j].Provider()),
					"seed %d chose %v", seed, identifiers(got))
			}
		}
	}
}

func TestWeightedDrawConvergesToWeights(t *testing.T) {
	weights := map[string]int{"light": 1, "medium": 2, "heavy": 7}
	g := newGenerator(
		feature.NewProvider("light", moonType, bodies(), feature.WithWeight(weights["light"])),
		feature.NewProvider("medium", moonType, bodies(), feature.WithWeight(weights["medium"])),
		feature.NewProvider("heavy", moonType, bodies(), feature.WithWeight(weights["heavy"])),
	)

	const trials = 20_000
	const tolerance = 0.02
	rng := rand.New(rand.NewSource(42))
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		got, err := g.Generate(newStubWorld(), moonType, 1, rng)
		require.NoError(t, err)
		require.Len(t, got, 1)
		counts[got[0].Provider().Identifier()]++
	}

	for id, w := range weights {
		expected := float64(w) / 10
		actual := float64(counts[id]) / trials
		assert.InDelta(t, expected, actual, tolerance, "provider %s", id)
	}
}

func TestIndependentTrialProbability(t *testing.T) {
	g := newGenerator(
		feature.NewProvider("naquadah", oreType, rocks(), feature.WithWeight(4)),
		feature.NewProvider("trinium", oreType, rocks(), feature.WithWeight(10)),
	)

	const trials = 20_000
	rng := rand.New(rand.NewSource(7))
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		got, err := g.Generate(newStubWorld(), oreType, 0, rng)
		require.NoError(t, err)
		for _, id := range identifiers(got) {
			counts[id]++
		}
	}

	assert.InDelta(t, 0.25, float64(counts["naquadah"])/trials, 0.02)
	assert.InDelta(t, 0.10, float64(counts["trinium"])/trials, 0.02)
}

func TestIndependentSkipsIncompatibleWithoutRetry(t *testing.T) {
	g := newGenerator(
		feature.NewProvider("first", oreType, rocks(), feature.WithWeight(1)),
		feature.NewProvider("second", oreType, rocks(), feature.WithWeight(1), feature.IncompatibleWith("first")),
	)
	got, err := g.Generate(newStubWorld(), oreType, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, identifiers(got))
}

func TestSingletonNeverExceedsOne(t *testing.T) {
	g := newGenerator(
		feature.NewProvider("sun_a", sunType, bodies()),
		feature.NewProvider("sun_b", sunType, bodies()),
	)
	w := newStubWorld()

	got, err := g.Generate(w, sunType, 3, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NoError(t, w.AddFeature(got[0]))

	got, err = g.Generate(w, sunType, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCapabilityMismatchIsFatal(t *testing.T) {
	broken := feature.NewProvider("broken", moonType, feature.Factories{
		Construct: func(w feature.World, p *feature.Provider, _ feature.Params) (feature.Feature, error) {
			return &mismatched{Base: feature.NewBase(p, w)}, nil
		},
	})
	g := newGenerator(broken, feature.NewProvider("fine", moonType, bodies()))

	for seed := int64(0); seed < 10; seed++ {
		_, err := g.Generate(newStubWorld(), moonType, 2, rand.New(rand.NewSource(seed)))
		assert.ErrorIs(t, err, feature.ErrTypeMismatch)
	}
}

func TestGenerateRejectsForeignTypes(t *testing.T) {
	g := newGenerator()
	_, err := g.Generate(newStubWorld(), feature.All, 1, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, feature.ErrUnknownType)

	_, err = g.Generate(newStubWorld(), feature.NewType("OTHER"), 1, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, feature.ErrUnknownType)
}

func TestGenerateWorldFillsEveryType(t *testing.T) {
	g := newGenerator(
		feature.NewProvider("sun", sunType, bodies()),
		feature.NewProvider("moon_a", moonType, bodies()),
		feature.NewProvider("moon_b", moonType, bodies()),
		feature.NewProvider("ore", oreType, rocks(), feature.WithWeight(1)),
	)
	w := newStubWorld()
	require.NoError(t, g.GenerateWorld(w, rand.New(rand.NewSource(3))))

	assert.Len(t, w.Features(sunType), 1)
	assert.LessOrEqual(t, len(w.Features(moonType)), 2)
	assert.Len(t, w.Features(oreType), 1)
}

func TestPickWeightedSinglePool(t *testing.T) {
	pool := []*feature.Provider{feature.NewProvider("only", moonType, bodies(), feature.WithWeight(3))}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		assert.Equal(t, 0, pickWeighted(pool, rng))
	}
}
