// Package generator draws new features for a composition from the provider registry.
package generator

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/observability/log"
)

// Composer is a composition that accepts generated features as they are produced.
type Composer interface {
	feature.World
	AddFeature(f feature.Feature) error
}

type Generator struct {
	registry *feature.Registry
	logger   log.Log
}

func New(registry *feature.Registry, logger log.Log) *Generator {
	return &Generator{
		registry: registry,
		logger:   logger.With(log.String("component", "generator")),
	}
}

func (g *Generator) Registry() *feature.Registry {
	return g.registry
}

// Generate produces up to count new features of type t, each compatible (both ways)
// with the features w already files under t and with each other.
//
// Weighted types draw providers without replacement in proportion to their weight;
// an incompatible draw is dropped from this call's pool and the draw repeats.
// The result is short when the pool runs dry. Independent types ignore count and
// give every provider one 1-in-weight trial.
//
// A provider producing an instance that does not satisfy t's capability is a fatal
// error, never a retry.
func (g *Generator) Generate(w feature.World, t *feature.Type, count int, rng *rand.Rand) ([]feature.Feature, error) {
	if t == nil || t.IsAll() || !g.registry.Taxonomy().Contains(t) {
		return nil, fmt.Errorf("%w: %v", feature.ErrUnknownType, t)
	}

	existing := w.Features(t)
	chosen := make([]*feature.Provider, 0, len(existing)+count)
	for _, f := range existing {
		chosen = append(chosen, f.Provider())
	}

	if t.IsIndependent() {
		return g.independent(w, t, chosen, rng)
	}

	if t.IsSingleton() && count > 1-len(existing) {
		count = 1 - len(existing)
	}
	if count <= 0 {
		return nil, nil
	}
	return g.weighted(w, t, count, chosen, rng)
}

func (g *Generator) weighted(w feature.World, t *feature.Type, remaining int, chosen []*feature.Provider, rng *rand.Rand) ([]feature.Feature, error) {
	pool := g.registry.ProvidersOf(t)
	result := make([]feature.Feature, 0, remaining)

	for remaining > 0 && len(pool) > 0 {
		idx := pickWeighted(pool, rng)
		provider := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)

		if !compatibleWithAll(provider, chosen) {
			g.logger.Debug("Skipping incompatible provider",
				log.Designation(w.Designation()),
				log.Identifier(provider.Identifier()),
				log.String("type", t.Name()))
			continue
		}

		f, err := provider.GenerateRandom(w, rng)
		if err != nil {
			return nil, fmt.Errorf("generate %s for %s: %w", t.Name(), w.Designation(), err)
		}
		result = append(result, f)
		chosen = append(chosen, provider)
		remaining--
	}

	if remaining > 0 {
		g.logger.Debug("Provider pool exhausted",
			log.Designation(w.Designation()),
			log.String("type", t.Name()),
			log.Int("missing", remaining))
	}
	return result, nil
}

func (g *Generator) independent(w feature.World, t *feature.Type, chosen []*feature.Provider, rng *rand.Rand) ([]feature.Feature, error) {
	var result []feature.Feature
	for _, provider := range g.registry.ProvidersOf(t) {
		if rng.Intn(provider.Weight()) != 0 {
			continue
		}
		if !compatibleWithAll(provider, chosen) {
			continue
		}
		f, err := provider.GenerateRandom(w, rng)
		if err != nil {
			return nil, fmt.Errorf("generate %s for %s: %w", t.Name(), w.Designation(), err)
		}
		result = append(result, f)
		chosen = append(chosen, provider)
	}
	return result, nil
}

// GenerateWorld fills every type of the taxonomy, in order, with a random number of
// features and files them into c as they are produced, so secondary types filed by
// earlier features are visible to later types.
func (g *Generator) GenerateWorld(c Composer, rng *rand.Rand) error {
	for _, t := range g.registry.Taxonomy().Types() {
		count := t.RandomCount(rng, len(g.registry.ProvidersOf(t))) - len(c.Features(t))
		features, err := g.Generate(c, t, count, rng)
		if err != nil {
			return err
		}
		for _, f := range features {
			if err = c.AddFeature(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// pickWeighted returns an index into pool chosen with probability weight/sum(weight).
// The cumulative table is rebuilt from the current pool on every call.
func pickWeighted(pool []*feature.Provider, rng *rand.Rand) int {
	cumulative := make([]int, len(pool))
	total := 0
	for i, p := range pool {
		total += p.Weight()
		cumulative[i] = total
	}
	r := rng.Intn(total)
	return sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > r })
}

func compatibleWithAll(p *feature.Provider, chosen []*feature.Provider) bool {
	for _, other := range chosen {
		if !feature.Compatible(p, other) {
			return false
		}
	}
	return true
}
