package catalog

import (
	"fmt"
	"math/rand"

	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/generator"
	"github.com/zeusync/worldforge/internal/core/tree"
)

// strengthStep is how far rain and thunder strength move towards their target per tick.
const strengthStep = 0.01

// Rain alternates between dry and rainy spells of random length. Thunder only
// happens while it rains.
type Rain struct {
	feature.Base
	// MinSpell and MaxSpell bound the length of a spell, in time units.
	MinSpell int32
	MaxSpell int32
	// ThunderChance is the 1-in-N chance that a rainy spell brings thunder.
	ThunderChance int32

	Raining      bool
	Thunder      bool
	Remaining    int32
	RainLevel    float32
	ThunderLevel float32
}

var _ feature.WeatherController = (*Rain)(nil)

// Tick is deterministic: the next spell is drawn from the world seed and the
// time the previous spell ended.
func (r *Rain) Tick(worldTime int64) {
	r.Remaining--
	if r.Remaining <= 0 {
		rng := generator.DeriveRand(r.World().Seed(), fmt.Sprintf("rain:%d", worldTime))
		r.Raining = !r.Raining
		r.Thunder = r.Raining && r.ThunderChance > 0 && rng.Int31n(r.ThunderChance) == 0
		r.Remaining = spell(rng, r.MinSpell, r.MaxSpell)
	}
	r.RainLevel = approach(r.RainLevel, r.Raining)
	r.ThunderLevel = approach(r.ThunderLevel, r.Thunder)
}

func (r *Rain) RainStrength() float32    { return r.RainLevel }
func (r *Rain) ThunderStrength() float32 { return r.ThunderLevel * r.RainLevel }

func (r *Rain) WriteData(data tree.Compound) {
	data.SetInt32("minSpell", r.MinSpell)
	data.SetInt32("maxSpell", r.MaxSpell)
	data.SetInt32("thunderChance", r.ThunderChance)
	data.SetBool("raining", r.Raining)
	data.SetBool("thundering", r.Thunder)
	data.SetInt32("remaining", r.Remaining)
	data.SetFloat32("rain", r.RainLevel)
	data.SetFloat32("thunder", r.ThunderLevel)
}

func spell(rng *rand.Rand, lo, hi int32) int32 {
	if hi <= lo {
		return max(lo, 1)
	}
	return lo + rng.Int31n(hi-lo+1)
}

func approach(v float32, on bool) float32 {
	if on {
		return min(v+strengthStep, 1)
	}
	return max(v-strengthStep, 0)
}

var rainFactories = feature.Factories{
	Construct: func(w feature.World, p *feature.Provider, params feature.Params) (feature.Feature, error) {
		r := &Rain{
			Base:          feature.NewBase(p, w),
			MinSpell:      int32(params.Int("minSpell", 12000)),
			MaxSpell:      int32(params.Int("maxSpell", 180000)),
			ThunderChance: int32(params.Int("thunderChance", 5)),
		}
		if r.MaxSpell < r.MinSpell {
			return nil, fmt.Errorf("maxSpell %d below minSpell %d", r.MaxSpell, r.MinSpell)
		}
		r.Remaining = spell(generator.DeriveRand(w.Seed(), "rain"), r.MinSpell, r.MaxSpell)
		return r, nil
	},
	Generate: func(w feature.World, p *feature.Provider, rng *rand.Rand) (feature.Feature, error) {
		lo := 6000 + rng.Int31n(12000)
		r := &Rain{
			Base:          feature.NewBase(p, w),
			MinSpell:      lo,
			MaxSpell:      lo + 24000 + rng.Int31n(150000),
			ThunderChance: 1 + rng.Int31n(10),
		}
		r.Remaining = spell(rng, r.MinSpell, r.MaxSpell)
		return r, nil
	},
	Load: func(w feature.World, p *feature.Provider, data tree.Compound) (feature.Feature, error) {
		return &Rain{
			Base:          feature.NewBase(p, w),
			MinSpell:      data.Int32("minSpell"),
			MaxSpell:      data.Int32("maxSpell"),
			ThunderChance: data.Int32("thunderChance"),
			Raining:       data.Bool("raining"),
			Thunder:       data.Bool("thundering"),
			Remaining:     data.Int32("remaining"),
			RainLevel:     data.Float32("rain"),
			ThunderLevel:  data.Float32("thunder"),
		}, nil
	},
}

// Drought never rains. It has no state.
type Drought struct {
	feature.Base
}

var _ feature.WeatherController = (*Drought)(nil)

func (*Drought) Tick(int64)               {}
func (*Drought) RainStrength() float32    { return 0 }
func (*Drought) ThunderStrength() float32 { return 0 }

var droughtFactories = feature.Factories{
	Construct: func(w feature.World, p *feature.Provider, _ feature.Params) (feature.Feature, error) {
		return &Drought{Base: feature.NewBase(p, w)}, nil
	},
}

// Ashfall is a steady fall of volcanic ash. Besides controlling the weather it
// covers the ground with ash, so it is also filed as a populator.
type Ashfall struct {
	feature.Base
	Intensity float32
	// Depth is the number of ash layers per column.
	Depth int32
}

var (
	_ feature.WeatherController = (*Ashfall)(nil)
	_ feature.Populator         = (*Ashfall)(nil)
)

func (*Ashfall) Tick(int64)                 {}
func (a *Ashfall) RainStrength() float32    { return a.Intensity }
func (a *Ashfall) ThunderStrength() float32 { return 0 }

func (a *Ashfall) SecondaryTypes() []*feature.Type {
	return []*feature.Type{feature.Populate}
}

// Populate drops ash on a sparse, intensity-driven subset of the chunk's columns.
func (a *Ashfall) Populate(chunkX, chunkZ int, rng *rand.Rand) []feature.Placement {
	var out []feature.Placement
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			if rng.Float32() >= a.Intensity {
				continue
			}
			for y := int32(0); y < a.Depth; y++ {
				out = append(out, feature.Placement{
					Block: "ash",
					X:     chunkX*16 + x,
					Y:     surfaceLevel + int(y),
					Z:     chunkZ*16 + z,
				})
			}
		}
	}
	return out
}

func (a *Ashfall) WriteData(data tree.Compound) {
	data.SetFloat32("intensity", a.Intensity)
	data.SetInt32("depth", a.Depth)
}

var ashFactories = feature.Factories{
	Construct: func(w feature.World, p *feature.Provider, params feature.Params) (feature.Feature, error) {
		return &Ashfall{
			Base:      feature.NewBase(p, w),
			Intensity: clamp01(float32(params.Float("intensity", 0.3))),
			Depth:     int32(params.Int("depth", 1)),
		}, nil
	},
	Generate: func(w feature.World, p *feature.Provider, rng *rand.Rand) (feature.Feature, error) {
		return &Ashfall{
			Base:      feature.NewBase(p, w),
			Intensity: 0.1 + rng.Float32()*0.5,
			Depth:     1 + rng.Int31n(3),
		}, nil
	},
	Load: func(w feature.World, p *feature.Provider, data tree.Compound) (feature.Feature, error) {
		return &Ashfall{
			Base:      feature.NewBase(p, w),
			Intensity: clamp01(data.Float32("intensity")),
			Depth:     data.Int32("depth"),
		}, nil
	},
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
