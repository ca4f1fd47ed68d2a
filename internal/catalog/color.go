package catalog

import (
	"math"
	"math/rand"

	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/tree"
)

// Default colors of the sky, clouds and fog.
const (
	SkyBlue    feature.RGB = 0x78A7FF
	CloudWhite feature.RGB = 0xFFFFFF
	FogBlue    feature.RGB = 0xC0D8FF
)

// Tint is a color (Tone) dimmed by the time of day, never below Floor.
type Tint struct {
	feature.Base
	Tone  feature.RGB
	Floor float64
}

var _ feature.ColorProvider = (*Tint)(nil)

// Color scales Tone by daylight: full at noon, Floor at night.
func (t *Tint) Color(celestialAngle float64) feature.RGB {
	light := math.Cos(celestialAngle*2*math.Pi)*2 + 0.5
	light = min(max(light, t.Floor), 1)
	return t.Tone.Scale(light)
}

func (t *Tint) WriteData(data tree.Compound) {
	data.SetInt32("color", int32(t.Tone))
	data.SetFloat64("floor", t.Floor)
}

func tintFactories(def feature.RGB, floor float64, randomHue bool) feature.Factories {
	f := feature.Factories{
		Construct: func(w feature.World, p *feature.Provider, params feature.Params) (feature.Feature, error) {
			return &Tint{
				Base:  feature.NewBase(p, w),
				Tone:  params.Color("color", def),
				Floor: params.Float("floor", floor),
			}, nil
		},
		Load: func(w feature.World, p *feature.Provider, data tree.Compound) (feature.Feature, error) {
			if len(data) == 0 {
				return &Tint{Base: feature.NewBase(p, w), Tone: def, Floor: floor}, nil
			}
			return &Tint{
				Base:  feature.NewBase(p, w),
				Tone:  feature.RGB(uint32(data.Int32("color")) & 0xFFFFFF),
				Floor: data.Float64("floor"),
			}, nil
		},
	}
	if randomHue {
		f.Generate = func(w feature.World, p *feature.Provider, rng *rand.Rand) (feature.Feature, error) {
			c := feature.RGB(uint32(rng.Intn(256))<<16 | uint32(rng.Intn(256))<<8 | uint32(rng.Intn(256)))
			return &Tint{Base: feature.NewBase(p, w), Tone: c, Floor: rng.Float64() * 0.3}, nil
		}
	}
	return f
}
