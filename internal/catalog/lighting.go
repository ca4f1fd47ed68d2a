package catalog

import (
	"math/rand"

	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/tree"
)

// Lighting maps light levels to brightness on the usual hyperbolic curve,
// lifted by Ambient and scaled by Scale.
type Lighting struct {
	feature.Base
	Ambient float32
	Scale   float32
}

var _ feature.LightingController = (*Lighting)(nil)

func (l *Lighting) PopulateBrightness(table []float32) {
	if len(table) < 2 {
		for i := range table {
			table[i] = l.Scale
		}
		return
	}
	top := float32(len(table) - 1)
	for i := range table {
		f := 1 - float32(i)/top
		v := (1-f)/(f*3+1)*(1-l.Ambient) + l.Ambient
		table[i] = min(v*l.Scale, 1)
	}
}

func (l *Lighting) WriteData(data tree.Compound) {
	data.SetFloat32("ambient", l.Ambient)
	data.SetFloat32("scale", l.Scale)
}

func lightingFactories(ambient, scale float32) feature.Factories {
	return feature.Factories{
		Construct: func(w feature.World, p *feature.Provider, params feature.Params) (feature.Feature, error) {
			return &Lighting{
				Base:    feature.NewBase(p, w),
				Ambient: clamp01(float32(params.Float("ambient", float64(ambient)))),
				Scale:   clamp01(float32(params.Float("scale", float64(scale)))),
			}, nil
		},
		Generate: func(w feature.World, p *feature.Provider, rng *rand.Rand) (feature.Feature, error) {
			return &Lighting{
				Base:    feature.NewBase(p, w),
				Ambient: ambient * rng.Float32(),
				Scale:   scale * (0.8 + rng.Float32()*0.2),
			}, nil
		},
		Load: func(w feature.World, p *feature.Provider, data tree.Compound) (feature.Feature, error) {
			return &Lighting{
				Base:    feature.NewBase(p, w),
				Ambient: data.Float32("ambient"),
				Scale:   data.Float32("scale"),
			}, nil
		},
	}
}
