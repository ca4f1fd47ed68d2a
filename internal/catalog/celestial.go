package catalog

import (
	"math"
	"math/rand"

	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/tree"
)

// DayLength is the number of time units in a standard day.
const DayLength = 24000

// Body is a sun or moon crossing the sky on a circular orbit.
type Body struct {
	feature.Base
	// Size is the rendered size in pixels.
	Size int32
	// Angle tilts the orbit plane, in degrees.
	Angle float32
	// Period is the orbit duration in time units.
	Period int64
	// Offset shifts the orbit phase, as a fraction of a period.
	Offset float32
}

var _ feature.Orbital = (*Body)(nil)

// phase is the unsmoothed position in the orbit, in [0, 1).
func (b *Body) phase(worldTime int64) float64 {
	p := float64(worldTime%b.Period)/float64(b.Period) + float64(b.Offset)
	p -= math.Floor(p)
	return p
}

// CelestialAngle eases the phase so the body lingers near the horizon.
func (b *Body) CelestialAngle(worldTime int64) float64 {
	f := b.phase(worldTime) - 0.25
	if f < 0 {
		f++
	}
	eased := 1 - (math.Cos(f*math.Pi)+1)/2
	return f + (eased-f)/3
}

// TimeUntilRise counts down to the next phase wrap, where the body crosses the horizon.
func (b *Body) TimeUntilRise(worldTime int64) int64 {
	remaining := int64(math.Ceil((1 - b.phase(worldTime)) * float64(b.Period)))
	if remaining >= b.Period {
		return 0
	}
	return remaining
}

func (b *Body) WriteData(data tree.Compound) {
	data.SetInt32("size", b.Size)
	data.SetFloat32("angle", b.Angle)
	data.SetInt64("orbitPeriod", b.Period)
	data.SetFloat32("offset", b.Offset)
}

// bodyShape holds the defaults and random ranges of one kind of body.
type bodyShape struct {
	size      int32
	sizeRange int32
	period    int64
	// periodJitter widens the random period around period, as a fraction of it.
	periodJitter float64
}

func (s bodyShape) factories() feature.Factories {
	return feature.Factories{
		Construct: func(w feature.World, p *feature.Provider, params feature.Params) (feature.Feature, error) {
			return s.normalize(&Body{
				Base:   feature.NewBase(p, w),
				Size:   int32(params.Int("size", int(s.size))),
				Angle:  float32(params.Float("angle", 0)),
				Period: params.Int64("orbitPeriod", s.period),
				Offset: float32(params.Float("offset", 0)),
			}), nil
		},
		Generate: func(w feature.World, p *feature.Provider, rng *rand.Rand) (feature.Feature, error) {
			jitter := (rng.Float64()*2 - 1) * s.periodJitter
			return s.normalize(&Body{
				Base:   feature.NewBase(p, w),
				Size:   s.size + rng.Int31n(s.sizeRange+1) - s.sizeRange/2,
				Angle:  float32(rng.Float64()*90 - 45),
				Period: int64(float64(s.period) * (1 + jitter)),
				Offset: rng.Float32(),
			}), nil
		},
		Load: func(w feature.World, p *feature.Provider, data tree.Compound) (feature.Feature, error) {
			return s.normalize(&Body{
				Base:   feature.NewBase(p, w),
				Size:   data.Int32("size"),
				Angle:  data.Float32("angle"),
				Period: data.Int64("orbitPeriod"),
				Offset: data.Float32("offset"),
			}), nil
		},
	}
}

func (s bodyShape) normalize(b *Body) *Body {
	if b.Period <= 0 {
		b.Period = s.period
	}
	if b.Size <= 0 {
		b.Size = 1
	}
	return b
}

var (
	normalSun  = bodyShape{size: 30, sizeRange: 10, period: DayLength, periodJitter: 0.25}
	dimSun     = bodyShape{size: 18, sizeRange: 8, period: DayLength * 3 / 2, periodJitter: 0.5}
	normalMoon = bodyShape{size: 20, sizeRange: 16, period: DayLength, periodJitter: 0.8}
	largeMoon  = bodyShape{size: 45, sizeRange: 20, period: DayLength * 4, periodJitter: 0.5}
)
