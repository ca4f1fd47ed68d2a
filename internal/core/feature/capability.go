package feature

import (
	"math/rand"
)

// Capability is a structural requirement a type places on its instances.
type Capability struct {
	name  string
	check func(Feature) bool
}

// NewCapability builds a capability satisfied by features implementing T.
func NewCapability[T any](name string) *Capability {
	return &Capability{
		name: name,
		check: func(f Feature) bool {
			_, ok := f.(T)
			return ok
		},
	}
}

func (c *Capability) Name() string {
	if c == nil {
		return "none"
	}
	return c.name
}

// SatisfiedBy reports whether f meets the capability. A nil capability accepts everything.
func (c *Capability) SatisfiedBy(f Feature) bool {
	if c == nil {
		return f != nil
	}
	return f != nil && c.check(f)
}

// Orbital is a body crossing the sky: suns and moons.
type Orbital interface {
	Feature
	// CelestialAngle is the position in the orbit at worldTime, in [0, 1).
	CelestialAngle(worldTime int64) float64
	// TimeUntilRise is the number of time units until the body next crosses the horizon.
	TimeUntilRise(worldTime int64) int64
}

type WeatherController interface {
	Feature
	Tick(worldTime int64)
	RainStrength() float32
	ThunderStrength() float32
}

// RGB is a packed 0xRRGGBB color.
type RGB uint32

func (c RGB) R() uint8 { return uint8(c >> 16) }
func (c RGB) G() uint8 { return uint8(c >> 8) }
func (c RGB) B() uint8 { return uint8(c) }

// Scale multiplies every channel by f, clamped to [0, 1].
func (c RGB) Scale(f float64) RGB {
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	r := uint32(float64(c.R()) * f)
	g := uint32(float64(c.G()) * f)
	b := uint32(float64(c.B()) * f)
	return RGB(r<<16 | g<<8 | b)
}

// ColorProvider yields a color for a time of day given as a celestial angle.
type ColorProvider interface {
	Feature
	Color(celestialAngle float64) RGB
}

// LightingController fills a light-level to brightness table.
type LightingController interface {
	Feature
	PopulateBrightness(table []float32)
}

// Biome identifies a terrain biome understood by the terrain collaborator.
type Biome int32

const (
	BiomeOcean Biome = iota
	BiomePlains
	BiomeDesert
	BiomeExtremeHills
	BiomeForest
	BiomeTaiga
	BiomeSwampland
	BiomeIcePlains
	BiomeJungle
	BiomeMushroomIsland
)

var biomeNames = [...]string{"ocean", "plains", "desert", "extreme_hills", "forest", "taiga", "swampland", "ice_plains", "jungle", "mushroom_island"}

// Biomes lists every known biome.
func Biomes() []Biome {
	out := make([]Biome, len(biomeNames))
	for i := range biomeNames {
		out[i] = Biome(i)
	}
	return out
}

func (b Biome) String() string {
	if b < 0 || int(b) >= len(biomeNames) {
		return "unknown"
	}
	return biomeNames[b]
}

// ParseBiome resolves a biome by name.
func ParseBiome(name string) (Biome, bool) {
	for i, n := range biomeNames {
		if n == name {
			return Biome(i), true
		}
	}
	return 0, false
}

type BiomeController interface {
	Feature
	BiomeAt(x, z int) Biome
	// BiomesIn fills a width*length area starting at (x, z), reusing buf when large enough.
	BiomesIn(buf []Biome, x, z, width, length int) []Biome
	SpawnBiomes() []Biome
}

// Placement is one block the terrain collaborator should place.
type Placement struct {
	Block string
	X     int
	Y     int
	Z     int
}

type Populator interface {
	Feature
	Populate(chunkX, chunkZ int, rng *rand.Rand) []Placement
}

// Attachable features get a callback once the host dimension for their world exists.
type Attachable interface {
	OnAttach(host Host)
}

// Host is the terrain/dimension collaborator a composition is attached to.
type Host interface {
	DimensionID() int32
}
