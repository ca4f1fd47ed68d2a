package catalog

import (
	"math/rand"

	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/tree"
)

const surfaceLevel = 64

// OreVein scatters veins of one block through a height band of every chunk.
type OreVein struct {
	feature.Base
	Block string
	// Veins is the number of veins per chunk.
	Veins int32
	// Size is the number of blocks per vein.
	Size int32
	MinY int32
	MaxY int32
}

var _ feature.Populator = (*OreVein)(nil)

func (o *OreVein) Populate(chunkX, chunkZ int, rng *rand.Rand) []feature.Placement {
	if o.MaxY < o.MinY || o.Veins <= 0 || o.Size <= 0 {
		return nil
	}
	out := make([]feature.Placement, 0, o.Veins*o.Size)
	for v := int32(0); v < o.Veins; v++ {
		x := chunkX*16 + rng.Intn(16)
		y := int(o.MinY + rng.Int31n(o.MaxY-o.MinY+1))
		z := chunkZ*16 + rng.Intn(16)
		for b := int32(0); b < o.Size; b++ {
			out = append(out, feature.Placement{Block: o.Block, X: x, Y: y, Z: z})
			// random walk to a neighbour
			switch rng.Intn(3) {
			case 0:
				x += rng.Intn(3) - 1
			case 1:
				y = min(max(y+rng.Intn(3)-1, int(o.MinY)), int(o.MaxY))
			default:
				z += rng.Intn(3) - 1
			}
		}
	}
	return out
}

func (o *OreVein) WriteData(data tree.Compound) {
	data.SetString("block", o.Block)
	data.SetInt32("veins", o.Veins)
	data.SetInt32("size", o.Size)
	data.SetInt32("minY", o.MinY)
	data.SetInt32("maxY", o.MaxY)
}

type oreShape struct {
	block      string
	veins      int32
	size       int32
	minY, maxY int32
}

func (s oreShape) factories() feature.Factories {
	return feature.Factories{
		Construct: func(w feature.World, p *feature.Provider, params feature.Params) (feature.Feature, error) {
			return &OreVein{
				Base:  feature.NewBase(p, w),
				Block: s.block,
				Veins: int32(params.Int("veins", int(s.veins))),
				Size:  int32(params.Int("size", int(s.size))),
				MinY:  int32(params.Int("minY", int(s.minY))),
				MaxY:  int32(params.Int("maxY", int(s.maxY))),
			}, nil
		},
		Generate: func(w feature.World, p *feature.Provider, rng *rand.Rand) (feature.Feature, error) {
			return &OreVein{
				Base:  feature.NewBase(p, w),
				Block: s.block,
				Veins: 1 + rng.Int31n(s.veins*2),
				Size:  s.size/2 + rng.Int31n(s.size+1),
				MinY:  s.minY,
				MaxY:  s.maxY,
			}, nil
		},
		Load: func(w feature.World, p *feature.Provider, data tree.Compound) (feature.Feature, error) {
			block := data.String("block")
			if block == "" {
				block = s.block
			}
			return &OreVein{
				Base:  feature.NewBase(p, w),
				Block: block,
				Veins: data.Int32("veins"),
				Size:  data.Int32("size"),
				MinY:  data.Int32("minY"),
				MaxY:  data.Int32("maxY"),
			}, nil
		},
	}
}

var (
	naquadah = oreShape{block: "naquadah_ore", veins: 4, size: 6, minY: 4, maxY: 40}
	trinium  = oreShape{block: "trinium_ore", veins: 2, size: 4, minY: 4, maxY: 24}
)
