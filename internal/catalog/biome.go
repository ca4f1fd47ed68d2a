package catalog

import (
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/generator"
	"github.com/zeusync/worldforge/internal/core/tree"
)

var spawnable = []feature.Biome{feature.BiomeForest, feature.BiomePlains, feature.BiomeTaiga, feature.BiomeJungle}

// BiomeSingle covers the whole world with one biome.
type BiomeSingle struct {
	feature.Base
	Biome feature.Biome
}

var _ feature.BiomeController = (*BiomeSingle)(nil)

func (b *BiomeSingle) BiomeAt(int, int) feature.Biome { return b.Biome }

func (b *BiomeSingle) BiomesIn(buf []feature.Biome, _, _, width, length int) []feature.Biome {
	buf = sized(buf, width*length)
	for i := range buf {
		buf[i] = b.Biome
	}
	return buf
}

func (b *BiomeSingle) SpawnBiomes() []feature.Biome {
	return []feature.Biome{b.Biome}
}

func (b *BiomeSingle) WriteData(data tree.Compound) {
	data.SetInt32("biome", int32(b.Biome))
}

func parseBiome(params feature.Params, key string, def feature.Biome) (feature.Biome, error) {
	if !params.Has(key) {
		return def, nil
	}
	if name := params.String(key, ""); name != "" {
		b, ok := feature.ParseBiome(name)
		if !ok {
			return 0, fmt.Errorf("unknown biome %q", name)
		}
		return b, nil
	}
	return feature.Biome(params.Int(key, int(def))), nil
}

var biomeSingleFactories = feature.Factories{
	Construct: func(w feature.World, p *feature.Provider, params feature.Params) (feature.Feature, error) {
		b, err := parseBiome(params, "biome", feature.BiomePlains)
		if err != nil {
			return nil, err
		}
		return &BiomeSingle{Base: feature.NewBase(p, w), Biome: b}, nil
	},
	Generate: func(w feature.World, p *feature.Provider, rng *rand.Rand) (feature.Feature, error) {
		all := feature.Biomes()
		return &BiomeSingle{Base: feature.NewBase(p, w), Biome: all[rng.Intn(len(all))]}, nil
	},
	Load: func(w feature.World, p *feature.Provider, data tree.Compound) (feature.Feature, error) {
		return &BiomeSingle{Base: feature.NewBase(p, w), Biome: feature.Biome(data.Int32("biome"))}, nil
	},
}

// BiomeSized lays out square cells of 2^(Zoom+4) blocks, each holding one of Allowed.
// The layout is a pure function of the world seed, prepared when the world attaches.
type BiomeSized struct {
	feature.Base
	Zoom    int32
	Allowed []feature.Biome

	salt     uint64
	prepared bool
}

var (
	_ feature.BiomeController = (*BiomeSized)(nil)
	_ feature.Attachable      = (*BiomeSized)(nil)
)

func (b *BiomeSized) OnAttach(feature.Host) {
	b.prepare()
}

func (b *BiomeSized) prepare() {
	if b.prepared {
		return
	}
	b.salt = uint64(generator.DeriveSeed(b.World().Seed(), "biome_sized"))
	b.prepared = true
}

func (b *BiomeSized) BiomeAt(x, z int) feature.Biome {
	b.prepare()
	shift := uint(b.Zoom) + 4
	return b.cell(x>>shift, z>>shift)
}

func (b *BiomeSized) cell(cx, cz int) feature.Biome {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], b.salt)
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(cx)))
	binary.LittleEndian.PutUint64(buf[16:], uint64(int64(cz)))
	return b.Allowed[xxhash.Sum64(buf[:])%uint64(len(b.Allowed))]
}

func (b *BiomeSized) BiomesIn(buf []feature.Biome, x, z, width, length int) []feature.Biome {
	buf = sized(buf, width*length)
	for dz := 0; dz < length; dz++ {
		for dx := 0; dx < width; dx++ {
			buf[dx+dz*width] = b.BiomeAt(x+dx, z+dz)
		}
	}
	return buf
}

func (b *BiomeSized) SpawnBiomes() []feature.Biome {
	var out []feature.Biome
	for _, s := range spawnable {
		for _, a := range b.Allowed {
			if a == s {
				out = append(out, s)
				break
			}
		}
	}
	if len(out) == 0 {
		return append([]feature.Biome(nil), b.Allowed...)
	}
	return out
}

func (b *BiomeSized) WriteData(data tree.Compound) {
	ids := make([]int32, len(b.Allowed))
	for i, a := range b.Allowed {
		ids[i] = int32(a)
	}
	data.SetInt32s("biomes", ids)
	data.SetInt32("zoomFactor", b.Zoom)
}

const maxBiomeZoom = 6

var biomeSizedFactories = feature.Factories{
	Construct: func(w feature.World, p *feature.Provider, params feature.Params) (feature.Feature, error) {
		b := &BiomeSized{Base: feature.NewBase(p, w), Zoom: int32(params.Int("zoom", 2))}
		for _, name := range params.Strings("biomes") {
			biome, ok := feature.ParseBiome(name)
			if !ok {
				return nil, fmt.Errorf("unknown biome %q", name)
			}
			b.Allowed = append(b.Allowed, biome)
		}
		if len(b.Allowed) == 0 {
			b.Allowed = feature.Biomes()
		}
		return b, nil
	},
	Generate: func(w feature.World, p *feature.Provider, rng *rand.Rand) (feature.Feature, error) {
		all := feature.Biomes()
		rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		return &BiomeSized{
			Base:    feature.NewBase(p, w),
			Zoom:    rng.Int31n(maxBiomeZoom + 1),
			Allowed: all[:rng.Intn(len(all)-3)+3],
		}, nil
	},
	Load: func(w feature.World, p *feature.Provider, data tree.Compound) (feature.Feature, error) {
		b := &BiomeSized{Base: feature.NewBase(p, w), Zoom: data.Int32("zoomFactor")}
		for _, id := range data.Int32s("biomes") {
			b.Allowed = append(b.Allowed, feature.Biome(id))
		}
		if len(b.Allowed) == 0 {
			return nil, fmt.Errorf("saved biome layout lists no biomes")
		}
		return b, nil
	},
}

func sized(buf []feature.Biome, n int) []feature.Biome {
	if cap(buf) < n {
		return make([]feature.Biome, n)
	}
	return buf[:n]
}
