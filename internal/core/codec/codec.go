// Package codec converts compositions to and from the tagged tree they are persisted as.
package codec

import (
	"fmt"
	"io"

	"github.com/zeusync/worldforge/internal/core/address"
	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/generator"
	"github.com/zeusync/worldforge/internal/core/tree"
	"github.com/zeusync/worldforge/internal/core/world"
)

// Tree keys of the persisted composition.
const (
	KeyDesignation = "designation"
	KeyName        = "name"
	KeyAddress     = "address"
	KeyDimension   = "dim"
	KeySeed        = "seed"
	KeyWorldTime   = "worldTime"
	KeyFeatures    = "features"
	KeyIdentifier  = "identifier"
	KeyData        = "data"
)

// StorageKey names the persisted unit of a designation.
func StorageKey(designation string) string {
	return "world_" + designation
}

// Encode emits the identity and clock of c and one {identifier, data} entry per
// distinct feature instance.
func Encode(c *world.Composition) tree.Compound {
	root := tree.NewCompound()
	root.SetString(KeyDesignation, c.Designation())
	root.SetString(KeyName, c.Name())
	root.SetString(KeyAddress, c.Address().String())
	root.SetInt32(KeyDimension, c.DimensionID())
	root.SetInt64(KeySeed, c.Seed())
	root.SetInt64(KeyWorldTime, c.WorldTime())

	distinct := c.Distinct()
	entries := make([]tree.Compound, 0, len(distinct))
	for _, f := range distinct {
		data := tree.NewCompound()
		f.WriteData(data)

		entry := tree.NewCompound()
		entry.SetString(KeyIdentifier, f.Provider().Identifier())
		entry.SetCompound(KeyData, data)
		entries = append(entries, entry)
	}
	root.SetList(KeyFeatures, entries)
	return root
}

// Decode rebuilds a composition from root and validates it. Every identifier must
// resolve in the generator's registry; on any failure nothing is returned.
// The result is clean unless validation had to repair it.
func Decode(root tree.Compound, gen *generator.Generator) (*world.Composition, error) {
	designation := root.String(KeyDesignation)
	if designation == "" {
		return nil, fmt.Errorf("%w: missing %s", feature.ErrStructuralViolation, KeyDesignation)
	}

	addr, err := address.Parse(root.String(KeyAddress))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", designation, err)
	}

	c := world.New(world.Identity{
		Designation: designation,
		Name:        root.String(KeyName),
		Address:     addr,
		Seed:        root.Int64(KeySeed),
	}, gen)
	c.SetDimensionID(root.Int32(KeyDimension))
	c.SetWorldTime(root.Int64(KeyWorldTime))

	registry := gen.Registry()
	for i, entry := range root.List(KeyFeatures) {
		p, err := registry.Resolve(entry.String(KeyIdentifier))
		if err != nil {
			return nil, fmt.Errorf("decode %s: feature %d: %w", designation, i, err)
		}
		f, err := p.LoadFromData(c, entry.Compound(KeyData))
		if err != nil {
			return nil, fmt.Errorf("decode %s: feature %d: %w", designation, i, err)
		}
		if err = c.AddFeature(f); err != nil {
			return nil, fmt.Errorf("decode %s: feature %d: %w", designation, i, err)
		}
	}

	loaded := c.Revision()
	if err = world.Validate(c); err != nil {
		return nil, err
	}
	if c.Revision() == loaded {
		c.ClearDirty()
	}
	return c, nil
}

// Write persists c as a compressed stream, wrapped under the "data" key.
func Write(w io.Writer, c *world.Composition) error {
	wrapper := tree.NewCompound()
	wrapper.SetCompound(KeyData, Encode(c))
	if err := tree.WriteCompressed(w, wrapper); err != nil {
		return fmt.Errorf("write %s: %w", c.Designation(), err)
	}
	return nil
}

// Read decodes a stream produced by Write.
func Read(r io.Reader, gen *generator.Generator) (*world.Composition, error) {
	wrapper, err := tree.ReadCompressed(r)
	if err != nil {
		return nil, err
	}
	if !wrapper.Has(KeyData) {
		return nil, fmt.Errorf("%w: missing %s wrapper", tree.ErrCorruptStream, KeyData)
	}
	return Decode(wrapper.Compound(KeyData), gen)
}
