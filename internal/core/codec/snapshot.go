package codec

import (
	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/tree"
	"github.com/zeusync/worldforge/internal/core/world"
)

// Snapshot is the world-data payload pushed to observers. It carries the same
// fields as the persisted root so a receiver can mirror the composition read-only.
type Snapshot struct {
	Designation string            `json:"designation"`
	Name        string            `json:"name,omitempty"`
	Address     string            `json:"address,omitempty"`
	Dimension   int32             `json:"dim"`
	Seed        int64             `json:"seed"`
	WorldTime   int64             `json:"worldTime"`
	Revision    uint64            `json:"revision"`
	Features    []SnapshotFeature `json:"features"`
}

type SnapshotFeature struct {
	Identifier string        `json:"identifier"`
	Type       string        `json:"type"`
	Secondary  []string      `json:"secondary,omitempty"`
	Data       tree.Compound `json:"data,omitempty"`
}

// TakeSnapshot must run on the goroutine that owns c.
func TakeSnapshot(c *world.Composition) Snapshot {
	s := Snapshot{
		Designation: c.Designation(),
		Name:        c.Name(),
		Address:     c.Address().String(),
		Dimension:   c.DimensionID(),
		Seed:        c.Seed(),
		WorldTime:   c.WorldTime(),
		Revision:    c.Revision(),
	}
	for _, f := range c.Distinct() {
		data := tree.NewCompound()
		f.WriteData(data)
		sf := SnapshotFeature{
			Identifier: f.Provider().Identifier(),
			Type:       feature.TypeOf(f).Name(),
			Data:       data,
		}
		for _, t := range f.SecondaryTypes() {
			sf.Secondary = append(sf.Secondary, t.Name())
		}
		s.Features = append(s.Features, sf)
	}
	return s
}
