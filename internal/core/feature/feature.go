package feature

import (
	"fmt"
	"math"

	"github.com/zeusync/worldforge/internal/core/tree"
)

// World is the read-only view of a composition that factories receive.
type World interface {
	Designation() string
	Seed() int64
	Features(t *Type) []Feature
}

// Feature is one stateful element of a world.
type Feature interface {
	// Provider identifies where the feature came from. It never owns the provider.
	Provider() *Provider
	// SecondaryTypes lists extra types the feature is filed under besides its provider's type.
	SecondaryTypes() []*Type
	// WriteData serializes the feature state into data.
	WriteData(data tree.Compound)
}

// TypeOf returns the primary type of f.
func TypeOf(f Feature) *Type {
	return f.Provider().Type()
}

// Base carries the provider and world references every feature needs.
// Embed it and override SecondaryTypes / WriteData as required.
type Base struct {
	provider *Provider
	world    World
}

func NewBase(p *Provider, w World) Base {
	return Base{provider: p, world: w}
}

func (b Base) Provider() *Provider       { return b.provider }
func (b Base) World() World              { return b.world }
func (b Base) SecondaryTypes() []*Type   { return nil }
func (b Base) WriteData(_ tree.Compound) {}

// Params are the explicit construction arguments handed to a Construct factory.
// Values typically come from YAML templates, so numeric getters accept any numeric kind.
type Params map[string]any

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return def
	}
}

func (p Params) Int64(key string, def int64) int64 {
	switch v := p[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return def
	}
}

func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	default:
		return def
	}
}

func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Strings accepts []string or []any holding strings.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Color accepts an integer (0xRRGGBB) or a "#RRGGBB" string.
func (p Params) Color(key string, def RGB) RGB {
	if s, ok := p[key].(string); ok {
		var c uint32
		if _, err := fmt.Sscanf(s, "#%06x", &c); err == nil {
			return RGB(c)
		}
		return def
	}
	n := p.Int64(key, math.MinInt64)
	if n == math.MinInt64 || n < 0 {
		return def
	}
	return RGB(n & 0xFFFFFF)
}
