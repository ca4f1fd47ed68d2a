// Package tree implements the tagged tree used to persist world state.
//
// A Compound maps keys to values drawn from a closed set of tag kinds:
// bool, int32, int64, float32, float64, string, []byte, []int32, Compound and
// []Compound. Getters are lenient in the same way the persisted format is:
// a missing or differently typed key yields the zero value.
package tree

import (
	"fmt"
	"sort"
)

type Compound map[string]any

// NewCompound returns an empty compound.
func NewCompound() Compound {
	return make(Compound)
}

func (c Compound) SetBool(key string, v bool)       { c[key] = v }
func (c Compound) SetInt32(key string, v int32)     { c[key] = v }
func (c Compound) SetInt64(key string, v int64)     { c[key] = v }
func (c Compound) SetFloat32(key string, v float32) { c[key] = v }
func (c Compound) SetFloat64(key string, v float64) { c[key] = v }
func (c Compound) SetString(key string, v string)   { c[key] = v }

func (c Compound) SetBytes(key string, v []byte) {
	c[key] = append([]byte(nil), v...)
}

func (c Compound) SetInt32s(key string, v []int32) {
	c[key] = append([]int32(nil), v...)
}

func (c Compound) SetCompound(key string, v Compound) {
	if v == nil {
		v = NewCompound()
	}
	c[key] = v
}

func (c Compound) SetList(key string, v []Compound) {
	if v == nil {
		v = []Compound{}
	}
	c[key] = v
}

func (c Compound) Has(key string) bool {
	_, ok := c[key]
	return ok
}

func (c Compound) Bool(key string) bool {
	v, _ := c[key].(bool)
	return v
}

func (c Compound) Int32(key string) int32 {
	v, _ := c[key].(int32)
	return v
}

func (c Compound) Int64(key string) int64 {
	v, _ := c[key].(int64)
	return v
}

func (c Compound) Float32(key string) float32 {
	v, _ := c[key].(float32)
	return v
}

func (c Compound) Float64(key string) float64 {
	v, _ := c[key].(float64)
	return v
}

func (c Compound) String(key string) string {
	v, _ := c[key].(string)
	return v
}

func (c Compound) Bytes(key string) []byte {
	v, _ := c[key].([]byte)
	return v
}

func (c Compound) Int32s(key string) []int32 {
	v, _ := c[key].([]int32)
	return v
}

// Compound returns the nested compound under key, or an empty one.
func (c Compound) Compound(key string) Compound {
	v, ok := c[key].(Compound)
	if !ok || v == nil {
		return NewCompound()
	}
	return v
}

func (c Compound) List(key string) []Compound {
	v, _ := c[key].([]Compound)
	return v
}

// Keys returns the keys in sorted order.
func (c Compound) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate reports the first value whose kind is not a supported tag.
func (c Compound) Validate() error {
	for _, k := range c.Keys() {
		switch v := c[k].(type) {
		case bool, int32, int64, float32, float64, string, []byte, []int32:
		case Compound:
			if err := v.Validate(); err != nil {
				return fmt.Errorf("%s.%w", k, err)
			}
		case []Compound:
			for i, e := range v {
				if err := e.Validate(); err != nil {
					return fmt.Errorf("%s[%d].%w", k, i, err)
				}
			}
		default:
			return fmt.Errorf("%s: %w (%T)", k, ErrUnsupportedTag, v)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c Compound) Clone() Compound {
	out := make(Compound, len(c))
	for k, v := range c {
		switch vv := v.(type) {
		case []byte:
			out[k] = append([]byte(nil), vv...)
		case []int32:
			out[k] = append([]int32(nil), vv...)
		case Compound:
			out[k] = vv.Clone()
		case []Compound:
			list := make([]Compound, len(vv))
			for i, e := range vv {
				list[i] = e.Clone()
			}
			out[k] = list
		default:
			out[k] = v
		}
	}
	return out
}
