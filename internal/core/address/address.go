// Package address mints and parses world addresses: eight distinct glyphs out of
// a 39-glyph alphabet. Glyph 0 is reserved and never part of an address.
package address

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Length is the number of glyphs in an address.
const Length = 8

// PrefixLength is the number of leading glyphs identifying a dimension block.
const PrefixLength = 3

var glyphs = [...]string{
	"", // reserved
	"Aaxel", "Abrin", "Acjesis", "Aldeni", "Alura", "Amiwill", "Arami", "Avoniv",
	"Baselai", "Bydo", "Caeden", "Calbrei", "Croecom", "Danami", "Dawnre", "Ecrumig",
	"Elenami", "Erpvabrei", "Gilltin", "Hacemill", "Hamlinto", "Illume", "Laylox", "Lenchan",
	"Olavii", "Once", "Poco", "Ramnon", "Recktic", "Robandus", "Roehi", "Salma",
	"Sandovi", "Setas", "Sibbron", "Tahnan", "Zamilloz", "Zeo", "At",
}

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrAddressInUse   = errors.New("address already in use")
	ErrPrefixReserved = errors.New("address prefix already reserved")
	ErrNoFreeAddress  = errors.New("no free address found")
)

// GlyphCount is the number of usable glyphs.
func GlyphCount() int {
	return len(glyphs) - 1
}

// Address is an ordered set of distinct glyph indexes. The zero value is "no address".
type Address struct {
	glyphs [Length]uint8
}

// New builds an address from glyph indexes in [1, GlyphCount()], all distinct.
func New(symbols ...uint8) (Address, error) {
	var a Address
	if len(symbols) != Length {
		return a, fmt.Errorf("%w: need %d glyphs, got %d", ErrInvalidAddress, Length, len(symbols))
	}
	var seen [len(glyphs)]bool
	for i, s := range symbols {
		if s == 0 || int(s) >= len(glyphs) {
			return Address{}, fmt.Errorf("%w: glyph %d out of range", ErrInvalidAddress, s)
		}
		if seen[s] {
			return Address{}, fmt.Errorf("%w: glyph %s repeated", ErrInvalidAddress, glyphs[s])
		}
		seen[s] = true
		a.glyphs[i] = s
	}
	return a, nil
}

func (a Address) IsZero() bool {
	return a.glyphs[0] == 0
}

func (a Address) Glyphs() []uint8 {
	out := make([]uint8, Length)
	copy(out, a.glyphs[:])
	return out
}

// Prefix is the dimension block the address belongs to.
func (a Address) Prefix() [PrefixLength]uint8 {
	var p [PrefixLength]uint8
	copy(p[:], a.glyphs[:PrefixLength])
	return p
}

// String renders glyph names joined by '-'. The zero address renders as "".
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	names := make([]string, Length)
	for i, g := range a.glyphs {
		names[i] = glyphs[g]
	}
	return strings.Join(names, "-")
}

// Parse reads an address written by String. Glyph names match case-insensitively
// and may be separated by '-' or whitespace. The empty string parses to the zero address.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == ' ' || r == '\t'
	})
	symbols := make([]uint8, 0, len(parts))
	for _, part := range parts {
		g, ok := lookupGlyph(part)
		if !ok {
			return Address{}, fmt.Errorf("%w: unknown glyph %q", ErrInvalidAddress, part)
		}
		symbols = append(symbols, g)
	}
	return New(symbols...)
}

func lookupGlyph(name string) (uint8, bool) {
	// Casers keep state, so each lookup gets its own.
	folder := cases.Fold()
	want := folder.String(name)
	for i := 1; i < len(glyphs); i++ {
		if folder.String(glyphs[i]) == want {
			return uint8(i), true
		}
	}
	return 0, false
}
