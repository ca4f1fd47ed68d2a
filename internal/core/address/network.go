package address

import (
	"fmt"
	"math/rand"
	"sync"
)

// DefaultMintAttempts bounds the number of candidates Mint tries.
const DefaultMintAttempts = 10_000

// Network tracks which addresses and dimension prefixes are taken.
type Network struct {
	mu       sync.RWMutex
	used     map[Address]struct{}
	reserved map[[PrefixLength]uint8]Address
}

func NewNetwork() *Network {
	return &Network{
		used:     make(map[Address]struct{}),
		reserved: make(map[[PrefixLength]uint8]Address),
	}
}

func (n *Network) Exists(a Address) bool {
	n.mu.RLock()
	_, ok := n.used[a]
	n.mu.RUnlock()
	return ok
}

// Register claims an address.
func (n *Network) Register(a Address) error {
	if a.IsZero() {
		return fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.used[a]; ok {
		return fmt.Errorf("%w: %s", ErrAddressInUse, a)
	}
	n.used[a] = struct{}{}
	return nil
}

// Release frees an address and any prefix it reserved.
func (n *Network) Release(a Address) {
	n.mu.Lock()
	delete(n.used, a)
	if owner, ok := n.reserved[a.Prefix()]; ok && owner == a {
		delete(n.reserved, a.Prefix())
	}
	n.mu.Unlock()
}

// Mint draws unused addresses until one is free, registering it. With reservePrefix
// the address must also be the first to claim its dimension prefix.
func (n *Network) Mint(rng *rand.Rand, reservePrefix bool) (Address, error) {
	for attempt := 0; attempt < DefaultMintAttempts; attempt++ {
		a := random(rng)

		n.mu.Lock()
		_, inUse := n.used[a]
		_, prefixTaken := n.reserved[a.Prefix()]
		if inUse || (reservePrefix && prefixTaken) {
			n.mu.Unlock()
			continue
		}
		n.used[a] = struct{}{}
		if reservePrefix {
			n.reserved[a.Prefix()] = a
		}
		n.mu.Unlock()
		return a, nil
	}
	return Address{}, ErrNoFreeAddress
}

func random(rng *rand.Rand) Address {
	var a Address
	var used [len(glyphs)]bool
	used[0] = true
	for i := range a.glyphs {
		var s int
		for {
			s = rng.Intn(GlyphCount()) + 1
			if !used[s] {
				break
			}
		}
		used[s] = true
		a.glyphs[i] = uint8(s)
	}
	return a
}
