package generator

import (
	"encoding/binary"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// DeriveSeed mixes a world seed with a salt into a new, stable seed.
func DeriveSeed(seed int64, salt string) int64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))

	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(salt)
	return int64(d.Sum64())
}

// DeriveRand returns a random source that is stable for a given seed and salt.
func DeriveRand(seed int64, salt string) *rand.Rand {
	return rand.New(rand.NewSource(DeriveSeed(seed, salt)))
}
