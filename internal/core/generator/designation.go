package generator

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrDesignationsExhausted = errors.New("no free designation found")
	ErrInvalidDesignation    = errors.New("invalid designation")
)

// DefaultDesignationAttempts bounds how many candidates NewDesignation tries.
const DefaultDesignationAttempts = 10_000

// NewDesignation mints a designation of the form P<1-9><A-Z>-<1-9><1-9><1-9>
// for which taken reports false.
func NewDesignation(rng *rand.Rand, taken func(string) bool, attempts int) (string, error) {
	if attempts <= 0 {
		attempts = DefaultDesignationAttempts
	}
	for i := 0; i < attempts; i++ {
		d := fmt.Sprintf("P%d%c-%d%d%d",
			rng.Intn(9)+1,
			'A'+rune(rng.Intn(26)),
			rng.Intn(9)+1, rng.Intn(9)+1, rng.Intn(9)+1)
		if taken == nil || !taken(d) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrDesignationsExhausted, attempts)
}

// ValidateDesignation accepts letters, digits, '-', '_' and '.', the characters
// a designation may carry into its storage key and save folder.
func ValidateDesignation(d string) error {
	if d == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDesignation)
	}
	for _, r := range d {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidDesignation, d)
		}
	}
	return nil
}
