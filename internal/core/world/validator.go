package world

import (
	"errors"
	"fmt"

	"github.com/zeusync/worldforge/internal/core/feature"
)

// Validate repairs c once by filling every type to its minimum, then checks
// that singleton types hold exactly one feature and every type meets its minimum.
// Any violation left after the repair is returned; the composition must then not be used.
func Validate(c *Composition) error {
	if _, err := c.FillToMinimum(); err != nil {
		return fmt.Errorf("validate %s: %w", c.designation, err)
	}

	var errs []error
	for _, t := range c.registry.Taxonomy().Types() {
		count := len(c.features[t])
		switch {
		case t.IsSingleton() && count != 1:
			errs = append(errs, fmt.Errorf("%w: %s has %d instances", feature.ErrSingletonViolation, t, count))
		case count < t.MinCount():
			errs = append(errs, fmt.Errorf("%w: %s has %d of %d", feature.ErrMinimumUnmet, t, count, t.MinCount()))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("validate %s: %w", c.designation, errors.Join(errs...))
	}
	return nil
}
