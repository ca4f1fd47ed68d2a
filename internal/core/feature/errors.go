package feature

import (
	"errors"
	"fmt"
)

// Fatal composition errors. Every error returned by the core wraps exactly one of these.
var (
	ErrDuplicateIdentifier  = errors.New("duplicate feature identifier")
	ErrUnresolvedIdentifier = errors.New("unresolved feature identifier")
	ErrSingletonViolation   = errors.New("singleton feature type violated")
	ErrMinimumUnmet         = errors.New("minimum feature count unmet")
	ErrTypeMismatch         = errors.New("feature does not satisfy its type capability")
	ErrStructuralViolation  = errors.New("structural violation")

	ErrSingletonSecondary = fmt.Errorf("%w: singleton type used as secondary type", ErrStructuralViolation)
)

// Registry errors
var (
	ErrDuplicateDefault = errors.New("feature type already has a default provider")
	ErrUnknownType      = errors.New("feature type is not part of the taxonomy")
	ErrInvalidProvider  = errors.New("invalid feature provider")
	ErrRegistryFrozen   = errors.New("feature registry is frozen")
	ErrMissingFactory   = errors.New("provider has no factory for this operation")
)

// UnresolvedIdentifierError is returned when saved state names a provider the registry does not know.
type UnresolvedIdentifierError struct {
	Identifier string
	// Suggestion is the closest registered identifier, if any is reasonably close.
	Suggestion string
}

func (e *UnresolvedIdentifierError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %q (did you mean %q?)", ErrUnresolvedIdentifier, e.Identifier, e.Suggestion)
	}
	return fmt.Sprintf("%s: %q", ErrUnresolvedIdentifier, e.Identifier)
}

func (e *UnresolvedIdentifierError) Is(target error) bool {
	return target == ErrUnresolvedIdentifier
}
