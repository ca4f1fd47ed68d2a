package feature

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"
)

// Registry is the catalog of providers. It is populated during startup, then
// frozen; after that it is only read and is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	taxonomy *Taxonomy
	byID     map[string]*Provider
	byType   map[*Type][]*Provider
	defaults map[*Type]*Provider
	frozen   bool
}

func NewRegistry(taxonomy *Taxonomy) *Registry {
	return &Registry{
		taxonomy: taxonomy,
		byID:     make(map[string]*Provider),
		byType:   make(map[*Type][]*Provider),
		defaults: make(map[*Type]*Provider),
	}
}

func (r *Registry) Taxonomy() *Taxonomy {
	return r.taxonomy
}

func (r *Registry) Register(p *Provider) error {
	if err := p.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, p.identifier)
	}
	if !r.taxonomy.Contains(p.typ) {
		return fmt.Errorf("%w: %s (provider %s)", ErrUnknownType, p.typ.Name(), p.identifier)
	}
	if _, dup := r.byID[p.identifier]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, p.identifier)
	}
	if p.isDefault {
		if existing, ok := r.defaults[p.typ]; ok {
			return fmt.Errorf("%w: %s already defaults to %s", ErrDuplicateDefault, p.typ.Name(), existing.identifier)
		}
		r.defaults[p.typ] = p
	}

	r.byID[p.identifier] = p
	r.byType[p.typ] = append(r.byType[p.typ], p)
	return nil
}

// MustRegister registers every provider and panics on the first failure.
func (r *Registry) MustRegister(providers ...*Provider) {
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
}

// Freeze ends the registration phase.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Lookup(identifier string) (*Provider, bool) {
	r.mu.RLock()
	p, ok := r.byID[identifier]
	r.mu.RUnlock()
	return p, ok
}

// Resolve is Lookup for saved state: a missing identifier is an error.
func (r *Registry) Resolve(identifier string) (*Provider, error) {
	if p, ok := r.Lookup(identifier); ok {
		return p, nil
	}
	return nil, &UnresolvedIdentifierError{Identifier: identifier, Suggestion: r.Suggest(identifier)}
}

// ProvidersOf returns providers whose primary type is t, in registration order.
func (r *Registry) ProvidersOf(t *Type) []*Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.byType[t]
	out := make([]*Provider, len(src))
	copy(out, src)
	return out
}

func (r *Registry) DefaultProviderOf(t *Type) (*Provider, bool) {
	r.mu.RLock()
	p, ok := r.defaults[t]
	r.mu.RUnlock()
	return p, ok
}

// Identifiers returns every registered identifier, sorted.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Suggest returns the registered identifier closest to id, or "" if none is within
// a third of id's length in edit distance.
func (r *Registry) Suggest(id string) string {
	limit := len(id)/3 + 1
	best, bestDist := "", limit+1
	for _, cand := range r.Identifiers() {
		dist := levenshtein.ComputeDistance(id, cand)
		if dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	if bestDist > limit {
		return ""
	}
	return best
}
