// Package manager keeps the set of live worlds: it creates, loads, saves and ticks them.
//
// The manager's map is safe for concurrent reads, but the compositions it holds
// follow the single-owner rule: Tick, SaveDirty and every generation call must run
// on the goroutine that drives the world loop.
package manager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/worldforge/internal/core/address"
	"github.com/zeusync/worldforge/internal/core/codec"
	"github.com/zeusync/worldforge/internal/core/events/bus"
	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/generator"
	"github.com/zeusync/worldforge/internal/core/observability/log"
	"github.com/zeusync/worldforge/internal/core/storage"
	"github.com/zeusync/worldforge/internal/core/world"
)

var (
	ErrDesignationTaken = errors.New("designation already registered")
	ErrUnknownWorld     = errors.New("unknown world")
	ErrDimensionTaken   = errors.New("dimension already registered")
)

// FirstDimensionID is the dimension assigned to the first world without one.
const FirstDimensionID int32 = 2

type Manager struct {
	mu     sync.RWMutex
	worlds map[string]*world.Composition
	nextID int32

	gen     *generator.Generator
	store   storage.Storage
	network *address.Network
	logger  log.Log
	events  bus.Bus

	rngMu sync.Mutex
	rng   *rand.Rand

	designationAttempts int
	concurrency         int
}

type Option func(*Manager)

// WithRand replaces the source used for designations, addresses and world seeds.
func WithRand(rng *rand.Rand) Option {
	return func(m *Manager) { m.rng = rng }
}

func WithNetwork(n *address.Network) Option {
	return func(m *Manager) { m.network = n }
}

// WithEvents publishes lifecycle events for every world to b.
func WithEvents(b bus.Bus) Option {
	return func(m *Manager) { m.events = b }
}

func WithDesignationAttempts(n int) Option {
	return func(m *Manager) { m.designationAttempts = n }
}

// WithConcurrency limits the number of worlds loaded or written in parallel.
func WithConcurrency(n int) Option {
	return func(m *Manager) { m.concurrency = n }
}

func New(gen *generator.Generator, store storage.Storage, logger log.Log, opts ...Option) *Manager {
	m := &Manager{
		worlds:              make(map[string]*world.Composition),
		nextID:              FirstDimensionID,
		gen:                 gen,
		store:               store,
		network:             address.NewNetwork(),
		logger:              logger.With(log.String("component", "world_manager")),
		rng:                 rand.New(rand.NewSource(rand.Int63())),
		designationAttempts: generator.DefaultDesignationAttempts,
		concurrency:         8,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Network() *address.Network { return m.network }

// Register adds c to the live set, claiming its designation and address and
// attaching it to a dimension if it has none yet.
func (m *Manager) Register(c *world.Composition) error {
	m.mu.Lock()
	err := m.register(c, false)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.publish(bus.NewEvent(bus.WorldRegistered, c.Designation(), c.DimensionID()))
	return nil
}

// register files c under m.mu. minted is set when c's address was already
// claimed in the network by Mint.
func (m *Manager) register(c *world.Composition, minted bool) error {
	if err := generator.ValidateDesignation(c.Designation()); err != nil {
		return err
	}
	if _, ok := m.worlds[c.Designation()]; ok {
		return fmt.Errorf("%w: %s", ErrDesignationTaken, c.Designation())
	}
	if id := c.DimensionID(); id != 0 && m.dimensionTaken(id) {
		return fmt.Errorf("%w: %d (%s)", ErrDimensionTaken, id, c.Designation())
	}
	if a := c.Address(); !a.IsZero() && !minted {
		if err := m.network.Register(a); err != nil {
			return fmt.Errorf("register %s: %w", c.Designation(), err)
		}
	}

	id := c.DimensionID()
	if id == 0 {
		id = m.nextID
		for m.dimensionTaken(id) {
			id++
		}
	}
	c.Attach(dimension(id))
	if id >= m.nextID {
		m.nextID = id + 1
	}

	m.worlds[c.Designation()] = c
	m.logger.Info("World registered",
		log.Designation(c.Designation()),
		log.String("name", c.DisplayName()),
		log.Int32("dim", c.DimensionID()))
	return nil
}

// publish must not be called with m.mu held: handlers may read the manager.
func (m *Manager) publish(e bus.Event) {
	if m.events == nil {
		return
	}
	if err := m.events.Publish(e); err != nil {
		m.logger.Warn("World event handler failed",
			log.String("event", string(e.Kind)),
			log.Designation(e.Designation),
			log.Error(err))
	}
}

func (m *Manager) dimensionTaken(id int32) bool {
	for _, c := range m.worlds {
		if c.DimensionID() == id {
			return true
		}
	}
	return false
}

type dimension int32

func (d dimension) DimensionID() int32 { return int32(d) }

func (m *Manager) Get(designation string) (*world.Composition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.worlds[designation]
	return c, ok
}

func (m *Manager) ByDimension(id int32) (*world.Composition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.worlds {
		if c.DimensionID() == id {
			return c, true
		}
	}
	return nil, false
}

// Designations returns the registered designations, sorted.
func (m *Manager) Designations() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.worlds))
	for d := range m.worlds {
		out = append(out, d)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.worlds)
}

// Each calls fn for every world in designation order.
func (m *Manager) Each(fn func(c *world.Composition)) {
	for _, d := range m.Designations() {
		if c, ok := m.Get(d); ok {
			fn(c)
		}
	}
}

// Tick advances every world's clock by one unit and lets its weather controllers react.
func (m *Manager) Tick() {
	m.Each(func(c *world.Composition) {
		c.AdvanceTime(1)
		for _, f := range c.Distinct() {
			if wc, ok := f.(feature.WeatherController); ok {
				wc.Tick(c.WorldTime())
			}
		}
	})
}

// GenerateRandom creates, validates and registers a fully random world.
func (m *Manager) GenerateRandom() (*world.Composition, error) {
	c, err := m.generateRandom()
	if err != nil {
		return nil, err
	}
	m.publish(bus.NewEvent(bus.WorldRegistered, c.Designation(), c.DimensionID()))
	return c, nil
}

func (m *Manager) generateRandom() (*world.Composition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rngMu.Lock()
	designation, err := generator.NewDesignation(m.rng, func(d string) bool {
		_, ok := m.worlds[d]
		return ok
	}, m.designationAttempts)
	if err != nil {
		m.rngMu.Unlock()
		return nil, err
	}
	addr, err := m.network.Mint(m.rng, false)
	if err != nil {
		m.rngMu.Unlock()
		return nil, err
	}
	seed := m.rng.Int63()
	m.rngMu.Unlock()

	id := world.Identity{Designation: designation, Address: addr, Seed: seed}
	c, err := world.Random(id, m.gen, generator.DeriveRand(seed, designation))
	if err != nil {
		m.network.Release(addr)
		return nil, err
	}
	if err = m.register(c, true); err != nil {
		m.network.Release(addr)
		return nil, err
	}
	return c, nil
}

// GenerateRandomWorlds creates n random worlds, stopping at the first failure.
func (m *Manager) GenerateRandomWorlds(n int) ([]*world.Composition, error) {
	out := make([]*world.Composition, 0, n)
	for i := 0; i < n; i++ {
		c, err := m.GenerateRandom()
		if err != nil {
			return out, fmt.Errorf("random world %d of %d: %w", i+1, n, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// FromTemplates builds and registers every template whose designation is not
// live yet, so saved worlds take precedence over their templates.
func (m *Manager) FromTemplates(templates []world.Template) ([]*world.Composition, error) {
	var out []*world.Composition
	for _, t := range templates {
		if _, ok := m.Get(t.Designation); ok {
			continue
		}
		c, err := world.FromTemplate(t, m.gen)
		if err != nil {
			return out, err
		}
		if err = m.Register(c); err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Save writes one world and marks it clean.
func (m *Manager) Save(ctx context.Context, designation string) error {
	c, ok := m.Get(designation)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorld, designation)
	}
	var buf bytes.Buffer
	if err := codec.Write(&buf, c); err != nil {
		return err
	}
	if err := m.store.Write(ctx, codec.StorageKey(designation), buf.Bytes()); err != nil {
		return fmt.Errorf("save %s: %w", designation, err)
	}
	c.ClearDirty()
	m.publish(bus.NewEvent(bus.WorldSaved, designation, c.DimensionID()))
	return nil
}

type pending struct {
	c        *world.Composition
	revision uint64
	payload  []byte
	saved    bool
}

// SaveDirty writes every dirty world. Worlds are encoded on the calling goroutine
// and written in parallel; a world stays dirty if its write failed.
func (m *Manager) SaveDirty(ctx context.Context) (int, error) {
	var batch []*pending
	var encodeErrs []error
	m.Each(func(c *world.Composition) {
		if !c.Dirty() {
			return
		}
		var buf bytes.Buffer
		if err := codec.Write(&buf, c); err != nil {
			encodeErrs = append(encodeErrs, err)
			return
		}
		batch = append(batch, &pending{c: c, revision: c.Revision(), payload: buf.Bytes()})
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for _, p := range batch {
		g.Go(func() error {
			if err := m.store.Write(gctx, codec.StorageKey(p.c.Designation()), p.payload); err != nil {
				return fmt.Errorf("save %s: %w", p.c.Designation(), err)
			}
			p.saved = true
			return nil
		})
	}
	writeErr := g.Wait()

	saved := 0
	for _, p := range batch {
		if p.saved && p.c.Revision() == p.revision {
			p.c.ClearDirty()
		}
		if p.saved {
			saved++
			m.publish(bus.NewEvent(bus.WorldSaved, p.c.Designation(), p.c.DimensionID()))
		}
	}
	if saved > 0 {
		m.logger.Debug("Saved dirty worlds", log.Int("count", saved))
	}
	return saved, errors.Join(append(encodeErrs, writeErr)...)
}

// Load reads, decodes and registers one persisted world.
func (m *Manager) Load(ctx context.Context, designation string) (*world.Composition, error) {
	c, err := m.read(ctx, codec.StorageKey(designation))
	if err != nil {
		return nil, err
	}
	if err = m.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *Manager) read(ctx context.Context, key string) (*world.Composition, error) {
	raw, err := m.store.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	c, err := codec.Read(bytes.NewReader(raw), m.gen)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return c, nil
}

// LoadAll decodes every persisted world in parallel and registers the ones that
// decode. A world that fails is logged and skipped; the others are unaffected.
// It returns the number of worlds registered.
func (m *Manager) LoadAll(ctx context.Context) (int, error) {
	keys, err := m.store.Keys(ctx, codec.StorageKey(""))
	if err != nil {
		return 0, err
	}

	loaded := make([]*world.Composition, len(keys))
	failed := make([]error, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			c, err := m.read(gctx, key)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				m.logger.Error("Failed to load world",
					log.String("key", key),
					log.Error(err))
				failed[i] = err
				return nil
			}
			loaded[i] = c
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return 0, err
	}

	count := 0
	for i, c := range loaded {
		if c == nil {
			m.loadFailed(keys[i], failed[i])
			continue
		}
		if err = m.Register(c); err != nil {
			m.logger.Error("Failed to register loaded world",
				log.String("key", keys[i]),
				log.Error(err))
			m.loadFailed(keys[i], err)
			continue
		}
		count++
	}
	m.logger.Info("Worlds loaded", log.Int("count", count), log.Int("stored", len(keys)))
	return count, nil
}

func (m *Manager) loadFailed(key string, err error) {
	e := bus.NewEvent(bus.WorldLoadFailed, strings.TrimPrefix(key, codec.StorageKey("")), 0)
	e.Err = err
	m.publish(e)
}

// Remove drops a world from the live set and releases its address. With purge the
// persisted unit is deleted as well.
func (m *Manager) Remove(ctx context.Context, designation string, purge bool) error {
	m.mu.Lock()
	c, ok := m.worlds[designation]
	if ok {
		delete(m.worlds, designation)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorld, designation)
	}

	if a := c.Address(); !a.IsZero() {
		m.network.Release(a)
	}
	m.publish(bus.NewEvent(bus.WorldRemoved, designation, c.DimensionID()))
	if purge {
		if err := m.store.Delete(ctx, codec.StorageKey(designation)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("remove %s: %w", designation, err)
		}
	}
	m.logger.Info("World removed", log.Designation(designation), log.Bool("purged", purge))
	return nil
}

// Summary lists the live worlds as "designation (name)" for logs.
func (m *Manager) Summary() string {
	var parts []string
	m.Each(func(c *world.Composition) {
		if c.Name() != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", c.Designation(), c.Name()))
			return
		}
		parts = append(parts, c.Designation())
	})
	return strings.Join(parts, ", ")
}
