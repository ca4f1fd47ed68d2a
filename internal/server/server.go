// Package server pushes world data to websocket observers.
//
// HTTP goroutines never touch a composition. They only look up whether a world
// exists; snapshots are taken in Tick, which runs on the world loop goroutine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/worldforge/internal/core/codec"
	"github.com/zeusync/worldforge/internal/core/events/bus"
	"github.com/zeusync/worldforge/internal/core/observability/log"
	"github.com/zeusync/worldforge/internal/core/world"
)

// Worlds is the live set of worlds the server publishes.
type Worlds interface {
	Get(designation string) (*world.Composition, bool)
	Designations() []string
}

// Config holds server configuration
type Config struct {
	ListenAddr string
	// SyncInterval is N: changed worlds are pushed at most every N ticks.
	SyncInterval int
	MaxObservers int

	SendBuffer     int
	MaxMessageSize int64
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	PongTimeout    time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8080",
		SyncInterval:   20,
		MaxObservers:   1000,
		SendBuffer:     16,
		MaxMessageSize: 4096,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    60 * time.Second,
	}
}

func (c Config) Validate() error {
	switch {
	case c.SyncInterval <= 0:
		return fmt.Errorf("%w: sync interval must be positive", ErrInvalidConfig)
	case c.MaxObservers <= 0:
		return fmt.Errorf("%w: max observers must be positive", ErrInvalidConfig)
	case c.SendBuffer <= 0:
		return fmt.Errorf("%w: send buffer must be positive", ErrInvalidConfig)
	case c.PingInterval <= 0 || c.PongTimeout <= c.PingInterval:
		return fmt.Errorf("%w: pong timeout must exceed a positive ping interval", ErrInvalidConfig)
	}
	return nil
}

// Message is the envelope of everything sent to observers.
type Message struct {
	Type  string          `json:"type"`
	World *codec.Snapshot `json:"world,omitempty"`
}

const MessageWorldData = "world_data"

type Server struct {
	config Config
	worlds Worlds
	auth   Authenticator
	logger log.Log
	events bus.Bus
	sub    bus.Subscription

	upgrader websocket.Upgrader
	http     *http.Server

	mu        sync.Mutex
	observers map[string]map[uuid.UUID]*observer
	pending   []*observer
	pushed    map[string]uint64
	ticks     uint64
	count     int64 // atomic

	running int32 // atomic bool
	closed  int32 // atomic bool
}

type Option func(*Server)

func WithAuthenticator(a Authenticator) Option {
	return func(s *Server) { s.auth = a }
}

// WithEvents disconnects the observers of a world as soon as it is removed,
// instead of at the next sync tick.
func WithEvents(b bus.Bus) Option {
	return func(s *Server) { s.events = b }
}

func NewServer(config Config, worlds Worlds, logger log.Log, opts ...Option) *Server {
	s := &Server{
		config:    config,
		worlds:    worlds,
		auth:      TokenAuth{},
		logger:    logger.With(log.String("component", "sync_server")),
		observers: make(map[string]map[uuid.UUID]*observer),
		pushed:    make(map[string]uint64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events != nil {
		sub, err := s.events.Subscribe(bus.WorldRemoved, func(e bus.Event) error {
			s.dropWorld(e.Designation)
			return nil
		})
		if err != nil {
			s.logger.Warn("Failed to subscribe to world events", log.Error(err))
		}
		s.sub = sub
	}
	return s
}

// Handler routes GET /worlds (designation list) and GET /worlds/{designation} (websocket).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /worlds", s.handleList)
	mux.HandleFunc("GET /worlds/{designation}", s.handleObserve)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return err
	}

	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Sync server stopped", log.Error(err))
		}
	}()

	s.logger.Info("Sync server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Stop shuts the HTTP server down and disconnects every observer.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}
	s.logger.Info("Stopping sync server")

	err := s.http.Shutdown(ctx)
	s.mu.Lock()
	for _, set := range s.observers {
		for _, o := range set {
			o.close()
		}
	}
	for _, o := range s.pending {
		o.close()
	}
	s.mu.Unlock()
	return err
}

// Close stops the server if it is running and prevents restarts.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if s.events != nil {
		_ = s.events.Unsubscribe(s.sub)
	}
	if atomic.LoadInt32(&s.running) == 1 {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
		defer cancel()
		return s.Stop(ctx)
	}
	return nil
}

// ObserverCount includes observers still waiting for their first snapshot.
func (s *Server) ObserverCount() int {
	return int(atomic.LoadInt64(&s.count))
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]string{"worlds": s.worlds.Designations()}); err != nil {
		s.logger.Debug("Failed to write world list", log.Error(err))
	}
}

func (s *Server) handleObserve(w http.ResponseWriter, r *http.Request) {
	designation := r.PathValue("designation")
	if _, ok := s.worlds.Get(designation); !ok {
		http.Error(w, ErrWorldNotFound.Error(), http.StatusNotFound)
		return
	}
	if err := s.auth.Authenticate(r, designation); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if s.ObserverCount() >= s.config.MaxObservers {
		s.logger.Warn("Maximum observers reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxObserversReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("Websocket upgrade failed", log.Error(err))
		return
	}

	o := newObserver(designation, conn, s.config.SendBuffer)
	s.mu.Lock()
	s.pending = append(s.pending, o)
	s.mu.Unlock()
	atomic.AddInt64(&s.count, 1)

	s.logger.Info("Observer connected",
		log.String("observer_id", o.id.String()),
		log.Designation(designation),
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int64("total_observers", atomic.LoadInt64(&s.count)))

	go o.writePump(s.config, s.logger)
	go func() {
		o.readPump(s.config)
		s.remove(o)
	}()
}

func (s *Server) remove(o *observer) {
	s.mu.Lock()
	removed := false
	if set, ok := s.observers[o.designation]; ok {
		if _, ok = set[o.id]; ok {
			delete(set, o.id)
			removed = true
		}
		if len(set) == 0 {
			delete(s.observers, o.designation)
			delete(s.pushed, o.designation)
		}
	}
	for i, p := range s.pending {
		if p == o {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if !removed {
		return
	}

	atomic.AddInt64(&s.count, -1)
	s.logger.Info("Observer disconnected",
		log.String("observer_id", o.id.String()),
		log.Designation(o.designation),
		log.Duration("connected_for", time.Since(o.connectedAt)))
}

// dropWorld disconnects every observer of designation. Their read pumps
// unregister them.
func (s *Server) dropWorld(designation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.observers[designation] {
		o.close()
	}
	for _, o := range s.pending {
		if o.designation == designation {
			o.close()
		}
	}
}

// Tick must be called once per world tick on the goroutine owning the worlds.
// New observers get a full snapshot right away; every SyncInterval ticks, worlds
// whose revision moved since their last push are sent to all their observers.
func (s *Server) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks++

	type encoded struct {
		msg      []byte
		revision uint64
	}
	cache := make(map[string]*encoded)
	encode := func(designation string) *encoded {
		if e, ok := cache[designation]; ok {
			return e
		}
		c, ok := s.worlds.Get(designation)
		if !ok {
			cache[designation] = nil
			return nil
		}
		msg, err := encodeWorld(c)
		if err != nil {
			s.logger.Error("Failed to encode world data", log.Designation(designation), log.Error(err))
			cache[designation] = nil
			return nil
		}
		e := &encoded{msg: msg, revision: c.Revision()}
		cache[designation] = e
		return e
	}

	joined := make(map[uuid.UUID]bool, len(s.pending))
	for _, o := range s.pending {
		e := encode(o.designation)
		if e == nil {
			o.close()
			continue
		}
		set, exists := s.observers[o.designation]
		if !exists {
			set = make(map[uuid.UUID]*observer)
			s.observers[o.designation] = set
			s.pushed[o.designation] = e.revision
		}
		set[o.id] = o
		joined[o.id] = true
		s.deliver(o, e.msg)
	}
	s.pending = s.pending[:0]

	if s.ticks%uint64(s.config.SyncInterval) != 0 {
		return
	}
	for designation, set := range s.observers {
		c, ok := s.worlds.Get(designation)
		if !ok {
			for _, o := range set {
				o.close()
			}
			continue
		}
		if c.Revision() == s.pushed[designation] {
			continue
		}
		e := encode(designation)
		if e == nil {
			continue
		}
		s.pushed[designation] = e.revision
		for id, o := range set {
			if !joined[id] {
				s.deliver(o, e.msg)
			}
		}
	}
}

func (s *Server) deliver(o *observer, msg []byte) {
	if !o.enqueue(msg) {
		s.logger.Warn("Dropping slow observer",
			log.String("observer_id", o.id.String()),
			log.Designation(o.designation))
		o.close()
	}
}

func encodeWorld(c *world.Composition) ([]byte, error) {
	snap := codec.TakeSnapshot(c)
	return json.Marshal(Message{Type: MessageWorldData, World: &snap})
}
