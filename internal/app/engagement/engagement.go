// Package engagement orchestrates the progression engine over storage.
//
// The services:
//  1. Fetch the agent's history snapshot from storage
//  2. Run the pure domain calculators (XP, rank, class, quests, badges)
//  3. Write results back in one storage transaction
//  4. Emit metrics, spans and structured logs
package engagement

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nocturna-app/nocturna/internal/infra/observability"
)

// Config wires shared collaborators into every service.
type Config struct {
	// Location decides which calendar day, week and month "now" falls in.
	// Nil means UTC.
	Location *time.Location

	// Now overrides the wall clock in tests. Nil means time.Now.
	Now func() time.Time

	// NewID generates transaction and agent IDs. Nil means uuid.NewString.
	NewID func() string

	Logger zerolog.Logger
	Tracer *observability.Tracer // nil gets a private tracer
}

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	if c.Tracer == nil {
		c.Tracer = observability.NewTracer(observability.DefaultTracerConfig())
	}
	return c
}

// now returns the current instant in the configured calendar zone.
func (c Config) now() time.Time {
	return c.Now().In(c.Location)
}

// ─── Keyed Lock ─────────────────────────────────────────────────────────────

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns its unlock func.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// held returns the number of keys currently tracked.
func (k *keyedMutex) held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
