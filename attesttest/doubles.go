// Package attesttest provides deterministic doubles for the collaborator
// interfaces consumed by the engine. No network and no cryptography, so
// unit tests stay fast and reproducible.
package attesttest

import (
	"crypto/sha256"
	"sync"
	"time"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
)

// Clock is a manual attest.Clock implementation. The zero value is not
// usable, create instances with NewClock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

var _ attest.Clock = (*Clock)(nil)

// NewClock returns a clock frozen at given moment.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by given duration.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Signer is a deterministic attest.Signer implementation. It signs by
// hashing the message, so signatures are stable across runs and visibly
// depend on the payload.
type Signer struct {
	// Err, when set, is returned by every Sign call.
	Err error

	mu    sync.Mutex
	calls int
}

var _ attest.Signer = (*Signer)(nil)

func (s *Signer) Sign(message []byte) (*attest.Signature, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	digest := sha256.Sum256(message)
	return &attest.Signature{Algo: "sha256-test", Sig: digest[:]}, nil
}

// SignCount returns how many times Sign was called.
func (s *Signer) SignCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// EntityLookup is a map backed attest.EntityLookup implementation.
type EntityLookup struct {
	mu       sync.Mutex
	entities map[string]*attest.Entity
}

var _ attest.EntityLookup = (*EntityLookup)(nil)

// NewEntityLookup returns a lookup knowing given entities.
func NewEntityLookup(entities ...*attest.Entity) *EntityLookup {
	l := &EntityLookup{entities: make(map[string]*attest.Entity)}
	for _, e := range entities {
		l.entities[e.ID] = e
	}
	return l
}

// Add registers another known entity.
func (l *EntityLookup) Add(e *attest.Entity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entities[e.ID] = e
}

func (l *EntityLookup) Get(entityID string) (*attest.Entity, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entities[entityID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "entity %q", entityID)
	}
	cp := *e
	return &cp, nil
}
