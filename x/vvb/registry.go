package vvb

import (
	"encoding/json"
	"sync"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/orm"
)

// BucketName is where registered bodies are stored.
const BucketName = "vvb"

// Registry keeps the set of known approving authorities. All methods are
// safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	db     attest.KVStore
	bucket orm.Bucket
	clock  attest.Clock
}

// NewRegistry returns a registry persisting into given store.
func NewRegistry(db attest.KVStore, clock attest.Clock) *Registry {
	return &Registry{
		db:     db,
		bucket: orm.NewBucket(BucketName),
		clock:  clock,
	}
}

// Register adds a new active body with empty certifications and
// metadata. Registering an id twice fails with ErrDuplicate.
func (r *Registry) Register(id, name, typ string) (*VVBEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := r.bucket.Has(r.db, []byte(id))
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, errors.Wrapf(errors.ErrDuplicate, "vvb %q", id)
	}

	e := &VVBEntity{
		ID:             id,
		Name:           name,
		Type:           typ,
		Active:         true,
		RegisteredAt:   attest.AsUnixTime(r.clock.Now()),
		Certifications: []string{},
		Metadata:       map[string]string{},
	}
	if err := r.bucket.Save(r.db, []byte(id), e); err != nil {
		return nil, err
	}
	return e.Copy(), nil
}

// Get returns the body registered under given id, or ErrNotFound.
func (r *Registry) Get(id string) (*VVBEntity, error) {
	var e VVBEntity
	if err := r.bucket.One(r.db, []byte(id), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns all registered bodies ordered by id.
func (r *Registry) List() ([]*VVBEntity, error) {
	var out []*VVBEntity
	err := r.bucket.Iterate(r.db, nil, func(key, raw []byte) error {
		var e VVBEntity
		if err := json.Unmarshal(raw, &e); err != nil {
			return errors.Wrapf(errors.ErrInvalidState, "cannot deserialize vvb %q: %v", key, err)
		}
		out = append(out, &e)
		return nil
	})
	return out, err
}

// EnsureReviewer returns the body registered under given id,
// auto-registering a minimal external reviewer when the id is unknown.
// Only the general contract review path may call this; tiered approval
// never auto-registers.
func (r *Registry) EnsureReviewer(id string) (*VVBEntity, error) {
	e, err := r.Get(id)
	switch {
	case err == nil:
		return e, nil
	case errors.ErrNotFound.Is(err):
		e, err := r.Register(id, id, TypeExternalReviewer)
		if errors.ErrDuplicate.Is(err) {
			// Lost the race against a concurrent registration of the
			// same id. The winner's entity serves both callers.
			return r.Get(id)
		}
		return e, err
	}
	return nil, err
}
