/*
Package orm provides a thin typed layer over the key-value arena.

State space is broken into prefixed sections called buckets. Each bucket
contains only one type of model, serialized as JSON. Buckets do no
caching and hold no state besides their prefix, so they are safe to copy
and share. Ordered per-bucket iteration falls out of the byte ordering of
the underlying store.
*/
package orm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/store"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// Model is implemented by any entity that can be stored in a Bucket.
type Model interface {
	Validate() error
}

// Bucket is a prefixed subspace of the database holding models of a
// single type. Embed it in a type-safe wrapper to fix the model type.
type Bucket struct {
	name   string
	prefix []byte
}

// NewBucket returns a bucket for given name. The name must be a short
// lowercase identifier as it becomes part of every key.
func NewBucket(name string) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("illegal bucket name: %q", name))
	}
	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the name of this bucket.
func (b Bucket) Name() string {
	return b.name
}

// DBKey maps a model key to its full database key.
func (b Bucket) DBKey(key []byte) []byte {
	return append(append([]byte(nil), b.prefix...), key...)
}

// One loads the model stored under given key into dest. This method
// returns ErrNotFound if the entity does not exist in the database.
func (b Bucket) One(db attest.ReadOnlyKVStore, key []byte, dest Model) error {
	raw, err := db.Get(b.DBKey(key))
	if err != nil {
		return errors.Wrapf(err, "bucket %s", b.name)
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "bucket %s, key %q", b.name, key)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrInvalidState, "cannot deserialize %s model: %v", b.name, err)
	}
	return nil
}

// Has checks whether a model exists under given key.
func (b Bucket) Has(db attest.ReadOnlyKVStore, key []byte) (bool, error) {
	ok, err := db.Has(b.DBKey(key))
	return ok, errors.Wrapf(err, "bucket %s", b.name)
}

// Save validates and persists given model under given key, overwriting
// any previous value.
func (b Bucket) Save(db attest.KVStore, key []byte, m Model) error {
	if err := m.Validate(); err != nil {
		return errors.Wrapf(err, "invalid %s model", b.name)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidState, "cannot serialize %s model: %v", b.name, err)
	}
	return errors.Wrapf(db.Set(b.DBKey(key), raw), "bucket %s", b.name)
}

// Delete removes the model stored under given key. Removing a missing
// key is a no-op.
func (b Bucket) Delete(db attest.KVStore, key []byte) error {
	return errors.Wrapf(db.Delete(b.DBKey(key)), "bucket %s", b.name)
}

// IterDone can be returned from an Iterate callback to abort the walk
// early without surfacing an error to the caller.
var IterDone = fmt.Errorf("iteration done")

// Iterate walks all models in this bucket whose key begins with given
// subprefix, in ascending key order. The callback receives the model key
// (without the bucket prefix) and the raw serialized value. Returning
// IterDone stops the walk cleanly, any other error aborts it.
func (b Bucket) Iterate(db attest.ReadOnlyKVStore, subprefix []byte, fn func(key, raw []byte) error) error {
	full := append(append([]byte(nil), b.prefix...), subprefix...)
	start, end := store.PrefixRange(full)
	it, err := db.Iterator(start, end)
	if err != nil {
		return errors.Wrapf(err, "bucket %s", b.name)
	}
	defer it.Release()

	for it.Next() {
		key := bytes.TrimPrefix(it.Key(), b.prefix)
		switch err := fn(key, it.Value()); {
		case err == IterDone:
			return nil
		case err != nil:
			return err
		}
	}
	return nil
}
