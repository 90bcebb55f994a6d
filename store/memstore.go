// Package store provides the in-memory, ordered key-value arena backing
// the approval engine. It is the only state owner in the module; any
// durability is delegated to an external store keyed the same way.
package store

import (
	"bytes"
	"sync"

	"github.com/google/btree"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
)

// degree is the btree branching factor. Same value the upstream library
// documents as a sane default for small payloads.
const degree = 32

type item struct {
	key   []byte
	value []byte
}

func lessItem(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// MemStore is a btree backed implementation of attest.KVStore. It keeps
// keys in ascending byte order which the engine relies on for prefix
// scans (audit trails, registry listings). All methods are safe for
// concurrent use.
//
// There is no persistence here. The zero value is not usable, create
// instances with NewMemStore.
type MemStore struct {
	mu sync.RWMutex
	bt *btree.BTreeG[item]
}

var _ attest.KVStore = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		bt: btree.NewG(degree, lessItem),
	}
}

// Get returns the value stored under given key, or nil when not found.
func (s *MemStore) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "key")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.bt.Get(item{key: key})
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), it.value...), nil
}

// Has checks for key existence.
func (s *MemStore) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, errors.Wrap(errors.ErrEmpty, "key")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bt.Get(item{key: key})
	return ok, nil
}

// Set overwrites the value stored under given key.
func (s *MemStore) Set(key, value []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bt.ReplaceOrInsert(item{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	return nil
}

// Delete removes the key. Deleting a non existing key is a no-op.
func (s *MemStore) Delete(key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bt.Delete(item{key: key})
	return nil
}

// Iterator returns an ascending iterator over [start, end). A nil start
// begins at the first key, a nil end runs through the last one. The
// result is a stable snapshot: writes issued after creation are not
// observed, so callers may hold the iterator while mutating the store.
func (s *MemStore) Iterator(start, end []byte) (attest.Iterator, error) {
	if start != nil && end != nil && bytes.Compare(start, end) >= 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "start must be less than end")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap []item
	collect := func(it item) bool {
		if end != nil && bytes.Compare(it.key, end) >= 0 {
			return false
		}
		snap = append(snap, it)
		return true
	}
	if start == nil {
		s.bt.Ascend(collect)
	} else {
		s.bt.AscendGreaterOrEqual(item{key: start}, collect)
	}
	return &sliceIterator{items: snap}, nil
}

// PrefixRange turns a prefix into a (start, end) range covering exactly
// the keys with that prefix.
//
//	prefix "audit:V1:" -> ["audit:V1:", "audit:V1;")
//
// In case the prefix is 0xff-terminated the end of the range is open.
func PrefixRange(prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return nil, nil
	}
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return prefix, end[:i+1]
		}
	}
	return prefix, nil
}

type sliceIterator struct {
	items []item
	pos   int
}

var _ attest.Iterator = (*sliceIterator)(nil)

func (it *sliceIterator) Next() bool {
	if it.pos >= len(it.items) {
		return false
	}
	it.pos++
	return it.pos <= len(it.items)
}

func (it *sliceIterator) Key() []byte {
	return it.items[it.pos-1].key
}

func (it *sliceIterator) Value() []byte {
	return it.items[it.pos-1].value
}

func (it *sliceIterator) Release() {
	it.items = nil
	it.pos = 0
}
