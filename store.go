package attest

// ReadOnlyKVStore is the query side of the state arena the engine owns.
type ReadOnlyKVStore interface {
	// Get returns nil iff key doesn't exist. Errors on nil key.
	Get(key []byte) ([]byte, error)

	// Has checks if a key exists. Errors on nil key.
	Has(key []byte) (bool, error)

	// Iterator over a domain of keys in ascending order. End is
	// exclusive. Start must be less than end, or the Iterator is
	// invalid. A nil start iterates from the first key, a nil end
	// through the last one.
	Iterator(start, end []byte) (Iterator, error)
}

// KVStore extends the read side with writes. All engine state lives
// behind this contract so that durability can be delegated to an
// external store without touching the engine.
type KVStore interface {
	ReadOnlyKVStore

	// Set overwrites the value under given key. Errors on nil key.
	Set(key, value []byte) error

	// Delete removes the key. Deleting a non existing key is a no-op.
	Delete(key []byte) error
}

// Iterator walks a key range in order.
//
//	it, err := db.Iterator(start, end)
//	...
//	defer it.Release()
//	for it.Next() {
//		k, v := it.Key(), it.Value()
//	}
type Iterator interface {
	// Next moves the cursor and reports whether a pair is available.
	// The first call positions the cursor on the first pair.
	Next() bool

	// Key returns the key of the cursor. Only valid after a Next call
	// that returned true. The returned slice must not be modified.
	Key() []byte

	// Value returns the value of the cursor. Only valid after a Next
	// call that returned true. The returned slice must not be modified.
	Value() []byte

	// Release frees the iterator. Callers may re-create iterators over
	// the same range repeatedly without side effects.
	Release()
}
