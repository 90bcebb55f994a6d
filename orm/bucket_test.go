package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/store"
)

type counterModel struct {
	Count int `json:"count"`
}

func (m *counterModel) Validate() error {
	if m.Count < 0 {
		return errors.Wrap(errors.ErrInvalidInput, "negative count")
	}
	return nil
}

func TestBucketSaveAndLoad(t *testing.T) {
	db := store.NewMemStore()
	b := NewBucket("cnts")

	require.NoError(t, b.Save(db, []byte("one"), &counterModel{Count: 1}))

	var got counterModel
	require.NoError(t, b.One(db, []byte("one"), &got))
	assert.Equal(t, 1, got.Count)

	ok, err := b.Has(db, []byte("one"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBucketOneNotFound(t *testing.T) {
	db := store.NewMemStore()
	b := NewBucket("cnts")

	var got counterModel
	err := b.One(db, []byte("missing"), &got)
	if !errors.ErrNotFound.Is(err) {
		t.Fatalf("want ErrNotFound, got %+v", err)
	}
}

func TestBucketSaveValidates(t *testing.T) {
	db := store.NewMemStore()
	b := NewBucket("cnts")

	err := b.Save(db, []byte("bad"), &counterModel{Count: -1})
	if !errors.ErrInvalidInput.Is(err) {
		t.Fatalf("want ErrInvalidInput, got %+v", err)
	}
	ok, err := b.Has(db, []byte("bad"))
	require.NoError(t, err)
	assert.False(t, ok, "invalid model must not be persisted")
}

func TestBucketsAreIsolated(t *testing.T) {
	db := store.NewMemStore()
	a := NewBucket("aaa")
	b := NewBucket("bbb")

	require.NoError(t, a.Save(db, []byte("k"), &counterModel{Count: 1}))
	require.NoError(t, b.Save(db, []byte("k"), &counterModel{Count: 2}))

	var got counterModel
	require.NoError(t, a.One(db, []byte("k"), &got))
	assert.Equal(t, 1, got.Count)
	require.NoError(t, b.One(db, []byte("k"), &got))
	assert.Equal(t, 2, got.Count)
}

func TestBucketIterate(t *testing.T) {
	db := store.NewMemStore()
	b := NewBucket("cnts")
	other := NewBucket("other")

	for i, key := range []string{"x:1", "x:2", "y:1"} {
		require.NoError(t, b.Save(db, []byte(key), &counterModel{Count: i}))
	}
	require.NoError(t, other.Save(db, []byte("x:9"), &counterModel{Count: 99}))

	var keys []string
	err := b.Iterate(db, []byte("x:"), func(key, raw []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x:1", "x:2"}, keys)

	// IterDone aborts cleanly.
	keys = nil
	err = b.Iterate(db, nil, func(key, raw []byte) error {
		keys = append(keys, string(key))
		return IterDone
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x:1"}, keys)
}

func TestBucketNamePolicy(t *testing.T) {
	assert.Panics(t, func() { NewBucket("Nope") })
	assert.Panics(t, func() { NewBucket("x") })
	assert.NotPanics(t, func() { NewBucket("audit") })
}

func TestSequence(t *testing.T) {
	db := store.NewMemStore()
	s := NewSequence("audit", "id")

	latest, err := s.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest)

	var prev []byte
	for i := int64(1); i <= 5; i++ {
		bz, err := s.NextVal(db)
		require.NoError(t, err)
		assert.Equal(t, i, DecodeSequence(bz))
		if prev != nil {
			assert.True(t, string(prev) < string(bz), "keys must be ordered")
		}
		prev = bz
	}

	latest, err = s.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(5), latest)
}
