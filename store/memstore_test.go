package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreGetSetDelete(t *testing.T) {
	db := NewMemStore()

	v, err := db.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.Set([]byte("a"), []byte("1")))
	require.NoError(t, db.Set([]byte("a"), []byte("2")))

	v, err = db.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	ok, err := db.Has([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, db.Delete([]byte("a")))
	ok, err = db.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again must not fail.
	require.NoError(t, db.Delete([]byte("a")))
}

func TestMemStoreRejectsEmptyKey(t *testing.T) {
	db := NewMemStore()
	if err := db.Set(nil, []byte("x")); err == nil {
		t.Fatal("nil key must be rejected")
	}
	if _, err := db.Get(nil); err == nil {
		t.Fatal("nil key must be rejected")
	}
}

func TestMemStoreIteratorOrder(t *testing.T) {
	db := NewMemStore()
	// Insert out of order, expect byte ordered iteration.
	for _, k := range []string{"b", "a", "c", "ab"} {
		require.NoError(t, db.Set([]byte(k), []byte("v:"+k)))
	}

	it, err := db.Iterator(nil, nil)
	require.NoError(t, err)
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "ab", "b", "c"}, keys)
}

func TestMemStoreIteratorRange(t *testing.T) {
	db := NewMemStore()
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, db.Set([]byte(k), []byte{1}))
	}

	cases := map[string]struct {
		start, end []byte
		wantKeys   []string
	}{
		"full range":      {nil, nil, []string{"a", "b", "c", "d"}},
		"from start":      {[]byte("b"), nil, []string{"b", "c", "d"}},
		"until end":       {nil, []byte("c"), []string{"a", "b"}},
		"bounded":         {[]byte("b"), []byte("d"), []string{"b", "c"}},
		"end is excluded": {[]byte("a"), []byte("b"), []string{"a"}},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			it, err := db.Iterator(tc.start, tc.end)
			require.NoError(t, err)
			defer it.Release()
			var keys []string
			for it.Next() {
				keys = append(keys, string(it.Key()))
			}
			assert.Equal(t, tc.wantKeys, keys)
		})
	}
}

func TestMemStoreIteratorIsSnapshot(t *testing.T) {
	db := NewMemStore()
	require.NoError(t, db.Set([]byte("a"), []byte{1}))
	require.NoError(t, db.Set([]byte("b"), []byte{1}))

	it, err := db.Iterator(nil, nil)
	require.NoError(t, err)
	defer it.Release()

	// Writes while the iterator is live must not be observed by it.
	require.NoError(t, db.Set([]byte("aa"), []byte{1}))
	require.NoError(t, db.Delete([]byte("b")))

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestPrefixRange(t *testing.T) {
	cases := map[string]struct {
		prefix []byte
		start  []byte
		end    []byte
	}{
		"empty":          {nil, nil, nil},
		"ascii":          {[]byte("audit:V1:"), []byte("audit:V1:"), []byte("audit:V1;")},
		"trailing 0xff":  {[]byte{0x01, 0xff}, []byte{0x01, 0xff}, []byte{0x02}},
		"only 0xff":      {[]byte{0xff, 0xff}, []byte{0xff, 0xff}, nil},
		"increment last": {[]byte{0x01, 0x02}, []byte{0x01, 0x02}, []byte{0x01, 0x03}},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			start, end := PrefixRange(tc.prefix)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}

func TestMemStoreConcurrentAccess(t *testing.T) {
	db := NewMemStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := []byte(fmt.Sprintf("w%d:%d", n, j))
				if err := db.Set(key, []byte{byte(j)}); err != nil {
					t.Error(err)
					return
				}
				if _, err := db.Get(key); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	it, err := db.Iterator(nil, nil)
	require.NoError(t, err)
	defer it.Release()
	var count int
	for it.Next() {
		count++
	}
	assert.Equal(t, 800, count)
}
