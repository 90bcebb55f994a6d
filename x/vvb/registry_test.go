package vvb

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/store"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func newTestRegistry() *Registry {
	now := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	return NewRegistry(store.NewMemStore(), fixedClock(now))
}

func TestRegister(t *testing.T) {
	r := newTestRegistry()

	e, err := r.Register("VVB-001", "Veritas Assurance", "certification_body")
	require.NoError(t, err)
	assert.True(t, e.Active)
	assert.NotNil(t, e.Certifications)
	assert.Empty(t, e.Certifications)
	assert.NotNil(t, e.Metadata)
	assert.Empty(t, e.Metadata)
	assert.False(t, e.RegisteredAt.IsZero())

	got, err := r.Get("VVB-001")
	require.NoError(t, err)
	assert.Equal(t, "Veritas Assurance", got.Name)
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Register("VVB-001", "first", TypeExternalReviewer)
	require.NoError(t, err)

	_, err = r.Register("VVB-001", "second", TypeExternalReviewer)
	if !errors.ErrDuplicate.Is(err) {
		t.Fatalf("want ErrDuplicate, got %+v", err)
	}
}

func TestGetUnknown(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Get("missing")
	if !errors.ErrNotFound.Is(err) {
		t.Fatalf("want ErrNotFound, got %+v", err)
	}
}

func TestListIsOrdered(t *testing.T) {
	r := newTestRegistry()
	for _, id := range []string{"VVB-003", "VVB-001", "VVB-002"} {
		_, err := r.Register(id, id, TypeExternalReviewer)
		require.NoError(t, err)
	}

	all, err := r.List()
	require.NoError(t, err)
	var ids []string
	for _, e := range all {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"VVB-001", "VVB-002", "VVB-003"}, ids)
}

func TestEnsureReviewer(t *testing.T) {
	r := newTestRegistry()

	// Unknown id is auto-registered as a minimal external reviewer.
	e, err := r.EnsureReviewer("VVB-042")
	require.NoError(t, err)
	assert.Equal(t, TypeExternalReviewer, e.Type)
	assert.Equal(t, attest.RoleReviewer, e.Role())

	// A known id is returned as registered, type untouched.
	_, err = r.Register("VVB-001", "Veritas", "certification_body")
	require.NoError(t, err)
	e, err = r.EnsureReviewer("VVB-001")
	require.NoError(t, err)
	assert.Equal(t, "certification_body", e.Type)
}

func TestEnsureReviewerConcurrent(t *testing.T) {
	r := newTestRegistry()

	// Concurrent callers introducing the same id must all succeed,
	// whoever loses the registration race adopts the winner's entity.
	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			e, err := r.EnsureReviewer("VVB-042")
			if err == nil && e.Type != TypeExternalReviewer {
				err = errors.Wrapf(errors.ErrInvalidState, "type %q", e.Type)
			}
			errs[n] = err
		}(i)
	}
	wg.Wait()

	for n, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %+v", n, err)
		}
	}
}

func TestRoleMapping(t *testing.T) {
	cases := map[string]struct {
		typ  string
		want attest.Role
	}{
		"admin":             {TypeAdmin, attest.RoleAdmin},
		"validator":         {TypeValidator, attest.RoleValidator},
		"external reviewer": {TypeExternalReviewer, attest.RoleReviewer},
		"anything else":     {"certification_body", attest.RoleReviewer},
		"empty is external": {"", attest.RoleReviewer},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := VVBEntity{Type: tc.typ}
			assert.Equal(t, tc.want, e.Role())
		})
	}
}
