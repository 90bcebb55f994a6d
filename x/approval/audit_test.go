package approval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/store"
)

func TestAuditTrailKeepsInsertionOrder(t *testing.T) {
	db := store.NewMemStore()
	trail := newAuditTrail()

	messages := []string{"submitted", "approved by VVB_ADMIN_1", "quorum reached"}
	for i, msg := range messages {
		require.NoError(t, trail.Append(db, "V1", msg, "actor", attest.UnixTime(100+i)))
	}

	entries, err := trail.Entries(db, "V1")
	require.NoError(t, err)
	require.Len(t, entries, len(messages))
	for i, e := range entries {
		assert.Equal(t, messages[i], e.Message)
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestAuditTrailIsRepeatable(t *testing.T) {
	db := store.NewMemStore()
	trail := newAuditTrail()
	require.NoError(t, trail.Append(db, "V1", "submitted", "svc", 100))

	first, err := trail.Entries(db, "V1")
	require.NoError(t, err)
	second, err := trail.Entries(db, "V1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAuditTrailIsolatesEntities(t *testing.T) {
	db := store.NewMemStore()
	trail := newAuditTrail()

	require.NoError(t, trail.Append(db, "V1", "submitted", "svc", 100))
	require.NoError(t, trail.Append(db, "V10", "submitted", "svc", 100))

	// "V1" is a prefix of "V10"; trails must not bleed into each other.
	entries, err := trail.Entries(db, "V1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "V1", entries[0].EntityID)
}

func TestAuditTrailKeepsReasonText(t *testing.T) {
	db := store.NewMemStore()
	trail := newAuditTrail()
	require.NoError(t, trail.Append(db, "C1", "rejected: methodology deviation MD-17", "", 100))

	entries, err := trail.Entries(db, "C1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// Compliance tooling greps for keywords, the reason must survive
	// verbatim.
	assert.True(t, strings.Contains(entries[0].Message, "methodology deviation MD-17"))
}
