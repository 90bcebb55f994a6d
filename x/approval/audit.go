package approval

import (
	"encoding/json"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/orm"
)

// AuditBucketName is where audit entries are stored.
const AuditBucketName = "audit"

// AuditEntry is one line of the per-entity compliance log. Entries are
// append-only, never rewritten or deleted. Messages include the reason
// texts verbatim, compliance tooling greps them for keywords.
type AuditEntry struct {
	EntityID  string          `json:"entity_id"`
	Seq       int64           `json:"seq"`
	Message   string          `json:"message"`
	Actor     string          `json:"actor"`
	Timestamp attest.UnixTime `json:"timestamp"`
}

var _ orm.Model = (*AuditEntry)(nil)

func (e *AuditEntry) Validate() error {
	switch {
	case e.EntityID == "":
		return errors.Wrap(errors.ErrEmpty, "entity id")
	case e.Seq < 1:
		return errors.Wrap(errors.ErrInvalidState, "sequence")
	case e.Message == "":
		return errors.Wrap(errors.ErrEmpty, "message")
	case e.Timestamp.IsZero():
		return errors.Wrap(errors.ErrEmpty, "timestamp")
	}
	return nil
}

// auditTrail is the append-only per-entity event log. Each entity owns
// its own sequence, so entry keys sort in insertion order and trails of
// different entities never interleave.
type auditTrail struct {
	bucket orm.Bucket
}

func newAuditTrail() auditTrail {
	return auditTrail{bucket: orm.NewBucket(AuditBucketName)}
}

// Append adds one entry at the end of the entity's trail.
func (t auditTrail) Append(db attest.KVStore, entityID, message, actor string, now attest.UnixTime) error {
	seq := orm.NewSequence(AuditBucketName, entityID)
	n, err := seq.NextInt(db)
	if err != nil {
		return err
	}
	entry := &AuditEntry{
		EntityID:  entityID,
		Seq:       n,
		Message:   message,
		Actor:     actor,
		Timestamp: now,
	}
	key := append([]byte(entityID+":"), orm.EncodeSequence(n)...)
	return t.bucket.Save(db, key, entry)
}

// Entries returns the entity's trail in insertion order. The read is
// side effect free and can be repeated.
func (t auditTrail) Entries(db attest.ReadOnlyKVStore, entityID string) ([]*AuditEntry, error) {
	var out []*AuditEntry
	prefix := []byte(entityID + ":")
	err := t.bucket.Iterate(db, prefix, func(key, raw []byte) error {
		var e AuditEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return errors.Wrapf(errors.ErrInvalidState, "cannot deserialize audit entry %q: %v", key, err)
		}
		out = append(out, &e)
		return nil
	})
	return out, err
}
