package approval

import (
	"encoding/json"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/orm"
)

// VoteBucketName is where approval records are stored.
const VoteBucketName = "votes"

// voteLedger records the distinct approver decisions per request. Keys
// are request id scoped, so requests never observe each other's votes.
type voteLedger struct {
	bucket orm.Bucket
}

func newVoteLedger() voteLedger {
	return voteLedger{bucket: orm.NewBucket(VoteBucketName)}
}

func voteKey(requestID, approverID string) []byte {
	return []byte(requestID + ":" + approverID)
}

// Insert stores the record unless the approver already voted on this
// request. The returned flag reports whether a new record was created;
// repeating a vote is a no-op, not an error.
func (l voteLedger) Insert(db attest.KVStore, rec *ApprovalRecord) (bool, error) {
	key := voteKey(rec.RequestID, rec.ApproverID)
	ok, err := l.bucket.Has(db, key)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	if err := l.bucket.Save(db, key, rec); err != nil {
		return false, err
	}
	return true, nil
}

// Has reports whether the approver already voted on given request.
func (l voteLedger) Has(db attest.ReadOnlyKVStore, requestID, approverID string) (bool, error) {
	return l.bucket.Has(db, voteKey(requestID, approverID))
}

// Records returns all distinct votes cast on given request, ordered by
// approver id.
func (l voteLedger) Records(db attest.ReadOnlyKVStore, requestID string) ([]*ApprovalRecord, error) {
	var out []*ApprovalRecord
	prefix := []byte(requestID + ":")
	err := l.bucket.Iterate(db, prefix, func(key, raw []byte) error {
		var rec ApprovalRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return errors.Wrapf(errors.ErrInvalidState, "cannot deserialize vote %q: %v", key, err)
		}
		out = append(out, &rec)
		return nil
	})
	return out, err
}
