package approval

import (
	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
)

// hasQuorum reports whether the distinct authorized approvals recorded
// so far satisfy the request threshold. It is a pure comparison over the
// current ledger state, recomputed after every accepted vote; no
// intermediate counters are persisted anywhere, so there is nothing to
// drift.
func hasQuorum(req *ApprovalRequest, distinctVotes int) bool {
	return uint32(distinctVotes) >= req.Quorum
}

// authorize checks whether the approver may cast a vote on this request,
// given the votes already recorded. Failure reasons are deliberately
// coarse, all of them finalize the request as rejected:
//
//   - the approver's role does not appear in the required composition
//   - a slot is bound to a specific identity and this is not it
//   - every slot of the approver's role is consumed by other approvers
func authorize(req *ApprovalRequest, records []*ApprovalRecord, approverID string, role attest.Role) error {
	taken := 0
	for _, rec := range records {
		if rec.ApproverID == approverID {
			// Already holds a seat, re-voting is a no-op upstream.
			return nil
		}
		if rec.Role == role {
			taken++
		}
	}

	open := 0
	for _, slot := range req.RequiredApprovers {
		if slot.Role != role {
			continue
		}
		if slot.AssignedID != "" && slot.AssignedID != approverID {
			continue
		}
		open++
	}
	if open == 0 {
		return errors.Wrapf(errors.ErrUnauthorized, "role %s has no seat on a %s change", role, req.Tier)
	}
	if taken >= open {
		return errors.Wrapf(errors.ErrUnauthorized, "all %s seats are consumed", role)
	}
	return nil
}
