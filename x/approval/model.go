package approval

import (
	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/orm"
)

// ApproverSlot is one seat in the required approver composition of a
// request. The set of slots is fixed at submission and never changes.
type ApproverSlot struct {
	Role attest.Role `json:"role"`
	// AssignedID binds this slot to a specific approver identity. Empty
	// means any registered identity carrying the slot role may fill it.
	// Only general tier reviewer slots are ever bound.
	AssignedID string `json:"assigned_id,omitempty"`
}

func (s ApproverSlot) Validate() error {
	return errors.Wrap(s.Role.Validate(), "slot role")
}

// ApprovalRequest tracks one proposed change from submission to its
// terminal state.
type ApprovalRequest struct {
	ID          string          `json:"id"`
	EntityID    string          `json:"entity_id"`
	Tier        attest.Tier     `json:"tier"`
	SubmittedAt attest.UnixTime `json:"submitted_at"`
	SubmitterID string          `json:"submitter_id"`
	// Deadline closes the decision window. Votes past it finalize the
	// request as expired.
	Deadline          attest.UnixTime `json:"deadline"`
	RequiredApprovers []ApproverSlot  `json:"required_approvers"`
	// Quorum is the number of distinct authorized approvals required to
	// finalize as approved. Fixed at submission from the tier policy.
	Quorum          uint32        `json:"quorum"`
	Status          attest.Status `json:"status"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	// Votes is the count of distinct approvals recorded so far. It is a
	// convenience for status queries; quorum decisions always recount
	// the vote ledger.
	Votes uint32 `json:"votes"`
}

var _ orm.Model = (*ApprovalRequest)(nil)

func (r *ApprovalRequest) Validate() error {
	switch {
	case r.ID == "":
		return errors.Wrap(errors.ErrEmpty, "id")
	case r.EntityID == "":
		return errors.Wrap(errors.ErrEmpty, "entity id")
	case r.SubmittedAt.IsZero():
		return errors.Wrap(errors.ErrEmpty, "submitted at")
	}
	if err := r.Status.Validate(); err != nil {
		return err
	}
	// A request rejected at submission keeps its unsupported tier and
	// has no approver slots. Anything pending must carry a valid tier
	// and composition.
	if r.Status == attest.StatusRejected {
		return nil
	}
	if err := r.Tier.Validate(); err != nil {
		return err
	}
	if len(r.RequiredApprovers) == 0 {
		return errors.Wrap(errors.ErrEmpty, "required approvers")
	}
	for i, slot := range r.RequiredApprovers {
		if err := slot.Validate(); err != nil {
			return errors.Wrapf(err, "slot %d", i)
		}
	}
	if r.Quorum == 0 || int(r.Quorum) > len(r.RequiredApprovers) {
		return errors.Wrapf(errors.ErrInvalidState, "quorum %d of %d slots", r.Quorum, len(r.RequiredApprovers))
	}
	return nil
}

// Copy returns a deep copy of this request.
func (r *ApprovalRequest) Copy() *ApprovalRequest {
	slots := make([]ApproverSlot, len(r.RequiredApprovers))
	copy(slots, r.RequiredApprovers)
	c := *r
	c.RequiredApprovers = slots
	return &c
}

// PastDeadline reports whether the decision window is over at given
// moment.
func (r *ApprovalRequest) PastDeadline(now attest.UnixTime) bool {
	return now.After(r.Deadline)
}

// ApprovalRecord is one distinct approver decision on a request. A
// second vote from the same approver does not create a new record.
type ApprovalRecord struct {
	RequestID  string          `json:"request_id"`
	ApproverID string          `json:"approver_id"`
	Role       attest.Role     `json:"role"`
	Timestamp  attest.UnixTime `json:"timestamp"`
}

var _ orm.Model = (*ApprovalRecord)(nil)

func (v *ApprovalRecord) Validate() error {
	switch {
	case v.RequestID == "":
		return errors.Wrap(errors.ErrEmpty, "request id")
	case v.ApproverID == "":
		return errors.Wrap(errors.ErrEmpty, "approver id")
	case v.Timestamp.IsZero():
		return errors.Wrap(errors.ErrEmpty, "timestamp")
	}
	return errors.Wrap(v.Role.Validate(), "role")
}
