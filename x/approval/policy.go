package approval

import (
	"time"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
)

// DefaultApprovalWindow is the decision window granted to a request.
const DefaultApprovalWindow = 7 * 24 * time.Hour

// Policy is the required approver composition and quorum threshold of a
// tier. It is the output of a pure mapping and carries no state.
type Policy struct {
	Slots  []ApproverSlot
	Quorum uint32
	Window time.Duration
}

// ResolvePolicy maps a change tier to its approval policy. The mapping
// is pure and side effect free:
//
//	STANDARD  1 validator, 1 of 1
//	ELEVATED  admin + validator, 2 of 2 (unanimous, a fractional
//	          quorum is not meaningful at this size)
//	CRITICAL  admin + admin + validator, 2 of 3 (tolerates one absent
//	          or dissenting participant; the two admin seats alone
//	          carry the decision)
//	GENERAL   1 reviewer, 1 of 1, optionally bound to the body
//	          assigned to the entity under review
//
// An unknown tier fails with ErrInvalidTier. The caller must still
// persist a request record finalized as rejected instead of leaving an
// orphaned pending one.
func ResolvePolicy(tier attest.Tier, assignedVVB string) (Policy, error) {
	switch tier {
	case attest.TierStandard:
		return Policy{
			Slots:  []ApproverSlot{{Role: attest.RoleValidator}},
			Quorum: 1,
			Window: DefaultApprovalWindow,
		}, nil
	case attest.TierElevated:
		return Policy{
			Slots: []ApproverSlot{
				{Role: attest.RoleAdmin},
				{Role: attest.RoleValidator},
			},
			Quorum: 2,
			Window: DefaultApprovalWindow,
		}, nil
	case attest.TierCritical:
		return Policy{
			Slots: []ApproverSlot{
				{Role: attest.RoleAdmin},
				{Role: attest.RoleAdmin},
				{Role: attest.RoleValidator},
			},
			Quorum: 2,
			Window: DefaultApprovalWindow,
		}, nil
	case attest.TierGeneral:
		return Policy{
			Slots:  []ApproverSlot{{Role: attest.RoleReviewer, AssignedID: assignedVVB}},
			Quorum: 1,
			Window: DefaultApprovalWindow,
		}, nil
	case attest.TierInvalid:
		return Policy{}, errors.Wrap(errors.ErrInvalidTier, "empty tier")
	}
	return Policy{}, errors.Wrapf(errors.ErrInvalidTier, "tier %d", tier)
}
